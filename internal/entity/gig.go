package entity

import (
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Gig is a service listing posted by a seller. Price is the auction's base price.
type Gig struct {
	bun.BaseModel `bun:"table:gigs,alias:g"`

	ID           int64               `bun:",pk,autoincrement"`
	Title        string              `bun:"title,notnull"`
	Description  string              `bun:"description,notnull"`
	Price        decimal.Decimal     `bun:"price,type:decimal(10,2),notnull"`
	DeliveryTime int                 `bun:"delivery_time,notnull"`
	SellerID     int64               `bun:"seller_id,notnull"`
	Category     string              `bun:"category,notnull"`
	Rating       decimal.NullDecimal `bun:"rating,type:decimal(3,2)"`
	Feedback     *string             `bun:"feedback"`

	Seller *User `bun:"rel:belongs-to,join:seller_id=id"`
}
