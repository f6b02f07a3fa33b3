package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// OrderStatus is the lifecycle state of a bid.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed from s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// Order is a buyer's priced bid on a gig. A completed order is the auction winner.
type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID        int64           `bun:",pk,autoincrement"`
	GigID     int64           `bun:"gig_id,notnull"`
	BuyerID   int64           `bun:"buyer_id,notnull"`
	SellerID  int64           `bun:"seller_id,notnull"`
	Price     decimal.Decimal `bun:"price,type:decimal(10,2),notnull"`
	Status    OrderStatus     `bun:"status,notnull"`
	IsWinner  bool            `bun:"is_winner,notnull,default:false"`
	LockedAt  *time.Time      `bun:"locked_at"`
	CreatedAt time.Time       `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time       `bun:"updated_at,nullzero"`

	Gig    *Gig  `bun:"rel:belongs-to,join:gig_id=id"`
	Buyer  *User `bun:"rel:belongs-to,join:buyer_id=id"`
	Seller *User `bun:"rel:belongs-to,join:seller_id=id"`
}
