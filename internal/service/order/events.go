package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Additional-Code/gigbid/internal/entity"
)

// Event types carried in the "type" field of every order event.
const (
	EventBidPlaced    = "bid.placed"
	EventOrderSettled = "order.settled"
)

// Envelope is the part shared by every order event; consumers decode it
// first to pick the concrete type.
type Envelope struct {
	Type    string `json:"type"`
	EventID string `json:"event_id"`
}

// BidPlacedEvent is emitted after a bid commits.
type BidPlacedEvent struct {
	Type            string           `json:"type"`
	EventID         string           `json:"event_id"`
	OrderID         int64            `json:"order_id"`
	GigID           int64            `json:"gig_id"`
	BuyerID         int64            `json:"buyer_id"`
	Price           decimal.Decimal  `json:"price"`
	PreviousHighest *decimal.Decimal `json:"previous_highest"`
	OccurredAt      time.Time        `json:"occurred_at"`
}

// OrderSettledEvent is emitted after a settlement commits.
type OrderSettledEvent struct {
	Type           string             `json:"type"`
	EventID        string             `json:"event_id"`
	OrderID        int64              `json:"order_id"`
	GigID          int64              `json:"gig_id"`
	Status         entity.OrderStatus `json:"status"`
	CancelledCount int                `json:"cancelled_count"`
	OccurredAt     time.Time          `json:"occurred_at"`
}

func newEventID() string {
	return uuid.NewString()
}
