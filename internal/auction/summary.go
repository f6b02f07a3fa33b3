package auction

import (
	"github.com/shopspring/decimal"

	"github.com/Additional-Code/gigbid/internal/entity"
)

// Summary is the derived auction state of one gig.
type Summary struct {
	HighestBid  *decimal.Decimal `json:"highest_bid"`
	LeaderName  *string          `json:"leader_name"`
	IsLocked    bool             `json:"is_locked"`
	WinnerName  *string          `json:"winner_name"`
	WinnerPrice *decimal.Decimal `json:"winner_price"`
}

// Leader returns the highest bid regardless of status. Equal prices go to
// the lowest id, i.e. the earliest bid.
func Leader(bids []entity.Order) *entity.Order {
	var leader *entity.Order
	for i := range bids {
		b := &bids[i]
		switch {
		case leader == nil:
			leader = b
		case b.Price.GreaterThan(leader.Price):
			leader = b
		case b.Price.Equal(leader.Price) && b.ID < leader.ID:
			leader = b
		}
	}
	return leader
}

// Winner returns the completed order, if any.
func Winner(bids []entity.Order) *entity.Order {
	for i := range bids {
		if bids[i].Status == entity.OrderStatusCompleted {
			return &bids[i]
		}
	}
	return nil
}

// Locked reports whether the gig's auction has been settled.
func Locked(bids []entity.Order) bool {
	return Winner(bids) != nil
}

// Summarize derives the auction state. Buyer names come from the loaded
// Buyer relation.
func Summarize(bids []entity.Order) Summary {
	var s Summary
	if leader := Leader(bids); leader != nil {
		price := leader.Price
		s.HighestBid = &price
		s.LeaderName = buyerName(leader)
	}
	if winner := Winner(bids); winner != nil {
		price := winner.Price
		s.IsLocked = true
		s.WinnerPrice = &price
		s.WinnerName = buyerName(winner)
	}
	return s
}

func buyerName(o *entity.Order) *string {
	if o.Buyer == nil {
		return nil
	}
	name := o.Buyer.Name
	return &name
}
