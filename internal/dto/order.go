// Package dto holds the JSON shapes exposed by the transport layer.
package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Additional-Code/gigbid/internal/auction"
	"github.com/Additional-Code/gigbid/internal/entity"
	repo "github.com/Additional-Code/gigbid/internal/repository/order"
)

// PartyResponse is the public view of a buyer or seller.
type PartyResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// GigResponse is the gig as embedded in an order.
type GigResponse struct {
	ID       int64    `json:"id"`
	Title    string   `json:"title"`
	Price    float64  `json:"price"`
	Rating   *float64 `json:"rating"`
	Feedback *string  `json:"feedback"`
}

// OrderResponse represents an order as exposed via transport layers.
type OrderResponse struct {
	ID        int64          `json:"id"`
	Status    string         `json:"status"`
	Price     float64        `json:"price"`
	GigID     int64          `json:"gig_id"`
	Gig       *GigResponse   `json:"gig,omitempty"`
	Buyer     *PartyResponse `json:"buyer,omitempty"`
	Seller    *PartyResponse `json:"seller,omitempty"`
	IsWinner  bool           `json:"is_winner"`
	LockedAt  *time.Time     `json:"locked_at"`
	CreatedAt time.Time      `json:"created_at"`
}

// SummaryResponse is the bids summary of one gig.
type SummaryResponse struct {
	HighestBid  *float64 `json:"highest_bid"`
	LeaderName  *string  `json:"leader_name"`
	IsLocked    bool     `json:"is_locked"`
	WinnerName  *string  `json:"winner_name"`
	WinnerPrice *float64 `json:"winner_price"`
}

// StatsResponse carries the administrator order metrics.
type StatsResponse struct {
	TotalOrders     int64   `json:"total_orders"`
	PendingOrders   int64   `json:"pending_orders"`
	CompletedOrders int64   `json:"completed_orders"`
	CancelledOrders int64   `json:"cancelled_orders"`
	TotalRevenue    float64 `json:"total_revenue"`
}

// NewOrder converts an order and whichever relations are loaded.
func NewOrder(o *entity.Order) OrderResponse {
	out := OrderResponse{
		ID:        o.ID,
		Status:    string(o.Status),
		Price:     money(o.Price),
		GigID:     o.GigID,
		IsWinner:  o.IsWinner,
		LockedAt:  o.LockedAt,
		CreatedAt: o.CreatedAt,
	}
	if o.Gig != nil {
		gig := &GigResponse{
			ID:       o.Gig.ID,
			Title:    o.Gig.Title,
			Price:    money(o.Gig.Price),
			Feedback: o.Gig.Feedback,
		}
		if o.Gig.Rating.Valid {
			rating := o.Gig.Rating.Decimal.InexactFloat64()
			gig.Rating = &rating
		}
		out.Gig = gig
	}
	if o.Buyer != nil {
		out.Buyer = &PartyResponse{ID: o.Buyer.ID, Name: o.Buyer.Name}
	}
	if o.Seller != nil {
		out.Seller = &PartyResponse{ID: o.Seller.ID, Name: o.Seller.Name}
	}
	return out
}

// NewOrders converts a list of orders.
func NewOrders(orders []entity.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, NewOrder(&orders[i]))
	}
	return out
}

// NewSummary converts an auction summary.
func NewSummary(s auction.Summary) SummaryResponse {
	return SummaryResponse{
		HighestBid:  optionalMoney(s.HighestBid),
		LeaderName:  s.LeaderName,
		IsLocked:    s.IsLocked,
		WinnerName:  s.WinnerName,
		WinnerPrice: optionalMoney(s.WinnerPrice),
	}
}

// NewStats converts repository stats.
func NewStats(s repo.Stats) StatsResponse {
	return StatsResponse{
		TotalOrders:     s.Total,
		PendingOrders:   s.Pending,
		CompletedOrders: s.Completed,
		CancelledOrders: s.Cancelled,
		TotalRevenue:    money(s.Revenue),
	}
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func optionalMoney(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	v := money(*d)
	return &v
}
