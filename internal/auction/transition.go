package auction

import (
	"time"

	"github.com/Additional-Code/gigbid/internal/entity"
)

// CheckTransition validates a settlement request. Terminal states never move.
func CheckTransition(order *entity.Order, target entity.OrderStatus) error {
	if target != entity.OrderStatusCompleted && target != entity.OrderStatusCancelled {
		return ErrInvalidStatus
	}
	if order.Status != entity.OrderStatusPending {
		return ErrInvalidTransition
	}
	return nil
}

// Apply moves order to target. Completing marks the winner and stamps the lock time.
func Apply(order *entity.Order, target entity.OrderStatus, now time.Time) {
	order.Status = target
	order.UpdatedAt = now
	if target == entity.OrderStatusCompleted {
		lockedAt := now
		order.IsWinner = true
		order.LockedAt = &lockedAt
	}
}
