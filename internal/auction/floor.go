// Package auction holds the bidding rules: the bid floor, the derived
// auction state of a gig, the authorization predicates and the order
// status transitions. Everything here is pure; persistence and
// transactions live in the service and repository layers.
package auction

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Additional-Code/gigbid/internal/auth"
	"github.com/Additional-Code/gigbid/internal/entity"
)

// monetaryPrecision matches the DECIMAL(10,2) price columns.
const monetaryPrecision int32 = 2

// maxPrice is the smallest amount a DECIMAL(10,2) column cannot hold.
var maxPrice = decimal.New(1, 8)

// Normalize rounds a price to the stored precision.
func Normalize(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(monetaryPrecision)
}

// Floor is the minimum acceptable price for the next bid:
// max(base price, highest existing bid, 0).
func Floor(basePrice decimal.Decimal, bids []entity.Order) decimal.Decimal {
	floor := decimal.Max(basePrice, decimal.Zero)
	for i := range bids {
		if bids[i].Price.GreaterThan(floor) {
			floor = bids[i].Price
		}
	}
	return Normalize(floor)
}

// MeetsFloor reports whether amount is at least floor. amount is compared
// as given, so 119.995 stays below a 120.00 floor.
func MeetsFloor(amount, floor decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(floor)
}

// ValidateBid checks a proposed bid against a consistent snapshot of the
// gig's bids. Checks run in order: amount, self-bid, role, lock, floor.
func ValidateBid(caller auth.Identity, gig *entity.Gig, bids []entity.Order, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: amount must not be negative", ErrInvalidBid)
	}
	if !amount.Equal(amount.Truncate(monetaryPrecision)) {
		return fmt.Errorf("%w: amount must not have more than %d decimal places", ErrInvalidBid, monetaryPrecision)
	}
	if amount.GreaterThanOrEqual(maxPrice) {
		return fmt.Errorf("%w: amount must be below %s", ErrInvalidBid, maxPrice.StringFixed(monetaryPrecision))
	}
	if caller.UserID == gig.SellerID {
		return ErrSelfBid
	}
	if !CanBid(caller, gig) {
		return fmt.Errorf("%w: only buyers can bid", ErrForbidden)
	}
	if Locked(bids) {
		return ErrAuctionLocked
	}
	if floor := Floor(gig.Price, bids); !MeetsFloor(amount, floor) {
		return &BidTooLowError{Floor: floor}
	}
	return nil
}
