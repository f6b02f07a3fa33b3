package auction

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidBid        = errors.New("invalid bid")
	ErrForbidden         = errors.New("operation not permitted")
	ErrSelfBid           = errors.New("cannot bid on own gig")
	ErrAuctionLocked     = errors.New("bidding is locked for this gig")
	ErrInvalidStatus     = errors.New("status must be completed or cancelled")
	ErrInvalidTransition = errors.New("only pending orders can be settled")
)

// BidTooLowError rejects a bid under the current floor.
type BidTooLowError struct {
	Floor decimal.Decimal
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("bid must be at least %s", e.Floor.StringFixed(monetaryPrecision))
}
