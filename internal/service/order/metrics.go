package order

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/Additional-Code/gigbid/internal/auction"
	"github.com/Additional-Code/gigbid/internal/entity"
	repo "github.com/Additional-Code/gigbid/internal/repository/order"
)

type metrics struct {
	placed   metric.Int64Counter
	rejected metric.Int64Counter
	settled  metric.Int64Counter
}

func newMetrics(logger *zap.Logger) *metrics {
	meter := otel.Meter("github.com/Additional-Code/gigbid/service/order")
	m := &metrics{}
	var err error
	if m.placed, err = meter.Int64Counter("gigbid.bids.placed", metric.WithDescription("Bids accepted into the ledger")); err != nil {
		logger.Warn("create bids placed counter", zap.Error(err))
	}
	if m.rejected, err = meter.Int64Counter("gigbid.bids.rejected", metric.WithDescription("Bids rejected, by reason")); err != nil {
		logger.Warn("create bids rejected counter", zap.Error(err))
	}
	if m.settled, err = meter.Int64Counter("gigbid.orders.settled", metric.WithDescription("Orders settled, by resulting status")); err != nil {
		logger.Warn("create orders settled counter", zap.Error(err))
	}
	return m
}

func (m *metrics) bidPlaced(ctx context.Context) {
	if m.placed != nil {
		m.placed.Add(ctx, 1)
	}
}

func (m *metrics) bidRejected(ctx context.Context, err error) {
	if m.rejected != nil {
		m.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", rejectReason(err))))
	}
}

func (m *metrics) orderSettled(ctx context.Context, status entity.OrderStatus) {
	if m.settled != nil {
		m.settled.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(status))))
	}
}

func rejectReason(err error) string {
	var low *auction.BidTooLowError
	switch {
	case errors.As(err, &low):
		return "below_floor"
	case errors.Is(err, auction.ErrInvalidBid):
		return "invalid_amount"
	case errors.Is(err, auction.ErrSelfBid):
		return "self_bid"
	case errors.Is(err, auction.ErrForbidden):
		return "forbidden"
	case errors.Is(err, auction.ErrAuctionLocked):
		return "locked"
	case errors.Is(err, repo.ErrGigNotFound):
		return "gig_not_found"
	default:
		return "error"
	}
}
