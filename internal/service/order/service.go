package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/gigbid/internal/auction"
	"github.com/Additional-Code/gigbid/internal/auth"
	"github.com/Additional-Code/gigbid/internal/cache"
	"github.com/Additional-Code/gigbid/internal/config"
	"github.com/Additional-Code/gigbid/internal/entity"
	"github.com/Additional-Code/gigbid/internal/messaging"
	repo "github.com/Additional-Code/gigbid/internal/repository/order"
	"github.com/Additional-Code/gigbid/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/gigbid/service/order")

// Store is the persistence the service needs. *repo.Repository satisfies it.
type Store interface {
	WithGig(ctx context.Context, gigID int64, fn func(context.Context, repo.Ledger) error) error
	GigIDForOrder(ctx context.Context, orderID int64) (int64, error)
	GetByID(ctx context.Context, id int64) (*entity.Order, error)
	List(ctx context.Context, filter repo.Filter) ([]entity.Order, error)
	BidsForGig(ctx context.Context, gigID int64) ([]entity.Order, error)
	Stats(ctx context.Context) (repo.Stats, error)
}

// Service runs bids and settlements against the order ledger.
type Service struct {
	store      Store
	cache      cache.Store
	summaryTTL time.Duration
	logger     *zap.Logger
	publisher  messaging.Client
	messaging  messagingConfig
	metrics    *metrics
	now        func() time.Time
}

// messagingConfig contains messaging specific knobs we care about.
type messagingConfig struct {
	enabled bool
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Store     Store
	Cache     cache.Store
	Config    config.Config
	Logger    *zap.Logger
	Publisher messaging.Client
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:      p.Store,
		cache:      p.Cache,
		summaryTTL: p.Config.Cache.SummaryTTL,
		logger:     logger,
		publisher:  p.Publisher,
		messaging:  messagingConfig{enabled: p.Config.Messaging.Enabled},
		metrics:    newMetrics(logger),
		now:        time.Now,
	}
}

// ProposeBid validates amount against the gig's floor and records a pending order.
func (s *Service) ProposeBid(ctx context.Context, caller auth.Identity, gigID int64, amount decimal.Decimal) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.ProposeBid", trace.WithAttributes(
		attribute.Int64("gig.id", gigID),
		attribute.Int64("caller.id", caller.UserID),
		attribute.String("bid.amount", amount.String()),
	))
	defer span.End()

	var (
		placed   *entity.Order
		previous *decimal.Decimal
	)
	err := s.store.WithGig(ctx, gigID, func(ctx context.Context, l repo.Ledger) error {
		bids, err := l.Bids(ctx)
		if err != nil {
			return err
		}
		gig := l.Gig()
		if err := auction.ValidateBid(caller, gig, bids, amount); err != nil {
			return err
		}
		if leader := auction.Leader(bids); leader != nil {
			price := leader.Price
			previous = &price
		}

		now := s.now().UTC()
		order := &entity.Order{
			GigID:     gig.ID,
			BuyerID:   caller.UserID,
			SellerID:  gig.SellerID,
			Price:     auction.Normalize(amount),
			Status:    entity.OrderStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := l.Insert(ctx, order); err != nil {
			return err
		}
		placed, err = l.Order(ctx, order.ID)
		return err
	})
	if err != nil {
		s.metrics.bidRejected(ctx, err)
		return nil, s.fail(span, "bid rejected", err)
	}

	s.metrics.bidPlaced(ctx)
	s.invalidateSummary(ctx, gigID)
	s.publish(ctx, placed.ID, BidPlacedEvent{
		Type:            EventBidPlaced,
		EventID:         newEventID(),
		OrderID:         placed.ID,
		GigID:           placed.GigID,
		BuyerID:         placed.BuyerID,
		Price:           placed.Price,
		PreviousHighest: previous,
		OccurredAt:      placed.CreatedAt,
	})
	s.logger.Info("bid placed",
		zap.Int64("order_id", placed.ID),
		zap.Int64("gig_id", gigID),
		zap.Int64("buyer_id", caller.UserID),
		zap.String("price", placed.Price.StringFixed(2)),
	)
	return placed, nil
}

// Settle moves a pending order to completed or cancelled. Completing an
// order cancels every other pending order of the same gig in the same
// transaction.
func (s *Service) Settle(ctx context.Context, caller auth.Identity, orderID int64, target entity.OrderStatus) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Settle", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.String("order.target_status", string(target)),
	))
	defer span.End()

	if target != entity.OrderStatusCompleted && target != entity.OrderStatusCancelled {
		return nil, s.fail(span, "invalid status", auction.ErrInvalidStatus)
	}

	gigID, err := s.store.GigIDForOrder(ctx, orderID)
	if err != nil {
		return nil, s.fail(span, "lookup failed", err)
	}

	var (
		settled   *entity.Order
		cancelled int
	)
	err = s.store.WithGig(ctx, gigID, func(ctx context.Context, l repo.Ledger) error {
		order, err := l.Order(ctx, orderID)
		if err != nil {
			return err
		}
		if !auction.CanSettle(caller, order) {
			return fmt.Errorf("%w: only the gig's seller or an administrator can settle", auction.ErrForbidden)
		}
		if err := auction.CheckTransition(order, target); err != nil {
			return err
		}

		now := s.now().UTC()
		auction.Apply(order, target, now)
		if err := l.Update(ctx, order); err != nil {
			return err
		}
		if target == entity.OrderStatusCompleted {
			if cancelled, err = l.CancelPendingExcept(ctx, order.ID, now); err != nil {
				return err
			}
		}
		settled = order
		return nil
	})
	if err != nil {
		return nil, s.fail(span, "settlement failed", err)
	}

	s.metrics.orderSettled(ctx, target)
	s.invalidateSummary(ctx, gigID)
	s.publish(ctx, settled.ID, OrderSettledEvent{
		Type:           EventOrderSettled,
		EventID:        newEventID(),
		OrderID:        settled.ID,
		GigID:          settled.GigID,
		Status:         settled.Status,
		CancelledCount: cancelled,
		OccurredAt:     settled.UpdatedAt,
	})
	s.logger.Info("order settled",
		zap.Int64("order_id", settled.ID),
		zap.Int64("gig_id", gigID),
		zap.String("status", string(settled.Status)),
		zap.Int("cancelled", cancelled),
	)
	return settled, nil
}

// Summarize returns the gig's derived auction state, consulting cache when available.
func (s *Service) Summarize(ctx context.Context, gigID int64) (auction.Summary, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Summarize", trace.WithAttributes(attribute.Int64("gig.id", gigID)))
	defer span.End()

	version, verr := s.summaryVersion(ctx, gigID)
	if verr != nil {
		s.logger.Warn("summary cache version read failed", zap.Int64("gig_id", gigID), zap.Error(verr))
	} else if summary, err := s.summaryFromCache(ctx, gigID, version); err == nil {
		return summary, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("summary cache read failed", zap.Int64("gig_id", gigID), zap.Error(err))
	}

	bids, err := s.store.BidsForGig(ctx, gigID)
	if err != nil {
		return auction.Summary{}, s.fail(span, "repository error", err)
	}
	summary := auction.Summarize(bids)

	// A bid or settlement committed after the read above has bumped the
	// version, so this entry lands under a key nobody reads any more.
	if verr == nil {
		if err := s.storeSummary(ctx, gigID, version, summary); err != nil {
			s.logger.Warn("summary cache write failed", zap.Int64("gig_id", gigID), zap.Error(err))
		}
	}
	return summary, nil
}

// Get returns one order if the caller is a party to it or an administrator.
func (s *Service) Get(ctx context.Context, caller auth.Identity, id int64) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, s.fail(span, "repository error", err)
	}
	if !auction.CanViewOrder(caller, order) {
		return nil, s.fail(span, "forbidden", fmt.Errorf("%w: not a party to this order", auction.ErrForbidden))
	}
	return order, nil
}

// List returns the orders visible to caller: a buyer's own bids, the bids
// on a seller's gigs, or everything for administrators.
func (s *Service) List(ctx context.Context, caller auth.Identity) ([]entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.List", trace.WithAttributes(attribute.String("caller.role", string(caller.Role))))
	defer span.End()

	var filter repo.Filter
	switch caller.Role {
	case entity.RoleBuyer:
		filter.BuyerID = caller.UserID
	case entity.RoleSeller:
		filter.SellerID = caller.UserID
	case entity.RoleAdministrator:
	default:
		return nil, s.fail(span, "forbidden", auction.ErrForbidden)
	}

	orders, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, s.fail(span, "repository error", err)
	}
	return orders, nil
}

// Stats reports marketplace-wide order metrics. Administrators only.
func (s *Service) Stats(ctx context.Context, caller auth.Identity) (repo.Stats, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Stats")
	defer span.End()

	if caller.Role != entity.RoleAdministrator {
		return repo.Stats{}, s.fail(span, "forbidden", fmt.Errorf("%w: administrators only", auction.ErrForbidden))
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return repo.Stats{}, s.fail(span, "repository error", err)
	}
	return stats, nil
}

func (s *Service) fail(span trace.Span, msg string, err error) error {
	appErr := translate(err)
	if appErr.Kind() == errorbank.KindInternal {
		span.RecordError(err)
		s.logger.Error(msg, zap.Error(err))
	}
	span.SetStatus(codes.Error, msg)
	return appErr
}

// translate maps domain and repository errors onto application errors.
// The original error stays reachable through errors.Is/As.
func translate(err error) *errorbank.AppError {
	var (
		appErr *errorbank.AppError
		low    *auction.BidTooLowError
	)
	cause := errorbank.WithCause(err)
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.As(err, &low):
		return errorbank.Unprocessable(low.Error(), cause, errorbank.WithDetail("floor", low.Floor.StringFixed(2)))
	case errors.Is(err, auction.ErrInvalidBid):
		return errorbank.BadRequest("invalid bid amount", cause)
	case errors.Is(err, auction.ErrSelfBid):
		return errorbank.Forbidden(auction.ErrSelfBid.Error(), cause)
	case errors.Is(err, auction.ErrForbidden):
		return errorbank.Forbidden("you are not allowed to perform this action", cause)
	case errors.Is(err, auction.ErrAuctionLocked):
		return errorbank.Conflict(auction.ErrAuctionLocked.Error(), cause)
	case errors.Is(err, auction.ErrInvalidStatus):
		return errorbank.Unprocessable(auction.ErrInvalidStatus.Error(), cause)
	case errors.Is(err, auction.ErrInvalidTransition):
		return errorbank.Unprocessable(auction.ErrInvalidTransition.Error(), cause)
	case errors.Is(err, repo.ErrGigNotFound):
		return errorbank.NotFound("gig not found", cause)
	case errors.Is(err, repo.ErrNotFound):
		return errorbank.NotFound("order not found", cause)
	default:
		return errorbank.Internal("failed to process order", cause)
	}
}

// initialSummaryVersion is used until the gig's first bid or settlement.
const initialSummaryVersion = "0"

func summaryVersionKey(gigID int64) string {
	return fmt.Sprintf("gigs:%d:bids-summary:version", gigID)
}

func summaryKey(gigID int64, version string) string {
	return fmt.Sprintf("gigs:%d:bids-summary:%s", gigID, version)
}

func (s *Service) summaryVersion(ctx context.Context, gigID int64) (string, error) {
	if s.cache == nil {
		return initialSummaryVersion, nil
	}
	raw, err := s.cache.Get(ctx, summaryVersionKey(gigID))
	if errors.Is(err, cache.ErrCacheMiss) {
		return initialSummaryVersion, nil
	}
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (s *Service) summaryFromCache(ctx context.Context, gigID int64, version string) (auction.Summary, error) {
	if s.cache == nil {
		return auction.Summary{}, cache.ErrCacheMiss
	}
	raw, err := s.cache.Get(ctx, summaryKey(gigID, version))
	if err != nil {
		return auction.Summary{}, err
	}
	var summary auction.Summary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return auction.Summary{}, err
	}
	return summary, nil
}

func (s *Service) storeSummary(ctx context.Context, gigID int64, version string, summary auction.Summary) error {
	if s.cache == nil {
		return nil
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, summaryKey(gigID, version), raw, s.summaryTTL)
}

// invalidateSummary moves the gig to a fresh summary version. The version
// key outlives every summary written under the previous version, so an
// expired version never resurrects a stale entry.
func (s *Service) invalidateSummary(ctx context.Context, gigID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, summaryVersionKey(gigID), []byte(uuid.NewString()), 2*s.summaryTTL); err != nil {
		s.logger.Warn("summary cache invalidation failed", zap.Int64("gig_id", gigID), zap.Error(err))
	}
}

func (s *Service) publish(ctx context.Context, orderID int64, event any) {
	if !s.messaging.enabled || s.publisher == nil {
		return
	}
	if err := messaging.PublishJSON(ctx, s.publisher, fmt.Sprintf("order-%d", orderID), event); err != nil {
		s.logger.Error("publish order event", zap.Int64("order_id", orderID), zap.Error(err))
	}
}
