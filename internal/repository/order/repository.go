package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/Additional-Code/gigbid/internal/database"
	"github.com/Additional-Code/gigbid/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/gigbid/repository/order")

// Module provides the order repository to Fx.
var Module = fx.Provide(NewRepository)

var (
	// ErrNotFound is returned when an order is missing.
	ErrNotFound = errors.New("order not found")
	// ErrGigNotFound is returned when the gig owning a ledger is missing.
	ErrGigNotFound = errors.New("gig not found")
)

// Ledger is the order store scoped to one gig inside one transaction.
// The gig row stays locked until the transaction ends.
type Ledger interface {
	Gig() *entity.Gig
	// Bids returns every order of the gig, oldest first, with Buyer loaded.
	Bids(ctx context.Context) ([]entity.Order, error)
	Insert(ctx context.Context, order *entity.Order) error
	// Update persists status, is_winner, locked_at and updated_at.
	Update(ctx context.Context, order *entity.Order) error
	// CancelPendingExcept cancels the gig's pending orders other than keepID.
	CancelPendingExcept(ctx context.Context, keepID int64, now time.Time) (int, error)
	// Order loads one order of the gig with its relations.
	Order(ctx context.Context, id int64) (*entity.Order, error)
}

// Filter narrows List. Zero fields are ignored.
type Filter struct {
	BuyerID  int64
	SellerID int64
}

// Stats aggregates orders across all gigs.
type Stats struct {
	Total     int64           `bun:"total"`
	Pending   int64           `bun:"pending"`
	Completed int64           `bun:"completed"`
	Cancelled int64           `bun:"cancelled"`
	Revenue   decimal.Decimal `bun:"revenue"`
}

// Repository encapsulates read/write access for orders.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// WithGig runs fn in a writer transaction holding a row lock on the gig.
// fn's error rolls the transaction back and is returned unchanged.
func (r *Repository) WithGig(ctx context.Context, gigID int64, fn func(context.Context, Ledger) error) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.WithGig", trace.WithAttributes(attribute.Int64("gig.id", gigID)))
	defer span.End()

	err := r.writer.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		gig := new(entity.Gig)
		q := tx.NewSelect().Model(gig).Where("g.id = ?", gigID)
		// sqlite has no row locks; its writer lock serializes the transaction instead.
		if tx.Dialect().Name() != dialect.SQLite {
			q = q.For("UPDATE")
		}
		if err := q.Scan(ctx); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrGigNotFound
			}
			return fmt.Errorf("lock gig: %w", err)
		}
		return fn(ctx, &txLedger{tx: tx, gig: gig})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transaction failed")
	}
	return err
}

// GigIDForOrder resolves which gig ledger an order belongs to.
func (r *Repository) GigIDForOrder(ctx context.Context, orderID int64) (int64, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GigIDForOrder", trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	var gigID int64
	err := r.reader.NewSelect().Model((*entity.Order)(nil)).Column("gig_id").Where("o.id = ?", orderID).Scan(ctx, &gigID)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return 0, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return 0, err
	}
	return gigID, nil
}

// GetByID fetches an order with its gig and both parties using the read replica when available.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order := new(entity.Order)
	err := withRelations(r.reader.NewSelect().Model(order)).Where("o.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return order, nil
}

// List returns orders matching filter, newest first.
func (r *Repository) List(ctx context.Context, filter Filter) ([]entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.List")
	defer span.End()

	orders := make([]entity.Order, 0)
	q := withRelations(r.reader.NewSelect().Model(&orders)).Order("o.id DESC")
	if filter.BuyerID != 0 {
		q = q.Where("o.buyer_id = ?", filter.BuyerID)
	}
	if filter.SellerID != 0 {
		q = q.Where("o.seller_id = ?", filter.SellerID)
	}
	if err := q.Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return orders, nil
}

// BidsForGig reads a gig's orders outside any lock, oldest first.
func (r *Repository) BidsForGig(ctx context.Context, gigID int64) ([]entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.BidsForGig", trace.WithAttributes(attribute.Int64("gig.id", gigID)))
	defer span.End()

	exists, err := r.reader.NewSelect().Model((*entity.Gig)(nil)).Where("g.id = ?", gigID).Exists(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	if !exists {
		span.SetStatus(codes.Error, "gig not found")
		return nil, ErrGigNotFound
	}

	bids := make([]entity.Order, 0)
	if err := bidsQuery(r.reader.NewSelect().Model(&bids), gigID).Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return bids, nil
}

// Stats aggregates order counts and completed revenue.
func (r *Repository) Stats(ctx context.Context) (Stats, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Stats")
	defer span.End()

	var stats Stats
	err := r.reader.NewSelect().
		Model((*entity.Order)(nil)).
		ColumnExpr("COUNT(*) AS total").
		ColumnExpr("COALESCE(SUM(CASE WHEN o.status = ? THEN 1 ELSE 0 END), 0) AS pending", entity.OrderStatusPending).
		ColumnExpr("COALESCE(SUM(CASE WHEN o.status = ? THEN 1 ELSE 0 END), 0) AS completed", entity.OrderStatusCompleted).
		ColumnExpr("COALESCE(SUM(CASE WHEN o.status = ? THEN 1 ELSE 0 END), 0) AS cancelled", entity.OrderStatusCancelled).
		ColumnExpr("COALESCE(SUM(CASE WHEN o.status = ? THEN o.price ELSE 0 END), 0) AS revenue", entity.OrderStatusCompleted).
		Scan(ctx, &stats)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "aggregate failed")
		return Stats{}, err
	}
	return stats, nil
}

func withRelations(q *bun.SelectQuery) *bun.SelectQuery {
	return q.Relation("Gig").Relation("Buyer").Relation("Seller")
}

func bidsQuery(q *bun.SelectQuery, gigID int64) *bun.SelectQuery {
	return q.Relation("Buyer").Where("o.gig_id = ?", gigID).Order("o.id ASC")
}

type txLedger struct {
	tx  bun.Tx
	gig *entity.Gig
}

func (l *txLedger) Gig() *entity.Gig { return l.gig }

func (l *txLedger) Bids(ctx context.Context) ([]entity.Order, error) {
	bids := make([]entity.Order, 0)
	if err := bidsQuery(l.tx.NewSelect().Model(&bids), l.gig.ID).Scan(ctx); err != nil {
		return nil, fmt.Errorf("load bids: %w", err)
	}
	return bids, nil
}

func (l *txLedger) Insert(ctx context.Context, order *entity.Order) error {
	if order == nil {
		return errors.New("nil order")
	}
	if _, err := l.tx.NewInsert().Model(order).Exec(ctx); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (l *txLedger) Update(ctx context.Context, order *entity.Order) error {
	res, err := l.tx.NewUpdate().
		Model(order).
		Column("status", "is_winner", "locked_at", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (l *txLedger) CancelPendingExcept(ctx context.Context, keepID int64, now time.Time) (int, error) {
	res, err := l.tx.NewUpdate().
		Model((*entity.Order)(nil)).
		Set("status = ?", entity.OrderStatusCancelled).
		Set("updated_at = ?", now).
		Where("gig_id = ?", l.gig.ID).
		Where("status = ?", entity.OrderStatusPending).
		Where("id <> ?", keepID).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("cancel rival bids: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (l *txLedger) Order(ctx context.Context, id int64) (*entity.Order, error) {
	order := new(entity.Order)
	err := withRelations(l.tx.NewSelect().Model(order)).
		Where("o.id = ?", id).
		Where("o.gig_id = ?", l.gig.ID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	return order, nil
}
