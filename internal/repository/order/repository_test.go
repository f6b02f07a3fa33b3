package order

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/Additional-Code/gigbid/internal/database"
	"github.com/Additional-Code/gigbid/internal/entity"
)

type fixture struct {
	repo   *Repository
	db     *bun.DB
	seller entity.User
	alice  entity.User
	bob    entity.User
	gig    entity.Gig
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	for _, model := range []interface{}{(*entity.User)(nil), (*entity.Gig)(nil), (*entity.Order)(nil)} {
		_, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx)
		require.NoError(t, err)
	}

	f := &fixture{
		repo:   NewRepository(&database.Connections{Writer: db, Reader: db}),
		db:     db,
		seller: entity.User{Name: "Sam Seller", Email: "sam@example.com", Password: "x", Role: entity.RoleSeller},
		alice:  entity.User{Name: "Alice", Email: "alice@example.com", Password: "x", Role: entity.RoleBuyer},
		bob:    entity.User{Name: "Bob", Email: "bob@example.com", Password: "x", Role: entity.RoleBuyer},
	}
	for _, u := range []*entity.User{&f.seller, &f.alice, &f.bob} {
		_, err := db.NewInsert().Model(u).Exec(ctx)
		require.NoError(t, err)
	}
	f.gig = entity.Gig{
		Title:        "Logo design",
		Description:  "Three concepts",
		Price:        decimal.RequireFromString("100.00"),
		DeliveryTime: 3,
		SellerID:     f.seller.ID,
		Category:     "design",
	}
	_, err = db.NewInsert().Model(&f.gig).Exec(ctx)
	require.NoError(t, err)
	return f
}

func (f *fixture) bid(t *testing.T, buyer entity.User, price string) entity.Order {
	t.Helper()
	now := time.Now().UTC()
	o := entity.Order{
		GigID:     f.gig.ID,
		BuyerID:   buyer.ID,
		SellerID:  f.gig.SellerID,
		Price:     decimal.RequireFromString(price),
		Status:    entity.OrderStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := f.repo.WithGig(context.Background(), f.gig.ID, func(ctx context.Context, l Ledger) error {
		return l.Insert(ctx, &o)
	})
	require.NoError(t, err)
	require.NotZero(t, o.ID)
	return o
}

func TestWithGig_UnknownGig(t *testing.T) {
	f := newFixture(t)
	called := false
	err := f.repo.WithGig(context.Background(), 999, func(context.Context, Ledger) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, ErrGigNotFound)
	require.False(t, called)
}

func TestLedger_BidsAreOrderedWithBuyers(t *testing.T) {
	f := newFixture(t)
	f.bid(t, f.alice, "100")
	f.bid(t, f.bob, "120.50")

	err := f.repo.WithGig(context.Background(), f.gig.ID, func(ctx context.Context, l Ledger) error {
		require.Equal(t, f.gig.ID, l.Gig().ID)
		require.Equal(t, "100.00", l.Gig().Price.StringFixed(2))

		bids, err := l.Bids(ctx)
		require.NoError(t, err)
		require.Len(t, bids, 2)
		require.Equal(t, "Alice", bids[0].Buyer.Name)
		require.Equal(t, "120.50", bids[1].Price.StringFixed(2))
		require.Less(t, bids[0].ID, bids[1].ID)
		return nil
	})
	require.NoError(t, err)
}

func TestLedger_SettleCancelsOnlyPendingRivals(t *testing.T) {
	f := newFixture(t)
	a := f.bid(t, f.alice, "100")
	b := f.bid(t, f.bob, "120")
	c := f.bid(t, f.alice, "130")

	// c withdrawn first; it must stay cancelled and not be counted again.
	now := time.Now().UTC()
	err := f.repo.WithGig(context.Background(), f.gig.ID, func(ctx context.Context, l Ledger) error {
		o, err := l.Order(ctx, c.ID)
		require.NoError(t, err)
		o.Status = entity.OrderStatusCancelled
		o.UpdatedAt = now
		return l.Update(ctx, o)
	})
	require.NoError(t, err)

	var cancelled int
	err = f.repo.WithGig(context.Background(), f.gig.ID, func(ctx context.Context, l Ledger) error {
		o, err := l.Order(ctx, b.ID)
		require.NoError(t, err)
		o.Status = entity.OrderStatusCompleted
		o.IsWinner = true
		o.LockedAt = &now
		o.UpdatedAt = now
		if err := l.Update(ctx, o); err != nil {
			return err
		}
		cancelled, err = l.CancelPendingExcept(ctx, o.ID, now)
		return err
	})
	require.NoError(t, err)
	require.Equal(t, 1, cancelled)

	got, err := f.repo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	require.Equal(t, entity.OrderStatusCompleted, got.Status)
	require.True(t, got.IsWinner)
	require.NotNil(t, got.LockedAt)
	require.Equal(t, "Bob", got.Buyer.Name)
	require.Equal(t, "Sam Seller", got.Seller.Name)
	require.Equal(t, "Logo design", got.Gig.Title)

	rival, err := f.repo.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	require.Equal(t, entity.OrderStatusCancelled, rival.Status)
	require.False(t, rival.IsWinner)
}

func TestWithGig_RollsBackOnError(t *testing.T) {
	f := newFixture(t)
	a := f.bid(t, f.alice, "100")
	boom := errors.New("boom")

	err := f.repo.WithGig(context.Background(), f.gig.ID, func(ctx context.Context, l Ledger) error {
		o, err := l.Order(ctx, a.ID)
		require.NoError(t, err)
		o.Status = entity.OrderStatusCompleted
		if err := l.Update(ctx, o); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := f.repo.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	require.Equal(t, entity.OrderStatusPending, got.Status)
}

func TestReads(t *testing.T) {
	f := newFixture(t)
	a := f.bid(t, f.alice, "100")
	b := f.bid(t, f.bob, "150")
	ctx := context.Background()

	gigID, err := f.repo.GigIDForOrder(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, f.gig.ID, gigID)

	_, err = f.repo.GigIDForOrder(ctx, 999)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = f.repo.GetByID(ctx, 999)
	require.ErrorIs(t, err, ErrNotFound)

	mine, err := f.repo.List(ctx, Filter{BuyerID: f.alice.ID})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, a.ID, mine[0].ID)

	all, err := f.repo.List(ctx, Filter{SellerID: f.seller.ID})
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, b.ID, all[0].ID)

	bids, err := f.repo.BidsForGig(ctx, f.gig.ID)
	require.NoError(t, err)
	require.Len(t, bids, 2)

	_, err = f.repo.BidsForGig(ctx, 999)
	require.ErrorIs(t, err, ErrGigNotFound)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	empty, err := f.repo.Stats(ctx)
	require.NoError(t, err)
	require.Zero(t, empty.Total)
	require.True(t, empty.Revenue.IsZero())

	f.bid(t, f.alice, "100")
	b := f.bid(t, f.bob, "120.25")
	now := time.Now().UTC()
	err = f.repo.WithGig(ctx, f.gig.ID, func(ctx context.Context, l Ledger) error {
		o, err := l.Order(ctx, b.ID)
		require.NoError(t, err)
		o.Status = entity.OrderStatusCompleted
		o.IsWinner = true
		o.LockedAt = &now
		o.UpdatedAt = now
		if err := l.Update(ctx, o); err != nil {
			return err
		}
		_, err = l.CancelPendingExcept(ctx, o.ID, now)
		return err
	})
	require.NoError(t, err)

	stats, err := f.repo.Stats(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, stats.Total)
	require.EqualValues(t, 0, stats.Pending)
	require.EqualValues(t, 1, stats.Completed)
	require.EqualValues(t, 1, stats.Cancelled)
	require.Equal(t, "120.25", stats.Revenue.StringFixed(2))
}
