package seeder

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Additional-Code/gigbid/internal/auction"
	"github.com/Additional-Code/gigbid/internal/cache"
	"github.com/Additional-Code/gigbid/internal/config"
	"github.com/Additional-Code/gigbid/internal/database"
	"github.com/Additional-Code/gigbid/internal/entity"
	"github.com/Additional-Code/gigbid/internal/messaging"
	"github.com/Additional-Code/gigbid/internal/migration"
	gigrepo "github.com/Additional-Code/gigbid/internal/repository/gig"
	orderrepo "github.com/Additional-Code/gigbid/internal/repository/order"
	userrepo "github.com/Additional-Code/gigbid/internal/repository/user"
	serviceorder "github.com/Additional-Code/gigbid/internal/service/order"
)

type fixture struct {
	db     *bun.DB
	users  *userrepo.Repository
	orders *orderrepo.Repository
	seeder *Seeder
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.Config{Database: config.Database{Driver: "sqlite"}}
	conns := &database.Connections{Writer: db, Reader: db}
	logger := zap.NewNop()

	mig, err := migration.New(cfg, conns, logger)
	require.NoError(t, err)
	require.NoError(t, mig.Up(ctx))

	publisher, err := messaging.NewClient(fxtest.NewLifecycle(t), cfg, logger)
	require.NoError(t, err)

	users := userrepo.NewRepository(conns)
	orders := orderrepo.NewRepository(conns)
	svc := serviceorder.NewService(serviceorder.Params{
		Store:     orders,
		Cache:     cache.NewStore(nil, cfg, logger),
		Config:    cfg,
		Logger:    logger,
		Publisher: publisher,
	})

	return fixture{
		db:     db,
		users:  users,
		orders: orders,
		seeder: newSeeder(users, gigrepo.NewRepository(conns), svc, logger, bcrypt.MinCost),
	}
}

func TestRun_SeedsMarketplaceOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res, err := f.seeder.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, Result{Users: 6, Gigs: len(samples), Bids: 12}, res)

	admin, err := f.users.GetByEmail(ctx, adminEmail)
	require.NoError(t, err)
	require.Equal(t, entity.RoleAdministrator, admin.Role)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(DefaultPassword)))

	for gigID := int64(1); gigID <= int64(len(samples)); gigID++ {
		bids, err := f.orders.BidsForGig(ctx, gigID)
		require.NoError(t, err)
		require.NotEmpty(t, bids)
		require.LessOrEqual(t, len(bids), 3)
		for i := 1; i < len(bids); i++ {
			require.True(t, bids[i].Price.GreaterThan(bids[i-1].Price))
		}
		require.False(t, auction.Locked(bids))
	}

	again, err := f.seeder.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, Result{}, again)

	count, err := f.db.NewSelect().Model((*entity.User)(nil)).Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 6, count)
}
