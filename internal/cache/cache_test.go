package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/gigbid/internal/config"
)

func TestNewStore_NoopWithoutClient(t *testing.T) {
	var cfg config.Config
	cfg.Cache.Driver = "noop"

	store := NewStore(nil, cfg, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "gigs:1:bids-summary", []byte("{}"), time.Minute))
	_, err := store.Get(ctx, "gigs:1:bids-summary")
	require.ErrorIs(t, err, ErrCacheMiss)
	require.NoError(t, store.Delete(ctx, "gigs:1:bids-summary"))
}

func TestNewClient_SkippedForNoop(t *testing.T) {
	var cfg config.Config
	cfg.Cache.Driver = "noop"
	require.Nil(t, NewClient(nil, cfg, zap.NewNop()))
}
