package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun/dialect"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/Additional-Code/gigbid/internal/config"
)

func TestNew_SQLiteSharesWriterAndReader(t *testing.T) {
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	cfg := config.Config{Database: config.Database{Driver: "sqlite", WriterDSN: dsn, ReaderDSN: dsn, MaxOpenConns: 10}}

	lc := fxtest.NewLifecycle(t)
	conns, err := New(lc, cfg, zap.NewNop())
	require.NoError(t, err)
	require.Same(t, conns.Writer, conns.Reader)
	require.Equal(t, dialect.SQLite, conns.Writer.Dialect().Name())
	require.Equal(t, 1, conns.Writer.DB.Stats().MaxOpenConnections)

	lc.RequireStart()

	var one int
	require.NoError(t, conns.Reader.NewSelect().ColumnExpr("1").Scan(context.Background(), &one))
	require.Equal(t, 1, one)

	lc.RequireStop()
}

func TestNew_RejectsUnknownDriverAndEmptyDSN(t *testing.T) {
	_, err := New(fxtest.NewLifecycle(t), config.Config{Database: config.Database{Driver: "oracle", WriterDSN: "x"}}, zap.NewNop())
	require.ErrorContains(t, err, "unsupported database driver")

	_, err = New(fxtest.NewLifecycle(t), config.Config{Database: config.Database{Driver: "sqlite"}}, zap.NewNop())
	require.ErrorContains(t, err, "empty DSN")
}
