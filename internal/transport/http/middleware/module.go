package middleware

import (
	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/gigbid/internal/auth"
	"github.com/Additional-Code/gigbid/internal/config"
)

// Chain is the per-route middleware handed to handler registration.
type Chain struct {
	Authenticate echo.MiddlewareFunc
	BidRateLimit echo.MiddlewareFunc
}

// NewChain builds the shared middleware from configuration.
func NewChain(issuer *auth.Issuer, cfg config.Config, rdb *goredis.Client, logger *zap.Logger) *Chain {
	return &Chain{
		Authenticate: Authenticate(issuer),
		BidRateLimit: RateLimit(cfg.RateLimit, rdb, logger),
	}
}

// Module provides the middleware chain to Fx.
var Module = fx.Provide(NewChain)
