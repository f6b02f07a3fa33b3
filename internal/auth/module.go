package auth

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/gigbid/internal/config"
)

// Module provides the token issuer to Fx.
var Module = fx.Provide(func(cfg config.Config) *Issuer {
	return NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
})
