// Package middleware holds the echo middleware shared by the HTTP handlers:
// bearer-token authentication, role checks and bid rate limiting.
package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Additional-Code/gigbid/internal/auth"
	"github.com/Additional-Code/gigbid/internal/entity"
	"github.com/Additional-Code/gigbid/internal/presentation/http/response"
	"github.com/Additional-Code/gigbid/pkg/errorbank"
)

const identityKey = "gigbid.identity"

// Authenticate requires a valid bearer token and stores the caller identity
// on the echo context.
func Authenticate(issuer *auth.Issuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			scheme, raw, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
				return response.New(c).WithError(errorbank.Unauthorized("missing bearer token")).Build()
			}

			id, err := issuer.Parse(strings.TrimSpace(raw))
			if err != nil {
				return response.New(c).WithError(errorbank.Unauthorized("invalid token", errorbank.WithCause(err))).Build()
			}
			c.Set(identityKey, id)
			return next(c)
		}
	}
}

// RequireRole rejects callers whose role is not listed. It must run after Authenticate.
func RequireRole(roles ...entity.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := Identity(c)
			if !ok {
				return response.New(c).WithError(errorbank.Unauthorized("authentication required")).Build()
			}
			for _, role := range roles {
				if id.Role == role {
					return next(c)
				}
			}
			return response.New(c).WithError(errorbank.Forbidden("you are not allowed to perform this action")).Build()
		}
	}
}

// Identity returns the caller set by Authenticate.
func Identity(c echo.Context) (auth.Identity, bool) {
	id, ok := c.Get(identityKey).(auth.Identity)
	return id, ok
}

// WithIdentity stores id on c. Tests use it to skip token parsing.
func WithIdentity(c echo.Context, id auth.Identity) {
	c.Set(identityKey, id)
}
