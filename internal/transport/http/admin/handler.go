// Package admin serves administrator-only reporting endpoints.
package admin

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.uber.org/fx"

	"github.com/Additional-Code/gigbid/internal/auth"
	"github.com/Additional-Code/gigbid/internal/dto"
	"github.com/Additional-Code/gigbid/internal/entity"
	"github.com/Additional-Code/gigbid/internal/presentation/http/response"
	repo "github.com/Additional-Code/gigbid/internal/repository/order"
	service "github.com/Additional-Code/gigbid/internal/service/order"
	"github.com/Additional-Code/gigbid/internal/transport/http/middleware"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/gigbid/transport/http/admin")

// StatsService reports marketplace-wide order metrics.
type StatsService interface {
	Stats(ctx context.Context, caller auth.Identity) (repo.Stats, error)
}

// Handler exposes admin endpoints.
type Handler struct {
	svc StatsService
}

// NewHandler constructs an admin Handler.
func NewHandler(svc StatsService) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler, chain *middleware.Chain) {
	g := e.Group("/admin", chain.Authenticate, middleware.RequireRole(entity.RoleAdministrator))
	g.GET("/orders/metrics", h.orderMetrics)
}

// Module wires HTTP admin handlers.
var Module = fx.Options(
	fx.Provide(func(svc *service.Service) StatsService { return svc }),
	fx.Provide(NewHandler),
	fx.Invoke(func(e *echo.Echo, h *Handler, chain *middleware.Chain) {
		Register(e, h, chain)
	}),
)

func (h *Handler) orderMetrics(c echo.Context) error {
	b := response.New(c)
	caller, _ := middleware.Identity(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "admin.orderMetrics")
	defer span.End()

	stats, err := h.svc.Stats(ctx, caller)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewStats(stats)).Build()
}
