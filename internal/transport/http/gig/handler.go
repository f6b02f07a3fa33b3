// Package gig serves the read-only auction view of a gig.
package gig

import (
	"context"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/Additional-Code/gigbid/internal/auction"
	"github.com/Additional-Code/gigbid/internal/dto"
	"github.com/Additional-Code/gigbid/internal/presentation/http/response"
	service "github.com/Additional-Code/gigbid/internal/service/order"
	"github.com/Additional-Code/gigbid/internal/transport/http/middleware"
	"github.com/Additional-Code/gigbid/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/gigbid/transport/http/gig")

// Summarizer resolves the auction state of a gig.
type Summarizer interface {
	Summarize(ctx context.Context, gigID int64) (auction.Summary, error)
}

// Handler exposes gig auction endpoints.
type Handler struct {
	svc Summarizer
}

// NewHandler constructs a gig Handler.
func NewHandler(svc Summarizer) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler, chain *middleware.Chain) {
	g := e.Group("/gigs", chain.Authenticate)
	g.GET("/:id/bids-summary", h.bidsSummary)
}

// Module wires HTTP gig handlers.
var Module = fx.Options(
	fx.Provide(func(svc *service.Service) Summarizer { return svc }),
	fx.Provide(NewHandler),
	fx.Invoke(func(e *echo.Echo, h *Handler, chain *middleware.Chain) {
		Register(e, h, chain)
	}),
)

func (h *Handler) bidsSummary(c echo.Context) error {
	b := response.New(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "gigs.bidsSummary", trace.WithAttributes(attribute.Int64("gig.id", id)))
	defer span.End()

	summary, err := h.svc.Summarize(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewSummary(summary)).Build()
}
