package order

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/gigbid/internal/auth"
	"github.com/Additional-Code/gigbid/internal/dto"
	"github.com/Additional-Code/gigbid/internal/entity"
	"github.com/Additional-Code/gigbid/internal/presentation/http/response"
	"github.com/Additional-Code/gigbid/internal/transport/http/middleware"
	"github.com/Additional-Code/gigbid/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/gigbid/transport/http/order")

// OrderService is the part of the order service the handler calls.
type OrderService interface {
	ProposeBid(ctx context.Context, caller auth.Identity, gigID int64, amount decimal.Decimal) (*entity.Order, error)
	Settle(ctx context.Context, caller auth.Identity, orderID int64, target entity.OrderStatus) (*entity.Order, error)
	Get(ctx context.Context, caller auth.Identity, id int64) (*entity.Order, error)
	List(ctx context.Context, caller auth.Identity) ([]entity.Order, error)
}

// Handler exposes order endpoints over HTTP.
type Handler struct {
	svc OrderService
}

// NewHandler constructs an order Handler.
func NewHandler(svc OrderService) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance. Every route requires a bearer token.
func Register(e *echo.Echo, h *Handler, chain *middleware.Chain) {
	g := e.Group("/orders", chain.Authenticate)
	g.POST("", h.create, chain.BidRateLimit)
	g.GET("", h.list)
	g.GET("/:id", h.getByID)
	g.PATCH("/:id/status", h.updateStatus)
}

type createRequest struct {
	GigID int64            `json:"gig_id"`
	Price *decimal.Decimal `json:"price"`
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)
	caller, _ := middleware.Identity(c)

	var payload createRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if payload.GigID <= 0 || payload.Price == nil {
		return b.WithError(errorbank.BadRequest("gig_id and price are required")).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.create", trace.WithAttributes(
		attribute.Int64("gig.id", payload.GigID),
	))
	defer span.End()

	order, err := h.svc.ProposeBid(ctx, caller, payload.GigID, *payload.Price)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(dto.NewOrder(order)).Build()
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)
	caller, _ := middleware.Identity(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.list")
	defer span.End()

	orders, err := h.svc.List(ctx, caller)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewOrders(orders)).WithMeta("count", len(orders)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)
	caller, _ := middleware.Identity(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.getByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := h.svc.Get(ctx, caller, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewOrder(order)).Build()
}

func (h *Handler) updateStatus(c echo.Context) error {
	b := response.New(c)
	caller, _ := middleware.Identity(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}
	var payload statusRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.updateStatus", trace.WithAttributes(
		attribute.Int64("order.id", id),
		attribute.String("order.target_status", payload.Status),
	))
	defer span.End()

	order, err := h.svc.Settle(ctx, caller, id, entity.OrderStatus(payload.Status))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewOrder(order)).Build()
}
