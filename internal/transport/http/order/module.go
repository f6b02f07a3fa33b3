package order

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	service "github.com/Additional-Code/gigbid/internal/service/order"
	"github.com/Additional-Code/gigbid/internal/transport/http/middleware"
)

// Module wires HTTP order handlers.
var Module = fx.Options(
	fx.Provide(func(svc *service.Service) OrderService { return svc }),
	fx.Provide(NewHandler),
	fx.Invoke(func(e *echo.Echo, h *Handler, chain *middleware.Chain) {
		Register(e, h, chain)
	}),
)
