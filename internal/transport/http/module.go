package http

import (
	"go.uber.org/fx"

	admintransport "github.com/Additional-Code/gigbid/internal/transport/http/admin"
	gigtransport "github.com/Additional-Code/gigbid/internal/transport/http/gig"
	"github.com/Additional-Code/gigbid/internal/transport/http/middleware"
	ordertransport "github.com/Additional-Code/gigbid/internal/transport/http/order"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	middleware.Module,
	ordertransport.Module,
	gigtransport.Module,
	admintransport.Module,
)
