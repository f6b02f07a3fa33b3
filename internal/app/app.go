package app

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/gigbid/internal/auth"
	"github.com/Additional-Code/gigbid/internal/cache"
	"github.com/Additional-Code/gigbid/internal/config"
	"github.com/Additional-Code/gigbid/internal/database"
	"github.com/Additional-Code/gigbid/internal/logger"
	"github.com/Additional-Code/gigbid/internal/messaging"
	"github.com/Additional-Code/gigbid/internal/observability"
	repositorygig "github.com/Additional-Code/gigbid/internal/repository/gig"
	repositoryorder "github.com/Additional-Code/gigbid/internal/repository/order"
	repositoryuser "github.com/Additional-Code/gigbid/internal/repository/user"
	grpcserver "github.com/Additional-Code/gigbid/internal/server/grpc"
	httpserver "github.com/Additional-Code/gigbid/internal/server/http"
	serviceorder "github.com/Additional-Code/gigbid/internal/service/order"
	transporthttp "github.com/Additional-Code/gigbid/internal/transport/http"
	"github.com/Additional-Code/gigbid/internal/worker"
	workerorder "github.com/Additional-Code/gigbid/internal/worker/order"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	logger.Module,
	observability.Module,
	cache.Module,
	database.Module,
	messaging.Module,
	auth.Module,
	repositoryuser.Module,
	repositorygig.Module,
	repositoryorder.Module,
	serviceorder.Module,
)

// HTTP wires the REST API and the gRPC health endpoint on top of the core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	grpcserver.Module,
	transporthttp.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerorder.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
