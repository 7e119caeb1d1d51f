package app

import (
	"go.uber.org/fx"

	"github.com/techbantu/gharse/internal/broadcast"
	"github.com/techbantu/gharse/internal/cache"
	"github.com/techbantu/gharse/internal/config"
	"github.com/techbantu/gharse/internal/database"
	"github.com/techbantu/gharse/internal/logger"
	"github.com/techbantu/gharse/internal/messaging"
	"github.com/techbantu/gharse/internal/notification"
	"github.com/techbantu/gharse/internal/observability"
	repositorymenu "github.com/techbantu/gharse/internal/repository/menu"
	repositoryorder "github.com/techbantu/gharse/internal/repository/order"
	httpserver "github.com/techbantu/gharse/internal/server/http"
	serviceorder "github.com/techbantu/gharse/internal/service/order"
	transporthttp "github.com/techbantu/gharse/internal/transport/http"
	"github.com/techbantu/gharse/internal/worker"
	workerorder "github.com/techbantu/gharse/internal/worker/order"
)

// bindings adapts concrete infrastructure to the service's port interfaces.
var bindings = fx.Provide(
	func(r *repositoryorder.Repository) serviceorder.Store { return r },
	func(r *repositorymenu.Repository) serviceorder.Catalog { return r },
	func(h *broadcast.Hub) serviceorder.Broadcaster { return h },
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	cache.Module,
	database.Module,
	logger.Module,
	messaging.Module,
	observability.Module,
	broadcast.Module,
	repositoryorder.Module,
	repositorymenu.Module,
	bindings,
	serviceorder.Module,
)

// HTTP wires the HTTP transport on top of the core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	transporthttp.Module,
)

// Worker exposes background event processing and the grace sweeper.
var Worker = fx.Options(
	Core,
	notification.Module,
	worker.Module,
	workerorder.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
