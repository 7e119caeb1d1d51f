package http

import (
	"go.uber.org/fx"

	kitchentransport "github.com/techbantu/gharse/internal/transport/http/kitchen"
	ordertransport "github.com/techbantu/gharse/internal/transport/http/order"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	ordertransport.Module,
	kitchentransport.Module,
)
