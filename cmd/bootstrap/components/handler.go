package components

import (
	"travel-booking/internal/handler"
	"travel-booking/internal/handler/api"
	"travel-booking/internal/handler/middleware"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewBookingHandler,
		api.NewAvailabilityHandler,
		handler.NewHandlers,
		middleware.NewAuthMiddleware,
	),
	fx.Invoke(handler.NewRouter),
)
