package bootstrap

import (
	"log/slog"

	"travel-booking/internal/handler/middleware"
	"travel-booking/internal/pkg/config"

	"go.uber.org/fx"
)

var LoggerModule = fx.Module("logger",
	fx.Provide(
		NewLogger,
		NewSlogLogger,
	),
)

func NewLogger(cfg config.Config) *middleware.Logger {
	return middleware.NewLogger(cfg.Log)
}

func NewSlogLogger(l *middleware.Logger) *slog.Logger {
	logger := l.GetSlogLogger()
	slog.SetDefault(logger)
	return logger
}
