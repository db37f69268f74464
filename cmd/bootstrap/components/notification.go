package components

import (
	"context"
	"log/slog"

	"travel-booking/internal/infra/mail"
	"travel-booking/internal/pkg/config"
	"travel-booking/internal/usecase/notify"

	"go.uber.org/fx"
)

var NotificationModule = fx.Module("notification",
	fx.Provide(
		func(cfg config.Config, logger *slog.Logger) notify.Mailer {
			return mail.NewMailer(cfg.Mail, logger)
		},
		fx.Annotate(
			NewBookingDispatcher,
			fx.As(new(notify.Dispatcher)),
		),
	),
)

// NewBookingDispatcher waits for in-flight emails on shutdown, bounded by the stop timeout.
func NewBookingDispatcher(lc fx.Lifecycle, cfg config.Config, mailer notify.Mailer, jobs notify.JobStatusRecorder, logger *slog.Logger) *notify.BookingDispatcher {
	d := notify.NewBookingDispatcher(mailer, jobs, cfg.Mail.AdminAddress, cfg.Booking.NotificationTimeout, logger)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return d.Wait(ctx)
		},
	})
	return d
}
