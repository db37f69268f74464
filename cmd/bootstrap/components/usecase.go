package components

import (
	"context"
	"log/slog"

	"travel-booking/internal/domain/booking"
	"travel-booking/internal/pkg/clock"
	"travel-booking/internal/pkg/config"
	"travel-booking/internal/usecase"
	"travel-booking/internal/usecase/commands"
	"travel-booking/internal/usecase/notify"
	"travel-booking/internal/usecase/queries"
	"travel-booking/internal/usecase/shared"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseQueriesModule,
	usecaseValidatorsModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	fx.Annotate(
		booking.NewDefaultPriceCalculator,
		fx.As(new(booking.PriceCalculator)),
	),
	func(clk clock.Clock, calc booking.PriceCalculator, cfg config.Config) *booking.Factory {
		return booking.NewFactory(clk, calc, cfg.Booking.TrustClientPrices)
	},
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		func(uow shared.UnitOfWork, f *booking.Factory, d notify.Dispatcher, clk clock.Clock, cfg config.Config) commands.BookingCommands {
			return commands.NewBookingUseCase(uow, f, d, clk, cfg.Booking.IdempotencyTTL)
		},
		func(store commands.ExpiredKeyDeleter, clk clock.Clock, cfg config.Config, logger *slog.Logger) *commands.IdempotencySweeper {
			return commands.NewIdempotencySweeper(store, clk, cfg.Booking.IdempotencySweep, logger)
		},
	),
	fx.Invoke(startIdempotencySweeper),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewBookingQueries,
		queries.NewAvailabilityQueries,
	),
)

var usecaseValidatorsModule = fx.Module("usecase/validators",
	fx.Provide(
		usecase.NewTokenValidator,
	),
)

func startIdempotencySweeper(lc fx.Lifecycle, sw *commands.IdempotencySweeper) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				defer close(done)
				sw.Run(ctx)
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return nil
		},
	})
}
