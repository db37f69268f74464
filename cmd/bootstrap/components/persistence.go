package components

import (
	"travel-booking/internal/infra/db"
	"travel-booking/internal/infra/readstore"
	"travel-booking/internal/infra/repository"
	"travel-booking/internal/infra/uow"
	"travel-booking/internal/pkg/config"
	"travel-booking/internal/usecase/commands"
	"travel-booking/internal/usecase/notify"
	"travel-booking/internal/usecase/queries"
	"travel-booking/internal/usecase/shared"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var PersistenceModule = fx.Module("persistence",
	baseOption,
	readstoreModule,
	repositoryModule,
)

var baseOption = fx.Provide(
	NewDBTX,
)

var readstoreModule = fx.Module("persistence/readstore",
	fx.Provide(
		fx.Annotate(
			readstore.NewBookingReadStore,
			fx.As(new(queries.BookingReadStore)),
		),
		fx.Annotate(
			readstore.NewListingReadStore,
			fx.As(new(queries.ListingReadStore)),
		),
	),
)

// Repositories provided here run on the pool; transactional ones come from the UnitOfWork.
var repositoryModule = fx.Module("persistence/repository",
	fx.Provide(
		func(pool *pgxpool.Pool, cfg config.Config) shared.UnitOfWork {
			return uow.NewPostgresUoW(pool, cfg.Booking.TxMaxRetries)
		},
		fx.Annotate(
			repository.NewNotificationRepository,
			fx.As(new(notify.JobStatusRecorder)),
		),
		fx.Annotate(
			repository.NewIdempotencyRepository,
			fx.As(new(commands.ExpiredKeyDeleter)),
		),
	),
)

func NewDBTX(pool *pgxpool.Pool) db.DBTX {
	return pool
}
