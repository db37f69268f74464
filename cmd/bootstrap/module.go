package bootstrap

import (
	"travel-booking/cmd/bootstrap/components"

	"go.uber.org/fx"
)

var Module = fx.Options(
	ConfigModule,
	LoggerModule,
	DBModule,
	JWTModule,
	components.PersistenceModule,
	components.NotificationModule,
	components.UseCaseModule,
	components.HandlerModule,
)
