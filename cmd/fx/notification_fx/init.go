package notification_fx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"storefront/internal/config"
	"storefront/internal/realtime"
	"storefront/internal/repositories"
	"storefront/internal/services"
)

var Module = fx.Options(
	fx.Provide(
		provideNotificationRepo, provideNotificationService,
		realtime.NewHub, provideListener,
	),
	fx.Invoke(startListener),
)

func provideNotificationRepo(db *gorm.DB, cfg *config.Config) repositories.NotificationRepositoryInterface {
	return repositories.NewNotificationRepository(db, cfg.NotifyChannel)
}

func provideNotificationService(notificationRepo repositories.NotificationRepositoryInterface) services.NotificationServiceInterface {
	return services.NewNotificationService(notificationRepo)
}

func provideListener(cfg *config.Config, hub *realtime.Hub, notificationRepo repositories.NotificationRepositoryInterface, logger *zap.Logger) *realtime.Listener {
	return realtime.NewListener(cfg.PostgresURL, cfg.NotifyChannel,
		cfg.ListenerMinReconnect, cfg.ListenerMaxReconnect, hub, notificationRepo, logger)
}

func startListener(lc fx.Lifecycle, listener *realtime.Listener) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return listener.Start()
		},
		OnStop: func(ctx context.Context) error {
			return listener.Stop()
		},
	})
}
