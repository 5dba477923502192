package db_fx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"storefront/internal/config"
	"storefront/internal/infra"
)

var Module = fx.Options(
	fx.Provide(config.Load, infra.NewLogger, provideDB, infra.NewTransactor),
	fx.Invoke(migrate),
)

func provideDB(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	db, err := infra.InitPostgresql(cfg, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			infra.ClosePostgresql(db, logger)
			return nil
		},
	})
	return db, nil
}

func migrate(db *gorm.DB, logger *zap.Logger) error {
	if err := infra.Migrate(db); err != nil {
		logger.Error("migration failed", zap.Error(err))
		return err
	}
	logger.Info("database schema up to date")
	return nil
}
