package account_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"storefront/internal/config"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/pkg/utils"
)

var Module = fx.Provide(
	provideAccountService, provideAccountRepo, provideTokenIssuer)

func provideAccountRepo(db *gorm.DB) repositories.AccountRepository {
	return repositories.NewAccountRepository(db)
}

func provideTokenIssuer(cfg *config.Config) *utils.TokenIssuer {
	return utils.NewTokenIssuer(cfg.JWTSecret)
}

func provideAccountService(accountRepo repositories.AccountRepository, tokens *utils.TokenIssuer, logger *zap.Logger) services.AccountServiceInterface {
	return services.NewAccountService(accountRepo, tokens, logger)
}
