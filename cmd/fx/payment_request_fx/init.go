package payment_request_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"storefront/internal/api/controllers"
	"storefront/internal/config"
	"storefront/internal/infra"
	"storefront/internal/repositories"
	"storefront/internal/services"
	mem "storefront/pkg/memcache"
)

var Module = fx.Provide(
	providePaymentRequestRepo,
	providePaymentRequestService,
	provideAccessGrantService,
	providePaymentRequestController,
)

func providePaymentRequestRepo(db *gorm.DB) repositories.PaymentRequestRepository {
	return repositories.NewPaymentRequestRepository(db)
}

func providePaymentRequestService(
	requests repositories.PaymentRequestRepository,
	products repositories.ProductRepository,
	grants repositories.AccessGrantRepository,
	logger *zap.Logger,
) services.PaymentRequestServiceInterface {
	return services.NewPaymentRequestService(requests, products, grants, logger)
}

func provideAccessGrantService(
	tx infra.Transactor,
	requests repositories.PaymentRequestRepository,
	grants repositories.AccessGrantRepository,
	notifications repositories.NotificationRepositoryInterface,
	accounts repositories.AccountRepository,
	logger *zap.Logger,
) services.AccessGrantServiceInterface {
	return services.NewAccessGrantService(tx, requests, grants, notifications, accounts, logger)
}

func providePaymentRequestController(
	requests services.PaymentRequestServiceInterface,
	lifecycle services.AccessGrantServiceInterface,
	confirms mem.ConfirmationStore,
	cfg *config.Config,
) *controllers.PaymentRequestController {
	return controllers.NewPaymentRequestController(requests, lifecycle, confirms, cfg.ResetConfirmTTL)
}
