package product_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"storefront/internal/repositories"
	"storefront/internal/services"
)

var Module = fx.Provide(
	provideProductRepo, provideAccessGrantRepo, provideProductService,
)

func provideProductRepo(db *gorm.DB) repositories.ProductRepository {
	return repositories.NewProductRepository(db)
}

func provideAccessGrantRepo(db *gorm.DB) repositories.AccessGrantRepository {
	return repositories.NewAccessGrantRepository(db)
}

func provideProductService(products repositories.ProductRepository, grants repositories.AccessGrantRepository) services.ProductServiceInterface {
	return services.NewProductService(products, grants)
}
