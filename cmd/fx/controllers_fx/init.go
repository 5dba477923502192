package controllers_fx

import (
	"go.uber.org/fx"

	"storefront/internal/api/controllers"
)

var Module = fx.Options(
	fx.Provide(controllers.NewAccountController),
	fx.Provide(controllers.NewProductController),
	fx.Provide(controllers.NewNotificationController),
	fx.Provide(controllers.NewDashboardController))
