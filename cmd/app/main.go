package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"storefront/cmd/fx/account_fx"
	"storefront/cmd/fx/controllers_fx"
	"storefront/cmd/fx/dashboard"
	"storefront/cmd/fx/db_fx"
	"storefront/cmd/fx/memcache_fx"
	"storefront/cmd/fx/notification_fx"
	"storefront/cmd/fx/payment_request_fx"
	"storefront/cmd/fx/product_fx"
	"storefront/internal/api/controllers"
	"storefront/internal/config"
	"storefront/internal/models/db_models"
	"storefront/pkg/middleware"
	"storefront/pkg/utils"
)

func main() {
	app := fx.New(
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Named("fx")}
		}),
		db_fx.Module,
		memcache_fx.Module,
		account_fx.Module,
		product_fx.Module,
		notification_fx.Module,
		payment_request_fx.Module,
		dashboard.Module,
		controllers_fx.Module,

		fx.Provide(ProvideRouter),
		fx.Invoke(StartServer),
	)

	app.Run()
}

func StartServer(lc fx.Lifecycle, engine *gin.Engine, cfg *config.Config, logger *zap.Logger) {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			logger.Info("starting HTTP server", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping HTTP server")
			return srv.Shutdown(ctx)
		},
	})
}

type routeControllers struct {
	fx.In

	Accounts        *controllers.AccountController
	Products        *controllers.ProductController
	PaymentRequests *controllers.PaymentRequestController
	Notifications   *controllers.NotificationController
	Dashboard       *controllers.DashboardController
}

func ProvideRouter(cfg *config.Config, logger *zap.Logger, tokens *utils.TokenIssuer, ctrl routeControllers) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.TraceIDMiddleware())
	r.Use(middleware.ZapLogger(logger.Named("http")))
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins()))

	RegisterRoutes(r, tokens, ctrl)

	return r
}

func RegisterRoutes(r *gin.Engine, tokens *utils.TokenIssuer, ctrl routeControllers) {
	r.GET("/healthz", func(c *gin.Context) { utils.RespondSuccess(c, nil, "ok") })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	accountGroup := r.Group("/accounts")
	accountGroup.POST("/register", ctrl.Accounts.Register)
	accountGroup.POST("/login", ctrl.Accounts.Login)

	r.GET("/products", ctrl.Products.ListProducts)
	r.GET("/products/:id", ctrl.Products.GetProduct)

	auth := r.Group("/", middleware.JWTAuthMiddleware(tokens))
	auth.GET("/me", ctrl.Accounts.Me)
	auth.GET("/products/:id/download", ctrl.Products.Download)
	auth.GET("/access", ctrl.Products.MyAccess)
	auth.GET("/access/:productId", ctrl.Products.CheckAccess)

	auth.POST("/payment-requests", ctrl.PaymentRequests.Submit)
	auth.GET("/payment-requests/mine", ctrl.PaymentRequests.ListMine)

	notifications := auth.Group("/notifications")
	notifications.GET("", ctrl.Notifications.ListNotifications)
	notifications.GET("/unread-count", ctrl.Notifications.UnreadCount)
	notifications.PATCH("/read-all", ctrl.Notifications.MarkAllRead)
	notifications.PATCH("/:id/read", ctrl.Notifications.MarkRead)
	notifications.GET("/stream", ctrl.Notifications.Stream)

	// Super-admin actions are re-checked against the stored role by the service.
	admin := auth.Group("/admin", middleware.AdminMiddleware())
	admin.GET("/dashboard/stats", ctrl.Dashboard.GetDashboard)

	admin.GET("/products", ctrl.Products.AdminListProducts)
	admin.POST("/products", ctrl.Products.CreateProduct)
	admin.PUT("/products/:id", ctrl.Products.UpdateProduct)
	admin.DELETE("/products/:id", ctrl.Products.DeleteProduct)

	requests := admin.Group("/payment-requests")
	requests.GET("", ctrl.PaymentRequests.List)
	requests.GET("/:id", ctrl.PaymentRequests.Get)
	requests.POST("/:id/approve", ctrl.PaymentRequests.Approve)
	requests.POST("/:id/reject", ctrl.PaymentRequests.Reject)
	requests.POST("/:id/revoke", ctrl.PaymentRequests.Revoke)
	requests.POST("/:id/reapprove", ctrl.PaymentRequests.ReApprove)

	reset := requests.Group("/:id/reset", middleware.RoleMiddleware(db_models.RoleSuperAdmin))
	reset.POST("/confirm", ctrl.PaymentRequests.ConfirmReset)
	reset.POST("", ctrl.PaymentRequests.Reset)
}
