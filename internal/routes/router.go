package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-api/internal/config"
	"storefront-api/internal/delivery/http/handler"
	"storefront-api/internal/logger"
	"storefront-api/internal/middleware"
	"storefront-api/internal/usecase/address"
	"storefront-api/internal/usecase/user"
	"storefront-api/pkg/utils"
)

// Services are the use cases the HTTP layer is built on.
type Services struct {
	Users     *user.Service
	Addresses *address.Service
	Tokens    *utils.TokenManager
	Store     handler.HealthChecker
}

func SetupRoutes(cfg *config.Config, svc Services) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Order matters: the request id binds the request logger that the
	// recovery and logging middleware write through.
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware(cfg.IsProduction()))
	router.Use(middleware.CORSMiddleware(&cfg.CORS))
	router.Use(middleware.RequestSizeLimitMiddleware(middleware.DefaultMaxRequestSize))
	router.Use(middleware.RateLimitMiddleware("general", cfg.RateLimit.GeneralRPS, cfg.RateLimit.GeneralBurst))

	router.NoRoute(func(c *gin.Context) {
		utils.ErrorResponse(c, http.StatusNotFound, "Route not found")
	})

	healthHandler := handler.NewHealthHandler(svc.Store, cfg.Server.Environment)
	router.GET("/health", healthHandler.Health)

	authHandler := handler.NewAuthHandler(svc.Users)
	userHandler := handler.NewUserHandler(svc.Users)
	addressHandler := handler.NewAddressHandler(svc.Addresses)

	authRequired := middleware.AuthMiddleware(svc.Tokens, svc.Users)

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		auth.Use(middleware.RateLimitMiddleware("auth", cfg.RateLimit.AuthRPS, cfg.RateLimit.AuthBurst))
		authHandler.RegisterRoutes(auth, authRequired)

		protected := v1.Group("")
		protected.Use(authRequired)
		{
			userHandler.RegisterProfileRoutes(protected.Group("/users"))
			addressHandler.RegisterRoutes(protected.Group("/addresses"))

			admin := protected.Group("/admin")
			admin.Use(middleware.AdminOnly())
			{
				userHandler.RegisterAdminRoutes(admin)
			}
		}
	}

	logger.Info("All routes initialized")
	return router
}
