// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"tillbook/internal/domain/auth"
	"tillbook/internal/domain/ledger"
	"tillbook/internal/infrastructure/http/v1/handlers"
	"tillbook/internal/infrastructure/http/v1/middleware"
	"tillbook/internal/infrastructure/storage/postgres"
	"tillbook/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Pool is the database connection (for health checks)
	Pool *postgres.Pool

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// AuthService for authentication endpoints
	AuthService *auth.Service

	// Ledger is the consistency engine behind every business endpoint
	Ledger *ledger.Service

	// IdempotencyStore enables the X-Idempotency-Key safety net when set
	IdempotencyStore *postgres.IdempotencyStore
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	baseHandler := handlers.NewBaseHandler()

	// API v1
	apiV1 := router.Group("/api/v1")
	{
		// Auth endpoints
		if cfg.AuthService != nil {
			authHandler := handlers.NewAuthHandler(baseHandler, cfg.AuthService)

			publicAuth := apiV1.Group("/auth")

			protectedAuth := apiV1.Group("/auth")
			protectedAuth.Use(middleware.Auth(cfg.JWTValidator))

			authHandler.RegisterRoutes(publicAuth, protectedAuth)
		}

		// Protected business endpoints
		protected := apiV1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))
		if cfg.IdempotencyStore != nil {
			protected.Use(middleware.Idempotency(cfg.IdempotencyStore))
		}

		stockHandler := handlers.NewStockHandler(baseHandler, cfg.Ledger)
		stockHandler.RegisterRoutes(protected.Group("/stock"))

		accountHandler := handlers.NewAccountHandler(baseHandler, cfg.Ledger)
		accountHandler.RegisterRoutes(protected.Group("/accounts"))

		orderHandler := handlers.NewOrderHandler(baseHandler, cfg.Ledger)
		orderHandler.RegisterRoutes(protected.Group("/orders"))

		cashdeskHandler := handlers.NewCashdeskHandler(baseHandler, cfg.Ledger)
		cashdeskHandler.RegisterRoutes(protected.Group("/cashdesk"))
	}

	return router
}
