// Package http - Router configuration for the VAS wallet REST API.
//
// Router собирает все handlers и middleware в единую точку входа.
//
// Pattern: Composition Root
// - Все зависимости собираются здесь
// - Handlers получают только нужные им use cases
// - Middleware применяется к соответствующим группам routes
package http

import (
	"log/slog"

	"github.com/ficore/vaswallet/internal/adapters/http/common"
	"github.com/ficore/vaswallet/internal/adapters/http/handlers"
	"github.com/ficore/vaswallet/internal/adapters/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// ============================================
// Router Configuration
// ============================================

// RouterConfig - конфигурация роутера.
type RouterConfig struct {
	Logger             *slog.Logger
	Pool               *pgxpool.Pool
	Version            string
	BuildTime          string
	Environment        string
	AllowedOrigins     []string
	AuthTokenValidator func(token string) (*middleware.AuthClaims, error)
}

// DefaultRouterConfig - конфигурация по умолчанию для development.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		Logger:             slog.Default(),
		Version:            "dev",
		BuildTime:          "unknown",
		Environment:        "development",
		AllowedOrigins:     []string{"*"},
		AuthTokenValidator: middleware.MockTokenValidator,
	}
}

// ============================================
// Router Builder
// ============================================

// RouterBuilder - builder для создания роутера.
//
// Pattern: Builder
// - Позволяет пошагово настроить роутер
// - Проще тестировать
// - Можно переиспользовать части конфигурации
type RouterBuilder struct {
	config      *RouterConfig
	wallet      *handlers.WalletHandler
	purchase    *handlers.PurchaseHandler
	webhook     *handlers.WebhookHandler
	transaction *handlers.TransactionHandler
}

// NewRouterBuilder создаёт новый builder.
func NewRouterBuilder(config *RouterConfig) *RouterBuilder {
	if config == nil {
		config = DefaultRouterConfig()
	}
	return &RouterBuilder{config: config}
}

// WithWalletHandler добавляет wallet handler.
func (b *RouterBuilder) WithWalletHandler(h *handlers.WalletHandler) *RouterBuilder {
	b.wallet = h
	return b
}

// WithPurchaseHandler добавляет purchase handler.
func (b *RouterBuilder) WithPurchaseHandler(h *handlers.PurchaseHandler) *RouterBuilder {
	b.purchase = h
	return b
}

// WithWebhookHandler добавляет webhook handler.
func (b *RouterBuilder) WithWebhookHandler(h *handlers.WebhookHandler) *RouterBuilder {
	b.webhook = h
	return b
}

// WithTransactionHandler добавляет transaction handler.
func (b *RouterBuilder) WithTransactionHandler(h *handlers.TransactionHandler) *RouterBuilder {
	b.transaction = h
	return b
}

// Build создаёт сконфигурированный Gin Engine.
func (b *RouterBuilder) Build() *gin.Engine {
	if b.config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	handlers.SetupValidator()

	// ============================================
	// Global Middleware
	// ============================================

	// 1. Recovery - должен быть первым
	router.Use(middleware.Recovery(&middleware.RecoveryConfig{
		Logger:           b.config.Logger,
		EnableStackTrace: b.config.Environment != "production",
	}))

	// 2. Request ID
	router.Use(middleware.RequestID())

	// 2b. OpenTelemetry span per request
	router.Use(otelgin.Middleware("vaswallet"))

	// 3. CORS
	if b.config.Environment == "production" {
		router.Use(middleware.CORS(middleware.ProductionCORSConfig(b.config.AllowedOrigins)))
	} else {
		router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	}

	// 4. Logging
	router.Use(middleware.Logging(&middleware.LoggingConfig{
		Logger:    b.config.Logger,
		SkipPaths: []string{"/healthz", "/readyz", "/metrics"},
	}))

	// 5. Rate Limiting (global)
	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))

	// 6. Metrics (Prometheus)
	router.Use(middleware.Metrics())

	// ============================================
	// Metrics Endpoint (no auth)
	// ============================================

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ============================================
	// Health Check Routes (no auth)
	// ============================================

	healthHandler := handlers.NewHealthHandler(b.config.Pool, b.config.Version, b.config.BuildTime)
	healthHandler.RegisterRoutes(router)

	// ============================================
	// Public Routes (no JWT - webhook authenticates via HMAC)
	// ============================================

	publicGroup := router.Group("")
	if b.webhook != nil {
		b.webhook.RegisterRoutes(publicGroup)
	}

	// ============================================
	// Authenticated Routes (JWT required)
	// ============================================

	authGroup := router.Group("")
	authGroup.Use(middleware.Auth(&middleware.AuthConfig{
		TokenValidator: b.config.AuthTokenValidator,
	}))
	{
		if b.purchase != nil {
			b.purchase.RegisterRoutes(authGroup)
		}
		if b.transaction != nil {
			b.transaction.RegisterRoutes(authGroup)
		}
	}

	// ============================================
	// Admin Routes (JWT + admin role required)
	// ============================================

	adminGroup := router.Group("/admin")
	adminGroup.Use(middleware.Auth(&middleware.AuthConfig{
		TokenValidator: b.config.AuthTokenValidator,
	}))
	adminGroup.Use(middleware.RequireRole("admin"))

	if b.wallet != nil {
		b.wallet.RegisterRoutes(authGroup, adminGroup)
	}

	// ============================================
	// 404 Handler
	// ============================================

	router.NoRoute(func(c *gin.Context) {
		common.Error(c, 404, &common.APIError{
			Code:    common.ErrCodeNotFound,
			Message: "Endpoint not found",
			Details: map[string]interface{}{
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			},
		})
	})

	return router
}

// ============================================
// Quick Setup Functions
// ============================================

// NewRouter создаёт роутер с базовой конфигурацией (для простых случаев).
func NewRouter(config *RouterConfig) *gin.Engine {
	return NewRouterBuilder(config).Build()
}
