// Package container - Dependency Injection container for the application.
//
// Container управляет жизненным циклом всех зависимостей:
// - Создание (lazy initialization)
// - Доступ (getters)
// - Закрытие (cleanup)
//
// Pattern: Composition Root
// - Все зависимости собираются в одном месте
// - Легко тестировать
// - Легко заменять реализации
package container

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ficore/vaswallet/internal/adapters/http"
	"github.com/ficore/vaswallet/internal/adapters/http/handlers"
	"github.com/ficore/vaswallet/internal/adapters/http/middleware"
	"github.com/ficore/vaswallet/internal/application/ports"
	"github.com/ficore/vaswallet/internal/application/usecases/purchase"
	"github.com/ficore/vaswallet/internal/application/usecases/reservation"
	"github.com/ficore/vaswallet/internal/application/usecases/settlement"
	"github.com/ficore/vaswallet/internal/application/usecases/transaction"
	"github.com/ficore/vaswallet/internal/application/usecases/wallet"
	"github.com/ficore/vaswallet/internal/application/usecases/webhook"
	"github.com/ficore/vaswallet/internal/config"
	"github.com/ficore/vaswallet/internal/domain/router"
	"github.com/ficore/vaswallet/internal/infrastructure/cache"
	"github.com/ficore/vaswallet/internal/infrastructure/persistence/postgres"
	"github.com/ficore/vaswallet/internal/infrastructure/provider/providera"
	"github.com/ficore/vaswallet/internal/infrastructure/provider/providerb"
	"github.com/ficore/vaswallet/internal/infrastructure/queue"
	"github.com/ficore/vaswallet/internal/pkg/tracing"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// planTypesByNetwork and networksByCategory are the static catalog
// fallback tables the router and CatalogUseCase fall back on when a
// provider's live catalog call fails (§6). Grounded on Nigerian-market
// MNOs/billers the spec names.
var planTypesByNetwork = map[string][]string{
	"MTN":    {"SME", "GIFTING", "CORPORATE GIFTING"},
	"GLO":    {"GIFTING", "CORPORATE GIFTING"},
	"AIRTEL": {"GIFTING", "CORPORATE GIFTING"},
	"9MOBILE": {"GIFTING", "CORPORATE GIFTING"},
}

var networksByCategory = map[ports.BillerCategory][]purchase.NetworkOption{
	ports.BillerCategoryAirtime: {
		{Code: "MTN", Name: "MTN Nigeria"},
		{Code: "GLO", Name: "Globacom"},
		{Code: "AIRTEL", Name: "Airtel Nigeria"},
		{Code: "9MOBILE", Name: "9mobile"},
	},
	ports.BillerCategoryData: {
		{Code: "MTN", Name: "MTN Nigeria"},
		{Code: "GLO", Name: "Globacom"},
		{Code: "AIRTEL", Name: "Airtel Nigeria"},
		{Code: "9MOBILE", Name: "9mobile"},
	},
}

// ============================================
// Container
// ============================================

// Container - DI контейнер приложения.
type Container struct {
	config *config.Config
	logger *slog.Logger

	// Infrastructure
	pool           *pgxpool.Pool
	redisClient    *redis.Client
	tracerShutdown func(context.Context) error

	// Repositories
	userRepo        ports.UserRepository
	walletRepo      ports.WalletRepository
	vasTxRepo       ports.VasTransactionRepository
	reservationRepo ports.ReservationRepository
	taskRepo        ports.TaskRepository
	corpRevenueRepo ports.CorporateRevenueRepository
	pinAuditRepo    ports.PinAuditRepository
	outboxRepo      *postgres.OutboxRepository

	// Unit of Work
	uow ports.UnitOfWork

	// Event Publisher
	eventPublisher ports.EventPublisher

	// Provider gateways and their shared token cache
	gateways   map[router.Provider]ports.ProviderGateway
	tokenCache ports.TokenCache
	taskQueue  ports.TaskQueue
	vasRouter  *router.Router

	// Use Cases
	createWalletUC     *wallet.CreateWalletUseCase
	getWalletUC        *wallet.GetWalletUseCase
	getWalletBalanceUC *wallet.GetWalletBalanceUseCase
	setupPinUC         *wallet.SetupPinUseCase
	validatePinUC      *wallet.ValidatePinUseCase
	changePinUC        *wallet.ChangePinUseCase
	adminResetPinUC    *wallet.AdminResetPinUseCase
	creditWalletUC     *wallet.CreditWalletUseCase
	debitWalletUC      *wallet.DebitWalletUseCase

	reservationMgr   *reservation.Manager
	purchaseOrch     *purchase.Orchestrator
	catalogUC        *purchase.CatalogUseCase
	webhookProcessor *webhook.Processor
	settlementWorker *settlement.Worker

	listTransactionsUC *transaction.ListTransactionsUseCase
	syncTransactionsUC *transaction.SyncTransactionsUseCase

	// HTTP
	httpServer *http.Server
}

// New создаёт новый контейнер с заданной конфигурацией.
func New(cfg *config.Config) *Container {
	return &Container{
		config: cfg,
	}
}

// ============================================
// Initialization
// ============================================

// Initialize инициализирует все зависимости.
func (c *Container) Initialize(ctx context.Context) error {
	c.logger = c.initLogger()
	c.logger.Info("Initializing application container...")

	// 0. Tracing
	shutdown, err := tracing.Init(ctx, c.config.App.Name, c.config.App.Version, c.config.Tracing.Endpoint)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	c.tracerShutdown = shutdown

	// 1. Database
	if err := c.initDatabase(ctx); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database connected")

	// 2. Repositories
	c.initRepositories()
	c.logger.Info("Repositories initialized")

	// 3. Provider gateways, token cache, task queue, router
	if err := c.initProviders(); err != nil {
		return fmt.Errorf("failed to initialize provider gateways: %w", err)
	}
	c.logger.Info("Provider gateways initialized")

	// 4. Use Cases
	c.initUseCases()
	c.logger.Info("Use cases initialized")

	// 5. HTTP Server
	c.initHTTPServer()
	c.logger.Info("HTTP server initialized")

	c.logger.Info("Container initialization complete")
	return nil
}

// initLogger инициализирует логгер.
func (c *Container) initLogger() *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch c.config.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: c.config.App.Debug,
	}

	if c.config.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

// initDatabase инициализирует подключение к БД.
func (c *Container) initDatabase(ctx context.Context) error {
	poolConfig, err := pgxpool.ParseConfig(c.config.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = c.config.Database.MaxConnections
	poolConfig.MinConns = c.config.Database.MinConnections
	poolConfig.MaxConnLifetime = c.config.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = c.config.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	c.pool = pool
	return nil
}

// initRepositories инициализирует репозитории.
func (c *Container) initRepositories() {
	c.userRepo = postgres.NewUserRepository(c.pool)
	c.walletRepo = postgres.NewWalletRepository(c.pool)
	c.vasTxRepo = postgres.NewVasTransactionRepository(c.pool)
	c.reservationRepo = postgres.NewReservationRepository(c.pool)
	c.taskRepo = postgres.NewTaskRepository(c.pool)
	c.corpRevenueRepo = postgres.NewCorporateRevenueRepository(c.pool)
	c.pinAuditRepo = postgres.NewPinAuditRepository(c.pool)
	c.outboxRepo = postgres.NewOutboxRepository(c.pool)

	// Unit of Work
	c.uow = postgres.NewUnitOfWork(c.pool)

	// Event Publisher (OutboxRepository реализует интерфейс)
	c.eventPublisher = c.outboxRepo
}

// initProviders собирает ProviderGateway-клиентов, разделяемый TokenCache
// и транспорт TaskQueue (§4.5, §4.8).
func (c *Container) initProviders() error {
	providerA, err := providera.NewClient(
		c.config.Providers.ProviderA.BaseURL,
		c.config.Providers.ProviderA.APIKey,
		c.config.Providers.ProviderA.APISecret,
		c.logger,
	)
	if err != nil {
		return fmt.Errorf("provider A client: %w", err)
	}

	providerB, err := providerb.NewClient(
		c.config.Providers.ProviderB.BaseURL,
		c.config.Providers.ProviderB.APIKey,
		c.logger,
	)
	if err != nil {
		return fmt.Errorf("provider B client: %w", err)
	}

	c.gateways = map[router.Provider]ports.ProviderGateway{
		router.ProviderA: providerA,
		router.ProviderB: providerB,
	}

	if c.config.Redis.Enabled() {
		c.redisClient = redis.NewClient(&redis.Options{
			Addr:     c.config.Redis.Addr,
			Password: c.config.Redis.Password,
			DB:       c.config.Redis.DB,
		})
		c.tokenCache = cache.NewRedisTokenCache(c.redisClient)
	} else {
		c.tokenCache = cache.NewInProcessTokenCache()
	}

	if c.config.Queue.Enabled() {
		natsQueue, err := queue.NewNatsTaskQueue(c.config.Queue.URL, c.logger)
		if err != nil {
			return fmt.Errorf("nats task queue: %w", err)
		}
		c.taskQueue = natsQueue
	} else {
		c.taskQueue = queue.NewPollOnlyTaskQueue()
	}

	c.vasRouter = router.New(planTypesByNetwork, nil)

	return nil
}

// initUseCases инициализирует use cases.
func (c *Container) initUseCases() {
	// Wallet Use Cases
	c.createWalletUC = wallet.NewCreateWalletUseCase(c.userRepo, c.walletRepo, c.uow)
	c.getWalletUC = wallet.NewGetWalletUseCase(c.walletRepo)
	c.getWalletBalanceUC = wallet.NewGetWalletBalanceUseCase(c.walletRepo)
	c.setupPinUC = wallet.NewSetupPinUseCase(c.walletRepo, c.uow)
	c.validatePinUC = wallet.NewValidatePinUseCase(c.walletRepo, c.uow)
	c.changePinUC = wallet.NewChangePinUseCase(c.walletRepo, c.uow)
	c.adminResetPinUC = wallet.NewAdminResetPinUseCase(c.walletRepo, c.pinAuditRepo, c.uow)
	c.creditWalletUC = wallet.NewCreditWalletUseCase(c.walletRepo, c.vasTxRepo, c.eventPublisher, c.uow)
	c.debitWalletUC = wallet.NewDebitWalletUseCase(c.walletRepo, c.vasTxRepo, c.eventPublisher, c.uow)

	// Reservation manager backs both the purchase orchestrator and the
	// settlement worker's compensating reversal path (§4.8).
	c.reservationMgr = reservation.NewManager(c.walletRepo, c.reservationRepo, c.eventPublisher)

	// Purchase orchestrator and catalog browsing (§4.6, §6)
	c.purchaseOrch = purchase.NewOrchestrator(
		c.userRepo,
		c.walletRepo,
		c.vasTxRepo,
		c.taskRepo,
		c.reservationMgr,
		c.vasRouter,
		c.gateways,
		c.tokenCache,
		c.taskQueue,
		c.uow,
	)
	c.catalogUC = purchase.NewCatalogUseCase(
		c.vasRouter,
		c.gateways,
		c.tokenCache,
		networksByCategory,
		planTypesByNetwork,
	)

	// Webhook processor (§4.7)
	c.webhookProcessor = webhook.NewProcessor(
		c.walletRepo,
		c.vasTxRepo,
		c.userRepo,
		c.corpRevenueRepo,
		c.eventPublisher,
		c.uow,
		[]byte(c.config.Webhook.HMACSecret),
	)

	// Settlement worker (§4.8)
	c.settlementWorker = settlement.NewWorker(
		c.taskRepo,
		c.vasTxRepo,
		c.userRepo,
		c.walletRepo,
		c.corpRevenueRepo,
		c.reservationMgr,
		c.eventPublisher,
	)

	// Transaction history (§6)
	c.listTransactionsUC = transaction.NewListTransactionsUseCase(c.vasTxRepo)
	c.syncTransactionsUC = transaction.NewSyncTransactionsUseCase(c.vasTxRepo)
}

// initHTTPServer инициализирует HTTP сервер.
func (c *Container) initHTTPServer() {
	// Token validator
	var tokenValidator func(token string) (*middleware.AuthClaims, error)
	if c.config.Auth.EnableMockAuth {
		tokenValidator = middleware.MockTokenValidator
	}
	// В production здесь будет реальный JWT validator

	// Router Config
	routerConfig := &http.RouterConfig{
		Logger:             c.logger,
		Pool:               c.pool,
		Version:            c.config.App.Version,
		BuildTime:          c.config.App.BuildTime,
		Environment:        c.config.App.Environment,
		AllowedOrigins:     c.config.CORS.AllowedOrigins,
		AuthTokenValidator: tokenValidator,
	}

	walletHandler := handlers.NewWalletHandler(
		c.createWalletUC,
		c.getWalletUC,
		c.getWalletBalanceUC,
		c.setupPinUC,
		c.validatePinUC,
		c.changePinUC,
		c.adminResetPinUC,
		c.creditWalletUC,
		c.debitWalletUC,
	)
	purchaseHandler := handlers.NewPurchaseHandler(c.purchaseOrch, c.purchaseOrch, c.catalogUC)
	webhookHandler := handlers.NewWebhookHandler(c.webhookProcessor)
	transactionHandler := handlers.NewTransactionHandler(c.listTransactionsUC, c.syncTransactionsUC)

	// Build Router
	router := http.NewRouterBuilder(routerConfig).
		WithWalletHandler(walletHandler).
		WithPurchaseHandler(purchaseHandler).
		WithWebhookHandler(webhookHandler).
		WithTransactionHandler(transactionHandler).
		Build()

	// Server Config
	serverConfig := &http.ServerConfig{
		Host:            c.config.Server.Host,
		Port:            fmt.Sprintf("%d", c.config.Server.Port),
		ReadTimeout:     c.config.Server.ReadTimeout,
		WriteTimeout:    c.config.Server.WriteTimeout,
		IdleTimeout:     c.config.Server.IdleTimeout,
		ShutdownTimeout: c.config.Server.ShutdownTimeout,
		Logger:          c.logger,
	}

	c.httpServer = http.NewServer(serverConfig, router)
}

// ============================================
// Getters
// ============================================

// Config возвращает конфигурацию.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger возвращает логгер.
func (c *Container) Logger() *slog.Logger {
	return c.logger
}

// Pool возвращает пул соединений к БД.
func (c *Container) Pool() *pgxpool.Pool {
	return c.pool
}

// HTTPServer возвращает HTTP сервер.
func (c *Container) HTTPServer() *http.Server {
	return c.httpServer
}

// ============================================
// Repository Getters
// ============================================

// UserRepository возвращает репозиторий пользователей.
func (c *Container) UserRepository() ports.UserRepository {
	return c.userRepo
}

// WalletRepository возвращает репозиторий кошельков.
func (c *Container) WalletRepository() ports.WalletRepository {
	return c.walletRepo
}

// VasTransactionRepository возвращает репозиторий VAS-транзакций.
func (c *Container) VasTransactionRepository() ports.VasTransactionRepository {
	return c.vasTxRepo
}

// TaskRepository возвращает репозиторий задач расчёта.
func (c *Container) TaskRepository() ports.TaskRepository {
	return c.taskRepo
}

// UnitOfWork возвращает Unit of Work.
func (c *Container) UnitOfWork() ports.UnitOfWork {
	return c.uow
}

// ============================================
// Use Case / Worker Getters
// ============================================

// SettlementWorker возвращает воркер расчёта задач (§4.8), используемый
// cmd/api's background pool для claim/process/requery цикла.
func (c *Container) SettlementWorker() *settlement.Worker {
	return c.settlementWorker
}

// TaskQueue возвращает транспорт сигналов о готовых задачах.
func (c *Container) TaskQueue() ports.TaskQueue {
	return c.taskQueue
}

// ============================================
// Shutdown
// ============================================

// Shutdown выполняет graceful shutdown всех компонентов.
func (c *Container) Shutdown(ctx context.Context) error {
	c.logger.Info("Shutting down container...")

	var errs []error

	// 1. HTTP Server
	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("HTTP server shutdown: %w", err))
		}
	}

	// 2. NATS connection, if one was opened
	if natsQueue, ok := c.taskQueue.(*queue.NatsTaskQueue); ok {
		natsQueue.Close()
	}

	// 3. Redis client, if one was opened
	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis client close: %w", err))
		}
	}

	// 4. Database (даём время на завершение транзакций)
	if c.pool != nil {
		// Graceful close с таймаутом
		done := make(chan struct{})
		go func() {
			c.pool.Close()
			close(done)
		}()

		select {
		case <-done:
			c.logger.Info("Database connection closed")
		case <-ctx.Done():
			c.logger.Warn("Database close timeout")
		}
	}

	// 5. Tracer provider (flush any buffered spans)
	if c.tracerShutdown != nil {
		if err := c.tracerShutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	c.logger.Info("Container shutdown complete")
	return nil
}

// ============================================
// Run
// ============================================

// Run запускает приложение и ожидает сигнал завершения.
func (c *Container) Run() error {
	c.logger.Info("Starting vaswallet API server",
		slog.String("version", c.config.App.Version),
		slog.String("environment", c.config.App.Environment),
		slog.String("address", c.config.Server.Address()),
	)

	return c.httpServer.Run()
}

// ============================================
// Builder Pattern (Alternative)
// ============================================

// ContainerBuilder - builder для создания контейнера с кастомными компонентами.
type ContainerBuilder struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	eventPublisher ports.EventPublisher
}

// NewBuilder создаёт новый builder.
func NewBuilder(cfg *config.Config) *ContainerBuilder {
	return &ContainerBuilder{
		cfg: cfg,
	}
}

// WithLogger устанавливает кастомный логгер.
func (b *ContainerBuilder) WithLogger(logger *slog.Logger) *ContainerBuilder {
	b.logger = logger
	return b
}

// WithPool устанавливает готовый пул соединений.
func (b *ContainerBuilder) WithPool(pool *pgxpool.Pool) *ContainerBuilder {
	b.pool = pool
	return b
}

// WithEventPublisher устанавливает кастомный event publisher.
func (b *ContainerBuilder) WithEventPublisher(ep ports.EventPublisher) *ContainerBuilder {
	b.eventPublisher = ep
	return b
}

// Build создаёт контейнер.
func (b *ContainerBuilder) Build(ctx context.Context) (*Container, error) {
	c := New(b.cfg)

	// Use provided or initialize
	if b.logger != nil {
		c.logger = b.logger
	} else {
		c.logger = c.initLogger()
	}

	if b.pool != nil {
		c.pool = b.pool
	} else {
		if err := c.initDatabase(ctx); err != nil {
			return nil, err
		}
	}

	c.initRepositories()

	if b.eventPublisher != nil {
		c.eventPublisher = b.eventPublisher
	}

	if err := c.initProviders(); err != nil {
		return nil, err
	}
	c.initUseCases()
	c.initHTTPServer()

	return c, nil
}

// ============================================
// Health Check
// ============================================

// HealthStatus - статус здоровья приложения.
type HealthStatus struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Uptime  time.Duration     `json:"uptime"`
	Checks  map[string]string `json:"checks"`
}

// Health возвращает статус здоровья приложения.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Status:  "healthy",
		Version: c.config.App.Version,
		Checks:  make(map[string]string),
	}

	// Database check
	if err := c.pool.Ping(ctx); err != nil {
		status.Status = "unhealthy"
		status.Checks["database"] = "error: " + err.Error()
	} else {
		status.Checks["database"] = "ok"
	}

	return status
}
