package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/ValerioMC/smart-ledger-be/internal/api/http"
	"github.com/ValerioMC/smart-ledger-be/internal/api/http/handlers"
	"github.com/ValerioMC/smart-ledger-be/internal/auth"
	"github.com/ValerioMC/smart-ledger-be/internal/config"
	"github.com/ValerioMC/smart-ledger-be/internal/domain"
	"github.com/ValerioMC/smart-ledger-be/internal/events"
	"github.com/ValerioMC/smart-ledger-be/internal/observability"
	"github.com/ValerioMC/smart-ledger-be/internal/persistence"
	"github.com/ValerioMC/smart-ledger-be/internal/repository"
	"github.com/ValerioMC/smart-ledger-be/internal/service"
	"github.com/ValerioMC/smart-ledger-be/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	var (
		userRepo repository.UserRepository
		txRepo   repository.TransactionRepository
	)
	if pg.Enabled() {
		userRepo = repository.NewUserRepository(pg.Pool)
		txRepo = repository.NewTransactionRepository(pg.Pool)
	} else {
		store := repository.NewMemoryStore()
		userRepo = store.Users()
		txRepo = store.Transactions()
	}
	owners := repository.NewCachedOwnerResolver(userRepo, redis.Cmdable(), cfg.Redis.OwnerCacheTTL(), logger)

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger))
	if cfg.AMQP.URL != "" {
		publisher, err := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, logger)
		if err != nil {
			logger.Fatal("failed to connect amqp", zap.Error(err))
		}
		defer publisher.Close() //nolint:errcheck
		worker.StartEventExport(dispatcher, publisher)
	}

	tokens := auth.NewTokenManager([]byte(cfg.Auth.JWTSecret), cfg.Auth.AccessTokenTTL())
	ownerCache, _ := owners.(repository.OwnerCache)
	authService, err := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:   userRepo,
		OwnerCache: ownerCache,
		Tokens:     tokens,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal("failed to init auth service", zap.Error(err))
	}
	seedUser(ctx, authService, cfg.Auth, logger)

	ledgerService := service.NewLedgerService(service.LedgerDependencies{
		TransactionRepo: txRepo,
		OwnerResolver:   owners,
		Dispatcher:      dispatcher,
		Logger:          logger,
	})

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		BasePath: cfg.App.BasePath,
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Auth:           handlers.NewAuthHandler(authService),
		Transactions:   handlers.NewTransactionsHandler(ledgerService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, logger),
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
	logger.Info("request totals", zap.Any("metrics", metrics.Snapshot()))
}

// seedUser provisions the configured bootstrap account. An empty username disables seeding.
func seedUser(ctx context.Context, authService *service.AuthService, cfg config.AuthConfig, logger *zap.Logger) {
	if cfg.SeedUsername == "" {
		return
	}
	roles, err := domain.ParseRoles(cfg.SeedRoles)
	if err != nil {
		logger.Fatal("invalid AUTH_SEED_ROLES", zap.Error(err))
	}
	if _, created, err := authService.EnsureUser(ctx, cfg.SeedUsername, cfg.SeedPassword, roles); err != nil {
		logger.Fatal("failed to seed user", zap.String("username", cfg.SeedUsername), zap.Error(err))
	} else if created {
		logger.Info("seeded user", zap.String("username", cfg.SeedUsername))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
