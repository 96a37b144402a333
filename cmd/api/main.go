package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/famguard/guardian-service/internal/api/http"
	"github.com/famguard/guardian-service/internal/api/http/handlers"
	"github.com/famguard/guardian-service/internal/auth"
	"github.com/famguard/guardian-service/internal/config"
	"github.com/famguard/guardian-service/internal/events"
	"github.com/famguard/guardian-service/internal/observability"
	"github.com/famguard/guardian-service/internal/persistence"
	"github.com/famguard/guardian-service/internal/repository"
	"github.com/famguard/guardian-service/internal/service"
	"github.com/famguard/guardian-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
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
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	accountRepo := repository.NewAccountRepository(pool)
	childRepo := repository.NewChildRepository(pool)
	securityLogRepo := repository.NewSecurityLogRepository(pool)
	revocations := repository.NewRedisRevocationStore(redis.Client)

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		AccountRepo:     accountRepo,
		RevocationStore: revocations,
		Identity:        auth.NewGoogleVerifier(cfg.Google),
		Dispatcher:      dispatcher,
	})
	accountService := service.NewAccountService(accountRepo, childRepo)
	childService := service.NewChildService(childRepo)
	adminService := service.NewAdminService(accountRepo, childRepo, securityLogRepo)
	securityService := service.NewSecurityService(dispatcher, securityLogRepo, logger, cfg.Notification)
	worker.StartSecurityWorker(securityService)

	guard := auth.NewGuard(accountRepo, childRepo)
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), revocations, metrics, logger)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Users:          handlers.NewUsersHandler(accountService),
		Children:       handlers.NewChildrenHandler(childService, guard),
		Admin:          handlers.NewAdminHandler(adminService),
		AuthMiddleware: authMiddleware,
		Guard:          guard,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
