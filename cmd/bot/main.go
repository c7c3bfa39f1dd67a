package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticket-relay/internal/api/http"
	"github.com/spec-kit/ticket-relay/internal/api/http/handlers"
	"github.com/spec-kit/ticket-relay/internal/auth"
	"github.com/spec-kit/ticket-relay/internal/config"
	"github.com/spec-kit/ticket-relay/internal/events"
	"github.com/spec-kit/ticket-relay/internal/observability"
	"github.com/spec-kit/ticket-relay/internal/persistence"
	"github.com/spec-kit/ticket-relay/internal/platform/discord"
	"github.com/spec-kit/ticket-relay/internal/repository"
	"github.com/spec-kit/ticket-relay/internal/service"
	"github.com/spec-kit/ticket-relay/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		var missing *config.MissingEnvError
		if errors.As(err, &missing) {
			log.Printf("%v", missing)
			os.Exit(missing.ExitCode)
		}
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

	var ticketRepo repository.TicketRepository
	if pool := pg.PoolHandle(); pool != nil {
		ticketRepo = repository.NewPostgresRepository(pool)
	} else {
		ticketRepo = repository.NewMemoryRepository()
	}

	dispatcher := events.NewInMemoryDispatcher()
	audit := service.NewAuditService(dispatcher, logger, cfg.Audit)
	audit.RegisterHandlers()

	metrics := observability.NewMetrics()

	adapter, err := discord.New(cfg.Discord, logger)
	if err != nil {
		logger.Fatal("failed to create discord adapter", zap.Error(err))
	}

	teardown := worker.NewTeardownScheduler(adapter, logger)

	lifecycle := service.NewLifecycleService(cfg.Discord, cfg.Relay, service.LifecycleDependencies{
		TicketRepo: ticketRepo,
		Messenger:  adapter,
		Channels:   adapter,
		Roles:      adapter,
		Selector:   service.NewAssignmentSelector(),
		Dispatcher: dispatcher,
		Teardown:   teardown,
		Logger:     logger,
	})

	relay := service.NewRelayService(service.RelayDependencies{
		TicketRepo: ticketRepo,
		Messenger:  adapter,
		Throttle:   service.NewRedisTypingThrottle(redis, cfg.Relay.TypingThrottle, logger),
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})

	adapter.SetHandlers(lifecycle, relay)
	if err := adapter.Start(ctx); err != nil {
		logger.Fatal("failed to start discord adapter", zap.Error(err))
	}
	defer adapter.Stop() //nolint:errcheck

	var app *fiber.App
	if cfg.OpsAPI.Enabled {
		app = fiber.New()
		httptransport.RegisterMiddlewares(app, logger, metrics, cfg.OpsAPI.RequestTimeout())

		tokenIssuer := handlers.NewTokenIssuer(cfg.OpsAPI)
		httptransport.RegisterRoutes(app, httptransport.RouteConfig{
			Health:         handlers.NewHealthHandler("ticket-relay", pg, redis),
			Auth:           handlers.NewAuthHandler(tokenIssuer),
			Tickets:        handlers.NewTicketsHandler(ticketRepo),
			AuthMiddleware: auth.NewAuthMiddleware(tokenIssuer.Manager()),
		})

		go func() {
			if err := app.Listen(cfg.OpsAPI.Addr()); err != nil {
				logger.Fatal("fiber listen", zap.Error(err))
			}
		}()
	}

	waitForShutdown(logger)

	if app != nil {
		_ = app.Shutdown()
	}
	teardown.Stop()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
