package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/property-market/internal/api/http"
	"github.com/spec-kit/property-market/internal/app"
	"github.com/spec-kit/property-market/internal/config"
	"github.com/spec-kit/property-market/internal/observability"
	"github.com/spec-kit/property-market/internal/worker"
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

	container, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to build services", zap.Error(err))
	}
	defer container.Close()

	if cfg.Postgres.RunMigrations {
		if err := container.Migrate(ctx); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	scheduler, err := worker.NewReconcileScheduler(cfg.Reconcile.CronSpec, cfg.Reconcile.Timeout(), container.Payments, logger)
	if err != nil {
		logger.Fatal("invalid reconcile schedule", zap.Error(err))
	}
	scheduler.Start()
	defer scheduler.Stop()

	server := httptransport.NewServer(httptransport.ServerDependencies{
		ServiceName:    cfg.App.Name,
		Version:        cfg.App.Version,
		RequestTimeout: cfg.App.RequestTimeout(),
		AllowedOrigins: cfg.App.AllowedOrigins,
		Logger:         logger,
		Metrics:        container.Metrics,
		Store:          container.Store,
		Tokens:         container.Tokens,
		Readiness:      container.Readiness(),
		Users:          container.Users,
		Properties:     container.Properties,
		Offers:         container.Offers,
		Payments:       container.Payments,
		Trust:          container.Trust,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		if err := server.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := server.Shutdown(); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
