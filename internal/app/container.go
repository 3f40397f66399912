// Package app assembles the marketplace services from configuration.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/property-market/internal/api/http/handlers"
	"github.com/spec-kit/property-market/internal/auth"
	"github.com/spec-kit/property-market/internal/config"
	"github.com/spec-kit/property-market/internal/events"
	"github.com/spec-kit/property-market/internal/gateway"
	"github.com/spec-kit/property-market/internal/identity"
	"github.com/spec-kit/property-market/internal/observability"
	"github.com/spec-kit/property-market/internal/persistence"
	"github.com/spec-kit/property-market/internal/repository"
	"github.com/spec-kit/property-market/internal/service"
	"github.com/spec-kit/property-market/internal/worker"
)

// Container holds the wired services and the resources behind them.
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	Postgres   *persistence.Postgres
	Redis      *persistence.Redis
	Store      repository.Store
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Tokens     *auth.TokenManager

	Users         *service.UserService
	Properties    *service.PropertyService
	Offers        *service.OfferService
	Payments      *service.PaymentService
	Trust         *service.TrustService
	Notifications *service.NotificationService

	mail *worker.MailQueue
}

const (
	mailQueueSize   = 256
	mailSendTimeout = 10 * time.Second
)

// Build connects storage and constructs every service. Without a DSN the
// in-memory store is used; without REDIS_ADDR listing caches are disabled.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	c := &Container{
		Config:     cfg,
		Logger:     logger,
		Dispatcher: events.NewInMemoryDispatcher(logger),
		Metrics:    observability.NewMetrics(),
		Tokens:     auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	c.Postgres = pg
	if pool := pg.PoolHandle(); pool != nil {
		c.Store = repository.NewPostgresStore(pool)
	} else {
		c.Store = repository.NewMemoryStore()
	}

	var cache *persistence.Cache
	if cfg.Redis.Addr != "" {
		c.Redis = persistence.NewRedis(cfg.Redis, logger)
		cache = c.Redis.Cache(cfg.Redis.CacheTTL(), "pm:", logger)
	}

	var gw service.PaymentGateway
	if stripe := gateway.NewStripe(cfg.Payments.StripeSecretKey); stripe != nil {
		gw = stripe
	} else {
		logger.Warn("STRIPE_SECRET_KEY not provided; payment intents disabled")
	}

	var idp service.IdentityProvider
	if cfg.Identity.BaseURL != "" {
		client, err := identity.NewClient(cfg.Identity)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("identity client: %w", err)
		}
		idp = client
	}

	c.Users = service.NewUserService(c.Store, c.Tokens)
	c.Properties = service.NewPropertyService(c.Store)
	c.Offers = service.NewOfferService(service.OfferDependencies{
		Store:      c.Store,
		Cache:      cache,
		Dispatcher: c.Dispatcher,
		Metrics:    c.Metrics,
		Logger:     logger,
	})
	c.Payments = service.NewPaymentService(service.PaymentDependencies{
		Store:                c.Store,
		Cache:                cache,
		Gateway:              gw,
		Currency:             cfg.Payments.Currency,
		RequireAcceptedOffer: cfg.Payments.RequireAcceptedOffer,
		Dispatcher:           c.Dispatcher,
		Metrics:              c.Metrics,
		Logger:               logger,
	})
	c.Trust = service.NewTrustService(service.TrustDependencies{
		Store:      c.Store,
		Cache:      cache,
		Identity:   idp,
		Dispatcher: c.Dispatcher,
		Metrics:    c.Metrics,
		Logger:     logger,
	})
	sender := service.NewSendGridSender(cfg.Notification.SendGridAPIKey)
	if sender != nil {
		c.mail = worker.NewMailQueue(sender, mailQueueSize, mailSendTimeout, logger)
		c.mail.Start()
		sender = c.mail
	}
	c.Notifications = service.NewNotificationService(c.Dispatcher, sender, logger, cfg.Notification)
	worker.StartNotificationWorker(c.Notifications)

	return c, nil
}

// Migrate applies the SQL migrations when a database is configured.
func (c *Container) Migrate(ctx context.Context) error {
	return persistence.RunMigrations(ctx, c.Postgres.PoolHandle(), c.Config.Postgres.MigrationsDir, c.Logger)
}

// Readiness lists the dependencies checked by /health/ready.
func (c *Container) Readiness() map[string]handlers.Pinger {
	deps := map[string]handlers.Pinger{"store": c.Store}
	if c.Redis != nil {
		deps["redis"] = c.Redis
	}
	return deps
}

// Close flushes queued email and releases storage connections.
func (c *Container) Close() {
	c.mail.Stop()
	c.Redis.Close()
	c.Postgres.Close()
}
