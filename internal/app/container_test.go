package app

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/property-market/internal/config"
	"github.com/spec-kit/property-market/internal/domain"
	"github.com/spec-kit/property-market/internal/events"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Auth:     config.AuthConfig{JWTSecret: "secret", AccessTokenTTLMinutes: 5},
		Payments: config.PaymentsConfig{Currency: "usd", RequireAcceptedOffer: true},
		Postgres: config.PostgresConfig{MigrationsDir: "../../migrations"},
	}
}

func TestBuildWithoutExternalDependencies(t *testing.T) {
	ctx := context.Background()
	c, err := Build(ctx, memoryConfig(), zap.NewNop())
	require.NoError(t, err)
	defer c.Close()

	require.Nil(t, c.Postgres.PoolHandle())
	require.Nil(t, c.Redis)
	require.Len(t, c.Readiness(), 1)
	require.NoError(t, c.Store.Ping(ctx))
	require.NoError(t, c.Migrate(ctx))

	user, created, err := c.Users.Upsert(ctx, "agent@x.test", "Agent")
	require.NoError(t, err)
	require.True(t, created)
	_, err = c.Users.SetRole(ctx, user.ID, domain.RoleAgent)
	require.NoError(t, err)

	result, err := c.Trust.MarkFraud(ctx, events.Actor{Role: domain.RoleAdmin}, user.ID)
	require.NoError(t, err)
	require.Equal(t, 0, result.DeletedCount)

	repaired, err := c.Payments.Reconcile(ctx, 0)
	require.NoError(t, err)
	require.Zero(t, repaired)
}

func TestBuildRejectsBadIdentityURL(t *testing.T) {
	cfg := memoryConfig()
	cfg.Identity.BaseURL = "://bad"
	_, err := Build(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
}

func TestBuildWiresRedisAndMailQueue(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := memoryConfig()
	cfg.Redis = config.RedisConfig{Addr: mr.Addr(), CacheTTLSeconds: 60}
	cfg.Notification.SendGridAPIKey = "SG.test"
	ctx := context.Background()

	c, err := Build(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, c.Redis)
	require.NotNil(t, c.mail)
	require.Len(t, c.Readiness(), 2)
	require.NoError(t, c.Readiness()["redis"].Ping(ctx))

	_, err = c.Offers.ListForBuyer(ctx, "b@x.test")
	require.NoError(t, err)
	require.NotEmpty(t, mr.Keys())

	c.Close()
	c.Close()
}
