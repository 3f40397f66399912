package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/property-market/internal/api/http/handlers"
	"github.com/spec-kit/property-market/internal/auth"
	"github.com/spec-kit/property-market/internal/observability"
	"github.com/spec-kit/property-market/internal/repository"
	"github.com/spec-kit/property-market/internal/service"
)

// ServerDependencies bundles everything the HTTP surface needs.
type ServerDependencies struct {
	ServiceName    string
	Version        string
	RequestTimeout time.Duration
	AllowedOrigins []string

	Logger    *zap.Logger
	Metrics   *observability.Metrics
	Store     repository.Store
	Tokens    *auth.TokenManager
	Readiness map[string]handlers.Pinger

	Users      *service.UserService
	Properties *service.PropertyService
	Offers     *service.OfferService
	Payments   *service.PaymentService
	Trust      *service.TrustService
}

// NewServer builds the fiber app with middlewares and routes registered.
func NewServer(deps ServerDependencies) *fiber.App {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	app := fiber.New(fiber.Config{
		AppName:               deps.ServiceName,
		DisableStartupMessage: true,
	})
	RegisterMiddlewares(app, logger, deps.Metrics, deps.RequestTimeout, deps.AllowedOrigins)

	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler(deps.ServiceName, deps.Version, deps.Readiness),
		Users:          handlers.NewUsersHandler(deps.Users),
		Properties:     handlers.NewPropertiesHandler(deps.Properties),
		Offers:         handlers.NewOffersHandler(deps.Offers),
		Payments:       handlers.NewPaymentsHandler(deps.Payments),
		Trust:          handlers.NewTrustHandler(deps.Trust),
		AuthMiddleware: auth.NewAuthMiddleware(deps.Tokens, deps.Store.Users()),
	})
	return app
}
