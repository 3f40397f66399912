package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/property-market/internal/api/http/handlers"
	"github.com/spec-kit/property-market/internal/auth"
	"github.com/spec-kit/property-market/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Properties     *handlers.PropertiesHandler
	Offers         *handlers.OffersHandler
	Payments       *handlers.PaymentsHandler
	Trust          *handlers.TrustHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/jwt", cfg.Users.IssueToken)
	app.Post("/users", cfg.Users.Upsert)

	authed := cfg.AuthMiddleware.Handle
	anyRole := auth.RequireRole()
	customer := auth.RequireRole(domain.RoleCustomer)
	agent := auth.RequireRole(domain.RoleAgent)
	admin := auth.RequireRole(domain.RoleAdmin)
	agentOrAdmin := auth.RequireRole(domain.RoleAgent, domain.RoleAdmin)

	app.Get("/users/role/:email", authed, anyRole, cfg.Users.Role)
	app.Patch("/users/:id/role", authed, admin, cfg.Users.SetRole)
	app.Patch("/user/:id/fraud", authed, admin, cfg.Trust.MarkFraud)
	app.Delete("/user/:id", authed, admin, cfg.Trust.DeleteAccount)

	app.Post("/properties", authed, agent, cfg.Properties.Create)
	app.Get("/properties/:id", authed, anyRole, cfg.Properties.Get)
	app.Patch("/properties/:id/verification", authed, admin, cfg.Properties.SetVerification)
	app.Patch("/properties/:id", authed, agent, cfg.Properties.Update)
	app.Get("/agent-properties", authed, agent, cfg.Properties.ListByAgent)

	app.Post("/offers", authed, customer, cfg.Offers.Create)
	app.Get("/offers/:id", authed, anyRole, cfg.Offers.Get)
	app.Patch("/offers/:id/status", authed, agentOrAdmin, cfg.Offers.UpdateStatus)
	app.Get("/buyer-offers", authed, anyRole, cfg.Offers.ListForBuyer)
	app.Get("/agent-offers", authed, agentOrAdmin, cfg.Offers.ListForAgent)

	app.Post("/create-payment-intent", authed, customer, cfg.Payments.CreateIntent)
	app.Post("/payments", authed, customer, cfg.Payments.Record)
	app.Get("/sold-properties", authed, agentOrAdmin, cfg.Payments.ListSold)
}
