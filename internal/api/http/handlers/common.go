package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/property-market/internal/api/dto"
	"github.com/spec-kit/property-market/internal/auth"
	"github.com/spec-kit/property-market/internal/events"
	apperrors "github.com/spec-kit/property-market/pkg/util/errorutil"
)

// parseBody decodes and validates a JSON payload.
func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", map[string]any{"reason": err.Error()})
	}
	return dto.Validate(out)
}

func principal(c *fiber.Ctx) *auth.Principal {
	p, _ := auth.PrincipalFromContext(c)
	return p
}

func actorFrom(c *fiber.Ctx) events.Actor {
	p := principal(c)
	if p == nil || p.User == nil {
		return events.Actor{}
	}
	return events.Actor{UserID: p.User.ID, Email: p.User.Email, Role: p.User.Role}
}

func data(v any) fiber.Map {
	return fiber.Map{"data": v}
}
