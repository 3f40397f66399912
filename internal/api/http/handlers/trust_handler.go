package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/property-market/internal/service"
)

// TrustHandler exposes admin fraud and account removal endpoints.
type TrustHandler struct {
	trust *service.TrustService
}

// NewTrustHandler constructs handler.
func NewTrustHandler(trust *service.TrustService) *TrustHandler {
	return &TrustHandler{trust: trust}
}

// MarkFraud handles PATCH /user/:id/fraud.
func (h *TrustHandler) MarkFraud(c *fiber.Ctx) error {
	result, err := h.trust.MarkFraud(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// DeleteAccount handles DELETE /user/:id.
func (h *TrustHandler) DeleteAccount(c *fiber.Ctx) error {
	result, err := h.trust.DeleteAccount(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(result)
}
