package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/property-market/internal/api/dto"
	"github.com/spec-kit/property-market/internal/service"
)

// PaymentsHandler exposes settlement endpoints.
type PaymentsHandler struct {
	payments *service.PaymentService
}

// NewPaymentsHandler constructs handler.
func NewPaymentsHandler(payments *service.PaymentService) *PaymentsHandler {
	return &PaymentsHandler{payments: payments}
}

// CreateIntent handles POST /create-payment-intent.
func (h *PaymentsHandler) CreateIntent(c *fiber.Ctx) error {
	var req dto.PaymentIntentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	secret, err := h.payments.CreatePaymentIntent(c.UserContext(), req.Price)
	if err != nil {
		return err
	}
	return c.JSON(dto.PaymentIntentResponse{ClientSecret: secret})
}

// Record handles POST /payments.
func (h *PaymentsHandler) Record(c *fiber.Ctx) error {
	var req dto.PaymentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.BuyerEmail == "" {
		req.BuyerEmail = principal(c).Email()
	}
	result, err := h.payments.Record(c.UserContext(), actorFrom(c), service.PaymentInput{
		PropertyID:    req.PropertyID,
		BuyerEmail:    req.BuyerEmail,
		AgentEmail:    req.AgentEmail,
		TransactionID: req.TransactionID,
		Amount:        req.Amount,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(result)
}

// ListSold handles GET /sold-properties?email=.
func (h *PaymentsHandler) ListSold(c *fiber.Ctx) error {
	payments, err := h.payments.ListSold(c.UserContext(), c.Query("email"))
	if err != nil {
		return err
	}
	return c.JSON(payments)
}
