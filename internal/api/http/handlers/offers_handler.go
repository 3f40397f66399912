package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/property-market/internal/api/dto"
	"github.com/spec-kit/property-market/internal/domain"
	"github.com/spec-kit/property-market/internal/service"
)

// OffersHandler exposes the offer workflow.
type OffersHandler struct {
	offers *service.OfferService
}

// NewOffersHandler constructs handler.
func NewOffersHandler(offers *service.OfferService) *OffersHandler {
	return &OffersHandler{offers: offers}
}

// Create handles POST /offers. Buyer fields default to the caller.
func (h *OffersHandler) Create(c *fiber.Ctx) error {
	var req dto.OfferCreateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if p := principal(c); p != nil && p.User != nil {
		if req.BuyerEmail == "" {
			req.BuyerEmail = p.User.Email
		}
		if req.BuyerName == "" {
			req.BuyerName = p.User.Name
		}
	}

	id, err := h.offers.Create(c.UserContext(), actorFrom(c), service.OfferCreateInput{
		PropertyID:  req.PropertyID,
		OfferAmount: req.OfferAmount,
		BuyerEmail:  req.BuyerEmail,
		BuyerName:   req.BuyerName,
		BuyingDate:  req.BuyingDate,
		AgentEmail:  req.AgentEmail,
		Images:      req.Images,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.InsertedResponse{InsertedID: id})
}

// Get handles GET /offers/:id.
func (h *OffersHandler) Get(c *fiber.Ctx) error {
	offer, err := h.offers.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(data(offer))
}

// UpdateStatus handles PATCH /offers/:id/status.
func (h *OffersHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.OfferStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	change, err := h.offers.TransitionStatus(c.UserContext(), actorFrom(c), c.Params("id"), domain.OfferStatus(req.Status), req.PropertyID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"modifiedCount":    1,
		"siblingsRejected": change.SiblingsRejected,
		"offer":            change.Offer,
	})
}

// ListForBuyer handles GET /buyer-offers?buyerEmail=.
func (h *OffersHandler) ListForBuyer(c *fiber.Ctx) error {
	offers, err := h.offers.ListForBuyer(c.UserContext(), c.Query("buyerEmail"))
	if err != nil {
		return err
	}
	return c.JSON(offers)
}

// ListForAgent handles GET /agent-offers?agentEmail=.
func (h *OffersHandler) ListForAgent(c *fiber.Ctx) error {
	offers, err := h.offers.ListForAgent(c.UserContext(), c.Query("agentEmail"))
	if err != nil {
		return err
	}
	return c.JSON(offers)
}
