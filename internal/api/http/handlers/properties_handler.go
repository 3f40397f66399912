package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/property-market/internal/api/dto"
	"github.com/spec-kit/property-market/internal/domain"
	"github.com/spec-kit/property-market/internal/service"
)

// PropertiesHandler exposes the listing registry.
type PropertiesHandler struct {
	properties *service.PropertyService
}

// NewPropertiesHandler constructs handler.
func NewPropertiesHandler(properties *service.PropertyService) *PropertiesHandler {
	return &PropertiesHandler{properties: properties}
}

// Create handles POST /properties.
func (h *PropertiesHandler) Create(c *fiber.Ctx) error {
	var req dto.PropertyCreateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	property, err := h.properties.Create(c.UserContext(), principal(c).User, service.PropertyCreateInput{
		Title:       req.Title,
		Location:    req.Location,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		PriceRange:  req.PriceRange,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(data(property))
}

// Get handles GET /properties/:id.
func (h *PropertiesHandler) Get(c *fiber.Ctx) error {
	property, err := h.properties.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(data(property))
}

// Update handles PATCH /properties/:id.
func (h *PropertiesHandler) Update(c *fiber.Ctx) error {
	var req dto.PropertyUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	property, err := h.properties.Update(c.UserContext(), principal(c).Email(), c.Params("id"), domain.PropertyPatch{
		Title:       req.Title,
		Location:    req.Location,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		PriceRange:  req.PriceRange,
	})
	if err != nil {
		return err
	}
	return c.JSON(data(property))
}

// SetVerification handles PATCH /properties/:id/verification.
func (h *PropertiesHandler) SetVerification(c *fiber.Ctx) error {
	var req dto.VerificationRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	property, err := h.properties.SetVerification(c.UserContext(), c.Params("id"), domain.VerificationStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(data(property))
}

// ListByAgent handles GET /agent-properties?email=.
func (h *PropertiesHandler) ListByAgent(c *fiber.Ctx) error {
	email := c.Query("email")
	if email == "" {
		email = principal(c).Email()
	}
	properties, err := h.properties.ListByAgent(c.UserContext(), email)
	if err != nil {
		return err
	}
	return c.JSON(properties)
}
