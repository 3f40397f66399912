package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/property-market/internal/api/dto"
	"github.com/spec-kit/property-market/internal/domain"
	"github.com/spec-kit/property-market/internal/service"
)

// UsersHandler exposes account and token endpoints.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(users *service.UserService) *UsersHandler {
	return &UsersHandler{users: users}
}

// IssueToken handles POST /jwt.
func (h *UsersHandler) IssueToken(c *fiber.Ctx) error {
	var req dto.TokenRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	token, err := h.users.IssueToken(c.UserContext(), req.Email)
	if err != nil {
		return err
	}
	return c.JSON(token)
}

// Upsert handles POST /users.
func (h *UsersHandler) Upsert(c *fiber.Ctx) error {
	var req dto.UserUpsertRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, created, err := h.users.Upsert(c.UserContext(), req.Email, req.Name)
	if err != nil {
		return err
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.Status(status).JSON(data(user))
}

// Role handles GET /users/role/:email.
func (h *UsersHandler) Role(c *fiber.Ctx) error {
	role, err := h.users.RoleOf(c.UserContext(), c.Params("email"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"role": role})
}

// SetRole handles PATCH /users/:id/role.
func (h *UsersHandler) SetRole(c *fiber.Ctx) error {
	var req dto.RoleUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.users.SetRole(c.UserContext(), c.Params("id"), domain.UserRole(req.Role))
	if err != nil {
		return err
	}
	return c.JSON(data(user))
}
