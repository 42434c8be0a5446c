package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/bensalemboualem/ifactory-school/internal/dto"
	"github.com/bensalemboualem/ifactory-school/internal/i18n"
	"github.com/bensalemboualem/ifactory-school/internal/services"
	"github.com/bensalemboualem/ifactory-school/internal/tenant"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	schoolID := tenant.GetSchoolID(c)
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	resp, err := h.authService.Login(c.UserContext(), schoolID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, resp, i18n.MsgLoggedIn)
}

// CreateUser is mounted under the admin group.
func (h *AuthHandler) CreateUser(c *fiber.Ctx) error {
	actor, err := tenant.GetActor(c)
	if err != nil {
		return respondError(c, err)
	}
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	user, err := h.authService.CreateUser(c.UserContext(), actor, &req)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusCreated, user, i18n.MsgUserCreated)
}
