package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/holainformatica/soporte-backend/internal/api/dto"
	"github.com/holainformatica/soporte-backend/internal/auth"
	"github.com/holainformatica/soporte-backend/internal/service"
	"github.com/holainformatica/soporte-backend/pkg/util"
)

// AuthHandler serves session endpoints.
type AuthHandler struct {
	service service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{service: authService}
}

// Login POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("payload no valido", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	result, err := h.service.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		Usuario:   dto.UsuarioFromDomain(result.Profile),
	}})
}

// Me GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	profile := auth.ProfileFromContext(c)
	if profile == nil {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}
	return c.JSON(fiber.Map{"data": dto.UsuarioFromDomain(profile)})
}
