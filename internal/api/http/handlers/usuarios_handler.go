package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/holainformatica/soporte-backend/internal/api/dto"
	"github.com/holainformatica/soporte-backend/internal/auth"
	"github.com/holainformatica/soporte-backend/internal/service"
	"github.com/holainformatica/soporte-backend/pkg/util"
)

// UsuariosHandler serves account management endpoints.
type UsuariosHandler struct {
	usuarios service.UsuarioService
}

// NewUsuariosHandler constructs handler.
func NewUsuariosHandler(usuarios service.UsuarioService) *UsuariosHandler {
	return &UsuariosHandler{usuarios: usuarios}
}

// List GET /usuarios (admin).
func (h *UsuariosHandler) List(c *fiber.Ctx) error {
	usuarios, err := h.usuarios.List(c.UserContext(), auth.ProfileFromContext(c))
	if err != nil {
		return err
	}
	items := make([]dto.UsuarioResponse, 0, len(usuarios))
	for i := range usuarios {
		items = append(items, dto.UsuarioFromDomain(&usuarios[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListOperarios GET /operarios. Active accounts only, for assignment pickers.
func (h *UsuariosHandler) ListOperarios(c *fiber.Ctx) error {
	operarios, err := h.usuarios.ListOperarios(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.UsuarioResponse, 0, len(operarios))
	for i := range operarios {
		items = append(items, dto.UsuarioFromDomain(&operarios[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Create POST /usuarios (admin).
func (h *UsuariosHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateUsuarioRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("payload no valido", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	usuario, err := h.usuarios.Create(c.UserContext(), service.CreateUsuarioInput{
		Nombre:   req.Nombre,
		Email:    req.Email,
		Password: req.Password,
		Rol:      req.Rol,
	}, auth.ProfileFromContext(c))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.UsuarioFromDomain(usuario)})
}

// Update PATCH /usuarios/:id (admin).
func (h *UsuariosHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateUsuarioRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("payload no valido", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	usuario, err := h.usuarios.Update(c.UserContext(), c.Params("id"), service.UpdateUsuarioInput{
		Nombre:   req.Nombre,
		Email:    req.Email,
		Password: req.Password,
		Rol:      req.Rol,
		Activo:   req.Activo,
	}, auth.ProfileFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.UsuarioFromDomain(usuario)})
}

// Delete DELETE /usuarios/:id (admin).
func (h *UsuariosHandler) Delete(c *fiber.Ctx) error {
	if err := h.usuarios.Delete(c.UserContext(), c.Params("id"), auth.ProfileFromContext(c)); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
