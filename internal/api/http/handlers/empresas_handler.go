package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/holainformatica/soporte-backend/internal/api/dto"
	"github.com/holainformatica/soporte-backend/internal/auth"
	"github.com/holainformatica/soporte-backend/internal/service"
	"github.com/holainformatica/soporte-backend/pkg/util"
)

// EmpresasHandler serves client company endpoints.
type EmpresasHandler struct {
	empresas service.EmpresaService
}

// NewEmpresasHandler constructs handler.
func NewEmpresasHandler(empresas service.EmpresaService) *EmpresasHandler {
	return &EmpresasHandler{empresas: empresas}
}

// List GET /empresas.
func (h *EmpresasHandler) List(c *fiber.Ctx) error {
	empresas, err := h.empresas.List(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.EmpresaResponse, 0, len(empresas))
	for i := range empresas {
		items = append(items, dto.EmpresaFromDomain(&empresas[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /empresas/:id.
func (h *EmpresasHandler) Get(c *fiber.Ctx) error {
	empresa, err := h.empresas.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.EmpresaFromDomain(empresa)})
}

// Create POST /empresas.
func (h *EmpresasHandler) Create(c *fiber.Ctx) error {
	var req dto.EmpresaRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("payload no valido", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	empresa, err := h.empresas.Create(c.UserContext(), empresaInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.EmpresaFromDomain(empresa)})
}

// Update PATCH /empresas/:id.
func (h *EmpresasHandler) Update(c *fiber.Ctx) error {
	var req dto.EmpresaRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("payload no valido", nil)
	}
	empresa, err := h.empresas.Update(c.UserContext(), c.Params("id"), empresaInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.EmpresaFromDomain(empresa)})
}

// Delete DELETE /empresas/:id.
func (h *EmpresasHandler) Delete(c *fiber.Ctx) error {
	if err := h.empresas.Delete(c.UserContext(), c.Params("id"), auth.ProfileFromContext(c)); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func empresaInput(req dto.EmpresaRequest) service.EmpresaInput {
	return service.EmpresaInput{
		Nombre:    req.Nombre,
		CIF:       req.CIF,
		Email:     req.Email,
		Telefono:  req.Telefono,
		Direccion: req.Direccion,
		Contactos: req.Contactos,
	}
}
