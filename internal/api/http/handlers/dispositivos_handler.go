package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/holainformatica/soporte-backend/internal/api/dto"
	"github.com/holainformatica/soporte-backend/internal/auth"
	"github.com/holainformatica/soporte-backend/internal/service"
	"github.com/holainformatica/soporte-backend/pkg/util"
)

// DispositivosHandler serves device inventory endpoints.
type DispositivosHandler struct {
	dispositivos service.DispositivoService
}

// NewDispositivosHandler constructs handler.
func NewDispositivosHandler(dispositivos service.DispositivoService) *DispositivosHandler {
	return &DispositivosHandler{dispositivos: dispositivos}
}

// List GET /dispositivos?empresa_id=...
func (h *DispositivosHandler) List(c *fiber.Ctx) error {
	var empresaID *string
	if v := c.Query("empresa_id"); v != "" {
		empresaID = &v
	}
	dispositivos, err := h.dispositivos.List(c.UserContext(), empresaID)
	if err != nil {
		return err
	}
	items := make([]dto.DispositivoResponse, 0, len(dispositivos))
	for i := range dispositivos {
		items = append(items, dto.DispositivoFromDomain(&dispositivos[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /dispositivos/:id.
func (h *DispositivosHandler) Get(c *fiber.Ctx) error {
	dispositivo, err := h.dispositivos.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.DispositivoFromDomain(dispositivo)})
}

// Create POST /dispositivos.
func (h *DispositivosHandler) Create(c *fiber.Ctx) error {
	var req dto.DispositivoRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("payload no valido", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	dispositivo, err := h.dispositivos.Create(c.UserContext(), dispositivoInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.DispositivoFromDomain(dispositivo)})
}

// Update PATCH /dispositivos/:id.
func (h *DispositivosHandler) Update(c *fiber.Ctx) error {
	var req dto.DispositivoRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("payload no valido", nil)
	}
	dispositivo, err := h.dispositivos.Update(c.UserContext(), c.Params("id"), dispositivoInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.DispositivoFromDomain(dispositivo)})
}

// Delete DELETE /dispositivos/:id.
func (h *DispositivosHandler) Delete(c *fiber.Ctx) error {
	if err := h.dispositivos.Delete(c.UserContext(), c.Params("id"), auth.ProfileFromContext(c)); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func dispositivoInput(req dto.DispositivoRequest) service.DispositivoInput {
	return service.DispositivoInput{
		EmpresaID:   req.EmpresaID,
		Nombre:      req.Nombre,
		Tipo:        req.Tipo,
		Categoria:   req.Categoria,
		IP:          req.IP,
		NumeroSerie: req.NumeroSerie,
		Notas:       req.Notas,
	}
}
