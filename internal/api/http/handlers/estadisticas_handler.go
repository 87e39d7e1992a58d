package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/holainformatica/soporte-backend/internal/auth"
	"github.com/holainformatica/soporte-backend/internal/service"
)

// EstadisticasHandler serves the admin reporting endpoints.
type EstadisticasHandler struct {
	estadisticas service.EstadisticasService
}

// NewEstadisticasHandler constructs handler.
func NewEstadisticasHandler(estadisticas service.EstadisticasService) *EstadisticasHandler {
	return &EstadisticasHandler{estadisticas: estadisticas}
}

// Resumen GET /estadisticas/resumen.
func (h *EstadisticasHandler) Resumen(c *fiber.Ctx) error {
	resumen, err := h.estadisticas.Resumen(c.UserContext(), auth.ProfileFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": resumen})
}

// PorOperario GET /estadisticas/operarios.
func (h *EstadisticasHandler) PorOperario(c *fiber.Ctx) error {
	stats, err := h.estadisticas.PorOperario(c.UserContext(), auth.ProfileFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}

// PorEmpresa GET /estadisticas/empresas.
func (h *EstadisticasHandler) PorEmpresa(c *fiber.Ctx) error {
	stats, err := h.estadisticas.PorEmpresa(c.UserContext(), auth.ProfileFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}
