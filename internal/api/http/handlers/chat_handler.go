package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/holainformatica/soporte-backend/internal/api/dto"
	"github.com/holainformatica/soporte-backend/internal/auth"
	"github.com/holainformatica/soporte-backend/internal/service"
	"github.com/holainformatica/soporte-backend/pkg/util"
)

// ChatHandler serves the internal chat endpoints.
type ChatHandler struct {
	chat service.ChatService
}

// NewChatHandler constructs handler.
func NewChatHandler(chat service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// ListCanales GET /chat/canales.
func (h *ChatHandler) ListCanales(c *fiber.Ctx) error {
	canales, err := h.chat.ListCanales(c.UserContext(), auth.ProfileFromContext(c))
	if err != nil {
		return err
	}
	items := make([]dto.CanalResponse, 0, len(canales))
	for i := range canales {
		items = append(items, dto.CanalFromDomain(&canales[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CrearCanal POST /chat/canales.
func (h *ChatHandler) CrearCanal(c *fiber.Ctx) error {
	var req dto.CrearCanalRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("payload no valido", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	canal, err := h.chat.CrearCanal(c.UserContext(), service.CrearCanalInput{
		Nombre:      req.Nombre,
		Descripcion: req.Descripcion,
		Miembros:    req.Miembros,
	}, auth.ProfileFromContext(c))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.CanalFromDomain(canal)})
}

// ActualizarCanal PATCH /chat/canales/:id.
func (h *ChatHandler) ActualizarCanal(c *fiber.Ctx) error {
	var req dto.ActualizarCanalRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("payload no valido", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	canal, err := h.chat.ActualizarCanal(c.UserContext(), c.Params("id"), service.ActualizarCanalInput{
		Nombre:      req.Nombre,
		Descripcion: req.Descripcion,
		Miembros:    req.Miembros,
	}, auth.ProfileFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.CanalFromDomain(canal)})
}

// AbrirDirecto POST /chat/directos.
func (h *ChatHandler) AbrirDirecto(c *fiber.Ctx) error {
	var req dto.AbrirDirectoRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("payload no valido", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	canal, err := h.chat.AbrirDirecto(c.UserContext(), req.UserID, auth.ProfileFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.CanalFromDomain(canal)})
}

// EliminarCanal DELETE /chat/canales/:id.
func (h *ChatHandler) EliminarCanal(c *fiber.Ctx) error {
	if err := h.chat.EliminarCanal(c.UserContext(), c.Params("id"), auth.ProfileFromContext(c)); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// AddMiembro POST /chat/canales/:id/miembros.
func (h *ChatHandler) AddMiembro(c *fiber.Ctx) error {
	var req dto.CanalMiembroRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("payload no valido", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	if err := h.chat.AddMiembro(c.UserContext(), c.Params("id"), req.UserID, auth.ProfileFromContext(c)); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// RemoveMiembro DELETE /chat/canales/:id/miembros/:userId.
func (h *ChatHandler) RemoveMiembro(c *fiber.Ctx) error {
	if err := h.chat.RemoveMiembro(c.UserContext(), c.Params("id"), c.Params("userId"), auth.ProfileFromContext(c)); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListMensajes GET /chat/canales/:id/mensajes?limit=&before=.
func (h *ChatHandler) ListMensajes(c *fiber.Ctx) error {
	input := service.ListarMensajesInput{CanalID: c.Params("id")}
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			input.Limit = parsed
		}
	}
	if v := c.Query("before"); v != "" {
		input.Before = &v
	}
	mensajes, err := h.chat.ListMensajes(c.UserContext(), input, auth.ProfileFromContext(c))
	if err != nil {
		return err
	}
	items := make([]dto.MensajeResponse, 0, len(mensajes))
	for i := range mensajes {
		items = append(items, dto.MensajeFromDomain(&mensajes[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// EnviarMensaje POST /chat/canales/:id/mensajes. Accepts JSON or a multipart
// form with "contenido", optional "ticket_ref_id" and "archivos" parts.
func (h *ChatHandler) EnviarMensaje(c *fiber.Ctx) error {
	input := service.EnviarMensajeInput{CanalID: c.Params("id")}

	if form, err := c.MultipartForm(); err == nil && form != nil {
		if vals := form.Value["contenido"]; len(vals) > 0 {
			input.Contenido = vals[0]
		}
		if vals := form.Value["ticket_ref_id"]; len(vals) > 0 && vals[0] != "" {
			input.TicketRefID = &vals[0]
		}
		input.Archivos, err = collectFiles(form.File["archivos"])
		if err != nil {
			return err
		}
	} else {
		var req dto.EnviarMensajeRequest
		if err := c.BodyParser(&req); err != nil {
			return util.NewValidationError("payload no valido", nil)
		}
		if err := dto.Validate(req); err != nil {
			return err
		}
		input.Contenido = req.Contenido
		input.TicketRefID = req.TicketRefID
	}

	mensaje, err := h.chat.EnviarMensaje(c.UserContext(), input, auth.ProfileFromContext(c))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.MensajeFromDomain(mensaje)})
}

// EditarMensaje PATCH /chat/mensajes/:id.
func (h *ChatHandler) EditarMensaje(c *fiber.Ctx) error {
	var req dto.EditarMensajeRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("payload no valido", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	mensaje, err := h.chat.EditarMensaje(c.UserContext(), c.Params("id"), req.Contenido, auth.ProfileFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.MensajeFromDomain(mensaje)})
}

// AnclarMensaje PUT /chat/mensajes/:id/anclado.
func (h *ChatHandler) AnclarMensaje(c *fiber.Ctx) error {
	var req dto.AnclarMensajeRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("payload no valido", nil)
	}
	if err := h.chat.AnclarMensaje(c.UserContext(), c.Params("id"), req.Anclado, auth.ProfileFromContext(c)); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// EliminarMensaje DELETE /chat/mensajes/:id.
func (h *ChatHandler) EliminarMensaje(c *fiber.Ctx) error {
	if err := h.chat.EliminarMensaje(c.UserContext(), c.Params("id"), auth.ProfileFromContext(c)); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
