package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/holainformatica/soporte-backend/internal/api/dto"
	"github.com/holainformatica/soporte-backend/internal/auth"
	"github.com/holainformatica/soporte-backend/internal/domain"
	"github.com/holainformatica/soporte-backend/internal/service"
	"github.com/holainformatica/soporte-backend/pkg/util"
)

// TicketsHandler serves the ticket lifecycle endpoints.
type TicketsHandler struct {
	tickets   service.TicketService
	historial service.HistorialService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets service.TicketService, historial service.HistorialService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, historial: historial}
}

// List GET /tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	input := parseListQuery(c)
	tickets, err := h.tickets.List(c.UserContext(), input)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.TicketFromAnotado(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Create POST /tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("payload no valido", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	ticket, err := h.tickets.Create(c.UserContext(), service.CreateTicketInput{
		EmpresaID:     req.EmpresaID,
		DispositivoID: req.DispositivoID,
		Asunto:        req.Asunto,
		Descripcion:   req.Descripcion,
		Prioridad:     req.Prioridad,
		Estado:        req.Estado,
		Asignados:     req.Asignados,
	}, auth.ProfileFromContext(c))
	if err != nil {
		return err
	}

	detail, err := h.tickets.Get(c.UserContext(), ticket.ID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketDetailResponse(detail)})
}

// Get GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	detail, err := h.tickets.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetailResponse(detail)})
}

// Update PATCH /tickets/:id.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("payload no valido", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	if _, err := h.tickets.Update(c.UserContext(), c.Params("id"), service.UpdateTicketInput{
		Asunto:        req.Asunto,
		Descripcion:   req.Descripcion,
		Prioridad:     req.Prioridad,
		Estado:        req.Estado,
		DispositivoID: req.DispositivoID,
	}, auth.ProfileFromContext(c)); err != nil {
		return err
	}

	detail, err := h.tickets.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetailResponse(detail)})
}

// Delete DELETE /tickets/:id.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	if err := h.tickets.Delete(c.UserContext(), c.Params("id"), auth.ProfileFromContext(c)); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// UpdateNotas PUT /tickets/:id/notas.
func (h *TicketsHandler) UpdateNotas(c *fiber.Ctx) error {
	var req dto.UpdateNotasRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("payload no valido", nil)
	}
	ticket, err := h.tickets.UpdateNotas(c.UserContext(), c.Params("id"), req.Notas, auth.ProfileFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"id": ticket.ID, "notas": ticket.Notas}})
}

// AddNotaInterna POST /tickets/:id/notas-internas.
func (h *TicketsHandler) AddNotaInterna(c *fiber.Ctx) error {
	var req dto.NotaInternaRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("payload no valido", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	if err := h.tickets.AddNotaInterna(c.UserContext(), c.Params("id"), req.Contenido, auth.ProfileFromContext(c)); err != nil {
		return err
	}
	return c.SendStatus(http.StatusCreated)
}

// Historial GET /tickets/:id/historial.
func (h *TicketsHandler) Historial(c *fiber.Ctx) error {
	entries, err := h.historial.ListByTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": historialResponses(entries)})
}

func parseListQuery(c *fiber.Ctx) service.ListTicketsInput {
	input := service.ListTicketsInput{}
	if v := c.Query("estado"); v != "" {
		estado := domain.Estado(v)
		input.Estado = &estado
	}
	if v := c.Query("prioridad"); v != "" {
		prioridad := domain.Prioridad(v)
		input.Prioridad = &prioridad
	}
	if v := c.Query("empresa_id"); v != "" {
		input.EmpresaID = &v
	}
	if v := c.Query("operario_id"); v != "" {
		input.OperarioID = &v
	}
	if v := c.Query("busqueda"); v != "" {
		input.Busqueda = &v
	}
	if from := parseTime(c.Query("desde")); from != nil {
		input.Desde = from
	}
	if to := parseTime(c.Query("hasta")); to != nil {
		input.Hasta = to
	}
	return input
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func ticketDetailResponse(detail *service.TicketDetalle) dto.TicketDetailResponse {
	resp := dto.TicketDetailResponse{
		TicketResponse: dto.TicketFromAnotado(&detail.TicketAnotado),
		Horas:          make([]dto.HoraLogResponse, 0, len(detail.Horas)),
		Archivos:       make([]dto.ArchivoResponse, 0, len(detail.Archivos)),
		Comentarios:    make([]dto.ComentarioResponse, 0, len(detail.Comentarios)),
		Historial:      historialResponses(detail.Historial),
	}
	for _, log := range detail.Horas {
		resp.Horas = append(resp.Horas, horaLogResponse(&log))
	}
	for _, archivo := range detail.Archivos {
		resp.Archivos = append(resp.Archivos, dto.ArchivoResponse{
			ID:             archivo.ID,
			NombreOriginal: archivo.NombreOriginal,
			MimeType:       archivo.MimeType,
			Tamanio:        archivo.Tamanio,
			CreatedAt:      archivo.CreatedAt,
		})
	}
	for i := range detail.Comentarios {
		resp.Comentarios = append(resp.Comentarios, comentarioResponse(&detail.Comentarios[i]))
	}
	return resp
}

func horaLogResponse(log *domain.HoraLog) dto.HoraLogResponse {
	return dto.HoraLogResponse{
		ID:          log.ID,
		TicketID:    log.TicketID,
		UserID:      log.UserID,
		Horas:       log.Horas,
		Descripcion: log.Descripcion,
		Fecha:       log.Fecha,
		CreatedAt:   log.CreatedAt,
	}
}

func comentarioResponse(comentario *domain.Comentario) dto.ComentarioResponse {
	archivos := make([]dto.ArchivoResponse, 0, len(comentario.Archivos))
	for _, a := range comentario.Archivos {
		archivos = append(archivos, dto.ArchivoResponse{
			ID:             a.ID,
			NombreOriginal: a.NombreOriginal,
			MimeType:       a.MimeType,
			Tamanio:        a.Tamanio,
			URL:            a.URL,
			CreatedAt:      a.CreatedAt,
		})
	}
	return dto.ComentarioResponse{
		ID:        comentario.ID,
		TicketID:  comentario.TicketID,
		UserID:    comentario.UserID,
		Contenido: comentario.Contenido,
		Editado:   comentario.Editado,
		Archivos:  archivos,
		CreatedAt: comentario.CreatedAt,
	}
}

func historialResponses(entries []domain.HistorialEntry) []dto.HistorialResponse {
	resp := make([]dto.HistorialResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, dto.HistorialResponse{
			ID:            entry.ID,
			Tipo:          entry.Tipo,
			Descripcion:   entry.Descripcion,
			Datos:         entry.Datos,
			NombreUsuario: entry.NombreUsuario,
			CreatedAt:     entry.CreatedAt,
		})
	}
	return resp
}
