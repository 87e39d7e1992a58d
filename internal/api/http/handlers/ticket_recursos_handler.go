package handlers

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/holainformatica/soporte-backend/internal/api/dto"
	"github.com/holainformatica/soporte-backend/internal/auth"
	"github.com/holainformatica/soporte-backend/internal/service"
	"github.com/holainformatica/soporte-backend/pkg/util"
)

// TicketRecursosHandler serves the per-ticket sub-resources: asignaciones,
// horas, archivos and comentarios.
type TicketRecursosHandler struct {
	asignaciones service.AsignacionService
	horas        service.HorasService
	archivos     service.ArchivoService
	comentarios  service.ComentarioService
}

// NewTicketRecursosHandler constructs handler.
func NewTicketRecursosHandler(
	asignaciones service.AsignacionService,
	horas service.HorasService,
	archivos service.ArchivoService,
	comentarios service.ComentarioService,
) *TicketRecursosHandler {
	return &TicketRecursosHandler{
		asignaciones: asignaciones,
		horas:        horas,
		archivos:     archivos,
		comentarios:  comentarios,
	}
}

// Asignar POST /tickets/:id/asignaciones.
func (h *TicketRecursosHandler) Asignar(c *fiber.Ctx) error {
	var req dto.AsignarRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("payload no valido", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	if err := h.asignaciones.Assign(c.UserContext(), c.Params("id"), req.Operarios, auth.ProfileFromContext(c)); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Desasignar DELETE /tickets/:id/asignaciones/:userId.
func (h *TicketRecursosHandler) Desasignar(c *fiber.Ctx) error {
	if err := h.asignaciones.Unassign(c.UserContext(), c.Params("id"), c.Params("userId"), auth.ProfileFromContext(c)); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// RegistrarHoras POST /tickets/:id/horas.
func (h *TicketRecursosHandler) RegistrarHoras(c *fiber.Ctx) error {
	var req dto.RegistrarHorasRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("payload no valido", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	log, err := h.horas.Registrar(c.UserContext(), service.RegistrarHorasInput{
		TicketID:    c.Params("id"),
		Horas:       req.Horas,
		Descripcion: req.Descripcion,
		Fecha:       req.Fecha,
	}, auth.ProfileFromContext(c))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": horaLogResponse(log)})
}

// ListHoras GET /tickets/:id/horas.
func (h *TicketRecursosHandler) ListHoras(c *fiber.Ctx) error {
	logs, err := h.horas.ListByTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.HoraLogResponse, 0, len(logs))
	for i := range logs {
		items = append(items, horaLogResponse(&logs[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// DeleteHoras DELETE /horas/:id.
func (h *TicketRecursosHandler) DeleteHoras(c *fiber.Ctx) error {
	if err := h.horas.Delete(c.UserContext(), c.Params("id"), auth.ProfileFromContext(c)); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// UploadArchivos POST /tickets/:id/archivos. Multipart; each part named
// "archivos".
func (h *TicketRecursosHandler) UploadArchivos(c *fiber.Ctx) error {
	files, err := readMultipartFiles(c, "archivos")
	if err != nil {
		return err
	}
	result, err := h.archivos.Upload(c.UserContext(), c.Params("id"), files, auth.ProfileFromContext(c))
	if err != nil {
		return err
	}

	resp := dto.UploadResultResponse{Subidos: make([]dto.ArchivoResponse, 0, len(result.Subidos))}
	for _, archivo := range result.Subidos {
		resp.Subidos = append(resp.Subidos, dto.ArchivoResponse{
			ID:             archivo.ID,
			NombreOriginal: archivo.NombreOriginal,
			MimeType:       archivo.MimeType,
			Tamanio:        archivo.Tamanio,
			CreatedAt:      archivo.CreatedAt,
		})
	}
	for _, fallo := range result.Fallos {
		resp.Fallos = append(resp.Fallos, dto.UploadFalloResponse{Nombre: fallo.Nombre, Motivo: fallo.Motivo})
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": resp})
}

// ListArchivos GET /tickets/:id/archivos.
func (h *TicketRecursosHandler) ListArchivos(c *fiber.Ctx) error {
	archivos, err := h.archivos.ListByTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.ArchivoResponse, 0, len(archivos))
	for _, archivo := range archivos {
		items = append(items, dto.ArchivoResponse{
			ID:             archivo.ID,
			NombreOriginal: archivo.NombreOriginal,
			MimeType:       archivo.MimeType,
			Tamanio:        archivo.Tamanio,
			URL:            archivo.URL,
			CreatedAt:      archivo.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// DeleteArchivo DELETE /archivos/:id.
func (h *TicketRecursosHandler) DeleteArchivo(c *fiber.Ctx) error {
	if err := h.archivos.Delete(c.UserContext(), c.Params("id"), auth.ProfileFromContext(c)); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// CreateComentario POST /tickets/:id/comentarios. Accepts either JSON or a
// multipart form with a "contenido" field plus "archivos" parts.
func (h *TicketRecursosHandler) CreateComentario(c *fiber.Ctx) error {
	contenido := ""
	var files []service.UploadFile

	if form, err := c.MultipartForm(); err == nil && form != nil {
		if vals := form.Value["contenido"]; len(vals) > 0 {
			contenido = vals[0]
		}
		files, err = collectFiles(form.File["archivos"])
		if err != nil {
			return err
		}
	} else {
		var req dto.ComentarioRequest
		if err := c.BodyParser(&req); err != nil {
			return util.NewValidationError("payload no valido", nil)
		}
		contenido = req.Contenido
	}

	comentario, err := h.comentarios.Create(c.UserContext(), c.Params("id"), contenido, files, auth.ProfileFromContext(c))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": comentarioResponse(comentario)})
}

// ListComentarios GET /tickets/:id/comentarios.
func (h *TicketRecursosHandler) ListComentarios(c *fiber.Ctx) error {
	comentarios, err := h.comentarios.ListByTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.ComentarioResponse, 0, len(comentarios))
	for i := range comentarios {
		items = append(items, comentarioResponse(&comentarios[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpdateComentario PATCH /comentarios/:id.
func (h *TicketRecursosHandler) UpdateComentario(c *fiber.Ctx) error {
	var req dto.ComentarioRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("payload no valido", nil)
	}
	comentario, err := h.comentarios.Update(c.UserContext(), c.Params("id"), req.Contenido, auth.ProfileFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": comentarioResponse(comentario)})
}

// DeleteComentario DELETE /comentarios/:id.
func (h *TicketRecursosHandler) DeleteComentario(c *fiber.Ctx) error {
	if err := h.comentarios.Delete(c.UserContext(), c.Params("id"), auth.ProfileFromContext(c)); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func readMultipartFiles(c *fiber.Ctx, field string) ([]service.UploadFile, error) {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil, util.NewValidationError("se esperaba un formulario multipart", nil)
	}
	return collectFiles(form.File[field])
}

func collectFiles(headers []*multipart.FileHeader) ([]service.UploadFile, error) {
	files := make([]service.UploadFile, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			return nil, util.NewValidationError("no se pudo leer el archivo", map[string]any{"nombre": header.Filename})
		}
		content, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, util.NewValidationError("no se pudo leer el archivo", map[string]any{"nombre": header.Filename})
		}
		files = append(files, service.UploadFile{
			Nombre:      header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Contenido:   content,
		})
	}
	return files, nil
}
