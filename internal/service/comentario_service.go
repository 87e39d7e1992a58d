package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/holainformatica/soporte-backend/internal/domain"
	"github.com/holainformatica/soporte-backend/internal/repository"
	"github.com/holainformatica/soporte-backend/internal/storage"
	"github.com/holainformatica/soporte-backend/pkg/util"
)

// ComentarioService manages ticket comments and their attachments.
type ComentarioService interface {
	Create(ctx context.Context, ticketID, contenido string, files []UploadFile, actor *domain.Profile) (*domain.Comentario, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Comentario, error)
	Update(ctx context.Context, id, contenido string, actor *domain.Profile) (*domain.Comentario, error)
	Delete(ctx context.Context, id string, actor *domain.Profile) error
}

type comentarioService struct {
	comentarios repository.ComentarioRepository
	tickets     repository.TicketRepository
	historial   HistorialService
	store       storage.ObjectStore
	bucket      string
	signedTTL   time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// NewComentarioService wires the service.
func NewComentarioService(
	comentarios repository.ComentarioRepository,
	tickets repository.TicketRepository,
	historial HistorialService,
	store storage.ObjectStore,
	bucket string,
	signedTTL time.Duration,
	logger *zap.Logger,
) ComentarioService {
	return &comentarioService{
		comentarios: comentarios,
		tickets:     tickets,
		historial:   historial,
		store:       store,
		bucket:      bucket,
		signedTTL:   signedTTL,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *comentarioService) Create(ctx context.Context, ticketID, contenido string, files []UploadFile, actor *domain.Profile) (*domain.Comentario, error) {
	validos := make([]UploadFile, 0, len(files))
	for _, file := range files {
		if motivo := checkUploadFile(file); motivo != "" {
			s.logger.Warn("comentario archivo rechazado",
				zap.String("nombre", file.Nombre),
				zap.String("motivo", motivo),
			)
			continue
		}
		validos = append(validos, file)
	}
	// rejected files do not count towards a non-empty comment
	if strings.TrimSpace(contenido) == "" && len(validos) == 0 {
		return nil, util.NewValidationError("el comentario no puede estar vacio", nil)
	}
	if actor == nil {
		return nil, util.NewUnauthorized("se requiere sesion")
	}
	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		return nil, util.MapError(err)
	}

	comentario := &domain.Comentario{
		TicketID:  ticketID,
		UserID:    actor.ID,
		Contenido: contenido,
	}
	if err := s.comentarios.Create(ctx, comentario); err != nil {
		return nil, util.MapError(err)
	}

	// attachment failures do not undo the comment, the text already landed
	for _, file := range validos {
		path := storage.ObjectPath("comentarios", comentario.ID, file.Nombre, s.now())
		contentType := file.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		if err := s.store.Upload(ctx, s.bucket, path, file.Contenido, contentType); err != nil {
			s.logger.Warn("comentario archivo upload failed",
				zap.String("comentario_id", comentario.ID),
				zap.String("nombre", file.Nombre),
				zap.Error(err),
			)
			continue
		}
		archivo := domain.ComentarioArchivo{
			ComentarioID:   comentario.ID,
			NombreOriginal: file.Nombre,
			StoragePath:    path,
			MimeType:       contentType,
			Tamanio:        int64(len(file.Contenido)),
		}
		if err := s.comentarios.CreateArchivo(ctx, &archivo); err != nil {
			s.logger.Warn("comentario archivo row failed", zap.String("path", path), zap.Error(err))
			continue
		}
		comentario.Archivos = append(comentario.Archivos, archivo)
	}

	s.historial.Append(ctx, domain.HistorialEntry{
		TicketID:    ticketID,
		UserID:      &actor.ID,
		Tipo:        domain.HistorialComentario,
		Descripcion: fmt.Sprintf("%s comento en el ticket", actor.Nombre),
		Datos:       map[string]any{"comentario_id": comentario.ID},
	})
	return comentario, nil
}

func (s *comentarioService) ListByTicket(ctx context.Context, ticketID string) ([]domain.Comentario, error) {
	comentarios, err := s.comentarios.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, util.MapError(err)
	}
	if len(comentarios) == 0 {
		return comentarios, nil
	}

	ids := make([]string, 0, len(comentarios))
	for _, c := range comentarios {
		ids = append(ids, c.ID)
	}
	archivos, err := s.comentarios.ListArchivosByComentarios(ctx, ids)
	if err != nil {
		return nil, util.MapError(err)
	}
	byComentario := map[string][]domain.ComentarioArchivo{}
	for _, a := range archivos {
		url, err := s.store.SignedURL(ctx, s.bucket, a.StoragePath, s.signedTTL)
		if err != nil {
			s.logger.Warn("signed url failed", zap.String("path", a.StoragePath), zap.Error(err))
			url = ""
		}
		a.URL = url
		byComentario[a.ComentarioID] = append(byComentario[a.ComentarioID], a)
	}
	for i := range comentarios {
		comentarios[i].Archivos = byComentario[comentarios[i].ID]
	}
	return comentarios, nil
}

// Update rewrites a comment's text and marks it edited. Only its author may
// edit; admins can delete but not rewrite someone else's words.
func (s *comentarioService) Update(ctx context.Context, id, contenido string, actor *domain.Profile) (*domain.Comentario, error) {
	if strings.TrimSpace(contenido) == "" {
		return nil, util.NewValidationError("el comentario no puede estar vacio", nil)
	}
	comentario, err := s.comentarios.GetByID(ctx, id)
	if err != nil {
		return nil, util.MapError(err)
	}
	if actor == nil || comentario.UserID != actor.ID {
		return nil, util.NewForbidden("solo el autor puede editar el comentario")
	}
	if err := s.comentarios.UpdateContenido(ctx, id, contenido); err != nil {
		return nil, util.MapError(err)
	}
	comentario.Contenido = contenido
	comentario.Editado = true
	return comentario, nil
}

func (s *comentarioService) Delete(ctx context.Context, id string, actor *domain.Profile) error {
	comentario, err := s.comentarios.GetByID(ctx, id)
	if err != nil {
		return util.MapError(err)
	}
	owner := actor != nil && comentario.UserID == actor.ID
	if !owner && !actor.IsAdmin() {
		return util.NewForbidden("no puedes eliminar comentarios de otro usuario")
	}

	archivos, err := s.comentarios.ListArchivosByComentarios(ctx, []string{id})
	if err != nil {
		return util.MapError(err)
	}
	if len(archivos) > 0 {
		paths := make([]string, 0, len(archivos))
		for _, a := range archivos {
			paths = append(paths, a.StoragePath)
		}
		if err := s.store.Remove(ctx, s.bucket, paths); err != nil {
			s.logger.Warn("comentario storage cleanup failed", zap.String("comentario_id", id), zap.Error(err))
		}
	}
	if err := s.comentarios.Delete(ctx, id); err != nil {
		return util.MapError(err)
	}
	return nil
}
