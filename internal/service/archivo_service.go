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

// UploadFile is one file in an upload batch.
type UploadFile struct {
	Nombre      string
	ContentType string
	Contenido   []byte
}

// maxArchivoBytes caps a single attachment at 50MB.
const maxArchivoBytes = 50 << 20

var allowedMimeTypes = map[string]bool{
	"application/pdf":    true,
	"application/zip":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"application/octet-stream": true,
}

func mimeAllowed(contentType string) bool {
	if strings.HasPrefix(contentType, "image/") || strings.HasPrefix(contentType, "text/") {
		return true
	}
	return allowedMimeTypes[contentType]
}

// checkUploadFile validates size and content type; the returned motivo is
// empty when the file is acceptable.
func checkUploadFile(file UploadFile) string {
	if len(file.Contenido) == 0 {
		return "archivo vacio"
	}
	if len(file.Contenido) > maxArchivoBytes {
		return "el archivo supera el limite de 50MB"
	}
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if !mimeAllowed(contentType) {
		return fmt.Sprintf("tipo de archivo no permitido: %s", contentType)
	}
	return ""
}

// ArchivoConURL pairs attachment metadata with a signed download URL.
type ArchivoConURL struct {
	domain.TicketArchivo
	URL string
}

// UploadResult reports a batch upload. A batch succeeds as long as at least
// one file made it; per-file failures are returned alongside the successes.
type UploadResult struct {
	Subidos []domain.TicketArchivo
	Fallos  []UploadFallo
}

// UploadFallo names one failed file.
type UploadFallo struct {
	Nombre string
	Motivo string
}

// ArchivoService manages ticket attachments.
type ArchivoService interface {
	Upload(ctx context.Context, ticketID string, files []UploadFile, actor *domain.Profile) (*UploadResult, error)
	ListByTicket(ctx context.Context, ticketID string) ([]ArchivoConURL, error)
	Delete(ctx context.Context, id string, actor *domain.Profile) error
}

type archivoService struct {
	archivos  repository.ArchivoRepository
	tickets   repository.TicketRepository
	historial HistorialService
	store     storage.ObjectStore
	bucket    string
	signedTTL time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewArchivoService wires the service.
func NewArchivoService(
	archivos repository.ArchivoRepository,
	tickets repository.TicketRepository,
	historial HistorialService,
	store storage.ObjectStore,
	bucket string,
	signedTTL time.Duration,
	logger *zap.Logger,
) ArchivoService {
	return &archivoService{
		archivos:  archivos,
		tickets:   tickets,
		historial: historial,
		store:     store,
		bucket:    bucket,
		signedTTL: signedTTL,
		logger:    logger,
		now:       time.Now,
	}
}

// Upload stores a batch of files. Files fail independently; the whole call
// errors only when not a single file could be stored.
func (s *archivoService) Upload(ctx context.Context, ticketID string, files []UploadFile, actor *domain.Profile) (*UploadResult, error) {
	if len(files) == 0 {
		return nil, util.NewValidationError("no se han enviado archivos", nil)
	}
	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		return nil, util.MapError(err)
	}

	result := &UploadResult{}
	for _, file := range files {
		if motivo := checkUploadFile(file); motivo != "" {
			result.Fallos = append(result.Fallos, UploadFallo{Nombre: file.Nombre, Motivo: motivo})
			continue
		}
		path := storage.ObjectPath("tickets", ticketID, file.Nombre, s.now())
		contentType := file.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		if err := s.store.Upload(ctx, s.bucket, path, file.Contenido, contentType); err != nil {
			s.logger.Warn("archivo upload failed",
				zap.String("ticket_id", ticketID),
				zap.String("nombre", file.Nombre),
				zap.Error(err),
			)
			result.Fallos = append(result.Fallos, UploadFallo{Nombre: file.Nombre, Motivo: err.Error()})
			continue
		}

		archivo := domain.TicketArchivo{
			TicketID:       ticketID,
			NombreOriginal: file.Nombre,
			StoragePath:    path,
			MimeType:       contentType,
			Tamanio:        int64(len(file.Contenido)),
			SubidoBy:       actorID(actor),
		}
		if err := s.archivos.Create(ctx, &archivo); err != nil {
			// metadata row failed; drop the orphaned object
			if rmErr := s.store.Remove(ctx, s.bucket, []string{path}); rmErr != nil {
				s.logger.Warn("orphan cleanup failed", zap.String("path", path), zap.Error(rmErr))
			}
			result.Fallos = append(result.Fallos, UploadFallo{Nombre: file.Nombre, Motivo: err.Error()})
			continue
		}
		result.Subidos = append(result.Subidos, archivo)
	}

	if len(result.Subidos) == 0 {
		return nil, util.NewInternalError(fmt.Errorf("ningun archivo pudo subirse (%d fallos)", len(result.Fallos)))
	}

	for _, archivo := range result.Subidos {
		s.historial.Append(ctx, domain.HistorialEntry{
			TicketID:    ticketID,
			UserID:      actorID(actor),
			Tipo:        domain.HistorialArchivo,
			Descripcion: fmt.Sprintf("Archivo %s adjuntado", archivo.NombreOriginal),
			Datos:       map[string]any{"archivo_id": archivo.ID},
		})
	}
	return result, nil
}

// ListByTicket returns attachments with signed download URLs. An attachment
// whose URL cannot be signed is still listed, with an empty URL.
func (s *archivoService) ListByTicket(ctx context.Context, ticketID string) ([]ArchivoConURL, error) {
	archivos, err := s.archivos.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, util.MapError(err)
	}
	result := make([]ArchivoConURL, 0, len(archivos))
	for _, archivo := range archivos {
		url, err := s.store.SignedURL(ctx, s.bucket, archivo.StoragePath, s.signedTTL)
		if err != nil {
			s.logger.Warn("signed url failed", zap.String("path", archivo.StoragePath), zap.Error(err))
			url = ""
		}
		result = append(result, ArchivoConURL{TicketArchivo: archivo, URL: url})
	}
	return result, nil
}

// Delete removes an attachment, object first, then the row. Only the uploader
// or an admin may delete.
func (s *archivoService) Delete(ctx context.Context, id string, actor *domain.Profile) error {
	archivo, err := s.archivos.GetByID(ctx, id)
	if err != nil {
		return util.MapError(err)
	}
	owner := archivo.SubidoBy != nil && actor != nil && *archivo.SubidoBy == actor.ID
	if !owner && !actor.IsAdmin() {
		return util.NewForbidden("no puedes eliminar archivos de otro usuario")
	}

	// object first; if storage refuses, keep the row so the delete can be retried
	if err := s.store.Remove(ctx, s.bucket, []string{archivo.StoragePath}); err != nil {
		s.logger.Error("storage remove failed", zap.String("path", archivo.StoragePath), zap.Error(err))
		return util.NewInternalError(err)
	}
	if err := s.archivos.Delete(ctx, id); err != nil {
		return util.MapError(err)
	}

	s.historial.Append(ctx, domain.HistorialEntry{
		TicketID:    archivo.TicketID,
		UserID:      actorID(actor),
		Tipo:        domain.HistorialArchivo,
		Descripcion: fmt.Sprintf("Archivo %s eliminado", archivo.NombreOriginal),
		Datos:       map[string]any{"eliminado": true},
	})
	return nil
}
