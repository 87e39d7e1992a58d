package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/holainformatica/soporte-backend/internal/domain"
	"github.com/holainformatica/soporte-backend/internal/repository"
	"github.com/holainformatica/soporte-backend/internal/storage"
	"github.com/holainformatica/soporte-backend/pkg/util"
)

// CrearCanalInput creates an open channel.
type CrearCanalInput struct {
	Nombre      string
	Descripcion *string
	Miembros    []string
}

// ActualizarCanalInput edits a channel. Nil fields stay untouched; a non-nil
// Miembros replaces the member list.
type ActualizarCanalInput struct {
	Nombre      *string
	Descripcion *string
	Miembros    *[]string
}

// EnviarMensajeInput posts a message to a channel.
type EnviarMensajeInput struct {
	CanalID     string
	Contenido   string
	TicketRefID *string
	Archivos    []UploadFile
}

// ListarMensajesInput pages through a channel's history.
type ListarMensajesInput struct {
	CanalID string
	Limit   int
	Before  *string
}

// ChatService implements internal team chat: named channels, one-to-one
// conversations, messages with ticket references and attachments.
type ChatService interface {
	CrearCanal(ctx context.Context, input CrearCanalInput, actor *domain.Profile) (*domain.Canal, error)
	AbrirDirecto(ctx context.Context, otherUserID string, actor *domain.Profile) (*domain.Canal, error)
	ListCanales(ctx context.Context, actor *domain.Profile) ([]domain.Canal, error)
	ActualizarCanal(ctx context.Context, canalID string, input ActualizarCanalInput, actor *domain.Profile) (*domain.Canal, error)
	AddMiembro(ctx context.Context, canalID, userID string, actor *domain.Profile) error
	RemoveMiembro(ctx context.Context, canalID, userID string, actor *domain.Profile) error
	EliminarCanal(ctx context.Context, canalID string, actor *domain.Profile) error

	EnviarMensaje(ctx context.Context, input EnviarMensajeInput, actor *domain.Profile) (*domain.Mensaje, error)
	ListMensajes(ctx context.Context, input ListarMensajesInput, actor *domain.Profile) ([]domain.Mensaje, error)
	EditarMensaje(ctx context.Context, mensajeID, contenido string, actor *domain.Profile) (*domain.Mensaje, error)
	AnclarMensaje(ctx context.Context, mensajeID string, anclado bool, actor *domain.Profile) error
	EliminarMensaje(ctx context.Context, mensajeID string, actor *domain.Profile) error
}

type chatService struct {
	canales   repository.CanalRepository
	mensajes  repository.MensajeRepository
	profiles  repository.ProfileRepository
	store     storage.ObjectStore
	bucket    string
	signedTTL time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewChatService wires the service.
func NewChatService(
	canales repository.CanalRepository,
	mensajes repository.MensajeRepository,
	profiles repository.ProfileRepository,
	store storage.ObjectStore,
	bucket string,
	signedTTL time.Duration,
	logger *zap.Logger,
) ChatService {
	return &chatService{
		canales:   canales,
		mensajes:  mensajes,
		profiles:  profiles,
		store:     store,
		bucket:    bucket,
		signedTTL: signedTTL,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *chatService) CrearCanal(ctx context.Context, input CrearCanalInput, actor *domain.Profile) (*domain.Canal, error) {
	input.Nombre = strings.TrimSpace(input.Nombre)
	if input.Nombre == "" {
		return nil, util.NewValidationError("nombre es obligatorio", nil)
	}
	if actor == nil {
		return nil, util.NewUnauthorized("se requiere sesion")
	}

	exists, err := s.canales.NombreExists(ctx, input.Nombre)
	if err != nil {
		return nil, util.MapError(err)
	}
	if exists {
		return nil, util.NewConflict("ya existe un canal con ese nombre", nil)
	}

	canal := &domain.Canal{
		Nombre:      input.Nombre,
		Descripcion: input.Descripcion,
		Tipo:        domain.CanalTipoCanal,
		CreadoPor:   &actor.ID,
	}
	if err := s.canales.Create(ctx, canal); err != nil {
		return nil, util.MapError(err)
	}

	// creator joins as channel admin, everyone else as plain member
	if err := s.canales.AddMiembro(ctx, &domain.CanalMiembro{
		CanalID: canal.ID, UserID: actor.ID, Rol: domain.CanalRolAdmin,
	}); err != nil {
		return nil, util.MapError(err)
	}
	for _, userID := range input.Miembros {
		if userID == actor.ID {
			continue
		}
		if err := s.canales.AddMiembro(ctx, &domain.CanalMiembro{
			CanalID: canal.ID, UserID: userID, Rol: domain.CanalRolMiembro,
		}); err != nil {
			return nil, util.MapError(err)
		}
	}

	miembros, err := s.canales.ListMiembros(ctx, canal.ID)
	if err != nil {
		return nil, util.MapError(err)
	}
	canal.Miembros = miembros
	return canal, nil
}

// AbrirDirecto returns the direct conversation between the actor and another
// user, creating it on first use.
func (s *chatService) AbrirDirecto(ctx context.Context, otherUserID string, actor *domain.Profile) (*domain.Canal, error) {
	if actor == nil {
		return nil, util.NewUnauthorized("se requiere sesion")
	}
	if otherUserID == actor.ID {
		return nil, util.NewValidationError("no puedes abrir un directo contigo mismo", nil)
	}
	other, err := s.profiles.GetByID(ctx, otherUserID)
	if err != nil {
		return nil, util.MapError(err)
	}

	canal, err := s.canales.FindDirecto(ctx, actor.ID, otherUserID)
	if err == nil {
		canal.Miembros, err = s.canales.ListMiembros(ctx, canal.ID)
		if err != nil {
			return nil, util.MapError(err)
		}
		return canal, nil
	}

	canal = &domain.Canal{
		Nombre:    other.Nombre,
		Tipo:      domain.CanalTipoDirecto,
		CreadoPor: &actor.ID,
	}
	if err := s.canales.Create(ctx, canal); err != nil {
		return nil, util.MapError(err)
	}
	for _, userID := range []string{actor.ID, otherUserID} {
		if err := s.canales.AddMiembro(ctx, &domain.CanalMiembro{
			CanalID: canal.ID, UserID: userID, Rol: domain.CanalRolMiembro,
		}); err != nil {
			return nil, util.MapError(err)
		}
	}
	canal.Miembros, err = s.canales.ListMiembros(ctx, canal.ID)
	if err != nil {
		return nil, util.MapError(err)
	}
	return canal, nil
}

func (s *chatService) ListCanales(ctx context.Context, actor *domain.Profile) ([]domain.Canal, error) {
	if actor == nil {
		return nil, util.NewUnauthorized("se requiere sesion")
	}
	canales, err := s.canales.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, util.MapError(err)
	}
	for i := range canales {
		miembros, err := s.canales.ListMiembros(ctx, canales[i].ID)
		if err != nil {
			return nil, util.MapError(err)
		}
		canales[i].Miembros = miembros
	}
	return canales, nil
}

// ActualizarCanal renames or re-describes a channel and optionally replaces
// its member list. The caller always survives a replacement so a channel admin
// cannot lock themselves out by omission.
func (s *chatService) ActualizarCanal(ctx context.Context, canalID string, input ActualizarCanalInput, actor *domain.Profile) (*domain.Canal, error) {
	canal, err := s.canales.GetByID(ctx, canalID)
	if err != nil {
		return nil, util.MapError(err)
	}
	if canal.Tipo == domain.CanalTipoDirecto {
		return nil, util.NewValidationError("un directo no se puede editar", nil)
	}
	if err := s.requireCanalAdmin(ctx, canal, actor); err != nil {
		return nil, err
	}

	if input.Nombre != nil {
		nombre := strings.TrimSpace(*input.Nombre)
		if nombre == "" {
			return nil, util.NewValidationError("nombre es obligatorio", nil)
		}
		if !strings.EqualFold(nombre, canal.Nombre) {
			exists, err := s.canales.NombreExists(ctx, nombre)
			if err != nil {
				return nil, util.MapError(err)
			}
			if exists {
				return nil, util.NewConflict("ya existe un canal con ese nombre", nil)
			}
		}
		canal.Nombre = nombre
	}
	if input.Descripcion != nil {
		canal.Descripcion = input.Descripcion
	}
	if err := s.canales.Update(ctx, canal); err != nil {
		return nil, util.MapError(err)
	}

	if input.Miembros != nil {
		actuales, err := s.canales.ListMiembros(ctx, canal.ID)
		if err != nil {
			return nil, util.MapError(err)
		}
		deseados := map[string]bool{actor.ID: true}
		for _, userID := range *input.Miembros {
			deseados[userID] = true
		}
		for _, m := range actuales {
			if deseados[m.UserID] {
				delete(deseados, m.UserID)
				continue
			}
			if err := s.canales.RemoveMiembro(ctx, canal.ID, m.UserID); err != nil {
				return nil, util.MapError(err)
			}
		}
		for userID := range deseados {
			if _, err := s.profiles.GetByID(ctx, userID); err != nil {
				return nil, util.MapError(err)
			}
			if err := s.canales.AddMiembro(ctx, &domain.CanalMiembro{
				CanalID: canal.ID, UserID: userID, Rol: domain.CanalRolMiembro,
			}); err != nil {
				return nil, util.MapError(err)
			}
		}
	}

	canal.Miembros, err = s.canales.ListMiembros(ctx, canal.ID)
	if err != nil {
		return nil, util.MapError(err)
	}
	return canal, nil
}

func (s *chatService) AddMiembro(ctx context.Context, canalID, userID string, actor *domain.Profile) error {
	canal, err := s.canales.GetByID(ctx, canalID)
	if err != nil {
		return util.MapError(err)
	}
	if canal.Tipo == domain.CanalTipoDirecto {
		return util.NewValidationError("no se pueden agregar miembros a un directo", nil)
	}
	if err := s.requireCanalAdmin(ctx, canal, actor); err != nil {
		return err
	}
	if _, err := s.profiles.GetByID(ctx, userID); err != nil {
		return util.MapError(err)
	}
	return util.MapError(s.canales.AddMiembro(ctx, &domain.CanalMiembro{
		CanalID: canalID, UserID: userID, Rol: domain.CanalRolMiembro,
	}))
}

func (s *chatService) RemoveMiembro(ctx context.Context, canalID, userID string, actor *domain.Profile) error {
	canal, err := s.canales.GetByID(ctx, canalID)
	if err != nil {
		return util.MapError(err)
	}
	if canal.Tipo == domain.CanalTipoDirecto {
		return util.NewValidationError("no se pueden quitar miembros de un directo", nil)
	}
	// anyone may leave; removing someone else takes channel admin
	if actor == nil || userID != actor.ID {
		if err := s.requireCanalAdmin(ctx, canal, actor); err != nil {
			return err
		}
	}
	return util.MapError(s.canales.RemoveMiembro(ctx, canalID, userID))
}

// EliminarCanal drops the channel, its messages and their stored attachments.
func (s *chatService) EliminarCanal(ctx context.Context, canalID string, actor *domain.Profile) error {
	canal, err := s.canales.GetByID(ctx, canalID)
	if err != nil {
		return util.MapError(err)
	}
	if err := s.requireCanalAdmin(ctx, canal, actor); err != nil {
		return err
	}

	archivos, err := s.mensajes.ListArchivosByCanal(ctx, canalID)
	if err != nil {
		return util.MapError(err)
	}
	if len(archivos) > 0 {
		paths := make([]string, 0, len(archivos))
		for _, a := range archivos {
			paths = append(paths, a.StoragePath)
		}
		if err := s.store.Remove(ctx, s.bucket, paths); err != nil {
			s.logger.Warn("chat storage cleanup failed", zap.String("canal_id", canalID), zap.Error(err))
		}
	}
	return util.MapError(s.canales.Delete(ctx, canalID))
}

func (s *chatService) EnviarMensaje(ctx context.Context, input EnviarMensajeInput, actor *domain.Profile) (*domain.Mensaje, error) {
	validos := make([]UploadFile, 0, len(input.Archivos))
	for _, file := range input.Archivos {
		if motivo := checkUploadFile(file); motivo != "" {
			s.logger.Warn("chat archivo rechazado",
				zap.String("nombre", file.Nombre),
				zap.String("motivo", motivo),
			)
			continue
		}
		validos = append(validos, file)
	}
	// rejected files do not count towards a non-empty message
	if strings.TrimSpace(input.Contenido) == "" && len(validos) == 0 {
		return nil, util.NewValidationError("el mensaje no puede estar vacio", nil)
	}
	if err := s.requireMiembro(ctx, input.CanalID, actor); err != nil {
		return nil, err
	}

	mensaje := &domain.Mensaje{
		CanalID:     input.CanalID,
		UserID:      actor.ID,
		Contenido:   input.Contenido,
		TicketRefID: input.TicketRefID,
	}
	if err := s.mensajes.Create(ctx, mensaje); err != nil {
		return nil, util.MapError(err)
	}

	for _, file := range validos {
		path := storage.ObjectPath("chat", input.CanalID, file.Nombre, s.now())
		contentType := file.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		if err := s.store.Upload(ctx, s.bucket, path, file.Contenido, contentType); err != nil {
			s.logger.Warn("chat archivo upload failed",
				zap.String("mensaje_id", mensaje.ID),
				zap.String("nombre", file.Nombre),
				zap.Error(err),
			)
			continue
		}
		archivo := domain.MensajeArchivo{
			MensajeID:      mensaje.ID,
			NombreOriginal: file.Nombre,
			StoragePath:    path,
			MimeType:       contentType,
			Tamanio:        int64(len(file.Contenido)),
		}
		if err := s.mensajes.CreateArchivo(ctx, &archivo); err != nil {
			s.logger.Warn("chat archivo row failed", zap.String("path", path), zap.Error(err))
			continue
		}
		mensaje.Archivos = append(mensaje.Archivos, archivo)
	}
	return mensaje, nil
}

func (s *chatService) ListMensajes(ctx context.Context, input ListarMensajesInput, actor *domain.Profile) ([]domain.Mensaje, error) {
	if err := s.requireMiembro(ctx, input.CanalID, actor); err != nil {
		return nil, err
	}
	limit := input.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	mensajes, err := s.mensajes.ListByCanal(ctx, input.CanalID, limit, input.Before)
	if err != nil {
		return nil, util.MapError(err)
	}
	if len(mensajes) == 0 {
		return mensajes, nil
	}

	ids := make([]string, 0, len(mensajes))
	for _, m := range mensajes {
		ids = append(ids, m.ID)
	}
	archivos, err := s.mensajes.ListArchivosByMensajes(ctx, ids)
	if err != nil {
		return nil, util.MapError(err)
	}
	byMensaje := map[string][]domain.MensajeArchivo{}
	for _, a := range archivos {
		url, err := s.store.SignedURL(ctx, s.bucket, a.StoragePath, s.signedTTL)
		if err != nil {
			s.logger.Warn("signed url failed", zap.String("path", a.StoragePath), zap.Error(err))
			url = ""
		}
		a.URL = url
		byMensaje[a.MensajeID] = append(byMensaje[a.MensajeID], a)
	}
	for i := range mensajes {
		mensajes[i].Archivos = byMensaje[mensajes[i].ID]
	}
	return mensajes, nil
}

func (s *chatService) EditarMensaje(ctx context.Context, mensajeID, contenido string, actor *domain.Profile) (*domain.Mensaje, error) {
	if strings.TrimSpace(contenido) == "" {
		return nil, util.NewValidationError("el mensaje no puede estar vacio", nil)
	}
	mensaje, err := s.mensajes.GetByID(ctx, mensajeID)
	if err != nil {
		return nil, util.MapError(err)
	}
	if actor == nil || mensaje.UserID != actor.ID {
		return nil, util.NewForbidden("solo el autor puede editar el mensaje")
	}
	if err := s.mensajes.UpdateContenido(ctx, mensajeID, contenido); err != nil {
		return nil, util.MapError(err)
	}
	mensaje.Contenido = contenido
	mensaje.Editado = true
	return mensaje, nil
}

func (s *chatService) AnclarMensaje(ctx context.Context, mensajeID string, anclado bool, actor *domain.Profile) error {
	mensaje, err := s.mensajes.GetByID(ctx, mensajeID)
	if err != nil {
		return util.MapError(err)
	}
	if err := s.requireMiembro(ctx, mensaje.CanalID, actor); err != nil {
		return err
	}
	return util.MapError(s.mensajes.SetAnclado(ctx, mensajeID, anclado))
}

func (s *chatService) EliminarMensaje(ctx context.Context, mensajeID string, actor *domain.Profile) error {
	mensaje, err := s.mensajes.GetByID(ctx, mensajeID)
	if err != nil {
		return util.MapError(err)
	}
	owner := actor != nil && mensaje.UserID == actor.ID
	if !owner && !actor.IsAdmin() {
		return util.NewForbidden("no puedes eliminar mensajes de otro usuario")
	}

	archivos, err := s.mensajes.ListArchivosByMensajes(ctx, []string{mensajeID})
	if err != nil {
		return util.MapError(err)
	}
	if len(archivos) > 0 {
		paths := make([]string, 0, len(archivos))
		for _, a := range archivos {
			paths = append(paths, a.StoragePath)
		}
		if err := s.store.Remove(ctx, s.bucket, paths); err != nil {
			s.logger.Warn("chat storage cleanup failed", zap.String("mensaje_id", mensajeID), zap.Error(err))
		}
	}
	return util.MapError(s.mensajes.Delete(ctx, mensajeID))
}

func (s *chatService) requireMiembro(ctx context.Context, canalID string, actor *domain.Profile) error {
	if actor == nil {
		return util.NewUnauthorized("se requiere sesion")
	}
	ok, err := s.canales.IsMiembro(ctx, canalID, actor.ID)
	if err != nil {
		return util.MapError(err)
	}
	if !ok {
		return util.NewForbidden("no eres miembro de este canal")
	}
	return nil
}

// requireCanalAdmin passes for channel admins and for global admins.
func (s *chatService) requireCanalAdmin(ctx context.Context, canal *domain.Canal, actor *domain.Profile) error {
	if actor == nil {
		return util.NewUnauthorized("se requiere sesion")
	}
	if actor.IsAdmin() {
		return nil
	}
	miembros, err := s.canales.ListMiembros(ctx, canal.ID)
	if err != nil {
		return util.MapError(err)
	}
	for _, m := range miembros {
		if m.UserID == actor.ID && m.Rol == domain.CanalRolAdmin {
			return nil
		}
	}
	return util.NewForbidden("se requiere rol de administrador del canal")
}
