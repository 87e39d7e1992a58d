package dto

import (
	"time"

	"github.com/holainformatica/soporte-backend/internal/domain"
)

// CrearCanalRequest payload.
type CrearCanalRequest struct {
	Nombre      string   `json:"nombre" validate:"required,max=100"`
	Descripcion *string  `json:"descripcion"`
	Miembros    []string `json:"miembros" validate:"omitempty,dive,uuid4"`
}

// ActualizarCanalRequest payload. Omitted fields stay as they are; a present
// miembros list replaces the membership.
type ActualizarCanalRequest struct {
	Nombre      *string   `json:"nombre" validate:"omitempty,max=100"`
	Descripcion *string   `json:"descripcion"`
	Miembros    *[]string `json:"miembros" validate:"omitempty,dive,uuid4"`
}

// AbrirDirectoRequest payload.
type AbrirDirectoRequest struct {
	UserID string `json:"user_id" validate:"required,uuid4"`
}

// CanalMiembroRequest payload for add/remove member.
type CanalMiembroRequest struct {
	UserID string `json:"user_id" validate:"required,uuid4"`
}

// EnviarMensajeRequest payload.
type EnviarMensajeRequest struct {
	Contenido   string  `json:"contenido"`
	TicketRefID *string `json:"ticket_ref_id" validate:"omitempty,uuid4"`
}

// EditarMensajeRequest payload.
type EditarMensajeRequest struct {
	Contenido string `json:"contenido" validate:"required"`
}

// AnclarMensajeRequest payload.
type AnclarMensajeRequest struct {
	Anclado bool `json:"anclado"`
}

// MiembroResponse is one channel member.
type MiembroResponse struct {
	UserID   string          `json:"user_id"`
	Rol      domain.RolCanal `json:"rol"`
	JoinedAt time.Time       `json:"joined_at"`
}

// CanalResponse is one channel with its members.
type CanalResponse struct {
	ID          string            `json:"id"`
	Nombre      string            `json:"nombre"`
	Descripcion *string           `json:"descripcion"`
	Tipo        domain.TipoCanal  `json:"tipo"`
	CreadoPor   *string           `json:"creado_por"`
	Miembros    []MiembroResponse `json:"miembros"`
	CreatedAt   time.Time         `json:"created_at"`
}

// MensajeResponse is one chat message.
type MensajeResponse struct {
	ID          string            `json:"id"`
	CanalID     string            `json:"canal_id"`
	UserID      string            `json:"user_id"`
	Contenido   string            `json:"contenido"`
	TicketRefID *string           `json:"ticket_ref_id"`
	Anclado     bool              `json:"anclado"`
	Editado     bool              `json:"editado"`
	Archivos    []ArchivoResponse `json:"archivos"`
	CreatedAt   time.Time         `json:"created_at"`
}

// CanalFromDomain maps a channel onto the wire shape.
func CanalFromDomain(canal *domain.Canal) CanalResponse {
	miembros := make([]MiembroResponse, 0, len(canal.Miembros))
	for _, m := range canal.Miembros {
		miembros = append(miembros, MiembroResponse{UserID: m.UserID, Rol: m.Rol, JoinedAt: m.JoinedAt})
	}
	return CanalResponse{
		ID:          canal.ID,
		Nombre:      canal.Nombre,
		Descripcion: canal.Descripcion,
		Tipo:        canal.Tipo,
		CreadoPor:   canal.CreadoPor,
		Miembros:    miembros,
		CreatedAt:   canal.CreatedAt,
	}
}

// MensajeFromDomain maps a message onto the wire shape.
func MensajeFromDomain(mensaje *domain.Mensaje) MensajeResponse {
	archivos := make([]ArchivoResponse, 0, len(mensaje.Archivos))
	for _, a := range mensaje.Archivos {
		archivos = append(archivos, ArchivoResponse{
			ID:             a.ID,
			NombreOriginal: a.NombreOriginal,
			MimeType:       a.MimeType,
			Tamanio:        a.Tamanio,
			URL:            a.URL,
			CreatedAt:      a.CreatedAt,
		})
	}
	return MensajeResponse{
		ID:          mensaje.ID,
		CanalID:     mensaje.CanalID,
		UserID:      mensaje.UserID,
		Contenido:   mensaje.Contenido,
		TicketRefID: mensaje.TicketRefID,
		Anclado:     mensaje.Anclado,
		Editado:     mensaje.Editado,
		Archivos:    archivos,
		CreatedAt:   mensaje.CreatedAt,
	}
}
