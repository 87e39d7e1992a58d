package dto

import (
	"time"

	"github.com/holainformatica/soporte-backend/internal/domain"
	"github.com/holainformatica/soporte-backend/internal/service"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	EmpresaID     string            `json:"empresa_id" validate:"required,uuid4"`
	DispositivoID *string           `json:"dispositivo_id" validate:"omitempty,uuid4"`
	Asunto        string            `json:"asunto" validate:"required,max=200"`
	Descripcion   *string           `json:"descripcion"`
	Prioridad     *domain.Prioridad `json:"prioridad"`
	Estado        *domain.Estado    `json:"estado"`
	Asignados     []string          `json:"asignados" validate:"omitempty,dive,uuid4"`
}

// UpdateTicketRequest is a partial update; absent fields keep their value.
type UpdateTicketRequest struct {
	Asunto        *string           `json:"asunto" validate:"omitempty,max=200"`
	Descripcion   *string           `json:"descripcion"`
	Prioridad     *domain.Prioridad `json:"prioridad"`
	Estado        *domain.Estado    `json:"estado"`
	DispositivoID *string           `json:"dispositivo_id" validate:"omitempty,uuid4"`
}

// UpdateNotasRequest payload.
type UpdateNotasRequest struct {
	Notas *string `json:"notas"`
}

// NotaInternaRequest payload.
type NotaInternaRequest struct {
	Contenido string `json:"contenido" validate:"required"`
}

// AsignarRequest payload.
type AsignarRequest struct {
	Operarios []string `json:"operarios" validate:"required,min=1,dive,uuid4"`
}

// RegistrarHorasRequest payload.
type RegistrarHorasRequest struct {
	Horas       float64    `json:"horas" validate:"required,gt=0"`
	Descripcion *string    `json:"descripcion"`
	Fecha       *time.Time `json:"fecha"`
}

// ComentarioRequest payload for creating or editing a comment.
type ComentarioRequest struct {
	Contenido string `json:"contenido"`
}

// AsignadoResponse is one assigned operario.
type AsignadoResponse struct {
	UserID string `json:"user_id"`
	Nombre string `json:"nombre"`
}

// EmpresaRef is the nested empresa view on a ticket.
type EmpresaRef struct {
	ID     string `json:"id"`
	Nombre string `json:"nombre"`
}

// DispositivoRef is the nested dispositivo view on a ticket.
type DispositivoRef struct {
	ID     string  `json:"id"`
	Nombre string  `json:"nombre"`
	Tipo   *string `json:"tipo"`
}

// TicketResponse is the annotated listing/detail shape.
type TicketResponse struct {
	ID                 string             `json:"id"`
	Numero             int64              `json:"numero"`
	EmpresaID          string             `json:"empresa_id"`
	Empresa            *EmpresaRef        `json:"empresa,omitempty"`
	DispositivoID      *string            `json:"dispositivo_id"`
	Dispositivo        *DispositivoRef    `json:"dispositivo,omitempty"`
	Asunto             string             `json:"asunto"`
	Descripcion        *string            `json:"descripcion"`
	Notas              *string            `json:"notas"`
	Prioridad          domain.Prioridad   `json:"prioridad"`
	Estado             domain.Estado      `json:"estado"`
	Asignados          []AsignadoResponse `json:"asignados"`
	HorasRegistradas   float64            `json:"horas_registradas"`
	HorasTranscurridas float64            `json:"horas_transcurridas"`
	CreatedAt          time.Time          `json:"created_at"`
	StartedAt          *time.Time         `json:"started_at"`
	CompletedAt        *time.Time         `json:"completed_at"`
	InvoicedAt         *time.Time         `json:"invoiced_at"`
}

// HoraLogResponse is one time log row.
type HoraLogResponse struct {
	ID          string    `json:"id"`
	TicketID    string    `json:"ticket_id"`
	UserID      string    `json:"user_id"`
	Horas       float64   `json:"horas"`
	Descripcion *string   `json:"descripcion"`
	Fecha       time.Time `json:"fecha"`
	CreatedAt   time.Time `json:"created_at"`
}

// ArchivoResponse is attachment metadata plus a signed download URL.
type ArchivoResponse struct {
	ID             string    `json:"id"`
	NombreOriginal string    `json:"nombre_original"`
	MimeType       string    `json:"mime_type"`
	Tamanio        int64     `json:"tamanio"`
	URL            string    `json:"url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ComentarioResponse is one comment with its attachments.
type ComentarioResponse struct {
	ID        string            `json:"id"`
	TicketID  string            `json:"ticket_id"`
	UserID    string            `json:"user_id"`
	Contenido string            `json:"contenido"`
	Editado   bool              `json:"editado"`
	Archivos  []ArchivoResponse `json:"archivos"`
	CreatedAt time.Time         `json:"created_at"`
}

// HistorialResponse is one audit trail entry.
type HistorialResponse struct {
	ID            string               `json:"id"`
	Tipo          domain.TipoHistorial `json:"tipo"`
	Descripcion   string               `json:"descripcion"`
	Datos         map[string]any       `json:"datos,omitempty"`
	NombreUsuario string               `json:"nombre_usuario"`
	CreatedAt     time.Time            `json:"created_at"`
}

// TicketDetailResponse bundles the full detail view.
type TicketDetailResponse struct {
	TicketResponse
	Horas       []HoraLogResponse    `json:"horas"`
	Archivos    []ArchivoResponse    `json:"archivos"`
	Comentarios []ComentarioResponse `json:"comentarios"`
	Historial   []HistorialResponse  `json:"historial"`
}

// UploadResultResponse reports a batch upload.
type UploadResultResponse struct {
	Subidos []ArchivoResponse     `json:"subidos"`
	Fallos  []UploadFalloResponse `json:"fallos,omitempty"`
}

// UploadFalloResponse names one rejected file.
type UploadFalloResponse struct {
	Nombre string `json:"nombre"`
	Motivo string `json:"motivo"`
}

// TicketFromAnotado maps the service shape onto the wire shape.
func TicketFromAnotado(t *service.TicketAnotado) TicketResponse {
	resp := TicketResponse{
		ID:                 t.ID,
		Numero:             t.Numero,
		EmpresaID:          t.EmpresaID,
		DispositivoID:      t.DispositivoID,
		Asunto:             t.Asunto,
		Descripcion:        t.Descripcion,
		Notas:              t.Notas,
		Prioridad:          t.Prioridad,
		Estado:             t.Estado,
		Asignados:          make([]AsignadoResponse, 0, len(t.Asignados)),
		HorasRegistradas:   t.HorasRegistradas,
		HorasTranscurridas: t.HorasTranscurridas,
		CreatedAt:          t.CreatedAt,
		StartedAt:          t.StartedAt,
		CompletedAt:        t.CompletedAt,
		InvoicedAt:         t.InvoicedAt,
	}
	for _, a := range t.Asignados {
		resp.Asignados = append(resp.Asignados, AsignadoResponse{UserID: a.UserID, Nombre: a.Nombre})
	}
	if t.Empresa != nil {
		resp.Empresa = &EmpresaRef{ID: t.Empresa.ID, Nombre: t.Empresa.Nombre}
	}
	if t.Dispositivo != nil {
		resp.Dispositivo = &DispositivoRef{ID: t.Dispositivo.ID, Nombre: t.Dispositivo.Nombre, Tipo: t.Dispositivo.Tipo}
	}
	return resp
}
