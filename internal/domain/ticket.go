package domain

import (
	"math"
	"time"
)

// Estado enumerates ticket lifecycle states.
type Estado string

const (
	EstadoPendiente         Estado = "Pendiente"
	EstadoEnCurso           Estado = "En curso"
	EstadoCompletado        Estado = "Completado"
	EstadoPendienteFacturar Estado = "Pendiente de facturar"
	EstadoFacturado         Estado = "Facturado"
)

// Estados lists every valid estado, in lifecycle order.
var Estados = []Estado{
	EstadoPendiente,
	EstadoEnCurso,
	EstadoCompletado,
	EstadoPendienteFacturar,
	EstadoFacturado,
}

// Valid reports whether the estado is a known value.
func (e Estado) Valid() bool {
	for _, candidate := range Estados {
		if candidate == e {
			return true
		}
	}
	return false
}

// Prioridad enumerates ticket urgency.
type Prioridad string

const (
	PrioridadUrgente Prioridad = "Urgente"
	PrioridadAlta    Prioridad = "Alta"
	PrioridadMedia   Prioridad = "Media"
	PrioridadBaja    Prioridad = "Baja"
)

// Prioridades lists every valid prioridad.
var Prioridades = []Prioridad{PrioridadUrgente, PrioridadAlta, PrioridadMedia, PrioridadBaja}

// Valid reports whether the prioridad is a known value.
func (p Prioridad) Valid() bool {
	for _, candidate := range Prioridades {
		if candidate == p {
			return true
		}
	}
	return false
}

// Ticket is the aggregate for a support request reported by an empresa.
//
// The three lifecycle timestamps are set-once: a transition into the matching
// estado stamps the field only when it is still nil, so a closed ticket keeps
// the instant of its first closure even if the estado is later moved back.
type Ticket struct {
	ID            string
	Numero        int64
	EmpresaID     string
	DispositivoID *string
	Asunto        string
	Descripcion   *string
	Notas         *string
	Prioridad     Prioridad
	Estado        Estado
	CreatedBy     *string
	CreatedAt     time.Time
	StartedAt     *time.Time
	CompletedAt   *time.Time
	InvoicedAt    *time.Time

	Empresa     *Empresa
	Dispositivo *Dispositivo
}

// StampTransition records the lifecycle timestamp matching the current
// estado. Each field is written only once; re-entering an estado after the
// ticket moved away keeps the original instant.
func (t *Ticket) StampTransition(now time.Time) {
	switch t.Estado {
	case EstadoEnCurso:
		if t.StartedAt == nil {
			t.StartedAt = &now
		}
	case EstadoCompletado, EstadoPendienteFacturar:
		if t.CompletedAt == nil {
			t.CompletedAt = &now
		}
	case EstadoFacturado:
		if t.InvoicedAt == nil {
			t.InvoicedAt = &now
		}
	}
}

// HorasTranscurridas returns the wall-clock hours between creation and the
// ticket's effective end, rounded to one decimal. Closed tickets freeze the
// end at their closure timestamp: invoiced_at for Facturado, completed_at for
// Completado and Pendiente de facturar. Open tickets keep counting against
// now.
func (t *Ticket) HorasTranscurridas(now time.Time) float64 {
	if t.CreatedAt.IsZero() {
		return 0
	}
	end := now
	switch t.Estado {
	case EstadoFacturado:
		if t.InvoicedAt != nil {
			end = *t.InvoicedAt
		}
	case EstadoCompletado, EstadoPendienteFacturar:
		if t.CompletedAt != nil {
			end = *t.CompletedAt
		}
	}
	ms := end.Sub(t.CreatedAt).Milliseconds()
	horas := math.Round(float64(ms)/360000.0) / 10
	if horas < 0 {
		return 0
	}
	return horas
}

// Asignacion joins a ticket with an assigned operario.
type Asignacion struct {
	ID         string
	TicketID   string
	UserID     string
	AsignadoBy *string
	AsignadoAt time.Time
}

// HoraLog records hours one user spent on a ticket on a given date.
type HoraLog struct {
	ID          string
	TicketID    string
	UserID      string
	Horas       float64
	Descripcion *string
	Fecha       time.Time
	CreatedAt   time.Time
}

// TicketArchivo is the metadata row for a stored ticket attachment. The bytes
// live in object storage under StoragePath; NombreOriginal is display-only.
type TicketArchivo struct {
	ID             string
	TicketID       string
	NombreOriginal string
	StoragePath    string
	MimeType       string
	Tamanio        int64
	SubidoBy       *string
	CreatedAt      time.Time
}

// Comentario is a ticket comment, optionally carrying attachments.
type Comentario struct {
	ID        string
	TicketID  string
	UserID    string
	Contenido string
	Editado   bool
	CreatedAt time.Time
	Archivos  []ComentarioArchivo
}

// ComentarioArchivo is an attachment on a comment.
type ComentarioArchivo struct {
	ID             string
	ComentarioID   string
	NombreOriginal string
	StoragePath    string
	MimeType       string
	Tamanio        int64
	SubidoBy       *string
	CreatedAt      time.Time

	// URL is a signed download link filled on reads, never persisted.
	URL string
}
