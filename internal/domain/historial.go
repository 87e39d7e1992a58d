package domain

import "time"

// TipoHistorial tags what kind of action a historial entry records.
type TipoHistorial string

const (
	HistorialCreacion      TipoHistorial = "creacion"
	HistorialEstado        TipoHistorial = "estado"
	HistorialPrioridad     TipoHistorial = "prioridad"
	HistorialAsignacion    TipoHistorial = "asignacion"
	HistorialDesasignacion TipoHistorial = "desasignacion"
	HistorialComentario    TipoHistorial = "comentario"
	HistorialArchivo       TipoHistorial = "archivo"
	HistorialHoras         TipoHistorial = "horas"
	HistorialNotaInterna   TipoHistorial = "nota_interna"
)

// HistorialEntry is an immutable, append-only audit record for one
// ticket-affecting action. UserID is nil for system-generated entries.
// Entries are never updated or deleted except by cascade when the parent
// ticket is removed.
type HistorialEntry struct {
	ID          string
	TicketID    string
	UserID      *string
	Tipo        TipoHistorial
	Descripcion string
	Datos       map[string]any
	CreatedAt   time.Time

	// NombreUsuario is resolved at read time from profiles; "Sistema" when
	// no user is attached.
	NombreUsuario string
}
