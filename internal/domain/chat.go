package domain

import "time"

// TipoCanal distinguishes open channels from direct conversations.
type TipoCanal string

const (
	CanalTipoCanal   TipoCanal = "canal"
	CanalTipoDirecto TipoCanal = "directo"
)

// RolCanal is a member's role inside a channel.
type RolCanal string

const (
	CanalRolAdmin   RolCanal = "admin"
	CanalRolMiembro RolCanal = "miembro"
)

// Canal is a chat channel.
type Canal struct {
	ID          string
	Nombre      string
	Descripcion *string
	Tipo        TipoCanal
	CreadoPor   *string
	CreatedAt   time.Time
	Miembros    []CanalMiembro
}

// CanalMiembro joins a user to a channel.
type CanalMiembro struct {
	CanalID  string
	UserID   string
	Rol      RolCanal
	JoinedAt time.Time
}

// Mensaje is one chat message, optionally referencing a ticket and carrying
// attachments.
type Mensaje struct {
	ID          string
	CanalID     string
	UserID      string
	Contenido   string
	TicketRefID *string
	Anclado     bool
	Editado     bool
	CreatedAt   time.Time
	Archivos    []MensajeArchivo
}

// MensajeArchivo is an attachment on a chat message.
type MensajeArchivo struct {
	ID             string
	MensajeID      string
	NombreOriginal string
	StoragePath    string
	MimeType       string
	Tamanio        int64
	CreatedAt      time.Time

	// URL is a signed download link filled on reads, never persisted.
	URL string
}
