package dto

import (
	"time"

	"github.com/holainformatica/soporte-backend/internal/domain"
)

// EmpresaRequest payload for create/update.
type EmpresaRequest struct {
	Nombre    string  `json:"nombre" validate:"required,max=200"`
	CIF       string  `json:"cif" validate:"required,max=20"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Telefono  *string `json:"telefono"`
	Direccion *string `json:"direccion"`
	Contactos *string `json:"contactos"`
}

// EmpresaResponse is the full empresa view.
type EmpresaResponse struct {
	ID        string    `json:"id"`
	Nombre    string    `json:"nombre"`
	CIF       string    `json:"cif"`
	Email     *string   `json:"email"`
	Telefono  *string   `json:"telefono"`
	Direccion *string   `json:"direccion"`
	Contactos *string   `json:"contactos"`
	CreatedAt time.Time `json:"created_at"`
}

// DispositivoRequest payload for create/update.
type DispositivoRequest struct {
	EmpresaID   string  `json:"empresa_id" validate:"required,uuid4"`
	Nombre      string  `json:"nombre" validate:"required,max=200"`
	Tipo        *string `json:"tipo"`
	Categoria   *string `json:"categoria"`
	IP          *string `json:"ip" validate:"omitempty,ip"`
	NumeroSerie *string `json:"numero_serie"`
	Notas       *string `json:"notas"`
}

// DispositivoResponse is the full dispositivo view.
type DispositivoResponse struct {
	ID          string    `json:"id"`
	EmpresaID   string    `json:"empresa_id"`
	Nombre      string    `json:"nombre"`
	Tipo        *string   `json:"tipo"`
	Categoria   *string   `json:"categoria"`
	IP          *string   `json:"ip"`
	NumeroSerie *string   `json:"numero_serie"`
	Notas       *string   `json:"notas"`
	CreatedAt   time.Time `json:"created_at"`
}

// EmpresaFromDomain maps an empresa onto the wire shape.
func EmpresaFromDomain(e *domain.Empresa) EmpresaResponse {
	return EmpresaResponse{
		ID:        e.ID,
		Nombre:    e.Nombre,
		CIF:       e.CIF,
		Email:     e.Email,
		Telefono:  e.Telefono,
		Direccion: e.Direccion,
		Contactos: e.Contactos,
		CreatedAt: e.CreatedAt,
	}
}

// DispositivoFromDomain maps a dispositivo onto the wire shape.
func DispositivoFromDomain(d *domain.Dispositivo) DispositivoResponse {
	return DispositivoResponse{
		ID:          d.ID,
		EmpresaID:   d.EmpresaID,
		Nombre:      d.Nombre,
		Tipo:        d.Tipo,
		Categoria:   d.Categoria,
		IP:          d.IP,
		NumeroSerie: d.NumeroSerie,
		Notas:       d.Notas,
		CreatedAt:   d.CreatedAt,
	}
}
