package dto

import (
	"time"

	"github.com/holainformatica/soporte-backend/internal/domain"
)

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the fresh session.
type LoginResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Usuario   UsuarioResponse `json:"usuario"`
}

// CreateUsuarioRequest payload.
type CreateUsuarioRequest struct {
	Nombre   string     `json:"nombre" validate:"required,max=200"`
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password" validate:"required,min=8"`
	Rol      domain.Rol `json:"rol" validate:"omitempty,oneof=admin trabajador"`
}

// UpdateUsuarioRequest is a partial update.
type UpdateUsuarioRequest struct {
	Nombre   *string     `json:"nombre" validate:"omitempty,max=200"`
	Email    *string     `json:"email" validate:"omitempty,email"`
	Password *string     `json:"password" validate:"omitempty,min=8"`
	Rol      *domain.Rol `json:"rol" validate:"omitempty,oneof=admin trabajador"`
	Activo   *bool       `json:"activo"`
}

// UsuarioResponse is the account view; the password hash never leaves the
// service.
type UsuarioResponse struct {
	ID        string     `json:"id"`
	Nombre    string     `json:"nombre"`
	Email     string     `json:"email"`
	Rol       domain.Rol `json:"rol"`
	Activo    bool       `json:"activo"`
	CreatedAt time.Time  `json:"created_at"`
}

// UsuarioFromDomain maps a profile onto the wire shape.
func UsuarioFromDomain(p *domain.Profile) UsuarioResponse {
	return UsuarioResponse{
		ID:        p.ID,
		Nombre:    p.Nombre,
		Email:     p.Email,
		Rol:       p.Rol,
		Activo:    p.Activo,
		CreatedAt: p.CreatedAt,
	}
}
