package domain

import "time"

// Rol enumerates staff roles.
type Rol string

const (
	RolAdmin      Rol = "admin"
	RolTrabajador Rol = "trabajador"
)

// Profile is a staff account. Inactive profiles are refused at the auth
// boundary; admin role gates destructive and reporting operations.
type Profile struct {
	ID           string
	Nombre       string
	Email        string
	Rol          Rol
	Activo       bool
	PasswordHash string
	CreatedAt    time.Time
}

// IsAdmin reports whether the profile carries the admin role.
func (p *Profile) IsAdmin() bool {
	return p != nil && p.Rol == RolAdmin
}
