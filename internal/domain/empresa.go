package domain

import "time"

// Empresa is a client company that reports tickets.
type Empresa struct {
	ID        string
	Nombre    string
	CIF       string
	Email     *string
	Telefono  *string
	Direccion *string
	Contactos *string
	CreatedAt time.Time
}

// Dispositivo is an IT device belonging to an empresa.
type Dispositivo struct {
	ID          string
	EmpresaID   string
	Nombre      string
	Tipo        *string
	Categoria   *string
	IP          *string
	NumeroSerie *string
	Notas       *string
	CreatedAt   time.Time
}
