package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/holainformatica/soporte-backend/internal/domain"
)

// EmpresaRepository persists client companies.
type EmpresaRepository interface {
	Create(ctx context.Context, empresa *domain.Empresa) error
	Update(ctx context.Context, empresa *domain.Empresa) error
	GetByID(ctx context.Context, id string) (*domain.Empresa, error)
	List(ctx context.Context) ([]domain.Empresa, error)
	Delete(ctx context.Context, id string) error
}

type empresaRepository struct {
	pool *pgxpool.Pool
}

// NewEmpresaRepository instantiates repository.
func NewEmpresaRepository(pool *pgxpool.Pool) EmpresaRepository {
	return &empresaRepository{pool: pool}
}

func (r *empresaRepository) Create(ctx context.Context, empresa *domain.Empresa) error {
	const query = `
        INSERT INTO empresas (nombre, cif, email, telefono, direccion, contactos)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		empresa.Nombre,
		empresa.CIF,
		empresa.Email,
		empresa.Telefono,
		empresa.Direccion,
		empresa.Contactos,
	).Scan(&empresa.ID, &empresa.CreatedAt)
}

func (r *empresaRepository) Update(ctx context.Context, empresa *domain.Empresa) error {
	const query = `
        UPDATE empresas SET nombre=$1, cif=$2, email=$3, telefono=$4, direccion=$5, contactos=$6
        WHERE id=$7`
	cmd, err := r.pool.Exec(ctx, query,
		empresa.Nombre,
		empresa.CIF,
		empresa.Email,
		empresa.Telefono,
		empresa.Direccion,
		empresa.Contactos,
		empresa.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *empresaRepository) GetByID(ctx context.Context, id string) (*domain.Empresa, error) {
	const query = `
        SELECT id, nombre, cif, email, telefono, direccion, contactos, created_at
        FROM empresas WHERE id=$1`
	var empresa domain.Empresa
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&empresa.ID,
		&empresa.Nombre,
		&empresa.CIF,
		&empresa.Email,
		&empresa.Telefono,
		&empresa.Direccion,
		&empresa.Contactos,
		&empresa.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &empresa, nil
}

func (r *empresaRepository) List(ctx context.Context) ([]domain.Empresa, error) {
	const query = `
        SELECT id, nombre, cif, email, telefono, direccion, contactos, created_at
        FROM empresas ORDER BY nombre ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Empresa
	for rows.Next() {
		var empresa domain.Empresa
		if err := rows.Scan(
			&empresa.ID,
			&empresa.Nombre,
			&empresa.CIF,
			&empresa.Email,
			&empresa.Telefono,
			&empresa.Direccion,
			&empresa.Contactos,
			&empresa.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, empresa)
	}
	return result, rows.Err()
}

func (r *empresaRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM empresas WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
