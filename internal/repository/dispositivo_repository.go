package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/holainformatica/soporte-backend/internal/domain"
)

// DispositivoRepository persists devices belonging to empresas.
type DispositivoRepository interface {
	Create(ctx context.Context, dispositivo *domain.Dispositivo) error
	Update(ctx context.Context, dispositivo *domain.Dispositivo) error
	GetByID(ctx context.Context, id string) (*domain.Dispositivo, error)
	List(ctx context.Context, empresaID *string) ([]domain.Dispositivo, error)
	Delete(ctx context.Context, id string) error
}

type dispositivoRepository struct {
	pool *pgxpool.Pool
}

// NewDispositivoRepository instantiates repository.
func NewDispositivoRepository(pool *pgxpool.Pool) DispositivoRepository {
	return &dispositivoRepository{pool: pool}
}

func (r *dispositivoRepository) Create(ctx context.Context, dispositivo *domain.Dispositivo) error {
	const query = `
        INSERT INTO dispositivos (empresa_id, nombre, tipo, categoria, ip, numero_serie, notas)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		dispositivo.EmpresaID,
		dispositivo.Nombre,
		dispositivo.Tipo,
		dispositivo.Categoria,
		dispositivo.IP,
		dispositivo.NumeroSerie,
		dispositivo.Notas,
	).Scan(&dispositivo.ID, &dispositivo.CreatedAt)
}

func (r *dispositivoRepository) Update(ctx context.Context, dispositivo *domain.Dispositivo) error {
	const query = `
        UPDATE dispositivos SET empresa_id=$1, nombre=$2, tipo=$3, categoria=$4, ip=$5, numero_serie=$6, notas=$7
        WHERE id=$8`
	cmd, err := r.pool.Exec(ctx, query,
		dispositivo.EmpresaID,
		dispositivo.Nombre,
		dispositivo.Tipo,
		dispositivo.Categoria,
		dispositivo.IP,
		dispositivo.NumeroSerie,
		dispositivo.Notas,
		dispositivo.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *dispositivoRepository) GetByID(ctx context.Context, id string) (*domain.Dispositivo, error) {
	const query = `
        SELECT id, empresa_id, nombre, tipo, categoria, ip, numero_serie, notas, created_at
        FROM dispositivos WHERE id=$1`
	var dispositivo domain.Dispositivo
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&dispositivo.ID,
		&dispositivo.EmpresaID,
		&dispositivo.Nombre,
		&dispositivo.Tipo,
		&dispositivo.Categoria,
		&dispositivo.IP,
		&dispositivo.NumeroSerie,
		&dispositivo.Notas,
		&dispositivo.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &dispositivo, nil
}

func (r *dispositivoRepository) List(ctx context.Context, empresaID *string) ([]domain.Dispositivo, error) {
	query := `
        SELECT id, empresa_id, nombre, tipo, categoria, ip, numero_serie, notas, created_at
        FROM dispositivos`
	args := []any{}
	if empresaID != nil {
		query += ` WHERE empresa_id=$1`
		args = append(args, *empresaID)
	}
	query += ` ORDER BY nombre ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Dispositivo
	for rows.Next() {
		var dispositivo domain.Dispositivo
		if err := rows.Scan(
			&dispositivo.ID,
			&dispositivo.EmpresaID,
			&dispositivo.Nombre,
			&dispositivo.Tipo,
			&dispositivo.Categoria,
			&dispositivo.IP,
			&dispositivo.NumeroSerie,
			&dispositivo.Notas,
			&dispositivo.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, dispositivo)
	}
	return result, rows.Err()
}

func (r *dispositivoRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM dispositivos WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
