package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/holainformatica/soporte-backend/internal/domain"
)

// ArchivoRepository persists ticket attachment metadata. The bytes themselves
// live in object storage; storage_path is the key there.
type ArchivoRepository interface {
	Create(ctx context.Context, archivo *domain.TicketArchivo) error
	GetByID(ctx context.Context, id string) (*domain.TicketArchivo, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketArchivo, error)
	Delete(ctx context.Context, id string) error
}

type archivoRepository struct {
	pool *pgxpool.Pool
}

// NewArchivoRepository instantiates repository.
func NewArchivoRepository(pool *pgxpool.Pool) ArchivoRepository {
	return &archivoRepository{pool: pool}
}

func (r *archivoRepository) Create(ctx context.Context, archivo *domain.TicketArchivo) error {
	const query = `
        INSERT INTO ticket_archivos (ticket_id, nombre_original, storage_path, mime_type, tamanio, subido_by)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		archivo.TicketID,
		archivo.NombreOriginal,
		archivo.StoragePath,
		archivo.MimeType,
		archivo.Tamanio,
		archivo.SubidoBy,
	).Scan(&archivo.ID, &archivo.CreatedAt)
}

func (r *archivoRepository) GetByID(ctx context.Context, id string) (*domain.TicketArchivo, error) {
	const query = `
        SELECT id, ticket_id, nombre_original, storage_path, mime_type, tamanio, subido_by, created_at
        FROM ticket_archivos WHERE id=$1`
	var archivo domain.TicketArchivo
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&archivo.ID,
		&archivo.TicketID,
		&archivo.NombreOriginal,
		&archivo.StoragePath,
		&archivo.MimeType,
		&archivo.Tamanio,
		&archivo.SubidoBy,
		&archivo.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &archivo, nil
}

func (r *archivoRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketArchivo, error) {
	const query = `
        SELECT id, ticket_id, nombre_original, storage_path, mime_type, tamanio, subido_by, created_at
        FROM ticket_archivos WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketArchivo
	for rows.Next() {
		var archivo domain.TicketArchivo
		if err := rows.Scan(
			&archivo.ID,
			&archivo.TicketID,
			&archivo.NombreOriginal,
			&archivo.StoragePath,
			&archivo.MimeType,
			&archivo.Tamanio,
			&archivo.SubidoBy,
			&archivo.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, archivo)
	}
	return result, rows.Err()
}

func (r *archivoRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM ticket_archivos WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
