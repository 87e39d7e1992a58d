package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/holainformatica/soporte-backend/internal/domain"
)

// ComentarioRepository persists ticket comments and their attachments.
type ComentarioRepository interface {
	Create(ctx context.Context, comentario *domain.Comentario) error
	GetByID(ctx context.Context, id string) (*domain.Comentario, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Comentario, error)
	UpdateContenido(ctx context.Context, id, contenido string) error
	Delete(ctx context.Context, id string) error

	CreateArchivo(ctx context.Context, archivo *domain.ComentarioArchivo) error
	ListArchivosByComentarios(ctx context.Context, comentarioIDs []string) ([]domain.ComentarioArchivo, error)
	ListArchivosByTicket(ctx context.Context, ticketID string) ([]domain.ComentarioArchivo, error)
}

type comentarioRepository struct {
	pool *pgxpool.Pool
}

// NewComentarioRepository instantiates repository.
func NewComentarioRepository(pool *pgxpool.Pool) ComentarioRepository {
	return &comentarioRepository{pool: pool}
}

func (r *comentarioRepository) Create(ctx context.Context, comentario *domain.Comentario) error {
	const query = `
        INSERT INTO ticket_comentarios (ticket_id, user_id, contenido)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		comentario.TicketID,
		comentario.UserID,
		comentario.Contenido,
	).Scan(&comentario.ID, &comentario.CreatedAt)
}

func (r *comentarioRepository) GetByID(ctx context.Context, id string) (*domain.Comentario, error) {
	const query = `
        SELECT id, ticket_id, user_id, contenido, editado, created_at
        FROM ticket_comentarios WHERE id=$1`
	var comentario domain.Comentario
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&comentario.ID,
		&comentario.TicketID,
		&comentario.UserID,
		&comentario.Contenido,
		&comentario.Editado,
		&comentario.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &comentario, nil
}

func (r *comentarioRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Comentario, error) {
	const query = `
        SELECT id, ticket_id, user_id, contenido, editado, created_at
        FROM ticket_comentarios WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Comentario
	for rows.Next() {
		var comentario domain.Comentario
		if err := rows.Scan(
			&comentario.ID,
			&comentario.TicketID,
			&comentario.UserID,
			&comentario.Contenido,
			&comentario.Editado,
			&comentario.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, comentario)
	}
	return result, rows.Err()
}

func (r *comentarioRepository) UpdateContenido(ctx context.Context, id, contenido string) error {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE ticket_comentarios SET contenido=$1, editado=TRUE WHERE id=$2`, contenido, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *comentarioRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM ticket_comentarios WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *comentarioRepository) CreateArchivo(ctx context.Context, archivo *domain.ComentarioArchivo) error {
	const query = `
        INSERT INTO ticket_comentario_archivos (comentario_id, nombre_original, storage_path, mime_type, tamanio)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		archivo.ComentarioID,
		archivo.NombreOriginal,
		archivo.StoragePath,
		archivo.MimeType,
		archivo.Tamanio,
	).Scan(&archivo.ID, &archivo.CreatedAt)
}

func (r *comentarioRepository) ListArchivosByComentarios(ctx context.Context, comentarioIDs []string) ([]domain.ComentarioArchivo, error) {
	if len(comentarioIDs) == 0 {
		return nil, nil
	}
	const query = `
        SELECT id, comentario_id, nombre_original, storage_path, mime_type, tamanio, created_at
        FROM ticket_comentario_archivos WHERE comentario_id = ANY($1)`
	rows, err := r.pool.Query(ctx, query, comentarioIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComentarioArchivos(rows)
}

// ListArchivosByTicket returns every comment attachment of the ticket. Used
// when deleting a ticket to clean object storage first.
func (r *comentarioRepository) ListArchivosByTicket(ctx context.Context, ticketID string) ([]domain.ComentarioArchivo, error) {
	const query = `
        SELECT a.id, a.comentario_id, a.nombre_original, a.storage_path, a.mime_type, a.tamanio, a.created_at
        FROM ticket_comentario_archivos a
        JOIN ticket_comentarios c ON c.id = a.comentario_id
        WHERE c.ticket_id=$1`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComentarioArchivos(rows)
}

func scanComentarioArchivos(rows pgx.Rows) ([]domain.ComentarioArchivo, error) {
	var result []domain.ComentarioArchivo
	for rows.Next() {
		var archivo domain.ComentarioArchivo
		if err := rows.Scan(
			&archivo.ID,
			&archivo.ComentarioID,
			&archivo.NombreOriginal,
			&archivo.StoragePath,
			&archivo.MimeType,
			&archivo.Tamanio,
			&archivo.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, archivo)
	}
	return result, rows.Err()
}
