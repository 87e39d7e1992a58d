package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/holainformatica/soporte-backend/internal/domain"
)

// MensajeRepository persists chat messages and their attachments.
type MensajeRepository interface {
	Create(ctx context.Context, mensaje *domain.Mensaje) error
	GetByID(ctx context.Context, id string) (*domain.Mensaje, error)
	ListByCanal(ctx context.Context, canalID string, limit int, before *string) ([]domain.Mensaje, error)
	UpdateContenido(ctx context.Context, id, contenido string) error
	SetAnclado(ctx context.Context, id string, anclado bool) error
	Delete(ctx context.Context, id string) error

	CreateArchivo(ctx context.Context, archivo *domain.MensajeArchivo) error
	ListArchivosByMensajes(ctx context.Context, mensajeIDs []string) ([]domain.MensajeArchivo, error)
	ListArchivosByCanal(ctx context.Context, canalID string) ([]domain.MensajeArchivo, error)
}

type mensajeRepository struct {
	pool *pgxpool.Pool
}

// NewMensajeRepository instantiates repository.
func NewMensajeRepository(pool *pgxpool.Pool) MensajeRepository {
	return &mensajeRepository{pool: pool}
}

const mensajeColumns = `id, canal_id, user_id, contenido, ticket_ref_id, anclado, editado, created_at`

func (r *mensajeRepository) Create(ctx context.Context, mensaje *domain.Mensaje) error {
	const query = `
        INSERT INTO chat_mensajes (canal_id, user_id, contenido, ticket_ref_id)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		mensaje.CanalID,
		mensaje.UserID,
		mensaje.Contenido,
		mensaje.TicketRefID,
	).Scan(&mensaje.ID, &mensaje.CreatedAt)
}

func (r *mensajeRepository) GetByID(ctx context.Context, id string) (*domain.Mensaje, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+mensajeColumns+` FROM chat_mensajes WHERE id=$1`, id)
	var mensaje domain.Mensaje
	if err := row.Scan(
		&mensaje.ID,
		&mensaje.CanalID,
		&mensaje.UserID,
		&mensaje.Contenido,
		&mensaje.TicketRefID,
		&mensaje.Anclado,
		&mensaje.Editado,
		&mensaje.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &mensaje, nil
}

// ListByCanal pages backwards in time. When before is set only messages older
// than that message are returned. Results come back oldest first.
func (r *mensajeRepository) ListByCanal(ctx context.Context, canalID string, limit int, before *string) ([]domain.Mensaje, error) {
	query := `SELECT ` + mensajeColumns + ` FROM chat_mensajes WHERE canal_id=$1`
	args := []any{canalID}
	if before != nil {
		query += ` AND created_at < (SELECT created_at FROM chat_mensajes WHERE id=$2)`
		args = append(args, *before)
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		args = append(args, limit)
		if before != nil {
			query += ` LIMIT $3`
		} else {
			query += ` LIMIT $2`
		}
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Mensaje
	for rows.Next() {
		var mensaje domain.Mensaje
		if err := rows.Scan(
			&mensaje.ID,
			&mensaje.CanalID,
			&mensaje.UserID,
			&mensaje.Contenido,
			&mensaje.TicketRefID,
			&mensaje.Anclado,
			&mensaje.Editado,
			&mensaje.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, mensaje)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// reverse to chronological order
	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}
	return result, nil
}

func (r *mensajeRepository) UpdateContenido(ctx context.Context, id, contenido string) error {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE chat_mensajes SET contenido=$1, editado=TRUE WHERE id=$2`, contenido, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *mensajeRepository) SetAnclado(ctx context.Context, id string, anclado bool) error {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE chat_mensajes SET anclado=$1 WHERE id=$2`, anclado, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *mensajeRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM chat_mensajes WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *mensajeRepository) CreateArchivo(ctx context.Context, archivo *domain.MensajeArchivo) error {
	const query = `
        INSERT INTO chat_mensaje_archivos (mensaje_id, nombre_original, storage_path, mime_type, tamanio)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		archivo.MensajeID,
		archivo.NombreOriginal,
		archivo.StoragePath,
		archivo.MimeType,
		archivo.Tamanio,
	).Scan(&archivo.ID, &archivo.CreatedAt)
}

func (r *mensajeRepository) ListArchivosByMensajes(ctx context.Context, mensajeIDs []string) ([]domain.MensajeArchivo, error) {
	if len(mensajeIDs) == 0 {
		return nil, nil
	}
	const query = `
        SELECT id, mensaje_id, nombre_original, storage_path, mime_type, tamanio, created_at
        FROM chat_mensaje_archivos WHERE mensaje_id = ANY($1)`
	rows, err := r.pool.Query(ctx, query, mensajeIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMensajeArchivos(rows)
}

// ListArchivosByCanal returns every attachment in the channel. Used when a
// channel is deleted to clean object storage first.
func (r *mensajeRepository) ListArchivosByCanal(ctx context.Context, canalID string) ([]domain.MensajeArchivo, error) {
	const query = `
        SELECT a.id, a.mensaje_id, a.nombre_original, a.storage_path, a.mime_type, a.tamanio, a.created_at
        FROM chat_mensaje_archivos a
        JOIN chat_mensajes m ON m.id = a.mensaje_id
        WHERE m.canal_id=$1`
	rows, err := r.pool.Query(ctx, query, canalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMensajeArchivos(rows)
}

func scanMensajeArchivos(rows pgx.Rows) ([]domain.MensajeArchivo, error) {
	var result []domain.MensajeArchivo
	for rows.Next() {
		var archivo domain.MensajeArchivo
		if err := rows.Scan(
			&archivo.ID,
			&archivo.MensajeID,
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
