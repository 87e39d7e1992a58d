package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/holainformatica/soporte-backend/internal/domain"
)

// HistorialRepository stores the append-only audit trail. Entries are never
// updated or deleted here; deletion only happens by cascade with the ticket.
type HistorialRepository interface {
	Create(ctx context.Context, entry *domain.HistorialEntry) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.HistorialEntry, error)
}

type historialRepository struct {
	pool *pgxpool.Pool
}

// NewHistorialRepository builds repository.
func NewHistorialRepository(pool *pgxpool.Pool) HistorialRepository {
	return &historialRepository{pool: pool}
}

func (r *historialRepository) Create(ctx context.Context, entry *domain.HistorialEntry) error {
	const query = `
        INSERT INTO ticket_historial (ticket_id, user_id, tipo, descripcion, datos)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.TicketID,
		entry.UserID,
		entry.Tipo,
		entry.Descripcion,
		entry.Datos,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *historialRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.HistorialEntry, error) {
	const query = `
        SELECT id, ticket_id, user_id, tipo, descripcion, datos, created_at
        FROM ticket_historial WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.HistorialEntry
	for rows.Next() {
		var entry domain.HistorialEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.UserID,
			&entry.Tipo,
			&entry.Descripcion,
			&entry.Datos,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
