package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/holainformatica/soporte-backend/internal/domain"
)

// AsignacionRepository persists ticket-operario assignments. The unique
// (ticket_id, user_id) pair makes assignment idempotent via upsert.
type AsignacionRepository interface {
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Asignacion, error)
	ListByTickets(ctx context.Context, ticketIDs []string) ([]domain.Asignacion, error)
	Upsert(ctx context.Context, rows []domain.Asignacion) error
	Delete(ctx context.Context, ticketID, userID string) error
}

type asignacionRepository struct {
	pool *pgxpool.Pool
}

// NewAsignacionRepository instantiates repository.
func NewAsignacionRepository(pool *pgxpool.Pool) AsignacionRepository {
	return &asignacionRepository{pool: pool}
}

func (r *asignacionRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Asignacion, error) {
	const query = `
        SELECT id, ticket_id, user_id, asignado_by, asignado_at
        FROM ticket_asignaciones WHERE ticket_id=$1 ORDER BY asignado_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAsignaciones(rows)
}

func (r *asignacionRepository) ListByTickets(ctx context.Context, ticketIDs []string) ([]domain.Asignacion, error) {
	if len(ticketIDs) == 0 {
		return nil, nil
	}
	const query = `
        SELECT id, ticket_id, user_id, asignado_by, asignado_at
        FROM ticket_asignaciones WHERE ticket_id = ANY($1)`
	rows, err := r.pool.Query(ctx, query, ticketIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAsignaciones(rows)
}

func (r *asignacionRepository) Upsert(ctx context.Context, asignaciones []domain.Asignacion) error {
	const query = `
        INSERT INTO ticket_asignaciones (ticket_id, user_id, asignado_by)
        VALUES ($1,$2,$3)
        ON CONFLICT (ticket_id, user_id) DO NOTHING`
	for _, a := range asignaciones {
		if _, err := r.pool.Exec(ctx, query, a.TicketID, a.UserID, a.AsignadoBy); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes one assignment. Removing a non-existent assignment is not an
// error.
func (r *asignacionRepository) Delete(ctx context.Context, ticketID, userID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM ticket_asignaciones WHERE ticket_id=$1 AND user_id=$2`, ticketID, userID)
	return err
}

func scanAsignaciones(rows pgx.Rows) ([]domain.Asignacion, error) {
	var result []domain.Asignacion
	for rows.Next() {
		var a domain.Asignacion
		if err := rows.Scan(&a.ID, &a.TicketID, &a.UserID, &a.AsignadoBy, &a.AsignadoAt); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}
