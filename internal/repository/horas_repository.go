package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/holainformatica/soporte-backend/internal/domain"
)

// HorasRepository persists per-user hour logs.
type HorasRepository interface {
	Create(ctx context.Context, log *domain.HoraLog) error
	GetByID(ctx context.Context, id string) (*domain.HoraLog, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.HoraLog, error)
	ListByTickets(ctx context.Context, ticketIDs []string) ([]domain.HoraLog, error)
	Delete(ctx context.Context, id string) error
}

type horasRepository struct {
	pool *pgxpool.Pool
}

// NewHorasRepository instantiates repository.
func NewHorasRepository(pool *pgxpool.Pool) HorasRepository {
	return &horasRepository{pool: pool}
}

func (r *horasRepository) Create(ctx context.Context, log *domain.HoraLog) error {
	const query = `
        INSERT INTO ticket_horas (ticket_id, user_id, horas, descripcion, fecha)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		log.TicketID,
		log.UserID,
		log.Horas,
		log.Descripcion,
		log.Fecha,
	).Scan(&log.ID, &log.CreatedAt)
}

func (r *horasRepository) GetByID(ctx context.Context, id string) (*domain.HoraLog, error) {
	const query = `
        SELECT id, ticket_id, user_id, horas, descripcion, fecha, created_at
        FROM ticket_horas WHERE id=$1`
	var log domain.HoraLog
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&log.ID, &log.TicketID, &log.UserID, &log.Horas, &log.Descripcion, &log.Fecha, &log.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *horasRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.HoraLog, error) {
	const query = `
        SELECT id, ticket_id, user_id, horas, descripcion, fecha, created_at
        FROM ticket_horas WHERE ticket_id=$1 ORDER BY fecha ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanHoraLogs(rows)
}

func (r *horasRepository) ListByTickets(ctx context.Context, ticketIDs []string) ([]domain.HoraLog, error) {
	if len(ticketIDs) == 0 {
		return nil, nil
	}
	const query = `
        SELECT id, ticket_id, user_id, horas, descripcion, fecha, created_at
        FROM ticket_horas WHERE ticket_id = ANY($1)`
	rows, err := r.pool.Query(ctx, query, ticketIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanHoraLogs(rows)
}

func (r *horasRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM ticket_horas WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanHoraLogs(rows pgx.Rows) ([]domain.HoraLog, error) {
	var result []domain.HoraLog
	for rows.Next() {
		var log domain.HoraLog
		if err := rows.Scan(
			&log.ID, &log.TicketID, &log.UserID, &log.Horas, &log.Descripcion, &log.Fecha, &log.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, log)
	}
	return result, rows.Err()
}
