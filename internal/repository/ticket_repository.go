package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/holainformatica/soporte-backend/internal/domain"
)

// TicketFilter captures listado query parameters. Estado/prioridad/empresa
// and date bounds are pushed into SQL; operario and free-text search are
// applied by the service after annotation.
type TicketFilter struct {
	Estado    *domain.Estado
	Prioridad *domain.Prioridad
	EmpresaID *string
	Desde     *time.Time
	Hasta     *time.Time
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Delete(ctx context.Context, id string) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `
        t.id, t.numero, t.empresa_id, t.dispositivo_id, t.asunto, t.descripcion, t.notas,
        t.prioridad, t.estado, t.created_by, t.created_at, t.started_at, t.completed_at, t.invoiced_at,
        e.id, e.nombre, d.id, d.nombre, d.tipo`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (empresa_id, dispositivo_id, asunto, descripcion, notas, prioridad, estado, created_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, numero, created_at`
	return r.pool.QueryRow(ctx, query,
		ticket.EmpresaID,
		ticket.DispositivoID,
		ticket.Asunto,
		ticket.Descripcion,
		ticket.Notas,
		ticket.Prioridad,
		ticket.Estado,
		ticket.CreatedBy,
	).Scan(&ticket.ID, &ticket.Numero, &ticket.CreatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET asunto=$1, descripcion=$2, notas=$3, prioridad=$4, estado=$5,
            dispositivo_id=$6, started_at=$7, completed_at=$8, invoiced_at=$9
        WHERE id=$10`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Asunto,
		ticket.Descripcion,
		ticket.Notas,
		ticket.Prioridad,
		ticket.Estado,
		ticket.DispositivoID,
		ticket.StartedAt,
		ticket.CompletedAt,
		ticket.InvoicedAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `
        SELECT ` + ticketColumns + `
        FROM tickets t
        LEFT JOIN empresas e ON e.id = t.empresa_id
        LEFT JOIN dispositivos d ON d.id = t.dispositivo_id
        WHERE t.id=$1`
	row := r.pool.QueryRow(ctx, query, id)
	ticket, err := scanTicket(row)
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Estado != nil {
		args = append(args, *filter.Estado)
		clauses = append(clauses, fmt.Sprintf("t.estado=$%d", len(args)))
	}
	if filter.Prioridad != nil {
		args = append(args, *filter.Prioridad)
		clauses = append(clauses, fmt.Sprintf("t.prioridad=$%d", len(args)))
	}
	if filter.EmpresaID != nil {
		args = append(args, *filter.EmpresaID)
		clauses = append(clauses, fmt.Sprintf("t.empresa_id=$%d", len(args)))
	}
	if filter.Desde != nil {
		args = append(args, *filter.Desde)
		clauses = append(clauses, fmt.Sprintf("t.created_at >= $%d", len(args)))
	}
	if filter.Hasta != nil {
		args = append(args, *filter.Hasta)
		clauses = append(clauses, fmt.Sprintf("t.created_at <= $%d", len(args)))
	}

	query := `
        SELECT ` + ticketColumns + `
        FROM tickets t
        LEFT JOIN empresas e ON e.id = t.empresa_id
        LEFT JOIN dispositivos d ON d.id = t.dispositivo_id
        WHERE ` + strings.Join(clauses, " AND ") + `
        ORDER BY t.created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		ticket            domain.Ticket
		empresaID         *string
		empresaNombre     *string
		dispositivoID     *string
		dispositivoNombre *string
		dispositivoTipo   *string
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.Numero,
		&ticket.EmpresaID,
		&ticket.DispositivoID,
		&ticket.Asunto,
		&ticket.Descripcion,
		&ticket.Notas,
		&ticket.Prioridad,
		&ticket.Estado,
		&ticket.CreatedBy,
		&ticket.CreatedAt,
		&ticket.StartedAt,
		&ticket.CompletedAt,
		&ticket.InvoicedAt,
		&empresaID,
		&empresaNombre,
		&dispositivoID,
		&dispositivoNombre,
		&dispositivoTipo,
	); err != nil {
		return nil, err
	}
	if empresaID != nil {
		ticket.Empresa = &domain.Empresa{ID: *empresaID}
		if empresaNombre != nil {
			ticket.Empresa.Nombre = *empresaNombre
		}
	}
	if dispositivoID != nil {
		ticket.Dispositivo = &domain.Dispositivo{ID: *dispositivoID, Tipo: dispositivoTipo}
		if dispositivoNombre != nil {
			ticket.Dispositivo.Nombre = *dispositivoNombre
		}
	}
	return &ticket, nil
}
