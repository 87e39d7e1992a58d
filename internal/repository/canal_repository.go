package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/holainformatica/soporte-backend/internal/domain"
)

// CanalRepository persists chat channels and membership.
type CanalRepository interface {
	Create(ctx context.Context, canal *domain.Canal) error
	GetByID(ctx context.Context, id string) (*domain.Canal, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Canal, error)
	Update(ctx context.Context, canal *domain.Canal) error
	Delete(ctx context.Context, id string) error
	NombreExists(ctx context.Context, nombre string) (bool, error)

	AddMiembro(ctx context.Context, miembro *domain.CanalMiembro) error
	RemoveMiembro(ctx context.Context, canalID, userID string) error
	ListMiembros(ctx context.Context, canalID string) ([]domain.CanalMiembro, error)
	IsMiembro(ctx context.Context, canalID, userID string) (bool, error)
	FindDirecto(ctx context.Context, userA, userB string) (*domain.Canal, error)
}

type canalRepository struct {
	pool *pgxpool.Pool
}

// NewCanalRepository instantiates repository.
func NewCanalRepository(pool *pgxpool.Pool) CanalRepository {
	return &canalRepository{pool: pool}
}

func (r *canalRepository) Create(ctx context.Context, canal *domain.Canal) error {
	const query = `
        INSERT INTO chat_canales (nombre, descripcion, tipo, creado_por)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		canal.Nombre,
		canal.Descripcion,
		canal.Tipo,
		canal.CreadoPor,
	).Scan(&canal.ID, &canal.CreatedAt)
}

func (r *canalRepository) GetByID(ctx context.Context, id string) (*domain.Canal, error) {
	const query = `
        SELECT id, nombre, descripcion, tipo, creado_por, created_at
        FROM chat_canales WHERE id=$1`
	var canal domain.Canal
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&canal.ID,
		&canal.Nombre,
		&canal.Descripcion,
		&canal.Tipo,
		&canal.CreadoPor,
		&canal.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &canal, nil
}

func (r *canalRepository) ListByUser(ctx context.Context, userID string) ([]domain.Canal, error) {
	const query = `
        SELECT c.id, c.nombre, c.descripcion, c.tipo, c.creado_por, c.created_at
        FROM chat_canales c
        JOIN chat_canal_miembros m ON m.canal_id = c.id
        WHERE m.user_id=$1
        ORDER BY c.created_at ASC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Canal
	for rows.Next() {
		var canal domain.Canal
		if err := rows.Scan(
			&canal.ID,
			&canal.Nombre,
			&canal.Descripcion,
			&canal.Tipo,
			&canal.CreadoPor,
			&canal.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, canal)
	}
	return result, rows.Err()
}

func (r *canalRepository) Update(ctx context.Context, canal *domain.Canal) error {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE chat_canales SET nombre=$2, descripcion=$3 WHERE id=$1`,
		canal.ID, canal.Nombre, canal.Descripcion)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *canalRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM chat_canales WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// NombreExists checks named channels only; direct conversations reuse the
// other user's name and never collide.
func (r *canalRepository) NombreExists(ctx context.Context, nombre string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM chat_canales WHERE tipo='canal' AND lower(nombre)=lower($1))`,
		nombre,
	).Scan(&exists)
	return exists, err
}

func (r *canalRepository) AddMiembro(ctx context.Context, miembro *domain.CanalMiembro) error {
	const query = `
        INSERT INTO chat_canal_miembros (canal_id, user_id, rol)
        VALUES ($1,$2,$3)
        ON CONFLICT (canal_id, user_id) DO NOTHING`
	_, err := r.pool.Exec(ctx, query, miembro.CanalID, miembro.UserID, miembro.Rol)
	return err
}

func (r *canalRepository) RemoveMiembro(ctx context.Context, canalID, userID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM chat_canal_miembros WHERE canal_id=$1 AND user_id=$2`, canalID, userID)
	return err
}

func (r *canalRepository) ListMiembros(ctx context.Context, canalID string) ([]domain.CanalMiembro, error) {
	const query = `
        SELECT canal_id, user_id, rol, joined_at
        FROM chat_canal_miembros WHERE canal_id=$1 ORDER BY joined_at ASC`
	rows, err := r.pool.Query(ctx, query, canalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.CanalMiembro
	for rows.Next() {
		var miembro domain.CanalMiembro
		if err := rows.Scan(&miembro.CanalID, &miembro.UserID, &miembro.Rol, &miembro.JoinedAt); err != nil {
			return nil, err
		}
		result = append(result, miembro)
	}
	return result, rows.Err()
}

func (r *canalRepository) IsMiembro(ctx context.Context, canalID, userID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM chat_canal_miembros WHERE canal_id=$1 AND user_id=$2)`,
		canalID, userID,
	).Scan(&exists)
	return exists, err
}

// FindDirecto looks for an existing two-person direct channel between the
// given users. Returns pgx.ErrNoRows when none exists.
func (r *canalRepository) FindDirecto(ctx context.Context, userA, userB string) (*domain.Canal, error) {
	const query = `
        SELECT c.id, c.nombre, c.descripcion, c.tipo, c.creado_por, c.created_at
        FROM chat_canales c
        WHERE c.tipo='directo'
          AND EXISTS (SELECT 1 FROM chat_canal_miembros WHERE canal_id=c.id AND user_id=$1)
          AND EXISTS (SELECT 1 FROM chat_canal_miembros WHERE canal_id=c.id AND user_id=$2)
        LIMIT 1`
	var canal domain.Canal
	if err := r.pool.QueryRow(ctx, query, userA, userB).Scan(
		&canal.ID,
		&canal.Nombre,
		&canal.Descripcion,
		&canal.Tipo,
		&canal.CreadoPor,
		&canal.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &canal, nil
}
