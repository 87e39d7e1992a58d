package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/holainformatica/soporte-backend/internal/auth"
	"github.com/holainformatica/soporte-backend/internal/domain"
	"github.com/holainformatica/soporte-backend/internal/repository"
	"github.com/holainformatica/soporte-backend/pkg/util"
)

// CreateUsuarioInput registers a new staff account.
type CreateUsuarioInput struct {
	Nombre   string
	Email    string
	Password string
	Rol      domain.Rol
}

// UpdateUsuarioInput partially updates an account. Nil fields keep their
// value; a non-nil Password replaces the stored hash.
type UpdateUsuarioInput struct {
	Nombre   *string
	Email    *string
	Password *string
	Rol      *domain.Rol
	Activo   *bool
}

// UsuarioService is admin-facing account management. Listing operarios is
// available to any authenticated user since tickets are assigned from that
// list.
type UsuarioService interface {
	Create(ctx context.Context, input CreateUsuarioInput, actor *domain.Profile) (*domain.Profile, error)
	Update(ctx context.Context, id string, input UpdateUsuarioInput, actor *domain.Profile) (*domain.Profile, error)
	List(ctx context.Context, actor *domain.Profile) ([]domain.Profile, error)
	ListOperarios(ctx context.Context) ([]domain.Profile, error)
	Delete(ctx context.Context, id string, actor *domain.Profile) error
}

type usuarioService struct {
	profiles   repository.ProfileRepository
	bcryptCost int
}

// NewUsuarioService wires the service.
func NewUsuarioService(profiles repository.ProfileRepository, bcryptCost int) UsuarioService {
	return &usuarioService{profiles: profiles, bcryptCost: bcryptCost}
}

func (s *usuarioService) Create(ctx context.Context, input CreateUsuarioInput, actor *domain.Profile) (*domain.Profile, error) {
	if !actor.IsAdmin() {
		return nil, util.NewForbidden("se requiere rol de administrador")
	}
	if strings.TrimSpace(input.Nombre) == "" || strings.TrimSpace(input.Email) == "" {
		return nil, util.NewValidationError("nombre y email son obligatorios", nil)
	}
	if len(input.Password) < 8 {
		return nil, util.NewValidationError("la password debe tener al menos 8 caracteres", nil)
	}
	rol := input.Rol
	if rol == "" {
		rol = domain.RolTrabajador
	}
	if rol != domain.RolAdmin && rol != domain.RolTrabajador {
		return nil, util.NewValidationError("rol no valido", map[string]any{"rol": rol})
	}

	if _, err := s.profiles.GetByEmail(ctx, input.Email); err == nil {
		return nil, util.NewConflict("ya existe un usuario con ese email", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, util.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, util.NewInternalError(err)
	}
	profile := &domain.Profile{
		Nombre:       input.Nombre,
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		Rol:          rol,
		Activo:       true,
		PasswordHash: hash,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, util.MapError(err)
	}
	return profile, nil
}

func (s *usuarioService) Update(ctx context.Context, id string, input UpdateUsuarioInput, actor *domain.Profile) (*domain.Profile, error) {
	if !actor.IsAdmin() {
		return nil, util.NewForbidden("se requiere rol de administrador")
	}
	profile, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, util.MapError(err)
	}

	if input.Nombre != nil && strings.TrimSpace(*input.Nombre) != "" {
		profile.Nombre = *input.Nombre
	}
	if input.Email != nil && strings.TrimSpace(*input.Email) != "" {
		profile.Email = strings.ToLower(strings.TrimSpace(*input.Email))
	}
	if input.Rol != nil {
		if *input.Rol != domain.RolAdmin && *input.Rol != domain.RolTrabajador {
			return nil, util.NewValidationError("rol no valido", map[string]any{"rol": *input.Rol})
		}
		profile.Rol = *input.Rol
	}
	if input.Activo != nil {
		// an admin cannot lock themselves out
		if !*input.Activo && profile.ID == actor.ID {
			return nil, util.NewValidationError("no puedes desactivar tu propia cuenta", nil)
		}
		profile.Activo = *input.Activo
	}
	if input.Password != nil {
		if len(*input.Password) < 8 {
			return nil, util.NewValidationError("la password debe tener al menos 8 caracteres", nil)
		}
		hash, err := auth.HashPassword(*input.Password, s.bcryptCost)
		if err != nil {
			return nil, util.NewInternalError(err)
		}
		profile.PasswordHash = hash
	}

	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, util.MapError(err)
	}
	return profile, nil
}

func (s *usuarioService) List(ctx context.Context, actor *domain.Profile) ([]domain.Profile, error) {
	if !actor.IsAdmin() {
		return nil, util.NewForbidden("se requiere rol de administrador")
	}
	profiles, err := s.profiles.List(ctx)
	if err != nil {
		return nil, util.MapError(err)
	}
	return profiles, nil
}

// ListOperarios returns active accounts, for assignment pickers.
func (s *usuarioService) ListOperarios(ctx context.Context) ([]domain.Profile, error) {
	profiles, err := s.profiles.List(ctx)
	if err != nil {
		return nil, util.MapError(err)
	}
	activos := profiles[:0]
	for _, p := range profiles {
		if p.Activo {
			activos = append(activos, p)
		}
	}
	return activos, nil
}

func (s *usuarioService) Delete(ctx context.Context, id string, actor *domain.Profile) error {
	if !actor.IsAdmin() {
		return util.NewForbidden("se requiere rol de administrador")
	}
	if id == actor.ID {
		return util.NewValidationError("no puedes eliminar tu propia cuenta", nil)
	}
	return util.MapError(s.profiles.Delete(ctx, id))
}
