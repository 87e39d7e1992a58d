package service

import (
	"context"
	"strings"

	"github.com/holainformatica/soporte-backend/internal/domain"
	"github.com/holainformatica/soporte-backend/internal/repository"
	"github.com/holainformatica/soporte-backend/pkg/util"
)

// EmpresaInput carries empresa create/update fields.
type EmpresaInput struct {
	Nombre    string
	CIF       string
	Email     *string
	Telefono  *string
	Direccion *string
	Contactos *string
}

// EmpresaService manages client companies.
type EmpresaService interface {
	Create(ctx context.Context, input EmpresaInput) (*domain.Empresa, error)
	Update(ctx context.Context, id string, input EmpresaInput) (*domain.Empresa, error)
	Get(ctx context.Context, id string) (*domain.Empresa, error)
	List(ctx context.Context) ([]domain.Empresa, error)
	Delete(ctx context.Context, id string, actor *domain.Profile) error
}

type empresaService struct {
	empresas repository.EmpresaRepository
	tickets  repository.TicketRepository
}

// NewEmpresaService wires the service.
func NewEmpresaService(empresas repository.EmpresaRepository, tickets repository.TicketRepository) EmpresaService {
	return &empresaService{empresas: empresas, tickets: tickets}
}

func (s *empresaService) Create(ctx context.Context, input EmpresaInput) (*domain.Empresa, error) {
	if strings.TrimSpace(input.Nombre) == "" {
		return nil, util.NewValidationError("nombre es obligatorio", nil)
	}
	if strings.TrimSpace(input.CIF) == "" {
		return nil, util.NewValidationError("cif es obligatorio", nil)
	}
	empresa := &domain.Empresa{
		Nombre:    input.Nombre,
		CIF:       input.CIF,
		Email:     input.Email,
		Telefono:  input.Telefono,
		Direccion: input.Direccion,
		Contactos: input.Contactos,
	}
	if err := s.empresas.Create(ctx, empresa); err != nil {
		return nil, util.MapError(err)
	}
	return empresa, nil
}

func (s *empresaService) Update(ctx context.Context, id string, input EmpresaInput) (*domain.Empresa, error) {
	empresa, err := s.empresas.GetByID(ctx, id)
	if err != nil {
		return nil, util.MapError(err)
	}
	if strings.TrimSpace(input.Nombre) != "" {
		empresa.Nombre = input.Nombre
	}
	if strings.TrimSpace(input.CIF) != "" {
		empresa.CIF = input.CIF
	}
	if input.Email != nil {
		empresa.Email = input.Email
	}
	if input.Telefono != nil {
		empresa.Telefono = input.Telefono
	}
	if input.Direccion != nil {
		empresa.Direccion = input.Direccion
	}
	if input.Contactos != nil {
		empresa.Contactos = input.Contactos
	}
	if err := s.empresas.Update(ctx, empresa); err != nil {
		return nil, util.MapError(err)
	}
	return empresa, nil
}

func (s *empresaService) Get(ctx context.Context, id string) (*domain.Empresa, error) {
	empresa, err := s.empresas.GetByID(ctx, id)
	if err != nil {
		return nil, util.MapError(err)
	}
	return empresa, nil
}

func (s *empresaService) List(ctx context.Context) ([]domain.Empresa, error) {
	empresas, err := s.empresas.List(ctx)
	if err != nil {
		return nil, util.MapError(err)
	}
	return empresas, nil
}

// Delete refuses while the empresa still has tickets; history must be
// removed or reassigned first.
func (s *empresaService) Delete(ctx context.Context, id string, actor *domain.Profile) error {
	if !actor.IsAdmin() {
		return util.NewForbidden("solo un administrador puede eliminar empresas")
	}
	if _, err := s.empresas.GetByID(ctx, id); err != nil {
		return util.MapError(err)
	}
	tickets, err := s.tickets.List(ctx, repository.TicketFilter{EmpresaID: &id})
	if err != nil {
		return util.MapError(err)
	}
	if len(tickets) > 0 {
		return util.NewConflict("la empresa tiene tickets asociados", map[string]any{"tickets": len(tickets)})
	}
	return util.MapError(s.empresas.Delete(ctx, id))
}
