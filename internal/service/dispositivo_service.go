package service

import (
	"context"
	"strings"

	"github.com/holainformatica/soporte-backend/internal/domain"
	"github.com/holainformatica/soporte-backend/internal/repository"
	"github.com/holainformatica/soporte-backend/pkg/util"
)

// DispositivoInput carries dispositivo create/update fields.
type DispositivoInput struct {
	EmpresaID   string
	Nombre      string
	Tipo        *string
	Categoria   *string
	IP          *string
	NumeroSerie *string
	Notas       *string
}

// DispositivoService manages the devices registered per empresa.
type DispositivoService interface {
	Create(ctx context.Context, input DispositivoInput) (*domain.Dispositivo, error)
	Update(ctx context.Context, id string, input DispositivoInput) (*domain.Dispositivo, error)
	Get(ctx context.Context, id string) (*domain.Dispositivo, error)
	List(ctx context.Context, empresaID *string) ([]domain.Dispositivo, error)
	Delete(ctx context.Context, id string, actor *domain.Profile) error
}

type dispositivoService struct {
	dispositivos repository.DispositivoRepository
	empresas     repository.EmpresaRepository
}

// NewDispositivoService wires the service.
func NewDispositivoService(
	dispositivos repository.DispositivoRepository,
	empresas repository.EmpresaRepository,
) DispositivoService {
	return &dispositivoService{dispositivos: dispositivos, empresas: empresas}
}

func (s *dispositivoService) Create(ctx context.Context, input DispositivoInput) (*domain.Dispositivo, error) {
	if strings.TrimSpace(input.Nombre) == "" {
		return nil, util.NewValidationError("nombre es obligatorio", nil)
	}
	if _, err := s.empresas.GetByID(ctx, input.EmpresaID); err != nil {
		return nil, util.MapError(err)
	}
	dispositivo := &domain.Dispositivo{
		EmpresaID:   input.EmpresaID,
		Nombre:      input.Nombre,
		Tipo:        input.Tipo,
		Categoria:   input.Categoria,
		IP:          input.IP,
		NumeroSerie: input.NumeroSerie,
		Notas:       input.Notas,
	}
	if err := s.dispositivos.Create(ctx, dispositivo); err != nil {
		return nil, util.MapError(err)
	}
	return dispositivo, nil
}

func (s *dispositivoService) Update(ctx context.Context, id string, input DispositivoInput) (*domain.Dispositivo, error) {
	dispositivo, err := s.dispositivos.GetByID(ctx, id)
	if err != nil {
		return nil, util.MapError(err)
	}
	if strings.TrimSpace(input.Nombre) != "" {
		dispositivo.Nombre = input.Nombre
	}
	if input.EmpresaID != "" && input.EmpresaID != dispositivo.EmpresaID {
		if _, err := s.empresas.GetByID(ctx, input.EmpresaID); err != nil {
			return nil, util.MapError(err)
		}
		dispositivo.EmpresaID = input.EmpresaID
	}
	if input.Tipo != nil {
		dispositivo.Tipo = input.Tipo
	}
	if input.Categoria != nil {
		dispositivo.Categoria = input.Categoria
	}
	if input.IP != nil {
		dispositivo.IP = input.IP
	}
	if input.NumeroSerie != nil {
		dispositivo.NumeroSerie = input.NumeroSerie
	}
	if input.Notas != nil {
		dispositivo.Notas = input.Notas
	}
	if err := s.dispositivos.Update(ctx, dispositivo); err != nil {
		return nil, util.MapError(err)
	}
	return dispositivo, nil
}

func (s *dispositivoService) Get(ctx context.Context, id string) (*domain.Dispositivo, error) {
	dispositivo, err := s.dispositivos.GetByID(ctx, id)
	if err != nil {
		return nil, util.MapError(err)
	}
	return dispositivo, nil
}

func (s *dispositivoService) List(ctx context.Context, empresaID *string) ([]domain.Dispositivo, error) {
	dispositivos, err := s.dispositivos.List(ctx, empresaID)
	if err != nil {
		return nil, util.MapError(err)
	}
	return dispositivos, nil
}

func (s *dispositivoService) Delete(ctx context.Context, id string, actor *domain.Profile) error {
	if !actor.IsAdmin() {
		return util.NewForbidden("solo un administrador puede eliminar dispositivos")
	}
	if _, err := s.dispositivos.GetByID(ctx, id); err != nil {
		return util.MapError(err)
	}
	return util.MapError(s.dispositivos.Delete(ctx, id))
}
