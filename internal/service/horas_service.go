package service

import (
	"context"
	"fmt"
	"time"

	"github.com/holainformatica/soporte-backend/internal/domain"
	"github.com/holainformatica/soporte-backend/internal/repository"
	"github.com/holainformatica/soporte-backend/pkg/util"
)

// RegistrarHorasInput logs time spent on a ticket.
type RegistrarHorasInput struct {
	TicketID    string
	Horas       float64
	Descripcion *string
	Fecha       *time.Time
}

// HorasService manages per-ticket time logs.
type HorasService interface {
	Registrar(ctx context.Context, input RegistrarHorasInput, actor *domain.Profile) (*domain.HoraLog, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.HoraLog, error)
	Delete(ctx context.Context, id string, actor *domain.Profile) error
}

type horasService struct {
	horas     repository.HorasRepository
	tickets   repository.TicketRepository
	historial HistorialService
	now       func() time.Time
}

// NewHorasService wires the service.
func NewHorasService(
	horas repository.HorasRepository,
	tickets repository.TicketRepository,
	historial HistorialService,
) HorasService {
	return &horasService{horas: horas, tickets: tickets, historial: historial, now: time.Now}
}

func (s *horasService) Registrar(ctx context.Context, input RegistrarHorasInput, actor *domain.Profile) (*domain.HoraLog, error) {
	if input.Horas <= 0 {
		return nil, util.NewValidationError("las horas deben ser mayores que cero", map[string]any{"horas": input.Horas})
	}
	if actor == nil {
		return nil, util.NewUnauthorized("se requiere sesion")
	}
	if _, err := s.tickets.GetByID(ctx, input.TicketID); err != nil {
		return nil, util.MapError(err)
	}

	fecha := s.now()
	if input.Fecha != nil {
		fecha = *input.Fecha
	}
	log := &domain.HoraLog{
		TicketID:    input.TicketID,
		UserID:      actor.ID,
		Horas:       input.Horas,
		Descripcion: input.Descripcion,
		Fecha:       fecha,
	}
	if err := s.horas.Create(ctx, log); err != nil {
		return nil, util.MapError(err)
	}

	s.historial.Append(ctx, domain.HistorialEntry{
		TicketID:    input.TicketID,
		UserID:      &actor.ID,
		Tipo:        domain.HistorialHoras,
		Descripcion: fmt.Sprintf("%s registro %.1f horas", actor.Nombre, input.Horas),
		Datos:       map[string]any{"horas": input.Horas},
	})
	return log, nil
}

func (s *horasService) ListByTicket(ctx context.Context, ticketID string) ([]domain.HoraLog, error) {
	logs, err := s.horas.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, util.MapError(err)
	}
	return logs, nil
}

// Delete removes a time log. Only its author or an admin may do so.
func (s *horasService) Delete(ctx context.Context, id string, actor *domain.Profile) error {
	log, err := s.horas.GetByID(ctx, id)
	if err != nil {
		return util.MapError(err)
	}
	if actor == nil || (log.UserID != actor.ID && !actor.IsAdmin()) {
		return util.NewForbidden("no puedes eliminar horas de otro usuario")
	}
	if err := s.horas.Delete(ctx, id); err != nil {
		return util.MapError(err)
	}

	s.historial.Append(ctx, domain.HistorialEntry{
		TicketID:    log.TicketID,
		UserID:      &actor.ID,
		Tipo:        domain.HistorialHoras,
		Descripcion: fmt.Sprintf("Registro de %.1f horas eliminado", log.Horas),
		Datos:       map[string]any{"horas": log.Horas, "eliminado": true},
	})
	return nil
}
