package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/holainformatica/soporte-backend/internal/domain"
	"github.com/holainformatica/soporte-backend/internal/mail"
	"github.com/holainformatica/soporte-backend/internal/repository"
	"github.com/holainformatica/soporte-backend/pkg/util"
)

// AsignacionService manages which operarios work a ticket.
type AsignacionService interface {
	Assign(ctx context.Context, ticketID string, userIDs []string, actor *domain.Profile) error
	Unassign(ctx context.Context, ticketID, userID string, actor *domain.Profile) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Asignacion, error)
}

type asignacionService struct {
	tickets      repository.TicketRepository
	asignaciones repository.AsignacionRepository
	profiles     repository.ProfileRepository
	historial    HistorialService
	mailer       mail.Mailer
	logger       *zap.Logger
}

// NewAsignacionService wires the service.
func NewAsignacionService(
	tickets repository.TicketRepository,
	asignaciones repository.AsignacionRepository,
	profiles repository.ProfileRepository,
	historial HistorialService,
	mailer mail.Mailer,
	logger *zap.Logger,
) AsignacionService {
	return &asignacionService{
		tickets:      tickets,
		asignaciones: asignaciones,
		profiles:     profiles,
		historial:    historial,
		mailer:       mailer,
		logger:       logger,
	}
}

// Assign adds operarios to a ticket. Assignment is idempotent: users already
// assigned are silently kept, and only genuinely new assignees get a historial
// entry and a notification email. Email delivery is per-recipient; one failed
// send never blocks the others nor the assignment itself.
func (s *asignacionService) Assign(ctx context.Context, ticketID string, userIDs []string, actor *domain.Profile) error {
	if len(userIDs) == 0 {
		return util.NewValidationError("se requiere al menos un operario", nil)
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return util.MapError(err)
	}

	existing, err := s.asignaciones.ListByTicket(ctx, ticketID)
	if err != nil {
		return util.MapError(err)
	}
	assigned := map[string]bool{}
	for _, a := range existing {
		assigned[a.UserID] = true
	}

	var nuevos []string
	rows := make([]domain.Asignacion, 0, len(userIDs))
	for _, userID := range userIDs {
		rows = append(rows, domain.Asignacion{
			TicketID:   ticketID,
			UserID:     userID,
			AsignadoBy: actorID(actor),
		})
		if !assigned[userID] {
			nuevos = append(nuevos, userID)
		}
	}
	if err := s.asignaciones.Upsert(ctx, rows); err != nil {
		return util.MapError(err)
	}
	if len(nuevos) == 0 {
		return nil
	}

	perfiles, err := s.profiles.GetByIDs(ctx, nuevos)
	if err != nil {
		s.logger.Warn("could not load assigned profiles", zap.Error(err))
		perfiles = nil
	}
	byID := map[string]domain.Profile{}
	for _, p := range perfiles {
		byID[p.ID] = p
	}

	empresaNombre := ""
	if ticket.Empresa != nil {
		empresaNombre = ticket.Empresa.Nombre
	}

	for _, userID := range nuevos {
		nombre := userID
		if p, ok := byID[userID]; ok {
			nombre = p.Nombre
		}
		s.historial.Append(ctx, domain.HistorialEntry{
			TicketID:    ticketID,
			UserID:      actorID(actor),
			Tipo:        domain.HistorialAsignacion,
			Descripcion: fmt.Sprintf("Ticket asignado a %s", nombre),
			Datos:       map[string]any{"user_id": userID},
		})

		p, ok := byID[userID]
		if !ok || p.Email == "" {
			continue
		}
		if err := s.mailer.SendAsignacion(p.Email, p.Nombre, ticket, empresaNombre); err != nil {
			s.logger.Warn("asignacion email failed",
				zap.String("ticket_id", ticketID),
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}
	}
	return nil
}

// Unassign removes one operario. Removing someone who was not assigned is a
// no-op and leaves no historial trace.
func (s *asignacionService) Unassign(ctx context.Context, ticketID, userID string, actor *domain.Profile) error {
	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		return util.MapError(err)
	}
	existing, err := s.asignaciones.ListByTicket(ctx, ticketID)
	if err != nil {
		return util.MapError(err)
	}
	present := false
	for _, a := range existing {
		if a.UserID == userID {
			present = true
			break
		}
	}
	if !present {
		return nil
	}

	if err := s.asignaciones.Delete(ctx, ticketID, userID); err != nil {
		return util.MapError(err)
	}

	nombre := userID
	if p, err := s.profiles.GetByID(ctx, userID); err == nil {
		nombre = p.Nombre
	}
	s.historial.Append(ctx, domain.HistorialEntry{
		TicketID:    ticketID,
		UserID:      actorID(actor),
		Tipo:        domain.HistorialDesasignacion,
		Descripcion: fmt.Sprintf("Asignacion de %s eliminada", nombre),
		Datos:       map[string]any{"user_id": userID},
	})
	return nil
}

func (s *asignacionService) ListByTicket(ctx context.Context, ticketID string) ([]domain.Asignacion, error) {
	asignaciones, err := s.asignaciones.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, util.MapError(err)
	}
	return asignaciones, nil
}

func actorID(actor *domain.Profile) *string {
	if actor == nil {
		return nil
	}
	return &actor.ID
}
