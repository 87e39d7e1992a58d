package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/holainformatica/soporte-backend/internal/domain"
	"github.com/holainformatica/soporte-backend/internal/repository"
	"github.com/holainformatica/soporte-backend/pkg/util"
)

// HistorialService maintains the per-ticket audit trail. Appends are
// best-effort: a failed audit write must never abort the action it records,
// so Append logs the failure and moves on.
type HistorialService interface {
	Append(ctx context.Context, entry domain.HistorialEntry)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.HistorialEntry, error)
}

type historialService struct {
	historial repository.HistorialRepository
	profiles  repository.ProfileRepository
	logger    *zap.Logger
}

// NewHistorialService wires the service.
func NewHistorialService(
	historial repository.HistorialRepository,
	profiles repository.ProfileRepository,
	logger *zap.Logger,
) HistorialService {
	return &historialService{historial: historial, profiles: profiles, logger: logger}
}

func (s *historialService) Append(ctx context.Context, entry domain.HistorialEntry) {
	if err := s.historial.Create(ctx, &entry); err != nil {
		s.logger.Warn("historial append failed",
			zap.String("ticket_id", entry.TicketID),
			zap.String("tipo", string(entry.Tipo)),
			zap.Error(err),
		)
	}
}

// ListByTicket returns the trail oldest first, with author names resolved.
// Entries without a user (or whose author was since deleted) show "Sistema".
func (s *historialService) ListByTicket(ctx context.Context, ticketID string) ([]domain.HistorialEntry, error) {
	entries, err := s.historial.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, util.MapError(err)
	}

	ids := make([]string, 0, len(entries))
	seen := map[string]bool{}
	for _, entry := range entries {
		if entry.UserID != nil && !seen[*entry.UserID] {
			seen[*entry.UserID] = true
			ids = append(ids, *entry.UserID)
		}
	}
	names := map[string]string{}
	if len(ids) > 0 {
		profiles, err := s.profiles.GetByIDs(ctx, ids)
		if err != nil {
			return nil, util.MapError(err)
		}
		for _, p := range profiles {
			names[p.ID] = p.Nombre
		}
	}

	for i := range entries {
		entries[i].NombreUsuario = "Sistema"
		if entries[i].UserID != nil {
			if nombre, ok := names[*entries[i].UserID]; ok {
				entries[i].NombreUsuario = nombre
			}
		}
	}
	return entries, nil
}
