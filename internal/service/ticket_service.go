package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/holainformatica/soporte-backend/internal/domain"
	"github.com/holainformatica/soporte-backend/internal/repository"
	"github.com/holainformatica/soporte-backend/internal/storage"
	"github.com/holainformatica/soporte-backend/pkg/util"
)

// AsignadoInfo is one assigned operario on a listed ticket.
type AsignadoInfo struct {
	UserID string
	Nombre string
}

// TicketAnotado is a ticket enriched with assignment and time accounting, as
// returned by listings and detail reads.
type TicketAnotado struct {
	domain.Ticket
	Asignados          []AsignadoInfo
	HorasRegistradas   float64
	HorasTranscurridas float64
}

// TicketDetalle bundles everything the detail view needs.
type TicketDetalle struct {
	TicketAnotado
	Horas       []domain.HoraLog
	Archivos    []domain.TicketArchivo
	Comentarios []domain.Comentario
	Historial   []domain.HistorialEntry
}

// ListTicketsInput extends the SQL-side filter with criteria applied after
// annotation: operario membership and free-text search over numero, asunto
// and empresa.
type ListTicketsInput struct {
	repository.TicketFilter
	OperarioID *string
	Busqueda   *string
}

// CreateTicketInput carries a new ticket request.
type CreateTicketInput struct {
	EmpresaID     string
	DispositivoID *string
	Asunto        string
	Descripcion   *string
	Prioridad     *domain.Prioridad
	Estado        *domain.Estado
	Asignados     []string
}

// UpdateTicketInput is a partial update; nil fields keep their value.
type UpdateTicketInput struct {
	Asunto        *string
	Descripcion   *string
	Prioridad     *domain.Prioridad
	Estado        *domain.Estado
	DispositivoID *string
}

// TicketService implements the ticket lifecycle.
type TicketService interface {
	List(ctx context.Context, input ListTicketsInput) ([]TicketAnotado, error)
	Get(ctx context.Context, id string) (*TicketDetalle, error)
	Create(ctx context.Context, input CreateTicketInput, actor *domain.Profile) (*domain.Ticket, error)
	Update(ctx context.Context, id string, input UpdateTicketInput, actor *domain.Profile) (*domain.Ticket, error)
	UpdateNotas(ctx context.Context, id string, notas *string, actor *domain.Profile) (*domain.Ticket, error)
	AddNotaInterna(ctx context.Context, id, contenido string, actor *domain.Profile) error
	Delete(ctx context.Context, id string, actor *domain.Profile) error
}

type ticketService struct {
	tickets      repository.TicketRepository
	asignaciones repository.AsignacionRepository
	horas        repository.HorasRepository
	archivos     repository.ArchivoRepository
	comentarios  repository.ComentarioRepository
	empresas     repository.EmpresaRepository
	profiles     repository.ProfileRepository
	historial    HistorialService
	asignar      AsignacionService
	store        storage.ObjectStore
	ticketBucket string
	logger       *zap.Logger
	now          func() time.Time
}

// NewTicketService wires the service.
func NewTicketService(
	tickets repository.TicketRepository,
	asignaciones repository.AsignacionRepository,
	horas repository.HorasRepository,
	archivos repository.ArchivoRepository,
	comentarios repository.ComentarioRepository,
	empresas repository.EmpresaRepository,
	profiles repository.ProfileRepository,
	historial HistorialService,
	asignar AsignacionService,
	store storage.ObjectStore,
	ticketBucket string,
	logger *zap.Logger,
) TicketService {
	return &ticketService{
		tickets:      tickets,
		asignaciones: asignaciones,
		horas:        horas,
		archivos:     archivos,
		comentarios:  comentarios,
		empresas:     empresas,
		profiles:     profiles,
		historial:    historial,
		asignar:      asignar,
		store:        store,
		ticketBucket: ticketBucket,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *ticketService) List(ctx context.Context, input ListTicketsInput) ([]TicketAnotado, error) {
	tickets, err := s.tickets.List(ctx, input.TicketFilter)
	if err != nil {
		return nil, util.MapError(err)
	}
	anotados, err := s.annotate(ctx, tickets)
	if err != nil {
		return nil, err
	}

	if input.OperarioID != nil {
		filtered := anotados[:0]
		for _, t := range anotados {
			for _, a := range t.Asignados {
				if a.UserID == *input.OperarioID {
					filtered = append(filtered, t)
					break
				}
			}
		}
		anotados = filtered
	}
	if input.Busqueda != nil {
		needle := strings.ToLower(strings.TrimSpace(*input.Busqueda))
		if needle != "" {
			filtered := anotados[:0]
			for _, t := range anotados {
				if matchesBusqueda(&t, needle) {
					filtered = append(filtered, t)
				}
			}
			anotados = filtered
		}
	}
	return anotados, nil
}

func matchesBusqueda(t *TicketAnotado, needle string) bool {
	if strings.Contains(strings.ToLower(t.Asunto), needle) {
		return true
	}
	if strings.Contains(strconv.FormatInt(t.Numero, 10), needle) {
		return true
	}
	if t.Empresa != nil && strings.Contains(strings.ToLower(t.Empresa.Nombre), needle) {
		return true
	}
	return false
}

func (s *ticketService) annotate(ctx context.Context, tickets []domain.Ticket) ([]TicketAnotado, error) {
	ids := make([]string, 0, len(tickets))
	for _, t := range tickets {
		ids = append(ids, t.ID)
	}

	asignaciones, err := s.asignaciones.ListByTickets(ctx, ids)
	if err != nil {
		return nil, util.MapError(err)
	}
	horas, err := s.horas.ListByTickets(ctx, ids)
	if err != nil {
		return nil, util.MapError(err)
	}

	userIDs := make([]string, 0, len(asignaciones))
	seen := map[string]bool{}
	for _, a := range asignaciones {
		if !seen[a.UserID] {
			seen[a.UserID] = true
			userIDs = append(userIDs, a.UserID)
		}
	}
	names := map[string]string{}
	if len(userIDs) > 0 {
		perfiles, err := s.profiles.GetByIDs(ctx, userIDs)
		if err != nil {
			return nil, util.MapError(err)
		}
		for _, p := range perfiles {
			names[p.ID] = p.Nombre
		}
	}

	asignadosByTicket := map[string][]AsignadoInfo{}
	for _, a := range asignaciones {
		asignadosByTicket[a.TicketID] = append(asignadosByTicket[a.TicketID], AsignadoInfo{
			UserID: a.UserID,
			Nombre: names[a.UserID],
		})
	}
	horasByTicket := map[string]float64{}
	for _, h := range horas {
		horasByTicket[h.TicketID] += h.Horas
	}

	now := s.now()
	result := make([]TicketAnotado, 0, len(tickets))
	for _, t := range tickets {
		result = append(result, TicketAnotado{
			Ticket:             t,
			Asignados:          asignadosByTicket[t.ID],
			HorasRegistradas:   horasByTicket[t.ID],
			HorasTranscurridas: t.HorasTranscurridas(now),
		})
	}
	return result, nil
}

func (s *ticketService) Get(ctx context.Context, id string) (*TicketDetalle, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, util.MapError(err)
	}
	anotados, err := s.annotate(ctx, []domain.Ticket{*ticket})
	if err != nil {
		return nil, err
	}

	horas, err := s.horas.ListByTicket(ctx, id)
	if err != nil {
		return nil, util.MapError(err)
	}
	archivos, err := s.archivos.ListByTicket(ctx, id)
	if err != nil {
		return nil, util.MapError(err)
	}
	comentarios, err := s.comentarios.ListByTicket(ctx, id)
	if err != nil {
		return nil, util.MapError(err)
	}
	if len(comentarios) > 0 {
		comentarioIDs := make([]string, 0, len(comentarios))
		for _, c := range comentarios {
			comentarioIDs = append(comentarioIDs, c.ID)
		}
		adjuntos, err := s.comentarios.ListArchivosByComentarios(ctx, comentarioIDs)
		if err != nil {
			return nil, util.MapError(err)
		}
		byComentario := map[string][]domain.ComentarioArchivo{}
		for _, a := range adjuntos {
			byComentario[a.ComentarioID] = append(byComentario[a.ComentarioID], a)
		}
		for i := range comentarios {
			comentarios[i].Archivos = byComentario[comentarios[i].ID]
		}
	}
	trail, err := s.historial.ListByTicket(ctx, id)
	if err != nil {
		return nil, err
	}

	return &TicketDetalle{
		TicketAnotado: anotados[0],
		Horas:         horas,
		Archivos:      archivos,
		Comentarios:   comentarios,
		Historial:     trail,
	}, nil
}

func (s *ticketService) Create(ctx context.Context, input CreateTicketInput, actor *domain.Profile) (*domain.Ticket, error) {
	if strings.TrimSpace(input.Asunto) == "" {
		return nil, util.NewValidationError("asunto es obligatorio", nil)
	}
	if _, err := s.empresas.GetByID(ctx, input.EmpresaID); err != nil {
		return nil, util.MapError(err)
	}

	prioridad := domain.PrioridadMedia
	if input.Prioridad != nil {
		if !input.Prioridad.Valid() {
			return nil, util.NewValidationError("prioridad no valida", map[string]any{"prioridad": *input.Prioridad})
		}
		prioridad = *input.Prioridad
	}
	estado := domain.EstadoPendiente
	if input.Estado != nil {
		if !input.Estado.Valid() {
			return nil, util.NewValidationError("estado no valido", map[string]any{"estado": *input.Estado})
		}
		estado = *input.Estado
	}

	ticket := &domain.Ticket{
		EmpresaID:     input.EmpresaID,
		DispositivoID: input.DispositivoID,
		Asunto:        input.Asunto,
		Descripcion:   input.Descripcion,
		Prioridad:     prioridad,
		Estado:        estado,
		CreatedBy:     actorID(actor),
	}
	ticket.StampTransition(s.now())
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, util.MapError(err)
	}
	if ticket.StartedAt != nil || ticket.CompletedAt != nil || ticket.InvoicedAt != nil {
		// stamps are only persisted by Update; creation in a non-initial
		// estado needs a second write
		if err := s.tickets.Update(ctx, ticket); err != nil {
			return nil, util.MapError(err)
		}
	}

	s.historial.Append(ctx, domain.HistorialEntry{
		TicketID:    ticket.ID,
		UserID:      actorID(actor),
		Tipo:        domain.HistorialCreacion,
		Descripcion: fmt.Sprintf("Ticket #%d creado", ticket.Numero),
	})

	if len(input.Asignados) > 0 {
		if err := s.asignar.Assign(ctx, ticket.ID, input.Asignados, actor); err != nil {
			return nil, err
		}
	}
	return ticket, nil
}

func (s *ticketService) Update(ctx context.Context, id string, input UpdateTicketInput, actor *domain.Profile) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, util.MapError(err)
	}

	var cambioEstado, cambioPrioridad *string
	if input.Asunto != nil {
		ticket.Asunto = *input.Asunto
	}
	if input.Descripcion != nil {
		ticket.Descripcion = input.Descripcion
	}
	if input.DispositivoID != nil {
		ticket.DispositivoID = input.DispositivoID
	}
	var prioridadAnterior domain.Prioridad
	if input.Prioridad != nil && *input.Prioridad != ticket.Prioridad {
		if !input.Prioridad.Valid() {
			return nil, util.NewValidationError("prioridad no valida", map[string]any{"prioridad": *input.Prioridad})
		}
		desc := fmt.Sprintf("Prioridad cambiada de %s a %s", ticket.Prioridad, *input.Prioridad)
		cambioPrioridad = &desc
		prioridadAnterior = ticket.Prioridad
		ticket.Prioridad = *input.Prioridad
	}
	var estadoAnterior domain.Estado
	if input.Estado != nil && *input.Estado != ticket.Estado {
		if !input.Estado.Valid() {
			return nil, util.NewValidationError("estado no valido", map[string]any{"estado": *input.Estado})
		}
		desc := fmt.Sprintf("Estado cambiado de %s a %s", ticket.Estado, *input.Estado)
		cambioEstado = &desc
		estadoAnterior = ticket.Estado
		ticket.Estado = *input.Estado
		ticket.StampTransition(s.now())
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, util.MapError(err)
	}

	if cambioEstado != nil {
		s.historial.Append(ctx, domain.HistorialEntry{
			TicketID:    ticket.ID,
			UserID:      actorID(actor),
			Tipo:        domain.HistorialEstado,
			Descripcion: *cambioEstado,
			Datos:       map[string]any{"de": estadoAnterior, "a": ticket.Estado},
		})
	}
	if cambioPrioridad != nil {
		s.historial.Append(ctx, domain.HistorialEntry{
			TicketID:    ticket.ID,
			UserID:      actorID(actor),
			Tipo:        domain.HistorialPrioridad,
			Descripcion: *cambioPrioridad,
			Datos:       map[string]any{"de": prioridadAnterior, "a": ticket.Prioridad},
		})
	}
	return ticket, nil
}

func (s *ticketService) UpdateNotas(ctx context.Context, id string, notas *string, actor *domain.Profile) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, util.MapError(err)
	}
	ticket.Notas = notas
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, util.MapError(err)
	}
	return ticket, nil
}

// AddNotaInterna records an internal annotation that lives only in the
// historial, not on the ticket row.
func (s *ticketService) AddNotaInterna(ctx context.Context, id, contenido string, actor *domain.Profile) error {
	if strings.TrimSpace(contenido) == "" {
		return util.NewValidationError("contenido es obligatorio", nil)
	}
	if _, err := s.tickets.GetByID(ctx, id); err != nil {
		return util.MapError(err)
	}
	s.historial.Append(ctx, domain.HistorialEntry{
		TicketID:    id,
		UserID:      actorID(actor),
		Tipo:        domain.HistorialNotaInterna,
		Descripcion: contenido,
	})
	return nil
}

// Delete removes a ticket and everything hanging off it. Object storage is
// cleaned before the rows go away; if storage refuses, the delete aborts so
// the metadata keeps pointing at the objects and the operation can be retried.
func (s *ticketService) Delete(ctx context.Context, id string, actor *domain.Profile) error {
	if !actor.IsAdmin() {
		return util.NewForbidden("solo un administrador puede eliminar tickets")
	}
	if _, err := s.tickets.GetByID(ctx, id); err != nil {
		return util.MapError(err)
	}

	var paths []string
	archivos, err := s.archivos.ListByTicket(ctx, id)
	if err != nil {
		return util.MapError(err)
	}
	for _, a := range archivos {
		paths = append(paths, a.StoragePath)
	}
	adjuntos, err := s.comentarios.ListArchivosByTicket(ctx, id)
	if err != nil {
		return util.MapError(err)
	}
	for _, a := range adjuntos {
		paths = append(paths, a.StoragePath)
	}
	if len(paths) > 0 {
		if err := s.store.Remove(ctx, s.ticketBucket, paths); err != nil {
			s.logger.Error("storage cleanup failed on ticket delete",
				zap.String("ticket_id", id),
				zap.Int("paths", len(paths)),
				zap.Error(err),
			)
			return util.NewInternalError(fmt.Errorf("no se pudieron eliminar los archivos del ticket: %w", err))
		}
	}

	if err := s.tickets.Delete(ctx, id); err != nil {
		return util.MapError(err)
	}
	return nil
}
