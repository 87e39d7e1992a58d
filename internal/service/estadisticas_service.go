package service

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/holainformatica/soporte-backend/internal/domain"
	"github.com/holainformatica/soporte-backend/internal/repository"
	"github.com/holainformatica/soporte-backend/pkg/util"
)

const (
	resumenCacheKey = "estadisticas:resumen"
	resumenCacheTTL = 60 * time.Second
)

// Resumen is the admin dashboard aggregate.
type Resumen struct {
	TotalTickets  int            `json:"total_tickets"`
	PorEstado     map[string]int `json:"por_estado"`
	PorPrioridad  map[string]int `json:"por_prioridad"`
	Urgentes      int            `json:"urgentes"`
	Ultimos7Dias  int            `json:"ultimos_7_dias"`
	HorasTotales  float64        `json:"horas_totales"`
	TicketsPorMes map[string]int `json:"tickets_por_mes"`
}

// OperarioStats aggregates one operario's workload.
type OperarioStats struct {
	UserID               string  `json:"user_id"`
	Nombre               string  `json:"nombre"`
	TicketsAsignados     int     `json:"tickets_asignados"`
	Completados          int     `json:"completados"`
	Pendientes           int     `json:"pendientes"`
	HorasRegistradas     float64 `json:"horas_registradas"`
	MediaResolucionHoras float64 `json:"media_resolucion_horas"`
}

// EmpresaStats aggregates tickets and hours per client.
type EmpresaStats struct {
	EmpresaID    string         `json:"empresa_id"`
	Nombre       string         `json:"nombre"`
	TotalTickets int            `json:"total_tickets"`
	Abiertos     int            `json:"abiertos"`
	Urgentes     int            `json:"urgentes"`
	PorEstado    map[string]int `json:"por_estado"`
	HorasTotales float64        `json:"horas_totales"`
}

// EstadisticasService produces reporting aggregates. Admin only; the resumen
// is cached briefly in Redis since the dashboard polls it.
type EstadisticasService interface {
	Resumen(ctx context.Context, actor *domain.Profile) (*Resumen, error)
	PorOperario(ctx context.Context, actor *domain.Profile) ([]OperarioStats, error)
	PorEmpresa(ctx context.Context, actor *domain.Profile) ([]EmpresaStats, error)
}

type estadisticasService struct {
	tickets      repository.TicketRepository
	asignaciones repository.AsignacionRepository
	horas        repository.HorasRepository
	empresas     repository.EmpresaRepository
	profiles     repository.ProfileRepository
	cache        *redis.Client
	logger       *zap.Logger
	now          func() time.Time
}

// NewEstadisticasService wires the service.
func NewEstadisticasService(
	tickets repository.TicketRepository,
	asignaciones repository.AsignacionRepository,
	horas repository.HorasRepository,
	empresas repository.EmpresaRepository,
	profiles repository.ProfileRepository,
	cache *redis.Client,
	logger *zap.Logger,
) EstadisticasService {
	return &estadisticasService{
		tickets:      tickets,
		asignaciones: asignaciones,
		horas:        horas,
		empresas:     empresas,
		profiles:     profiles,
		cache:        cache,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *estadisticasService) Resumen(ctx context.Context, actor *domain.Profile) (*Resumen, error) {
	if !actor.IsAdmin() {
		return nil, util.NewForbidden("se requiere rol de administrador")
	}

	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, resumenCacheKey).Bytes(); err == nil {
			var cached Resumen
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	tickets, err := s.tickets.List(ctx, repository.TicketFilter{})
	if err != nil {
		return nil, util.MapError(err)
	}
	ids := make([]string, 0, len(tickets))
	for _, t := range tickets {
		ids = append(ids, t.ID)
	}
	horas, err := s.horas.ListByTickets(ctx, ids)
	if err != nil {
		return nil, util.MapError(err)
	}

	resumen := &Resumen{
		TotalTickets:  len(tickets),
		PorEstado:     map[string]int{},
		PorPrioridad:  map[string]int{},
		TicketsPorMes: map[string]int{},
	}
	for _, estado := range domain.Estados {
		resumen.PorEstado[string(estado)] = 0
	}
	for _, prioridad := range domain.Prioridades {
		resumen.PorPrioridad[string(prioridad)] = 0
	}
	hace7Dias := s.now().AddDate(0, 0, -7)
	for _, t := range tickets {
		resumen.PorEstado[string(t.Estado)]++
		resumen.PorPrioridad[string(t.Prioridad)]++
		resumen.TicketsPorMes[t.CreatedAt.Format("2006-01")]++
		if t.Prioridad == domain.PrioridadUrgente {
			resumen.Urgentes++
		}
		if t.CreatedAt.After(hace7Dias) {
			resumen.Ultimos7Dias++
		}
	}
	for _, h := range horas {
		resumen.HorasTotales += h.Horas
	}

	if s.cache != nil {
		if raw, err := json.Marshal(resumen); err == nil {
			if err := s.cache.Set(ctx, resumenCacheKey, raw, resumenCacheTTL).Err(); err != nil {
				s.logger.Warn("resumen cache write failed", zap.Error(err))
			}
		}
	}
	return resumen, nil
}

func (s *estadisticasService) PorOperario(ctx context.Context, actor *domain.Profile) ([]OperarioStats, error) {
	if !actor.IsAdmin() {
		return nil, util.NewForbidden("se requiere rol de administrador")
	}

	tickets, err := s.tickets.List(ctx, repository.TicketFilter{})
	if err != nil {
		return nil, util.MapError(err)
	}
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
	perfiles, err := s.profiles.List(ctx)
	if err != nil {
		return nil, util.MapError(err)
	}

	ticketsByID := map[string]*domain.Ticket{}
	for i := range tickets {
		ticketsByID[tickets[i].ID] = &tickets[i]
	}

	now := s.now()
	asignadosCount := map[string]int{}
	completadosCount := map[string]int{}
	pendientesCount := map[string]int{}
	resolucionSum := map[string]float64{}
	for _, a := range asignaciones {
		asignadosCount[a.UserID]++
		t, ok := ticketsByID[a.TicketID]
		if !ok {
			continue
		}
		switch t.Estado {
		case domain.EstadoCompletado, domain.EstadoPendienteFacturar, domain.EstadoFacturado:
			completadosCount[a.UserID]++
			resolucionSum[a.UserID] += t.HorasTranscurridas(now)
		default:
			pendientesCount[a.UserID]++
		}
	}
	horasCount := map[string]float64{}
	for _, h := range horas {
		horasCount[h.UserID] += h.Horas
	}

	result := make([]OperarioStats, 0, len(perfiles))
	for _, p := range perfiles {
		stats := OperarioStats{
			UserID:           p.ID,
			Nombre:           p.Nombre,
			TicketsAsignados: asignadosCount[p.ID],
			Completados:      completadosCount[p.ID],
			Pendientes:       pendientesCount[p.ID],
			HorasRegistradas: horasCount[p.ID],
		}
		if stats.Completados > 0 {
			stats.MediaResolucionHoras = resolucionSum[p.ID] / float64(stats.Completados)
		}
		result = append(result, stats)
	}
	return result, nil
}

func (s *estadisticasService) PorEmpresa(ctx context.Context, actor *domain.Profile) ([]EmpresaStats, error) {
	if !actor.IsAdmin() {
		return nil, util.NewForbidden("se requiere rol de administrador")
	}

	empresas, err := s.empresas.List(ctx)
	if err != nil {
		return nil, util.MapError(err)
	}
	tickets, err := s.tickets.List(ctx, repository.TicketFilter{})
	if err != nil {
		return nil, util.MapError(err)
	}
	ids := make([]string, 0, len(tickets))
	for _, t := range tickets {
		ids = append(ids, t.ID)
	}
	horas, err := s.horas.ListByTickets(ctx, ids)
	if err != nil {
		return nil, util.MapError(err)
	}

	horasByTicket := map[string]float64{}
	for _, h := range horas {
		horasByTicket[h.TicketID] += h.Horas
	}

	statsByEmpresa := map[string]*EmpresaStats{}
	for _, e := range empresas {
		stats := &EmpresaStats{EmpresaID: e.ID, Nombre: e.Nombre, PorEstado: map[string]int{}}
		for _, estado := range domain.Estados {
			stats.PorEstado[string(estado)] = 0
		}
		statsByEmpresa[e.ID] = stats
	}
	for _, t := range tickets {
		stats, ok := statsByEmpresa[t.EmpresaID]
		if !ok {
			continue
		}
		stats.TotalTickets++
		stats.PorEstado[string(t.Estado)]++
		if t.Estado == domain.EstadoPendiente || t.Estado == domain.EstadoEnCurso {
			stats.Abiertos++
		}
		if t.Prioridad == domain.PrioridadUrgente {
			stats.Urgentes++
		}
		stats.HorasTotales += horasByTicket[t.ID]
	}

	result := make([]EmpresaStats, 0, len(empresas))
	for _, e := range empresas {
		result = append(result, *statsByEmpresa[e.ID])
	}
	// busiest clients first; ties keep the empresa listing order
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].TotalTickets > result[j].TotalTickets
	})
	return result, nil
}
