package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStampTransitionSetOnce(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ticket := &Ticket{CreatedAt: created, Estado: EstadoEnCurso}

	first := created.Add(1 * time.Hour)
	ticket.StampTransition(first)
	assert.NotNil(t, ticket.StartedAt)
	assert.Equal(t, first, *ticket.StartedAt)

	// re-entering the estado later keeps the original instant
	ticket.StampTransition(created.Add(5 * time.Hour))
	assert.Equal(t, first, *ticket.StartedAt)

	ticket.Estado = EstadoCompletado
	done := created.Add(2 * time.Hour)
	ticket.StampTransition(done)
	assert.Equal(t, done, *ticket.CompletedAt)
	assert.Nil(t, ticket.InvoicedAt)

	ticket.Estado = EstadoPendienteFacturar
	ticket.StampTransition(created.Add(8 * time.Hour))
	assert.Equal(t, done, *ticket.CompletedAt, "Pendiente de facturar shares the completed stamp")

	ticket.Estado = EstadoFacturado
	invoiced := created.Add(72 * time.Hour)
	ticket.StampTransition(invoiced)
	assert.Equal(t, invoiced, *ticket.InvoicedAt)
}

func TestStampTransitionPendienteLeavesNothing(t *testing.T) {
	ticket := &Ticket{Estado: EstadoPendiente}
	ticket.StampTransition(time.Now())
	assert.Nil(t, ticket.StartedAt)
	assert.Nil(t, ticket.CompletedAt)
	assert.Nil(t, ticket.InvoicedAt)
}

func TestHorasTranscurridasOpenTicketCountsAgainstNow(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ticket := &Ticket{CreatedAt: created, Estado: EstadoEnCurso}

	assert.Equal(t, 2.5, ticket.HorasTranscurridas(created.Add(2*time.Hour+30*time.Minute)))
	assert.Equal(t, 26.0, ticket.HorasTranscurridas(created.Add(26*time.Hour)))
}

func TestHorasTranscurridasFrozenOnClosure(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	completed := created.Add(4 * time.Hour)
	invoiced := created.Add(10 * time.Hour)
	wayLater := created.Add(500 * time.Hour)

	completado := &Ticket{CreatedAt: created, Estado: EstadoCompletado, CompletedAt: &completed}
	assert.Equal(t, 4.0, completado.HorasTranscurridas(wayLater))

	pendienteFacturar := &Ticket{CreatedAt: created, Estado: EstadoPendienteFacturar, CompletedAt: &completed}
	assert.Equal(t, 4.0, pendienteFacturar.HorasTranscurridas(wayLater))

	facturado := &Ticket{CreatedAt: created, Estado: EstadoFacturado, CompletedAt: &completed, InvoicedAt: &invoiced}
	assert.Equal(t, 10.0, facturado.HorasTranscurridas(wayLater))
}

func TestHorasTranscurridasRounding(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ticket := &Ticket{CreatedAt: created, Estado: EstadoPendiente}

	// 2h57m -> 2.95h rounds to 3.0
	assert.Equal(t, 3.0, ticket.HorasTranscurridas(created.Add(2*time.Hour+57*time.Minute)))
	// 2h51m -> 2.85h rounds to 2.9
	assert.Equal(t, 2.9, ticket.HorasTranscurridas(created.Add(2*time.Hour+51*time.Minute)))
}

func TestHorasTranscurridasClampsNegative(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ticket := &Ticket{CreatedAt: created, Estado: EstadoPendiente}
	assert.Equal(t, 0.0, ticket.HorasTranscurridas(created.Add(-2*time.Hour)))
}

func TestHorasTranscurridasSinCreatedAt(t *testing.T) {
	ticket := &Ticket{Estado: EstadoPendiente}
	assert.Equal(t, 0.0, ticket.HorasTranscurridas(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)))
}

func TestEstadoValid(t *testing.T) {
	for _, estado := range Estados {
		assert.True(t, estado.Valid(), string(estado))
	}
	assert.False(t, Estado("Cerrado").Valid())
	assert.False(t, Estado("").Valid())
}

func TestPrioridadValid(t *testing.T) {
	for _, prioridad := range Prioridades {
		assert.True(t, prioridad.Valid(), string(prioridad))
	}
	assert.False(t, Prioridad("Critica").Valid())
}
