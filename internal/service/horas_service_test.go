package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holainformatica/soporte-backend/internal/domain"
	"github.com/holainformatica/soporte-backend/pkg/util"
)

func newHorasService(f *ticketFixture) *horasService {
	svc := NewHorasService(f.horas, f.tickets, f.svc.historial).(*horasService)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestRegistrarHoras(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.crear(t, CreateTicketInput{})
	svc := newHorasService(f)

	descripcion := "Cambio de fusor"
	log, err := svc.Registrar(context.Background(), RegistrarHorasInput{
		TicketID:    ticket.ID,
		Horas:       2.5,
		Descripcion: &descripcion,
	}, f.operario)
	require.NoError(t, err)

	assert.Equal(t, f.operario.ID, log.UserID)
	assert.Equal(t, 2.5, log.Horas)
	assert.Equal(t, fixedNow, log.Fecha, "fecha defaults to now")

	entries := f.historial.byTipo(domain.HistorialHoras)
	require.Len(t, entries, 1)
	assert.Equal(t, "Omar Operario registro 2.5 horas", entries[0].Descripcion)
}

func TestRegistrarHorasValidation(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.crear(t, CreateTicketInput{})
	svc := newHorasService(f)
	ctx := context.Background()

	_, err := svc.Registrar(ctx, RegistrarHorasInput{TicketID: ticket.ID, Horas: 0}, f.operario)
	assert.Equal(t, "VALIDATION_FAILED", util.ToDomainError(err).Code)

	_, err = svc.Registrar(ctx, RegistrarHorasInput{TicketID: ticket.ID, Horas: -1}, f.operario)
	assert.Equal(t, "VALIDATION_FAILED", util.ToDomainError(err).Code)

	_, err = svc.Registrar(ctx, RegistrarHorasInput{TicketID: ticket.ID, Horas: 1}, nil)
	assert.Equal(t, "UNAUTHORIZED", util.ToDomainError(err).Code)

	_, err = svc.Registrar(ctx, RegistrarHorasInput{TicketID: "00000000-0000-0000-0000-000000000000", Horas: 1}, f.operario)
	assert.Equal(t, "NOT_FOUND", util.ToDomainError(err).Code)
}

func TestDeleteHorasPermissions(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.crear(t, CreateTicketInput{})
	svc := newHorasService(f)
	ctx := context.Background()

	log, err := svc.Registrar(ctx, RegistrarHorasInput{TicketID: ticket.ID, Horas: 1.0}, f.operario)
	require.NoError(t, err)

	otra := f.profiles.add("Olga Operaria", "olga@hola.es", domain.RolTrabajador)
	err = svc.Delete(ctx, log.ID, otra)
	assert.Equal(t, "FORBIDDEN", util.ToDomainError(err).Code)

	// the author may delete their own log
	require.NoError(t, svc.Delete(ctx, log.ID, f.operario))
	_, err = f.horas.GetByID(ctx, log.ID)
	assert.Error(t, err)

	// an admin may delete anyone's
	log2, err := svc.Registrar(ctx, RegistrarHorasInput{TicketID: ticket.ID, Horas: 3.0}, f.operario)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, log2.ID, f.admin))

	entries := f.historial.byTipo(domain.HistorialHoras)
	var eliminados []string
	for _, e := range entries {
		if e.Datos["eliminado"] == true {
			eliminados = append(eliminados, e.Descripcion)
		}
	}
	assert.Equal(t, []string{
		"Registro de 1.0 horas eliminado",
		"Registro de 3.0 horas eliminado",
	}, eliminados)
}
