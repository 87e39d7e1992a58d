package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/holainformatica/soporte-backend/internal/domain"
	"github.com/holainformatica/soporte-backend/pkg/util"
)

var fixedNow = time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)

type ticketFixture struct {
	tickets      *fakeTicketRepo
	asignaciones *fakeAsignacionRepo
	horas        *fakeHorasRepo
	archivos     *fakeArchivoRepo
	comentarios  *fakeComentarioRepo
	empresas     *fakeEmpresaRepo
	profiles     *fakeProfileRepo
	historial    *fakeHistorialRepo
	mailer       *fakeMailer
	store        *fakeObjectStore
	svc          *ticketService

	empresa  *domain.Empresa
	admin    *domain.Profile
	operario *domain.Profile
}

func newTicketFixture(t *testing.T) *ticketFixture {
	t.Helper()

	f := &ticketFixture{
		tickets:      newFakeTicketRepo(),
		asignaciones: &fakeAsignacionRepo{},
		horas:        newFakeHorasRepo(),
		archivos:     newFakeArchivoRepo(),
		comentarios:  newFakeComentarioRepo(),
		empresas:     newFakeEmpresaRepo(),
		profiles:     newFakeProfileRepo(),
		historial:    &fakeHistorialRepo{},
		mailer:       newFakeMailer(),
		store:        newFakeObjectStore(),
	}
	f.tickets.empresas = f.empresas

	f.empresa = &domain.Empresa{Nombre: "Acme SL", CIF: "B12345678"}
	require.NoError(t, f.empresas.Create(context.Background(), f.empresa))
	f.admin = f.profiles.add("Ana Admin", "ana@hola.es", domain.RolAdmin)
	f.operario = f.profiles.add("Omar Operario", "omar@hola.es", domain.RolTrabajador)

	logger := zap.NewNop()
	historial := NewHistorialService(f.historial, f.profiles, logger)
	asignar := NewAsignacionService(f.tickets, f.asignaciones, f.profiles, historial, f.mailer, logger)
	svc := NewTicketService(
		f.tickets, f.asignaciones, f.horas, f.archivos, f.comentarios,
		f.empresas, f.profiles, historial, asignar,
		f.store, "tickets", logger,
	)
	f.svc = svc.(*ticketService)
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func (f *ticketFixture) crear(t *testing.T, input CreateTicketInput) *domain.Ticket {
	t.Helper()
	if input.EmpresaID == "" {
		input.EmpresaID = f.empresa.ID
	}
	if input.Asunto == "" {
		input.Asunto = "No va la impresora"
	}
	ticket, err := f.svc.Create(context.Background(), input, f.admin)
	require.NoError(t, err)
	return ticket
}

func TestCreateTicketDefaults(t *testing.T) {
	f := newTicketFixture(t)

	ticket := f.crear(t, CreateTicketInput{})

	assert.Equal(t, int64(1), ticket.Numero)
	assert.Equal(t, domain.PrioridadMedia, ticket.Prioridad)
	assert.Equal(t, domain.EstadoPendiente, ticket.Estado)
	assert.Nil(t, ticket.StartedAt)
	assert.Equal(t, &f.admin.ID, ticket.CreatedBy)

	entries := f.historial.byTipo(domain.HistorialCreacion)
	require.Len(t, entries, 1)
	assert.Equal(t, "Ticket #1 creado", entries[0].Descripcion)
}

func TestCreateTicketRequiresAsunto(t *testing.T) {
	f := newTicketFixture(t)

	_, err := f.svc.Create(context.Background(), CreateTicketInput{
		EmpresaID: f.empresa.ID,
		Asunto:    "   ",
	}, f.admin)

	domainErr := util.ToDomainError(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
}

func TestCreateTicketUnknownEmpresa(t *testing.T) {
	f := newTicketFixture(t)

	_, err := f.svc.Create(context.Background(), CreateTicketInput{
		EmpresaID: "00000000-0000-0000-0000-000000000000",
		Asunto:    "Servidor caido",
	}, f.admin)

	domainErr := util.ToDomainError(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
}

func TestCreateTicketInitialEnCursoStampsStartedAt(t *testing.T) {
	f := newTicketFixture(t)

	estado := domain.EstadoEnCurso
	ticket := f.crear(t, CreateTicketInput{Estado: &estado})

	require.NotNil(t, ticket.StartedAt)
	assert.Equal(t, fixedNow, *ticket.StartedAt)

	// the stamp must have been persisted, not just set in memory
	stored, err := f.tickets.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.StartedAt)
	assert.Equal(t, fixedNow, *stored.StartedAt)
}

func TestCreateTicketConAsignados(t *testing.T) {
	f := newTicketFixture(t)

	ticket := f.crear(t, CreateTicketInput{Asignados: []string{f.operario.ID}})

	asignaciones, err := f.asignaciones.ListByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.Len(t, asignaciones, 1)
	assert.Equal(t, f.operario.ID, asignaciones[0].UserID)

	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "omar@hola.es", f.mailer.sent[0].to)

	entries := f.historial.byTipo(domain.HistorialAsignacion)
	require.Len(t, entries, 1)
	assert.Equal(t, "Ticket asignado a Omar Operario", entries[0].Descripcion)
}

func TestUpdateTicketEstadoStampsAndLogs(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.crear(t, CreateTicketInput{})

	estado := domain.EstadoEnCurso
	updated, err := f.svc.Update(context.Background(), ticket.ID, UpdateTicketInput{Estado: &estado}, f.admin)
	require.NoError(t, err)

	assert.Equal(t, domain.EstadoEnCurso, updated.Estado)
	require.NotNil(t, updated.StartedAt)
	assert.Equal(t, fixedNow, *updated.StartedAt)

	entries := f.historial.byTipo(domain.HistorialEstado)
	require.Len(t, entries, 1)
	assert.Equal(t, "Estado cambiado de Pendiente a En curso", entries[0].Descripcion)
	assert.Equal(t, domain.EstadoPendiente, entries[0].Datos["de"])
	assert.Equal(t, domain.EstadoEnCurso, entries[0].Datos["a"])
}

func TestUpdateTicketStartedAtSurvivesRoundTrip(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.crear(t, CreateTicketInput{})
	ctx := context.Background()

	enCurso := domain.EstadoEnCurso
	first, err := f.svc.Update(ctx, ticket.ID, UpdateTicketInput{Estado: &enCurso}, f.admin)
	require.NoError(t, err)
	originalStart := *first.StartedAt

	pendiente := domain.EstadoPendiente
	_, err = f.svc.Update(ctx, ticket.ID, UpdateTicketInput{Estado: &pendiente}, f.admin)
	require.NoError(t, err)

	f.svc.now = func() time.Time { return fixedNow.Add(48 * time.Hour) }
	again, err := f.svc.Update(ctx, ticket.ID, UpdateTicketInput{Estado: &enCurso}, f.admin)
	require.NoError(t, err)

	require.NotNil(t, again.StartedAt)
	assert.Equal(t, originalStart, *again.StartedAt)
}

func TestUpdateTicketPrioridadLogs(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.crear(t, CreateTicketInput{})

	urgente := domain.PrioridadUrgente
	_, err := f.svc.Update(context.Background(), ticket.ID, UpdateTicketInput{Prioridad: &urgente}, f.admin)
	require.NoError(t, err)

	entries := f.historial.byTipo(domain.HistorialPrioridad)
	require.Len(t, entries, 1)
	assert.Equal(t, "Prioridad cambiada de Media a Urgente", entries[0].Descripcion)
	assert.Equal(t, domain.PrioridadMedia, entries[0].Datos["de"])
	assert.Equal(t, domain.PrioridadUrgente, entries[0].Datos["a"])
}

func TestUpdateTicketPartialKeepsFields(t *testing.T) {
	f := newTicketFixture(t)
	descripcion := "Se atasca el papel"
	ticket := f.crear(t, CreateTicketInput{Descripcion: &descripcion})

	asunto := "Impresora atascada"
	updated, err := f.svc.Update(context.Background(), ticket.ID, UpdateTicketInput{Asunto: &asunto}, f.admin)
	require.NoError(t, err)

	assert.Equal(t, "Impresora atascada", updated.Asunto)
	require.NotNil(t, updated.Descripcion)
	assert.Equal(t, descripcion, *updated.Descripcion)
	assert.Equal(t, domain.PrioridadMedia, updated.Prioridad)
	assert.Empty(t, f.historial.byTipo(domain.HistorialEstado))
	assert.Empty(t, f.historial.byTipo(domain.HistorialPrioridad))
}

func TestUpdateTicketInvalidEstado(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.crear(t, CreateTicketInput{})

	malo := domain.Estado("Cerrado")
	_, err := f.svc.Update(context.Background(), ticket.ID, UpdateTicketInput{Estado: &malo}, f.admin)

	domainErr := util.ToDomainError(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
}

func TestDeleteTicketAdminOnly(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.crear(t, CreateTicketInput{})

	err := f.svc.Delete(context.Background(), ticket.ID, f.operario)
	domainErr := util.ToDomainError(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, "FORBIDDEN", domainErr.Code)

	_, err = f.tickets.GetByID(context.Background(), ticket.ID)
	assert.NoError(t, err, "the ticket must survive a forbidden delete")
}

func TestDeleteTicketCleansStorage(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.crear(t, CreateTicketInput{})
	ctx := context.Background()

	require.NoError(t, f.archivos.Create(ctx, &domain.TicketArchivo{
		TicketID:    ticket.ID,
		StoragePath: "tickets/" + ticket.ID + "/factura.pdf",
	}))
	comentario := &domain.Comentario{TicketID: ticket.ID, UserID: f.admin.ID, Contenido: "adjunto"}
	require.NoError(t, f.comentarios.Create(ctx, comentario))
	require.NoError(t, f.comentarios.CreateArchivo(ctx, &domain.ComentarioArchivo{
		ComentarioID: comentario.ID,
		StoragePath:  "tickets/" + ticket.ID + "/captura.png",
	}))

	require.NoError(t, f.svc.Delete(ctx, ticket.ID, f.admin))

	assert.ElementsMatch(t, []string{
		"tickets/" + ticket.ID + "/factura.pdf",
		"tickets/" + ticket.ID + "/captura.png",
	}, f.store.removed)

	_, err := f.tickets.GetByID(ctx, ticket.ID)
	domainErr := util.ToDomainError(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
}

func TestDeleteTicketAbortsOnStorageFailure(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.crear(t, CreateTicketInput{})
	ctx := context.Background()

	require.NoError(t, f.archivos.Create(ctx, &domain.TicketArchivo{
		TicketID:    ticket.ID,
		StoragePath: "tickets/" + ticket.ID + "/log.txt",
	}))
	f.store.failRemove = true

	err := f.svc.Delete(ctx, ticket.ID, f.admin)
	assert.Equal(t, "INTERNAL_ERROR", util.ToDomainError(err).Code)

	// rows stay so the delete can be retried once storage recovers
	_, err = f.tickets.GetByID(ctx, ticket.ID)
	assert.NoError(t, err)
}

func TestListTicketsOperarioFilter(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	asignado := f.crear(t, CreateTicketInput{Asunto: "Router caido", Asignados: []string{f.operario.ID}})
	f.crear(t, CreateTicketInput{Asunto: "Pantalla rota"})

	result, err := f.svc.List(ctx, ListTicketsInput{OperarioID: &f.operario.ID})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, asignado.ID, result[0].ID)
	require.Len(t, result[0].Asignados, 1)
	assert.Equal(t, "Omar Operario", result[0].Asignados[0].Nombre)
}

func TestListTicketsBusqueda(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	f.crear(t, CreateTicketInput{Asunto: "Router caido"})
	f.crear(t, CreateTicketInput{Asunto: "Pantalla rota"})

	busqueda := "router"
	result, err := f.svc.List(ctx, ListTicketsInput{Busqueda: &busqueda})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "Router caido", result[0].Asunto)

	// numero match
	busqueda = "2"
	result, err = f.svc.List(ctx, ListTicketsInput{Busqueda: &busqueda})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, int64(2), result[0].Numero)

	// empresa nombre match hits every ticket of that empresa
	busqueda = "acme"
	result, err = f.svc.List(ctx, ListTicketsInput{Busqueda: &busqueda})
	require.NoError(t, err)
	assert.Len(t, result, 2)
}

func TestGetTicketDetalle(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()
	ticket := f.crear(t, CreateTicketInput{Asignados: []string{f.operario.ID}})

	require.NoError(t, f.horas.Create(ctx, &domain.HoraLog{TicketID: ticket.ID, UserID: f.operario.ID, Horas: 1.5, Fecha: fixedNow}))
	require.NoError(t, f.horas.Create(ctx, &domain.HoraLog{TicketID: ticket.ID, UserID: f.operario.ID, Horas: 2.0, Fecha: fixedNow}))
	comentario := &domain.Comentario{TicketID: ticket.ID, UserID: f.operario.ID, Contenido: "Revisado en remoto"}
	require.NoError(t, f.comentarios.Create(ctx, comentario))
	require.NoError(t, f.comentarios.CreateArchivo(ctx, &domain.ComentarioArchivo{
		ComentarioID:   comentario.ID,
		NombreOriginal: "captura.png",
		StoragePath:    "tickets/" + ticket.ID + "/captura.png",
	}))

	detalle, err := f.svc.Get(ctx, ticket.ID)
	require.NoError(t, err)

	assert.Equal(t, 3.5, detalle.HorasRegistradas)
	require.Len(t, detalle.Asignados, 1)
	assert.Equal(t, "Omar Operario", detalle.Asignados[0].Nombre)
	require.Len(t, detalle.Comentarios, 1)
	require.Len(t, detalle.Comentarios[0].Archivos, 1)
	assert.Equal(t, "captura.png", detalle.Comentarios[0].Archivos[0].NombreOriginal)

	// creacion + asignacion, with the author resolved
	require.Len(t, detalle.Historial, 2)
	assert.Equal(t, "Ana Admin", detalle.Historial[0].NombreUsuario)
}

func TestUpdateNotas(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.crear(t, CreateTicketInput{})

	notas := "Facturar a fin de mes"
	updated, err := f.svc.UpdateNotas(context.Background(), ticket.ID, &notas, f.admin)
	require.NoError(t, err)
	require.NotNil(t, updated.Notas)
	assert.Equal(t, notas, *updated.Notas)

	cleared, err := f.svc.UpdateNotas(context.Background(), ticket.ID, nil, f.admin)
	require.NoError(t, err)
	assert.Nil(t, cleared.Notas)
}

func TestAddNotaInterna(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.crear(t, CreateTicketInput{})

	err := f.svc.AddNotaInterna(context.Background(), ticket.ID, "  ", f.admin)
	domainErr := util.ToDomainError(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)

	require.NoError(t, f.svc.AddNotaInterna(context.Background(), ticket.ID, "Cliente avisado por telefono", f.admin))
	entries := f.historial.byTipo(domain.HistorialNotaInterna)
	require.Len(t, entries, 1)
	assert.Equal(t, "Cliente avisado por telefono", entries[0].Descripcion)
}
