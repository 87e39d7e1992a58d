package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/holainformatica/soporte-backend/internal/domain"
	"github.com/holainformatica/soporte-backend/internal/repository"
)

// In-memory repository doubles backing the service tests.

type fakeTicketRepo struct {
	tickets map[string]*domain.Ticket
	numero  int64

	// set to mirror the empresa join the SQL reads perform
	empresas *fakeEmpresaRepo
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: map[string]*domain.Ticket{}}
}

func (r *fakeTicketRepo) joinEmpresa(ticket *domain.Ticket) {
	if r.empresas == nil {
		return
	}
	if empresa, ok := r.empresas.empresas[ticket.EmpresaID]; ok {
		ticket.Empresa = &domain.Empresa{ID: empresa.ID, Nombre: empresa.Nombre}
	}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.numero++
	ticket.ID = uuid.NewString()
	ticket.Numero = r.numero
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now()
	}
	clone := *ticket
	r.tickets[ticket.ID] = &clone
	return nil
}

func (r *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *ticket
	r.tickets[ticket.ID] = &clone
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *ticket
	r.joinEmpresa(&clone)
	return &clone, nil
}

func (r *fakeTicketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if filter.Estado != nil && ticket.Estado != *filter.Estado {
			continue
		}
		if filter.Prioridad != nil && ticket.Prioridad != *filter.Prioridad {
			continue
		}
		if filter.EmpresaID != nil && ticket.EmpresaID != *filter.EmpresaID {
			continue
		}
		clone := *ticket
		r.joinEmpresa(&clone)
		result = append(result, clone)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (r *fakeTicketRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.tickets, id)
	return nil
}

type fakeAsignacionRepo struct {
	rows []domain.Asignacion
}

func (r *fakeAsignacionRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Asignacion, error) {
	var result []domain.Asignacion
	for _, a := range r.rows {
		if a.TicketID == ticketID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (r *fakeAsignacionRepo) ListByTickets(_ context.Context, ticketIDs []string) ([]domain.Asignacion, error) {
	ids := map[string]bool{}
	for _, id := range ticketIDs {
		ids[id] = true
	}
	var result []domain.Asignacion
	for _, a := range r.rows {
		if ids[a.TicketID] {
			result = append(result, a)
		}
	}
	return result, nil
}

func (r *fakeAsignacionRepo) Upsert(_ context.Context, asignaciones []domain.Asignacion) error {
	for _, a := range asignaciones {
		exists := false
		for _, existing := range r.rows {
			if existing.TicketID == a.TicketID && existing.UserID == a.UserID {
				exists = true
				break
			}
		}
		if !exists {
			a.ID = uuid.NewString()
			a.AsignadoAt = time.Now()
			r.rows = append(r.rows, a)
		}
	}
	return nil
}

func (r *fakeAsignacionRepo) Delete(_ context.Context, ticketID, userID string) error {
	for i, a := range r.rows {
		if a.TicketID == ticketID && a.UserID == userID {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return nil
		}
	}
	return nil
}

type fakeHistorialRepo struct {
	entries []domain.HistorialEntry
	failing bool
}

func (r *fakeHistorialRepo) Create(_ context.Context, entry *domain.HistorialEntry) error {
	if r.failing {
		return errors.New("historial unavailable")
	}
	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeHistorialRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.HistorialEntry, error) {
	var result []domain.HistorialEntry
	for _, entry := range r.entries {
		if entry.TicketID == ticketID {
			result = append(result, entry)
		}
	}
	return result, nil
}

func (r *fakeHistorialRepo) byTipo(tipo domain.TipoHistorial) []domain.HistorialEntry {
	var result []domain.HistorialEntry
	for _, entry := range r.entries {
		if entry.Tipo == tipo {
			result = append(result, entry)
		}
	}
	return result
}

type fakeHorasRepo struct {
	logs map[string]*domain.HoraLog
}

func newFakeHorasRepo() *fakeHorasRepo {
	return &fakeHorasRepo{logs: map[string]*domain.HoraLog{}}
}

func (r *fakeHorasRepo) Create(_ context.Context, log *domain.HoraLog) error {
	log.ID = uuid.NewString()
	log.CreatedAt = time.Now()
	clone := *log
	r.logs[log.ID] = &clone
	return nil
}

func (r *fakeHorasRepo) GetByID(_ context.Context, id string) (*domain.HoraLog, error) {
	log, ok := r.logs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *log
	return &clone, nil
}

func (r *fakeHorasRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.HoraLog, error) {
	return r.ListByTickets(nil, []string{ticketID})
}

func (r *fakeHorasRepo) ListByTickets(_ context.Context, ticketIDs []string) ([]domain.HoraLog, error) {
	ids := map[string]bool{}
	for _, id := range ticketIDs {
		ids[id] = true
	}
	var result []domain.HoraLog
	for _, log := range r.logs {
		if ids[log.TicketID] {
			result = append(result, *log)
		}
	}
	return result, nil
}

func (r *fakeHorasRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.logs[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.logs, id)
	return nil
}

type fakeArchivoRepo struct {
	archivos map[string]*domain.TicketArchivo
	failNext bool
}

func newFakeArchivoRepo() *fakeArchivoRepo {
	return &fakeArchivoRepo{archivos: map[string]*domain.TicketArchivo{}}
}

func (r *fakeArchivoRepo) Create(_ context.Context, archivo *domain.TicketArchivo) error {
	if r.failNext {
		r.failNext = false
		return errors.New("insert failed")
	}
	archivo.ID = uuid.NewString()
	archivo.CreatedAt = time.Now()
	clone := *archivo
	r.archivos[archivo.ID] = &clone
	return nil
}

func (r *fakeArchivoRepo) GetByID(_ context.Context, id string) (*domain.TicketArchivo, error) {
	archivo, ok := r.archivos[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *archivo
	return &clone, nil
}

func (r *fakeArchivoRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketArchivo, error) {
	var result []domain.TicketArchivo
	for _, archivo := range r.archivos {
		if archivo.TicketID == ticketID {
			result = append(result, *archivo)
		}
	}
	return result, nil
}

func (r *fakeArchivoRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.archivos[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.archivos, id)
	return nil
}

type fakeComentarioRepo struct {
	comentarios map[string]*domain.Comentario
	archivos    []domain.ComentarioArchivo
}

func newFakeComentarioRepo() *fakeComentarioRepo {
	return &fakeComentarioRepo{comentarios: map[string]*domain.Comentario{}}
}

func (r *fakeComentarioRepo) Create(_ context.Context, comentario *domain.Comentario) error {
	comentario.ID = uuid.NewString()
	comentario.CreatedAt = time.Now()
	clone := *comentario
	r.comentarios[comentario.ID] = &clone
	return nil
}

func (r *fakeComentarioRepo) GetByID(_ context.Context, id string) (*domain.Comentario, error) {
	comentario, ok := r.comentarios[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *comentario
	return &clone, nil
}

func (r *fakeComentarioRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Comentario, error) {
	var result []domain.Comentario
	for _, comentario := range r.comentarios {
		if comentario.TicketID == ticketID {
			result = append(result, *comentario)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (r *fakeComentarioRepo) UpdateContenido(_ context.Context, id, contenido string) error {
	comentario, ok := r.comentarios[id]
	if !ok {
		return pgx.ErrNoRows
	}
	comentario.Contenido = contenido
	comentario.Editado = true
	return nil
}

func (r *fakeComentarioRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.comentarios[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.comentarios, id)
	return nil
}

func (r *fakeComentarioRepo) CreateArchivo(_ context.Context, archivo *domain.ComentarioArchivo) error {
	archivo.ID = uuid.NewString()
	archivo.CreatedAt = time.Now()
	r.archivos = append(r.archivos, *archivo)
	return nil
}

func (r *fakeComentarioRepo) ListArchivosByComentarios(_ context.Context, comentarioIDs []string) ([]domain.ComentarioArchivo, error) {
	ids := map[string]bool{}
	for _, id := range comentarioIDs {
		ids[id] = true
	}
	var result []domain.ComentarioArchivo
	for _, archivo := range r.archivos {
		if ids[archivo.ComentarioID] {
			result = append(result, archivo)
		}
	}
	return result, nil
}

func (r *fakeComentarioRepo) ListArchivosByTicket(ctx context.Context, ticketID string) ([]domain.ComentarioArchivo, error) {
	comentarios, _ := r.ListByTicket(ctx, ticketID)
	ids := make([]string, 0, len(comentarios))
	for _, comentario := range comentarios {
		ids = append(ids, comentario.ID)
	}
	return r.ListArchivosByComentarios(ctx, ids)
}

type fakeEmpresaRepo struct {
	empresas map[string]*domain.Empresa
}

func newFakeEmpresaRepo() *fakeEmpresaRepo {
	return &fakeEmpresaRepo{empresas: map[string]*domain.Empresa{}}
}

func (r *fakeEmpresaRepo) Create(_ context.Context, empresa *domain.Empresa) error {
	empresa.ID = uuid.NewString()
	empresa.CreatedAt = time.Now()
	clone := *empresa
	r.empresas[empresa.ID] = &clone
	return nil
}

func (r *fakeEmpresaRepo) Update(_ context.Context, empresa *domain.Empresa) error {
	if _, ok := r.empresas[empresa.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *empresa
	r.empresas[empresa.ID] = &clone
	return nil
}

func (r *fakeEmpresaRepo) GetByID(_ context.Context, id string) (*domain.Empresa, error) {
	empresa, ok := r.empresas[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *empresa
	return &clone, nil
}

func (r *fakeEmpresaRepo) List(_ context.Context) ([]domain.Empresa, error) {
	var result []domain.Empresa
	for _, empresa := range r.empresas {
		result = append(result, *empresa)
	}
	return result, nil
}

func (r *fakeEmpresaRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.empresas[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.empresas, id)
	return nil
}

type fakeDispositivoRepo struct {
	dispositivos map[string]*domain.Dispositivo
}

func newFakeDispositivoRepo() *fakeDispositivoRepo {
	return &fakeDispositivoRepo{dispositivos: map[string]*domain.Dispositivo{}}
}

func (r *fakeDispositivoRepo) Create(_ context.Context, dispositivo *domain.Dispositivo) error {
	dispositivo.ID = uuid.NewString()
	dispositivo.CreatedAt = time.Now()
	clone := *dispositivo
	r.dispositivos[dispositivo.ID] = &clone
	return nil
}

func (r *fakeDispositivoRepo) Update(_ context.Context, dispositivo *domain.Dispositivo) error {
	if _, ok := r.dispositivos[dispositivo.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *dispositivo
	r.dispositivos[dispositivo.ID] = &clone
	return nil
}

func (r *fakeDispositivoRepo) GetByID(_ context.Context, id string) (*domain.Dispositivo, error) {
	dispositivo, ok := r.dispositivos[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *dispositivo
	return &clone, nil
}

func (r *fakeDispositivoRepo) List(_ context.Context, empresaID *string) ([]domain.Dispositivo, error) {
	var result []domain.Dispositivo
	for _, dispositivo := range r.dispositivos {
		if empresaID != nil && dispositivo.EmpresaID != *empresaID {
			continue
		}
		result = append(result, *dispositivo)
	}
	return result, nil
}

func (r *fakeDispositivoRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.dispositivos[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.dispositivos, id)
	return nil
}

type fakeProfileRepo struct {
	profiles map[string]*domain.Profile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: map[string]*domain.Profile{}}
}

func (r *fakeProfileRepo) add(nombre, email string, rol domain.Rol) *domain.Profile {
	profile := &domain.Profile{
		ID:        uuid.NewString(),
		Nombre:    nombre,
		Email:     email,
		Rol:       rol,
		Activo:    true,
		CreatedAt: time.Now(),
	}
	r.profiles[profile.ID] = profile
	return profile
}

func (r *fakeProfileRepo) Create(_ context.Context, profile *domain.Profile) error {
	profile.ID = uuid.NewString()
	profile.CreatedAt = time.Now()
	clone := *profile
	r.profiles[profile.ID] = &clone
	return nil
}

func (r *fakeProfileRepo) Update(_ context.Context, profile *domain.Profile) error {
	if _, ok := r.profiles[profile.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *profile
	r.profiles[profile.ID] = &clone
	return nil
}

func (r *fakeProfileRepo) GetByID(_ context.Context, id string) (*domain.Profile, error) {
	profile, ok := r.profiles[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *profile
	return &clone, nil
}

func (r *fakeProfileRepo) GetByIDs(_ context.Context, ids []string) ([]domain.Profile, error) {
	var result []domain.Profile
	for _, id := range ids {
		if profile, ok := r.profiles[id]; ok {
			result = append(result, *profile)
		}
	}
	return result, nil
}

func (r *fakeProfileRepo) GetByEmail(_ context.Context, email string) (*domain.Profile, error) {
	for _, profile := range r.profiles {
		if strings.EqualFold(profile.Email, email) {
			clone := *profile
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeProfileRepo) List(_ context.Context) ([]domain.Profile, error) {
	var result []domain.Profile
	for _, profile := range r.profiles {
		result = append(result, *profile)
	}
	return result, nil
}

func (r *fakeProfileRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.profiles[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.profiles, id)
	return nil
}

type sentMail struct {
	to     string
	nombre string
	numero int64
}

type fakeMailer struct {
	sent    []sentMail
	failFor map[string]bool
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{failFor: map[string]bool{}}
}

func (m *fakeMailer) SendAsignacion(to, operarioNombre string, ticket *domain.Ticket, _ string) error {
	if m.failFor[to] {
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, sentMail{to: to, nombre: operarioNombre, numero: ticket.Numero})
	return nil
}

type storedObject struct {
	bucket string
	path   string
	size   int
}

type fakeObjectStore struct {
	objects    []storedObject
	removed    []string
	failUpload map[string]bool
	failRemove bool
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{failUpload: map[string]bool{}}
}

// failUpload is keyed by path suffix; object keys keep only the original
// file's extension, so tests select failures by extension.
func (s *fakeObjectStore) Upload(_ context.Context, bucket, path string, content []byte, _ string) error {
	for suffix := range s.failUpload {
		if strings.HasSuffix(path, suffix) {
			return errors.New("storage rejected object")
		}
	}
	s.objects = append(s.objects, storedObject{bucket: bucket, path: path, size: len(content)})
	return nil
}

func (s *fakeObjectStore) SignedURL(_ context.Context, bucket, path string, _ time.Duration) (string, error) {
	return "https://storage.test/" + bucket + "/" + path + "?signed", nil
}

func (s *fakeObjectStore) Remove(_ context.Context, _ string, paths []string) error {
	if s.failRemove {
		return errors.New("storage remove failed")
	}
	s.removed = append(s.removed, paths...)
	return nil
}
