package service

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/holainformatica/soporte-backend/internal/domain"
	"github.com/holainformatica/soporte-backend/pkg/util"
)

type fakeCanalRepo struct {
	canales  map[string]*domain.Canal
	miembros []domain.CanalMiembro
}

func newFakeCanalRepo() *fakeCanalRepo {
	return &fakeCanalRepo{canales: map[string]*domain.Canal{}}
}

func (r *fakeCanalRepo) Create(_ context.Context, canal *domain.Canal) error {
	canal.ID = uuid.NewString()
	canal.CreatedAt = time.Now()
	clone := *canal
	r.canales[canal.ID] = &clone
	return nil
}

func (r *fakeCanalRepo) GetByID(_ context.Context, id string) (*domain.Canal, error) {
	canal, ok := r.canales[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *canal
	return &clone, nil
}

func (r *fakeCanalRepo) ListByUser(ctx context.Context, userID string) ([]domain.Canal, error) {
	var result []domain.Canal
	for _, m := range r.miembros {
		if m.UserID == userID {
			if canal, ok := r.canales[m.CanalID]; ok {
				result = append(result, *canal)
			}
		}
	}
	return result, nil
}

func (r *fakeCanalRepo) Update(_ context.Context, canal *domain.Canal) error {
	stored, ok := r.canales[canal.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Nombre = canal.Nombre
	stored.Descripcion = canal.Descripcion
	return nil
}

func (r *fakeCanalRepo) NombreExists(_ context.Context, nombre string) (bool, error) {
	for _, canal := range r.canales {
		if canal.Tipo == domain.CanalTipoCanal && strings.EqualFold(canal.Nombre, nombre) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeCanalRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.canales[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.canales, id)
	return nil
}

func (r *fakeCanalRepo) AddMiembro(_ context.Context, miembro *domain.CanalMiembro) error {
	for _, m := range r.miembros {
		if m.CanalID == miembro.CanalID && m.UserID == miembro.UserID {
			return nil
		}
	}
	miembro.JoinedAt = time.Now()
	r.miembros = append(r.miembros, *miembro)
	return nil
}

func (r *fakeCanalRepo) RemoveMiembro(_ context.Context, canalID, userID string) error {
	for i, m := range r.miembros {
		if m.CanalID == canalID && m.UserID == userID {
			r.miembros = append(r.miembros[:i], r.miembros[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *fakeCanalRepo) ListMiembros(_ context.Context, canalID string) ([]domain.CanalMiembro, error) {
	var result []domain.CanalMiembro
	for _, m := range r.miembros {
		if m.CanalID == canalID {
			result = append(result, m)
		}
	}
	return result, nil
}

func (r *fakeCanalRepo) IsMiembro(_ context.Context, canalID, userID string) (bool, error) {
	for _, m := range r.miembros {
		if m.CanalID == canalID && m.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeCanalRepo) FindDirecto(ctx context.Context, userA, userB string) (*domain.Canal, error) {
	for _, canal := range r.canales {
		if canal.Tipo != domain.CanalTipoDirecto {
			continue
		}
		a, _ := r.IsMiembro(ctx, canal.ID, userA)
		b, _ := r.IsMiembro(ctx, canal.ID, userB)
		if a && b {
			clone := *canal
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeMensajeRepo struct {
	mensajes map[string]*domain.Mensaje
	archivos []domain.MensajeArchivo
	seq      int
}

func newFakeMensajeRepo() *fakeMensajeRepo {
	return &fakeMensajeRepo{mensajes: map[string]*domain.Mensaje{}}
}

func (r *fakeMensajeRepo) Create(_ context.Context, mensaje *domain.Mensaje) error {
	r.seq++
	mensaje.ID = uuid.NewString()
	mensaje.CreatedAt = time.Unix(int64(r.seq), 0)
	clone := *mensaje
	r.mensajes[mensaje.ID] = &clone
	return nil
}

func (r *fakeMensajeRepo) GetByID(_ context.Context, id string) (*domain.Mensaje, error) {
	mensaje, ok := r.mensajes[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *mensaje
	return &clone, nil
}

func (r *fakeMensajeRepo) ListByCanal(_ context.Context, canalID string, limit int, before *string) ([]domain.Mensaje, error) {
	var result []domain.Mensaje
	var cutoff *time.Time
	if before != nil {
		cursor, ok := r.mensajes[*before]
		if !ok {
			return nil, pgx.ErrNoRows
		}
		cutoff = &cursor.CreatedAt
	}
	for _, m := range r.mensajes {
		if m.CanalID != canalID {
			continue
		}
		if cutoff != nil && !m.CreatedAt.Before(*cutoff) {
			continue
		}
		result = append(result, *m)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	if len(result) > limit {
		result = result[len(result)-limit:]
	}
	return result, nil
}

func (r *fakeMensajeRepo) UpdateContenido(_ context.Context, id, contenido string) error {
	mensaje, ok := r.mensajes[id]
	if !ok {
		return pgx.ErrNoRows
	}
	mensaje.Contenido = contenido
	mensaje.Editado = true
	return nil
}

func (r *fakeMensajeRepo) SetAnclado(_ context.Context, id string, anclado bool) error {
	mensaje, ok := r.mensajes[id]
	if !ok {
		return pgx.ErrNoRows
	}
	mensaje.Anclado = anclado
	return nil
}

func (r *fakeMensajeRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.mensajes[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.mensajes, id)
	return nil
}

func (r *fakeMensajeRepo) CreateArchivo(_ context.Context, archivo *domain.MensajeArchivo) error {
	archivo.ID = uuid.NewString()
	archivo.CreatedAt = time.Now()
	r.archivos = append(r.archivos, *archivo)
	return nil
}

func (r *fakeMensajeRepo) ListArchivosByMensajes(_ context.Context, mensajeIDs []string) ([]domain.MensajeArchivo, error) {
	ids := map[string]bool{}
	for _, id := range mensajeIDs {
		ids[id] = true
	}
	var result []domain.MensajeArchivo
	for _, a := range r.archivos {
		if ids[a.MensajeID] {
			result = append(result, a)
		}
	}
	return result, nil
}

func (r *fakeMensajeRepo) ListArchivosByCanal(ctx context.Context, canalID string) ([]domain.MensajeArchivo, error) {
	var ids []string
	for _, m := range r.mensajes {
		if m.CanalID == canalID {
			ids = append(ids, m.ID)
		}
	}
	return r.ListArchivosByMensajes(ctx, ids)
}

type chatFixture struct {
	canales  *fakeCanalRepo
	mensajes *fakeMensajeRepo
	profiles *fakeProfileRepo
	store    *fakeObjectStore
	svc      *chatService

	admin    *domain.Profile
	operario *domain.Profile
	otra     *domain.Profile
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	f := &chatFixture{
		canales:  newFakeCanalRepo(),
		mensajes: newFakeMensajeRepo(),
		profiles: newFakeProfileRepo(),
		store:    newFakeObjectStore(),
	}
	f.admin = f.profiles.add("Ana Admin", "ana@hola.es", domain.RolAdmin)
	f.operario = f.profiles.add("Omar Operario", "omar@hola.es", domain.RolTrabajador)
	f.otra = f.profiles.add("Olga Operaria", "olga@hola.es", domain.RolTrabajador)

	svc := NewChatService(f.canales, f.mensajes, f.profiles, f.store, "chat", time.Hour, zap.NewNop()).(*chatService)
	svc.now = func() time.Time { return fixedNow }
	f.svc = svc
	return f
}

func TestCrearCanal(t *testing.T) {
	f := newChatFixture(t)

	canal, err := f.svc.CrearCanal(context.Background(), CrearCanalInput{
		Nombre:   "soporte",
		Miembros: []string{f.otra.ID},
	}, f.operario)
	require.NoError(t, err)

	assert.Equal(t, domain.CanalTipoCanal, canal.Tipo)
	require.Len(t, canal.Miembros, 2)
	roles := map[string]domain.RolCanal{}
	for _, m := range canal.Miembros {
		roles[m.UserID] = m.Rol
	}
	assert.Equal(t, domain.CanalRolAdmin, roles[f.operario.ID], "the creator joins as channel admin")
	assert.Equal(t, domain.CanalRolMiembro, roles[f.otra.ID])
}

func TestCrearCanalNombreDuplicado(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	_, err := f.svc.CrearCanal(ctx, CrearCanalInput{Nombre: "Soporte"}, f.operario)
	require.NoError(t, err)

	_, err = f.svc.CrearCanal(ctx, CrearCanalInput{Nombre: "soporte"}, f.admin)
	assert.Equal(t, "CONFLICT", util.ToDomainError(err).Code, "channel names are unique case-insensitively")
}

func TestActualizarCanal(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	canal, err := f.svc.CrearCanal(ctx, CrearCanalInput{Nombre: "soporte", Miembros: []string{f.otra.ID}}, f.operario)
	require.NoError(t, err)

	// plain members cannot edit
	nombre := "incidencias"
	_, err = f.svc.ActualizarCanal(ctx, canal.ID, ActualizarCanalInput{Nombre: &nombre}, f.otra)
	assert.Equal(t, "FORBIDDEN", util.ToDomainError(err).Code)

	descripcion := "averias y dudas"
	updated, err := f.svc.ActualizarCanal(ctx, canal.ID, ActualizarCanalInput{
		Nombre:      &nombre,
		Descripcion: &descripcion,
	}, f.operario)
	require.NoError(t, err)
	assert.Equal(t, "incidencias", updated.Nombre)
	require.NotNil(t, updated.Descripcion)
	assert.Equal(t, "averias y dudas", *updated.Descripcion)

	// renaming onto another channel's name is refused
	_, err = f.svc.CrearCanal(ctx, CrearCanalInput{Nombre: "general"}, f.admin)
	require.NoError(t, err)
	otro := "General"
	_, err = f.svc.ActualizarCanal(ctx, canal.ID, ActualizarCanalInput{Nombre: &otro}, f.operario)
	assert.Equal(t, "CONFLICT", util.ToDomainError(err).Code)
}

func TestActualizarCanalReemplazaMiembros(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	canal, err := f.svc.CrearCanal(ctx, CrearCanalInput{Nombre: "soporte", Miembros: []string{f.otra.ID}}, f.operario)
	require.NoError(t, err)

	// replacement omitting the caller still keeps them in the channel
	miembros := []string{f.admin.ID}
	updated, err := f.svc.ActualizarCanal(ctx, canal.ID, ActualizarCanalInput{Miembros: &miembros}, f.operario)
	require.NoError(t, err)

	ids := map[string]bool{}
	for _, m := range updated.Miembros {
		ids[m.UserID] = true
	}
	assert.True(t, ids[f.operario.ID])
	assert.True(t, ids[f.admin.ID])
	assert.False(t, ids[f.otra.ID], "members left out of the replacement are removed")
}

func TestActualizarDirectoRechazado(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	directo, err := f.svc.AbrirDirecto(ctx, f.otra.ID, f.operario)
	require.NoError(t, err)

	nombre := "otro nombre"
	_, err = f.svc.ActualizarCanal(ctx, directo.ID, ActualizarCanalInput{Nombre: &nombre}, f.operario)
	assert.Equal(t, "VALIDATION_FAILED", util.ToDomainError(err).Code)
}

func TestAbrirDirectoReusesExisting(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	primero, err := f.svc.AbrirDirecto(ctx, f.otra.ID, f.operario)
	require.NoError(t, err)
	assert.Equal(t, domain.CanalTipoDirecto, primero.Tipo)
	assert.Equal(t, "Olga Operaria", primero.Nombre)
	assert.Len(t, primero.Miembros, 2)

	// opening from either side lands on the same conversation
	segundo, err := f.svc.AbrirDirecto(ctx, f.operario.ID, f.otra)
	require.NoError(t, err)
	assert.Equal(t, primero.ID, segundo.ID)
}

func TestAbrirDirectoConUnoMismo(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.svc.AbrirDirecto(context.Background(), f.operario.ID, f.operario)
	assert.Equal(t, "VALIDATION_FAILED", util.ToDomainError(err).Code)
}

func TestDirectoNoAdmiteMiembros(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	directo, err := f.svc.AbrirDirecto(ctx, f.otra.ID, f.operario)
	require.NoError(t, err)

	err = f.svc.AddMiembro(ctx, directo.ID, f.admin.ID, f.admin)
	assert.Equal(t, "VALIDATION_FAILED", util.ToDomainError(err).Code)
	err = f.svc.RemoveMiembro(ctx, directo.ID, f.otra.ID, f.admin)
	assert.Equal(t, "VALIDATION_FAILED", util.ToDomainError(err).Code)
}

func TestRemoveMiembroPermissions(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	canal, err := f.svc.CrearCanal(ctx, CrearCanalInput{Nombre: "general", Miembros: []string{f.otra.ID}}, f.operario)
	require.NoError(t, err)

	// a plain member cannot remove someone else
	err = f.svc.RemoveMiembro(ctx, canal.ID, f.operario.ID, f.otra)
	assert.Equal(t, "FORBIDDEN", util.ToDomainError(err).Code)

	// but anyone may leave
	require.NoError(t, f.svc.RemoveMiembro(ctx, canal.ID, f.otra.ID, f.otra))
	ok, err := f.canales.IsMiembro(ctx, canal.ID, f.otra.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEnviarMensajeRequiresMembership(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	canal, err := f.svc.CrearCanal(ctx, CrearCanalInput{Nombre: "general"}, f.operario)
	require.NoError(t, err)

	_, err = f.svc.EnviarMensaje(ctx, EnviarMensajeInput{CanalID: canal.ID, Contenido: "hola"}, f.otra)
	assert.Equal(t, "FORBIDDEN", util.ToDomainError(err).Code)

	mensaje, err := f.svc.EnviarMensaje(ctx, EnviarMensajeInput{CanalID: canal.ID, Contenido: "hola"}, f.operario)
	require.NoError(t, err)
	assert.Equal(t, f.operario.ID, mensaje.UserID)
}

func TestEnviarMensajeConArchivo(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	canal, err := f.svc.CrearCanal(ctx, CrearCanalInput{Nombre: "general"}, f.operario)
	require.NoError(t, err)

	mensaje, err := f.svc.EnviarMensaje(ctx, EnviarMensajeInput{
		CanalID:  canal.ID,
		Archivos: []UploadFile{{Nombre: "captura.png", ContentType: "image/png", Contenido: []byte("png")}},
	}, f.operario)
	require.NoError(t, err, "attachments alone make a valid message")

	require.Len(t, mensaje.Archivos, 1)
	require.Len(t, f.store.objects, 1)
	assert.Equal(t, "chat", f.store.objects[0].bucket)

	page, err := f.svc.ListMensajes(ctx, ListarMensajesInput{CanalID: canal.ID}, f.operario)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Len(t, page[0].Archivos, 1)
	assert.Contains(t, page[0].Archivos[0].URL, "?signed", "attachments list with a signed download link")
}

func TestEnviarMensajeRejectsOnlyInvalidFiles(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	canal, err := f.svc.CrearCanal(ctx, CrearCanalInput{Nombre: "general"}, f.operario)
	require.NoError(t, err)

	// no text and nothing storable: the message row must not be created
	_, err = f.svc.EnviarMensaje(ctx, EnviarMensajeInput{
		CanalID:  canal.ID,
		Archivos: []UploadFile{{Nombre: "vacio.txt", Contenido: nil}},
	}, f.operario)
	assert.Equal(t, "VALIDATION_FAILED", util.ToDomainError(err).Code)

	page, err := f.svc.ListMensajes(ctx, ListarMensajesInput{CanalID: canal.ID}, f.operario)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestListMensajesPagination(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	canal, err := f.svc.CrearCanal(ctx, CrearCanalInput{Nombre: "general"}, f.operario)
	require.NoError(t, err)

	var ids []string
	for _, texto := range []string{"uno", "dos", "tres", "cuatro"} {
		m, err := f.svc.EnviarMensaje(ctx, EnviarMensajeInput{CanalID: canal.ID, Contenido: texto}, f.operario)
		require.NoError(t, err)
		ids = append(ids, m.ID)
	}

	page, err := f.svc.ListMensajes(ctx, ListarMensajesInput{CanalID: canal.ID, Limit: 2}, f.operario)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "tres", page[0].Contenido, "newest page, oldest first")
	assert.Equal(t, "cuatro", page[1].Contenido)

	earlier, err := f.svc.ListMensajes(ctx, ListarMensajesInput{CanalID: canal.ID, Limit: 2, Before: &ids[2]}, f.operario)
	require.NoError(t, err)
	require.Len(t, earlier, 2)
	assert.Equal(t, "uno", earlier[0].Contenido)
	assert.Equal(t, "dos", earlier[1].Contenido)
}

func TestEditarMensajeAuthorOnly(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	canal, err := f.svc.CrearCanal(ctx, CrearCanalInput{Nombre: "general", Miembros: []string{f.otra.ID}}, f.operario)
	require.NoError(t, err)
	mensaje, err := f.svc.EnviarMensaje(ctx, EnviarMensajeInput{CanalID: canal.ID, Contenido: "hola"}, f.operario)
	require.NoError(t, err)

	_, err = f.svc.EditarMensaje(ctx, mensaje.ID, "editado", f.otra)
	assert.Equal(t, "FORBIDDEN", util.ToDomainError(err).Code)

	updated, err := f.svc.EditarMensaje(ctx, mensaje.ID, "editado", f.operario)
	require.NoError(t, err)
	assert.True(t, updated.Editado)
}

func TestAnclarMensaje(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	canal, err := f.svc.CrearCanal(ctx, CrearCanalInput{Nombre: "general", Miembros: []string{f.otra.ID}}, f.operario)
	require.NoError(t, err)
	mensaje, err := f.svc.EnviarMensaje(ctx, EnviarMensajeInput{CanalID: canal.ID, Contenido: "importante"}, f.operario)
	require.NoError(t, err)

	// any member may pin, not just the author
	require.NoError(t, f.svc.AnclarMensaje(ctx, mensaje.ID, true, f.otra))
	stored, err := f.mensajes.GetByID(ctx, mensaje.ID)
	require.NoError(t, err)
	assert.True(t, stored.Anclado)
}

func TestEliminarCanalCleansStorage(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	canal, err := f.svc.CrearCanal(ctx, CrearCanalInput{Nombre: "general", Miembros: []string{f.otra.ID}}, f.operario)
	require.NoError(t, err)
	mensaje, err := f.svc.EnviarMensaje(ctx, EnviarMensajeInput{
		CanalID:  canal.ID,
		Archivos: []UploadFile{{Nombre: "doc.pdf", Contenido: []byte("pdf")}},
	}, f.operario)
	require.NoError(t, err)

	// plain member cannot drop the channel
	err = f.svc.EliminarCanal(ctx, canal.ID, f.otra)
	assert.Equal(t, "FORBIDDEN", util.ToDomainError(err).Code)

	require.NoError(t, f.svc.EliminarCanal(ctx, canal.ID, f.operario))
	assert.Equal(t, []string{mensaje.Archivos[0].StoragePath}, f.store.removed)
	_, err = f.canales.GetByID(ctx, canal.ID)
	assert.Error(t, err)
}
