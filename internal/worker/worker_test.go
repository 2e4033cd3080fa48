package worker

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"cuentame/internal/infra"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

type pushed struct {
	key  string
	data []byte
}

type stubPusher struct {
	pushes []pushed
	err    error
}

func (s *stubPusher) LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if s.err != nil {
		cmd.SetErr(s.err)
		return cmd
	}
	for _, v := range values {
		b, _ := v.([]byte)
		s.pushes = append(s.pushes, pushed{key: key, data: b})
	}
	cmd.SetVal(int64(len(s.pushes)))
	return cmd
}

type funcProcessor func(ctx context.Context, payload json.RawMessage) error

func (f funcProcessor) Process(ctx context.Context, payload json.RawMessage) error { return f(ctx, payload) }

type stubMailer struct {
	enviados []string
	err      error
}

func (m *stubMailer) EnviarOTP(to, _, otp string) error {
	m.enviados = append(m.enviados, "otp:"+to+":"+otp)
	return m.err
}
func (m *stubMailer) EnviarRecuperacion(to, _, link string) error {
	m.enviados = append(m.enviados, "recuperacion:"+to+":"+link)
	return m.err
}
func (m *stubMailer) EnviarConfirmacion(to, _, link string) error {
	m.enviados = append(m.enviados, "confirmacion:"+to+":"+link)
	return m.err
}

type stubSubidor struct {
	url   string
	err   error
	calls int
}

func (s *stubSubidor) Subir(_ context.Context, _, _, _ string) (string, error) {
	s.calls++
	return s.url, s.err
}

type stubImagenRepo struct {
	urls map[uuid.UUID]string
	err  error
}

func (r *stubImagenRepo) SetImagen(_ context.Context, _ string, id uuid.UUID, url string) error {
	if r.err != nil {
		return r.err
	}
	r.urls[id] = url
	return nil
}

func encodeJob(t *testing.T, attempts int, payload interface{}) string {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	raw, err := json.Marshal(Job{ID: "job-1", Type: "email", Payload: data, Attempts: attempts})
	require.NoError(t, err)
	return string(raw)
}

// ── Pool ──────────────────────────────────────────────────────────────────────

func TestProcessJob_Exito(t *testing.T) {
	pusher := &stubPusher{}
	p := &Pool{pusher: pusher, handlers: map[string]Processor{
		QueueEmail: funcProcessor(func(context.Context, json.RawMessage) error { return nil }),
	}}

	res := p.processJob(context.Background(), QueueEmail, encodeJob(t, 0, EmailJobPayload{Para: "a@b.ec"}))

	assert.Equal(t, "ok", res)
	assert.Empty(t, pusher.pushes)
}

func TestProcessJob_FalloReencola(t *testing.T) {
	pusher := &stubPusher{}
	p := &Pool{pusher: pusher, handlers: map[string]Processor{
		QueueEmail: funcProcessor(func(context.Context, json.RawMessage) error { return errors.New("smtp down") }),
	}}

	res := p.processJob(context.Background(), QueueEmail, encodeJob(t, 0, EmailJobPayload{Para: "a@b.ec"}))

	assert.Equal(t, "retry", res)
	require.Len(t, pusher.pushes, 1)
	assert.Equal(t, QueueEmail, pusher.pushes[0].key)
	var job Job
	require.NoError(t, json.Unmarshal(pusher.pushes[0].data, &job))
	assert.Equal(t, 1, job.Attempts)
	assert.Equal(t, "job-1", job.ID)
}

func TestProcessJob_AgotaIntentos_DLQ(t *testing.T) {
	pusher := &stubPusher{}
	p := &Pool{pusher: pusher, handlers: map[string]Processor{
		QueueEmail: funcProcessor(func(context.Context, json.RawMessage) error { return errors.New("smtp down") }),
	}}

	res := p.processJob(context.Background(), QueueEmail, encodeJob(t, MaxAttempts-1, EmailJobPayload{Para: "a@b.ec"}))

	assert.Equal(t, "dlq", res)
	require.Len(t, pusher.pushes, 1)
	assert.Equal(t, DLQPrefix+QueueEmail, pusher.pushes[0].key)
	var entry DLQEntry
	require.NoError(t, json.Unmarshal(pusher.pushes[0].data, &entry))
	assert.Equal(t, MaxAttempts, entry.Intentos)
	assert.Equal(t, "smtp down", entry.Motivo)
	assert.Equal(t, QueueEmail, entry.Cola)
	assert.NotEmpty(t, entry.JobID)
}

func TestProcessJob_ErrorPermanente_DLQDirecto(t *testing.T) {
	pusher := &stubPusher{}
	p := &Pool{pusher: pusher, handlers: map[string]Processor{
		QueueEmail: NewEmailWorker(&stubMailer{}),
	}}

	res := p.processJob(context.Background(), QueueEmail, encodeJob(t, 0, EmailJobPayload{Tipo: "spam", Para: "a@b.ec"}))

	assert.Equal(t, "dlq", res)
	require.Len(t, pusher.pushes, 1)
	assert.Equal(t, DLQPrefix+QueueEmail, pusher.pushes[0].key)
}

func TestProcessJob_EnvelopeInvalido(t *testing.T) {
	pusher := &stubPusher{}
	p := &Pool{pusher: pusher, handlers: map[string]Processor{}}

	res := p.processJob(context.Background(), QueueEmail, "{not json")

	assert.Equal(t, "dlq", res)
	require.Len(t, pusher.pushes, 1)
}

func TestDispatcher_EncolarEmail(t *testing.T) {
	pusher := &stubPusher{}
	d := &Dispatcher{rdb: pusher}

	err := d.EncolarEmail(context.Background(), EmailJobPayload{Tipo: EmailOTP, Para: "a@b.ec", Valor: "123456"})

	require.NoError(t, err)
	require.Len(t, pusher.pushes, 1)
	assert.Equal(t, QueueEmail, pusher.pushes[0].key)
	var job Job
	require.NoError(t, json.Unmarshal(pusher.pushes[0].data, &job))
	assert.Equal(t, "email", job.Type)
	assert.NotEmpty(t, job.ID)
	assert.Zero(t, job.Attempts)
}

func TestDispatcher_RedisCaido(t *testing.T) {
	d := &Dispatcher{rdb: &stubPusher{err: errors.New("connection refused")}}
	err := d.EncolarImagen(context.Background(), ImagenJobPayload{Entidad: "producto"})
	assert.Error(t, err)
}

// ── EmailWorker ───────────────────────────────────────────────────────────────

func TestEmailWorker_DespachaPorTipo(t *testing.T) {
	m := &stubMailer{}
	w := NewEmailWorker(m)
	for _, tipo := range []string{EmailOTP, EmailRecuperacion, EmailConfirmacion} {
		raw, _ := json.Marshal(EmailJobPayload{Tipo: tipo, Para: "ana@correo.ec", Valor: "v"})
		require.NoError(t, w.Process(context.Background(), raw))
	}
	assert.Equal(t, []string{
		"otp:ana@correo.ec:v",
		"recuperacion:ana@correo.ec:v",
		"confirmacion:ana@correo.ec:v",
	}, m.enviados)
}

func TestEmailWorker_FalloSMTP_Reintenta(t *testing.T) {
	w := NewEmailWorker(&stubMailer{err: errors.New("dial tcp: timeout")})
	raw, _ := json.Marshal(EmailJobPayload{Tipo: EmailOTP, Para: "ana@correo.ec", Valor: "123456"})
	err := w.Process(context.Background(), raw)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrPermanente)
}

func TestEmailWorker_SinDestinatario(t *testing.T) {
	m := &stubMailer{}
	raw, _ := json.Marshal(EmailJobPayload{Tipo: EmailOTP})
	assert.NoError(t, NewEmailWorker(m).Process(context.Background(), raw))
	assert.Empty(t, m.enviados)
}

// ── ImagenWorker ──────────────────────────────────────────────────────────────

func tmpImagen(t *testing.T) string {
	t.Helper()
	ruta := filepath.Join(t.TempDir(), "img.jpg")
	require.NoError(t, os.WriteFile(ruta, []byte("jpeg"), 0644))
	return ruta
}

func imagenPayload(t *testing.T, id uuid.UUID, ruta string) json.RawMessage {
	raw, err := json.Marshal(ImagenJobPayload{Entidad: "producto", ID: id.String(), Carpeta: "productos", Ruta: ruta})
	require.NoError(t, err)
	return raw
}

func TestImagenWorker_AsociaYBorraTemporal(t *testing.T) {
	id := uuid.New()
	ruta := tmpImagen(t)
	repo := &stubImagenRepo{urls: map[uuid.UUID]string{}}
	store := &stubSubidor{url: "https://cdn/x.jpg"}
	w := NewImagenWorker(store, infra.NewCircuitBreaker("cdn", infra.DefaultCBConfig()), repo)

	require.NoError(t, w.Process(context.Background(), imagenPayload(t, id, ruta)))

	assert.Equal(t, "https://cdn/x.jpg", repo.urls[id])
	_, err := os.Stat(ruta)
	assert.True(t, os.IsNotExist(err))
}

func TestImagenWorker_FalloCDN_ConservaTemporal(t *testing.T) {
	id := uuid.New()
	ruta := tmpImagen(t)
	repo := &stubImagenRepo{urls: map[uuid.UUID]string{}}
	w := NewImagenWorker(&stubSubidor{err: errors.New("503")}, infra.NewCircuitBreaker("cdn", infra.DefaultCBConfig()), repo)

	err := w.Process(context.Background(), imagenPayload(t, id, ruta))

	assert.Error(t, err)
	assert.Empty(t, repo.urls)
	_, statErr := os.Stat(ruta)
	assert.NoError(t, statErr)
}

func TestImagenWorker_CircuitoAbierto_NoLlamaCDN(t *testing.T) {
	cb := infra.NewCircuitBreaker("cdn", infra.CircuitBreakerConfig{FailureThreshold: 1, OpenTimeout: time.Hour})
	_ = cb.Execute(func() error { return errors.New("boom") })
	store := &stubSubidor{url: "https://cdn/x.jpg"}
	w := NewImagenWorker(store, cb, &stubImagenRepo{urls: map[uuid.UUID]string{}})

	err := w.Process(context.Background(), imagenPayload(t, uuid.New(), tmpImagen(t)))

	assert.ErrorIs(t, err, infra.ErrCircuitOpen)
	assert.Zero(t, store.calls)
}

func TestImagenWorker_EntidadEliminada_Descarta(t *testing.T) {
	ruta := tmpImagen(t)
	repo := &stubImagenRepo{err: gorm.ErrRecordNotFound}
	w := NewImagenWorker(&stubSubidor{url: "https://cdn/x.jpg"}, infra.NewCircuitBreaker("cdn", infra.DefaultCBConfig()), repo)

	assert.NoError(t, w.Process(context.Background(), imagenPayload(t, uuid.New(), ruta)))
}

func TestImagenWorker_ArchivoPerdido_Permanente(t *testing.T) {
	w := NewImagenWorker(&stubSubidor{}, infra.NewCircuitBreaker("cdn", infra.DefaultCBConfig()), &stubImagenRepo{})
	err := w.Process(context.Background(), imagenPayload(t, uuid.New(), "/no/existe.jpg"))
	assert.ErrorIs(t, err, ErrPermanente)
}

// ── Cleanup ───────────────────────────────────────────────────────────────────

type stubCleaner struct {
	n   int64
	err error
	at  time.Time
}

func (c *stubCleaner) ClearExpiredOTP(_ context.Context, now time.Time) (int64, error) {
	c.at = now
	return c.n, c.err
}

func TestLimpiarOTP(t *testing.T) {
	c := &stubCleaner{n: 3}
	now := time.Now()
	limpiarOTP(context.Background(), c, now)
	assert.Equal(t, now, c.at)

	// errors are logged, not propagated
	limpiarOTP(context.Background(), &stubCleaner{err: errors.New("db down")}, now)
}

func TestBarrerSubidas_SoloArchivosViejos(t *testing.T) {
	dir := t.TempDir()
	viejo := filepath.Join(dir, "viejo.jpg")
	nuevo := filepath.Join(dir, "nuevo.png")
	require.NoError(t, os.WriteFile(viejo, []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(nuevo, []byte("x"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	now := time.Now()
	hace := now.Add(-SubidasTTL - time.Hour)
	require.NoError(t, os.Chtimes(viejo, hace, hace))

	assert.Equal(t, 1, barrerSubidas(dir, now.Add(-SubidasTTL)))
	_, err := os.Stat(viejo)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(nuevo)
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "sub"))
	assert.NoError(t, err)
}

func TestBarrerSubidas_DirectorioInexistente(t *testing.T) {
	assert.Zero(t, barrerSubidas(filepath.Join(t.TempDir(), "no-existe"), time.Now()))
}

type stubPopper struct {
	llamadas atomic.Int32
}

func (s *stubPopper) BRPop(ctx context.Context, _ time.Duration, _ ...string) *redis.StringSliceCmd {
	s.llamadas.Add(1)
	return redis.NewStringSliceResult(nil, errors.New("dial tcp: connection refused"))
}

func TestPool_EsperaTrasErrorDeRedis(t *testing.T) {
	popper := &stubPopper{}
	p := &Pool{rdb: popper, handlers: map[string]Processor{}, backoff: 50 * time.Millisecond}

	ctx, cancel := context.WithTimeout(context.Background(), 220*time.Millisecond)
	defer cancel()
	p.Start(ctx, 1)
	p.Wait()

	n := popper.llamadas.Load()
	assert.GreaterOrEqual(t, n, int32(2))
	assert.LessOrEqual(t, n, int32(6))
}
