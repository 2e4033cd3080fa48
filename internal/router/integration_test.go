//go:build integration

package router_test

// Flujo completo contra Postgres + Redis reales levantados con testcontainers.
// Run with: go test -tags integration ./internal/router/... -v

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path"
	"sync"
	"testing"

	"cuentame/internal/infra"
	"cuentame/internal/router"
	"cuentame/internal/worker"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

// buzon captures queued emails so the test can read OTPs and links.
type buzon struct {
	mu     sync.Mutex
	emails []worker.EmailJobPayload
}

func (b *buzon) EncolarEmail(_ context.Context, p worker.EmailJobPayload) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.emails = append(b.emails, p)
	return nil
}

func (b *buzon) EncolarImagen(context.Context, worker.ImagenJobPayload) error { return nil }

func (b *buzon) ultimo(t *testing.T, para, tipo string) string {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.emails) - 1; i >= 0; i-- {
		if e := b.emails[i]; e.Para == para && e.Tipo == tipo {
			return e.Valor
		}
	}
	t.Fatalf("no se encoló un correo %q para %s", tipo, para)
	return ""
}

type cliente struct {
	t   *testing.T
	srv *httptest.Server
}

func (c cliente) do(method, ruta string, body any, token string, dest any) int {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, c.srv.URL+ruta, &buf)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.srv.Client().Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	if dest != nil && resp.StatusCode < 300 {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(dest))
	}
	return resp.StatusCode
}

// ── Setup ────────────────────────────────────────────────────────────────────

func setupIntegracion(t *testing.T) (cliente, *buzon) {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.Run(ctx, "postgres:16-alpine",
		tcPostgres.WithDatabase("cuentame_test"),
		tcPostgres.WithUsername("cuentame"),
		tcPostgres.WithPassword("cuentame"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(pgC) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(rdC) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := testConfig()
	cfg.DatabaseURL = pgURL
	cfg.RedisURL = rdURL
	cfg.JWTExpirationHours = 1
	cfg.PDFStoragePath = t.TempDir()
	cfg.UploadTmpPath = t.TempDir()

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)
	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	b := &buzon{}
	srv := httptest.NewServer(router.New(cfg, db, rdb, b))
	t.Cleanup(srv.Close)
	return cliente{t: t, srv: srv}, b
}

type login struct {
	AccessToken string `json:"access_token"`
}

// ── Flujo ────────────────────────────────────────────────────────────────────

func TestIntegracion_CompraCompleta(t *testing.T) {
	c, b := setupIntegracion(t)

	// Administrador: registro, confirmación por enlace y login.
	adminCorreo := "admin@cuentame.test"
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/v1/admin/registro", map[string]string{
		"nombre": "Admin", "correo": adminCorreo, "password": "secreto123", "telefono": "0991234567",
	}, "", nil))
	var noConfirmado login
	assert.Equal(t, http.StatusForbidden, c.do(http.MethodPost, "/v1/admin/login", map[string]string{
		"correo": adminCorreo, "password": "secreto123",
	}, "", &noConfirmado))

	enlace := b.ultimo(t, adminCorreo, worker.EmailConfirmacion)
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/v1/admin/confirmar/"+path.Base(enlace), nil, "", nil))

	var adminLogin login
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/v1/admin/login", map[string]string{
		"correo": adminCorreo, "password": "secreto123",
	}, "", &adminLogin))
	require.NotEmpty(t, adminLogin.AccessToken)

	// Catálogo.
	var prod struct {
		ID string `json:"id"`
	}
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/v1/productos", map[string]any{
		"nombre": "Chocolates", "descripcion": "Caja de bombones", "precio": "12.50",
		"stock": 30, "categoria": "predefinida",
	}, adminLogin.AccessToken, &prod))

	var pre struct {
		ID string `json:"id"`
	}
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/v1/cajas-predefinidas", map[string]any{
		"nombre": "Caja Aniversario", "descripcion": "Rosas y chocolates", "stock": 5, "precio": "26.00",
	}, adminLogin.AccessToken, &pre))

	// Cliente: registro, OTP y login.
	correo := "ana@cuentame.test"
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/v1/usuarios/registro", map[string]string{
		"nombre": "Ana", "correo": correo, "password": "clave-segura", "telefono": "0987654321",
	}, "", nil))
	otp := b.ultimo(t, correo, worker.EmailOTP)
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/v1/usuarios/otp/verificar", map[string]string{
		"correo": correo, "otp": otp,
	}, "", nil))

	var userLogin login
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/v1/usuarios/login", map[string]string{
		"correo": correo, "password": "clave-segura",
	}, "", &userLogin))
	token := userLogin.AccessToken

	// El cliente no puede escribir en el catálogo.
	assert.Equal(t, http.StatusForbidden, c.do(http.MethodPost, "/v1/productos", map[string]any{
		"nombre": "Pirata", "precio": "1.00", "categoria": "predefinida",
	}, token, nil))

	// Dirección predeterminada.
	var dir struct {
		ID        string `json:"id"`
		IsDefault bool   `json:"is_default"`
	}
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/v1/direcciones", map[string]any{
		"alias": "Casa", "parroquia": "El Sagrario", "calle_principal": "Bolívar",
		"numero_casa": "7-45", "is_default": true,
	}, token, &dir))
	assert.True(t, dir.IsDefault)
	assert.Equal(t, http.StatusConflict, c.do(http.MethodPost, "/v1/direcciones", map[string]any{
		"alias": "Casa", "parroquia": "Totoracocha", "calle_principal": "Av. Hurtado",
		"numero_casa": "2-10",
	}, token, nil))

	// Orden a domicilio: 2 × 12.50 + 1 × 26.00.
	var orden struct {
		ID     string          `json:"id"`
		Estado string          `json:"estado"`
		Total  decimal.Decimal `json:"total"`
	}
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/v1/ordenes", map[string]any{
		"contenido": map[string]any{
			"productos_individuales": []map[string]any{{"producto_id": prod.ID, "cantidad": 2}},
			"cajas_predefinidas":     []map[string]any{{"caja_id": pre.ID, "cantidad": 1}},
		},
		"tipo_entrega": "domicilio",
		"direccion_id": dir.ID,
	}, token, &orden))
	assert.Equal(t, "pendiente", orden.Estado)
	assert.True(t, orden.Total.Equal(decimal.RequireFromString("51.00")), "total: %s", orden.Total)

	// El producto referenciado ya no se puede borrar.
	assert.Equal(t, http.StatusConflict, c.do(http.MethodDelete, "/v1/productos/"+prod.ID, nil, adminLogin.AccessToken, nil))

	// El administrador ve la orden y la marca como pagada.
	var todas []struct {
		ID string `json:"id"`
	}
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/v1/admin/ordenes", nil, adminLogin.AccessToken, &todas))
	require.Len(t, todas, 1)
	require.Equal(t, http.StatusOK, c.do(http.MethodPut, "/v1/ordenes/"+orden.ID+"/estado",
		map[string]string{"estado": "pagada"}, adminLogin.AccessToken, &orden))
	assert.Equal(t, "pagada", orden.Estado)

	// Logout revoca el token en Redis.
	require.Equal(t, http.StatusNoContent, c.do(http.MethodPost, "/v1/usuarios/logout", nil, token, nil))
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/v1/usuarios/perfil", nil, token, nil))
}
