package service_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"cuentame/internal/apierror"
	"cuentame/internal/dto"
	"cuentame/internal/model"
	"cuentame/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ventanaEdicion = 4 * time.Hour

type cajaFixture struct {
	svc       service.CajaService
	repo      *stubCajaRepo
	productos *stubProductoRepo
	enc       *stubEncolador
	reloj     *reloj
}

func newCajaFixture() cajaFixture {
	rl := &reloj{t: time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)}
	repo := newStubCajaRepo(rl.now)
	productos := newStubProductoRepo()
	enc := &stubEncolador{}
	return cajaFixture{
		svc:       service.NewCajaService(repo, productos, enc, ventanaEdicion, rl.now),
		repo:      repo,
		productos: productos,
		enc:       enc,
		reloj:     rl,
	}
}

func strPtr(s string) *string { return &s }

func personalizableReq() dto.CrearCajaRequest {
	return dto.CrearCajaRequest{
		Nombre:      "Caja cumpleaños",
		Tipo:        model.TipoCajaPersonalizable,
		Dimensiones: map[string]dto.ValorDimension{"20x20": "12.50", "15x15": "7"},
		Colores:     []string{"rojo", "azul"},
		Decoracion:  strPtr("Globos y cintas doradas"),
	}
}

// ── DecodificarCaja / ValidarConfiguracion ───────────────────────────────────

func TestDecodificarCaja_RechazaCamposDeOtraVariante(t *testing.T) {
	req := personalizableReq()
	precio := decimal.NewFromInt(10)
	req.Precio = &precio
	_, err := service.DecodificarCaja(req)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apierror.HTTPStatus(err))

	pre := dto.CrearCajaRequest{Nombre: "x", Tipo: model.TipoCajaPredefinida, Precio: &precio, Colores: []string{"rojo"}}
	_, err = service.DecodificarCaja(pre)
	require.Error(t, err)
}

func TestDecodificarCaja_TipoDesconocido(t *testing.T) {
	_, err := service.DecodificarCaja(dto.CrearCajaRequest{Tipo: "sorpresa"})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apierror.HTTPStatus(err))
}

func TestValidarConfiguracion(t *testing.T) {
	base := func() service.ConfigPersonalizable {
		return service.ConfigPersonalizable{
			Dimensiones: map[string]string{"20x20": "10"},
			Colores:     []string{"verde"},
			Decoracion:  "Flores secas y lazo",
		}
	}
	cases := []struct {
		name   string
		mutate func(*service.ConfigPersonalizable)
		code   string
	}{
		{"valida", func(*service.ConfigPersonalizable) {}, ""},
		{"sin dimensiones", func(c *service.ConfigPersonalizable) { c.Dimensiones = map[string]string{} }, apierror.CodeInvalidDimension},
		{"dimension no permitida", func(c *service.ConfigPersonalizable) { c.Dimensiones = map[string]string{"99x99": "5"} }, apierror.CodeInvalidDimension},
		{"precio no numerico", func(c *service.ConfigPersonalizable) { c.Dimensiones = map[string]string{"20x20": "diez"} }, apierror.CodeInvalidDimension},
		{"precio negativo", func(c *service.ConfigPersonalizable) { c.Dimensiones = map[string]string{"20x20": "-1"} }, apierror.CodeInvalidDimension},
		{"exponente enorme", func(c *service.ConfigPersonalizable) { c.Dimensiones = map[string]string{"20x20": "1e50000000"} }, apierror.CodeInvalidDimension},
		{"exponente negativo enorme", func(c *service.ConfigPersonalizable) { c.Dimensiones = map[string]string{"20x20": "1e-50000000"} }, apierror.CodeInvalidDimension},
		{"fuera del rango de la columna", func(c *service.ConfigPersonalizable) { c.Dimensiones = map[string]string{"20x20": "1e30"} }, apierror.CodeInvalidDimension},
		{"justo sobre el maximo", func(c *service.ConfigPersonalizable) { c.Dimensiones = map[string]string{"20x20": "10000000000"} }, apierror.CodeInvalidDimension},
		{"tres decimales", func(c *service.ConfigPersonalizable) { c.Dimensiones = map[string]string{"20x20": "10.001"} }, apierror.CodeInvalidDimension},
		{"maximo de la columna", func(c *service.ConfigPersonalizable) { c.Dimensiones = map[string]string{"20x20": "9999999999.99"} }, ""},
		{"ceros a la derecha", func(c *service.ConfigPersonalizable) { c.Dimensiones = map[string]string{"20x20": "10.500"} }, ""},
		{"decoracion rellena con espacios", func(c *service.ConfigPersonalizable) { c.Decoracion = "   lazo rojo   " }, apierror.CodeInvalidDecoration},
		{"sin colores", func(c *service.ConfigPersonalizable) { c.Colores = []string{} }, apierror.CodeInvalidColor},
		{"color fuera de paleta", func(c *service.ConfigPersonalizable) { c.Colores = []string{"morado"} }, apierror.CodeInvalidColor},
		{"decoracion corta", func(c *service.ConfigPersonalizable) { c.Decoracion = "  lazo   " }, apierror.CodeInvalidDecoration},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			err := service.ValidarConfiguracion(cfg)
			if tc.code == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tc.code, apierror.CodeOf(err))
		})
	}
}

func TestCalcularPrecioCaja(t *testing.T) {
	extras := []model.Producto{{Precio: decimal.RequireFromString("2.25")}, {Precio: decimal.RequireFromString("0.75")}}

	pers := service.ConfigPersonalizable{Dimensiones: map[string]string{"15x15": "5", "20x20": "7.50"}}
	assert.Equal(t, "15.50", service.CalcularPrecioCaja(pers, extras).StringFixed(2))

	pre := service.ConfigPredefinida{Precio: decimal.RequireFromString("20")}
	assert.Equal(t, "23.00", service.CalcularPrecioCaja(pre, extras).StringFixed(2))
}

func TestVerificarVentanaEdicion(t *testing.T) {
	creada := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	assert.NoError(t, service.VerificarVentanaEdicion(creada, creada.Add(3*time.Hour), ventanaEdicion))
	assert.NoError(t, service.VerificarVentanaEdicion(creada, creada.Add(ventanaEdicion), ventanaEdicion))

	err := service.VerificarVentanaEdicion(creada, creada.Add(5*time.Hour), ventanaEdicion)
	require.Error(t, err)
	assert.Equal(t, apierror.CodeEditWindowExpired, apierror.CodeOf(err))
	assert.Equal(t, http.StatusForbidden, apierror.HTTPStatus(err))
}

// ── Crear ────────────────────────────────────────────────────────────────────

func TestCajaCrear_Personalizable(t *testing.T) {
	f := newCajaFixture()
	extra := f.productos.add("Chocolates", "3.00")
	req := personalizableReq()
	req.Extras = []string{extra.ID.String()}
	usuario := uuid.New()

	resp, err := f.svc.Crear(context.Background(), usuario, req)
	require.NoError(t, err)

	assert.Equal(t, model.TipoCajaPersonalizable, resp.Tipo)
	assert.Equal(t, "22.50", resp.PrecioTotal.StringFixed(2))
	assert.Equal(t, model.EstadoCajaPendiente, resp.Estado)
	assert.Equal(t, map[string]string{"15x15": "7.00", "20x20": "12.50"}, resp.Dimensiones)
	assert.Len(t, resp.Extras, 1)
	assert.Nil(t, resp.Precio)

	stored := f.repo.items[uuid.MustParse(resp.ID)]
	require.NotNil(t, stored)
	assert.Equal(t, "22.50", stored.PrecioTotal.StringFixed(2))
	assert.Equal(t, usuario, stored.UsuarioID)
}

func TestCajaCrear_MontosFueraDeRango(t *testing.T) {
	f := newCajaFixture()

	req := personalizableReq()
	req.Dimensiones = map[string]dto.ValorDimension{"20x20": "1e50000000"}
	start := time.Now()
	_, err := f.svc.Crear(context.Background(), uuid.New(), req)
	require.Error(t, err)
	assert.Equal(t, apierror.CodeInvalidDimension, apierror.CodeOf(err))
	assert.Less(t, time.Since(start), time.Second)

	// each dimension fits, the sum does not
	req = personalizableReq()
	req.Dimensiones = map[string]dto.ValorDimension{"15x15": "9999999999.99", "20x20": "9999999999.99"}
	_, err = f.svc.Crear(context.Background(), uuid.New(), req)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apierror.HTTPStatus(err))

	precio := decimal.RequireFromString("1e30")
	_, err = f.svc.Crear(context.Background(), uuid.New(), dto.CrearCajaRequest{
		Nombre: "Cara", Tipo: model.TipoCajaPredefinida, Precio: &precio,
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apierror.HTTPStatus(err))
	assert.Zero(t, f.repo.creadas)
}

func TestCajaCrear_ColoresVaciosNoPersiste(t *testing.T) {
	f := newCajaFixture()
	req := personalizableReq()
	req.Colores = []string{}

	_, err := f.svc.Crear(context.Background(), uuid.New(), req)
	require.Error(t, err)
	assert.Equal(t, apierror.CodeInvalidColor, apierror.CodeOf(err))
	assert.Equal(t, http.StatusBadRequest, apierror.HTTPStatus(err))
	assert.Zero(t, f.repo.creadas)
}

func TestCajaCrear_DemasiadosExtras(t *testing.T) {
	f := newCajaFixture()
	req := personalizableReq()
	for i := 0; i < service.MaxExtras+1; i++ {
		req.Extras = append(req.Extras, f.productos.add("extra"+uuid.NewString(), "1").ID.String())
	}
	_, err := f.svc.Crear(context.Background(), uuid.New(), req)
	require.Error(t, err)
	assert.Equal(t, apierror.CodeTooManyExtras, apierror.CodeOf(err))
	assert.Zero(t, f.repo.creadas)
}

func TestCajaCrear_ExtraDesconocido(t *testing.T) {
	f := newCajaFixture()
	req := personalizableReq()
	req.Extras = []string{uuid.NewString()}
	_, err := f.svc.Crear(context.Background(), uuid.New(), req)
	require.Error(t, err)
	assert.Equal(t, apierror.CodeUnknownProduct, apierror.CodeOf(err))
	assert.Equal(t, http.StatusNotFound, apierror.HTTPStatus(err))
}

func TestCajaCrear_PredefinidaNombreDuplicado(t *testing.T) {
	f := newCajaFixture()
	precio := decimal.NewFromInt(15)
	req := dto.CrearCajaRequest{Nombre: "Caja clásica", Tipo: model.TipoCajaPredefinida, Precio: &precio}

	resp, err := f.svc.Crear(context.Background(), uuid.New(), req)
	require.NoError(t, err)
	assert.Equal(t, "15.00", resp.PrecioTotal.StringFixed(2))

	_, err = f.svc.Crear(context.Background(), uuid.New(), req)
	require.Error(t, err)
	assert.Equal(t, apierror.CodeDuplicateName, apierror.CodeOf(err))
	assert.Equal(t, http.StatusConflict, apierror.HTTPStatus(err))
}

// ── Actualizar ───────────────────────────────────────────────────────────────

func TestCajaActualizar_DentroDeVentana(t *testing.T) {
	f := newCajaFixture()
	usuario := uuid.New()
	creada, err := f.svc.Crear(context.Background(), usuario, personalizableReq())
	require.NoError(t, err)

	f.reloj.avanzar(3 * time.Hour)
	resp, err := f.svc.Actualizar(context.Background(), uuid.MustParse(creada.ID),
		service.Solicitante{ID: usuario, Rol: model.RolCliente},
		dto.ActualizarCajaRequest{Dimensiones: map[string]dto.ValorDimension{"30x30": "20"}})
	require.NoError(t, err)
	assert.Equal(t, "20.00", resp.PrecioTotal.StringFixed(2))
	assert.Equal(t, []string{"rojo", "azul"}, resp.Colores)
}

func TestCajaActualizar_VentanaExpirada(t *testing.T) {
	f := newCajaFixture()
	usuario := uuid.New()
	creada, err := f.svc.Crear(context.Background(), usuario, personalizableReq())
	require.NoError(t, err)

	f.reloj.avanzar(5 * time.Hour)
	_, err = f.svc.Actualizar(context.Background(), uuid.MustParse(creada.ID),
		service.Solicitante{ID: usuario, Rol: model.RolCliente},
		dto.ActualizarCajaRequest{Nombre: strPtr("Otro nombre")})
	require.Error(t, err)
	assert.Equal(t, apierror.CodeEditWindowExpired, apierror.CodeOf(err))
	assert.Equal(t, "Caja cumpleaños", f.repo.items[uuid.MustParse(creada.ID)].Nombre)
}

func TestCajaActualizar_OtroUsuario(t *testing.T) {
	f := newCajaFixture()
	creada, err := f.svc.Crear(context.Background(), uuid.New(), personalizableReq())
	require.NoError(t, err)

	_, err = f.svc.Actualizar(context.Background(), uuid.MustParse(creada.ID),
		service.Solicitante{ID: uuid.New(), Rol: model.RolCliente}, dto.ActualizarCajaRequest{})
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, apierror.HTTPStatus(err))
}

func TestCajaActualizar_ValidaLaConfiguracionResultante(t *testing.T) {
	f := newCajaFixture()
	usuario := uuid.New()
	creada, err := f.svc.Crear(context.Background(), usuario, personalizableReq())
	require.NoError(t, err)

	_, err = f.svc.Actualizar(context.Background(), uuid.MustParse(creada.ID),
		service.Solicitante{ID: usuario}, dto.ActualizarCajaRequest{Decoracion: strPtr("corta")})
	require.Error(t, err)
	assert.Equal(t, apierror.CodeInvalidDecoration, apierror.CodeOf(err))
}

// ── Otras operaciones ────────────────────────────────────────────────────────

func TestCajaListar_AdminVeTodas(t *testing.T) {
	f := newCajaFixture()
	a, b := uuid.New(), uuid.New()
	_, err := f.svc.Crear(context.Background(), a, personalizableReq())
	require.NoError(t, err)
	_, err = f.svc.Crear(context.Background(), b, personalizableReq())
	require.NoError(t, err)

	propias, err := f.svc.Listar(context.Background(), service.Solicitante{ID: a, Rol: model.RolCliente})
	require.NoError(t, err)
	assert.Len(t, propias, 1)

	todas, err := f.svc.Listar(context.Background(), service.Solicitante{ID: uuid.New(), Rol: model.RolAdmin})
	require.NoError(t, err)
	assert.Len(t, todas, 2)
}

func TestCajaEliminar_FueraDeVentanaPermitido(t *testing.T) {
	f := newCajaFixture()
	usuario := uuid.New()
	creada, err := f.svc.Crear(context.Background(), usuario, personalizableReq())
	require.NoError(t, err)

	f.reloj.avanzar(48 * time.Hour)
	require.NoError(t, f.svc.Eliminar(context.Background(), uuid.MustParse(creada.ID), service.Solicitante{ID: usuario}))
	assert.Empty(t, f.repo.items)
}

func TestCajaCambiarEstado(t *testing.T) {
	f := newCajaFixture()
	creada, err := f.svc.Crear(context.Background(), uuid.New(), personalizableReq())
	require.NoError(t, err)
	id := uuid.MustParse(creada.ID)

	resp, err := f.svc.CambiarEstado(context.Background(), id, model.EstadoCajaEnProceso)
	require.NoError(t, err)
	assert.Equal(t, model.EstadoCajaEnProceso, resp.Estado)

	_, err = f.svc.CambiarEstado(context.Background(), id, "perdida")
	require.Error(t, err)
	assert.Equal(t, apierror.CodeInvalidState, apierror.CodeOf(err))
}

func TestCajaSubirImagen_EncolaTrabajo(t *testing.T) {
	f := newCajaFixture()
	usuario := uuid.New()
	creada, err := f.svc.Crear(context.Background(), usuario, personalizableReq())
	require.NoError(t, err)

	err = f.svc.SubirImagen(context.Background(), uuid.MustParse(creada.ID), service.Solicitante{ID: usuario}, "/tmp/foto.png")
	require.NoError(t, err)
	require.Len(t, f.enc.imagenes, 1)
	assert.Equal(t, creada.ID, f.enc.imagenes[0].ID)
	assert.Equal(t, "/tmp/foto.png", f.enc.imagenes[0].Ruta)

	f.reloj.avanzar(5 * time.Hour)
	err = f.svc.SubirImagen(context.Background(), uuid.MustParse(creada.ID), service.Solicitante{ID: usuario}, "/tmp/otra.png")
	assert.Equal(t, apierror.CodeEditWindowExpired, apierror.CodeOf(err))
}
