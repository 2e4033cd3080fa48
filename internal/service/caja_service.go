package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"cuentame/internal/apierror"
	"cuentame/internal/dto"
	"cuentame/internal/model"
	"cuentame/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Limits of a box configuration.
const (
	MaxExtras     = 5
	MinDecoracion = 10
)

// DimensionesPermitidas are the size labels a personalizable box may price.
var DimensionesPermitidas = []string{"15x15", "20x20", "25x25", "30x30", "50x50"}

// ColoresPermitidos is the palette of a personalizable box.
var ColoresPermitidos = []string{"rojo", "negro", "amarillo", "azul", "blanco", "verde", "aleatoria"}

// ── Configuration variants ───────────────────────────────────────────────────

// ConfiguracionCaja is either a ConfigPredefinida or a ConfigPersonalizable.
type ConfiguracionCaja interface {
	Tipo() string
}

// ConfigPredefinida carries the fields of a predefinida box.
type ConfigPredefinida struct {
	Descripcion *string
	Precio      decimal.Decimal
	Stock       int
}

func (ConfigPredefinida) Tipo() string { return model.TipoCajaPredefinida }

// ConfigPersonalizable carries the fields of a personalizable box.
// Dimensiones keeps the raw price text until ValidarConfiguracion checks it.
type ConfigPersonalizable struct {
	Dimensiones map[string]string
	Colores     []string
	Decoracion  string
}

func (ConfigPersonalizable) Tipo() string { return model.TipoCajaPersonalizable }

// DecodificarCaja turns a raw payload into its typed configuration. Fields of
// the other variant are rejected, so a decoded value never mixes them.
func DecodificarCaja(req dto.CrearCajaRequest) (ConfiguracionCaja, error) {
	switch req.Tipo {
	case model.TipoCajaPredefinida:
		if len(req.Dimensiones) > 0 || len(req.Colores) > 0 || req.Decoracion != nil {
			return nil, apierror.Validation("", "Una caja predefinida no admite dimensiones, colores ni decoración")
		}
		if req.Precio == nil {
			return nil, apierror.Validation("", "El precio es obligatorio para una caja predefinida")
		}
		if err := validarMonto(*req.Precio, "El precio"); err != nil {
			return nil, err
		}
		cfg := ConfigPredefinida{Descripcion: req.Descripcion, Precio: *req.Precio}
		if req.Stock != nil {
			if *req.Stock < 0 {
				return nil, apierror.Validation("", "El stock no puede ser negativo")
			}
			cfg.Stock = *req.Stock
		}
		return cfg, nil

	case model.TipoCajaPersonalizable:
		if req.Descripcion != nil || req.Precio != nil || req.Stock != nil {
			return nil, apierror.Validation("", "Una caja personalizable no admite descripción, precio ni stock")
		}
		cfg := ConfigPersonalizable{Dimensiones: make(map[string]string, len(req.Dimensiones)), Colores: req.Colores}
		for k, v := range req.Dimensiones {
			cfg.Dimensiones[k] = string(v)
		}
		if req.Decoracion != nil {
			cfg.Decoracion = *req.Decoracion
		}
		return cfg, nil
	}
	return nil, apierror.Validation("", fmt.Sprintf("Tipo de caja desconocido: %q", req.Tipo))
}

// ValidarConfiguracion checks the rules of the personalizable variant.
// A predefinida configuration is already valid once decoded.
func ValidarConfiguracion(cfg ConfiguracionCaja) error {
	p, ok := cfg.(ConfigPersonalizable)
	if !ok {
		return nil
	}

	if len(p.Dimensiones) == 0 {
		return apierror.Validation(apierror.CodeInvalidDimension, "Debe indicar al menos una dimensión")
	}
	keys := make([]string, 0, len(p.Dimensiones))
	for k := range p.Dimensiones {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !contiene(DimensionesPermitidas, k) {
			return apierror.Validation(apierror.CodeInvalidDimension,
				fmt.Sprintf("Dimensión no permitida: %q", k))
		}
		if _, err := precioDimension(p.Dimensiones[k]); err != nil {
			return apierror.Validation(apierror.CodeInvalidDimension,
				fmt.Sprintf("Precio inválido para la dimensión %q", k))
		}
	}

	if len(p.Colores) == 0 {
		return apierror.Validation(apierror.CodeInvalidColor, "Debe elegir al menos un color")
	}
	for _, c := range p.Colores {
		if !contiene(ColoresPermitidos, c) {
			return apierror.Validation(apierror.CodeInvalidColor, fmt.Sprintf("Color no permitido: %q", c))
		}
	}

	// padding does not count toward the minimum
	if utf8.RuneCountInString(strings.TrimSpace(p.Decoracion)) < MinDecoracion {
		return apierror.Validation(apierror.CodeInvalidDecoration,
			fmt.Sprintf("La decoración debe tener al menos %d caracteres", MinDecoracion))
	}
	return nil
}

func precioDimension(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, err
	}
	if !montoValido(d) {
		return decimal.Zero, fmt.Errorf("precio fuera de rango %q", raw)
	}
	return d, nil
}

// CalcularPrecioCaja derives the total of a validated configuration:
// the sum of dimension prices (personalizable) or the box price (predefinida),
// plus the price of every extra.
func CalcularPrecioCaja(cfg ConfiguracionCaja, extras []model.Producto) decimal.Decimal {
	total := decimal.Zero
	switch c := cfg.(type) {
	case ConfigPredefinida:
		total = c.Precio
	case ConfigPersonalizable:
		for _, raw := range c.Dimensiones {
			d, _ := precioDimension(raw)
			total = total.Add(d)
		}
	}
	for _, e := range extras {
		total = total.Add(e.Precio)
	}
	return total
}

// VerificarVentanaEdicion fails once more than ventana passed since creada.
func VerificarVentanaEdicion(creada, ahora time.Time, ventana time.Duration) error {
	if ahora.Sub(creada) > ventana {
		return apierror.EditWindowExpired(fmt.Sprintf(
			"La caja ya no puede modificarse: pasaron más de %s desde su creación", formatVentana(ventana)))
	}
	return nil
}

func formatVentana(d time.Duration) string {
	if d%time.Hour == 0 {
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hora"
		}
		return fmt.Sprintf("%d horas", h)
	}
	return d.String()
}

func contiene(lista []string, v string) bool {
	for _, x := range lista {
		if x == v {
			return true
		}
	}
	return false
}

// ── Service ──────────────────────────────────────────────────────────────────

// CajaService manages the boxes customers configure.
type CajaService interface {
	Crear(ctx context.Context, usuarioID uuid.UUID, req dto.CrearCajaRequest) (*dto.CajaResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID, sol Solicitante) (*dto.CajaResponse, error)
	Listar(ctx context.Context, sol Solicitante) ([]dto.CajaResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, sol Solicitante, req dto.ActualizarCajaRequest) (*dto.CajaResponse, error)
	Eliminar(ctx context.Context, id uuid.UUID, sol Solicitante) error
	CambiarEstado(ctx context.Context, id uuid.UUID, estado string) (*dto.CajaResponse, error)
	SubirImagen(ctx context.Context, id uuid.UUID, sol Solicitante, ruta string) error
}

type cajaService struct {
	repo         repository.CajaRepository
	productoRepo repository.ProductoRepository
	encolador    Encolador
	ventana      time.Duration
	now          func() time.Time
}

// NewCajaService builds the service; ventana is the edit window and now the
// wall clock (time.Now when nil).
func NewCajaService(
	repo repository.CajaRepository,
	productoRepo repository.ProductoRepository,
	encolador Encolador,
	ventana time.Duration,
	now func() time.Time,
) CajaService {
	if now == nil {
		now = time.Now
	}
	return &cajaService{repo: repo, productoRepo: productoRepo, encolador: encolador, ventana: ventana, now: now}
}

// ── Crear ────────────────────────────────────────────────────────────────────
// Every rule is checked before the first write. The box is inserted with
// precio_total 0 and re-priced in the same transaction.

func (s *cajaService) Crear(ctx context.Context, usuarioID uuid.UUID, req dto.CrearCajaRequest) (*dto.CajaResponse, error) {
	nombre := strings.TrimSpace(req.Nombre)
	if nombre == "" || utf8.RuneCountInString(nombre) > 120 {
		return nil, apierror.Validation("", "El nombre es obligatorio (máximo 120 caracteres)")
	}

	cfg, err := DecodificarCaja(req)
	if err != nil {
		return nil, err
	}
	if err := ValidarConfiguracion(cfg); err != nil {
		return nil, err
	}
	if err := s.verificarNombre(ctx, cfg, nombre, uuid.Nil); err != nil {
		return nil, err
	}
	extras, err := s.resolverExtras(ctx, req.Extras)
	if err != nil {
		return nil, err
	}

	total := CalcularPrecioCaja(cfg, extras)
	if err := validarMonto(total, "El precio total de la caja"); err != nil {
		return nil, err
	}

	caja := &model.Caja{
		UsuarioID:   usuarioID,
		Nombre:      nombre,
		Estado:      model.EstadoCajaPendiente,
		PrecioTotal: decimal.Zero,
		Extras:      extras,
	}
	aplicarConfiguracion(caja, cfg)

	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.Create(ctx, tx, caja); err != nil {
			return err
		}
		if err := s.repo.UpdatePrecioTotal(ctx, tx, caja.ID, total); err != nil {
			return err
		}
		caja.PrecioTotal = total
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("crear caja: %w", err)
	}
	return s.toResponse(caja), nil
}

// ── Actualizar ───────────────────────────────────────────────────────────────
// The stored box and the changes are merged into a full payload and pass
// through the same decoder and validator as a new box.

func (s *cajaService) Actualizar(ctx context.Context, id uuid.UUID, sol Solicitante, req dto.ActualizarCajaRequest) (*dto.CajaResponse, error) {
	caja, err := s.buscarPropia(ctx, id, sol, false)
	if err != nil {
		return nil, err
	}
	if err := VerificarVentanaEdicion(caja.CreatedAt, s.now(), s.ventana); err != nil {
		return nil, err
	}

	merged := cajaComoPayload(caja)
	if req.Nombre != nil {
		merged.Nombre = *req.Nombre
	}
	if req.Descripcion != nil {
		merged.Descripcion = req.Descripcion
	}
	if req.Precio != nil {
		merged.Precio = req.Precio
	}
	if req.Stock != nil {
		merged.Stock = req.Stock
	}
	if req.Dimensiones != nil {
		merged.Dimensiones = req.Dimensiones
	}
	if req.Colores != nil {
		merged.Colores = req.Colores
	}
	if req.Decoracion != nil {
		merged.Decoracion = req.Decoracion
	}
	if req.Extras != nil {
		merged.Extras = *req.Extras
	}

	nombre := strings.TrimSpace(merged.Nombre)
	if nombre == "" || utf8.RuneCountInString(nombre) > 120 {
		return nil, apierror.Validation("", "El nombre es obligatorio (máximo 120 caracteres)")
	}
	cfg, err := DecodificarCaja(merged)
	if err != nil {
		return nil, err
	}
	if err := ValidarConfiguracion(cfg); err != nil {
		return nil, err
	}
	if err := s.verificarNombre(ctx, cfg, nombre, caja.ID); err != nil {
		return nil, err
	}
	extras, err := s.resolverExtras(ctx, merged.Extras)
	if err != nil {
		return nil, err
	}

	total := CalcularPrecioCaja(cfg, extras)
	if err := validarMonto(total, "El precio total de la caja"); err != nil {
		return nil, err
	}

	caja.Nombre = nombre
	caja.Extras = extras
	aplicarConfiguracion(caja, cfg)
	caja.PrecioTotal = total

	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		return s.repo.Update(ctx, tx, caja)
	})
	if err != nil {
		return nil, fmt.Errorf("actualizar caja: %w", err)
	}
	return s.toResponse(caja), nil
}

// ── Lectura / borrado ────────────────────────────────────────────────────────

func (s *cajaService) ObtenerPorID(ctx context.Context, id uuid.UUID, sol Solicitante) (*dto.CajaResponse, error) {
	caja, err := s.buscarPropia(ctx, id, sol, true)
	if err != nil {
		return nil, err
	}
	return s.toResponse(caja), nil
}

func (s *cajaService) Listar(ctx context.Context, sol Solicitante) ([]dto.CajaResponse, error) {
	var (
		cajas []model.Caja
		err   error
	)
	if sol.EsAdmin() {
		cajas, err = s.repo.ListAll(ctx)
	} else {
		cajas, err = s.repo.ListByUsuario(ctx, sol.ID)
	}
	if err != nil {
		return nil, err
	}
	resp := make([]dto.CajaResponse, len(cajas))
	for i := range cajas {
		resp[i] = *s.toResponse(&cajas[i])
	}
	return resp, nil
}

// Eliminar is not bound to the edit window.
func (s *cajaService) Eliminar(ctx context.Context, id uuid.UUID, sol Solicitante) error {
	if _, err := s.buscarPropia(ctx, id, sol, true); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *cajaService) CambiarEstado(ctx context.Context, id uuid.UUID, estado string) (*dto.CajaResponse, error) {
	switch estado {
	case model.EstadoCajaPendiente, model.EstadoCajaEnProceso, model.EstadoCajaCompletada:
	default:
		return nil, apierror.Validation(apierror.CodeInvalidState, fmt.Sprintf("Estado de caja inválido: %q", estado))
	}
	caja, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if esNoEncontrado(err) {
			return nil, apierror.NotFound("", "Caja no encontrada")
		}
		return nil, err
	}
	if err := s.repo.UpdateEstado(ctx, id, estado); err != nil {
		return nil, err
	}
	caja.Estado = estado
	return s.toResponse(caja), nil
}

// SubirImagen is gated by the edit window like any other change.
func (s *cajaService) SubirImagen(ctx context.Context, id uuid.UUID, sol Solicitante, ruta string) error {
	caja, err := s.buscarPropia(ctx, id, sol, false)
	if err != nil {
		return err
	}
	if err := VerificarVentanaEdicion(caja.CreatedAt, s.now(), s.ventana); err != nil {
		return err
	}
	return encolarImagen(ctx, s.encolador, repository.EntidadCaja, "cajas", caja.ID, ruta)
}

// ── helpers ──────────────────────────────────────────────────────────────────

// buscarPropia loads a box the requester owns; admins pass when admin is true.
func (s *cajaService) buscarPropia(ctx context.Context, id uuid.UUID, sol Solicitante, admin bool) (*model.Caja, error) {
	caja, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if esNoEncontrado(err) {
			return nil, apierror.NotFound("", "Caja no encontrada")
		}
		return nil, err
	}
	if caja.UsuarioID != sol.ID && !(admin && sol.EsAdmin()) {
		return nil, apierror.Forbidden("", "La caja pertenece a otro usuario")
	}
	return caja, nil
}

func (s *cajaService) verificarNombre(ctx context.Context, cfg ConfiguracionCaja, nombre string, exceptID uuid.UUID) error {
	if cfg.Tipo() != model.TipoCajaPredefinida {
		return nil
	}
	existente, err := s.repo.FindPredefinidaByNombre(ctx, nombre)
	if err != nil {
		if esNoEncontrado(err) {
			return nil
		}
		return err
	}
	if existente.ID != exceptID {
		return apierror.Conflict(apierror.CodeDuplicateName, fmt.Sprintf("Ya existe una caja predefinida llamada %q", nombre))
	}
	return nil
}

// resolverExtras enforces the extras limit and loads every referenced product.
func (s *cajaService) resolverExtras(ctx context.Context, raw []string) ([]model.Producto, error) {
	return resolverProductos(ctx, s.productoRepo, raw)
}

func resolverProductos(ctx context.Context, repo repository.ProductoRepository, raw []string) ([]model.Producto, error) {
	if len(raw) > MaxExtras {
		return nil, apierror.Conflict(apierror.CodeTooManyExtras,
			fmt.Sprintf("Se permiten como máximo %d extras", MaxExtras))
	}
	if len(raw) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(raw))
	vistos := make(map[uuid.UUID]bool, len(raw))
	for _, r := range raw {
		id, err := parseID(r, "extras")
		if err != nil {
			return nil, err
		}
		if !vistos[id] {
			vistos[id] = true
			ids = append(ids, id)
		}
	}
	productos, err := repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	encontrados := make(map[uuid.UUID]bool, len(productos))
	for _, p := range productos {
		encontrados[p.ID] = true
	}
	for _, id := range ids {
		if !encontrados[id] {
			return nil, apierror.NotFound(apierror.CodeUnknownProduct, fmt.Sprintf("Producto extra %s no encontrado", id))
		}
	}
	return productos, nil
}

// aplicarConfiguracion writes the variant's fields and clears the other group.
func aplicarConfiguracion(caja *model.Caja, cfg ConfiguracionCaja) {
	caja.Tipo = cfg.Tipo()
	switch c := cfg.(type) {
	case ConfigPredefinida:
		precio, stock := c.Precio, c.Stock
		caja.Descripcion = c.Descripcion
		caja.Precio = &precio
		caja.Stock = &stock
		caja.Dimensiones = datatypes.NewJSONType(map[string]string{})
		caja.Colores = nil
		caja.Decoracion = nil
	case ConfigPersonalizable:
		dims := make(map[string]string, len(c.Dimensiones))
		for k, raw := range c.Dimensiones {
			d, _ := precioDimension(raw)
			dims[k] = d.StringFixed(2)
		}
		deco := strings.TrimSpace(c.Decoracion)
		caja.Descripcion = nil
		caja.Precio = nil
		caja.Stock = nil
		caja.Dimensiones = datatypes.NewJSONType(dims)
		caja.Colores = unicos(c.Colores)
		caja.Decoracion = &deco
	}
}

func unicos(xs []string) []string {
	out := make([]string, 0, len(xs))
	for _, x := range xs {
		if !contiene(out, x) {
			out = append(out, x)
		}
	}
	return out
}

// cajaComoPayload rebuilds the creation payload of a stored box.
func cajaComoPayload(c *model.Caja) dto.CrearCajaRequest {
	req := dto.CrearCajaRequest{
		Nombre:      c.Nombre,
		Tipo:        c.Tipo,
		Descripcion: c.Descripcion,
		Precio:      c.Precio,
		Stock:       c.Stock,
		Decoracion:  c.Decoracion,
		Colores:     []string(c.Colores),
		Extras:      make([]string, len(c.Extras)),
	}
	if c.Tipo == model.TipoCajaPersonalizable {
		req.Dimensiones = make(map[string]dto.ValorDimension)
		for k, v := range c.Dimensiones.Data() {
			req.Dimensiones[k] = dto.ValorDimension(v)
		}
	}
	for i, e := range c.Extras {
		req.Extras[i] = e.ID.String()
	}
	return req
}

func (s *cajaService) toResponse(c *model.Caja) *dto.CajaResponse {
	resp := &dto.CajaResponse{
		ID:            c.ID.String(),
		UsuarioID:     c.UsuarioID.String(),
		Nombre:        c.Nombre,
		Tipo:          c.Tipo,
		Descripcion:   c.Descripcion,
		Precio:        c.Precio,
		Stock:         c.Stock,
		Decoracion:    c.Decoracion,
		Extras:        resumenProductos(c.Extras),
		PrecioTotal:   c.PrecioTotal,
		Estado:        c.Estado,
		Imagen:        c.Imagen,
		CreatedAt:     formatFecha(c.CreatedAt),
		EditableHasta: formatFecha(c.CreatedAt.Add(s.ventana)),
	}
	if c.Tipo == model.TipoCajaPersonalizable {
		resp.Dimensiones = c.Dimensiones.Data()
		resp.Colores = []string(c.Colores)
	}
	return resp
}

func resumenProductos(ps []model.Producto) []dto.ProductoResumen {
	out := make([]dto.ProductoResumen, len(ps))
	for i, p := range ps {
		out[i] = dto.ProductoResumen{ID: p.ID.String(), Nombre: p.Nombre, Precio: p.Precio}
	}
	return out
}
