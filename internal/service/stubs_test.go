package service_test

import (
	"context"
	"strings"
	"sync"
	"time"

	"cuentame/internal/dto"
	"cuentame/internal/model"
	"cuentame/internal/repository"
	"cuentame/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── Productos ────────────────────────────────────────────────────────────────

type stubProductoRepo struct {
	items  map[uuid.UUID]*model.Producto
	lineas map[uuid.UUID]int64
}

var _ repository.ProductoRepository = (*stubProductoRepo)(nil)

func newStubProductoRepo() *stubProductoRepo {
	return &stubProductoRepo{items: map[uuid.UUID]*model.Producto{}, lineas: map[uuid.UUID]int64{}}
}

func (r *stubProductoRepo) add(nombre string, precio string) *model.Producto {
	p := &model.Producto{ID: uuid.New(), Nombre: nombre, Precio: decimal.RequireFromString(precio), Categoria: model.TipoCajaPersonalizable}
	r.items[p.ID] = p
	return p
}

func (r *stubProductoRepo) Create(_ context.Context, p *model.Producto) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.items[p.ID] = p
	return nil
}

func (r *stubProductoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Producto, error) {
	p, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProductoRepo) FindByIDTx(ctx context.Context, _ *gorm.DB, id uuid.UUID) (*model.Producto, error) {
	return r.FindByID(ctx, id)
}

func (r *stubProductoRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]model.Producto, error) {
	var out []model.Producto
	for _, id := range ids {
		if p, ok := r.items[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProductoRepo) FindByNombre(_ context.Context, nombre string) (*model.Producto, error) {
	for _, p := range r.items {
		if strings.EqualFold(p.Nombre, nombre) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProductoRepo) List(_ context.Context, f dto.ProductoFilter) ([]model.Producto, int64, error) {
	var out []model.Producto
	for _, p := range r.items {
		if f.Categoria != "" && p.Categoria != f.Categoria {
			continue
		}
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *stubProductoRepo) Update(_ context.Context, p *model.Producto) error {
	r.items[p.ID] = p
	return nil
}

func (r *stubProductoRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.items, id)
	return nil
}

func (r *stubProductoRepo) CountOrdenLineas(_ context.Context, id uuid.UUID) (int64, error) {
	return r.lineas[id], nil
}

// ── Cajas predefinidas del catálogo ──────────────────────────────────────────

type stubPredefinidaRepo struct {
	items  map[uuid.UUID]*model.CajaPredefinida
	lineas map[uuid.UUID]int64
}

var _ repository.CajaPredefinidaRepository = (*stubPredefinidaRepo)(nil)

func newStubPredefinidaRepo() *stubPredefinidaRepo {
	return &stubPredefinidaRepo{items: map[uuid.UUID]*model.CajaPredefinida{}, lineas: map[uuid.UUID]int64{}}
}

func (r *stubPredefinidaRepo) add(nombre, precio string) *model.CajaPredefinida {
	c := &model.CajaPredefinida{ID: uuid.New(), Nombre: nombre, Precio: decimal.RequireFromString(precio)}
	r.items[c.ID] = c
	return c
}

func (r *stubPredefinidaRepo) Create(_ context.Context, c *model.CajaPredefinida) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.items[c.ID] = c
	return nil
}

func (r *stubPredefinidaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.CajaPredefinida, error) {
	c, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubPredefinidaRepo) FindByIDTx(ctx context.Context, _ *gorm.DB, id uuid.UUID) (*model.CajaPredefinida, error) {
	return r.FindByID(ctx, id)
}

func (r *stubPredefinidaRepo) FindByNombre(_ context.Context, nombre string) (*model.CajaPredefinida, error) {
	for _, c := range r.items {
		if strings.EqualFold(c.Nombre, nombre) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubPredefinidaRepo) List(_ context.Context) ([]model.CajaPredefinida, error) {
	var out []model.CajaPredefinida
	for _, c := range r.items {
		out = append(out, *c)
	}
	return out, nil
}

func (r *stubPredefinidaRepo) Update(_ context.Context, c *model.CajaPredefinida) error {
	r.items[c.ID] = c
	return nil
}

func (r *stubPredefinidaRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.items, id)
	return nil
}

func (r *stubPredefinidaRepo) CountOrdenLineas(_ context.Context, id uuid.UUID) (int64, error) {
	return r.lineas[id], nil
}

// ── Plantillas de cajas personalizadas ───────────────────────────────────────

type stubPlantillaRepo struct {
	items  map[uuid.UUID]*model.CajaPersonalizada
	lineas map[uuid.UUID]int64
}

var _ repository.CajaPersonalizadaRepository = (*stubPlantillaRepo)(nil)

func newStubPlantillaRepo() *stubPlantillaRepo {
	return &stubPlantillaRepo{items: map[uuid.UUID]*model.CajaPersonalizada{}, lineas: map[uuid.UUID]int64{}}
}

func (r *stubPlantillaRepo) add(nombre, precioBase string) *model.CajaPersonalizada {
	c := &model.CajaPersonalizada{ID: uuid.New(), Nombre: nombre, PrecioBase: decimal.RequireFromString(precioBase)}
	r.items[c.ID] = c
	return c
}

func (r *stubPlantillaRepo) Create(_ context.Context, c *model.CajaPersonalizada) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.items[c.ID] = c
	return nil
}

func (r *stubPlantillaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.CajaPersonalizada, error) {
	c, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubPlantillaRepo) FindByIDTx(ctx context.Context, _ *gorm.DB, id uuid.UUID) (*model.CajaPersonalizada, error) {
	return r.FindByID(ctx, id)
}

func (r *stubPlantillaRepo) List(_ context.Context) ([]model.CajaPersonalizada, error) {
	var out []model.CajaPersonalizada
	for _, c := range r.items {
		out = append(out, *c)
	}
	return out, nil
}

func (r *stubPlantillaRepo) Update(_ context.Context, c *model.CajaPersonalizada) error {
	r.items[c.ID] = c
	return nil
}

func (r *stubPlantillaRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.items, id)
	return nil
}

func (r *stubPlantillaRepo) CountOrdenLineas(_ context.Context, id uuid.UUID) (int64, error) {
	return r.lineas[id], nil
}

// ── Cajas de clientes ────────────────────────────────────────────────────────

type stubCajaRepo struct {
	items   map[uuid.UUID]*model.Caja
	creadas int
	clock   func() time.Time
}

var _ repository.CajaRepository = (*stubCajaRepo)(nil)

func newStubCajaRepo(clock func() time.Time) *stubCajaRepo {
	return &stubCajaRepo{items: map[uuid.UUID]*model.Caja{}, clock: clock}
}

func (r *stubCajaRepo) Create(_ context.Context, _ *gorm.DB, c *model.Caja) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = r.clock()
	cp := *c
	r.items[c.ID] = &cp
	r.creadas++
	return nil
}

func (r *stubCajaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Caja, error) {
	c, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubCajaRepo) FindPredefinidaByNombre(_ context.Context, nombre string) (*model.Caja, error) {
	for _, c := range r.items {
		if c.Tipo == model.TipoCajaPredefinida && strings.EqualFold(c.Nombre, nombre) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCajaRepo) ListByUsuario(_ context.Context, usuarioID uuid.UUID) ([]model.Caja, error) {
	var out []model.Caja
	for _, c := range r.items {
		if c.UsuarioID == usuarioID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *stubCajaRepo) ListAll(_ context.Context) ([]model.Caja, error) {
	var out []model.Caja
	for _, c := range r.items {
		out = append(out, *c)
	}
	return out, nil
}

func (r *stubCajaRepo) Update(_ context.Context, _ *gorm.DB, c *model.Caja) error {
	cp := *c
	r.items[c.ID] = &cp
	return nil
}

func (r *stubCajaRepo) UpdatePrecioTotal(_ context.Context, _ *gorm.DB, id uuid.UUID, total decimal.Decimal) error {
	c, ok := r.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.PrecioTotal = total
	return nil
}

func (r *stubCajaRepo) UpdateEstado(_ context.Context, id uuid.UUID, estado string) error {
	c, ok := r.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.Estado = estado
	return nil
}

func (r *stubCajaRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.items, id)
	return nil
}

func (r *stubCajaRepo) DB() *gorm.DB { return nil }

// ── Direcciones ──────────────────────────────────────────────────────────────

type stubDireccionRepo struct {
	items map[uuid.UUID]*model.Direccion
}

var _ repository.DireccionRepository = (*stubDireccionRepo)(nil)

func newStubDireccionRepo() *stubDireccionRepo {
	return &stubDireccionRepo{items: map[uuid.UUID]*model.Direccion{}}
}

func (r *stubDireccionRepo) Create(_ context.Context, _ *gorm.DB, d *model.Direccion) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	cp := *d
	r.items[d.ID] = &cp
	return nil
}

func (r *stubDireccionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Direccion, error) {
	d, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *stubDireccionRepo) ListByUsuario(_ context.Context, usuarioID uuid.UUID) ([]model.Direccion, error) {
	var out []model.Direccion
	for _, d := range r.items {
		if d.UsuarioID == usuarioID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *stubDireccionRepo) CountByUsuario(_ context.Context, _ *gorm.DB, usuarioID uuid.UUID) (int64, error) {
	var n int64
	for _, d := range r.items {
		if d.UsuarioID == usuarioID {
			n++
		}
	}
	return n, nil
}

func (r *stubDireccionRepo) ExistsNumeroCasa(_ context.Context, _ *gorm.DB, usuarioID uuid.UUID, numero string, exceptID uuid.UUID) (bool, error) {
	for _, d := range r.items {
		if d.UsuarioID == usuarioID && d.NumeroCasa == numero && d.ID != exceptID {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubDireccionRepo) ExistsAlias(_ context.Context, _ *gorm.DB, usuarioID uuid.UUID, alias string, exceptID uuid.UUID) (bool, error) {
	for _, d := range r.items {
		if d.UsuarioID == usuarioID && d.Alias == alias && d.ID != exceptID {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubDireccionRepo) ClearDefault(_ context.Context, _ *gorm.DB, usuarioID uuid.UUID) error {
	for _, d := range r.items {
		if d.UsuarioID == usuarioID {
			d.IsDefault = false
		}
	}
	return nil
}

func (r *stubDireccionRepo) Update(_ context.Context, _ *gorm.DB, d *model.Direccion) error {
	cp := *d
	r.items[d.ID] = &cp
	return nil
}

func (r *stubDireccionRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.items, id)
	return nil
}

func (r *stubDireccionRepo) DB() *gorm.DB { return nil }

func (r *stubDireccionRepo) defaults(usuarioID uuid.UUID) int {
	n := 0
	for _, d := range r.items {
		if d.UsuarioID == usuarioID && d.IsDefault {
			n++
		}
	}
	return n
}

// ── Órdenes ──────────────────────────────────────────────────────────────────

type stubOrdenRepo struct {
	items map[uuid.UUID]*model.OrdenCompra
}

var _ repository.OrdenRepository = (*stubOrdenRepo)(nil)

func newStubOrdenRepo() *stubOrdenRepo {
	return &stubOrdenRepo{items: map[uuid.UUID]*model.OrdenCompra{}}
}

func (r *stubOrdenRepo) Create(_ context.Context, _ *gorm.DB, o *model.OrdenCompra) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	o.CreatedAt = time.Now()
	cp := *o
	cp.Lineas = append([]model.OrdenLinea(nil), o.Lineas...)
	r.items[o.ID] = &cp
	return nil
}

func (r *stubOrdenRepo) FindByID(_ context.Context, id uuid.UUID) (*model.OrdenCompra, error) {
	o, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	cp.Lineas = append([]model.OrdenLinea(nil), o.Lineas...)
	return &cp, nil
}

func (r *stubOrdenRepo) Update(_ context.Context, _ *gorm.DB, o *model.OrdenCompra) error {
	cp := *o
	cp.Lineas = append([]model.OrdenLinea(nil), o.Lineas...)
	r.items[o.ID] = &cp
	return nil
}

func (r *stubOrdenRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.items, id)
	return nil
}

func (r *stubOrdenRepo) List(_ context.Context, f dto.OrdenFilter) ([]model.OrdenCompra, error) {
	var out []model.OrdenCompra
	for _, o := range r.items {
		if f.UsuarioID != nil && o.UsuarioID.String() != *f.UsuarioID {
			continue
		}
		if f.Estado != "" && o.Estado != f.Estado {
			continue
		}
		out = append(out, *o)
	}
	return out, nil
}

func (r *stubOrdenRepo) DB() *gorm.DB { return nil }

// ── Cuentas ──────────────────────────────────────────────────────────────────

type stubUsuarioRepo struct {
	items map[uuid.UUID]*model.Usuario
}

var _ repository.UsuarioRepository = (*stubUsuarioRepo)(nil)

func newStubUsuarioRepo() *stubUsuarioRepo {
	return &stubUsuarioRepo{items: map[uuid.UUID]*model.Usuario{}}
}

func (r *stubUsuarioRepo) Create(_ context.Context, u *model.Usuario) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	cp := *u
	r.items[u.ID] = &cp
	return nil
}

func (r *stubUsuarioRepo) FindByCorreo(_ context.Context, correo string) (*model.Usuario, error) {
	for _, u := range r.items {
		if strings.EqualFold(u.Correo, correo) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUsuarioRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Usuario, error) {
	u, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *stubUsuarioRepo) FindPerfil(ctx context.Context, id uuid.UUID) (*model.Usuario, error) {
	return r.FindByID(ctx, id)
}

func (r *stubUsuarioRepo) FindByTokenRecup(_ context.Context, token string) (*model.Usuario, error) {
	for _, u := range r.items {
		if u.TokenRecup != nil && *u.TokenRecup == token {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUsuarioRepo) List(_ context.Context) ([]model.Usuario, error) {
	var out []model.Usuario
	for _, u := range r.items {
		out = append(out, *u)
	}
	return out, nil
}

func (r *stubUsuarioRepo) Update(_ context.Context, u *model.Usuario) error {
	cp := *u
	r.items[u.ID] = &cp
	return nil
}

func (r *stubUsuarioRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.items, id)
	return nil
}

func (r *stubUsuarioRepo) ClearExpiredOTP(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for _, u := range r.items {
		if u.OTP != nil && u.OTPExpira != nil && u.OTPExpira.Before(now) {
			u.OTP, u.OTPExpira = nil, nil
			n++
		}
	}
	return n, nil
}

type stubAdminRepo struct {
	items map[uuid.UUID]*model.Administrador
}

var _ repository.AdministradorRepository = (*stubAdminRepo)(nil)

func newStubAdminRepo() *stubAdminRepo {
	return &stubAdminRepo{items: map[uuid.UUID]*model.Administrador{}}
}

func (r *stubAdminRepo) Create(_ context.Context, a *model.Administrador) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	cp := *a
	r.items[a.ID] = &cp
	return nil
}

func (r *stubAdminRepo) FindByCorreo(_ context.Context, correo string) (*model.Administrador, error) {
	for _, a := range r.items {
		if strings.EqualFold(a.Correo, correo) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubAdminRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Administrador, error) {
	a, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *stubAdminRepo) FindByTokenConfirmacion(_ context.Context, token string) (*model.Administrador, error) {
	for _, a := range r.items {
		if a.TokenConfirmacion != nil && *a.TokenConfirmacion == token {
			cp := *a
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubAdminRepo) Update(_ context.Context, a *model.Administrador) error {
	cp := *a
	r.items[a.ID] = &cp
	return nil
}

// ── Colaboradores ────────────────────────────────────────────────────────────

type stubEncolador struct {
	mu       sync.Mutex
	emails   []worker.EmailJobPayload
	imagenes []worker.ImagenJobPayload
}

func (e *stubEncolador) EncolarEmail(_ context.Context, p worker.EmailJobPayload) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.emails = append(e.emails, p)
	return nil
}

func (e *stubEncolador) EncolarImagen(_ context.Context, p worker.ImagenJobPayload) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.imagenes = append(e.imagenes, p)
	return nil
}

type stubLocker struct {
	mu     sync.Mutex
	claves []string
}

func (l *stubLocker) Lock(_ context.Context, key string, _ time.Duration) (func(), error) {
	l.mu.Lock()
	l.claves = append(l.claves, key)
	l.mu.Unlock()
	return func() {}, nil
}

type stubRevocador struct {
	revocados map[string]time.Duration
}

func (r *stubRevocador) Revocar(_ context.Context, jti string, ttl time.Duration) error {
	if r.revocados == nil {
		r.revocados = map[string]time.Duration{}
	}
	r.revocados[jti] = ttl
	return nil
}

// reloj is a settable clock.
type reloj struct{ t time.Time }

func (r *reloj) now() time.Time          { return r.t }
func (r *reloj) avanzar(d time.Duration) { r.t = r.t.Add(d) }

func mustUUID(t interface{ Fatalf(string, ...interface{}) }, s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		t.Fatalf("uuid inválido %q: %v", s, err)
	}
	return id
}
