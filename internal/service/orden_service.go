package service

import (
	"context"
	"fmt"

	"cuentame/internal/apierror"
	"cuentame/internal/dto"
	"cuentame/internal/infra"
	"cuentame/internal/metrics"
	"cuentame/internal/model"
	"cuentame/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── Line variants ────────────────────────────────────────────────────────────

// Linea is one (catalog reference, quantity) pair of an order. Each variant
// carries the id type of the catalog entity it points to.
type Linea interface {
	Tipo() string
	RefID() uuid.UUID
	Unidades() int
}

type LineaCajaPredefinida struct {
	CajaID   uuid.UUID
	Cantidad int
}

type LineaCajaPersonalizada struct {
	CajaID   uuid.UUID
	Cantidad int
}

type LineaProducto struct {
	ProductoID uuid.UUID
	Cantidad   int
}

func (l LineaCajaPredefinida) Tipo() string     { return model.LineaCajaPredefinida }
func (l LineaCajaPredefinida) RefID() uuid.UUID { return l.CajaID }
func (l LineaCajaPredefinida) Unidades() int    { return l.Cantidad }

func (l LineaCajaPersonalizada) Tipo() string     { return model.LineaCajaPersonalizada }
func (l LineaCajaPersonalizada) RefID() uuid.UUID { return l.CajaID }
func (l LineaCajaPersonalizada) Unidades() int    { return l.Cantidad }

func (l LineaProducto) Tipo() string     { return model.LineaProducto }
func (l LineaProducto) RefID() uuid.UUID { return l.ProductoID }
func (l LineaProducto) Unidades() int    { return l.Cantidad }

// ResolutorPrecios returns the current unit price of each kind of reference.
// A missing entity is reported with gorm.ErrRecordNotFound.
type ResolutorPrecios interface {
	PrecioCajaPredefinida(ctx context.Context, id uuid.UUID) (decimal.Decimal, error)
	PrecioCajaPersonalizada(ctx context.Context, id uuid.UUID) (decimal.Decimal, error)
	PrecioProducto(ctx context.Context, id uuid.UUID) (decimal.Decimal, error)
}

// LineaCotizada is a line with the price resolved for it.
type LineaCotizada struct {
	Linea          Linea
	PrecioUnitario decimal.Decimal
	Subtotal       decimal.Decimal
}

// Cotizar resolves the unit price of every line and returns the priced
// lines and their sum. Any unresolved reference aborts with
// UnknownReferenceError.
func Cotizar(ctx context.Context, lineas []Linea, r ResolutorPrecios) ([]LineaCotizada, decimal.Decimal, error) {
	cotizadas := make([]LineaCotizada, 0, len(lineas))
	total := decimal.Zero
	for _, l := range lineas {
		var (
			precio decimal.Decimal
			err    error
		)
		switch l.(type) {
		case LineaCajaPredefinida:
			precio, err = r.PrecioCajaPredefinida(ctx, l.RefID())
		case LineaCajaPersonalizada:
			precio, err = r.PrecioCajaPersonalizada(ctx, l.RefID())
		case LineaProducto:
			precio, err = r.PrecioProducto(ctx, l.RefID())
		default:
			return nil, decimal.Zero, fmt.Errorf("tipo de línea desconocido %T", l)
		}
		if err != nil {
			if esNoEncontrado(err) {
				return nil, decimal.Zero, apierror.NotFound(apierror.CodeUnknownReference,
					fmt.Sprintf("Referencia desconocida: %s %s", l.Tipo(), l.RefID()))
			}
			return nil, decimal.Zero, fmt.Errorf("resolver precio de %s %s: %w", l.Tipo(), l.RefID(), err)
		}
		sub := precio.Mul(decimal.NewFromInt(int64(l.Unidades())))
		cotizadas = append(cotizadas, LineaCotizada{Linea: l, PrecioUnitario: precio, Subtotal: sub})
		total = total.Add(sub)
	}
	if !montoValido(total) {
		return nil, decimal.Zero, apierror.Validation("", fmt.Sprintf(
			"El total de la orden (%s) supera el máximo permitido de %s", total.StringFixed(2), MontoMaximo.StringFixed(2)))
	}
	return cotizadas, total, nil
}

// CalcularTotal is the sum over every line of resolved price × quantity.
func CalcularTotal(ctx context.Context, lineas []Linea, r ResolutorPrecios) (decimal.Decimal, error) {
	_, total, err := Cotizar(ctx, lineas, r)
	return total, err
}

// repoResolutor reads prices inside the transaction that writes the order.
type repoResolutor struct {
	tx           *gorm.DB
	predefinidas repository.CajaPredefinidaRepository
	plantillas   repository.CajaPersonalizadaRepository
	productos    repository.ProductoRepository
}

func (r repoResolutor) PrecioCajaPredefinida(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
	c, err := r.predefinidas.FindByIDTx(ctx, r.tx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return c.Precio, nil
}

func (r repoResolutor) PrecioCajaPersonalizada(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
	c, err := r.plantillas.FindByIDTx(ctx, r.tx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return c.PrecioBase, nil
}

func (r repoResolutor) PrecioProducto(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
	p, err := r.productos.FindByIDTx(ctx, r.tx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return p.Precio, nil
}

// ── Service ──────────────────────────────────────────────────────────────────

type OrdenService interface {
	Crear(ctx context.Context, usuarioID uuid.UUID, req dto.CrearOrdenRequest) (*dto.OrdenResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID, sol Solicitante) (*dto.OrdenResponse, error)
	Listar(ctx context.Context, filter dto.OrdenFilter) ([]dto.OrdenResponse, error)
	CambiarEstado(ctx context.Context, id uuid.UUID, sol Solicitante, estado string) (*dto.OrdenResponse, error)
	Eliminar(ctx context.Context, id uuid.UUID, sol Solicitante) error
	// Comprobante renders the PDF receipt and returns its path.
	Comprobante(ctx context.Context, id uuid.UUID, sol Solicitante) (string, error)
}

type ordenService struct {
	repo          repository.OrdenRepository
	direccionRepo repository.DireccionRepository
	predefinidas  repository.CajaPredefinidaRepository
	plantillas    repository.CajaPersonalizadaRepository
	productos     repository.ProductoRepository
	pdfDir        string
}

func NewOrdenService(
	repo repository.OrdenRepository,
	direccionRepo repository.DireccionRepository,
	predefinidas repository.CajaPredefinidaRepository,
	plantillas repository.CajaPersonalizadaRepository,
	productos repository.ProductoRepository,
	pdfDir string,
) OrdenService {
	return &ordenService{
		repo:          repo,
		direccionRepo: direccionRepo,
		predefinidas:  predefinidas,
		plantillas:    plantillas,
		productos:     productos,
		pdfDir:        pdfDir,
	}
}

func (s *ordenService) resolutor(tx *gorm.DB) ResolutorPrecios {
	return repoResolutor{tx: tx, predefinidas: s.predefinidas, plantillas: s.plantillas, productos: s.productos}
}

// ── Crear ────────────────────────────────────────────────────────────────────
// Input and address checks run first. Prices are resolved and the total is
// computed inside the transaction that inserts the order, right before the
// insert, so the stored total always matches the stored lines.

func (s *ordenService) Crear(ctx context.Context, usuarioID uuid.UUID, req dto.CrearOrdenRequest) (*dto.OrdenResponse, error) {
	if req.TipoEntrega != model.TipoEntregaDomicilio && req.TipoEntrega != model.TipoEntregaRetiro {
		return nil, apierror.Validation("", "tipo_entrega debe ser 'domicilio' o 'retiro'")
	}
	lineas, err := lineasDesdeContenido(req.Contenido)
	if err != nil {
		return nil, err
	}

	var direccionID *uuid.UUID
	if req.TipoEntrega == model.TipoEntregaDomicilio {
		id, err := s.verificarDireccion(ctx, usuarioID, req.DireccionID)
		if err != nil {
			return nil, err
		}
		direccionID = &id
	}

	orden := &model.OrdenCompra{
		UsuarioID:   usuarioID,
		TipoEntrega: req.TipoEntrega,
		DireccionID: direccionID,
		Estado:      model.EstadoOrdenPendiente,
	}

	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		cotizadas, total, err := Cotizar(ctx, lineas, s.resolutor(tx))
		if err != nil {
			return err
		}
		orden.Lineas = lineasModelo(cotizadas)
		orden.Total = total
		return s.repo.Create(ctx, tx, orden)
	})
	if err != nil {
		if _, ok := apierror.As(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("crear orden: %w", err)
	}

	metrics.RecordOrden(orden.TipoEntrega, orden.Total)

	// Reload to inline catalog names and the address.
	if full, err := s.repo.FindByID(ctx, orden.ID); err == nil {
		orden = full
	}
	resp := toOrdenResponse(*orden)
	return &resp, nil
}

func (s *ordenService) verificarDireccion(ctx context.Context, usuarioID uuid.UUID, raw *string) (uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return uuid.Nil, apierror.Validation(apierror.CodeMissingAddress, "La entrega a domicilio requiere direccion_id")
	}
	id, err := parseID(*raw, "direccion_id")
	if err != nil {
		return uuid.Nil, err
	}
	dir, err := s.direccionRepo.FindByID(ctx, id)
	if err != nil {
		if esNoEncontrado(err) {
			return uuid.Nil, apierror.NotFound("", "Dirección no encontrada")
		}
		return uuid.Nil, err
	}
	if dir.UsuarioID != usuarioID {
		return uuid.Nil, apierror.Forbidden("", "La dirección pertenece a otro usuario")
	}
	return id, nil
}

// ── Lectura ──────────────────────────────────────────────────────────────────

func (s *ordenService) ObtenerPorID(ctx context.Context, id uuid.UUID, sol Solicitante) (*dto.OrdenResponse, error) {
	orden, err := s.buscar(ctx, id)
	if err != nil {
		return nil, err
	}
	if orden.UsuarioID != sol.ID && !sol.EsAdmin() {
		return nil, apierror.Forbidden("", "La orden pertenece a otro usuario")
	}
	resp := toOrdenResponse(*orden)
	return &resp, nil
}

func (s *ordenService) Listar(ctx context.Context, filter dto.OrdenFilter) ([]dto.OrdenResponse, error) {
	if filter.Estado != "" && !contiene(model.EstadosOrden, filter.Estado) {
		return nil, apierror.Validation(apierror.CodeInvalidState, fmt.Sprintf("Estado de orden inválido: %q", filter.Estado))
	}
	ordenes, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.OrdenResponse, len(ordenes))
	for i, o := range ordenes {
		resp[i] = toOrdenResponse(o)
	}
	return resp, nil
}

// ── CambiarEstado ────────────────────────────────────────────────────────────
// Any state may follow any other. Lines are re-priced and the total is
// recomputed in the same transaction as the status write.

func (s *ordenService) CambiarEstado(ctx context.Context, id uuid.UUID, sol Solicitante, estado string) (*dto.OrdenResponse, error) {
	if !contiene(model.EstadosOrden, estado) {
		return nil, apierror.Validation(apierror.CodeInvalidState, fmt.Sprintf("Estado de orden inválido: %q", estado))
	}
	orden, err := s.buscar(ctx, id)
	if err != nil {
		return nil, err
	}
	if orden.UsuarioID != sol.ID && !sol.EsAdmin() {
		return nil, apierror.Forbidden("", "Solo el dueño de la orden puede cambiar su estado")
	}

	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		lineas, err := lineasDesdeModelo(orden.Lineas)
		if err != nil {
			return err
		}
		cotizadas, total, err := Cotizar(ctx, lineas, s.resolutor(tx))
		if err != nil {
			return err
		}
		for i := range orden.Lineas {
			orden.Lineas[i].PrecioUnitario = cotizadas[i].PrecioUnitario
			orden.Lineas[i].Subtotal = cotizadas[i].Subtotal
		}
		orden.Total = total
		orden.Estado = estado
		return s.repo.Update(ctx, tx, orden)
	})
	if err != nil {
		if _, ok := apierror.As(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("cambiar estado de orden: %w", err)
	}
	resp := toOrdenResponse(*orden)
	return &resp, nil
}

// Eliminar is a hard delete restricted to the owner. Catalog stock is untouched.
func (s *ordenService) Eliminar(ctx context.Context, id uuid.UUID, sol Solicitante) error {
	orden, err := s.buscar(ctx, id)
	if err != nil {
		return err
	}
	if orden.UsuarioID != sol.ID {
		return apierror.Forbidden("", "Solo el dueño de la orden puede eliminarla")
	}
	return s.repo.Delete(ctx, id)
}

func (s *ordenService) Comprobante(ctx context.Context, id uuid.UUID, sol Solicitante) (string, error) {
	orden, err := s.buscar(ctx, id)
	if err != nil {
		return "", err
	}
	if orden.UsuarioID != sol.ID && !sol.EsAdmin() {
		return "", apierror.Forbidden("", "La orden pertenece a otro usuario")
	}
	return infra.GenerarComprobantePDF(orden, s.pdfDir)
}

func (s *ordenService) buscar(ctx context.Context, id uuid.UUID) (*model.OrdenCompra, error) {
	orden, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if esNoEncontrado(err) {
			return nil, apierror.NotFound("", "Orden no encontrada")
		}
		return nil, err
	}
	return orden, nil
}

// ── mapping ──────────────────────────────────────────────────────────────────

// lineasDesdeContenido turns the three request groups into typed lines.
func lineasDesdeContenido(c dto.ContenidoOrdenRequest) ([]Linea, error) {
	total := len(c.CajasPredefinidas) + len(c.CajasPersonalizadas) + len(c.ProductosIndividuales)
	if total == 0 {
		return nil, apierror.Validation("", "La orden debe contener al menos un artículo")
	}
	lineas := make([]Linea, 0, total)
	for _, l := range c.CajasPredefinidas {
		id, err := lineaRef(l.CajaID, l.Cantidad, "caja_id")
		if err != nil {
			return nil, err
		}
		lineas = append(lineas, LineaCajaPredefinida{CajaID: id, Cantidad: l.Cantidad})
	}
	for _, l := range c.CajasPersonalizadas {
		id, err := lineaRef(l.CajaID, l.Cantidad, "caja_id")
		if err != nil {
			return nil, err
		}
		lineas = append(lineas, LineaCajaPersonalizada{CajaID: id, Cantidad: l.Cantidad})
	}
	for _, l := range c.ProductosIndividuales {
		id, err := lineaRef(l.ProductoID, l.Cantidad, "producto_id")
		if err != nil {
			return nil, err
		}
		lineas = append(lineas, LineaProducto{ProductoID: id, Cantidad: l.Cantidad})
	}
	return lineas, nil
}

func lineaRef(raw string, cantidad int, campo string) (uuid.UUID, error) {
	if cantidad < 1 || cantidad > MaxCantidadLinea {
		return uuid.Nil, apierror.Validation("", fmt.Sprintf(
			"La cantidad de cada artículo debe estar entre 1 y %d", MaxCantidadLinea))
	}
	return parseID(raw, campo)
}

func lineasModelo(cotizadas []LineaCotizada) []model.OrdenLinea {
	out := make([]model.OrdenLinea, len(cotizadas))
	for i, c := range cotizadas {
		ref := c.Linea.RefID()
		l := model.OrdenLinea{
			Tipo:           c.Linea.Tipo(),
			Cantidad:       c.Linea.Unidades(),
			PrecioUnitario: c.PrecioUnitario,
			Subtotal:       c.Subtotal,
		}
		switch c.Linea.(type) {
		case LineaCajaPredefinida:
			l.CajaPredefinidaID = &ref
		case LineaCajaPersonalizada:
			l.CajaPersonalizadaID = &ref
		case LineaProducto:
			l.ProductoID = &ref
		}
		out[i] = l
	}
	return out
}

func lineasDesdeModelo(ls []model.OrdenLinea) ([]Linea, error) {
	out := make([]Linea, len(ls))
	for i, l := range ls {
		switch {
		case l.Tipo == model.LineaCajaPredefinida && l.CajaPredefinidaID != nil:
			out[i] = LineaCajaPredefinida{CajaID: *l.CajaPredefinidaID, Cantidad: l.Cantidad}
		case l.Tipo == model.LineaCajaPersonalizada && l.CajaPersonalizadaID != nil:
			out[i] = LineaCajaPersonalizada{CajaID: *l.CajaPersonalizadaID, Cantidad: l.Cantidad}
		case l.Tipo == model.LineaProducto && l.ProductoID != nil:
			out[i] = LineaProducto{ProductoID: *l.ProductoID, Cantidad: l.Cantidad}
		default:
			return nil, fmt.Errorf("línea %s inconsistente: tipo %q", l.ID, l.Tipo)
		}
	}
	return out, nil
}

func toOrdenResponse(o model.OrdenCompra) dto.OrdenResponse {
	resp := dto.OrdenResponse{
		ID:          o.ID.String(),
		UsuarioID:   o.UsuarioID.String(),
		TipoEntrega: o.TipoEntrega,
		Estado:      o.Estado,
		Total:       o.Total,
		CreatedAt:   formatFecha(o.CreatedAt),
		Contenido: dto.ContenidoOrdenResponse{
			CajasPredefinidas:     []dto.LineaOrdenResponse{},
			CajasPersonalizadas:   []dto.LineaOrdenResponse{},
			ProductosIndividuales: []dto.LineaOrdenResponse{},
		},
	}
	if o.Direccion != nil {
		d := mapDireccion(*o.Direccion)
		resp.Direccion = &d
	}
	for _, l := range o.Lineas {
		lr := dto.LineaOrdenResponse{
			PrecioUnitario: l.PrecioUnitario,
			Cantidad:       l.Cantidad,
			Subtotal:       l.Subtotal,
		}
		switch l.Tipo {
		case model.LineaCajaPredefinida:
			lr.RefID = uuidStr(l.CajaPredefinidaID)
			if l.CajaPredefinida != nil {
				lr.Nombre = l.CajaPredefinida.Nombre
			}
			resp.Contenido.CajasPredefinidas = append(resp.Contenido.CajasPredefinidas, lr)
		case model.LineaCajaPersonalizada:
			lr.RefID = uuidStr(l.CajaPersonalizadaID)
			if l.CajaPersonalizada != nil {
				lr.Nombre = l.CajaPersonalizada.Nombre
			}
			resp.Contenido.CajasPersonalizadas = append(resp.Contenido.CajasPersonalizadas, lr)
		case model.LineaProducto:
			lr.RefID = uuidStr(l.ProductoID)
			if l.Producto != nil {
				lr.Nombre = l.Producto.Nombre
			}
			resp.Contenido.ProductosIndividuales = append(resp.Contenido.ProductosIndividuales, lr)
		}
	}
	return resp
}

func uuidStr(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
