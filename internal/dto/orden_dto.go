package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type LineaCajaRequest struct {
	CajaID   string `json:"caja_id"`
	Cantidad int    `json:"cantidad"`
}

type LineaProductoRequest struct {
	ProductoID string `json:"producto_id"`
	Cantidad   int    `json:"cantidad"`
}

type ContenidoOrdenRequest struct {
	CajasPredefinidas     []LineaCajaRequest     `json:"cajas_predefinidas"`
	CajasPersonalizadas   []LineaCajaRequest     `json:"cajas_personalizadas"`
	ProductosIndividuales []LineaProductoRequest `json:"productos_individuales"`
}

// CrearOrdenRequest is validated entirely by the order service so that every
// rule reports the same error taxonomy.
type CrearOrdenRequest struct {
	Contenido   ContenidoOrdenRequest `json:"contenido"`
	TipoEntrega string                `json:"tipo_entrega"`
	DireccionID *string               `json:"direccion_id"`
}

type CambiarEstadoOrdenRequest struct {
	Estado string `json:"estado"`
}

// ─── Filter ──────────────────────────────────────────────────────────────────

// OrdenFilter selects which orders Listar returns. A nil UsuarioID means all.
type OrdenFilter struct {
	UsuarioID *string `form:"-"`
	Estado    string  `form:"estado"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// LineaOrdenResponse inlines the referenced catalog entity.
type LineaOrdenResponse struct {
	RefID          string          `json:"ref_id"`
	Nombre         string          `json:"nombre"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Cantidad       int             `json:"cantidad"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

type ContenidoOrdenResponse struct {
	CajasPredefinidas     []LineaOrdenResponse `json:"cajas_predefinidas"`
	CajasPersonalizadas   []LineaOrdenResponse `json:"cajas_personalizadas"`
	ProductosIndividuales []LineaOrdenResponse `json:"productos_individuales"`
}

type OrdenResponse struct {
	ID          string                 `json:"id"`
	UsuarioID   string                 `json:"usuario_id"`
	Contenido   ContenidoOrdenResponse `json:"contenido"`
	TipoEntrega string                 `json:"tipo_entrega"`
	Direccion   *DireccionResponse     `json:"direccion"`
	Estado      string                 `json:"estado"`
	Total       decimal.Decimal        `json:"total"`
	CreatedAt   string                 `json:"created_at"`
}
