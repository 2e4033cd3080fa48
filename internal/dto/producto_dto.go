package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearProductoRequest struct {
	Nombre      string          `json:"nombre"      validate:"required,min=2,max=120"`
	Descripcion string          `json:"descripcion" validate:"max=500"`
	Precio      decimal.Decimal `json:"precio"      validate:"min=0"`
	Stock       int             `json:"stock"       validate:"min=0"`
	Categoria   string          `json:"categoria"   validate:"required,oneof=predefinida personalizable"`
}

type ActualizarProductoRequest struct {
	Nombre      *string          `json:"nombre"      validate:"omitempty,min=2,max=120"`
	Descripcion *string          `json:"descripcion" validate:"omitempty,max=500"`
	Precio      *decimal.Decimal `json:"precio"      validate:"omitempty,min=0"`
	Stock       *int             `json:"stock"       validate:"omitempty,min=0"`
	Categoria   *string          `json:"categoria"   validate:"omitempty,oneof=predefinida personalizable"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type ProductoFilter struct {
	Nombre    string `form:"nombre"`
	Categoria string `form:"categoria"`
	Page      int    `form:"page,default=1"  validate:"min=1"`
	Limit     int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductoResponse struct {
	ID          string          `json:"id"`
	Nombre      string          `json:"nombre"`
	Descripcion string          `json:"descripcion"`
	Precio      decimal.Decimal `json:"precio"`
	Stock       int             `json:"stock"`
	Imagen      *string         `json:"imagen"`
	Categoria   string          `json:"categoria"`
}

type ProductoListResponse struct {
	Data       []ProductoResponse `json:"data"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"total_pages"`
}

// ProductoResumen is the inlined form of a product referenced by a box.
type ProductoResumen struct {
	ID     string          `json:"id"`
	Nombre string          `json:"nombre"`
	Precio decimal.Decimal `json:"precio"`
}
