package dto

import "github.com/shopspring/decimal"

// ─── Cajas predefinidas ──────────────────────────────────────────────────────

type CrearCajaPredefinidaRequest struct {
	Nombre      string          `json:"nombre"      validate:"required,min=2,max=120"`
	Descripcion string          `json:"descripcion" validate:"required,max=500"`
	Contenido   string          `json:"contenido"   validate:"max=1000"`
	Stock       int             `json:"stock"       validate:"min=0"`
	Precio      decimal.Decimal `json:"precio"      validate:"min=0"`
}

type ActualizarCajaPredefinidaRequest struct {
	Nombre      *string          `json:"nombre"      validate:"omitempty,min=2,max=120"`
	Descripcion *string          `json:"descripcion" validate:"omitempty,max=500"`
	Contenido   *string          `json:"contenido"   validate:"omitempty,max=1000"`
	Stock       *int             `json:"stock"       validate:"omitempty,min=0"`
	Precio      *decimal.Decimal `json:"precio"      validate:"omitempty,min=0"`
}

type CajaPredefinidaResponse struct {
	ID          string          `json:"id"`
	Nombre      string          `json:"nombre"`
	Descripcion string          `json:"descripcion"`
	Contenido   string          `json:"contenido"`
	Stock       int             `json:"stock"`
	Precio      decimal.Decimal `json:"precio"`
	Imagen      *string         `json:"imagen"`
}

// ─── Cajas personalizadas (plantillas) ───────────────────────────────────────

type DimensionPrecioDTO struct {
	Dimension string          `json:"dimension" validate:"required,max=20"`
	Precio    decimal.Decimal `json:"precio"    validate:"min=0"`
}

type CrearCajaPersonalizadaRequest struct {
	Nombre      string               `json:"nombre"      validate:"required,min=2,max=120"`
	Descripcion string               `json:"descripcion" validate:"required,max=100"`
	PrecioBase  decimal.Decimal      `json:"precio_base" validate:"min=0"`
	Dimensiones []DimensionPrecioDTO `json:"dimensiones" validate:"dive"`
	Color       string               `json:"color"       validate:"required,max=40"`
	Extras      []string             `json:"extras"      validate:"dive,uuid"`
}

type ActualizarCajaPersonalizadaRequest struct {
	Nombre      *string               `json:"nombre"      validate:"omitempty,min=2,max=120"`
	Descripcion *string               `json:"descripcion" validate:"omitempty,max=100"`
	PrecioBase  *decimal.Decimal      `json:"precio_base" validate:"omitempty,min=0"`
	Dimensiones *[]DimensionPrecioDTO `json:"dimensiones"`
	Color       *string               `json:"color"       validate:"omitempty,max=40"`
	Extras      *[]string             `json:"extras"`
}

type CajaPersonalizadaResponse struct {
	ID          string               `json:"id"`
	Nombre      string               `json:"nombre"`
	Descripcion string               `json:"descripcion"`
	PrecioBase  decimal.Decimal      `json:"precio_base"`
	Dimensiones []DimensionPrecioDTO `json:"dimensiones"`
	Color       string               `json:"color"`
	Imagen      *string              `json:"imagen"`
	Extras      []ProductoResumen    `json:"extras"`
}
