package dto

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// ValorDimension is a dimension price sent either as a JSON string ("12.50")
// or a JSON number (12.5). It keeps the raw text; parsing happens in the
// box validator so bad values surface as InvalidDimensionError.
type ValorDimension string

func (v *ValorDimension) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = ValorDimension(s)
		return nil
	}
	*v = ValorDimension(b)
	return nil
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

// CrearCajaRequest is the raw box payload. Which fields are allowed depends on
// Tipo; the service turns it into a typed configuration before any write.
type CrearCajaRequest struct {
	Nombre      string                    `json:"nombre"`
	Tipo        string                    `json:"tipo"`
	Descripcion *string                   `json:"descripcion"`
	Precio      *decimal.Decimal          `json:"precio"`
	Stock       *int                      `json:"stock"`
	Dimensiones map[string]ValorDimension `json:"dimensiones"`
	Colores     []string                  `json:"colores"`
	Decoracion  *string                   `json:"decoracion"`
	Extras      []string                  `json:"extras"`
}

// ActualizarCajaRequest carries only the fields to change.
type ActualizarCajaRequest struct {
	Nombre      *string                   `json:"nombre"`
	Descripcion *string                   `json:"descripcion"`
	Precio      *decimal.Decimal          `json:"precio"`
	Stock       *int                      `json:"stock"`
	Dimensiones map[string]ValorDimension `json:"dimensiones"`
	Colores     []string                  `json:"colores"`
	Decoracion  *string                   `json:"decoracion"`
	Extras      *[]string                 `json:"extras"`
}

type CambiarEstadoCajaRequest struct {
	Estado string `json:"estado" validate:"required,oneof=pendiente 'en proceso' completada"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type CajaResponse struct {
	ID            string            `json:"id"`
	UsuarioID     string            `json:"usuario_id"`
	Nombre        string            `json:"nombre"`
	Tipo          string            `json:"tipo"`
	Descripcion   *string           `json:"descripcion,omitempty"`
	Precio        *decimal.Decimal  `json:"precio,omitempty"`
	Stock         *int              `json:"stock,omitempty"`
	Dimensiones   map[string]string `json:"dimensiones,omitempty"`
	Colores       []string          `json:"colores,omitempty"`
	Decoracion    *string           `json:"decoracion,omitempty"`
	Extras        []ProductoResumen `json:"extras"`
	PrecioTotal   decimal.Decimal   `json:"precio_total"`
	Estado        string            `json:"estado"`
	Imagen        *string           `json:"imagen"`
	CreatedAt     string            `json:"created_at"`
	EditableHasta string            `json:"editable_hasta"`
}
