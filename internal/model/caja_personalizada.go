package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// DimensionPrecio is one priced size option of a CajaPersonalizada template.
type DimensionPrecio struct {
	Dimension string          `json:"dimension"`
	Precio    decimal.Decimal `json:"precio"`
}

// CajaPersonalizada is the catalog template a customer starts from when
// configuring a box. Orders price it by PrecioBase.
type CajaPersonalizada struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre      string          `gorm:"not null"`
	Descripcion string          `gorm:"type:varchar(100);not null"`
	PrecioBase  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	// Dimensiones keeps the options in the order the admin entered them.
	Dimensiones datatypes.JSONSlice[DimensionPrecio] `gorm:"type:jsonb;not null;default:'[]'"`
	Color       string                               `gorm:"not null"`
	Imagen      *string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Extras []Producto `gorm:"many2many:caja_personalizada_extras;constraint:OnDelete:CASCADE"`
}

func (CajaPersonalizada) TableName() string { return "cajas_personalizadas" }
