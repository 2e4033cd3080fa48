package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CajaPredefinida is a ready-made box sold from the catalog.
type CajaPredefinida struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre      string    `gorm:"uniqueIndex;not null"`
	Descripcion string    `gorm:"not null"`
	// Contenido is a free-text list of what the box contains.
	Contenido string          `gorm:"not null;default:''"`
	Stock     int             `gorm:"not null;default:0"`
	Precio    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Imagen    *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (CajaPredefinida) TableName() string { return "cajas_predefinidas" }
