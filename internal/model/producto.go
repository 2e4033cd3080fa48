package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Categoria values shared by Producto.
const (
	CategoriaPredefinida    = "predefinida"
	CategoriaPersonalizable = "personalizable"
)

// Producto is a catalog item sold on its own or added to a box as an extra.
type Producto struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre      string          `gorm:"uniqueIndex;not null"`
	Descripcion string          `gorm:"not null;default:''"`
	Precio      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Stock       int             `gorm:"not null;default:0"`
	Imagen      *string
	Categoria   string `gorm:"type:varchar(20);not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
