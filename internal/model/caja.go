package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	TipoCajaPredefinida    = "predefinida"
	TipoCajaPersonalizable = "personalizable"
)

// Estado values of a Caja.
const (
	EstadoCajaPendiente  = "pendiente"
	EstadoCajaEnProceso  = "en proceso"
	EstadoCajaCompletada = "completada"
)

// Caja is a box configured by a customer. Which column group is populated
// depends on Tipo: Descripcion/Precio/Stock for predefinida, Dimensiones/
// Colores/Decoracion for personalizable. The service layer only builds a Caja
// from a validated configuration, so the two groups never mix.
type Caja struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UsuarioID uuid.UUID `gorm:"type:uuid;not null;index"`
	Nombre    string    `gorm:"not null"`
	Tipo      string    `gorm:"type:varchar(20);not null;index"`

	Descripcion *string
	Precio      *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Stock       *int

	// Dimensiones maps a size label ("20x20") to its price as a decimal string.
	Dimensiones datatypes.JSONType[map[string]string] `gorm:"type:jsonb"`
	Colores     pq.StringArray                        `gorm:"type:text[]"`
	Decoracion  *string

	PrecioTotal decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Estado      string          `gorm:"type:varchar(20);not null;default:'pendiente'"`
	Imagen      *string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Extras []Producto `gorm:"many2many:caja_extras;constraint:OnDelete:CASCADE"`
}
