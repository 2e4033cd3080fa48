package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TipoEntregaDomicilio = "domicilio"
	TipoEntregaRetiro    = "retiro"
)

const (
	EstadoOrdenPendiente = "pendiente"
	EstadoOrdenPagada    = "pagada"
	EstadoOrdenEnviado   = "enviado"
	EstadoOrdenEntregada = "entregada"
	EstadoOrdenCancelada = "cancelada"
)

// EstadosOrden lists every valid OrdenCompra.Estado.
var EstadosOrden = []string{
	EstadoOrdenPendiente, EstadoOrdenPagada, EstadoOrdenEnviado, EstadoOrdenEntregada, EstadoOrdenCancelada,
}

// Tipo values of an OrdenLinea; each names the FK column that is set.
const (
	LineaCajaPredefinida   = "caja_predefinida"
	LineaCajaPersonalizada = "caja_personalizada"
	LineaProducto          = "producto"
)

// OrdenCompra is a customer purchase. Total is always derived from the lines.
type OrdenCompra struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UsuarioID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	TipoEntrega string          `gorm:"type:varchar(20);not null"`
	DireccionID *uuid.UUID      `gorm:"type:uuid;index"`
	Estado      string          `gorm:"type:varchar(20);not null;default:'pendiente'"`
	Total       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Lineas    []OrdenLinea `gorm:"foreignKey:OrdenID;constraint:OnDelete:CASCADE"`
	Direccion *Direccion   `gorm:"foreignKey:DireccionID;constraint:OnDelete:SET NULL"`
}

func (OrdenCompra) TableName() string { return "ordenes_compra" }

// OrdenLinea is one (catalog reference, quantity) pair of an order.
// Exactly one of the three reference columns is non-null, matching Tipo.
type OrdenLinea struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrdenID             uuid.UUID       `gorm:"type:uuid;not null;index"`
	Tipo                string          `gorm:"type:varchar(30);not null"`
	CajaPredefinidaID   *uuid.UUID      `gorm:"type:uuid;index"`
	CajaPersonalizadaID *uuid.UUID      `gorm:"type:uuid;index"`
	ProductoID          *uuid.UUID      `gorm:"type:uuid;index"`
	Cantidad            int             `gorm:"not null"`
	PrecioUnitario      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Subtotal            decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	CajaPredefinida   *CajaPredefinida   `gorm:"foreignKey:CajaPredefinidaID"`
	CajaPersonalizada *CajaPersonalizada `gorm:"foreignKey:CajaPersonalizadaID"`
	Producto          *Producto          `gorm:"foreignKey:ProductoID"`
}

func (OrdenLinea) TableName() string { return "orden_lineas" }
