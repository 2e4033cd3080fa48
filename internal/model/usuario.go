package model

import (
	"time"

	"github.com/google/uuid"
)

// Roles carried in the JWT.
const (
	RolCliente = "cliente"
	RolAdmin   = "admin"
)

// Usuario is a customer account. It can only log in once Verificado is true,
// which happens after the emailed OTP is confirmed.
type Usuario struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre           string    `gorm:"not null"`
	Correo           string    `gorm:"uniqueIndex;not null"`
	PasswordHash     string    `gorm:"not null"`
	Telefono         string    `gorm:"not null"`
	OTP              *string   `gorm:"type:varchar(6)"`
	OTPExpira        *time.Time
	Verificado       bool    `gorm:"not null;default:false"`
	TokenRecup       *string `gorm:"index"`
	TokenRecupExpira *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// The address book and purchase history are the rows pointing back here.
	Direcciones []Direccion   `gorm:"foreignKey:UsuarioID;constraint:OnDelete:CASCADE"`
	Ordenes     []OrdenCompra `gorm:"foreignKey:UsuarioID;constraint:OnDelete:CASCADE"`
	Cajas       []Caja        `gorm:"foreignKey:UsuarioID;constraint:OnDelete:CASCADE"`
}

// Administrador is a back-office account. Login requires EmailConfirmado.
type Administrador struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre            string    `gorm:"not null"`
	Correo            string    `gorm:"uniqueIndex;not null"`
	PasswordHash      string    `gorm:"not null"`
	Telefono          string    `gorm:"not null;default:''"`
	TokenConfirmacion *string   `gorm:"index"`
	EmailConfirmado   bool      `gorm:"not null;default:false"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (Administrador) TableName() string { return "administradores" }
