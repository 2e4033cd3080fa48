package model

import (
	"time"

	"github.com/google/uuid"
)

// Direccion is a delivery address owned by a Usuario.
// At most one row per user has IsDefault=true (partial unique index, see infra).
type Direccion struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UsuarioID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_direccion_usuario_alias;uniqueIndex:idx_direccion_usuario_casa"`
	Alias           string    `gorm:"not null;uniqueIndex:idx_direccion_usuario_alias"`
	Parroquia       string    `gorm:"not null"`
	CallePrincipal  string    `gorm:"not null"`
	CalleSecundaria *string
	NumeroCasa      string `gorm:"not null;uniqueIndex:idx_direccion_usuario_casa"`
	Referencia      *string
	IsDefault       bool `gorm:"not null;default:false"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (Direccion) TableName() string { return "direcciones" }
