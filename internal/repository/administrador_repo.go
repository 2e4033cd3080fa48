package repository

import (
	"context"

	"cuentame/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AdministradorRepository interface {
	Create(ctx context.Context, a *model.Administrador) error
	FindByCorreo(ctx context.Context, correo string) (*model.Administrador, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Administrador, error)
	FindByTokenConfirmacion(ctx context.Context, token string) (*model.Administrador, error)
	Update(ctx context.Context, a *model.Administrador) error
}

type administradorRepo struct{ db *gorm.DB }

func NewAdministradorRepository(db *gorm.DB) AdministradorRepository {
	return &administradorRepo{db: db}
}

func (r *administradorRepo) Create(ctx context.Context, a *model.Administrador) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *administradorRepo) FindByCorreo(ctx context.Context, correo string) (*model.Administrador, error) {
	var a model.Administrador
	err := r.db.WithContext(ctx).Where("LOWER(correo) = LOWER(?)", correo).First(&a).Error
	return &a, err
}

func (r *administradorRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Administrador, error) {
	var a model.Administrador
	err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error
	return &a, err
}

func (r *administradorRepo) FindByTokenConfirmacion(ctx context.Context, token string) (*model.Administrador, error) {
	var a model.Administrador
	err := r.db.WithContext(ctx).Where("token_confirmacion = ?", token).First(&a).Error
	return &a, err
}

func (r *administradorRepo) Update(ctx context.Context, a *model.Administrador) error {
	return r.db.WithContext(ctx).Save(a).Error
}
