package repository

import (
	"context"

	"cuentame/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CajaPredefinidaRepository interface {
	Create(ctx context.Context, c *model.CajaPredefinida) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CajaPredefinida, error)
	FindByIDTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.CajaPredefinida, error)
	FindByNombre(ctx context.Context, nombre string) (*model.CajaPredefinida, error)
	List(ctx context.Context) ([]model.CajaPredefinida, error)
	Update(ctx context.Context, c *model.CajaPredefinida) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountOrdenLineas(ctx context.Context, id uuid.UUID) (int64, error)
}

type cajaPredefinidaRepo struct{ db *gorm.DB }

func NewCajaPredefinidaRepository(db *gorm.DB) CajaPredefinidaRepository {
	return &cajaPredefinidaRepo{db: db}
}

func (r *cajaPredefinidaRepo) Create(ctx context.Context, c *model.CajaPredefinida) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *cajaPredefinidaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CajaPredefinida, error) {
	return r.FindByIDTx(ctx, nil, id)
}

func (r *cajaPredefinidaRepo) FindByIDTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.CajaPredefinida, error) {
	var c model.CajaPredefinida
	err := conn(ctx, r.db, tx).First(&c, "id = ?", id).Error
	return &c, err
}

func (r *cajaPredefinidaRepo) FindByNombre(ctx context.Context, nombre string) (*model.CajaPredefinida, error) {
	var c model.CajaPredefinida
	err := r.db.WithContext(ctx).Where("LOWER(nombre) = LOWER(?)", nombre).First(&c).Error
	return &c, err
}

func (r *cajaPredefinidaRepo) List(ctx context.Context) ([]model.CajaPredefinida, error) {
	var cajas []model.CajaPredefinida
	err := r.db.WithContext(ctx).Order("nombre ASC").Find(&cajas).Error
	return cajas, err
}

func (r *cajaPredefinidaRepo) Update(ctx context.Context, c *model.CajaPredefinida) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *cajaPredefinidaRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.CajaPredefinida{}, "id = ?", id).Error
}

func (r *cajaPredefinidaRepo) CountOrdenLineas(ctx context.Context, id uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.OrdenLinea{}).Where("caja_predefinida_id = ?", id).Count(&n).Error
	return n, err
}
