package repository

import (
	"context"

	"cuentame/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CajaPersonalizadaRepository stores the custom-box templates of the catalog.
type CajaPersonalizadaRepository interface {
	Create(ctx context.Context, c *model.CajaPersonalizada) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CajaPersonalizada, error)
	FindByIDTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.CajaPersonalizada, error)
	List(ctx context.Context) ([]model.CajaPersonalizada, error)
	// Update saves the columns and replaces the extras association.
	Update(ctx context.Context, c *model.CajaPersonalizada) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountOrdenLineas(ctx context.Context, id uuid.UUID) (int64, error)
}

type cajaPersonalizadaRepo struct{ db *gorm.DB }

func NewCajaPersonalizadaRepository(db *gorm.DB) CajaPersonalizadaRepository {
	return &cajaPersonalizadaRepo{db: db}
}

func (r *cajaPersonalizadaRepo) Create(ctx context.Context, c *model.CajaPersonalizada) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *cajaPersonalizadaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CajaPersonalizada, error) {
	return r.FindByIDTx(ctx, nil, id)
}

func (r *cajaPersonalizadaRepo) FindByIDTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.CajaPersonalizada, error) {
	var c model.CajaPersonalizada
	err := conn(ctx, r.db, tx).Preload("Extras").First(&c, "id = ?", id).Error
	return &c, err
}

func (r *cajaPersonalizadaRepo) List(ctx context.Context) ([]model.CajaPersonalizada, error) {
	var cajas []model.CajaPersonalizada
	err := r.db.WithContext(ctx).Preload("Extras").Order("nombre ASC").Find(&cajas).Error
	return cajas, err
}

func (r *cajaPersonalizadaRepo) Update(ctx context.Context, c *model.CajaPersonalizada) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Extras").Save(c).Error; err != nil {
			return err
		}
		return tx.Model(c).Association("Extras").Replace(c.Extras)
	})
}

func (r *cajaPersonalizadaRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Select("Extras").Delete(&model.CajaPersonalizada{ID: id}).Error
}

func (r *cajaPersonalizadaRepo) CountOrdenLineas(ctx context.Context, id uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.OrdenLinea{}).Where("caja_personalizada_id = ?", id).Count(&n).Error
	return n, err
}
