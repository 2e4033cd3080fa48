package repository

import (
	"context"

	"cuentame/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CajaRepository stores the boxes configured by customers.
type CajaRepository interface {
	Create(ctx context.Context, tx *gorm.DB, c *model.Caja) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Caja, error)
	// FindPredefinidaByNombre looks up a predefinida-type box by name.
	FindPredefinidaByNombre(ctx context.Context, nombre string) (*model.Caja, error)
	ListByUsuario(ctx context.Context, usuarioID uuid.UUID) ([]model.Caja, error)
	ListAll(ctx context.Context) ([]model.Caja, error)
	// Update saves the columns and replaces the extras association.
	Update(ctx context.Context, tx *gorm.DB, c *model.Caja) error
	UpdatePrecioTotal(ctx context.Context, tx *gorm.DB, id uuid.UUID, total decimal.Decimal) error
	UpdateEstado(ctx context.Context, id uuid.UUID, estado string) error
	Delete(ctx context.Context, id uuid.UUID) error
	DB() *gorm.DB
}

type cajaRepo struct{ db *gorm.DB }

func NewCajaRepository(db *gorm.DB) CajaRepository { return &cajaRepo{db: db} }

func (r *cajaRepo) DB() *gorm.DB { return r.db }

func (r *cajaRepo) Create(ctx context.Context, tx *gorm.DB, c *model.Caja) error {
	return conn(ctx, r.db, tx).Create(c).Error
}

func (r *cajaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Caja, error) {
	var c model.Caja
	err := r.db.WithContext(ctx).Preload("Extras").First(&c, "id = ?", id).Error
	return &c, err
}

func (r *cajaRepo) FindPredefinidaByNombre(ctx context.Context, nombre string) (*model.Caja, error) {
	var c model.Caja
	err := r.db.WithContext(ctx).
		Where("tipo = ? AND LOWER(nombre) = LOWER(?)", model.TipoCajaPredefinida, nombre).
		First(&c).Error
	return &c, err
}

func (r *cajaRepo) ListByUsuario(ctx context.Context, usuarioID uuid.UUID) ([]model.Caja, error) {
	var cajas []model.Caja
	err := r.db.WithContext(ctx).Preload("Extras").
		Where("usuario_id = ?", usuarioID).
		Order("created_at DESC").
		Find(&cajas).Error
	return cajas, err
}

func (r *cajaRepo) ListAll(ctx context.Context) ([]model.Caja, error) {
	var cajas []model.Caja
	err := r.db.WithContext(ctx).Preload("Extras").Order("created_at DESC").Find(&cajas).Error
	return cajas, err
}

func (r *cajaRepo) Update(ctx context.Context, tx *gorm.DB, c *model.Caja) error {
	db := conn(ctx, r.db, tx)
	if err := db.Omit("Extras").Save(c).Error; err != nil {
		return err
	}
	return db.Model(c).Association("Extras").Replace(c.Extras)
}

func (r *cajaRepo) UpdatePrecioTotal(ctx context.Context, tx *gorm.DB, id uuid.UUID, total decimal.Decimal) error {
	return conn(ctx, r.db, tx).Model(&model.Caja{}).Where("id = ?", id).Update("precio_total", total).Error
}

func (r *cajaRepo) UpdateEstado(ctx context.Context, id uuid.UUID, estado string) error {
	return r.db.WithContext(ctx).Model(&model.Caja{}).Where("id = ?", id).Update("estado", estado).Error
}

func (r *cajaRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Select("Extras").Delete(&model.Caja{ID: id}).Error
}
