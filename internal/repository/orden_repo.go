package repository

import (
	"context"

	"cuentame/internal/dto"
	"cuentame/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrdenRepository interface {
	Create(ctx context.Context, tx *gorm.DB, o *model.OrdenCompra) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.OrdenCompra, error)
	// Update saves estado, total and the re-priced lines.
	Update(ctx context.Context, tx *gorm.DB, o *model.OrdenCompra) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter dto.OrdenFilter) ([]model.OrdenCompra, error)
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type ordenRepo struct{ db *gorm.DB }

func NewOrdenRepository(db *gorm.DB) OrdenRepository { return &ordenRepo{db: db} }

func (r *ordenRepo) DB() *gorm.DB { return r.db }

// withRefs preloads everything a response inlines: the three catalog
// references of each line and the delivery address.
func withRefs(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Lineas.CajaPredefinida").
		Preload("Lineas.CajaPersonalizada").
		Preload("Lineas.Producto").
		Preload("Direccion")
}

func (r *ordenRepo) Create(ctx context.Context, tx *gorm.DB, o *model.OrdenCompra) error {
	// Lines are inserted with the order; their catalog pointers are left nil
	// so gorm never upserts catalog rows.
	return conn(ctx, r.db, tx).Omit("Direccion").Create(o).Error
}

func (r *ordenRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.OrdenCompra, error) {
	var o model.OrdenCompra
	err := withRefs(r.db.WithContext(ctx)).First(&o, "id = ?", id).Error
	return &o, err
}

func (r *ordenRepo) Update(ctx context.Context, tx *gorm.DB, o *model.OrdenCompra) error {
	db := conn(ctx, r.db, tx)
	if err := db.Model(&model.OrdenCompra{}).Where("id = ?", o.ID).Updates(map[string]interface{}{
		"estado": o.Estado,
		"total":  o.Total,
	}).Error; err != nil {
		return err
	}
	for _, l := range o.Lineas {
		if err := db.Model(&model.OrdenLinea{}).Where("id = ?", l.ID).Updates(map[string]interface{}{
			"precio_unitario": l.PrecioUnitario,
			"subtotal":        l.Subtotal,
		}).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *ordenRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.OrdenCompra{}, "id = ?", id).Error
}

func (r *ordenRepo) List(ctx context.Context, filter dto.OrdenFilter) ([]model.OrdenCompra, error) {
	var ordenes []model.OrdenCompra
	q := r.db.WithContext(ctx).Model(&model.OrdenCompra{})
	if filter.UsuarioID != nil {
		q = q.Where("usuario_id = ?", *filter.UsuarioID)
	}
	if filter.Estado != "" {
		q = q.Where("estado = ?", filter.Estado)
	}
	err := withRefs(q).Order("created_at DESC").Find(&ordenes).Error
	return ordenes, err
}
