package repository

import (
	"context"

	"cuentame/internal/dto"
	"cuentame/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductoRepository defines the data access contract for products.
// Services depend on this interface, not on the concrete GORM implementation.
type ProductoRepository interface {
	Create(ctx context.Context, p *model.Producto) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error)
	FindByIDTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Producto, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Producto, error)
	FindByNombre(ctx context.Context, nombre string) (*model.Producto, error)
	List(ctx context.Context, filter dto.ProductoFilter) ([]model.Producto, int64, error)
	Update(ctx context.Context, p *model.Producto) error
	Delete(ctx context.Context, id uuid.UUID) error
	// CountOrdenLineas returns how many order lines reference the product.
	CountOrdenLineas(ctx context.Context, id uuid.UUID) (int64, error)
}

type productoRepo struct{ db *gorm.DB }

func NewProductoRepository(db *gorm.DB) ProductoRepository { return &productoRepo{db: db} }

func (r *productoRepo) Create(ctx context.Context, p *model.Producto) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error) {
	return r.FindByIDTx(ctx, nil, id)
}

func (r *productoRepo) FindByIDTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Producto, error) {
	var p model.Producto
	err := conn(ctx, r.db, tx).First(&p, "id = ?", id).Error
	return &p, err
}

func (r *productoRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Producto, error) {
	var productos []model.Producto
	if len(ids) == 0 {
		return productos, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&productos).Error
	return productos, err
}

func (r *productoRepo) FindByNombre(ctx context.Context, nombre string) (*model.Producto, error) {
	var p model.Producto
	err := r.db.WithContext(ctx).Where("LOWER(nombre) = LOWER(?)", nombre).First(&p).Error
	return &p, err
}

func (r *productoRepo) List(ctx context.Context, filter dto.ProductoFilter) ([]model.Producto, int64, error) {
	var productos []model.Producto
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Producto{})
	if filter.Nombre != "" {
		q = q.Where("nombre ILIKE ?", "%"+filter.Nombre+"%")
	}
	if filter.Categoria != "" {
		q = q.Where("categoria = ?", filter.Categoria)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("nombre ASC").Limit(filter.Limit).Offset(offset).Find(&productos).Error
	return productos, total, err
}

func (r *productoRepo) Update(ctx context.Context, p *model.Producto) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *productoRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Producto{}, "id = ?", id).Error
}

func (r *productoRepo) CountOrdenLineas(ctx context.Context, id uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.OrdenLinea{}).Where("producto_id = ?", id).Count(&n).Error
	return n, err
}
