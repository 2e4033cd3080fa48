package repository

import (
	"context"

	"cuentame/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DireccionRepository is the per-user address book. Methods taking tx are
// meant to run inside the transaction that guards the single-default rule.
type DireccionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, d *model.Direccion) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Direccion, error)
	ListByUsuario(ctx context.Context, usuarioID uuid.UUID) ([]model.Direccion, error)
	CountByUsuario(ctx context.Context, tx *gorm.DB, usuarioID uuid.UUID) (int64, error)
	// ExistsNumeroCasa / ExistsAlias ignore the row with id exceptID (uuid.Nil = none).
	ExistsNumeroCasa(ctx context.Context, tx *gorm.DB, usuarioID uuid.UUID, numero string, exceptID uuid.UUID) (bool, error)
	ExistsAlias(ctx context.Context, tx *gorm.DB, usuarioID uuid.UUID, alias string, exceptID uuid.UUID) (bool, error)
	ClearDefault(ctx context.Context, tx *gorm.DB, usuarioID uuid.UUID) error
	Update(ctx context.Context, tx *gorm.DB, d *model.Direccion) error
	Delete(ctx context.Context, id uuid.UUID) error
	DB() *gorm.DB
}

type direccionRepo struct{ db *gorm.DB }

func NewDireccionRepository(db *gorm.DB) DireccionRepository { return &direccionRepo{db: db} }

func (r *direccionRepo) DB() *gorm.DB { return r.db }

func (r *direccionRepo) Create(ctx context.Context, tx *gorm.DB, d *model.Direccion) error {
	return conn(ctx, r.db, tx).Create(d).Error
}

func (r *direccionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Direccion, error) {
	var d model.Direccion
	err := r.db.WithContext(ctx).First(&d, "id = ?", id).Error
	return &d, err
}

func (r *direccionRepo) ListByUsuario(ctx context.Context, usuarioID uuid.UUID) ([]model.Direccion, error) {
	var dirs []model.Direccion
	err := r.db.WithContext(ctx).
		Where("usuario_id = ?", usuarioID).
		Order("is_default DESC, created_at ASC").
		Find(&dirs).Error
	return dirs, err
}

func (r *direccionRepo) CountByUsuario(ctx context.Context, tx *gorm.DB, usuarioID uuid.UUID) (int64, error) {
	var n int64
	err := conn(ctx, r.db, tx).Model(&model.Direccion{}).Where("usuario_id = ?", usuarioID).Count(&n).Error
	return n, err
}

func (r *direccionRepo) ExistsNumeroCasa(ctx context.Context, tx *gorm.DB, usuarioID uuid.UUID, numero string, exceptID uuid.UUID) (bool, error) {
	return r.exists(ctx, tx, usuarioID, "numero_casa = ?", numero, exceptID)
}

func (r *direccionRepo) ExistsAlias(ctx context.Context, tx *gorm.DB, usuarioID uuid.UUID, alias string, exceptID uuid.UUID) (bool, error) {
	return r.exists(ctx, tx, usuarioID, "alias = ?", alias, exceptID)
}

func (r *direccionRepo) exists(ctx context.Context, tx *gorm.DB, usuarioID uuid.UUID, cond string, val string, exceptID uuid.UUID) (bool, error) {
	var n int64
	q := conn(ctx, r.db, tx).Model(&model.Direccion{}).Where("usuario_id = ?", usuarioID).Where(cond, val)
	if exceptID != uuid.Nil {
		q = q.Where("id <> ?", exceptID)
	}
	err := q.Count(&n).Error
	return n > 0, err
}

func (r *direccionRepo) ClearDefault(ctx context.Context, tx *gorm.DB, usuarioID uuid.UUID) error {
	return conn(ctx, r.db, tx).Model(&model.Direccion{}).
		Where("usuario_id = ? AND is_default = true", usuarioID).
		Update("is_default", false).Error
}

func (r *direccionRepo) Update(ctx context.Context, tx *gorm.DB, d *model.Direccion) error {
	return conn(ctx, r.db, tx).Save(d).Error
}

func (r *direccionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Direccion{}, "id = ?", id).Error
}
