package repository

import (
	"context"
	"time"

	"cuentame/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UsuarioRepository interface {
	Create(ctx context.Context, u *model.Usuario) error
	FindByCorreo(ctx context.Context, correo string) (*model.Usuario, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Usuario, error)
	// FindPerfil loads the user together with the address book.
	FindPerfil(ctx context.Context, id uuid.UUID) (*model.Usuario, error)
	FindByTokenRecup(ctx context.Context, token string) (*model.Usuario, error)
	List(ctx context.Context) ([]model.Usuario, error)
	Update(ctx context.Context, u *model.Usuario) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ClearExpiredOTP wipes OTP codes and recovery tokens that expired before now.
	ClearExpiredOTP(ctx context.Context, now time.Time) (int64, error)
}

type usuarioRepo struct{ db *gorm.DB }

func NewUsuarioRepository(db *gorm.DB) UsuarioRepository { return &usuarioRepo{db: db} }

func (r *usuarioRepo) Create(ctx context.Context, u *model.Usuario) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *usuarioRepo) FindByCorreo(ctx context.Context, correo string) (*model.Usuario, error) {
	var u model.Usuario
	err := r.db.WithContext(ctx).Where("LOWER(correo) = LOWER(?)", correo).First(&u).Error
	return &u, err
}

func (r *usuarioRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Usuario, error) {
	var u model.Usuario
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	return &u, err
}

func (r *usuarioRepo) FindPerfil(ctx context.Context, id uuid.UUID) (*model.Usuario, error) {
	var u model.Usuario
	err := r.db.WithContext(ctx).
		Preload("Direcciones", func(db *gorm.DB) *gorm.DB { return db.Order("is_default DESC, created_at ASC") }).
		First(&u, "id = ?", id).Error
	return &u, err
}

func (r *usuarioRepo) FindByTokenRecup(ctx context.Context, token string) (*model.Usuario, error) {
	var u model.Usuario
	err := r.db.WithContext(ctx).Where("token_recup = ?", token).First(&u).Error
	return &u, err
}

func (r *usuarioRepo) List(ctx context.Context) ([]model.Usuario, error) {
	var users []model.Usuario
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&users).Error
	return users, err
}

func (r *usuarioRepo) Update(ctx context.Context, u *model.Usuario) error {
	return r.db.WithContext(ctx).Omit("Direcciones", "Ordenes", "Cajas").Save(u).Error
}

func (r *usuarioRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Usuario{}, "id = ?", id).Error
}

func (r *usuarioRepo) ClearExpiredOTP(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Usuario{}).
		Where("otp IS NOT NULL AND otp_expira < ?", now).
		Updates(map[string]interface{}{"otp": nil, "otp_expira": nil})
	if res.Error != nil {
		return 0, res.Error
	}
	recup := r.db.WithContext(ctx).Model(&model.Usuario{}).
		Where("token_recup IS NOT NULL AND token_recup_expira < ?", now).
		Updates(map[string]interface{}{"token_recup": nil, "token_recup_expira": nil})
	return res.RowsAffected + recup.RowsAffected, recup.Error
}
