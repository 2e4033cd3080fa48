package repository

import (
	"context"
	"fmt"

	"cuentame/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Entities whose imagen column can be set by the image worker.
const (
	EntidadProducto          = "producto"
	EntidadCajaPredefinida   = "caja_predefinida"
	EntidadCajaPersonalizada = "caja_personalizada"
	EntidadCaja              = "caja"
)

// ImagenRepository sets the image URL of an already persisted entity.
type ImagenRepository interface {
	SetImagen(ctx context.Context, entidad string, id uuid.UUID, url string) error
}

type imagenRepo struct{ db *gorm.DB }

func NewImagenRepository(db *gorm.DB) ImagenRepository { return &imagenRepo{db: db} }

func modelFor(entidad string) (interface{}, error) {
	switch entidad {
	case EntidadProducto:
		return &model.Producto{}, nil
	case EntidadCajaPredefinida:
		return &model.CajaPredefinida{}, nil
	case EntidadCajaPersonalizada:
		return &model.CajaPersonalizada{}, nil
	case EntidadCaja:
		return &model.Caja{}, nil
	}
	return nil, fmt.Errorf("imagen: entidad desconocida %q", entidad)
}

func (r *imagenRepo) SetImagen(ctx context.Context, entidad string, id uuid.UUID, url string) error {
	m, err := modelFor(entidad)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Model(m).Where("id = ?", id).Update("imagen", url)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
