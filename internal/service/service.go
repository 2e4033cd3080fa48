package service

import (
	"context"
	"errors"
	"time"

	"cuentame/internal/apierror"
	"cuentame/internal/model"
	"cuentame/internal/worker"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Encolador hands work to the background pool; worker.Dispatcher implements it.
type Encolador interface {
	EncolarEmail(ctx context.Context, payload worker.EmailJobPayload) error
	EncolarImagen(ctx context.Context, payload worker.ImagenJobPayload) error
}

// Locker serialises mutations on a key; infra.RedisLocker implements it.
// The returned func releases the lock.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// Revocador denylists a token id until ttl elapses; infra.RedisDenylist implements it.
type Revocador interface {
	Revocar(ctx context.Context, jti string, ttl time.Duration) error
}

// Solicitante identifies who issues a request, taken from the JWT claims.
type Solicitante struct {
	ID  uuid.UUID
	Rol string
}

func (s Solicitante) EsAdmin() bool { return s.Rol == model.RolAdmin }

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

func esNoEncontrado(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// parseID parses a client supplied id; campo names it in the error.
func parseID(raw, campo string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apierror.Validation("", campo+" no es un identificador válido")
	}
	return id, nil
}

// encolarImagen schedules the deferred association of an uploaded file.
func encolarImagen(ctx context.Context, enc Encolador, entidad, carpeta string, id uuid.UUID, ruta string) error {
	if enc == nil {
		return errors.New("no hay cola de imágenes configurada")
	}
	return enc.EncolarImagen(ctx, worker.ImagenJobPayload{
		Entidad: entidad,
		ID:      id.String(),
		Carpeta: carpeta,
		Ruta:    ruta,
	})
}

func formatFecha(t time.Time) string { return t.UTC().Format(time.RFC3339) }
