package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"cuentame/internal/infra"
	"cuentame/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ImagenJobPayload asks the worker to upload Ruta and store the resulting
// URL on the entity. Ruta is a temp file written by the upload handler.
type ImagenJobPayload struct {
	Entidad string `json:"entidad"`
	ID      string `json:"id"`
	Carpeta string `json:"carpeta"`
	Ruta    string `json:"ruta"`
}

// Subidor uploads a local file to the image CDN and returns its URL.
type Subidor interface {
	Subir(ctx context.Context, carpeta, publicID, ruta string) (string, error)
}

// ImagenWorker performs the deferred image association: the entity is
// already committed, so an upload failure only leaves it without image.
type ImagenWorker struct {
	store Subidor
	cb    *infra.CircuitBreaker
	repo  repository.ImagenRepository
}

func NewImagenWorker(store Subidor, cb *infra.CircuitBreaker, repo repository.ImagenRepository) *ImagenWorker {
	return &ImagenWorker{store: store, cb: cb, repo: repo}
}

func (w *ImagenWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var p ImagenJobPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("%w: %v", ErrPermanente, err)
	}
	id, err := uuid.Parse(p.ID)
	if err != nil {
		w.limpiar(p.Ruta)
		return fmt.Errorf("%w: id %q", ErrPermanente, p.ID)
	}
	if _, err := os.Stat(p.Ruta); err != nil {
		return fmt.Errorf("%w: archivo %s: %v", ErrPermanente, p.Ruta, err)
	}

	var url string
	err = w.cb.Execute(func() error {
		u, err := w.store.Subir(ctx, p.Carpeta, id.String(), p.Ruta)
		if err != nil {
			return err
		}
		url = u
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Str("queue", QueueImagen).Str("entidad", p.Entidad).Str("id", p.ID).Msg("imagen_worker: upload failed")
		return err
	}

	if err := w.repo.SetImagen(ctx, p.Entidad, id, url); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// deleted while the job was queued
			log.Info().Str("queue", QueueImagen).Str("entidad", p.Entidad).Str("id", p.ID).Msg("imagen_worker: entity gone, discarding")
			w.limpiar(p.Ruta)
			return nil
		}
		return err
	}

	w.limpiar(p.Ruta)
	log.Info().Str("queue", QueueImagen).Str("entidad", p.Entidad).Str("id", p.ID).Str("url", url).Msg("imagen_worker: image associated")
	return nil
}

func (w *ImagenWorker) limpiar(ruta string) {
	if err := os.Remove(ruta); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("ruta", ruta).Msg("imagen_worker: temp file not removed")
	}
}
