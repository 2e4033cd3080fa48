package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Email job kinds.
const (
	EmailOTP          = "otp"
	EmailRecuperacion = "recuperacion"
	EmailConfirmacion = "confirmacion"
)

// EmailJobPayload is the job envelope sent to QueueEmail. Valor is the OTP
// code or the link, depending on Tipo.
type EmailJobPayload struct {
	Tipo   string `json:"tipo"`
	Para   string `json:"para"`
	Nombre string `json:"nombre"`
	Valor  string `json:"valor"`
}

// Notificador sends the account emails; infra.Mailer implements it.
type Notificador interface {
	EnviarOTP(to, nombre, otp string) error
	EnviarRecuperacion(to, nombre, link string) error
	EnviarConfirmacion(to, nombre, link string) error
}

// EmailWorker processes email jobs from QueueEmail.
type EmailWorker struct {
	mailer Notificador
}

func NewEmailWorker(mailer Notificador) *EmailWorker {
	return &EmailWorker{mailer: mailer}
}

func (w *EmailWorker) Process(_ context.Context, raw json.RawMessage) error {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Str("queue", QueueEmail).Msg("email_worker: invalid payload")
		return nil
	}
	if payload.Para == "" {
		log.Warn().Str("queue", QueueEmail).Msg("email_worker: empty recipient, skipping")
		return nil
	}

	var err error
	switch payload.Tipo {
	case EmailOTP:
		err = w.mailer.EnviarOTP(payload.Para, payload.Nombre, payload.Valor)
	case EmailRecuperacion:
		err = w.mailer.EnviarRecuperacion(payload.Para, payload.Nombre, payload.Valor)
	case EmailConfirmacion:
		err = w.mailer.EnviarConfirmacion(payload.Para, payload.Nombre, payload.Valor)
	default:
		log.Error().Str("queue", QueueEmail).Str("tipo", payload.Tipo).Msg("email_worker: unknown tipo")
		return fmt.Errorf("%w: tipo %q", ErrPermanente, payload.Tipo)
	}
	if err != nil {
		log.Error().Err(err).Str("queue", QueueEmail).Str("to", payload.Para).Str("tipo", payload.Tipo).Msg("email_worker: send failed")
		return err
	}
	log.Info().Str("queue", QueueEmail).Str("to", payload.Para).Str("tipo", payload.Tipo).Msg("email_worker: sent")
	return nil
}
