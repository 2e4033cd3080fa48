package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// DLQPrefix + queue is the redis list holding the jobs of queue that could
// not be processed. Entries stay there until someone inspects them.
const DLQPrefix = "dlq:"

// DLQEntry is one dead-lettered job.
type DLQEntry struct {
	Cola     string          `json:"cola"`
	JobID    string          `json:"job_id"`
	Tipo     string          `json:"tipo"`
	Payload  json.RawMessage `json:"payload"`
	Motivo   string          `json:"motivo"`
	Intentos int             `json:"intentos"`
	FalloEn  time.Time       `json:"fallo_en"`
}

// enviarADLQ parks job in the dead letter list of queue. Failures are only
// logged: the job is already lost for the pool at this point.
func enviarADLQ(ctx context.Context, rdb listPusher, queue string, job Job, motivo string) {
	data, err := json.Marshal(DLQEntry{
		Cola:     queue,
		JobID:    job.ID,
		Tipo:     job.Type,
		Payload:  job.Payload,
		Motivo:   motivo,
		Intentos: job.Attempts,
		FalloEn:  time.Now().UTC(),
	})
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Str("job_id", job.ID).Msg("dlq: marshal")
		return
	}
	if err := rdb.LPush(ctx, DLQPrefix+queue, data).Err(); err != nil {
		log.Error().Err(err).Str("queue", queue).Str("job_id", job.ID).Msg("dlq: push")
		return
	}
	log.Warn().
		Str("queue", queue).
		Str("job_id", job.ID).
		Str("tipo", job.Type).
		Int("intentos", job.Attempts).
		Str("motivo", motivo).
		Msg("job enviado a la DLQ")
}

// DLQLength reports how many jobs of queue are dead-lettered.
func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}
