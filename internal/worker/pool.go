package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"cuentame/internal/metrics"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueEmail  = "jobs:email"
	QueueImagen = "jobs:imagen"
)

// MaxAttempts is how many times a job runs before it is dead-lettered.
const MaxAttempts = 3

// Job is the generic envelope for all async tasks.
type Job struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// ErrPermanente marks a failure that retrying cannot fix; the job goes
// straight to the DLQ.
var ErrPermanente = errors.New("fallo permanente")

// Processor handles the payload of one job type. A returned error makes the
// pool retry the job until MaxAttempts.
type Processor interface {
	Process(ctx context.Context, payload json.RawMessage) error
}

// listPusher is the part of the redis client used to enqueue.
type listPusher interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb listPusher
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EncolarEmail pushes a notification email job.
func (d *Dispatcher) EncolarEmail(ctx context.Context, payload EmailJobPayload) error {
	return d.enqueue(ctx, QueueEmail, "email", payload)
}

// EncolarImagen pushes a deferred image association job.
func (d *Dispatcher) EncolarImagen(ctx context.Context, payload ImagenJobPayload) error {
	return d.enqueue(ctx, QueueImagen, "imagen", payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return push(ctx, d.rdb, queue, Job{ID: uuid.NewString(), Type: jobType, Payload: data})
}

func push(ctx context.Context, rdb listPusher, queue string, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := rdb.LPush(ctx, queue, encoded).Err(); err != nil {
		return fmt.Errorf("enqueue %s: %w", queue, err)
	}
	return nil
}

// listPopper is the part of the redis client used to dequeue.
type listPopper interface {
	BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
}

// popBackoff is the pause after a failed BRPOP (redis down, network error).
const popBackoff = time.Second

// Pool consumes every registered queue with a fixed number of goroutines.
type Pool struct {
	rdb      listPopper
	pusher   listPusher
	handlers map[string]Processor
	backoff  time.Duration
	wg       sync.WaitGroup
}

// NewPool maps queue names to their processors.
func NewPool(rdb *redis.Client, handlers map[string]Processor) *Pool {
	return &Pool{rdb: rdb, pusher: rdb, handlers: handlers, backoff: popBackoff}
}

// Start launches numWorkers goroutines. Each blocks on BRPOP, so idle
// workers cost no CPU. They exit when ctx is cancelled.
func (p *Pool) Start(ctx context.Context, numWorkers int) {
	queues := make([]string, 0, len(p.handlers))
	for q := range p.handlers {
		queues = append(queues, q)
	}
	for i := 0; i < numWorkers; i++ {
		p.wg.Add(1)
		go p.run(ctx, i, queues)
	}
	log.Info().Int("workers", numWorkers).Strs("queues", queues).Msg("worker pool started")
}

// Wait blocks until every worker returned.
func (p *Pool) Wait() { p.wg.Wait() }

func (p *Pool) run(ctx context.Context, id int, queues []string) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			log.Info().Int("worker", id).Msg("worker shutting down")
			return
		default:
			// Blocking pop, waits up to 5s then loops to check ctx
			result, err := p.rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil && !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				log.Warn().Err(err).Int("worker", id).Msg("BRPOP failed, backing off")
				select {
				case <-ctx.Done():
				case <-time.After(p.backoff):
				}
				continue
			}
			if err != nil || len(result) < 2 {
				continue
			}
			p.processJob(ctx, result[0], result[1])
		}
	}
}

// processJob runs one job and returns the outcome label recorded in metrics.
func (p *Pool) processJob(ctx context.Context, queue, raw string) string {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		enviarADLQ(ctx, p.pusher, queue, Job{Type: "desconocido", Payload: json.RawMessage(fmt.Sprintf("%q", raw))}, "envelope inválido")
		metrics.RecordJob(queue, "dlq")
		return "dlq"
	}

	h, ok := p.handlers[queue]
	if !ok {
		log.Error().Str("queue", queue).Str("type", job.Type).Msg("no processor for queue")
		return "ignored"
	}

	job.Attempts++
	err := h.Process(ctx, job.Payload)
	if err == nil {
		log.Debug().Str("queue", queue).Str("job_id", job.ID).Int("attempt", job.Attempts).Msg("job processed")
		metrics.RecordJob(queue, "ok")
		return "ok"
	}

	if job.Attempts >= MaxAttempts || errors.Is(err, ErrPermanente) {
		enviarADLQ(ctx, p.pusher, queue, job, err.Error())
		metrics.RecordJob(queue, "dlq")
		return "dlq"
	}

	log.Warn().Err(err).Str("queue", queue).Str("job_id", job.ID).Int("attempt", job.Attempts).Msg("job failed, requeued")
	if perr := push(ctx, p.pusher, queue, job); perr != nil {
		log.Error().Err(perr).Str("queue", queue).Str("job_id", job.ID).Msg("requeue failed")
		enviarADLQ(ctx, p.pusher, queue, job, err.Error())
		metrics.RecordJob(queue, "dlq")
		return "dlq"
	}
	metrics.RecordJob(queue, "retry")
	return "retry"
}
