package worker

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"cuentame/internal/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const cleanupTickInterval = time.Minute

// SubidasTTL is how long an uploaded temp image may wait for its job. Past
// that the job either succeeded (and removed it) or is in the DLQ.
const SubidasTTL = 24 * time.Hour

// OTPCleaner clears one-time codes whose expiry passed.
type OTPCleaner interface {
	ClearExpiredOTP(ctx context.Context, now time.Time) (int64, error)
}

// CleanupCronConfig holds the dependencies of the cleanup goroutine.
type CleanupCronConfig struct {
	Usuarios OTPCleaner
	RDB      *redis.Client
	Interval time.Duration
	// SubidasDir is swept of temp images older than SubidasTTL. Empty disables it.
	SubidasDir string
}

// StartCleanupCron ticks every Interval (default one minute), clears
// expired OTP codes, sweeps stale uploads and refreshes the DLQ gauges.
// It stops with ctx.
func StartCleanupCron(ctx context.Context, cfg CleanupCronConfig) {
	interval := cfg.Interval
	if interval <= 0 {
		interval = cleanupTickInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Info().Dur("interval", interval).Msg("cleanup_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("cleanup_cron: shutting down")
				return
			case now := <-ticker.C:
				limpiarOTP(ctx, cfg.Usuarios, now)
				if cfg.SubidasDir != "" {
					barrerSubidas(cfg.SubidasDir, now.Add(-SubidasTTL))
				}
				if cfg.RDB != nil {
					actualizarDLQ(ctx, cfg.RDB)
				}
			}
		}
	}()
}

func limpiarOTP(ctx context.Context, usuarios OTPCleaner, now time.Time) {
	n, err := usuarios.ClearExpiredOTP(ctx, now)
	if err != nil {
		log.Error().Err(err).Msg("cleanup_cron: clearing expired OTP failed")
		return
	}
	if n > 0 {
		log.Info().Int64("cleared", n).Msg("cleanup_cron: expired OTP codes cleared")
	}
}

func actualizarDLQ(ctx context.Context, rdb *redis.Client) {
	for _, q := range []string{QueueEmail, QueueImagen} {
		n, err := DLQLength(ctx, rdb, q)
		if err != nil {
			log.Debug().Err(err).Str("queue", q).Msg("cleanup_cron: DLQ length unavailable")
			continue
		}
		metrics.DLQPendientes.WithLabelValues(q).Set(float64(n))
	}
}

// barrerSubidas removes regular files in dir last modified before limite.
func barrerSubidas(dir string, limite time.Time) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Error().Err(err).Str("dir", dir).Msg("cleanup_cron: reading uploads dir failed")
		}
		return 0
	}
	borrados := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(limite) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			log.Warn().Err(err).Str("archivo", e.Name()).Msg("cleanup_cron: stale upload not removed")
			continue
		}
		borrados++
	}
	if borrados > 0 {
		log.Info().Int("removed", borrados).Str("dir", dir).Msg("cleanup_cron: stale uploads removed")
	}
	return borrados
}
