package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cuentame/internal/config"
	"cuentame/internal/infra"
	"cuentame/internal/repository"
	"cuentame/internal/router"
	"cuentame/internal/worker"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: pretty in dev, JSON in prod
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Env,
			AttachStacktrace: true,
		}); err != nil {
			log.Error().Err(err).Msg("sentry init failed, continuing without error reporting")
		}
		defer sentry.Flush(2 * time.Second)
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// Worker handlers are wired here (composition root) so that the pool
	// has full access to all infrastructure dependencies.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mailer := infra.NewMailer(cfg)
	imagenes := infra.NewCloudinaryStore(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	imagenesCB := infra.NewCircuitBreaker("cloudinary", infra.DefaultCBConfig())
	dispatcher := worker.NewDispatcher(rdb)

	pool := worker.NewPool(rdb, map[string]worker.Processor{
		worker.QueueEmail:  worker.NewEmailWorker(mailer),
		worker.QueueImagen: worker.NewImagenWorker(imagenes, imagenesCB, repository.NewImagenRepository(db)),
	})
	pool.Start(ctx, cfg.WorkerPoolSize)

	worker.StartCleanupCron(ctx, worker.CleanupCronConfig{
		Usuarios:   repository.NewUsuarioRepository(db),
		RDB:        rdb,
		SubidasDir: cfg.UploadTmpPath,
	})

	r := router.New(cfg, db, rdb, dispatcher)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("Cuenta-Me API listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	// Stop workers after the last request finished enqueuing.
	cancel()
	pool.Wait()
	log.Info().Msg("server exited")
}
