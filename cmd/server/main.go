package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ewarranty/internal/config"
	"ewarranty/internal/infra"
	"ewarranty/internal/middleware"
	"ewarranty/internal/repository"
	"ewarranty/internal/router"
	"ewarranty/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// @title e-Warranty API
// @version 1.0
// @description Warranty registration and claims for window-film installer shops.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: pretty console in development, JSON in production
	if cfg.Env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET must be set")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storage := infra.NewStorage(ctx, cfg)
	log.Info().Str("backend", storage.Name()).Msg("upload storage ready")

	// Background jobs: certificates and emails
	mailer := infra.NewMailer(cfg)
	smtpCB := infra.NewCircuitBreaker(infra.DefaultCBConfig("smtp"))
	dispatcher := worker.NewDispatcher(rdb)

	var (
		pool        *worker.Pool
		redriveDone <-chan struct{}
	)
	if rdb != nil {
		pool = worker.NewPool(rdb, cfg.WorkerPoolSize, map[string]worker.Handler{
			worker.JobCertificate: worker.NewCertificateWorker(repository.NewWarrantyRepository(db), dispatcher, cfg.PDFStoragePath, cfg.CompanyName),
			worker.JobEmail:       worker.NewEmailWorker(mailer, smtpCB),
		})
		pool.Start(ctx)
		redriveDone = worker.StartRedriveCron(ctx, worker.RedriveCronConfig{RDB: rdb, CB: smtpCB})
	} else {
		log.Warn().Msg("REDIS_URL not set: certificates and emails are disabled")
	}

	apiLimiter := middleware.NewRateLimiter("api", 1000, time.Minute, "too many requests, try again shortly")
	loginLimiter := middleware.NewLoginRateLimiter()
	go apiLimiter.RunPurge(ctx, 5*time.Minute)
	go loginLimiter.RunPurge(ctx, 5*time.Minute)

	r := router.New(cfg, router.Deps{
		DB:           db,
		Redis:        rdb,
		Storage:      storage,
		MailerCB:     smtpCB,
		Jobs:         dispatcher,
		APILimiter:   apiLimiter,
		LoginLimiter: loginLimiter,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("e-Warranty backend listening on :%d", cfg.Port)
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

	cancel()
	if pool != nil {
		pool.Wait()
		<-redriveDone
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("server exited")
}
