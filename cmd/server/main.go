// Command server runs the slug redirect service: the redirect path, the admin
// API, the slug cache and the asynchronous hit pipeline.
//
// Startup order: config → logging → tracing → database → cache → hit
// pipeline → HTTP server. Shutdown runs in reverse: the server stops taking
// requests, then the pipeline persists what is still queued, then the
// event publisher and tracer are flushed.
//
//	@title			Redirect Service API
//	@version		1.0
//	@description	Slug redirects with an admin API for destinations and aliases.
//	@BasePath		/api/v1
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-redirect-service/internal/cache"
	"github.com/tbourn/go-redirect-service/internal/config"
	"github.com/tbourn/go-redirect-service/internal/domain"
	"github.com/tbourn/go-redirect-service/internal/hits"
	httpapi "github.com/tbourn/go-redirect-service/internal/http"
	"github.com/tbourn/go-redirect-service/internal/observability"
	"github.com/tbourn/go-redirect-service/internal/repo"
	"github.com/tbourn/go-redirect-service/internal/services"
	"github.com/tbourn/go-redirect-service/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version string

func main() {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	sysutil.SetupLogger(cfg.LogLevel, cfg.LogPretty, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func run(ctx context.Context, cfg config.Config) error {
	ver := sysutil.FirstNonEmpty(version, os.Getenv("APP_VERSION"), "dev")

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, ver)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	// Storage
	db, err := repo.OpenDatabase(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if err := repo.AutoMigrate(db); err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	store := repo.NewStore(db)

	// Slug cache
	slugs, err := cache.New(cache.LoaderFunc(func(ctx context.Context, slug string) (*domain.Summary, error) {
		ctx, span := observability.StartSlugFetch(ctx, slug)
		sum, err := services.FetchSummary(ctx, store, slug)
		observability.EndSpan(span, err)
		return sum, err
	}), cache.Options{
		Capacity:    cfg.CacheCapacity,
		LoadTimeout: cfg.CacheLoadTimeout,
		Logger:      log.With().Str("component", "slug_cache").Logger(),
	})
	if err != nil {
		return err
	}

	// Hit pipeline (+ optional NATS fan-out)
	popts := hits.Options{
		Capacity:     cfg.HitQueueCapacity,
		WriteTimeout: cfg.HitWriteTimeout,
		Logger:       log.With().Str("component", "hit_pipeline").Logger(),
	}
	var publisher *hits.NATSPublisher
	if cfg.NATS.URL != "" {
		publisher, err = hits.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.Subject)
		if err != nil {
			return err
		}
		popts.Publisher = publisher
		log.Info().Str("subject", cfg.NATS.Subject).Msg("publishing hit events")
	}
	pipeline := hits.New(store, popts)
	go func() {
		if err := pipeline.Run(context.WithoutCancel(ctx)); err != nil {
			log.Error().Err(err).Msg("hit pipeline")
		}
	}()

	// HTTP
	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, slugs, pipeline, cfg)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", ver).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown requested")
	case runErr = <-serveErr:
	}

	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	// 1) stop accepting requests; in-flight redirects may still enqueue
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}

	// 2) close the queue and wait for the drain
	pipeline.Shutdown()
	if err := pipeline.Wait(sctx); err != nil {
		log.Warn().Err(err).Int("pending", pipeline.Len()).Msg("hit drain incomplete")
	}
	if d := pipeline.Dropped(); d > 0 {
		log.Warn().Uint64("dropped", d).Msg("hits dropped during run")
	}

	// 3) flush hit events
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.Warn().Err(err).Msg("nats drain")
		}
	}

	log.Info().Msg("server stopped")
	return runErr
}
