package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/wordclaim/internal/config"
	"github.com/phrazzld/wordclaim/internal/loader"
	"github.com/phrazzld/wordclaim/internal/platform/metrics"
	"github.com/phrazzld/wordclaim/internal/platform/postgres"
	"github.com/phrazzld/wordclaim/internal/reclaim"
	"github.com/phrazzld/wordclaim/internal/service/assignment"
	"github.com/phrazzld/wordclaim/internal/service/auth"
	"github.com/phrazzld/wordclaim/internal/service/verification"
	"github.com/phrazzld/wordclaim/internal/window"
	"github.com/redis/go-redis/v9"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	words   *postgres.PostgresWordStore
	metrics *metrics.Metrics

	assignment   assignment.Service
	verification verification.Service
	// tokens is nil when no admin secret is configured.
	tokens auth.TokenService
	guard  *window.Guard

	scheduler *reclaim.Scheduler
	redis     *redis.Client
}

// newApplication wires every component on top of an established database
// connection. The registration window starts now.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config:  cfg,
		logger:  logger,
		db:      db,
		metrics: metrics.New(),
		guard:   window.NewGuard(time.Now(), cfg.Window.Duration(), nil),
	}

	app.words = postgres.NewPostgresWordStore(db, logger).WithLoadBatchSize(cfg.Pool.LoadBatchSize)

	app.assignment = assignment.NewService(app.words, db, assignment.Options{
		ClaimTimeout: cfg.Reclaim.Timeout(),
		MaxAttempts:  cfg.Pool.ClaimMaxAttempts,
		Metrics:      app.metrics,
	}, logger)

	recognizer, err := newRecognizer(ctx, cfg.OCR, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("text recognizer initialized",
		slog.String("provider", cfg.OCR.Provider),
		slog.String("language", cfg.OCR.Language))

	app.verification = verification.NewService(recognizer, app.words, verification.Options{
		UploadDir:      cfg.Server.UploadDir,
		Language:       cfg.OCR.Language,
		ClaimTimeout:   cfg.Reclaim.Timeout(),
		MaxUploadBytes: maxUploadBytes(cfg.Server),
		Metrics:        app.metrics,
	}, logger)

	if cfg.Auth.AdminSecret != "" {
		app.tokens, err = auth.NewTokenService(cfg.Auth)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize admin token service: %w", err)
		}
		logger.Info("admin guard enabled",
			slog.Int("token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes))
	} else {
		logger.Warn("admin guard disabled, reset endpoint is open")
	}

	app.scheduler = reclaim.NewScheduler(app.words, reclaim.Config{
		Interval: cfg.Reclaim.Interval(),
		Timeout:  cfg.Reclaim.Timeout(),
	}, logger)
	app.scheduler.SetMetrics(app.metrics)

	if cfg.Reclaim.RedisURL != "" {
		app.redis, err = reclaim.NewRedisClient(ctx, cfg.Reclaim.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to reclaim lease store: %w", err)
		}
		app.scheduler.SetLease(reclaim.NewRedisLease(app.redis, cfg.Reclaim.LeaseKey))
	}

	logger.Info("application initialized successfully",
		slog.Time("window_closes_at", app.guard.ClosesAt()))
	return app, nil
}

// maxUploadBytes converts the configured limit to bytes.
func maxUploadBytes(cfg config.ServerConfig) int64 {
	if cfg.MaxUploadMB <= 0 {
		return verification.DefaultMaxUploadBytes
	}
	return int64(cfg.MaxUploadMB) << 20
}

// populatePool loads pool.source_path into an empty pool. A populated pool
// is left untouched.
func (app *application) populatePool(ctx context.Context) error {
	path := app.config.Pool.SourcePath
	if path == "" {
		app.logger.Info("no word source configured, skipping pool population")
		return nil
	}

	res, err := loader.New(app.db, app.words, app.logger).PopulateIfEmpty(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to populate word pool: %w", err)
	}
	if res.Loaded > 0 {
		app.logger.Info("word pool populated",
			slog.Int("loaded", res.Loaded),
			slog.String("source", path))
	}
	return nil
}

// Run populates the pool, starts the sweep and serves HTTP until ctx is
// cancelled.
func (app *application) Run(ctx context.Context) error {
	if err := app.populatePool(ctx); err != nil {
		return err
	}

	app.scheduler.Start()

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.scheduler != nil {
		app.scheduler.Stop()
	}

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis client", slog.String("error", err.Error()))
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}

	app.logger.Info("application shutdown completed")
}
