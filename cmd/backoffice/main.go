package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrocrm/backoffice/internal/app"
	"github.com/agrocrm/backoffice/internal/audit"
	"github.com/agrocrm/backoffice/internal/observability"
	"github.com/agrocrm/backoffice/internal/platform/blob"
	"github.com/agrocrm/backoffice/internal/platform/cache"
	"github.com/agrocrm/backoffice/internal/platform/db"
	"github.com/agrocrm/backoffice/internal/shared"
	"github.com/agrocrm/backoffice/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(os.Stdout, cfg.LogFormat, cfg.LogLevel).With(slog.String("service", "api"))

	redisOpts := cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	redisClient, err := cache.New(ctx, redisOpts)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	var pool *pgxpool.Pool
	storeParams := app.StoreParams{Config: cfg, Logger: logger}
	if cfg.AppStore == app.StorePostgres {
		pool, err = db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		storeParams.Pool = pool
	}

	metrics := observability.NewMetrics()
	storeParams.Registerer = metrics.Registerer()

	var queue audit.Enqueuer
	jobClient := jobs.NewClient(redisOpts.AsynqOpt())
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	if cfg.AuditSink == app.AuditSinkQueue {
		queue = jobClient.Asynq()
	}
	storeParams.Queue = queue

	stores, err := app.BuildStores(storeParams)
	if err != nil {
		logger.Error("build stores", slog.Any("error", err))
		os.Exit(1)
	}
	if cfg.AppStore == app.StoreMemory {
		if _, err := app.Seed(ctx, app.SeedParams{
			Store:         stores.Governed,
			Logger:        logger,
			AdminEmail:    cfg.SeedAdminEmail,
			AdminPassword: cfg.SeedAdminPassword,
		}); err != nil {
			logger.Error("seed memory store", slog.Any("error", err))
			os.Exit(1)
		}
	}

	blobs, err := blob.NewLocalStore(cfg.BlobDir)
	if err != nil {
		logger.Error("open blob store", slog.Any("error", err))
		os.Exit(1)
	}

	sessionManager := shared.NewSessionManager(redisClient, "backoffice_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	handlers := app.BuildHandlers(app.HandlerDeps{
		Logger:         logger,
		Config:         cfg,
		Store:          stores.Governed,
		Blobs:          blobs,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		Idempotency:    shared.NewIdempotencyStore(redisClient, 24*time.Hour),
	})

	inspector := asynq.NewInspector(redisOpts.AsynqOpt())
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		Handlers:       handlers,
		JobHandler:     jobs.NewHandler(inspector, logger),
		Metrics:        metrics,
		RequestLog:     true,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("store", cfg.AppStore))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
