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

	"github.com/agrocrm/backoffice/internal/app"
	"github.com/agrocrm/backoffice/internal/audit"
	jobmetrics "github.com/agrocrm/backoffice/internal/jobs"
	"github.com/agrocrm/backoffice/internal/observability"
	"github.com/agrocrm/backoffice/internal/platform/cache"
	"github.com/agrocrm/backoffice/internal/platform/db"
	"github.com/agrocrm/backoffice/internal/roles"
	"github.com/agrocrm/backoffice/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	if cfg.AppStore != app.StorePostgres {
		slog.Default().Error("worker requires APP_STORE=postgres", slog.String("store", cfg.AppStore))
		os.Exit(1)
	}

	logger := app.NewLogger(os.Stdout, cfg.LogFormat, cfg.LogLevel).With(slog.String("service", "worker"))

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	metrics := observability.NewMetrics()

	// The worker is the audit sink of the queue; its own writes go straight
	// to the table.
	workerCfg := *cfg
	workerCfg.AuditSink = app.AuditSinkDirect
	workerCfg.RBACEnforceStore = false
	stores, err := app.BuildStores(app.StoreParams{
		Config:     &workerCfg,
		Pool:       pool,
		Logger:     logger,
		Registerer: metrics.Registerer(),
	})
	if err != nil {
		logger.Error("build stores", slog.Any("error", err))
		os.Exit(1)
	}

	jobMetrics := jobmetrics.NewMetrics(metrics.Registerer())
	persistJob := jobs.NewAuditPersistJob(audit.StoreSink{Store: stores.Base}, logger, jobMetrics)
	catalogJob := jobs.NewCatalogSyncJob(roles.NewService(roles.NewRepository(stores.Governed), logger), logger, jobMetrics)

	redisOpts := cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   redisOpts.AsynqOpt(),
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: audit.TaskPersist, Handler: persistJob.Handle},
			{Type: jobs.TaskCatalogSync, Handler: catalogJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: jobs.CatalogSyncSpec, Task: jobs.NewCatalogSyncTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	var metricsServer *http.Server
	if cfg.WorkerMetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		metricsServer = &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("worker metrics server", slog.Any("error", err))
			}
		}()
	}

	logger.Info("starting worker", slog.Int("concurrency", cfg.WorkerConcurrency))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}
}
