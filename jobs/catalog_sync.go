package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/agrocrm/backoffice/internal/jobs"
)

// CatalogSyncer creates missing Permission rows and reports how many it made.
type CatalogSyncer interface {
	SyncCatalog(ctx context.Context) (int, error)
}

// CatalogSyncJob runs the permission catalog sync on a schedule.
type CatalogSyncJob struct {
	Roles   CatalogSyncer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

func NewCatalogSyncJob(roles CatalogSyncer, logger *slog.Logger, metrics *jobmetrics.Metrics) *CatalogSyncJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogSyncJob{Roles: roles, Logger: logger, Metrics: metrics}
}

func (j *CatalogSyncJob) Handle(ctx context.Context, _ *asynq.Task) error {
	tracker := j.Metrics.Track(TaskCatalogSync)
	created, err := j.Roles.SyncCatalog(ctx)
	if err != nil {
		j.Logger.Error("catalog sync", slog.Any("error", err))
		return tracker.End(err)
	}
	j.Metrics.AddCatalogKeys(created)
	if created > 0 {
		j.Logger.Info("catalog sync created permissions", slog.Int("created", created))
	}
	return tracker.End(nil)
}
