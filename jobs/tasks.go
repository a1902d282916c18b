package jobs

import (
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueAudit carries audit:persist tasks so a backlog never delays other jobs.
	QueueAudit = "audit"
	// TaskCatalogSync keeps the Permission table in line with the catalog.
	TaskCatalogSync = "rbac:catalog-sync"
	// CatalogSyncSpec runs the catalog sync hourly.
	CatalogSyncSpec = "@every 1h"
)

// NewCatalogSyncTask constructs the catalog sync task. It carries no payload.
func NewCatalogSyncTask() *asynq.Task {
	return asynq.NewTask(TaskCatalogSync, nil, asynq.Queue(QueueDefault), asynq.MaxRetry(3))
}
