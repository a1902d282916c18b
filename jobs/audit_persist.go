package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/agrocrm/backoffice/internal/audit"
	jobmetrics "github.com/agrocrm/backoffice/internal/jobs"
	"github.com/agrocrm/backoffice/internal/store"
)

// AuditPersistJob writes entries handed over by audit.QueueSink.
type AuditPersistJob struct {
	Sink    audit.Sink
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewAuditPersistJob wires dependencies for the persist handler.
func NewAuditPersistJob(sink audit.Sink, logger *slog.Logger, metrics *jobmetrics.Metrics) *AuditPersistJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditPersistJob{Sink: sink, Logger: logger, Metrics: metrics}
}

// Handle persists one entry. A redelivered entry whose row already exists
// counts as done.
func (j *AuditPersistJob) Handle(ctx context.Context, task *asynq.Task) error {
	tracker := j.Metrics.Track(audit.TaskPersist)
	entry, err := audit.DecodePersistTask(task)
	if err != nil {
		j.Logger.Error("drop audit task", slog.Any("error", err))
		return tracker.End(fmt.Errorf("%w: %v", asynq.SkipRetry, err))
	}
	err = j.Sink.Write(ctx, entry)
	if errors.Is(err, store.ErrConflict) {
		j.Logger.Info("audit entry already persisted", slog.String("audit_id", entry.ID))
		return tracker.End(nil)
	}
	if err != nil {
		j.Logger.Warn("persist audit entry", slog.String("audit_id", entry.ID), slog.String("model", entry.Model), slog.Any("error", err))
		return tracker.End(err)
	}
	j.Metrics.AddAuditPersisted(entry.Model)
	return tracker.End(nil)
}
