package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/agrocrm/backoffice/internal/store"
)

// TaskPersist is the asynq task type carrying one Entry to the worker.
const TaskPersist = "audit:persist"

// Sink persists audit entries.
type Sink interface {
	Write(ctx context.Context, e Entry) error
}

// StoreSink inserts entries into the AuditLog model of an undecorated store.
type StoreSink struct {
	Store store.Store
}

func (s StoreSink) Write(ctx context.Context, e Entry) error {
	if s.Store == nil {
		return errors.New("audit: store sink not configured")
	}
	_, err := s.Store.Create(ctx, store.ModelAuditLog, e.Record())
	return err
}

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueSink hands entries to the background worker.
type QueueSink struct {
	Client Enqueuer
	Queue  string
}

func (s QueueSink) Write(ctx context.Context, e Entry) error {
	if s.Client == nil {
		return errors.New("audit: queue sink not configured")
	}
	task, err := NewPersistTask(e)
	if err != nil {
		return err
	}
	opts := []asynq.Option{asynq.MaxRetry(5), asynq.TaskID(e.ID)}
	if s.Queue != "" {
		opts = append(opts, asynq.Queue(s.Queue))
	}
	_, err = s.Client.EnqueueContext(ctx, task, opts...)
	return err
}

// NewPersistTask wraps e into an audit:persist task.
func NewPersistTask(e Entry) (*asynq.Task, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("audit: encode task: %w", err)
	}
	return asynq.NewTask(TaskPersist, data), nil
}

// DecodePersistTask reverses NewPersistTask.
func DecodePersistTask(t *asynq.Task) (Entry, error) {
	var e Entry
	if err := json.Unmarshal(t.Payload(), &e); err != nil {
		return Entry{}, fmt.Errorf("audit: decode task: %w", err)
	}
	if e.ID == "" || e.Model == "" || e.Action == "" {
		return Entry{}, errors.New("audit: task payload incomplete")
	}
	return e, nil
}

// Recorder writes entries on a best-effort basis: failures are logged and
// counted but never returned to the business operation.
type Recorder struct {
	sink    Sink
	logger  *slog.Logger
	metrics *Metrics
	timeout time.Duration
}

// NewRecorder builds a Recorder around sink.
func NewRecorder(sink Sink, logger *slog.Logger, metrics *Metrics) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{sink: sink, logger: logger, metrics: metrics, timeout: 5 * time.Second}
}

// Record persists e. The write survives cancellation of ctx so an abandoned
// request still leaves its audit trail.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	if r == nil || r.sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()
	err := r.sink.Write(ctx, e)
	r.metrics.observe(e, err)
	if err != nil {
		r.logger.Error("audit write failed",
			slog.String("model", e.Model),
			slog.String("action", string(e.Action)),
			slog.String("audit_id", e.ID),
			slog.Any("error", err),
		)
	}
}
