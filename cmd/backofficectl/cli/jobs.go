package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/agrocrm/backoffice/internal/platform/cache"
	"github.com/agrocrm/backoffice/jobs"
)

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

// NewJobsCLI initialises the CLI helpers for the given Redis instance.
func NewJobsCLI(opts cache.Options) *JobsCLI {
	return &JobsCLI{
		client:    asynq.NewClient(opts.AsynqOpt()),
		inspector: asynq.NewInspector(opts.AsynqOpt()),
	}
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var err error
	if c.inspector != nil {
		if closeErr := c.inspector.Close(); closeErr != nil {
			err = closeErr
		}
	}
	if c.client != nil {
		if closeErr := c.client.Close(); closeErr != nil {
			err = closeErr
		}
	}
	return err
}

// Trigger enqueues a supported job by task type.
func (c *JobsCLI) Trigger(ctx context.Context, name string) (*asynq.TaskInfo, error) {
	var task *asynq.Task
	switch name {
	case jobs.TaskCatalogSync:
		task = jobs.NewCatalogSyncTask()
	default:
		return nil, fmt.Errorf("jobs cli: unsupported job %s", name)
	}
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	return c.client.EnqueueContext(ctx, task)
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string
	Pending   int
	Active    int
	Scheduled int
	Retry     int
	Archived  int
}

// InspectQueues reports the metrics of every worker queue. Queues that have
// never received a task report zeros.
func (c *JobsCLI) InspectQueues() ([]QueueStats, error) {
	if c == nil || c.inspector == nil {
		return nil, errors.New("jobs cli: inspector not configured")
	}
	out := make([]QueueStats, 0, 2)
	for _, queue := range []string{jobs.QueueDefault, jobs.QueueAudit} {
		stats := QueueStats{Queue: queue}
		info, err := c.inspector.GetQueueInfo(queue)
		if errors.Is(err, asynq.ErrQueueNotFound) {
			out = append(out, stats)
			continue
		}
		if err != nil {
			return nil, err
		}
		stats.Pending = info.Pending
		stats.Active = info.Active
		stats.Scheduled = info.Scheduled
		stats.Retry = info.Retry
		stats.Archived = info.Archived
		out = append(out, stats)
	}
	return out, nil
}

func newJobsCommand(rt *runtime) *cobra.Command {
	open := func() *JobsCLI {
		return NewJobsCLI(cache.Options{Addr: rt.cfg.RedisAddr, Password: rt.cfg.RedisPassword, DB: rt.cfg.RedisDB})
	}
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Trigger and inspect background jobs",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "trigger <task>",
			Short: "Enqueue a job now (supported: " + jobs.TaskCatalogSync + ")",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c := open()
				defer c.Close()
				info, err := c.Trigger(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s on %s as %s\n", info.Type, info.Queue, info.ID)
				return nil
			},
		},
		&cobra.Command{
			Use:   "stats",
			Short: "Print queue sizes",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				c := open()
				defer c.Close()
				stats, err := c.InspectQueues()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%-8s %8s %8s %9s %6s %8s\n", "QUEUE", "PENDING", "ACTIVE", "SCHEDULED", "RETRY", "ARCHIVED")
				for _, s := range stats {
					fmt.Fprintf(out, "%-8s %8d %8d %9d %6d %8d\n", s.Queue, s.Pending, s.Active, s.Scheduled, s.Retry, s.Archived)
				}
				return nil
			},
		},
	)
	return cmd
}
