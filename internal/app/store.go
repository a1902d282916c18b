package app

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/agrocrm/backoffice/internal/audit"
	"github.com/agrocrm/backoffice/internal/governance"
	"github.com/agrocrm/backoffice/internal/rbac"
	"github.com/agrocrm/backoffice/internal/store"
	"github.com/agrocrm/backoffice/internal/store/memstore"
	"github.com/agrocrm/backoffice/internal/store/postgres"
	"github.com/agrocrm/backoffice/internal/store/softdelete"
	"github.com/agrocrm/backoffice/jobs"
)

// StoreParams groups what BuildStores needs for the configured backend.
type StoreParams struct {
	Config *Config
	// Pool is required for the postgres backend.
	Pool postgres.Pool
	// Queue is required for the queue audit sink.
	Queue      audit.Enqueuer
	Logger     *slog.Logger
	Registerer prometheus.Registerer
	Clock      func() time.Time
}

// Stores is the assembled persistence stack.
type Stores struct {
	// Base is the undecorated backend. It sees soft-deleted rows and records
	// nothing; only audit persistence and maintenance use it.
	Base store.Store
	// Governed is handed to every repository.
	Governed store.Store
	Policy   governance.Policy
	Recorder *audit.Recorder
}

// BuildStores assembles backend, soft delete, audit capture and the optional
// store-level permission gate, outermost last.
func BuildStores(p StoreParams) (*Stores, error) {
	if p.Config == nil {
		return nil, errors.New("app: store config missing")
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := p.Clock
	if clock == nil {
		clock = time.Now
	}
	schema := store.CRMSchema()
	policy := governance.Default()
	if err := policy.Validate(schema); err != nil {
		return nil, fmt.Errorf("app: governance policy: %w", err)
	}

	var base store.Store
	switch p.Config.AppStore {
	case StorePostgres:
		if p.Pool == nil {
			return nil, errors.New("app: postgres store requires a pool")
		}
		base = postgres.New(p.Pool, schema).WithClock(clock)
	case StoreMemory:
		if p.Config.AuditSink == AuditSinkQueue {
			return nil, errors.New("app: memory store cannot use the queue audit sink")
		}
		base = memstore.New(schema).WithClock(clock)
	default:
		return nil, fmt.Errorf("app: unknown store backend %q", p.Config.AppStore)
	}

	var sink audit.Sink
	switch p.Config.AuditSink {
	case AuditSinkQueue:
		if p.Queue == nil {
			return nil, errors.New("app: queue audit sink requires a client")
		}
		sink = audit.QueueSink{Client: p.Queue, Queue: jobs.QueueAudit}
	default:
		sink = audit.StoreSink{Store: base}
	}
	recorder := audit.NewRecorder(sink, logger, audit.NewMetrics(p.Registerer))

	var governed store.Store = audit.NewInterceptor(
		softdelete.New(base, policy, clock),
		policy,
		recorder,
		audit.WithStrict(p.Config.AuditStrict),
		audit.WithClock(clock),
		audit.WithSchema(schema),
		audit.WithLogger(logger),
		audit.WithRedactedFields("password_hash"),
	)
	if p.Config.RBACEnforceStore {
		governed = rbac.NewGate(governed, rbac.ModelResources()).WithCascades(rbac.DeleteCascades())
	}
	logger.Info("store ready",
		slog.String("backend", p.Config.AppStore),
		slog.String("audit_sink", p.Config.AuditSink),
		slog.Bool("audit_strict", p.Config.AuditStrict),
		slog.Bool("rbac_enforce_store", p.Config.RBACEnforceStore),
	)
	return &Stores{Base: base, Governed: governed, Policy: policy, Recorder: recorder}, nil
}
