package audit

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts recorded and dropped audit entries.
type Metrics struct {
	recorded *prometheus.CounterVec
	failures *prometheus.CounterVec
}

// NewMetrics registers the audit collectors against registerer. A nil
// registerer yields unregistered collectors, which tests use.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	recorded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "backoffice_audit_entries_total",
		Help: "Audit entries persisted, by model and action.",
	}, []string{"model", "action"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "backoffice_audit_failures_total",
		Help: "Audit entries that could not be persisted, by model.",
	}, []string{"model"})
	if registerer != nil {
		registerer.MustRegister(recorded, failures)
	}
	return &Metrics{recorded: recorded, failures: failures}
}

func (m *Metrics) observe(e Entry, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.failures.WithLabelValues(e.Model).Inc()
		return
	}
	m.recorded.WithLabelValues(e.Model, string(e.Action)).Inc()
}
