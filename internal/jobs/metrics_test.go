package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	if err := m.Track("rbac:catalog-sync").End(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	boom := errors.New("boom")
	if err := m.Track("rbac:catalog-sync").End(boom); !errors.Is(err, boom) {
		t.Fatalf("expected error to pass through, got %v", err)
	}

	if got := testutil.ToFloat64(m.runs.WithLabelValues("rbac:catalog-sync", "success")); got != 1 {
		t.Fatalf("success runs = %v", got)
	}
	if got := testutil.ToFloat64(m.failures.WithLabelValues("rbac:catalog-sync")); got != 1 {
		t.Fatalf("failures = %v", got)
	}
}

func TestCounters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.AddCatalogKeys(6)
	m.AddCatalogKeys(0)
	m.AddAuditPersisted("Customer")

	if got := testutil.ToFloat64(m.catalog); got != 6 {
		t.Fatalf("catalog = %v", got)
	}
	if got := testutil.ToFloat64(m.persisted.WithLabelValues("Customer")); got != 1 {
		t.Fatalf("persisted = %v", got)
	}

	var nilMetrics *Metrics
	nilMetrics.AddCatalogKeys(1)
	if err := nilMetrics.Track("x").End(nil); err != nil {
		t.Fatalf("nil tracker: %v", err)
	}
}
