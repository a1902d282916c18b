package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func serveRoute(t *testing.T, metrics *Metrics, pattern string, status int) {
	t.Helper()
	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, pattern)

	req := httptest.NewRequest(http.MethodGet, pattern, nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != status {
		t.Fatalf("expected status %d, got %d", status, rr.Code)
	}
}

func scrape(t *testing.T, metrics *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	return rr.Body.String()
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()
	serveRoute(t, metrics, "/customers", http.StatusTeapot)

	body := scrape(t, metrics)
	if !strings.Contains(body, "backoffice_http_requests_total{code=\"418\",route=\"/customers\"} 1") {
		t.Fatalf("expected metrics to record request, got: %s", body)
	}
	if !strings.Contains(body, "backoffice_http_request_duration_seconds_bucket{route=\"/customers\"") {
		t.Fatalf("expected duration histogram to be present, got: %s", body)
	}
	if strings.Contains(body, "backoffice_http_denied_total{") {
		t.Fatalf("did not expect a denial sample, got: %s", body)
	}
}

func TestMetricsCountsDenials(t *testing.T) {
	metrics := NewMetrics()
	serveRoute(t, metrics, "/audit", http.StatusForbidden)
	serveRoute(t, metrics, "/audit", http.StatusForbidden)

	body := scrape(t, metrics)
	if !strings.Contains(body, "backoffice_http_denied_total{code=\"403\",route=\"/audit\"} 2") {
		t.Fatalf("expected denial counter, got: %s", body)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var metrics *Metrics
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	if got := metrics.Middleware(next); got == nil {
		t.Fatal("expected passthrough handler")
	}
	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}
