package audithttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/agrocrm/backoffice/internal/audit"
	"github.com/agrocrm/backoffice/internal/rbac"
	"github.com/agrocrm/backoffice/internal/shared"
)

type stubTimelineService struct {
	result      audit.Result
	exportRows  []audit.Entry
	history     []audit.Entry
	lastFilters audit.TimelineFilters
	lastRecord  [2]string
}

func (s *stubTimelineService) Timeline(ctx context.Context, filters audit.TimelineFilters) (audit.Result, error) {
	s.lastFilters = filters
	return s.result, nil
}

func (s *stubTimelineService) Export(ctx context.Context, filters audit.TimelineFilters) ([]audit.Entry, error) {
	s.lastFilters = filters
	return s.exportRows, nil
}

func (s *stubTimelineService) History(ctx context.Context, model, recordID string) ([]audit.Entry, error) {
	s.lastRecord = [2]string{model, recordID}
	return s.history, nil
}

func newAuditRouter(service *stubTimelineService) http.Handler {
	handler := NewHandler(nil, service, audit.NewExporter(), rbac.Middleware{})
	handler.now = func() time.Time { return time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC) }
	r := chi.NewRouter()
	handler.MountRoutes(r)
	return r
}

func get(h http.Handler, path string, grants ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if grants != nil {
		ctx := shared.ContextWithActor(req.Context(), "auditor-1")
		req = req.WithContext(shared.ContextWithGrants(ctx, grants))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestTimelineRequiresPermission(t *testing.T) {
	h := newAuditRouter(&stubTimelineService{})
	if rr := get(h, "/audit"); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if rr := get(h, "/audit", "customers:view"); rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestTimelineReturnsRows(t *testing.T) {
	actor := "user-7"
	rows := []audit.Entry{{ID: "01J", Model: "Customer", Action: audit.ActionApprove, PerformedByUserID: &actor, PerformedAt: time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)}}
	service := &stubTimelineService{result: audit.Result{Rows: rows, Paging: audit.PagingInfo{Page: 1, PageSize: 20}}}
	h := newAuditRouter(service)

	rr := get(h, "/audit?from=2024-03-01&to=2024-03-15&model=Customer&action=approve", "audit_logs:view")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var body audit.Result
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Rows) != 1 || body.Rows[0].Action != audit.ActionApprove {
		t.Fatalf("unexpected rows: %+v", body.Rows)
	}
	f := service.lastFilters
	if f.From.Format(time.DateOnly) != "2024-03-01" || f.Model != "Customer" {
		t.Fatalf("unexpected filters: %+v", f)
	}
	if !f.To.After(time.Date(2024, 3, 15, 23, 0, 0, 0, time.UTC)) {
		t.Fatalf("to should cover the whole day: %v", f.To)
	}
}

func TestTimelineDefaultsToLastWeek(t *testing.T) {
	service := &stubTimelineService{}
	h := newAuditRouter(service)
	if rr := get(h, "/audit", "audit_logs:view"); rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := service.lastFilters.From.Format(time.DateOnly); got != "2024-03-08" {
		t.Fatalf("expected default from 2024-03-08, got %s", got)
	}
}

func TestTimelineRejectsBadFilters(t *testing.T) {
	h := newAuditRouter(&stubTimelineService{})
	for _, q := range []string{
		"?from=2024-03-10&to=2024-03-01",
		"?from=2023-01-01&to=2024-03-01",
		"?to=15-03-2024",
		"?page=0",
		"?action=ARCHIVE",
	} {
		if rr := get(h, "/audit"+q, "audit_logs:view"); rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", q, rr.Code)
		}
	}
}

func TestExportCSV(t *testing.T) {
	service := &stubTimelineService{exportRows: []audit.Entry{{ID: "01J", Model: "Product", Action: audit.ActionCreate}}}
	h := newAuditRouter(service)
	rr := get(h, "/audit/export.csv?from=2024-03-01&to=2024-03-05", "audit_logs:view")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ctype := rr.Header().Get("Content-Type"); !strings.Contains(ctype, "text/csv") {
		t.Fatalf("unexpected content-type: %s", ctype)
	}
	lines := strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[1], "01J,") {
		t.Fatalf("unexpected csv: %q", rr.Body.String())
	}
}

func TestExportIsRateLimited(t *testing.T) {
	h := newAuditRouter(&stubTimelineService{})
	for i := 0; i < rateLimit; i++ {
		if rr := get(h, "/audit/export.csv", "audit_logs:view"); rr.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rr.Code)
		}
	}
	if rr := get(h, "/audit/export.csv", "audit_logs:view"); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
}

func TestHistory(t *testing.T) {
	service := &stubTimelineService{history: []audit.Entry{{ID: "a"}, {ID: "b"}}}
	h := newAuditRouter(service)
	rr := get(h, "/audit/Customer/c-1", "audit_logs:view")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if service.lastRecord != [2]string{"Customer", "c-1"} {
		t.Fatalf("unexpected lookup: %v", service.lastRecord)
	}
}
