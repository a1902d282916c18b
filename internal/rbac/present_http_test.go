package rbac

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrocrm/backoffice/internal/shared"
)

func TestPresentSalesStaff(t *testing.T) {
	p := Present(salesStaff, DefaultNav())

	assert.Equal(t, []string{ResourceCustomers}, p.Resources)
	assert.Equal(t, []Action{ActionView, ActionCreate, ActionEdit}, p.Actions[ResourceCustomers])
	require.Len(t, p.Nav, 1)
	assert.Equal(t, "Customers", p.Nav[0].Label)
}

func TestPresentationHandler(t *testing.T) {
	h := PresentationHandler(DefaultNav())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me/permissions", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/me/permissions", nil)
	req = req.WithContext(shared.ContextWithGrants(req.Context(), []string{"audit_logs:view", "sales:view"}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body Presentation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{ResourceAuditLogs, ResourceSales}, body.Resources)
	require.Len(t, body.Nav, 2)
	assert.Equal(t, "Reports", body.Nav[0].Label)
	assert.Equal(t, "Administration", body.Nav[1].Label)
	require.Len(t, body.Nav[1].Children, 1)
	assert.Equal(t, "Audit log", body.Nav[1].Children[0].Label)
}
