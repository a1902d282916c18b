package sales_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrocrm/backoffice/internal/rbac"
	"github.com/agrocrm/backoffice/internal/sales"
	"github.com/agrocrm/backoffice/internal/shared"
)

func newRouter(t *testing.T) (http.Handler, fixture) {
	t.Helper()
	f := newFixture(t)
	h := sales.NewHandler(nil, f.svc, rbac.Middleware{})
	r := chi.NewRouter()
	r.Route("/sales", h.MountSales)
	r.Route("/interactions", h.MountInteractions)
	return r, f
}

func send(h http.Handler, method, path, body string, grants ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(shared.ContextWithGrants(req.Context(), grants))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSaleRoutes(t *testing.T) {
	h, f := newRouter(t)
	body := `{"customer_id":"` + f.customer + `","product_id":"` + f.product + `","quantity":2}`

	assert.Equal(t, http.StatusForbidden, send(h, http.MethodPost, "/sales", body, "sales:view").Code)
	rec := send(h, http.MethodPost, "/sales", body, "sales:create")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sale sales.Sale
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sale))
	assert.EqualValues(t, 800000, sale.Amount)

	pending := `{"customer_id":"` + f.pending + `","product_id":"` + f.product + `","quantity":2}`
	assert.Equal(t, http.StatusUnprocessableEntity, send(h, http.MethodPost, "/sales", pending, "sales:create").Code)
	assert.Equal(t, http.StatusBadRequest, send(h, http.MethodPost, "/sales", `{"customer_id":"x","product_id":"y","quantity":0}`, "sales:create").Code)

	rec = send(h, http.MethodGet, "/sales?from=2024-08-01&to=2024-08-01", "", "sales:view")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Sales []sales.Sale `json:"sales"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Sales, 1)
	assert.Equal(t, http.StatusBadRequest, send(h, http.MethodGet, "/sales?from=kemarin", "", "sales:view").Code)

	assert.Equal(t, http.StatusNoContent, send(h, http.MethodDelete, "/sales/"+sale.ID, "", "sales:delete").Code)
	assert.Equal(t, http.StatusNotFound, send(h, http.MethodDelete, "/sales/"+sale.ID, "", "sales:delete").Code)
}

func TestInteractionRoutes(t *testing.T) {
	h, f := newRouter(t)
	body := `{"customer_id":"` + f.pending + `","kind":"CALL","notes":"follow up"}`

	assert.Equal(t, http.StatusForbidden, send(h, http.MethodPost, "/interactions", body, "sales:create").Code)
	assert.Equal(t, http.StatusCreated, send(h, http.MethodPost, "/interactions", body, "interactions:create").Code)
	assert.Equal(t, http.StatusBadRequest, send(h, http.MethodPost, "/interactions", `{"customer_id":"x","kind":"EMAIL"}`, "interactions:create").Code)

	rec := send(h, http.MethodGet, "/interactions?customer_id="+f.pending, "", "interactions:view")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "follow up")
}
