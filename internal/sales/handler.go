package sales

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/agrocrm/backoffice/internal/platform/httpx"
	"github.com/agrocrm/backoffice/internal/rbac"
)

// Handler serves the sales ledger and the interaction log.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	rbac      rbac.Middleware
}

func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validator: validator.New(), rbac: rbac}
}

// MountSales registers the /sales routes.
func (h *Handler) MountSales(r chi.Router) {
	r.With(h.rbac.Require(rbac.ResourceSales, rbac.ActionView)).Get("/", h.listSales)
	r.With(h.rbac.Require(rbac.ResourceSales, rbac.ActionCreate)).Post("/", h.recordSale)
	r.With(h.rbac.Require(rbac.ResourceSales, rbac.ActionDelete)).Delete("/{id}", h.deleteSale)
}

// MountInteractions registers the /interactions routes.
func (h *Handler) MountInteractions(r chi.Router) {
	r.With(h.rbac.Require(rbac.ResourceInteractions, rbac.ActionView)).Get("/", h.listInteractions)
	r.With(h.rbac.Require(rbac.ResourceInteractions, rbac.ActionCreate)).Post("/", h.logInteraction)
	r.With(h.rbac.Require(rbac.ResourceInteractions, rbac.ActionDelete)).Delete("/{id}", h.deleteInteraction)
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	filters, ok := parseFilters(w, r)
	if !ok {
		return
	}
	items, page, err := h.service.ListSales(r.Context(), filters)
	if err != nil {
		h.fail(w, "list sales", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"sales": items, "pagination": page})
}

func (h *Handler) recordSale(w http.ResponseWriter, r *http.Request) {
	var req RecordSaleRequest
	if err := httpx.DecodeAndValidate(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	sale, err := h.service.RecordSale(r.Context(), req)
	if err != nil {
		h.fail(w, "record sale", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sale)
}

func (h *Handler) deleteSale(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteSale(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "delete sale", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listInteractions(w http.ResponseWriter, r *http.Request) {
	filters, ok := parseFilters(w, r)
	if !ok {
		return
	}
	items, page, err := h.service.ListInteractions(r.Context(), filters)
	if err != nil {
		h.fail(w, "list interactions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"interactions": items, "pagination": page})
}

func (h *Handler) logInteraction(w http.ResponseWriter, r *http.Request) {
	var req LogInteractionRequest
	if err := httpx.DecodeAndValidate(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.service.LogInteraction(r.Context(), req)
	if err != nil {
		h.fail(w, "log interaction", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

func (h *Handler) deleteInteraction(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteInteraction(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "delete interaction", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseFilters(w http.ResponseWriter, r *http.Request) (ListFilters, bool) {
	q := r.URL.Query()
	filters := ListFilters{
		CustomerID: q.Get("customer_id"),
		EmployeeID: q.Get("employee_id"),
		Page:       httpx.QueryInt(r, "page", 1),
		PerPage:    httpx.QueryInt(r, "per_page", 0),
	}
	for key, dst := range map[string]**time.Time{"from": &filters.From, "to": &filters.To} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		t, err := parseTime(raw, key == "to")
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Query", key+" must be RFC3339 or YYYY-MM-DD")
			return ListFilters{}, false
		}
		*dst = &t
	}
	return filters, true
}

// parseTime accepts RFC3339 or a calendar date. A date used as an upper
// bound covers the whole day.
func parseTime(raw string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrCustomerNotApproved), errors.Is(err, ErrProductInactive):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Sale Rejected", err.Error())
		return
	}
	h.logger.Warn(op+" failed", slog.Any("error", err))
	httpx.RespondError(w, err)
}
