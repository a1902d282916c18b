package customers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/agrocrm/backoffice/internal/platform/httpx"
	"github.com/agrocrm/backoffice/internal/rbac"
	"github.com/agrocrm/backoffice/internal/shared"
)

const idempotencyModule = "customers"

type Handler struct {
	logger      *slog.Logger
	service     *Service
	validator   *validator.Validate
	idempotency *shared.IdempotencyStore
	rbac        rbac.Middleware
}

// NewHandler builds the customer endpoints. idem may be nil, which disables
// Idempotency-Key handling on create.
func NewHandler(logger *slog.Logger, service *Service, idem *shared.IdempotencyStore, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:      logger,
		service:     service,
		validator:   validator.New(),
		idempotency: idem,
		rbac:        rbac,
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := ListCustomersRequest{
		Type:    q.Get("type"),
		Status:  q.Get("status"),
		Region:  q.Get("region"),
		Search:  q.Get("search"),
		Page:    httpx.QueryInt(r, "page", 1),
		PerPage: httpx.QueryInt(r, "per_page", 0),
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	customers, page, err := h.service.List(r.Context(), req)
	if err != nil {
		h.fail(w, "list customers", err)
		return
	}
	body := map[string]any{"customers": customers, "pagination": page}
	body["actions"] = h.actions(r)
	httpx.JSON(w, http.StatusOK, body)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	customer, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get customer", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"customer": customer, "actions": h.actions(r)})
}

func (h *Handler) SuggestCode(w http.ResponseWriter, r *http.Request) {
	code, err := h.service.GenerateCode(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"code": code})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCustomerRequest
	if err := httpx.DecodeAndValidate(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	key := r.Header.Get(shared.IdempotencyHeader)
	if key != "" && h.idempotency != nil {
		if err := h.idempotency.CheckAndInsert(r.Context(), key, idempotencyModule); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				httpx.Problem(w, http.StatusConflict, "Duplicate Request", err.Error())
				return
			}
			h.fail(w, "idempotency check", err)
			return
		}
	}
	customer, err := h.service.Create(r.Context(), req)
	if err != nil {
		if key != "" && h.idempotency != nil {
			_ = h.idempotency.Delete(r.Context(), key, idempotencyModule)
		}
		h.fail(w, "create customer", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, customer)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateCustomerRequest
	if err := httpx.DecodeAndValidate(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	customer, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.fail(w, "update customer", err)
		return
	}
	httpx.JSON(w, http.StatusOK, customer)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "delete customer", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	customer, err := h.service.Approve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "approve customer", err)
		return
	}
	httpx.JSON(w, http.StatusOK, customer)
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	var req RejectCustomerRequest
	if err := httpx.DecodeAndValidate(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	customer, err := h.service.Reject(r.Context(), chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		h.fail(w, "reject customer", err)
		return
	}
	httpx.JSON(w, http.StatusOK, customer)
}

// actions lists what the principal may do with customers so the console can
// hide the rest.
func (h *Handler) actions(r *http.Request) []rbac.Action {
	granted, _ := shared.GrantsFromContext(r.Context())
	return rbac.AvailableActions(granted, rbac.ResourceCustomers)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrAlreadyExists):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
		return
	case errors.Is(err, ErrInvalidTransition):
		httpx.Problem(w, http.StatusConflict, "Invalid Transition", err.Error())
		return
	case errors.Is(err, ErrInvalidParent):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid Parent", err.Error())
		return
	}
	h.logger.Warn(op+" failed", slog.Any("error", err))
	httpx.RespondError(w, err)
}
