package employees

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	mdshared "github.com/agrocrm/backoffice/internal/masterdata/shared"
	"github.com/agrocrm/backoffice/internal/platform/httpx"
	"github.com/agrocrm/backoffice/internal/rbac"
	"github.com/agrocrm/backoffice/internal/shared"
)

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

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.ResourceEmployees, rbac.ActionView))
		r.Get("/", h.list)
		r.Get("/{id}", h.show)
	})
	r.With(h.rbac.Require(rbac.ResourceEmployees, rbac.ActionCreate)).Post("/", h.create)
	r.With(h.rbac.Require(rbac.ResourceEmployees, rbac.ActionEdit)).Patch("/{id}", h.update)
	r.With(h.rbac.RequireAll(
		rbac.BuildKey(rbac.ResourceEmployees, rbac.ActionEdit),
		rbac.BuildKey(rbac.ResourceUsers, rbac.ActionView),
	)).Put("/{id}/user", h.linkUser)
	r.With(h.rbac.Require(rbac.ResourceEmployees, rbac.ActionDelete)).Delete("/{id}", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := mdshared.ListFilters{
		Page:    httpx.QueryInt(r, "page", mdshared.DefaultPage),
		Limit:   httpx.QueryInt(r, "limit", mdshared.DefaultLimit),
		Search:  q.Get("search"),
		SortBy:  q.Get("sort_by"),
		SortDir: q.Get("sort_dir"),
		Region:  q.Get("region"),
	}.Normalize()
	items, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.fail(w, "list employees", err)
		return
	}
	granted, _ := shared.GrantsFromContext(r.Context())
	httpx.JSON(w, http.StatusOK, map[string]any{
		"employees":  items,
		"pagination": shared.NewPagination(filters.Page, filters.Limit, total),
		"actions":    rbac.AvailableActions(granted, rbac.ResourceEmployees),
	})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	e, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get employee", err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var form EmployeeForm
	if err := httpx.DecodeAndValidate(r, h.validator, &form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	e, err := h.service.Create(r.Context(), form)
	if err != nil {
		h.fail(w, "create employee", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, e)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var patch EmployeePatch
	if err := httpx.DecodeAndValidate(r, h.validator, &patch); err != nil {
		httpx.RespondError(w, err)
		return
	}
	e, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.fail(w, "update employee", err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *Handler) linkUser(w http.ResponseWriter, r *http.Request) {
	var req LinkUserRequest
	if err := httpx.DecodeAndValidate(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	e, err := h.service.LinkUser(r.Context(), chi.URLParam(r, "id"), req.UserID)
	if err != nil {
		h.fail(w, "link employee user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "delete employee", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, mdshared.ErrDuplicate), errors.Is(err, ErrUserLinked):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
		return
	}
	h.logger.Warn(op+" failed", slog.Any("error", err))
	httpx.RespondError(w, err)
}
