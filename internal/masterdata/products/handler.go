package products

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	mdshared "github.com/agrocrm/backoffice/internal/masterdata/shared"
	"github.com/agrocrm/backoffice/internal/platform/httpx"
	"github.com/agrocrm/backoffice/internal/rbac"
	"github.com/agrocrm/backoffice/internal/shared"
)

// MaxImageBytes caps a single uploaded image.
const MaxImageBytes = 5 << 20

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
		r.Use(h.rbac.Require(rbac.ResourceProducts, rbac.ActionView))
		r.Get("/", h.list)
		r.Get("/{id}", h.show)
		r.Get("/{id}/images", h.listImages)
		r.Get("/{id}/images/{imageID}", h.serveImage)
	})
	r.With(h.rbac.Require(rbac.ResourceProducts, rbac.ActionCreate)).Post("/", h.create)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.ResourceProducts, rbac.ActionEdit))
		r.Patch("/{id}", h.update)
		r.Post("/{id}/images", h.uploadImage)
		r.Delete("/{id}/images/{imageID}", h.removeImage)
	})
	r.With(h.rbac.Require(rbac.ResourceProducts, rbac.ActionDelete)).Delete("/{id}", h.delete)
	r.With(h.rbac.Require(rbac.ResourceStock, rbac.ActionView)).Get("/{id}/stock", h.stock)
	r.With(h.rbac.Require(rbac.ResourceStock, rbac.ActionEdit)).Post("/{id}/stock", h.adjustStock)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := mdshared.ListFilters{
		Page:     httpx.QueryInt(r, "page", mdshared.DefaultPage),
		Limit:    httpx.QueryInt(r, "limit", mdshared.DefaultLimit),
		Search:   q.Get("search"),
		SortBy:   q.Get("sort_by"),
		SortDir:  q.Get("sort_dir"),
		Category: q.Get("category"),
	}
	if raw := q.Get("is_active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Query", "is_active must be a boolean")
			return
		}
		filters.IsActive = &active
	}
	filters = filters.Normalize()
	items, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.fail(w, "list products", err)
		return
	}
	granted, _ := shared.GrantsFromContext(r.Context())
	httpx.JSON(w, http.StatusOK, map[string]any{
		"products":   items,
		"pagination": shared.NewPagination(filters.Page, filters.Limit, total),
		"actions":    rbac.AvailableActions(granted, rbac.ResourceProducts),
	})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var form ProductForm
	if err := httpx.DecodeAndValidate(r, h.validator, &form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.Create(r.Context(), form)
	if err != nil {
		h.fail(w, "create product", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var patch ProductPatch
	if err := httpx.DecodeAndValidate(r, h.validator, &patch); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.fail(w, "update product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "delete product", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) stock(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.Stock(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "list stock", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"stock": rows})
}

func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request) {
	var adj StockAdjustment
	if err := httpx.DecodeAndValidate(r, h.validator, &adj); err != nil {
		httpx.RespondError(w, err)
		return
	}
	row, err := h.service.AdjustStock(r.Context(), chi.URLParam(r, "id"), adj)
	if err != nil {
		h.fail(w, "adjust stock", err)
		return
	}
	httpx.JSON(w, http.StatusOK, row)
}

func (h *Handler) listImages(w http.ResponseWriter, r *http.Request) {
	images, err := h.service.Images(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "list images", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"images": images})
}

func (h *Handler) uploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxImageBytes+1<<10)
	if err := r.ParseMultipartForm(MaxImageBytes); err != nil {
		httpx.Problem(w, http.StatusRequestEntityTooLarge, "Upload Rejected", "gambar maksimal 5 MB")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()
	file, header, err := r.FormFile("image")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Upload Rejected", "field image wajib diisi")
		return
	}
	defer file.Close()
	img, err := h.service.UploadImage(r.Context(), chi.URLParam(r, "id"), header.Header.Get("Content-Type"), file)
	if err != nil {
		h.fail(w, "upload image", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, img)
}

func (h *Handler) serveImage(w http.ResponseWriter, r *http.Request) {
	img, rc, err := h.service.OpenImage(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "imageID"))
	if err != nil {
		h.fail(w, "open image", err)
		return
	}
	defer rc.Close()
	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(img.SizeBytes, 10))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("stream image", slog.String("image_id", img.ID), slog.Any("error", err))
	}
}

func (h *Handler) removeImage(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RemoveImage(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "imageID")); err != nil {
		h.fail(w, "remove image", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, mdshared.ErrDuplicate):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
		return
	case errors.Is(err, mdshared.ErrInvalidQuantity), errors.Is(err, mdshared.ErrInsufficientStock):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid Stock Adjustment", err.Error())
		return
	case errors.Is(err, mdshared.ErrUnsupportedMedia):
		httpx.Problem(w, http.StatusUnsupportedMediaType, "Unsupported Media", err.Error())
		return
	}
	h.logger.Warn(op+" failed", slog.Any("error", err))
	httpx.RespondError(w, err)
}
