package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/agrocrm/backoffice/internal/observability"
	"github.com/agrocrm/backoffice/internal/rbac"
	"github.com/agrocrm/backoffice/internal/shared"
	"github.com/agrocrm/backoffice/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Handlers       *Handlers
	JobHandler     *jobs.Handler
	Metrics        *observability.Metrics
	// RequestLog enables chi's request logger.
	RequestLog bool
}

// NewRouter constructs the chi.Router with back-office defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()
	h := params.Handlers

	mc := MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}
	if h != nil {
		mc.Tokens = h.Tokens
	}
	for _, mw := range MiddlewareStack(mc) {
		r.Use(mw)
	}
	if params.RequestLog {
		r.Use(chimw.Logger)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.JobHandler != nil {
		r.With(rbacOrNoop(h, rbac.ResourceAuditLogs)).Route("/jobs", params.JobHandler.MountRoutes)
	}
	if h == nil {
		return r
	}

	r.Route("/auth", h.Auth.MountRoutes)
	r.Get("/me/permissions", rbac.PresentationHandler(h.Presentation))
	r.Route("/roles", h.RolesHTTP.MountRoutes)
	r.Route("/users", h.UsersHTTP.MountRoutes)
	r.Route("/customers", h.Customers.MountRoutes)
	r.Route("/employees", h.Employees.MountRoutes)
	r.Route("/products", h.Products.MountRoutes)
	r.Route("/sales", h.Sales.MountSales)
	r.Route("/interactions", h.Sales.MountInteractions)
	h.Audit.MountRoutes(r)
	return r
}

// rbacOrNoop guards operational endpoints with resource:view when the module
// handlers are wired.
func rbacOrNoop(h *Handlers, resource string) func(http.Handler) http.Handler {
	if h == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return h.RBAC.Require(resource, rbac.ActionView)
}
