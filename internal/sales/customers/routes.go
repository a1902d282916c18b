package customers

import (
	"github.com/go-chi/chi/v5"

	"github.com/agrocrm/backoffice/internal/rbac"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.ResourceCustomers, rbac.ActionView))
		r.Get("/", h.List)
		r.Get("/{id}", h.Show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.ResourceCustomers, rbac.ActionCreate))
		r.Get("/code", h.SuggestCode)
		r.Post("/", h.Create)
	})
	r.With(h.rbac.Require(rbac.ResourceCustomers, rbac.ActionEdit)).Patch("/{id}", h.Update)
	r.With(h.rbac.Require(rbac.ResourceCustomers, rbac.ActionDelete)).Delete("/{id}", h.Delete)
	r.With(h.rbac.Require(rbac.ResourceCustomers, rbac.ActionApprove)).Post("/{id}/approve", h.Approve)
	r.With(h.rbac.Require(rbac.ResourceCustomers, rbac.ActionReject)).Post("/{id}/reject", h.Reject)
}
