package auth_test

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agrocrm/backoffice/internal/auth"
)

func newRouter(h *auth.Handler) http.Handler {
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}
