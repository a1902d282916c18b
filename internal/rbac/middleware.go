package rbac

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/agrocrm/backoffice/internal/shared"
)

// Middleware wires RBAC authorization helpers for HTTP handlers. Grants come
// from the snapshot the principal middleware put into the request context.
type Middleware struct {
	Logger *slog.Logger
}

// Require ensures the current principal holds resource:action.
func (m Middleware) Require(resource string, action Action) func(http.Handler) http.Handler {
	return m.RequireAll(BuildKey(resource, action))
}

// RequireAny ensures the current principal has at least one of the required permissions.
func (m Middleware) RequireAny(keys ...Key) func(http.Handler) http.Handler {
	normalized := normalizePermissions(keys)
	return m.guard("rbac require any", normalized, hasAnyPermission)
}

// RequireAll ensures the current principal has all required permissions.
func (m Middleware) RequireAll(keys ...Key) func(http.Handler) http.Handler {
	normalized := normalizePermissions(keys)
	return m.guard("rbac require all", normalized, hasAllPermissions)
}

func (m Middleware) guard(name string, required []string, check func(granted, required []string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(required) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			granted, ok := shared.GrantsFromContext(r.Context())
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			if check(granted, required) {
				next.ServeHTTP(w, r)
				return
			}
			if m.Logger != nil {
				actor, _ := shared.ActorFromContext(r.Context())
				m.Logger.Info(name+" denied", slog.String("actor", actor), slog.Any("required", required), slog.String("path", r.URL.Path))
			}
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}

// Allowed reports whether the request context grants resource:action.
func Allowed(r *http.Request, resource string, action Action) bool {
	granted, _ := shared.GrantsFromContext(r.Context())
	return HasPermission(granted, resource, action)
}

func normalizePermissions(keys []Key) []string {
	unique := make(map[string]struct{}, len(keys))
	normalized := make([]string, 0, len(keys))
	for _, k := range keys {
		p := strings.TrimSpace(string(k))
		if p == "" {
			continue
		}
		if _, ok := unique[p]; ok {
			continue
		}
		unique[p] = struct{}{}
		normalized = append(normalized, p)
	}
	return normalized
}

func hasAnyPermission(granted []string, required []string) bool {
	set := NewGrants(granted)
	for _, r := range required {
		if set.HasKey(Key(r)) {
			return true
		}
	}
	return false
}

func hasAllPermissions(granted []string, required []string) bool {
	set := NewGrants(granted)
	for _, r := range required {
		if !set.HasKey(Key(r)) {
			return false
		}
	}
	return true
}
