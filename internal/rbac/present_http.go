package rbac

import (
	"encoding/json"
	"net/http"

	"github.com/agrocrm/backoffice/internal/shared"
)

// Presentation is what the console needs to decide what to render for the
// current principal.
type Presentation struct {
	Permissions []string            `json:"permissions"`
	Resources   []string            `json:"resources"`
	Actions     map[string][]Action `json:"actions"`
	Nav         []NavItem           `json:"nav"`
}

// Present derives the presentation of granted.
func Present(granted []string, nav []NavItem) Presentation {
	resources := AccessibleResources(granted)
	actions := make(map[string][]Action, len(resources))
	for _, r := range resources {
		actions[r] = AvailableActions(granted, r)
	}
	perms := append([]string{}, granted...)
	return Presentation{Permissions: perms, Resources: resources, Actions: actions, Nav: FilterNav(granted, nav)}
}

// PresentationHandler serves Present for the request's grants. A request
// without a principal is answered with 401.
func PresentationHandler(nav []NavItem) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		granted, ok := shared.GrantsFromContext(r.Context())
		if !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(Present(granted, nav))
	}
}
