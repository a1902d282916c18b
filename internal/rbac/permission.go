package rbac

import (
	"sort"
	"strings"
)

// HasPermission reports whether granted contains exactly resource:action.
// There are no wildcards and no implied actions.
func HasPermission(granted []string, resource string, action Action) bool {
	if len(granted) == 0 || strings.TrimSpace(resource) == "" {
		return false
	}
	if !Action(strings.ToLower(strings.TrimSpace(string(action)))).Valid() {
		return false
	}
	want := string(BuildKey(resource, action))
	for _, k := range granted {
		if k == want {
			return true
		}
	}
	return false
}

// AccessibleResources returns the distinct resources on which granted holds
// any action, sorted.
func AccessibleResources(granted []string) []string {
	seen := make(map[string]struct{}, len(granted))
	out := make([]string, 0, len(granted))
	for _, k := range granted {
		resource, _, err := ParseKey(k)
		if err != nil {
			continue
		}
		if _, ok := seen[resource]; ok {
			continue
		}
		seen[resource] = struct{}{}
		out = append(out, resource)
	}
	sort.Strings(out)
	return out
}

// Grants is a request-scoped set built from a session snapshot.
type Grants struct {
	keys map[string]struct{}
	list []string
}

// NewGrants indexes keys for constant-time lookup.
func NewGrants(keys []string) Grants {
	g := Grants{keys: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		if _, ok := g.keys[k]; ok {
			continue
		}
		g.keys[k] = struct{}{}
		g.list = append(g.list, k)
	}
	return g
}

// Has reports whether resource:action was granted.
func (g Grants) Has(resource string, action Action) bool {
	_, ok := g.keys[string(BuildKey(resource, action))]
	return ok
}

// HasKey reports whether key was granted.
func (g Grants) HasKey(key Key) bool {
	_, ok := g.keys[string(key)]
	return ok
}

// Keys returns the granted keys in snapshot order.
func (g Grants) Keys() []string {
	out := make([]string, len(g.list))
	copy(out, g.list)
	return out
}

// Resources is AccessibleResources over the set.
func (g Grants) Resources() []string {
	return AccessibleResources(g.list)
}

// Actions is AvailableActions over the set.
func (g Grants) Actions(resource string) []Action {
	out := make([]Action, 0, len(actionOrder))
	for _, a := range actionOrder {
		if g.Has(resource, a) {
			out = append(out, a)
		}
	}
	return out
}
