// Package rbac holds the flat resource:action permission model, the
// presentation helpers derived from it, and its HTTP and store enforcement.
package rbac

import (
	"errors"
	"fmt"
	"strings"
)

// ErrForbidden is returned by enforcement points when a grant is missing.
var ErrForbidden = errors.New("rbac: forbidden")

// ErrInvalidKey reports a malformed permission key.
var ErrInvalidKey = errors.New("rbac: invalid permission key")

// Action is one entry of the fixed action enumeration.
type Action string

const (
	ActionView    Action = "view"
	ActionCreate  Action = "create"
	ActionEdit    Action = "edit"
	ActionDelete  Action = "delete"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

var actionOrder = []Action{ActionView, ActionCreate, ActionEdit, ActionDelete, ActionApprove, ActionReject}

// Actions returns the enumeration in presentation order.
func Actions() []Action {
	out := make([]Action, len(actionOrder))
	copy(out, actionOrder)
	return out
}

// Valid reports whether a belongs to the enumeration.
func (a Action) Valid() bool {
	for _, known := range actionOrder {
		if a == known {
			return true
		}
	}
	return false
}

// Resources governed by the back-office.
const (
	ResourceCustomers    = "customers"
	ResourceEmployees    = "employees"
	ResourceProducts     = "products"
	ResourceStock        = "stock"
	ResourceSales        = "sales"
	ResourceInteractions = "interactions"
	ResourceReports      = "reports"
	ResourceAuditLogs    = "audit_logs"
	ResourceRoles        = "roles"
	ResourceUsers        = "users"
)

// Resources lists the catalog resources in a stable order.
func Resources() []string {
	return []string{
		ResourceCustomers,
		ResourceEmployees,
		ResourceProducts,
		ResourceStock,
		ResourceSales,
		ResourceInteractions,
		ResourceReports,
		ResourceAuditLogs,
		ResourceRoles,
		ResourceUsers,
	}
}

// Key is a serialized "<resource>:<action>" permission.
type Key string

// BuildKey composes the canonical key for resource and action.
func BuildKey(resource string, action Action) Key {
	return Key(strings.TrimSpace(resource) + ":" + strings.ToLower(strings.TrimSpace(string(action))))
}

// ParseKey splits a key and validates both parts.
func ParseKey(raw string) (string, Action, error) {
	resource, action, ok := strings.Cut(strings.TrimSpace(raw), ":")
	resource = strings.TrimSpace(resource)
	a := Action(strings.ToLower(strings.TrimSpace(action)))
	if !ok || resource == "" || a == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidKey, raw)
	}
	if !a.Valid() {
		return "", "", fmt.Errorf("%w: unknown action in %q", ErrInvalidKey, raw)
	}
	return resource, a, nil
}

// String returns the serialized key.
func (k Key) String() string { return string(k) }

// CatalogKeys returns every resource × action key of the catalog.
func CatalogKeys() []Key {
	keys := make([]Key, 0, len(Resources())*len(actionOrder))
	for _, r := range Resources() {
		for _, a := range actionOrder {
			keys = append(keys, BuildKey(r, a))
		}
	}
	return keys
}
