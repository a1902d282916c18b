package roles

import (
	"errors"
	"time"

	"github.com/agrocrm/backoffice/internal/rbac"
	"github.com/agrocrm/backoffice/internal/store"
)

// ErrSystemRole blocks deletion of roles seeded by the platform.
var ErrSystemRole = errors.New("roles: system role cannot be deleted")

// Role represents a role for management.
type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsSystem    bool      `json:"isSystem"`
	Permissions []string  `json:"permissions,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Permission is one catalog row; its key is category:name.
type Permission struct {
	ID          string `json:"id"`
	Category    string `json:"category"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Key returns the permission key of the row.
func (p Permission) Key() rbac.Key {
	return rbac.BuildKey(p.Category, rbac.Action(p.Name))
}

// RoleInput carries create and update payloads.
type RoleInput struct {
	Name        string `json:"name" validate:"required,max=64"`
	Description string `json:"description" validate:"max=255"`
}

// RolePatch carries partial updates.
type RolePatch struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=64"`
	Description *string `json:"description" validate:"omitempty,max=255"`
}

// PermissionsInput replaces the permission set of a role.
type PermissionsInput struct {
	Keys []string `json:"keys" validate:"dive,required"`
}

func roleFromRecord(r store.Record) Role {
	return Role{
		ID:          r.String("id"),
		Name:        r.String("name"),
		Description: r.String("description"),
		IsSystem:    r.Bool("is_system"),
		CreatedAt:   r.Time("created_at"),
		UpdatedAt:   r.Time("updated_at"),
	}
}

func permissionFromRecord(r store.Record) Permission {
	return Permission{
		ID:          r.String("id"),
		Category:    r.String("category"),
		Name:        r.String("name"),
		Description: r.String("description"),
	}
}
