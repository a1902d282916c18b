package roles

import (
	"context"
	"fmt"
	"sort"

	"github.com/agrocrm/backoffice/internal/store"
)

// Repository persists roles through the governed store, so every write is
// soft-deleted and audited.
type Repository struct {
	store store.Store
}

// NewRepository constructs a repository.
func NewRepository(s store.Store) *Repository {
	return &Repository{store: s}
}

// ListRoles returns all live roles ordered by name.
func (r *Repository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.store.FindMany(ctx, store.ModelRoleDefinition, store.Query{OrderBy: []string{"name ASC"}})
	if err != nil {
		return nil, err
	}
	roles := make([]Role, len(rows))
	for i, row := range rows {
		roles[i] = roleFromRecord(row)
	}
	return roles, nil
}

// GetRole fetches one role.
func (r *Repository) GetRole(ctx context.Context, id string) (Role, error) {
	row, err := r.store.FindOne(ctx, store.ModelRoleDefinition, store.Filter{"id": id})
	if err != nil {
		return Role{}, err
	}
	return roleFromRecord(row), nil
}

// FindRoleByName returns the live role called name, or nil.
func (r *Repository) FindRoleByName(ctx context.Context, name string) (*Role, error) {
	row, err := r.store.FindFirst(ctx, store.ModelRoleDefinition, store.Query{Where: store.Filter{"name": name}})
	if err != nil || row == nil {
		return nil, err
	}
	role := roleFromRecord(row)
	return &role, nil
}

// CreateRole inserts a new role.
func (r *Repository) CreateRole(ctx context.Context, name, description string, system bool) (Role, error) {
	row, err := r.store.Create(ctx, store.ModelRoleDefinition, store.Record{
		"name":        name,
		"description": description,
		"is_system":   system,
	})
	if err != nil {
		return Role{}, err
	}
	return roleFromRecord(row), nil
}

// UpdateRole applies changes to one role.
func (r *Repository) UpdateRole(ctx context.Context, id string, changes store.Record) (Role, error) {
	row, err := r.store.Update(ctx, store.ModelRoleDefinition, store.Filter{"id": id}, changes)
	if err != nil {
		return Role{}, err
	}
	return roleFromRecord(row), nil
}

// DeleteRole soft-deletes the role and its permission links.
func (r *Repository) DeleteRole(ctx context.Context, id string) error {
	return r.store.WithTx(ctx, func(ctx context.Context, tx store.Store) error {
		if _, err := tx.Delete(ctx, store.ModelRoleDefinition, store.Filter{"id": id}); err != nil {
			return err
		}
		_, err := tx.DeleteMany(ctx, store.ModelRolePermission, store.Filter{"role_id": id})
		return err
	})
}

// ListPermissions returns the catalog ordered by category and name.
func (r *Repository) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := r.store.FindMany(ctx, store.ModelPermission, store.Query{OrderBy: []string{"category ASC", "name ASC"}})
	if err != nil {
		return nil, err
	}
	out := make([]Permission, len(rows))
	for i, row := range rows {
		out[i] = permissionFromRecord(row)
	}
	return out, nil
}

// CreatePermission inserts one catalog row.
func (r *Repository) CreatePermission(ctx context.Context, p Permission) (Permission, error) {
	row, err := r.store.Create(ctx, store.ModelPermission, store.Record{
		"category":    p.Category,
		"name":        p.Name,
		"description": p.Description,
	})
	if err != nil {
		return Permission{}, err
	}
	return permissionFromRecord(row), nil
}

// RolePermissions returns the catalog rows linked to roleID.
func (r *Repository) RolePermissions(ctx context.Context, roleID string) ([]Permission, error) {
	links, err := r.store.FindMany(ctx, store.ModelRolePermission, store.Query{Where: store.Filter{"role_id": roleID}})
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, nil
	}
	ids := make([]any, len(links))
	for i, link := range links {
		ids[i] = link.String("permission_id")
	}
	rows, err := r.store.FindMany(ctx, store.ModelPermission, store.Query{
		Where:   store.Filter{"id": ids},
		OrderBy: []string{"category ASC", "name ASC"},
	})
	if err != nil {
		return nil, err
	}
	out := make([]Permission, len(rows))
	for i, row := range rows {
		out[i] = permissionFromRecord(row)
	}
	return out, nil
}

// ReplaceRolePermissions makes permissionIDs the exact link set of roleID in
// one transaction. Removed links are soft-deleted.
func (r *Repository) ReplaceRolePermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	return r.store.WithTx(ctx, func(ctx context.Context, tx store.Store) error {
		if _, err := tx.FindOne(ctx, store.ModelRoleDefinition, store.Filter{"id": roleID}); err != nil {
			return err
		}
		links, err := tx.FindMany(ctx, store.ModelRolePermission, store.Query{Where: store.Filter{"role_id": roleID}})
		if err != nil {
			return err
		}
		want := make(map[string]bool, len(permissionIDs))
		for _, id := range permissionIDs {
			want[id] = true
		}
		var stale []any
		have := make(map[string]bool, len(links))
		for _, link := range links {
			pid := link.String("permission_id")
			have[pid] = true
			if !want[pid] {
				stale = append(stale, pid)
			}
		}
		if len(stale) > 0 {
			if _, err := tx.DeleteMany(ctx, store.ModelRolePermission, store.Filter{"role_id": roleID, "permission_id": stale}); err != nil {
				return fmt.Errorf("roles: unlink permissions: %w", err)
			}
		}
		missing := make([]string, 0, len(permissionIDs))
		for id := range want {
			if !have[id] {
				missing = append(missing, id)
			}
		}
		sort.Strings(missing)
		for _, pid := range missing {
			if _, err := tx.Create(ctx, store.ModelRolePermission, store.Record{"role_id": roleID, "permission_id": pid}); err != nil {
				return fmt.Errorf("roles: link permission: %w", err)
			}
		}
		return nil
	})
}
