package roles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/agrocrm/backoffice/internal/rbac"
	"github.com/agrocrm/backoffice/internal/store"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	ListRoles(ctx context.Context) ([]Role, error)
	GetRole(ctx context.Context, id string) (Role, error)
	FindRoleByName(ctx context.Context, name string) (*Role, error)
	CreateRole(ctx context.Context, name, description string, system bool) (Role, error)
	UpdateRole(ctx context.Context, id string, changes store.Record) (Role, error)
	DeleteRole(ctx context.Context, id string) error
	ListPermissions(ctx context.Context) ([]Permission, error)
	CreatePermission(ctx context.Context, p Permission) (Permission, error)
	RolePermissions(ctx context.Context, roleID string) ([]Permission, error)
	ReplaceRolePermissions(ctx context.Context, roleID string, permissionIDs []string) error
}

// Service handles role business logic.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// GetRole returns one role with its permission keys.
func (s *Service) GetRole(ctx context.Context, id string) (Role, error) {
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return Role{}, err
	}
	keys, err := s.RolePermissionKeys(ctx, id)
	if err != nil {
		return Role{}, err
	}
	role.Permissions = keys
	return role, nil
}

// CreateRole adds a custom role. Names are stored upper-case.
func (s *Service) CreateRole(ctx context.Context, in RoleInput) (Role, error) {
	return s.repo.CreateRole(ctx, normalizeName(in.Name), strings.TrimSpace(in.Description), false)
}

// EnsureRole returns the role called name, creating it as a system role when
// absent.
func (s *Service) EnsureRole(ctx context.Context, name, description string) (Role, error) {
	name = normalizeName(name)
	existing, err := s.repo.FindRoleByName(ctx, name)
	if err != nil {
		return Role{}, err
	}
	if existing != nil {
		return *existing, nil
	}
	return s.repo.CreateRole(ctx, name, description, true)
}

// RoleExists reports whether id names a live role.
func (s *Service) RoleExists(ctx context.Context, id string) (bool, error) {
	_, err := s.repo.GetRole(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// UpdateRole applies a partial update.
func (s *Service) UpdateRole(ctx context.Context, id string, patch RolePatch) (Role, error) {
	changes := store.Record{}
	if patch.Name != nil {
		changes["name"] = normalizeName(*patch.Name)
	}
	if patch.Description != nil {
		changes["description"] = strings.TrimSpace(*patch.Description)
	}
	if len(changes) == 0 {
		return s.repo.GetRole(ctx, id)
	}
	return s.repo.UpdateRole(ctx, id, changes)
}

// DeleteRole soft-deletes a custom role.
func (s *Service) DeleteRole(ctx context.Context, id string) error {
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return err
	}
	if role.IsSystem {
		return ErrSystemRole
	}
	return s.repo.DeleteRole(ctx, id)
}

// ListPermissions returns the stored permission catalog.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// SyncCatalog inserts every catalog key missing from storage and reports how
// many rows it created.
func (s *Service) SyncCatalog(ctx context.Context) (int, error) {
	existing, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return 0, err
	}
	have := make(map[rbac.Key]bool, len(existing))
	for _, p := range existing {
		have[p.Key()] = true
	}
	created := 0
	for _, key := range rbac.CatalogKeys() {
		if have[key] {
			continue
		}
		resource, action, err := rbac.ParseKey(key.String())
		if err != nil {
			return created, err
		}
		if _, err := s.repo.CreatePermission(ctx, Permission{
			Category:    resource,
			Name:        string(action),
			Description: describe(resource, action),
		}); err != nil {
			return created, fmt.Errorf("roles: sync %s: %w", key, err)
		}
		created++
	}
	if created > 0 {
		s.logger.Info("permission catalog synced", slog.Int("created", created))
	}
	return created, nil
}

// SetRolePermissions replaces the grant set of roleID with keys. Every key
// must parse and exist in the stored catalog.
func (s *Service) SetRolePermissions(ctx context.Context, roleID string, keys []string) error {
	catalog, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return err
	}
	byKey := make(map[rbac.Key]string, len(catalog))
	for _, p := range catalog {
		byKey[p.Key()] = p.ID
	}
	ids := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, raw := range keys {
		resource, action, err := rbac.ParseKey(raw)
		if err != nil {
			return err
		}
		id, ok := byKey[rbac.BuildKey(resource, action)]
		if !ok {
			return fmt.Errorf("%w: %q is not in the catalog", rbac.ErrInvalidKey, raw)
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return s.repo.ReplaceRolePermissions(ctx, roleID, ids)
}

// RolePermissionKeys resolves the permission keys granted to roleID, sorted.
func (s *Service) RolePermissionKeys(ctx context.Context, roleID string) ([]string, error) {
	perms, err := s.repo.RolePermissions(ctx, roleID)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(perms))
	for _, p := range perms {
		keys = append(keys, p.Key().String())
	}
	sort.Strings(keys)
	return keys, nil
}

func normalizeName(name string) string {
	return strings.ToUpper(strings.Join(strings.Fields(name), "_"))
}

func describe(resource string, action rbac.Action) string {
	return fmt.Sprintf("%s %s", strings.ReplaceAll(resource, "_", " "), action)
}
