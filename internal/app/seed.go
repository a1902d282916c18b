package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/agrocrm/backoffice/internal/rbac"
	"github.com/agrocrm/backoffice/internal/roles"
	"github.com/agrocrm/backoffice/internal/store"
	"github.com/agrocrm/backoffice/internal/users"
)

// Default role names created by Seed.
const (
	RoleAdmin      = "ADMIN"
	RoleSalesStaff = "SALES_STAFF"
)

// SeedParams configures Seed. An empty AdminEmail skips the admin account.
type SeedParams struct {
	Store         store.Store
	Logger        *slog.Logger
	AdminEmail    string
	AdminName     string
	AdminPassword string
}

// SeedResult reports what Seed touched.
type SeedResult struct {
	PermissionsCreated int
	Roles              map[string]string
	AdminID            string
}

// DefaultRoleGrants lists the grant set of every default role.
func DefaultRoleGrants() map[string][]string {
	all := rbac.CatalogKeys()
	admin := make([]string, len(all))
	for i, k := range all {
		admin[i] = k.String()
	}
	return map[string][]string{
		RoleAdmin: admin,
		RoleSalesStaff: {
			rbac.BuildKey(rbac.ResourceCustomers, rbac.ActionView).String(),
			rbac.BuildKey(rbac.ResourceCustomers, rbac.ActionCreate).String(),
			rbac.BuildKey(rbac.ResourceCustomers, rbac.ActionEdit).String(),
		},
	}
}

// Seed completes the permission catalog, ensures the default roles with their
// grants and creates the admin account when missing. It is idempotent.
func Seed(ctx context.Context, p SeedParams) (SeedResult, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rolesService := roles.NewService(roles.NewRepository(p.Store), logger)
	usersService := users.NewService(users.NewRepository(p.Store), rolesService, logger)

	created, err := rolesService.SyncCatalog(ctx)
	if err != nil {
		return SeedResult{}, fmt.Errorf("seed: sync catalog: %w", err)
	}
	result := SeedResult{PermissionsCreated: created, Roles: map[string]string{}}

	grants := DefaultRoleGrants()
	names := []string{RoleAdmin, RoleSalesStaff}
	ids := make([]string, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			role, err := rolesService.EnsureRole(gctx, name, "Default role "+name)
			if err != nil {
				return fmt.Errorf("seed: role %s: %w", name, err)
			}
			if err := rolesService.SetRolePermissions(gctx, role.ID, grants[name]); err != nil {
				return fmt.Errorf("seed: grants %s: %w", name, err)
			}
			ids[i] = role.ID
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return SeedResult{}, err
	}
	for i, name := range names {
		result.Roles[name] = ids[i]
	}

	if p.AdminEmail == "" {
		return result, nil
	}
	existing, err := usersService.FindByEmail(ctx, p.AdminEmail)
	if err != nil {
		return SeedResult{}, fmt.Errorf("seed: find admin: %w", err)
	}
	if existing != nil {
		result.AdminID = existing.ID
		return result, nil
	}
	if p.AdminPassword == "" {
		return SeedResult{}, errors.New("seed: admin password required")
	}
	name := p.AdminName
	if name == "" {
		name = "Administrator"
	}
	adminRole := result.Roles[RoleAdmin]
	admin, err := usersService.CreateUser(ctx, users.CreateInput{
		Email:    p.AdminEmail,
		Name:     name,
		Password: p.AdminPassword,
		RoleID:   &adminRole,
	})
	if err != nil {
		return SeedResult{}, fmt.Errorf("seed: create admin: %w", err)
	}
	result.AdminID = admin.ID
	logger.Info("seed complete", slog.Int("permissions_created", created), slog.String("admin_id", admin.ID))
	return result, nil
}
