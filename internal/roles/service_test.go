package roles_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrocrm/backoffice/internal/audit"
	"github.com/agrocrm/backoffice/internal/rbac"
	"github.com/agrocrm/backoffice/internal/roles"
	"github.com/agrocrm/backoffice/internal/store"
	"github.com/agrocrm/backoffice/internal/testing/storetest"
)

func newService(t *testing.T) (*roles.Service, *storetest.Stack) {
	t.Helper()
	stack := storetest.New(t)
	svc := roles.NewService(roles.NewRepository(stack.Store), nil)
	_, err := svc.SyncCatalog(context.Background())
	require.NoError(t, err)
	return svc, stack
}

func TestSyncCatalogIsIdempotent(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	perms, err := svc.ListPermissions(ctx)
	require.NoError(t, err)
	assert.Len(t, perms, len(rbac.CatalogKeys()))

	created, err := svc.SyncCatalog(ctx)
	require.NoError(t, err)
	assert.Zero(t, created)
}

func TestSalesStaffRoleGrants(t *testing.T) {
	svc, stack := newService(t)
	ctx := context.Background()

	role, err := svc.CreateRole(ctx, roles.RoleInput{Name: "sales staff", Description: "Field sales"})
	require.NoError(t, err)
	assert.Equal(t, "SALES_STAFF", role.Name)

	require.NoError(t, svc.SetRolePermissions(ctx, role.ID, []string{"customers:view", "customers:create", "customers:edit", "customers:view"}))

	keys, err := svc.RolePermissionKeys(ctx, role.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"customers:create", "customers:edit", "customers:view"}, keys)
	assert.Equal(t, []rbac.Action{rbac.ActionView, rbac.ActionCreate, rbac.ActionEdit}, rbac.AvailableActions(keys, rbac.ResourceCustomers))
	assert.False(t, rbac.HasPermission(keys, rbac.ResourceCustomers, rbac.ActionDelete))

	links := stack.EntriesFor(store.ModelRolePermission)
	assert.Len(t, links, 3, "one create entry per link")
}

func TestSetRolePermissionsReplacesSet(t *testing.T) {
	svc, stack := newService(t)
	ctx := context.Background()
	role, err := svc.CreateRole(ctx, roles.RoleInput{Name: "WAREHOUSE"})
	require.NoError(t, err)
	require.NoError(t, svc.SetRolePermissions(ctx, role.ID, []string{"stock:view", "stock:edit"}))

	require.NoError(t, svc.SetRolePermissions(ctx, role.ID, []string{"stock:view", "products:view"}))

	got, err := svc.GetRole(ctx, role.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"products:view", "stock:view"}, got.Permissions)

	n, err := stack.Base.Count(ctx, store.ModelRolePermission, store.Filter{"role_id": role.ID, store.DeletedAtColumn: store.NotNull})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n, "removed link is soft-deleted")

	var deletes int
	for _, e := range stack.EntriesFor(store.ModelRolePermission) {
		if e.Action == audit.ActionDelete {
			deletes++
		}
	}
	assert.Equal(t, 1, deletes)
}

func TestSetRolePermissionsRejectsUnknownKeys(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	role, err := svc.CreateRole(ctx, roles.RoleInput{Name: "AUDITOR"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.SetRolePermissions(ctx, role.ID, []string{"audit_logs:publish"}), rbac.ErrInvalidKey)
	assert.ErrorIs(t, svc.SetRolePermissions(ctx, role.ID, []string{"invoices:view"}), rbac.ErrInvalidKey)
	assert.ErrorIs(t, svc.SetRolePermissions(ctx, "missing", []string{"audit_logs:view"}), store.ErrNotFound)
}

func TestDeleteRole(t *testing.T) {
	svc, stack := newService(t)
	ctx := context.Background()

	system, err := svc.EnsureRole(ctx, "admin", "Administrator")
	require.NoError(t, err)
	again, err := svc.EnsureRole(ctx, "ADMIN", "")
	require.NoError(t, err)
	assert.Equal(t, system.ID, again.ID)
	assert.ErrorIs(t, svc.DeleteRole(ctx, system.ID), roles.ErrSystemRole)

	custom, err := svc.CreateRole(ctx, roles.RoleInput{Name: "TEMP"})
	require.NoError(t, err)
	require.NoError(t, svc.SetRolePermissions(ctx, custom.ID, []string{"sales:view"}))
	require.NoError(t, svc.DeleteRole(ctx, custom.ID))

	_, err = svc.GetRole(ctx, custom.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	keys, err := svc.RolePermissionKeys(ctx, custom.ID)
	require.NoError(t, err)
	assert.Empty(t, keys)

	row, err := stack.Base.FindOne(ctx, store.ModelRoleDefinition, store.Filter{"id": custom.ID})
	require.NoError(t, err)
	assert.NotNil(t, row[store.DeletedAtColumn])

	listed, err := svc.ListRoles(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "ADMIN", listed[0].Name)
}

func TestUpdateRole(t *testing.T) {
	svc, stack := newService(t)
	ctx := context.Background()
	role, err := svc.CreateRole(ctx, roles.RoleInput{Name: "AGRONOMIST"})
	require.NoError(t, err)

	desc := "Field agronomist"
	updated, err := svc.UpdateRole(ctx, role.ID, roles.RolePatch{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, desc, updated.Description)

	entries := stack.EntriesFor(store.ModelRoleDefinition)
	require.Len(t, entries, 2)
	assert.Equal(t, audit.ActionUpdate, entries[1].Action)
	assert.Equal(t, role.ID, *entries[1].RecordID)
}
