package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var salesStaff = []string{"customers:view", "customers:create", "customers:edit"}

func TestHasPermissionIsFlat(t *testing.T) {
	catalog := CatalogKeys()
	for _, granted := range catalog {
		g := []string{granted.String()}
		for _, probe := range catalog {
			resource, action, err := ParseKey(probe.String())
			require.NoError(t, err)
			assert.Equal(t, probe == granted, HasPermission(g, resource, action), "%s granted, probing %s", granted, probe)
		}
	}
	assert.False(t, HasPermission([]string{"customers:edit"}, ResourceCustomers, ActionView), "edit does not imply view")
}

func TestHasPermissionWithoutGrants(t *testing.T) {
	for _, key := range CatalogKeys() {
		resource, action, err := ParseKey(key.String())
		require.NoError(t, err)
		assert.False(t, HasPermission(nil, resource, action))
		assert.False(t, HasPermission([]string{}, resource, action))
	}
}

func TestHasPermissionIgnoresEmptyParts(t *testing.T) {
	granted := []string{":view", "customers:"}
	assert.False(t, HasPermission(granted, "", ActionView))
	assert.False(t, HasPermission(granted, ResourceCustomers, ""))
}

func TestSalesStaffPresentation(t *testing.T) {
	assert.Equal(t, []Action{ActionView, ActionCreate, ActionEdit}, AvailableActions(salesStaff, ResourceCustomers))
	assert.False(t, HasPermission(salesStaff, ResourceCustomers, ActionDelete))
	assert.Empty(t, AvailableActions(salesStaff, ResourceProducts))
	assert.Equal(t, []string{ResourceCustomers}, AccessibleResources(salesStaff))
}

func TestAvailableActionsFollowsEnumerationOrder(t *testing.T) {
	granted := []string{"products:reject", "products:view", "products:approve", "products:delete"}
	assert.Equal(t, []Action{ActionView, ActionDelete, ActionApprove, ActionReject}, AvailableActions(granted, ResourceProducts))
}

func TestAccessibleResourcesSkipsMalformedKeys(t *testing.T) {
	granted := []string{"stock:view", "broken", "sales:publish", "customers:view", "stock:edit", ":view"}
	assert.Equal(t, []string{ResourceCustomers, ResourceStock}, AccessibleResources(granted))
	assert.Empty(t, AccessibleResources(nil))
}

func TestParseKey(t *testing.T) {
	resource, action, err := ParseKey(" Audit_logs:VIEW ")
	require.NoError(t, err)
	assert.Equal(t, "Audit_logs", resource)
	assert.Equal(t, ActionView, action)

	for _, raw := range []string{"", "customers", "customers:", ":view", "customers:publish"} {
		_, _, err := ParseKey(raw)
		assert.ErrorIs(t, err, ErrInvalidKey, raw)
	}
	assert.Equal(t, Key("customers:approve"), BuildKey("customers", "APPROVE"))
}

func TestGrantsSet(t *testing.T) {
	g := NewGrants(append(salesStaff, "customers:view", "sales:view"))
	assert.True(t, g.Has(ResourceCustomers, ActionEdit))
	assert.False(t, g.Has(ResourceSales, ActionEdit))
	assert.True(t, g.HasKey("sales:view"))
	assert.Equal(t, []string{"customers:view", "customers:create", "customers:edit", "sales:view"}, g.Keys())
	assert.Equal(t, []string{ResourceCustomers, ResourceSales}, g.Resources())
	assert.Equal(t, []Action{ActionView}, g.Actions(ResourceSales))
}

func TestCatalogKeysCoverEveryPair(t *testing.T) {
	keys := CatalogKeys()
	assert.Len(t, keys, len(Resources())*len(Actions()))
	assert.Contains(t, keys, Key("audit_logs:view"))
	assert.Contains(t, keys, Key("customers:reject"))
}

func TestFilterNav(t *testing.T) {
	granted := []string{"customers:view", "sales:view", "stock:view"}
	nav := FilterNav(granted, DefaultNav())

	labels := make([]string, 0, len(nav))
	for _, item := range nav {
		labels = append(labels, item.Label)
	}
	assert.Equal(t, []string{"Customers", "Products", "Reports"}, labels)

	products := nav[1]
	require.Len(t, products.Children, 1)
	assert.Equal(t, "Stock", products.Children[0].Label)

	reports := nav[2]
	require.Len(t, reports.Children, 1)
	assert.Equal(t, "/reports/sales", reports.Children[0].Path)

	assert.Empty(t, FilterNav(nil, DefaultNav()))
}

func TestFilterNavRequiresNamedAction(t *testing.T) {
	items := []NavItem{{Label: "New customer", Path: "/customers/new", Resource: ResourceCustomers, Action: ActionCreate}}
	assert.Empty(t, FilterNav([]string{"customers:view"}, items))
	assert.Len(t, FilterNav([]string{"customers:create"}, items), 1)
}
