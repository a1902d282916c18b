package rbac

// AvailableActions returns, in enumeration order, the actions granted on
// resource. An empty result means nothing should be rendered.
func AvailableActions(granted []string, resource string) []Action {
	out := make([]Action, 0, len(actionOrder))
	for _, a := range actionOrder {
		if HasPermission(granted, resource, a) {
			out = append(out, a)
		}
	}
	return out
}

// NavItem is one entry of the console navigation.
type NavItem struct {
	Label    string    `json:"label"`
	Path     string    `json:"path"`
	Resource string    `json:"resource"`
	Action   Action    `json:"action,omitempty"`
	Children []NavItem `json:"children,omitempty"`
}

// FilterNav keeps items whose resource is accessible and, when an action is
// named, whose action is granted. A group stays while any child is visible.
func FilterNav(granted []string, items []NavItem) []NavItem {
	accessible := make(map[string]struct{})
	for _, r := range AccessibleResources(granted) {
		accessible[r] = struct{}{}
	}
	return filterNav(granted, accessible, items)
}

func filterNav(granted []string, accessible map[string]struct{}, items []NavItem) []NavItem {
	out := make([]NavItem, 0, len(items))
	for _, item := range items {
		children := filterNav(granted, accessible, item.Children)
		if !navVisible(granted, accessible, item) && len(children) == 0 {
			continue
		}
		item.Children = children
		out = append(out, item)
	}
	return out
}

func navVisible(granted []string, accessible map[string]struct{}, item NavItem) bool {
	if item.Resource == "" {
		return false
	}
	if _, ok := accessible[item.Resource]; !ok {
		return false
	}
	if item.Action != "" {
		return HasPermission(granted, item.Resource, item.Action)
	}
	return true
}

// DefaultNav is the console navigation tree.
func DefaultNav() []NavItem {
	return []NavItem{
		{Label: "Customers", Path: "/customers", Resource: ResourceCustomers, Action: ActionView},
		{Label: "Employees", Path: "/employees", Resource: ResourceEmployees, Action: ActionView},
		{Label: "Products", Path: "/products", Resource: ResourceProducts, Action: ActionView, Children: []NavItem{
			{Label: "Stock", Path: "/products/stock", Resource: ResourceStock, Action: ActionView},
		}},
		{Label: "Reports", Path: "/reports", Children: []NavItem{
			{Label: "Sales", Path: "/reports/sales", Resource: ResourceSales, Action: ActionView},
			{Label: "Interactions", Path: "/reports/interactions", Resource: ResourceInteractions, Action: ActionView},
			{Label: "Marketing", Path: "/reports/marketing", Resource: ResourceReports, Action: ActionView},
		}},
		{Label: "Administration", Path: "/admin", Children: []NavItem{
			{Label: "Users", Path: "/users", Resource: ResourceUsers, Action: ActionView},
			{Label: "Roles", Path: "/roles", Resource: ResourceRoles, Action: ActionView},
			{Label: "Audit log", Path: "/audit", Resource: ResourceAuditLogs, Action: ActionView},
		}},
	}
}
