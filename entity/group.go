package entity

// Group names a cache and route group. Entity groups own a list/detail
// surface; the dashboard group holds the aggregate stats.
type Group string

const (
	Customers  Group = "customers"
	Inventory  Group = "inventory"
	Machines   Group = "machines"
	Users      Group = "users"
	WorkOrders Group = "work-orders"
	Dashboard  Group = "dashboard"
)

// EntityGroups lists every entity group in display order.
func EntityGroups() []Group {
	return []Group{Customers, Inventory, Machines, Users, WorkOrders}
}

func (g Group) String() string { return string(g) }
