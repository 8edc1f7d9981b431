package entity

import (
	"sort"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

// Registry holds the descriptors of every entity group.
type Registry struct {
	mu          sync.RWMutex
	descriptors map[Group]Descriptor
}

// NewRegistry builds a registry from descriptors. Later duplicates win.
func NewRegistry(descriptors ...Descriptor) *Registry {
	r := &Registry{descriptors: make(map[Group]Descriptor, len(descriptors))}
	for _, d := range descriptors {
		r.Register(d)
	}
	return r
}

// Register adds or replaces a descriptor.
func (r *Registry) Register(d Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.descriptors[d.Group] = d
}

// Get returns the descriptor for group.
func (r *Registry) Get(group Group) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.descriptors[group]
	return d, ok
}

// Lookup returns the descriptor for group or a not found error.
func (r *Registry) Lookup(group Group) (Descriptor, error) {
	if d, ok := r.Get(group); ok {
		return d, nil
	}
	return Descriptor{}, goerrors.New("entity: unknown group "+string(group), goerrors.CategoryNotFound).
		WithTextCode("ENTITY_UNKNOWN_GROUP")
}

// Groups lists registered groups in EntityGroups order, then any extras
// sorted by name.
func (r *Registry) Groups() []Group {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Group, 0, len(r.descriptors))
	seen := make(map[Group]bool, len(r.descriptors))
	for _, g := range EntityGroups() {
		if _, ok := r.descriptors[g]; ok {
			out = append(out, g)
			seen[g] = true
		}
	}
	var extra []Group
	for g := range r.descriptors {
		if !seen[g] {
			extra = append(extra, g)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}

// DefaultRegistry returns the repair-shop descriptors.
func DefaultRegistry() *Registry {
	return NewRegistry(
		CustomerDescriptor(),
		InventoryDescriptor(),
		MachineDescriptor(),
		UserDescriptor(),
		WorkOrderDescriptor(),
	)
}

// staff may edit and delete customers and inventory.
var staff = []string{RoleAdmin, RoleManager, RoleTechnician}

func CustomerDescriptor() Descriptor {
	return Descriptor{
		Group: Customers,
		Title: "customers.title",
		Fields: []Field{
			{Name: "name", Label: "customers.fields.name", Kind: KindText, Required: true},
			{Name: "email", Label: "customers.fields.email", Kind: KindEmail, Required: true},
			{Name: "phone", Label: "customers.fields.phone", Kind: KindText},
			{Name: "address", Label: "customers.fields.address", Kind: KindText},
			{Name: "city", Label: "customers.fields.city", Kind: KindText},
			{Name: "postal_code", Label: "customers.fields.postal_code", Kind: KindText},
			{Name: "company", Label: "customers.fields.company", Kind: KindText},
			{Name: "notes", Label: "customers.fields.notes", Kind: KindTextArea},
		},
		Steps: [][]string{
			{"name", "email", "phone"},
			{"address", "city", "postal_code", "company", "notes"},
		},
		Columns: []string{"name", "email", "phone", "company"},
		Permissions: Permissions{
			View:   Allow(),
			Edit:   RolesIn(staff...),
			Delete: RolesIn(staff...),
		},
	}
}

func InventoryDescriptor() Descriptor {
	return Descriptor{
		Group: Inventory,
		Title: "inventory.title",
		Fields: []Field{
			{Name: "name", Label: "inventory.fields.name", Kind: KindText, Required: true},
			{Name: "sku", Label: "inventory.fields.sku", Kind: KindText, Required: true},
			{Name: "category", Label: "inventory.fields.category", Kind: KindSelect, Required: true,
				Options: []string{"parts", "tools", "consumables", "accessories"}},
			{Name: "quantity", Label: "inventory.fields.quantity", Kind: KindNumber},
			{Name: "min_stock", Label: "inventory.fields.min_stock", Kind: KindNumber},
			{Name: "unit_price", Label: "inventory.fields.unit_price", Kind: KindNumber},
			{Name: "supplier", Label: "inventory.fields.supplier", Kind: KindText},
			{Name: "location", Label: "inventory.fields.location", Kind: KindText},
			{Name: "description", Label: "inventory.fields.description", Kind: KindTextArea},
		},
		Steps: [][]string{
			{"name", "sku", "category"},
			{"quantity", "min_stock", "unit_price"},
			{"supplier", "location", "description"},
		},
		Filters: []Filter{
			{Name: "category", Label: "inventory.filters.category", Options: []string{"parts", "tools", "consumables", "accessories"}},
		},
		Columns: []string{"name", "sku", "category", "quantity"},
		Permissions: Permissions{
			View:   Allow(),
			Edit:   RolesIn(staff...),
			Delete: RolesIn(staff...),
		},
	}
}

// MachineDescriptor lets everyone edit and delete machine models. This is
// looser than the other entities and kept as the backend product rule.
func MachineDescriptor() Descriptor {
	return Descriptor{
		Group:    Machines,
		Title:    "machines.title",
		ListPath: "/machines/models",
		Fields: []Field{
			{Name: "name", Label: "machines.fields.name", Kind: KindText, Required: true},
			{Name: "manufacturer", Label: "machines.fields.manufacturer", Kind: KindText, Required: true},
			{Name: "category_id", Label: "machines.fields.category", Kind: KindSelect, Required: true},
			{Name: "model_number", Label: "machines.fields.model_number", Kind: KindText},
			{Name: "year", Label: "machines.fields.year", Kind: KindNumber},
			{Name: "description", Label: "machines.fields.description", Kind: KindTextArea},
		},
		Filters: []Filter{
			{Name: "category_id", Label: "machines.filters.category"},
		},
		Columns:   []string{"name", "manufacturer", "model_number"},
		Reference: &Reference{Path: "/machines/categories", Field: "category_id"},
		Permissions: Permissions{
			View:   Allow(),
			Edit:   Allow(),
			Delete: Allow(),
		},
	}
}

func UserDescriptor() Descriptor {
	return Descriptor{
		Group: Users,
		Title: "users.title",
		Fields: []Field{
			{Name: "name", Label: "users.fields.name", Kind: KindText, Required: true},
			{Name: "email", Label: "users.fields.email", Kind: KindEmail, Required: true},
			{Name: "phone", Label: "users.fields.phone", Kind: KindText},
			{Name: "role", Label: "users.fields.role", Kind: KindSelect, Required: true, Default: RoleTechnician,
				Options: []string{RoleAdmin, RoleManager, RoleTechnician, RoleReceptionist}},
			{Name: "password", Label: "users.fields.password", Kind: KindPassword, Required: true, MinLength: 6,
				OmitEmptyOnEdit: true},
		},
		Steps: [][]string{
			{"name", "email", "phone"},
			{"role", "password"},
		},
		Filters: []Filter{
			{Name: "role", Label: "users.filters.role", Options: []string{RoleAdmin, RoleManager, RoleTechnician, RoleReceptionist}},
		},
		Columns: []string{"name", "email", "role"},
		Permissions: Permissions{
			View:   Allow(),
			Edit:   RolesIn(RoleAdmin),
			Delete: RolesIn(RoleAdmin),
		},
	}
}

// WorkOrderDescriptor covers repair tickets. The console lists and searches
// them; forms follow the same generic flow.
func WorkOrderDescriptor() Descriptor {
	return Descriptor{
		Group: WorkOrders,
		Title: "work_orders.title",
		Fields: []Field{
			{Name: "title", Label: "work_orders.fields.title", Kind: KindText, Required: true},
			{Name: "customer_id", Label: "work_orders.fields.customer", Kind: KindNumber, Required: true},
			{Name: "machine_id", Label: "work_orders.fields.machine", Kind: KindNumber},
			{Name: "status", Label: "work_orders.fields.status", Kind: KindSelect, Default: "open",
				Options: []string{"open", "in_progress", "waiting_parts", "done"}},
			{Name: "description", Label: "work_orders.fields.description", Kind: KindTextArea},
		},
		Filters: []Filter{
			{Name: "status", Label: "work_orders.filters.status", Options: []string{"open", "in_progress", "waiting_parts", "done"}},
		},
		Columns: []string{"title", "status", "customer_id"},
		Permissions: Permissions{
			View:   Allow(),
			Edit:   RolesIn(staff...),
			Delete: RolesIn(RoleAdmin, RoleManager),
		},
	}
}
