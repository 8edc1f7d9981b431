package entity

import (
	"encoding/json"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-repair-console/pkg/interfaces"
)

func TestRecord_UnmarshalJSON(t *testing.T) {
	var rec Record
	payload := `{"id":42,"name":"Jane","quantity":3,"unit_price":4.5,"created_at":"2024-05-01T10:00:00Z","tags":["a"]}`
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}

	if rec.ID != 42 {
		t.Errorf("expected id 42, got %d", rec.ID)
	}
	if _, ok := rec.Fields["id"]; ok {
		t.Error("id must be lifted out of Fields")
	}
	if rec.Fields["quantity"] != int64(3) {
		t.Errorf("expected int64 quantity, got %T %v", rec.Fields["quantity"], rec.Fields["quantity"])
	}
	if rec.Fields["unit_price"] != 4.5 {
		t.Errorf("expected float unit price, got %v", rec.Fields["unit_price"])
	}
	want := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	if !rec.CreatedAt.Equal(want) {
		t.Errorf("expected created_at %v, got %v", want, rec.CreatedAt)
	}
	if rec.String("name") != "Jane" || rec.String("id") != "42" || rec.String("missing") != "" {
		t.Errorf("unexpected display values")
	}

	out, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	var flat map[string]any
	_ = json.Unmarshal(out, &flat)
	if flat["id"] != float64(42) || flat["name"] != "Jane" {
		t.Errorf("unexpected flattened record %v", flat)
	}
}

func TestQueryParams_NormalizeAndValues(t *testing.T) {
	q := QueryParams{Search: "  belt ", Filters: map[string]string{"category": "parts", "status": " "}}.Normalize(25)

	if q.Page != 1 || q.Limit != 25 {
		t.Errorf("unexpected paging %+v", q)
	}
	if q.Search != "belt" {
		t.Errorf("expected trimmed search, got %q", q.Search)
	}
	if len(q.Filters) != 1 {
		t.Errorf("expected empty filters dropped, got %v", q.Filters)
	}

	values := q.Values()
	if got := values.Encode(); got != "category=parts&limit=25&page=1&search=belt" {
		t.Errorf("unexpected encoding %q", got)
	}

	plain := QueryParams{Page: 2, Limit: 10}.Values()
	if plain.Has("search") {
		t.Error("empty search must be omitted")
	}
}

func TestQueryParams_WithFilterDoesNotAlias(t *testing.T) {
	base := QueryParams{Filters: map[string]string{"role": "admin"}}
	next := base.WithFilter("role", "")
	if base.Filters["role"] != "admin" {
		t.Error("WithFilter mutated the receiver")
	}
	if _, ok := next.Filters["role"]; ok {
		t.Error("expected filter removed")
	}
}

func TestDescriptor_Routes(t *testing.T) {
	tests := []struct {
		descriptor Descriptor
		list       string
		create     string
		collection string
	}{
		{CustomerDescriptor(), "/customers", "/create-customer", "/customers"},
		{InventoryDescriptor(), "/inventory", "/create-inventory", "/inventory"},
		{MachineDescriptor(), "/machines", "/create-machine", "/machines/models"},
		{UserDescriptor(), "/users", "/create-user", "/users"},
		{WorkOrderDescriptor(), "/work-orders", "/create-work-order", "/work-orders"},
	}

	for _, tt := range tests {
		d := tt.descriptor
		t.Run(string(d.Group), func(t *testing.T) {
			if d.ListRoute() != tt.list {
				t.Errorf("ListRoute() = %q, want %q", d.ListRoute(), tt.list)
			}
			if d.CreateRoute() != tt.create {
				t.Errorf("CreateRoute() = %q, want %q", d.CreateRoute(), tt.create)
			}
			if d.CollectionPath() != tt.collection {
				t.Errorf("CollectionPath() = %q, want %q", d.CollectionPath(), tt.collection)
			}
			if d.EditRoute(7) != tt.list+"/7/edit" {
				t.Errorf("unexpected edit route %q", d.EditRoute(7))
			}
			if d.ItemPath(7) != tt.collection+"/7" {
				t.Errorf("unexpected item path %q", d.ItemPath(7))
			}
		})
	}
}

func TestDescriptor_Steps(t *testing.T) {
	tests := map[Group]int{Customers: 2, Inventory: 3, Machines: 1, Users: 2}
	reg := DefaultRegistry()
	for group, steps := range tests {
		d, _ := reg.Get(group)
		if d.StepCount() != steps {
			t.Errorf("%s: expected %d steps, got %d", group, steps, d.StepCount())
		}
		total := 0
		for i := 0; i < d.StepCount(); i++ {
			total += len(d.StepFields(i))
		}
		if total != len(d.Fields) {
			t.Errorf("%s: steps cover %d of %d fields", group, total, len(d.Fields))
		}
	}
}

func TestPermissions_PerEntityRules(t *testing.T) {
	reg := DefaultRegistry()
	row := Record{ID: 1}

	tests := []struct {
		group     Group
		role      string
		canEdit   bool
		canDelete bool
	}{
		{Customers, RoleTechnician, true, true},
		{Customers, RoleReceptionist, false, false},
		{Inventory, RoleManager, true, true},
		{Users, RoleManager, false, false},
		{Users, RoleAdmin, true, true},
		{Machines, RoleReceptionist, true, true},
		{Machines, "", true, true},
	}

	for _, tt := range tests {
		d, _ := reg.Get(tt.group)
		principal := interfaces.Principal{ID: 1, Role: tt.role}
		if got := d.Permissions.CanEdit(principal, row); got != tt.canEdit {
			t.Errorf("%s/%s edit = %v, want %v", tt.group, tt.role, got, tt.canEdit)
		}
		if got := d.Permissions.CanDelete(principal, row); got != tt.canDelete {
			t.Errorf("%s/%s delete = %v, want %v", tt.group, tt.role, got, tt.canDelete)
		}
	}

	if (Permissions{}).CanView(interfaces.Principal{Role: RoleAdmin}, row) {
		t.Error("nil predicate must deny")
	}
}

func TestValidate(t *testing.T) {
	users := UserDescriptor()

	errs := users.ValidateAll(map[string]any{
		"name": "Ann", "email": "ann@x.com", "role": "admin", "password": "abc",
	}, ModeCreate)
	if len(errs) != 1 || errs["password"] != MsgPasswordTooShort {
		t.Errorf("expected password too short only, got %v", errs)
	}

	errs = users.ValidateAll(map[string]any{
		"name": "  ", "email": "ann@x.com", "role": "admin", "password": "",
	}, ModeCreate)
	if errs["name"] != MsgRequired || errs["password"] != MsgRequired {
		t.Errorf("expected required errors, got %v", errs)
	}

	errs = users.ValidateAll(map[string]any{
		"name": "Ann", "email": "ann@x.com", "role": "admin", "password": "",
	}, ModeEdit)
	if errs != nil {
		t.Errorf("empty password is allowed on edit, got %v", errs)
	}

	errs = users.ValidateAll(map[string]any{
		"name": " Ann ", "email": "ann@x.com", "role": "admin", "password": "  abcd  ",
	}, ModeCreate)
	if errs != nil {
		t.Errorf("password length counts surrounding spaces, got %v", errs)
	}

	inventory := InventoryDescriptor()
	errs = inventory.ValidateStep(1, map[string]any{"quantity": "ten"}, ModeCreate)
	if errs["quantity"] != MsgNumber {
		t.Errorf("expected number error, got %v", errs)
	}
}

func TestBuildBody(t *testing.T) {
	customers := CustomerDescriptor()
	body := customers.BuildBody(map[string]any{
		"name": "Jane Doe", "email": "jane@x.com", "phone": "555-1234",
	}, ModeCreate)

	want := map[string]any{
		"name": "Jane Doe", "email": "jane@x.com", "phone": "555-1234",
		"address": "", "city": "", "postal_code": "", "company": "", "notes": "",
	}
	if len(body) != len(want) {
		t.Fatalf("expected %d fields, got %v", len(want), body)
	}
	for k, v := range want {
		if body[k] != v {
			t.Errorf("body[%q] = %v, want %v", k, body[k], v)
		}
	}

	inventory := InventoryDescriptor().BuildBody(map[string]any{"quantity": "12", "unit_price": "2.5"}, ModeCreate)
	if inventory["quantity"] != int64(12) || inventory["unit_price"] != 2.5 || inventory["min_stock"] != 0 {
		t.Errorf("unexpected numeric coercion %v", inventory)
	}

	users := UserDescriptor()
	edit := users.BuildBody(map[string]any{"name": "Ann", "password": ""}, ModeEdit)
	if _, ok := edit["password"]; ok {
		t.Error("empty password must be omitted on edit")
	}
	if edit["role"] != RoleTechnician {
		t.Errorf("expected default role, got %v", edit["role"])
	}

	create := users.BuildBody(map[string]any{"name": "  Ann  ", "password": "  secret  "}, ModeCreate)
	if create["password"] != "  secret  " {
		t.Errorf("password must be sent as typed, got %q", create["password"])
	}
	if create["name"] != "Ann" {
		t.Errorf("text fields are trimmed, got %q", create["name"])
	}
}

func TestFormValues(t *testing.T) {
	rec := Record{ID: 3, Fields: map[string]any{"name": "Ann", "role": "admin", "password": "hash"}}
	values := UserDescriptor().FormValues(rec)
	if values["name"] != "Ann" || values["password"] != "" || values["phone"] != "" {
		t.Errorf("unexpected form values %v", values)
	}
}

func TestRegistry(t *testing.T) {
	reg := DefaultRegistry()
	groups := reg.Groups()
	if len(groups) != len(EntityGroups()) {
		t.Fatalf("expected %d groups, got %v", len(EntityGroups()), groups)
	}
	for i, g := range EntityGroups() {
		if groups[i] != g {
			t.Errorf("group %d = %s, want %s", i, groups[i], g)
		}
	}

	if _, err := reg.Lookup(Dashboard); !goerrors.IsCategory(err, goerrors.CategoryNotFound) {
		t.Errorf("expected not found for dashboard descriptor, got %v", err)
	}
}

func TestStats_Int(t *testing.T) {
	stats := Stats{"customers": float64(12), "open_orders": int64(3), "label": "x"}
	if stats.Int("customers") != 12 || stats.Int("open_orders") != 3 || stats.Int("label") != 0 {
		t.Errorf("unexpected stats values")
	}
}
