package console

import (
	"errors"
	"net/http"
	"testing"

	"github.com/goliatone/go-repair-console/entity"
	"github.com/goliatone/go-repair-console/pkg/interfaces"
)

func TestDetailController_Mount(t *testing.T) {
	h := newHarness(t, entity.RoleAdmin)
	detail := NewDetailController(h.repos[entity.Customers], h.env, 1)
	defer detail.Close()

	var states []ListState
	detail.OnChange(func(v DetailView) { states = append(states, v.State) })

	out := detail.Mount(background)
	if !out.OK {
		t.Fatalf("Mount() failed: %v", out.Err)
	}
	if out.Record.ID != 1 || out.Record.String("name") != "Jane Doe" {
		t.Errorf("unexpected record %+v", out.Record)
	}
	view := detail.View()
	if view.State != ListLoaded || view.Record.String("city") != "Lisbon" {
		t.Errorf("unexpected view %+v", view)
	}
	if len(states) == 0 || states[0] != ListLoading || states[len(states)-1] != ListLoaded {
		t.Errorf("unexpected transitions %v", states)
	}
}

func TestDetailController_NotFound(t *testing.T) {
	h := newHarness(t, entity.RoleAdmin)
	detail := NewDetailController(h.repos[entity.Inventory], h.env, 404)
	defer detail.Close()

	out := detail.Mount(background)
	if out.OK || out.Kind != KindAPIGeneral {
		t.Fatalf("expected a general API failure, got %+v", out)
	}
	if view := detail.View(); view.State != ListFailed || view.ErrKind != KindAPIGeneral {
		t.Errorf("unexpected view %+v", view)
	}
	if err := detail.RequestDelete(background); !errors.Is(err, ErrRecordNotLoaded) {
		t.Errorf("expected ErrRecordNotLoaded, got %v", err)
	}
}

func TestDetailController_RowActions(t *testing.T) {
	tests := []struct {
		name  string
		role  string
		group entity.Group
		want  []ActionName
		edit  bool
	}{
		{name: "admin on users", role: entity.RoleAdmin, group: entity.Users, want: []ActionName{ActionView, ActionEdit, ActionDelete}, edit: true},
		{name: "technician on users", role: entity.RoleTechnician, group: entity.Users, want: []ActionName{ActionView, ActionEdit}},
		{name: "receptionist on machines", role: entity.RoleReceptionist, group: entity.Machines, want: []ActionName{ActionView, ActionEdit, ActionDelete}, edit: true},
	}

	ids := map[entity.Group]int64{entity.Users: 30, entity.Machines: 20}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.role)
			detail := NewDetailController(h.repos[tt.group], h.env, ids[tt.group])
			defer detail.Close()
			detail.Mount(background)

			actions := detail.RowActions(background)
			if len(actions) != len(tt.want) {
				t.Fatalf("got %+v, want %v", actions, tt.want)
			}
			for i, name := range tt.want {
				if actions[i].Name != name {
					t.Errorf("action %d = %s, want %s", i, actions[i].Name, name)
				}
			}
			if actions[1].Enabled != tt.edit {
				t.Errorf("edit enabled = %v, want %v", actions[1].Enabled, tt.edit)
			}
		})
	}
}

func TestDetailController_DeleteNavigatesToList(t *testing.T) {
	h := newHarness(t, entity.RoleManager)
	list := h.list(t, entity.Customers)
	list.Mount(background)

	detail := NewDetailController(h.repos[entity.Customers], h.env, 2)
	defer detail.Close()
	detail.Mount(background)

	if err := detail.RequestDelete(background); err != nil {
		t.Fatalf("RequestDelete() error: %v", err)
	}
	if view := detail.View(); view.ConfirmDelete == nil || view.ConfirmDelete.ID != 2 {
		t.Fatalf("expected a confirmation for record 2, got %+v", view.ConfirmDelete)
	}

	out := detail.ConfirmDelete(background)
	if !out.OK {
		t.Fatalf("ConfirmDelete() failed: %v", out.Err)
	}
	if got := h.backend.CallCount(http.MethodDelete, "/customers/2"); got != 1 {
		t.Errorf("expected one DELETE, got %d", got)
	}
	if h.navigator.Last() != "/customers" {
		t.Errorf("expected navigation to the list, got %v", h.navigator.Routes())
	}
	if h.notifier.Count(interfaces.NotificationSuccess) != 1 {
		t.Errorf("expected a success toast, got %v", h.notifier.Notifications())
	}
	if records := list.View().Records; len(records) != 1 || records[0].ID != 1 {
		t.Errorf("list should have refreshed without the deleted record, got %v", records)
	}
	if out := detail.ConfirmDelete(background); !errors.Is(out.Err, ErrClosed) {
		t.Errorf("detail should be closed after the delete, got %+v", out)
	}
}

func TestDetailController_DeleteDenied(t *testing.T) {
	h := newHarness(t, entity.RoleReceptionist)
	detail := NewDetailController(h.repos[entity.Inventory], h.env, 10)
	defer detail.Close()
	detail.Mount(background)

	if err := detail.RequestDelete(background); !errors.Is(err, ErrNotPermitted) {
		t.Fatalf("expected ErrNotPermitted, got %v", err)
	}
	if out := detail.ConfirmDelete(background); !errors.Is(out.Err, ErrNoDeleteRequested) {
		t.Errorf("expected ErrNoDeleteRequested, got %+v", out)
	}
	if got := h.backend.CountMethod(http.MethodDelete); got != 0 {
		t.Errorf("expected no DELETE, got %d", got)
	}
}

func TestDetailController_CancelDelete(t *testing.T) {
	h := newHarness(t, entity.RoleAdmin)
	detail := NewDetailController(h.repos[entity.WorkOrders], h.env, 40)
	defer detail.Close()
	detail.Mount(background)

	if err := detail.RequestDelete(background); err != nil {
		t.Fatalf("RequestDelete() error: %v", err)
	}
	detail.CancelDelete()
	if view := detail.View(); view.ConfirmDelete != nil {
		t.Errorf("confirmation should be closed, got %+v", view.ConfirmDelete)
	}
	if got := len(h.backend.Calls()); got != 1 {
		t.Errorf("expected only the detail GET, got %d calls", got)
	}
}
