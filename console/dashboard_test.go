package console

import (
	"net/http"
	"testing"

	"github.com/goliatone/go-repair-console/entity"
	"github.com/goliatone/go-repair-console/pkg/testsupport"
)

func TestDashboardController_Mount(t *testing.T) {
	h := newHarness(t, entity.RoleReceptionist)
	dash := NewDashboardController(h.dashboard, h.env)
	defer dash.Close()

	if out := dash.Mount(background); !out.OK {
		t.Fatalf("Mount() failed: %v", out.Err)
	}
	view := dash.View()
	if view.State != ListLoaded || view.Err != nil {
		t.Fatalf("unexpected view %+v", view)
	}
	if view.Stats.Int("customers") != 2 || view.Stats.Int("inventory") != 2 || view.Stats.Int("work-orders") != 1 {
		t.Errorf("unexpected stats %v", view.Stats)
	}
}

func TestDashboardController_RefreshesAfterDelete(t *testing.T) {
	h := newHarness(t, entity.RoleAdmin)
	dash := NewDashboardController(h.dashboard, h.env)
	defer dash.Close()
	dash.Mount(background)

	if err := h.repos[entity.Inventory].Delete(background, 11); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if got := h.backend.CallCount(http.MethodGet, "/dashboard/stats"); got != 2 {
		t.Errorf("expected stats to refetch, got %d GETs", got)
	}
	if got := dash.View().Stats.Int("inventory"); got != 1 {
		t.Errorf("inventory stat = %d, want 1", got)
	}
}

func TestDashboardController_Failure(t *testing.T) {
	h := newHarness(t, entity.RoleAdmin)
	h.backend.Fail(http.MethodGet, "/dashboard/stats", testsupport.Failure{Status: http.StatusBadGateway, Message: "upstream"})

	dash := NewDashboardController(h.dashboard, h.env)
	defer dash.Close()

	out := dash.Mount(background)
	if out.OK || out.Kind != KindAPIGeneral {
		t.Fatalf("expected an API failure, got %+v", out)
	}
	if view := dash.View(); view.State != ListFailed || view.Err == nil {
		t.Errorf("unexpected view %+v", view)
	}
}
