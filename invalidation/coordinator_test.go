package invalidation

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-repair-console/cache"
	"github.com/goliatone/go-repair-console/entity"
	"github.com/goliatone/go-repair-console/querycache"
)

// recordingInvalidator applies each predicate to a fixed key set.
type recordingInvalidator struct {
	keys  []querycache.Key
	calls [][]querycache.Key
	err   error
}

func (r *recordingInvalidator) Invalidate(ctx context.Context, predicate func(querycache.Key) bool) error {
	var matched []querycache.Key
	for _, key := range r.keys {
		if predicate(key) {
			matched = append(matched, key)
		}
	}
	r.calls = append(r.calls, matched)
	return r.err
}

func allKeys() []querycache.Key {
	var keys []querycache.Key
	for _, group := range entity.EntityGroups() {
		keys = append(keys,
			querycache.Key{Group: group.String(), Scope: querycache.ScopeList, Params: map[string]int{"page": 1}},
			querycache.Key{Group: group.String(), Scope: querycache.ScopeDetail, Params: int64(1)},
		)
	}
	keys = append(keys,
		querycache.Key{Group: entity.Machines.String(), Scope: querycache.ScopeReference},
		querycache.Key{Group: entity.Dashboard.String(), Scope: querycache.ScopeStats},
	)
	return keys
}

func TestDefaultKeys_IsTotal(t *testing.T) {
	coordinator := NewCoordinator(&recordingInvalidator{})

	for _, group := range entity.EntityGroups() {
		keys, ok := coordinator.KeysFor(group)
		if !ok {
			t.Errorf("group %q has no mapping", group)
			continue
		}
		if keys.Group != group || keys.ListScope != querycache.ScopeList || keys.DetailScope != querycache.ScopeDetail {
			t.Errorf("unexpected mapping for %q: %+v", group, keys)
		}
	}
	if got := len(coordinator.Groups()); got != len(entity.EntityGroups()) {
		t.Errorf("expected %d mapped groups, got %d", len(entity.EntityGroups()), got)
	}
	if _, ok := coordinator.KeysFor(entity.Dashboard); ok {
		t.Error("dashboard is not an entity group")
	}
}

func TestInvalidateEntity_TouchesOwnGroupThenDashboard(t *testing.T) {
	for _, group := range entity.EntityGroups() {
		t.Run(group.String(), func(t *testing.T) {
			inv := &recordingInvalidator{keys: allKeys()}
			coordinator := NewCoordinator(inv)

			if err := coordinator.InvalidateEntity(context.Background(), group); err != nil {
				t.Fatalf("InvalidateEntity() error: %v", err)
			}
			if len(inv.calls) != 2 {
				t.Fatalf("expected two invalidation passes, got %d", len(inv.calls))
			}

			own := inv.calls[0]
			if len(own) != 2 {
				t.Fatalf("expected list and detail keys, got %v", own)
			}
			for _, key := range own {
				if key.Group != group.String() {
					t.Errorf("foreign key invalidated: %+v", key)
				}
				if key.Scope == querycache.ScopeReference {
					t.Errorf("reference data must survive entity mutations: %+v", key)
				}
			}

			dash := inv.calls[1]
			if len(dash) != 1 || dash[0].Group != entity.Dashboard.String() {
				t.Errorf("expected the dashboard stats key second, got %v", dash)
			}
		})
	}
}

func TestInvalidateEntity_UnknownGroup(t *testing.T) {
	inv := &recordingInvalidator{}
	coordinator := NewCoordinator(inv)

	err := coordinator.InvalidateEntity(context.Background(), entity.Group("invoices"))
	if !goerrors.IsCategory(err, goerrors.CategoryBadInput) {
		t.Fatalf("expected bad input error, got %v", err)
	}
	if len(inv.calls) != 0 {
		t.Error("unknown group must not touch the cache")
	}
}

func TestInvalidateEntity_StopsOnCacheError(t *testing.T) {
	boom := errors.New("closed")
	inv := &recordingInvalidator{keys: allKeys(), err: boom}

	err := NewCoordinator(inv).InvalidateEntity(context.Background(), entity.Customers)
	if !errors.Is(err, boom) {
		t.Fatalf("expected cache error, got %v", err)
	}
	if len(inv.calls) != 1 {
		t.Errorf("dashboard pass must not run after a failure, got %d passes", len(inv.calls))
	}
}

func TestInvalidateEntity_WithQueryCache(t *testing.T) {
	store, err := cache.NewCacheService(cache.DefaultConfig())
	if err != nil {
		t.Fatalf("NewCacheService() error: %v", err)
	}
	qc := querycache.New(store, nil)
	defer qc.Close()
	ctx := context.Background()

	load := func(ctx context.Context) (any, error) { return "v", nil }
	for _, key := range allKeys() {
		if _, err := qc.Fetch(ctx, key, load); err != nil {
			t.Fatalf("Fetch() error: %v", err)
		}
	}

	if err := NewCoordinator(qc).InvalidateEntity(ctx, entity.Inventory); err != nil {
		t.Fatalf("InvalidateEntity() error: %v", err)
	}

	for _, key := range allKeys() {
		entry, _ := qc.Peek(key)
		want := key.Group == entity.Dashboard.String() ||
			(key.Group == entity.Inventory.String() && key.Scope != querycache.ScopeReference)
		if entry.Stale != want {
			t.Errorf("key %s: stale=%v, want %v", qc.KeyID(key), entry.Stale, want)
		}
	}
}
