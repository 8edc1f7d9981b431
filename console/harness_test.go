package console

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-repair-console/apiclient"
	"github.com/goliatone/go-repair-console/cache"
	"github.com/goliatone/go-repair-console/entity"
	"github.com/goliatone/go-repair-console/invalidation"
	"github.com/goliatone/go-repair-console/pkg/testsupport"
	"github.com/goliatone/go-repair-console/querycache"
	"github.com/goliatone/go-repair-console/repositorycache"
	"github.com/goliatone/go-repair-console/resource"
)

const seedPath = "../pkg/testsupport/testdata/seed.json"

// harness wires controllers to a seeded fake backend through the real
// client, query cache and coordinator.
type harness struct {
	backend   *testsupport.FakeBackend
	cache     *querycache.Cache
	repos     map[entity.Group]*repositorycache.CachedRepository
	dashboard *repositorycache.CachedDashboard
	notifier  *testsupport.RecordingNotifier
	navigator *testsupport.RecordingNavigator
	env       Env
}

func newHarness(t *testing.T, role string) *harness {
	t.Helper()

	backend := testsupport.NewFakeBackend(t)
	testsupport.SeedFromFixture(t, backend, seedPath)

	session := testsupport.SessionFor(role)
	client, err := apiclient.New(backend.URL(), apiclient.WithSession(session), apiclient.WithTimeout(2*time.Second))
	if err != nil {
		t.Fatalf("apiclient.New() error: %v", err)
	}

	store, err := cache.NewCacheService(cache.DefaultConfig())
	if err != nil {
		t.Fatalf("NewCacheService() error: %v", err)
	}
	qc := querycache.New(store, cache.NewDefaultKeySerializer())
	t.Cleanup(func() { _ = qc.Close() })

	coordinator := invalidation.NewCoordinator(qc)
	registry := entity.DefaultRegistry()
	repos := make(map[entity.Group]*repositorycache.CachedRepository)
	for _, group := range registry.Groups() {
		d, _ := registry.Get(group)
		repos[group] = repositorycache.New(resource.NewRESTRepository(client, d), qc, coordinator)
	}

	h := &harness{
		backend:   backend,
		cache:     qc,
		repos:     repos,
		dashboard: repositorycache.NewDashboard(resource.NewDashboard(client), qc),
		notifier:  &testsupport.RecordingNotifier{},
		navigator: &testsupport.RecordingNavigator{},
	}
	h.env = Env{Session: session, Notifier: h.notifier, Navigator: h.navigator}
	return h
}

func (h *harness) list(t *testing.T, group entity.Group) *ListController {
	t.Helper()
	c := NewListController(h.repos[group], h.env)
	t.Cleanup(c.Close)
	return c
}

func (h *harness) sources() []EntitySource {
	var out []EntitySource
	for _, group := range entity.EntityGroups() {
		out = append(out, h.repos[group])
	}
	return out
}

// stateLog records list states delivered to a listener.
type stateLog struct {
	mu     sync.Mutex
	states []ListState
}

func (l *stateLog) record(v ListView) {
	l.mu.Lock()
	l.states = append(l.states, v.State)
	l.mu.Unlock()
}

func (l *stateLog) snapshot() []ListState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]ListState(nil), l.states...)
}

func (l *stateLog) reset() {
	l.mu.Lock()
	l.states = nil
	l.mu.Unlock()
}

// waitFor polls cond until it holds or a second elapses.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}

var background = context.Background()
