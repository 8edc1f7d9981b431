package console

import (
	"context"
	"sync"

	"github.com/goliatone/go-repair-console/entity"
	"github.com/goliatone/go-repair-console/internal/logging"
	"github.com/goliatone/go-repair-console/pkg/interfaces"
	"github.com/goliatone/go-repair-console/querycache"
	"github.com/goliatone/go-repair-console/repositorycache"
)

// DashboardView is a point-in-time copy of the dashboard controller.
type DashboardView struct {
	State ListState
	Stats entity.Stats
	Err   error
}

// DashboardController observes the aggregate counts; entity mutations
// refresh them through invalidation.
type DashboardController struct {
	source StatsObserver
	logger interfaces.Logger

	mu       sync.Mutex
	state    ListState
	stats    entity.Stats
	err      error
	observer *querycache.Observer
	closed   bool
}

func NewDashboardController(source StatsObserver, env Env) *DashboardController {
	return &DashboardController{
		source: source,
		logger: env.logger(logging.RootModule, entity.Dashboard),
		state:  ListIdle,
	}
}

// Mount observes and loads the stats.
func (c *DashboardController) Mount(ctx context.Context) Outcome {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return failure(ErrClosed)
	}
	if c.observer == nil {
		c.observer = c.source.ObserveStats(c.apply)
	}
	obs := c.observer
	c.state = ListLoading
	c.mu.Unlock()

	entry, err := obs.Fetch(ctx)
	if err != nil {
		return failure(err)
	}
	c.apply(entry)
	return success(entity.Record{})
}

// View returns a copy of the controller state.
func (c *DashboardController) View() DashboardView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return DashboardView{State: c.state, Stats: c.stats, Err: c.err}
}

// Close detaches the controller.
func (c *DashboardController) Close() {
	c.mu.Lock()
	c.closed = true
	obs := c.observer
	c.observer = nil
	c.mu.Unlock()
	if obs != nil {
		obs.Close()
	}
}

func (c *DashboardController) apply(entry querycache.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	switch entry.Status {
	case querycache.StatusLoading:
		if !entry.HasData() {
			c.state = ListLoading
		}
	case querycache.StatusSuccess:
		stats, err := repositorycache.DataAs[entity.Stats](entry)
		if err != nil {
			c.state, c.err = ListFailed, err
			return
		}
		c.state, c.stats, c.err = ListLoaded, stats, nil
	case querycache.StatusError:
		c.logger.Warn("console.dashboard.load_failed", "error", entry.Err)
		c.state, c.err = ListFailed, entry.Err
	}
}
