package querycache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/goliatone/go-repair-console/cache"
	"github.com/goliatone/go-repair-console/pkg/interfaces"
)

// ErrClosed is returned by operations on a closed cache.
var ErrClosed = goerrors.New("querycache: cache is closed", goerrors.CategoryInternal).
	WithTextCode("QUERY_CACHE_CLOSED")

// Loader fetches the data behind a key.
type Loader func(ctx context.Context) (any, error)

// Cache is the process-wide query cache. Every key has one entry holding an
// immutable snapshot; readers always see a whole snapshot. At most one load
// per key is in flight, concurrent callers join it.
type Cache struct {
	store      cache.CacheService
	serializer cache.KeySerializer
	entries    *xsync.MapOf[string, *entryState]
	flight     singleflight.Group
	staleTime  time.Duration
	now        func() time.Time
	logger     interfaces.Logger

	closed     atomic.Bool
	observerID atomic.Uint64

	refreshMu   sync.Mutex
	stopRefresh context.CancelFunc
	refreshDone chan struct{}
}

// New builds a cache over store. The store holds the latest successful
// response per key; freshness, status and observers live here.
func New(store cache.CacheService, serializer cache.KeySerializer, opts ...Option) *Cache {
	if serializer == nil {
		serializer = cache.NewDefaultKeySerializer()
	}
	c := &Cache{
		store:      store,
		serializer: serializer,
		entries:    xsync.NewMapOf[string, *entryState](),
		staleTime:  DefaultStaleTime,
		now:        time.Now,
		logger:     defaultLogger(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// KeyID returns the serialized form of key.
func (c *Cache) KeyID(key Key) string {
	if key.Params == nil {
		return c.serializer.SerializeKey(key.Prefix())
	}
	return c.serializer.SerializeKey(key.Prefix(), key.Params)
}

// StaleTime returns the configured staleness window.
func (c *Cache) StaleTime() time.Duration { return c.staleTime }

// Fetch returns the cached entry when it is successful and fresh, otherwise
// loads it. Concurrent fetches of one key share a single loader call.
func (c *Cache) Fetch(ctx context.Context, key Key, loader Loader) (Entry, error) {
	if c.closed.Load() {
		return Entry{Key: key}, ErrClosed
	}
	st := c.state(key)
	if loader != nil {
		st.setLoader(loader)
	}
	if snap := st.snapshot(); c.isFresh(snap) {
		return snap, nil
	}
	return c.load(ctx, st, false)
}

// Peek returns the current snapshot without loading.
func (c *Cache) Peek(key Key) (Entry, bool) {
	st, ok := c.entries.Load(c.KeyID(key))
	if !ok {
		return Entry{Key: key, Status: StatusIdle}, false
	}
	return st.snapshot(), true
}

// Invalidate marks every entry matching predicate stale, cancels its load in
// flight, drops it from the store, then refetches the observed ones and
// waits for them. A refetch of a key that is still loading joins that load.
// Refetch failures are recorded on the entry and logged, not returned.
func (c *Cache) Invalidate(ctx context.Context, predicate func(Key) bool) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if predicate == nil {
		return nil
	}

	var targets []*entryState
	c.entries.Range(func(_ string, st *entryState) bool {
		if predicate(st.key) {
			targets = append(targets, st)
		}
		return true
	})
	if len(targets) == 0 {
		return nil
	}

	var firstErr error
	refetch := make([]*entryState, 0, len(targets))
	for _, st := range targets {
		st.invalidate()
		if err := c.store.Delete(ctx, st.id); err != nil && firstErr == nil {
			firstErr = goerrors.Wrap(err, goerrors.CategoryInternal, "querycache: drop invalidated entry").
				WithTextCode("QUERY_CACHE_DELETE_FAILED")
		}
		if st.observed() && st.currentLoader() != nil {
			refetch = append(refetch, st)
		}
	}

	c.logger.Debug("querycache.invalidate", "matched", len(targets), "refetch", len(refetch))
	c.refetchAll(ctx, refetch, "querycache.invalidate.refetch_failed")
	return firstErr
}

// InvalidateGroup invalidates every scope of group.
func (c *Cache) InvalidateGroup(ctx context.Context, group string) error {
	return c.Invalidate(ctx, func(k Key) bool { return k.Group == group })
}

// Observe registers a mounted consumer of key. onChange receives every
// snapshot transition until the observer is closed. Observe does not load;
// call Observer.Fetch.
func (c *Cache) Observe(key Key, loader Loader, onChange func(Entry)) *Observer {
	obs := &Observer{
		id:       c.observerID.Add(1),
		cache:    c,
		loader:   loader,
		onChange: onChange,
	}
	if c.closed.Load() {
		obs.state = newEntryState(c.KeyID(key), key)
		obs.closed.Store(true)
		return obs
	}

	// Prune may drop the entry between lookup and registration; retry until
	// the observer sits on the registered state.
	for {
		st := c.state(key)
		st.addObserver(obs)
		if current, ok := c.entries.Load(st.id); ok && current == st {
			obs.state = st
			break
		}
		st.removeObserver(obs)
	}
	if loader != nil {
		obs.state.setLoader(loader)
	}
	return obs
}

// RefetchStale refetches observed entries that are stale or failed. It is
// the refetch-on-focus hook and the body of the background refresher.
func (c *Cache) RefetchStale(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}
	var due []*entryState
	c.entries.Range(func(_ string, st *entryState) bool {
		snap := st.snapshot()
		if !st.observed() || st.currentLoader() == nil || snap.Status == StatusLoading {
			return true
		}
		if snap.Status == StatusError || !c.isFresh(snap) {
			due = append(due, st)
		}
		return true
	})
	if len(due) > 0 {
		c.logger.Debug("querycache.refetch_stale", "count", len(due))
	}
	c.refetchAll(ctx, due, "querycache.refetch_stale.failed")
	return nil
}

// StartRefresher runs RefetchStale every interval until ctx is done, the
// returned stop func is called or the cache is closed. Starting a new
// refresher stops the previous one.
func (c *Cache) StartRefresher(ctx context.Context, interval time.Duration) (stop func()) {
	if interval <= 0 {
		return func() {}
	}

	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()
	if c.closed.Load() {
		return func() {}
	}
	c.stopRefresherLocked()

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.stopRefresh = cancel
	c.refreshDone = done

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				if err := c.RefetchStale(runCtx); err != nil {
					return
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// StopRefresher stops the running refresher, if any, and waits for it.
func (c *Cache) StopRefresher() {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()
	c.stopRefresherLocked()
}

// stopRefresherLocked cancels the installed refresher and waits for its
// goroutine. Caller holds refreshMu.
func (c *Cache) stopRefresherLocked() {
	cancel, done := c.stopRefresh, c.refreshDone
	c.stopRefresh, c.refreshDone = nil, nil
	if cancel != nil {
		cancel()
		<-done
	}
}

// Prune drops unobserved, idle entries whose response has left the store.
// It returns the number of entries removed.
func (c *Cache) Prune(ctx context.Context) int {
	removed := 0
	c.entries.Range(func(id string, st *entryState) bool {
		if st.observed() || st.snapshot().Status == StatusLoading {
			return true
		}
		if _, ok := c.store.Get(ctx, id); ok {
			return true
		}
		c.entries.Compute(id, func(current *entryState, loaded bool) (*entryState, bool) {
			drop := loaded && current == st && !st.observed()
			if drop {
				removed++
			}
			return current, drop
		})
		return true
	})
	return removed
}

// Len returns the number of tracked entries.
func (c *Cache) Len() int { return c.entries.Size() }

// Close stops the refresher, detaches every observer and drops all entries.
// Loads still in flight finish without notifying anyone.
func (c *Cache) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.StopRefresher()
	c.entries.Range(func(id string, st *entryState) bool {
		st.closeObservers()
		c.entries.Delete(id)
		return true
	})
	return nil
}

func (c *Cache) state(key Key) *entryState {
	id := c.KeyID(key)
	st, _ := c.entries.LoadOrCompute(id, func() *entryState {
		return newEntryState(id, key)
	})
	return st
}

func (c *Cache) isFresh(e Entry) bool {
	if e.Status != StatusSuccess || e.Stale {
		return false
	}
	if c.staleTime <= 0 {
		return true
	}
	return c.now().Sub(e.LastFetchedAt) < c.staleTime
}

// load runs the entry loader through the single-flight slot. force skips
// the freshness re-check inside the slot. A first load reads through the
// store, which may still hold a response for a pruned entry; refetches call
// the loader directly and write the result back. A load cancelled by an
// invalidation is retried inside the same slot, so callers joining it get
// the post-invalidation result and no second request for the key starts.
func (c *Cache) load(ctx context.Context, st *entryState, force bool) (Entry, error) {
	v, err, _ := c.flight.Do(st.id, func() (any, error) {
		snap := st.snapshot()
		if !force && c.isFresh(snap) {
			return snap, nil
		}

		loader := st.currentLoader()
		if loader == nil {
			return snap, goerrors.New("querycache: no loader for "+st.id, goerrors.CategoryInternal).
				WithTextCode("QUERY_CACHE_NO_LOADER")
		}
		direct := force || snap.HasData() || snap.Stale

		for {
			gen, loadCtx := st.beginLoad(ctx)

			var (
				data any
				err  error
			)
			if direct {
				data, err = loader(loadCtx)
			} else {
				data, err = c.store.GetOrFetch(loadCtx, st.id, func(ctx context.Context) (any, error) {
					return loader(ctx)
				})
			}

			if st.endLoad(gen) && ctx.Err() == nil {
				c.logger.Debug("querycache.load.superseded", "key", st.id)
				if err := c.store.Delete(ctx, st.id); err != nil {
					c.logger.Warn("querycache.store.delete_failed", "key", st.id, "error", err)
				}
				if next := st.currentLoader(); next != nil {
					loader = next
				}
				direct = true
				continue
			}

			if err != nil {
				c.logger.Debug("querycache.load.failed", "key", st.id, "error", err)
				return st.finishLoad(c, gen, nil, err), err
			}
			if direct {
				if setErr := c.store.Set(ctx, st.id, data); setErr != nil {
					c.logger.Warn("querycache.store.set_failed", "key", st.id, "error", setErr)
				}
			}
			return st.finishLoad(c, gen, data, nil), nil
		}
	})

	entry, ok := v.(Entry)
	if !ok {
		entry = st.snapshot()
	}
	return entry, err
}

func (c *Cache) refetchAll(ctx context.Context, states []*entryState, failMsg string) {
	if len(states) == 0 {
		return
	}
	var g errgroup.Group
	for _, st := range states {
		g.Go(func() error {
			if _, err := c.load(ctx, st, true); err != nil {
				c.logger.Warn(failMsg, "key", st.id, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}
