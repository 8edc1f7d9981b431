package querycache

import (
	"context"
	"sync"
	"sync/atomic"
)

// entryState owns one key. Writers hold mu; readers load the snapshot
// pointer and never see a partially updated entry.
type entryState struct {
	id  string
	key Key

	mu         sync.Mutex
	snap       atomic.Pointer[Entry]
	loader     Loader
	observers  map[uint64]*Observer
	gen        uint64
	appliedGen uint64
	cancelLoad context.CancelFunc
}

func newEntryState(id string, key Key) *entryState {
	st := &entryState{id: id, key: key, observers: map[uint64]*Observer{}}
	st.snap.Store(&Entry{Key: key, Status: StatusIdle})
	return st
}

func (s *entryState) snapshot() Entry {
	return *s.snap.Load()
}

func (s *entryState) setLoader(loader Loader) {
	s.mu.Lock()
	s.loader = loader
	s.mu.Unlock()
}

func (s *entryState) currentLoader() Loader {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loader
}

func (s *entryState) observed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.observers) > 0
}

func (s *entryState) addObserver(o *Observer) {
	s.mu.Lock()
	s.observers[o.id] = o
	s.mu.Unlock()
}

func (s *entryState) removeObserver(o *Observer) {
	s.mu.Lock()
	delete(s.observers, o.id)
	s.mu.Unlock()
}

func (s *entryState) closeObservers() {
	s.mu.Lock()
	observers := s.observers
	s.observers = map[uint64]*Observer{}
	s.mu.Unlock()
	for _, o := range observers {
		o.closed.Store(true)
	}
}

// swapLocked applies mutate to a copy of the snapshot, publishes it and returns
// the new snapshot with the observers to notify. Caller holds mu.
func (s *entryState) swapLocked(mutate func(*Entry)) (Entry, []*Observer) {
	next := *s.snap.Load()
	mutate(&next)
	s.snap.Store(&next)

	observers := make([]*Observer, 0, len(s.observers))
	for _, o := range s.observers {
		observers = append(observers, o)
	}
	return next, observers
}

// invalidate marks the entry stale and cancels the load in flight, if any.
func (s *entryState) invalidate() {
	s.mu.Lock()
	s.gen++
	cancel := s.cancelLoad
	entry, observers := s.swapLocked(func(e *Entry) { e.Stale = true })
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	notify(observers, entry)
}

// beginLoad flips the entry to loading, keeping its data. It returns the
// invalidation generation the load started in and the context the loader
// runs with; invalidate cancels that context.
func (s *entryState) beginLoad(ctx context.Context) (uint64, context.Context) {
	loadCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	gen := s.gen
	s.cancelLoad = cancel
	entry, observers := s.swapLocked(func(e *Entry) {
		e.Status = StatusLoading
		e.Err = nil
	})
	s.mu.Unlock()
	notify(observers, entry)
	return gen, loadCtx
}

// endLoad releases the load context and reports whether the entry was
// invalidated while the loader ran.
func (s *entryState) endLoad(gen uint64) bool {
	s.mu.Lock()
	cancel := s.cancelLoad
	s.cancelLoad = nil
	superseded := gen != s.gen
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return superseded
}

// finishLoad publishes a load result. A result older than one already
// applied is dropped; a result whose key was invalidated mid-flight is kept
// but stays stale.
func (s *entryState) finishLoad(c *Cache, gen uint64, data any, err error) Entry {
	s.mu.Lock()
	if gen < s.appliedGen {
		current := *s.snap.Load()
		s.mu.Unlock()
		return current
	}
	s.appliedGen = gen
	stale := gen != s.gen
	now := c.now()

	entry, observers := s.swapLocked(func(e *Entry) {
		e.Stale = stale
		if err != nil {
			e.Status = StatusError
			e.Err = err
			return
		}
		e.Status = StatusSuccess
		e.Err = nil
		e.Data = data
		e.LastFetchedAt = now
	})
	s.mu.Unlock()
	notify(observers, entry)
	return entry
}

func notify(observers []*Observer, entry Entry) {
	for _, o := range observers {
		o.deliver(entry)
	}
}

// Observer is a mounted consumer of one key.
type Observer struct {
	id       uint64
	cache    *Cache
	state    *entryState
	loader   Loader
	onChange func(Entry)
	closed   atomic.Bool
}

// Key returns the observed key.
func (o *Observer) Key() Key { return o.state.key }

// Entry returns the current snapshot.
func (o *Observer) Entry() Entry { return o.state.snapshot() }

// Fetch loads the key unless it is fresh.
func (o *Observer) Fetch(ctx context.Context) (Entry, error) {
	if o.closed.Load() {
		return o.Entry(), ErrClosed
	}
	return o.cache.Fetch(ctx, o.state.key, o.loader)
}

// Refetch loads the key even when it is fresh.
func (o *Observer) Refetch(ctx context.Context) (Entry, error) {
	if o.closed.Load() {
		return o.Entry(), ErrClosed
	}
	if o.loader != nil {
		o.state.setLoader(o.loader)
	}
	return o.cache.load(ctx, o.state, true)
}

// Close detaches the observer. Later transitions are not delivered.
func (o *Observer) Close() {
	if o.closed.CompareAndSwap(false, true) {
		o.state.removeObserver(o)
	}
}

// Closed reports whether Close was called.
func (o *Observer) Closed() bool { return o.closed.Load() }

func (o *Observer) deliver(entry Entry) {
	if o.onChange == nil || o.closed.Load() {
		return
	}
	o.onChange(entry)
}
