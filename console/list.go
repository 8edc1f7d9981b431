package console

import (
	"context"
	"maps"
	"strings"
	"sync"

	"github.com/goliatone/go-repair-console/entity"
	"github.com/goliatone/go-repair-console/internal/logging"
	"github.com/goliatone/go-repair-console/pkg/interfaces"
	"github.com/goliatone/go-repair-console/querycache"
	"github.com/goliatone/go-repair-console/repositorycache"
)

// ListState is the state of a list screen.
type ListState string

const (
	ListIdle    ListState = "idle"
	ListLoading ListState = "loading"
	ListLoaded  ListState = "loaded"
	ListFailed  ListState = "failed"
)

// ListView is a point-in-time copy of a list controller.
type ListView struct {
	State       ListState
	Params      entity.QueryParams
	SearchInput string
	Records     []entity.Record
	Pagination  entity.Pagination
	// Err is set in the failed state and rendered inline.
	Err           error
	ErrKind       ErrorKind
	ConfirmDelete *entity.Record
	Deleting      bool
}

// ListController drives one paginated list screen.
type ListController struct {
	repo   EntitySource
	env    Env
	logger interfaces.Logger
	ctx    context.Context

	mu          sync.Mutex
	state       ListState
	params      entity.QueryParams
	searchInput string
	page        entity.Page
	err         error
	observer    *querycache.Observer
	seq         uint64
	listener    func(ListView)
	closed      bool

	deletes deleteFlow
}

// NewListController builds an idle list controller on page 1 with an empty
// search.
func NewListController(repo EntitySource, env Env) *ListController {
	d := repo.Descriptor()
	return &ListController{
		repo:   repo,
		env:    env,
		logger: env.logger(logging.ListModule, d.Group),
		ctx:    context.Background(),
		state:  ListIdle,
		params: entity.QueryParams{Page: 1}.Normalize(d.Limit()),
	}
}

// Descriptor returns the entity the list shows.
func (c *ListController) Descriptor() entity.Descriptor { return c.repo.Descriptor() }

// OnChange registers a listener called after every state change.
func (c *ListController) OnChange(fn func(ListView)) {
	c.mu.Lock()
	c.listener = fn
	c.mu.Unlock()
}

// Mount loads the current query. ctx also carries the toasts raised by
// later background transitions.
func (c *ListController) Mount(ctx context.Context) Outcome {
	c.mu.Lock()
	c.ctx = context.WithoutCancel(ctx)
	c.mu.Unlock()
	return c.reload(ctx)
}

// SetSearchInput updates the search box without querying.
func (c *ListController) SetSearchInput(text string) {
	c.mu.Lock()
	c.searchInput = text
	c.mu.Unlock()
}

// CommitSearch applies the search box and reloads from page 1.
func (c *ListController) CommitSearch(ctx context.Context) Outcome {
	c.mu.Lock()
	c.params.Search = strings.TrimSpace(c.searchInput)
	c.params.Page = 1
	c.mu.Unlock()
	return c.reload(ctx)
}

// SetPage reloads page n with the current search.
func (c *ListController) SetPage(ctx context.Context, n int) Outcome {
	if n < 1 {
		n = 1
	}
	c.mu.Lock()
	c.params.Page = n
	c.mu.Unlock()
	return c.reload(ctx)
}

// SetFilter sets or clears an entity filter and reloads from page 1.
// Names match case-insensitively and are stored as declared. Unknown filter
// names are ignored.
func (c *ListController) SetFilter(ctx context.Context, name, value string) Outcome {
	filter, ok := c.repo.Descriptor().LookupFilter(name)
	if !ok {
		return success(entity.Record{})
	}
	c.mu.Lock()
	c.params = c.params.WithFilter(filter.Name, strings.TrimSpace(value)).Normalize(c.repo.Descriptor().Limit())
	c.params.Page = 1
	c.mu.Unlock()
	return c.reload(ctx)
}

// Retry refetches the current query.
func (c *ListController) Retry(ctx context.Context) Outcome {
	c.mu.Lock()
	obs := c.observer
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return failure(ErrClosed)
	}
	if obs == nil {
		return c.reload(ctx)
	}
	entry, err := obs.Refetch(ctx)
	if err != nil {
		return failure(err)
	}
	c.apply(obs, entry)
	return success(entity.Record{})
}

// View returns a copy of the controller state.
func (c *ListController) View() ListView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// RowActions returns the action menu for row.
func (c *ListController) RowActions(ctx context.Context, row entity.Record) []RowAction {
	return RowActions(c.repo.Descriptor(), c.env.principal(ctx), row)
}

// RequestDelete opens the delete confirmation for row.
func (c *ListController) RequestDelete(ctx context.Context, row entity.Record) error {
	if c.isClosed() {
		return ErrClosed
	}
	if err := c.deletes.request(c.repo.Descriptor(), c.env.principal(ctx), row); err != nil {
		return err
	}
	c.emit()
	return nil
}

// CancelDelete closes the confirmation without a network call.
func (c *ListController) CancelDelete() {
	if c.deletes.cancel() {
		c.emit()
	}
}

// ConfirmDelete fires exactly one DELETE for the confirmed row. The list
// reloads through cache invalidation before it returns.
func (c *ListController) ConfirmDelete(ctx context.Context) Outcome {
	if c.isClosed() {
		return failure(ErrClosed)
	}
	out := c.deletes.confirm(ctx, c.env, c.repo, c.isClosed, c.logger)
	c.emit()
	return out
}

// Close detaches the controller; late responses are ignored.
func (c *ListController) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	obs := c.observer
	c.observer = nil
	c.listener = nil
	c.mu.Unlock()

	if obs != nil {
		obs.Close()
	}
}

func (c *ListController) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// reload swaps the observer for the current params and fetches.
func (c *ListController) reload(ctx context.Context) Outcome {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return failure(ErrClosed)
	}
	c.seq++
	seq := c.seq
	params := c.params
	previous := c.observer
	c.state = ListLoading
	c.err = nil
	c.mu.Unlock()

	if previous != nil {
		previous.Close()
	}

	obs := c.repo.ObserveList(params, func(e querycache.Entry) {
		c.applySeq(seq, e)
	})

	c.mu.Lock()
	if c.closed || c.seq != seq {
		c.mu.Unlock()
		obs.Close()
		return failure(ErrClosed)
	}
	c.observer = obs
	c.mu.Unlock()
	c.emit()

	entry, err := obs.Fetch(ctx)
	if err != nil {
		// failures reach the controller through the observer
		return failure(err)
	}
	c.apply(obs, entry)
	return success(entity.Record{})
}

func (c *ListController) apply(obs *querycache.Observer, entry querycache.Entry) {
	c.mu.Lock()
	current := c.observer == obs
	seq := c.seq
	c.mu.Unlock()
	if current {
		c.applySeq(seq, entry)
	}
}

// applySeq folds an entry into the state when it belongs to the current
// query. Network failures toast and keep the list loading; API failures
// render inline.
func (c *ListController) applySeq(seq uint64, entry querycache.Entry) {
	c.mu.Lock()
	if c.closed || seq != c.seq {
		c.mu.Unlock()
		return
	}

	var toast error
	switch entry.Status {
	case querycache.StatusLoading:
		c.state = ListLoading
	case querycache.StatusSuccess:
		page, err := repositorycache.DataAs[entity.Page](entry)
		if err != nil {
			c.state = ListFailed
			c.err = err
			break
		}
		c.page = page
		c.state = ListLoaded
		c.err = nil
	case querycache.StatusError:
		if Classify(entry.Err) == KindNetwork {
			c.state = ListLoading
			toast = entry.Err
		} else {
			c.state = ListFailed
			c.err = entry.Err
		}
	default:
		c.mu.Unlock()
		return
	}
	ctx := c.ctx
	c.mu.Unlock()

	if toast != nil {
		c.logger.Warn("console.list.network_error", "error", toast)
		c.env.notify(ctx, interfaces.NotificationError, c.env.translate(MsgLoadFailed), c.env.errorMessage(toast))
	}
	c.emit()
}

func (c *ListController) emit() {
	c.mu.Lock()
	listener := c.listener
	view := c.viewLocked()
	c.mu.Unlock()
	if listener != nil {
		listener(view)
	}
}

func (c *ListController) viewLocked() ListView {
	target, pending := c.deletes.snapshot()
	params := c.params
	params.Filters = maps.Clone(c.params.Filters)
	return ListView{
		State:         c.state,
		Params:        params,
		SearchInput:   c.searchInput,
		Records:       c.page.Records,
		Pagination:    c.page.Pagination,
		Err:           c.err,
		ErrKind:       Classify(c.err),
		ConfirmDelete: target,
		Deleting:      pending,
	}
}
