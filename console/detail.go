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

// DetailView is a point-in-time copy of a detail controller.
type DetailView struct {
	State         ListState
	Record        entity.Record
	Err           error
	ErrKind       ErrorKind
	ConfirmDelete *entity.Record
	Deleting      bool
}

// DetailController drives the /{entity}/{id} screen.
type DetailController struct {
	repo   EntitySource
	env    Env
	logger interfaces.Logger
	id     int64

	mu       sync.Mutex
	state    ListState
	record   entity.Record
	err      error
	observer *querycache.Observer
	listener func(DetailView)
	closed   bool

	deletes deleteFlow
}

func NewDetailController(repo EntitySource, env Env, id int64) *DetailController {
	return &DetailController{
		repo:   repo,
		env:    env,
		logger: logging.WithFields(env.logger(logging.DetailModule, repo.Descriptor().Group), map[string]any{"id": id}),
		id:     id,
		state:  ListIdle,
	}
}

// OnChange registers a listener called after every state change.
func (c *DetailController) OnChange(fn func(DetailView)) {
	c.mu.Lock()
	c.listener = fn
	c.mu.Unlock()
}

// Mount observes and loads the record.
func (c *DetailController) Mount(ctx context.Context) Outcome {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return failure(ErrClosed)
	}
	if c.observer == nil {
		c.observer = c.repo.ObserveDetail(c.id, c.apply)
	}
	obs := c.observer
	c.state = ListLoading
	c.mu.Unlock()
	c.emit()

	entry, err := obs.Fetch(ctx)
	if err != nil {
		return failure(err)
	}
	c.apply(entry)
	return success(c.View().Record)
}

// RowActions returns the action menu for the shown record.
func (c *DetailController) RowActions(ctx context.Context) []RowAction {
	return RowActions(c.repo.Descriptor(), c.env.principal(ctx), c.View().Record)
}

// RequestDelete opens the delete confirmation for the shown record.
func (c *DetailController) RequestDelete(ctx context.Context) error {
	view := c.View()
	if view.State != ListLoaded {
		return ErrRecordNotLoaded
	}
	if err := c.deletes.request(c.repo.Descriptor(), c.env.principal(ctx), view.Record); err != nil {
		return err
	}
	c.emit()
	return nil
}

// CancelDelete closes the confirmation without a network call.
func (c *DetailController) CancelDelete() {
	if c.deletes.cancel() {
		c.emit()
	}
}

// ConfirmDelete fires exactly one DELETE and navigates to the list on
// success.
func (c *DetailController) ConfirmDelete(ctx context.Context) Outcome {
	if c.isClosed() {
		return failure(ErrClosed)
	}
	out := c.deletes.confirm(ctx, c.env, c.repo, c.isClosed, c.logger)
	if out.OK && !c.isClosed() {
		c.Close()
		c.env.navigate(ctx, c.repo.Descriptor().ListRoute())
		return out
	}
	c.emit()
	return out
}

// View returns a copy of the controller state.
func (c *DetailController) View() DetailView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// Close detaches the controller; late responses are ignored.
func (c *DetailController) Close() {
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

func (c *DetailController) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *DetailController) apply(entry querycache.Entry) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	switch entry.Status {
	case querycache.StatusLoading:
		if !entry.HasData() {
			c.state = ListLoading
		}
	case querycache.StatusSuccess:
		rec, err := repositorycache.DataAs[entity.Record](entry)
		if err != nil {
			c.state, c.err = ListFailed, err
			break
		}
		c.state, c.record, c.err = ListLoaded, rec, nil
	case querycache.StatusError:
		c.state, c.err = ListFailed, entry.Err
	default:
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	c.emit()
}

func (c *DetailController) emit() {
	c.mu.Lock()
	listener := c.listener
	view := c.viewLocked()
	c.mu.Unlock()
	if listener != nil {
		listener(view)
	}
}

func (c *DetailController) viewLocked() DetailView {
	target, pending := c.deletes.snapshot()
	return DetailView{
		State:         c.state,
		Record:        c.record,
		Err:           c.err,
		ErrKind:       Classify(c.err),
		ConfirmDelete: target,
		Deleting:      pending,
	}
}
