package console

import (
	"context"
	"maps"
	"sync"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-repair-console/apiclient"
	"github.com/goliatone/go-repair-console/entity"
	"github.com/goliatone/go-repair-console/internal/logging"
	"github.com/goliatone/go-repair-console/pkg/interfaces"
	"github.com/goliatone/go-repair-console/querycache"
	"github.com/goliatone/go-repair-console/repositorycache"
)

// ErrRecordNotLoaded rejects an edit submit before the record arrived.
var ErrRecordNotLoaded = goerrors.New("console: record not loaded yet", goerrors.CategoryBadInput).
	WithTextCode("RECORD_NOT_LOADED")

// FormState is the state of a create or edit form.
type FormState string

const (
	FormEditing    FormState = "editing"
	FormValidating FormState = "validating"
	FormSubmitting FormState = "submitting"
	FormSuccess    FormState = "success"
	FormFailed     FormState = "failed"
)

// FormView is a point-in-time copy of a form controller.
type FormView struct {
	State     FormState
	Mode      entity.Mode
	RecordID  int64
	Step      int
	StepCount int
	Fields    []entity.Field
	Values    map[string]any
	Errors    map[string]string
	PageError string
	Reference []entity.Record
	// Loaded is true once an edit form holds the record values.
	Loaded bool
}

// FormController drives one create or edit form.
type FormController struct {
	repo   EntitySource
	env    Env
	logger interfaces.Logger
	mode   entity.Mode
	id     int64

	mu        sync.Mutex
	ctx       context.Context
	state     FormState
	step      int
	values    map[string]any
	errors    map[string]string
	pageError string
	reference []entity.Record
	populated bool
	touched   map[string]bool
	observers []*querycache.Observer
	listener  func(FormView)
	closed    bool
}

// NewCreateForm builds a form creating a record.
func NewCreateForm(repo EntitySource, env Env) *FormController {
	return newForm(repo, env, entity.ModeCreate, 0)
}

// NewEditForm builds a form updating record id.
func NewEditForm(repo EntitySource, env Env, id int64) *FormController {
	return newForm(repo, env, entity.ModeEdit, id)
}

func newForm(repo EntitySource, env Env, mode entity.Mode, id int64) *FormController {
	d := repo.Descriptor()
	return &FormController{
		repo:    repo,
		env:     env,
		logger:  logging.WithFields(env.logger(logging.FormModule, d.Group), map[string]any{"mode": mode.String()}),
		mode:    mode,
		id:      id,
		ctx:     context.Background(),
		state:   FormEditing,
		values:  d.InitialValues(),
		errors:  map[string]string{},
		touched: map[string]bool{},
	}
}

// Descriptor returns the entity the form edits.
func (c *FormController) Descriptor() entity.Descriptor { return c.repo.Descriptor() }

// OnChange registers a listener called after every state change.
func (c *FormController) OnChange(fn func(FormView)) {
	c.mu.Lock()
	c.listener = fn
	c.mu.Unlock()
}

// Mount loads what the form needs: the record for edit forms and the
// reference dataset when the entity has one, in parallel.
func (c *FormController) Mount(ctx context.Context) Outcome {
	d := c.repo.Descriptor()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return failure(ErrClosed)
	}
	c.ctx = context.WithoutCancel(ctx)
	var detail, reference *querycache.Observer
	if c.mode == entity.ModeEdit {
		detail = c.repo.ObserveDetail(c.id, c.applyDetail)
		c.observers = append(c.observers, detail)
	}
	if d.Reference != nil {
		reference = c.repo.ObserveReference(c.applyReference)
		c.observers = append(c.observers, reference)
	}
	c.mu.Unlock()

	var g errgroup.Group
	if detail != nil {
		g.Go(func() error {
			entry, err := detail.Fetch(ctx)
			if err == nil {
				c.applyDetail(entry)
			}
			return err
		})
	}
	if reference != nil {
		g.Go(func() error {
			entry, err := reference.Fetch(ctx)
			if err == nil {
				c.applyReference(entry)
			}
			return err
		})
	}

	if err := g.Wait(); err != nil {
		if c.isClosed() {
			return failure(err)
		}
		c.logger.Warn("console.form.load_failed", "error", err)
		c.mu.Lock()
		c.pageError = c.env.errorMessage(err)
		c.mu.Unlock()
		c.env.notify(ctx, interfaces.NotificationError, c.env.translate(MsgLoadFailed), c.env.errorMessage(err))
		c.emit()
		return failure(err)
	}
	c.emit()
	return success(entity.Record{})
}

// SetValue records user input and clears that field's error only.
func (c *FormController) SetValue(name string, value any) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.values[name] = value
	c.touched[name] = true
	delete(c.errors, name)
	if c.state == FormFailed {
		c.state = FormEditing
	}
	c.mu.Unlock()
	c.emit()
}

// Next advances to the following step. On the final step it validates and
// submits.
func (c *FormController) Next(ctx context.Context) Outcome {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return failure(ErrClosed)
	}
	if c.step < c.repo.Descriptor().StepCount()-1 {
		c.step++
		c.mu.Unlock()
		c.emit()
		return success(entity.Record{})
	}
	c.mu.Unlock()
	return c.Submit(ctx)
}

// Back moves one step back.
func (c *FormController) Back() {
	c.mu.Lock()
	if c.step > 0 {
		c.step--
	}
	c.mu.Unlock()
	c.emit()
}

// Submit validates the values and fires exactly one mutation. On success
// the cache has been invalidated before the form navigates to the list.
func (c *FormController) Submit(ctx context.Context) Outcome {
	d := c.repo.Descriptor()

	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return failure(ErrClosed)
	case c.state == FormSubmitting:
		c.mu.Unlock()
		return failure(ErrSubmitPending)
	case c.mode == entity.ModeEdit && !c.populated:
		c.mu.Unlock()
		return failure(ErrRecordNotLoaded)
	}

	c.state = FormValidating
	if invalid := d.ValidateAll(c.values, c.mode); invalid != nil {
		c.errors = make(map[string]string, len(invalid))
		for name, key := range invalid {
			c.errors[name] = c.env.translate(key)
		}
		c.step = firstErrorStep(d, invalid, c.step)
		c.state = FormEditing
		c.mu.Unlock()

		c.logger.Debug("console.form.invalid", "fields", len(invalid))
		c.env.notify(ctx, interfaces.NotificationError, c.env.translate(MsgValidationFailed), "")
		c.emit()
		return failure(&ValidationError{Fields: invalid})
	}

	body := d.BuildBody(c.values, c.mode)
	c.state = FormSubmitting
	c.pageError = ""
	c.mu.Unlock()
	c.emit()

	var (
		rec entity.Record
		err error
	)
	if c.mode == entity.ModeEdit {
		rec, err = c.repo.Update(ctx, c.id, body)
	} else {
		rec, err = c.repo.Create(ctx, body)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		if err != nil {
			return failure(err)
		}
		return success(rec)
	}

	if err != nil {
		c.state = FormFailed
		if apiErr, ok := apiclient.AsAPIError(err); ok {
			maps.Copy(c.errors, apiErr.FieldMap())
			c.pageError = apiErr.Message
		} else {
			c.pageError = c.env.errorMessage(err)
		}
		c.mu.Unlock()

		c.logger.Warn("console.form.submit_failed", "kind", Classify(err), "error", err)
		c.env.notify(ctx, interfaces.NotificationError, c.env.translate(MsgSaveFailed), c.env.errorMessage(err))
		c.emit()
		return failure(err)
	}

	c.state = FormSuccess
	c.values = d.InitialValues()
	c.errors = map[string]string{}
	c.touched = map[string]bool{}
	c.step = 0
	observers := c.observers
	c.observers = nil
	c.mu.Unlock()

	for _, obs := range observers {
		obs.Close()
	}
	c.logger.Info("console.form.submitted", "id", rec.ID)
	c.env.notify(ctx, interfaces.NotificationSuccess, c.env.translate(MsgSaveSuccess), "")
	c.env.navigate(ctx, d.ListRoute())
	c.emit()
	return success(rec)
}

// View returns a copy of the controller state.
func (c *FormController) View() FormView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// Close drops the form state and detaches its observers.
func (c *FormController) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	observers := c.observers
	c.observers = nil
	c.listener = nil
	c.values = map[string]any{}
	c.errors = map[string]string{}
	c.mu.Unlock()

	for _, obs := range observers {
		obs.Close()
	}
}

func (c *FormController) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// applyDetail fills the values from the record once. Fields the user
// already touched keep their input.
func (c *FormController) applyDetail(entry querycache.Entry) {
	if entry.Status != querycache.StatusSuccess {
		return
	}
	rec, err := repositorycache.DataAs[entity.Record](entry)
	if err != nil {
		return
	}

	c.mu.Lock()
	if c.closed || c.populated {
		c.mu.Unlock()
		return
	}
	values := c.repo.Descriptor().FormValues(rec)
	for name := range c.touched {
		values[name] = c.values[name]
	}
	c.values = values
	c.populated = true
	c.mu.Unlock()
	c.emit()
}

func (c *FormController) applyReference(entry querycache.Entry) {
	if entry.Status != querycache.StatusSuccess {
		return
	}
	records, err := repositorycache.DataAs[[]entity.Record](entry)
	if err != nil {
		return
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.reference = records
	c.mu.Unlock()
	c.emit()
}

func (c *FormController) emit() {
	c.mu.Lock()
	listener := c.listener
	view := c.viewLocked()
	c.mu.Unlock()
	if listener != nil {
		listener(view)
	}
}

func (c *FormController) viewLocked() FormView {
	d := c.repo.Descriptor()
	return FormView{
		State:     c.state,
		Mode:      c.mode,
		RecordID:  c.id,
		Step:      c.step,
		StepCount: d.StepCount(),
		Fields:    d.StepFields(c.step),
		Values:    maps.Clone(c.values),
		Errors:    maps.Clone(c.errors),
		PageError: c.pageError,
		Reference: c.reference,
		Loaded:    c.mode == entity.ModeCreate || c.populated,
	}
}

// firstErrorStep returns the earliest step holding an invalid field, or
// current when none of them is on a step.
func firstErrorStep(d entity.Descriptor, invalid map[string]string, current int) int {
	for step := 0; step < d.StepCount(); step++ {
		for _, f := range d.StepFields(step) {
			if _, ok := invalid[f.Name]; ok {
				return step
			}
		}
	}
	return current
}
