package console

import (
	"context"
	"sync"

	"github.com/goliatone/go-repair-console/entity"
	"github.com/goliatone/go-repair-console/pkg/interfaces"
)

// ActionName identifies a row action.
type ActionName string

const (
	ActionView   ActionName = "view"
	ActionEdit   ActionName = "edit"
	ActionDelete ActionName = "delete"
)

// RowAction is one entry of a row's action menu.
type RowAction struct {
	Name    ActionName
	Route   string
	Enabled bool
}

// RowActions evaluates the descriptor predicates for row. View and edit are
// always listed, disabled when denied; delete is left out when denied.
func RowActions(d entity.Descriptor, principal interfaces.Principal, row entity.Record) []RowAction {
	actions := []RowAction{
		{Name: ActionView, Route: d.DetailRoute(row.ID), Enabled: d.Permissions.CanView(principal, row)},
		{Name: ActionEdit, Route: d.EditRoute(row.ID), Enabled: d.Permissions.CanEdit(principal, row)},
	}
	if d.Permissions.CanDelete(principal, row) {
		actions = append(actions, RowAction{Name: ActionDelete, Enabled: true})
	}
	return actions
}

// deleteFlow is the confirm-gated delete shared by list and detail
// controllers. At most one delete is in flight per flow.
type deleteFlow struct {
	mu      sync.Mutex
	target  *entity.Record
	pending bool
}

func (f *deleteFlow) request(d entity.Descriptor, principal interfaces.Principal, row entity.Record) error {
	if !d.Permissions.CanDelete(principal, row) {
		return ErrNotPermitted
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending {
		return ErrDeletePending
	}
	target := row.Clone()
	f.target = &target
	return nil
}

// cancel closes the confirmation. It reports false while a delete is in
// flight, which cannot be cancelled.
func (f *deleteFlow) cancel() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending {
		return false
	}
	f.target = nil
	return true
}

func (f *deleteFlow) begin() (entity.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending {
		return entity.Record{}, ErrDeletePending
	}
	if f.target == nil {
		return entity.Record{}, ErrNoDeleteRequested
	}
	f.pending = true
	return *f.target, nil
}

func (f *deleteFlow) finish() {
	f.mu.Lock()
	f.pending = false
	f.target = nil
	f.mu.Unlock()
}

func (f *deleteFlow) snapshot() (*entity.Record, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.target == nil {
		return nil, f.pending
	}
	target := f.target.Clone()
	return &target, f.pending
}

// confirm fires the delete awaiting confirmation. The repository awaits the
// cache invalidation before returning. Feedback is skipped when closed
// reports true by the time the response arrives.
func (f *deleteFlow) confirm(ctx context.Context, env Env, repo EntitySource, closed func() bool, logger interfaces.Logger) Outcome {
	target, err := f.begin()
	if err != nil {
		return failure(err)
	}

	d := repo.Descriptor()
	if !d.Permissions.CanDelete(env.principal(ctx), target) {
		f.finish()
		return failure(ErrNotPermitted)
	}

	err = repo.Delete(ctx, target.ID)
	f.finish()

	if closed() {
		return Outcome{OK: err == nil, Kind: Classify(err), Err: err, Record: target}
	}

	if err != nil {
		logger.Warn("console.delete.failed", "id", target.ID, "error", err)
		env.notify(ctx, interfaces.NotificationError, env.translate(MsgDeleteFailed), env.errorMessage(err))
		out := failure(err)
		out.Record = target
		return out
	}

	logger.Info("console.delete.succeeded", "id", target.ID)
	env.notify(ctx, interfaces.NotificationSuccess, env.translate(MsgDeleteSuccess), "")
	return success(target)
}
