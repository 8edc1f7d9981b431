package console

import (
	"context"
	"fmt"

	"github.com/goliatone/go-repair-console/apiclient"
	"github.com/goliatone/go-repair-console/entity"
	"github.com/goliatone/go-repair-console/internal/logging"
	"github.com/goliatone/go-repair-console/pkg/interfaces"
	"github.com/goliatone/go-repair-console/querycache"
	"github.com/goliatone/go-repair-console/resource"
)

// Message keys passed to the translator for toasts and page errors.
const (
	MsgSaveSuccess      = "notify.save.success"
	MsgSaveFailed       = "notify.save.failed"
	MsgDeleteSuccess    = "notify.delete.success"
	MsgDeleteFailed     = "notify.delete.failed"
	MsgValidationFailed = "notify.validation_failed"
	MsgNetworkError     = "notify.network_error"
	MsgLoadFailed       = "notify.load_failed"
)

// EntitySource is the cached repository a controller works against.
type EntitySource interface {
	resource.Repository
	ObserveList(params entity.QueryParams, onChange func(querycache.Entry)) *querycache.Observer
	ObserveDetail(id int64, onChange func(querycache.Entry)) *querycache.Observer
	ObserveReference(onChange func(querycache.Entry)) *querycache.Observer
}

// StatsObserver mounts consumers of the dashboard stats.
type StatsObserver interface {
	ObserveStats(onChange func(querycache.Entry)) *querycache.Observer
}

// Env carries the collaborators shared by every controller. Nil members are
// replaced with silent defaults.
type Env struct {
	Session    interfaces.SessionProvider
	Notifier   interfaces.Notifier
	Navigator  interfaces.Navigator
	Translator interfaces.Translator
	Logger     interfaces.LoggerProvider
}

func (e Env) principal(ctx context.Context) interfaces.Principal {
	if e.Session == nil {
		return interfaces.Principal{}
	}
	user, ok := e.Session.CurrentUser(ctx)
	if !ok {
		return interfaces.Principal{}
	}
	return user
}

func (e Env) translate(key string, args ...any) string {
	if e.Translator == nil {
		if len(args) == 0 {
			return key
		}
		return key + ": " + fmt.Sprint(args...)
	}
	return e.Translator.Translate(key, args...)
}

func (e Env) notify(ctx context.Context, level interfaces.NotificationLevel, title, message string) {
	if e.Notifier == nil {
		return
	}
	e.Notifier.Notify(ctx, interfaces.Notification{Level: level, Title: title, Message: message})
}

func (e Env) navigate(ctx context.Context, route string) {
	if e.Navigator == nil {
		return
	}
	e.Navigator.Navigate(ctx, route)
}

func (e Env) logger(module string, group entity.Group) interfaces.Logger {
	return logging.WithEntity(logging.ModuleLogger(e.Logger, module), group.String())
}

// errorMessage is the user facing text of err.
func (e Env) errorMessage(err error) string {
	switch Classify(err) {
	case KindNetwork:
		return e.translate(MsgNetworkError)
	case KindAPIField, KindAPIGeneral:
		if apiErr, ok := apiclient.AsAPIError(err); ok && apiErr.Message != "" {
			return apiErr.Message
		}
	}
	return err.Error()
}
