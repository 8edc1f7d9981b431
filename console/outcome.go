package console

import (
	"errors"
	"sort"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-repair-console/apiclient"
	"github.com/goliatone/go-repair-console/entity"
	"github.com/goliatone/go-repair-console/querycache"
)

// ErrorKind classifies a failed operation.
type ErrorKind string

const (
	KindNone       ErrorKind = ""
	KindValidation ErrorKind = "validation"
	KindAPIField   ErrorKind = "api_field"
	KindAPIGeneral ErrorKind = "api_general"
	KindNetwork    ErrorKind = "network"
	KindPermission ErrorKind = "permission"
	KindInternal   ErrorKind = "internal"
)

var (
	// ErrClosed is returned by operations on a closed controller.
	ErrClosed = goerrors.New("console: controller is closed", goerrors.CategoryInternal).
			WithTextCode("CONTROLLER_CLOSED")
	// ErrDeletePending rejects a confirm while a delete is in flight.
	ErrDeletePending = goerrors.New("console: a delete is already in flight", goerrors.CategoryBadInput).
				WithTextCode("DELETE_PENDING")
	// ErrNoDeleteRequested rejects a confirm without a prior request.
	ErrNoDeleteRequested = goerrors.New("console: no delete awaiting confirmation", goerrors.CategoryBadInput).
				WithTextCode("DELETE_NOT_REQUESTED")
	// ErrSubmitPending rejects a submit while another is in flight.
	ErrSubmitPending = goerrors.New("console: a submit is already in flight", goerrors.CategoryBadInput).
				WithTextCode("SUBMIT_PENDING")
	// ErrNotPermitted rejects an action the current user may not take.
	ErrNotPermitted = goerrors.New("console: action not permitted", goerrors.CategoryAuth).
			WithTextCode("ACTION_NOT_PERMITTED")
)

// ValidationError carries the local validation failures of a form, keyed by
// field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return "console: invalid fields: " + strings.Join(names, ", ")
}

// Outcome is the tagged result of a controller operation. Failures never
// escape as panics.
type Outcome struct {
	OK     bool
	Kind   ErrorKind
	Err    error
	Record entity.Record
}

func success(rec entity.Record) Outcome {
	return Outcome{OK: true, Record: rec}
}

func failure(err error) Outcome {
	return Outcome{Kind: Classify(err), Err: err}
}

// Classify maps an error onto the console error taxonomy.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return KindValidation
	}
	if apiclient.IsNetworkError(err) {
		return KindNetwork
	}
	if apiErr, ok := apiclient.AsAPIError(err); ok {
		if apiErr.HasFieldErrors() {
			return KindAPIField
		}
		return KindAPIGeneral
	}
	if errors.Is(err, ErrNotPermitted) {
		return KindPermission
	}
	if errors.Is(err, ErrClosed) || errors.Is(err, querycache.ErrClosed) {
		return KindInternal
	}

	switch {
	case goerrors.IsCategory(err, goerrors.CategoryValidation):
		return KindValidation
	case goerrors.IsCategory(err, goerrors.CategoryAuth):
		return KindPermission
	case goerrors.IsCategory(err, goerrors.CategoryExternal):
		return KindAPIGeneral
	}
	return KindInternal
}
