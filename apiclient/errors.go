package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeFieldError   = "API_FIELD_ERROR"
	TextCodeAPIError     = "API_ERROR"
	TextCodeNetworkError = "NETWORK_ERROR"
)

// FieldError is a server-reported message bound to one input.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError is a 4xx/5xx response decoded from the error envelope.
type APIError struct {
	Status      int
	Message     string
	FieldErrors []FieldError
}

func (e *APIError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if len(e.FieldErrors) > 0 {
		return fmt.Sprintf("api: %d %s (%d field errors)", e.Status, msg, len(e.FieldErrors))
	}
	return fmt.Sprintf("api: %d %s", e.Status, msg)
}

// HasFieldErrors reports whether the server attached per-field detail.
func (e *APIError) HasFieldErrors() bool {
	return e != nil && len(e.FieldErrors) > 0
}

// FieldMap returns the field errors keyed by field name. The last message
// for a repeated field wins.
func (e *APIError) FieldMap() map[string]string {
	if e == nil || len(e.FieldErrors) == 0 {
		return nil
	}
	out := make(map[string]string, len(e.FieldErrors))
	for _, fe := range e.FieldErrors {
		if fe.Field == "" {
			continue
		}
		out[fe.Field] = fe.Message
	}
	return out
}

// NetworkError is a transport failure: timeout, DNS, refused connection or
// a cancelled context. It never carries field detail.
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// AsAPIError extracts the APIError carried by err, if any.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsNetworkError reports whether err is a transport failure.
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

func categoryForStatus(status int, hasFields bool) goerrors.Category {
	switch {
	case hasFields || status == http.StatusUnprocessableEntity:
		return goerrors.CategoryValidation
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return goerrors.CategoryAuth
	case status == http.StatusNotFound:
		return goerrors.CategoryNotFound
	case status >= 500:
		return goerrors.CategoryExternal
	default:
		return goerrors.CategoryBadInput
	}
}

func wrapAPIError(apiErr *APIError) error {
	code := TextCodeAPIError
	if apiErr.HasFieldErrors() {
		code = TextCodeFieldError
	}
	return goerrors.Wrap(apiErr, categoryForStatus(apiErr.Status, apiErr.HasFieldErrors()), apiErr.Error()).
		WithCode(apiErr.Status).
		WithTextCode(code)
}

func wrapNetworkError(op, url string, err error) error {
	netErr := &NetworkError{Op: op, URL: url, Err: err}
	return goerrors.Wrap(netErr, goerrors.CategoryExternal, netErr.Error()).
		WithTextCode(TextCodeNetworkError)
}
