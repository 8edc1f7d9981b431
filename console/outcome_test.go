package console

import (
	"errors"
	"fmt"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-repair-console/apiclient"
	"github.com/goliatone/go-repair-console/querycache"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{name: "nil", err: nil, want: KindNone},
		{name: "local validation", err: &ValidationError{Fields: map[string]string{"name": "required"}}, want: KindValidation},
		{name: "network", err: fmt.Errorf("load: %w", &apiclient.NetworkError{Op: "GET", URL: "http://x", Err: errors.New("refused")}), want: KindNetwork},
		{name: "api field", err: &apiclient.APIError{Status: 422, FieldErrors: []apiclient.FieldError{{Field: "email", Message: "taken"}}}, want: KindAPIField},
		{name: "api general", err: &apiclient.APIError{Status: 500, Message: "boom"}, want: KindAPIGeneral},
		{name: "not permitted", err: ErrNotPermitted, want: KindPermission},
		{name: "closed controller", err: ErrClosed, want: KindInternal},
		{name: "closed cache", err: querycache.ErrClosed, want: KindInternal},
		{name: "validation category", err: goerrors.New("bad", goerrors.CategoryValidation), want: KindValidation},
		{name: "auth category", err: goerrors.New("nope", goerrors.CategoryAuth), want: KindPermission},
		{name: "external category", err: goerrors.New("down", goerrors.CategoryExternal), want: KindAPIGeneral},
		{name: "plain", err: errors.New("whatever"), want: KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"phone": "x", "email": "y"}}
	if got := err.Error(); got != "console: invalid fields: email, phone" {
		t.Errorf("Error() = %q", got)
	}
}
