package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-repair-console/pkg/interfaces"
)

type tokenSession struct{ token string }

func (s tokenSession) CurrentUser(context.Context) (interfaces.Principal, bool) {
	return interfaces.Principal{}, false
}

func (s tokenSession) Token(context.Context) string { return s.token }

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(srv.URL+"/api/", opts...)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return client
}

func TestNew_RequiresBaseURL(t *testing.T) {
	if _, err := New("  "); !goerrors.IsCategory(err, goerrors.CategoryBadInput) {
		t.Fatalf("expected bad input error, got %v", err)
	}
}

func TestRequest_HeadersAndEnvelope(t *testing.T) {
	var got *http.Request
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"data":[{"id":1,"name":"Jane"}],"pagination":{"pages":3,"page":2,"total":21}}`)
	}, WithSession(tokenSession{token: "secret"}), WithRequestIDs(func() string { return "req-1" }))

	resp, err := client.Get(context.Background(), "/customers", url.Values{"page": {"2"}, "limit": {"10"}})
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}

	if got.URL.Path != "/api/customers" {
		t.Errorf("unexpected path %q", got.URL.Path)
	}
	if got.URL.Query().Get("page") != "2" || got.URL.Query().Get("limit") != "10" {
		t.Errorf("unexpected query %q", got.URL.RawQuery)
	}
	if auth := got.Header.Get("Authorization"); auth != "Bearer secret" {
		t.Errorf("unexpected Authorization header %q", auth)
	}
	if id := got.Header.Get(RequestIDHeader); id != "req-1" {
		t.Errorf("unexpected request id %q", id)
	}

	if resp.Pagination == nil || resp.Pagination.Total != 21 || resp.Pagination.Pages != 3 {
		t.Errorf("unexpected pagination %+v", resp.Pagination)
	}
	var rows []map[string]any
	if err := resp.Decode(&rows); err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if len(rows) != 1 || rows[0]["name"] != "Jane" {
		t.Errorf("unexpected rows %v", rows)
	}
}

func TestRequest_NoTokenNoAuthorization(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("expected no Authorization header")
		}
		w.WriteHeader(http.StatusNoContent)
	}, WithSession(tokenSession{}))

	resp, err := client.Delete(context.Background(), "customers/4")
	if err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if resp.Status != http.StatusNoContent || resp.Data != nil {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestRequest_SendsJSONBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		body["id"] = 9
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"data": body})
	})

	resp, err := client.Post(context.Background(), "/customers", map[string]any{"name": "Jane Doe"})
	if err != nil {
		t.Fatalf("Post() error: %v", err)
	}
	var created map[string]any
	_ = resp.Decode(&created)
	if created["name"] != "Jane Doe" || created["id"] != float64(9) {
		t.Errorf("unexpected created record %v", created)
	}
}

func TestRequest_APIErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		category   goerrors.Category
		textCode   string
		message    string
		fieldCount int
	}{
		{
			name:       "field errors",
			status:     http.StatusBadRequest,
			body:       `{"message":"invalid","errors":[{"field":"manufacturer","message":"required"}]}`,
			category:   goerrors.CategoryValidation,
			textCode:   TextCodeFieldError,
			message:    "invalid",
			fieldCount: 1,
		},
		{
			name:     "unprocessable without fields",
			status:   http.StatusUnprocessableEntity,
			body:     `{"message":"cannot process"}`,
			category: goerrors.CategoryValidation,
			textCode: TextCodeAPIError,
			message:  "cannot process",
		},
		{
			name:     "not found",
			status:   http.StatusNotFound,
			body:     `{"message":"customer not found"}`,
			category: goerrors.CategoryNotFound,
			textCode: TextCodeAPIError,
			message:  "customer not found",
		},
		{
			name:     "unauthorized",
			status:   http.StatusUnauthorized,
			body:     `{"message":"token expired"}`,
			category: goerrors.CategoryAuth,
			textCode: TextCodeAPIError,
			message:  "token expired",
		},
		{
			name:     "server error with plain body",
			status:   http.StatusBadGateway,
			body:     `upstream down`,
			category: goerrors.CategoryExternal,
			textCode: TextCodeAPIError,
			message:  "upstream down",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := client.Post(context.Background(), "/machines/models", map[string]any{})
			if err == nil {
				t.Fatal("expected error")
			}
			if IsNetworkError(err) {
				t.Fatal("HTTP error statuses must not be network errors")
			}
			if !goerrors.IsCategory(err, tt.category) {
				t.Errorf("expected category %v, got %v", tt.category, err)
			}
			var wrapped *goerrors.Error
			if !errors.As(err, &wrapped) || wrapped.TextCode != tt.textCode {
				t.Errorf("expected text code %q, got %v", tt.textCode, err)
			}

			apiErr, ok := AsAPIError(err)
			if !ok {
				t.Fatalf("expected APIError, got %T", err)
			}
			if apiErr.Status != tt.status || apiErr.Message != tt.message {
				t.Errorf("unexpected api error %+v", apiErr)
			}
			if len(apiErr.FieldErrors) != tt.fieldCount {
				t.Errorf("expected %d field errors, got %d", tt.fieldCount, len(apiErr.FieldErrors))
			}
		})
	}
}

func TestRequest_NetworkErrors(t *testing.T) {
	t.Run("connection refused", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		base := srv.URL
		srv.Close()

		client, _ := New(base)
		_, err := client.Get(context.Background(), "/users", nil)
		if !IsNetworkError(err) {
			t.Fatalf("expected network error, got %v", err)
		}
		if !goerrors.IsCategory(err, goerrors.CategoryExternal) {
			t.Errorf("expected external category, got %v", err)
		}
		if _, ok := AsAPIError(err); ok {
			t.Error("network error must not carry an APIError")
		}
	})

	t.Run("timeout", func(t *testing.T) {
		release := make(chan struct{})
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}, WithTimeout(50*time.Millisecond))
		defer close(release)

		_, err := client.Get(context.Background(), "/inventory", nil)
		if !IsNetworkError(err) {
			t.Fatalf("expected network error on timeout, got %v", err)
		}
	})
}

func TestAPIError_FieldMap(t *testing.T) {
	apiErr := &APIError{Status: 400, FieldErrors: []FieldError{
		{Field: "email", Message: "taken"},
		{Field: "", Message: "ignored"},
		{Field: "email", Message: "invalid"},
	}}
	fields := apiErr.FieldMap()
	if len(fields) != 1 || fields["email"] != "invalid" {
		t.Errorf("unexpected field map %v", fields)
	}
}
