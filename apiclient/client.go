package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"

	"github.com/goliatone/go-repair-console/internal/logging"
	"github.com/goliatone/go-repair-console/pkg/interfaces"
)

// DefaultTimeout bounds a single request when no HTTP client is supplied.
const DefaultTimeout = 15 * time.Second

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-ID"

const maxErrorBody = 1 << 20

// Pagination is the optional pagination block of the response envelope.
type Pagination struct {
	Pages int `json:"pages"`
	Page  int `json:"page"`
	Total int `json:"total"`
}

// Response is a decoded 2xx envelope. Data is nil for empty bodies.
type Response struct {
	Status     int
	Data       json.RawMessage
	Pagination *Pagination
}

// Decode unmarshals Data into out. An empty payload leaves out untouched.
func (r *Response) Decode(out any) error {
	if r == nil || len(r.Data) == 0 || string(r.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(r.Data, out); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryExternal, "api: decode response data").
			WithTextCode("API_DECODE_FAILED")
	}
	return nil
}

// RequestOptions holds the query parameters and JSON body of a request.
type RequestOptions struct {
	Params url.Values
	Body   any
}

type envelope struct {
	Data       json.RawMessage `json:"data"`
	Pagination *Pagination     `json:"pagination,omitempty"`
}

type errorEnvelope struct {
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// Client issues JSON requests against the console REST backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    interfaces.SessionProvider
	requestID  func() string
	logger     interfaces.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithSession sets the source of the bearer token.
func WithSession(session interfaces.SessionProvider) Option {
	return func(c *Client) {
		c.session = session
	}
}

// WithLogger sets the client logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRequestIDs overrides the X-Request-ID generator.
func WithRequestIDs(gen func() string) Option {
	return func(c *Client) {
		if gen != nil {
			c.requestID = gen
		}
	}
}

// New builds a client for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, goerrors.New("api: base url is required", goerrors.CategoryBadInput).
			WithTextCode("API_BASE_URL_REQUIRED")
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "api: invalid base url").
			WithTextCode("API_BASE_URL_INVALID")
	}

	c := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		requestID:  uuid.NewString,
		logger:     logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) Get(ctx context.Context, path string, params url.Values) (*Response, error) {
	return c.Request(ctx, http.MethodGet, path, RequestOptions{Params: params})
}

func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Request(ctx, http.MethodPost, path, RequestOptions{Body: body})
}

func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Request(ctx, http.MethodPut, path, RequestOptions{Body: body})
}

func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Request(ctx, http.MethodDelete, path, RequestOptions{})
}

// Request sends one request. 4xx/5xx responses come back as a wrapped
// *APIError; transport failures as a wrapped *NetworkError.
func (c *Client) Request(ctx context.Context, method, path string, opts RequestOptions) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	target := c.resolve(path, opts.Params)
	requestID := c.requestID()
	logger := logging.WithFields(logging.FromContext(ctx, c.logger), map[string]any{
		"method":     method,
		"path":       path,
		"request_id": requestID,
	})

	var body io.Reader
	if opts.Body != nil {
		payload, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "api: encode request body").
				WithTextCode("API_ENCODE_FAILED")
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "api: build request").
			WithTextCode("API_REQUEST_INVALID")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(RequestIDHeader, requestID)
	if c.session != nil {
		if token := c.session.Token(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warn("api.request.network_error", "error", err)
		return nil, wrapNetworkError(method, target, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody*8))
	if err != nil {
		logger.Warn("api.response.read_failed", "error", err)
		return nil, wrapNetworkError(method, target, err)
	}

	logger.Debug("api.request.completed", "status", resp.StatusCode, "duration", time.Since(started))

	if resp.StatusCode >= 400 {
		apiErr := decodeError(resp.StatusCode, raw)
		logger.Info("api.request.failed", "status", resp.StatusCode, "field_errors", len(apiErr.FieldErrors))
		return nil, wrapAPIError(apiErr)
	}

	out := &Response{Status: resp.StatusCode}
	if len(bytes.TrimSpace(raw)) == 0 {
		return out, nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryExternal, "api: decode response envelope").
			WithTextCode("API_DECODE_FAILED")
	}
	out.Data = env.Data
	out.Pagination = env.Pagination
	return out, nil
}

func (c *Client) resolve(path string, params url.Values) string {
	target := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	return target
}

// decodeError reads the error envelope. A body that is not JSON becomes the
// message verbatim.
func decodeError(status int, raw []byte) *APIError {
	apiErr := &APIError{Status: status}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return apiErr
	}
	if len(trimmed) > maxErrorBody {
		trimmed = trimmed[:maxErrorBody]
	}

	var env errorEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		apiErr.Message = string(trimmed)
		return apiErr
	}
	apiErr.Message = env.Message
	apiErr.FieldErrors = env.Errors
	return apiErr
}
