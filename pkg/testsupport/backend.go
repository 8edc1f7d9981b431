package testsupport

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

// Call is one request received by the fake backend.
type Call struct {
	Method string
	Path   string
	Query  url.Values
	Body   map[string]any
	Header http.Header
}

// FieldError mirrors the error envelope entries.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Failure is an injected error response.
type Failure struct {
	Status  int
	Message string
	Errors  []FieldError
	// Times limits how often the failure fires. Zero means always.
	Times int
}

type failureState struct {
	Failure
	fired int
}

// FakeBackend is an in-memory REST backend served by gin. It speaks the
// console envelope, records every call, and can inject failures or hold
// requests open.
type FakeBackend struct {
	mu          sync.Mutex
	server      *httptest.Server
	collections map[string][]map[string]any
	nextID      int64
	calls       []Call
	failures    map[string]*failureState
	holds       map[string]chan struct{}
	stats       map[string]any
	changed     chan struct{}
	now         func() time.Time
}

// NewFakeBackend starts a backend that is closed with the test.
func NewFakeBackend(t testing.TB) *FakeBackend {
	t.Helper()
	gin.SetMode(gin.TestMode)

	b := &FakeBackend{
		collections: map[string][]map[string]any{},
		failures:    map[string]*failureState{},
		holds:       map[string]chan struct{}{},
		changed:     make(chan struct{}),
		now:         time.Now,
	}

	engine := gin.New()
	engine.Any("/*path", b.handle)
	b.server = httptest.NewServer(engine)
	t.Cleanup(b.Close)
	return b
}

// URL is the base URL to hand to the API client.
func (b *FakeBackend) URL() string { return b.server.URL }

// Close releases held requests and stops the server.
func (b *FakeBackend) Close() {
	b.mu.Lock()
	for key, ch := range b.holds {
		close(ch)
		delete(b.holds, key)
	}
	b.mu.Unlock()
	b.server.Close()
}

// Seed appends records to collection. Records without an id get one.
func (b *FakeBackend) Seed(collection string, records ...map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()

	collection = cleanPath(collection)
	if _, ok := b.collections[collection]; !ok {
		b.collections[collection] = nil
	}
	for _, rec := range records {
		copied := make(map[string]any, len(rec)+1)
		for k, v := range rec {
			copied[k] = v
		}
		if id := idOf(copied); id > 0 {
			if id > b.nextID {
				b.nextID = id
			}
			copied["id"] = id
		} else {
			b.nextID++
			copied["id"] = b.nextID
		}
		b.collections[collection] = append(b.collections[collection], copied)
	}
}

// Records returns a copy of a collection.
func (b *FakeBackend) Records(collection string) []map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	src := b.collections[cleanPath(collection)]
	out := make([]map[string]any, len(src))
	for i, rec := range src {
		copied := make(map[string]any, len(rec))
		for k, v := range rec {
			copied[k] = v
		}
		out[i] = copied
	}
	return out
}

// SetStats replaces the dashboard payload. Without it the dashboard
// reports one count per collection.
func (b *FakeBackend) SetStats(stats map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stats = stats
}

// Fail injects a failure for method and path.
func (b *FakeBackend) Fail(method, path string, failure Failure) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[callKey(method, path)] = &failureState{Failure: failure}
}

// ClearFailures removes every injected failure.
func (b *FakeBackend) ClearFailures() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = map[string]*failureState{}
}

// Block holds matching requests open until release is called. The request
// is recorded before it blocks.
func (b *FakeBackend) Block(method, path string) (release func()) {
	ch := make(chan struct{})
	key := callKey(method, path)

	b.mu.Lock()
	b.holds[key] = ch
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			if current, ok := b.holds[key]; ok && current == ch {
				delete(b.holds, key)
				close(ch)
			}
			b.mu.Unlock()
		})
	}
}

// Calls returns a copy of every recorded call.
func (b *FakeBackend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.calls...)
}

// CallCount counts calls for method and path. An empty method matches any.
func (b *FakeBackend) CallCount(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.countLocked(method, path)
}

// CountMethod counts calls of method regardless of path.
func (b *FakeBackend) CountMethod(method string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	count := 0
	for _, call := range b.calls {
		if call.Method == method {
			count++
		}
	}
	return count
}

// LastCall returns the most recent call for method and path.
func (b *FakeBackend) LastCall(method, path string) (Call, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	path = cleanPath(path)
	for i := len(b.calls) - 1; i >= 0; i-- {
		if matches(b.calls[i], method, path) {
			return b.calls[i], true
		}
	}
	return Call{}, false
}

// WaitForCalls blocks until at least n calls for method and path were
// recorded or timeout elapses.
func (b *FakeBackend) WaitForCalls(method, path string, n int, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		b.mu.Lock()
		count := b.countLocked(method, path)
		changed := b.changed
		b.mu.Unlock()

		if count >= n {
			return true
		}
		select {
		case <-changed:
		case <-deadline.C:
			return false
		}
	}
}

// ResetCalls forgets recorded calls.
func (b *FakeBackend) ResetCalls() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = nil
}

func (b *FakeBackend) countLocked(method, path string) int {
	path = cleanPath(path)
	count := 0
	for _, call := range b.calls {
		if matches(call, method, path) {
			count++
		}
	}
	return count
}

func (b *FakeBackend) handle(c *gin.Context) {
	path := cleanPath(c.Param("path"))
	method := c.Request.Method

	var body map[string]any
	if raw, err := io.ReadAll(c.Request.Body); err == nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid json"})
			return
		}
	}

	b.mu.Lock()
	b.calls = append(b.calls, Call{
		Method: method,
		Path:   path,
		Query:  c.Request.URL.Query(),
		Body:   body,
		Header: c.Request.Header.Clone(),
	})
	close(b.changed)
	b.changed = make(chan struct{})
	hold := b.holds[callKey(method, path)]
	b.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-c.Request.Context().Done():
			return
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if failure, ok := b.failures[callKey(method, path)]; ok {
		if failure.Times == 0 || failure.fired < failure.Times {
			failure.fired++
			payload := gin.H{"message": failure.Message}
			if len(failure.Errors) > 0 {
				payload["errors"] = failure.Errors
			}
			c.JSON(failure.Status, payload)
			return
		}
	}

	if path == "/dashboard/stats" && method == http.MethodGet {
		c.JSON(http.StatusOK, gin.H{"data": b.statsLocked()})
		return
	}

	collection, id := splitItemPath(path)
	if id > 0 {
		b.handleItem(c, collection, id, body)
		return
	}
	b.handleCollection(c, path, body)
}

func (b *FakeBackend) handleCollection(c *gin.Context, collection string, body map[string]any) {
	switch c.Request.Method {
	case http.MethodGet:
		b.list(c, collection)
	case http.MethodPost:
		rec := make(map[string]any, len(body)+3)
		for k, v := range body {
			rec[k] = v
		}
		b.nextID++
		now := b.now().UTC().Format(time.RFC3339)
		rec["id"] = b.nextID
		rec["created_at"] = now
		rec["updated_at"] = now
		b.collections[collection] = append(b.collections[collection], rec)
		c.JSON(http.StatusCreated, gin.H{"data": rec})
	default:
		c.JSON(http.StatusMethodNotAllowed, gin.H{"message": "method not allowed"})
	}
}

func (b *FakeBackend) handleItem(c *gin.Context, collection string, id int64, body map[string]any) {
	records := b.collections[collection]
	idx := -1
	for i, rec := range records {
		if idOf(rec) == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "not found"})
		return
	}

	switch c.Request.Method {
	case http.MethodGet:
		c.JSON(http.StatusOK, gin.H{"data": records[idx]})
	case http.MethodPut, http.MethodPatch:
		updated := make(map[string]any, len(records[idx])+len(body))
		for k, v := range records[idx] {
			updated[k] = v
		}
		for k, v := range body {
			if k == "id" {
				continue
			}
			updated[k] = v
		}
		updated["updated_at"] = b.now().UTC().Format(time.RFC3339)
		records[idx] = updated
		c.JSON(http.StatusOK, gin.H{"data": updated})
	case http.MethodDelete:
		b.collections[collection] = append(records[:idx:idx], records[idx+1:]...)
		c.Status(http.StatusNoContent)
	default:
		c.JSON(http.StatusMethodNotAllowed, gin.H{"message": "method not allowed"})
	}
}

func (b *FakeBackend) list(c *gin.Context, collection string) {
	query := c.Request.URL.Query()
	page := atoiDefault(query.Get("page"), 1)
	limit := atoiDefault(query.Get("limit"), 10)
	search := strings.ToLower(strings.TrimSpace(query.Get("search")))

	var matched []map[string]any
	for _, rec := range b.collections[collection] {
		if search != "" && !containsText(rec, search) {
			continue
		}
		if !matchesFilters(rec, query) {
			continue
		}
		matched = append(matched, rec)
	}
	sort.SliceStable(matched, func(i, j int) bool { return idOf(matched[i]) < idOf(matched[j]) })

	total := len(matched)
	pages := (total + limit - 1) / limit
	if pages == 0 {
		pages = 1
	}
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	data := matched[start:end]
	if data == nil {
		data = []map[string]any{}
	}
	c.JSON(http.StatusOK, gin.H{
		"data":       data,
		"pagination": gin.H{"pages": pages, "page": page, "total": total},
	})
}

func (b *FakeBackend) statsLocked() map[string]any {
	if b.stats != nil {
		return b.stats
	}
	out := make(map[string]any, len(b.collections))
	for collection, records := range b.collections {
		name := strings.ReplaceAll(strings.Trim(collection, "/"), "/", "_")
		out[name] = len(records)
	}
	return out
}

func splitItemPath(path string) (string, int64) {
	idx := strings.LastIndex(path, "/")
	if idx <= 0 {
		return path, 0
	}
	id, err := strconv.ParseInt(path[idx+1:], 10, 64)
	if err != nil {
		return path, 0
	}
	return path[:idx], id
}

func containsText(rec map[string]any, needle string) bool {
	for key, value := range rec {
		if key == "id" {
			continue
		}
		if s, ok := value.(string); ok && strings.Contains(strings.ToLower(s), needle) {
			return true
		}
	}
	return false
}

func matchesFilters(rec map[string]any, query url.Values) bool {
	for name, values := range query {
		switch name {
		case "page", "limit", "search":
			continue
		}
		if len(values) == 0 || values[0] == "" {
			continue
		}
		if fmt.Sprint(rec[name]) != values[0] {
			return false
		}
	}
	return true
}

func idOf(rec map[string]any) int64 {
	switch v := rec["id"].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	case json.Number:
		i, _ := v.Int64()
		return i
	default:
		return 0
	}
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func cleanPath(path string) string {
	return "/" + strings.Trim(path, "/")
}

func callKey(method, path string) string {
	return strings.ToUpper(method) + " " + cleanPath(path)
}

func matches(call Call, method, path string) bool {
	if method != "" && call.Method != strings.ToUpper(method) {
		return false
	}
	return path == "" || path == "/" || call.Path == path
}
