package console

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-repair-console/entity"
	"github.com/goliatone/go-repair-console/internal/logging"
	"github.com/goliatone/go-repair-console/pkg/interfaces"
)

// DefaultSearchLimit caps the hits returned per entity group.
const DefaultSearchLimit = 5

// GroupResult holds the hits of one entity group.
type GroupResult struct {
	Group   entity.Group
	Records []entity.Record
	Total   int
	Err     error
	ErrKind ErrorKind
}

// SearchView is a point-in-time copy of a search controller.
type SearchView struct {
	Term    string
	Loading bool
	Groups  []GroupResult
}

// SearchController runs one term against every entity group in parallel.
type SearchController struct {
	sources []EntitySource
	env     Env
	limit   int
	logger  interfaces.Logger

	mu      sync.Mutex
	term    string
	seq     uint64
	loading bool
	results []GroupResult
	closed  bool
}

// NewSearchController searches sources, keeping their order in results. A
// limit <= 0 uses DefaultSearchLimit.
func NewSearchController(sources []EntitySource, env Env, limit int) *SearchController {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	return &SearchController{
		sources: sources,
		env:     env,
		limit:   limit,
		logger:  logging.ModuleLogger(env.Logger, logging.SearchModule),
	}
}

// Search queries every group with term. An empty term clears the results
// without network calls. The search succeeds when any group succeeds.
func (c *SearchController) Search(ctx context.Context, term string) Outcome {
	term = strings.TrimSpace(term)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return failure(ErrClosed)
	}
	c.seq++
	seq := c.seq
	c.term = term
	if term == "" {
		c.results = nil
		c.loading = false
		c.mu.Unlock()
		return success(entity.Record{})
	}
	c.loading = true
	c.mu.Unlock()

	principal := c.env.principal(ctx)
	params := entity.QueryParams{Page: 1, Limit: c.limit, Search: term}
	results := make([]GroupResult, len(c.sources))

	var g errgroup.Group
	for i, source := range c.sources {
		g.Go(func() error {
			d := source.Descriptor()
			result := GroupResult{Group: d.Group}
			page, err := source.List(ctx, params)
			if err != nil {
				result.Err = err
				result.ErrKind = Classify(err)
			} else {
				for _, rec := range page.Records {
					if d.Permissions.CanView(principal, rec) {
						result.Records = append(result.Records, rec)
					}
				}
				result.Total = page.Pagination.Total
			}
			results[i] = result
			return nil
		})
	}
	_ = g.Wait()

	var firstErr error
	succeeded := 0
	for _, r := range results {
		if r.Err == nil {
			succeeded++
		} else if firstErr == nil {
			firstErr = r.Err
		}
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return failure(ErrClosed)
	}
	if seq != c.seq {
		// a newer search owns the results
		c.mu.Unlock()
		return success(entity.Record{})
	}
	c.results = results
	c.loading = false
	c.mu.Unlock()

	if succeeded == 0 && firstErr != nil {
		c.logger.Warn("console.search.failed", "term", term, "error", firstErr)
		c.env.notify(ctx, interfaces.NotificationError, c.env.translate(MsgLoadFailed), c.env.errorMessage(firstErr))
		return failure(firstErr)
	}
	return success(entity.Record{})
}

// View returns a copy of the controller state.
func (c *SearchController) View() SearchView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return SearchView{
		Term:    c.term,
		Loading: c.loading,
		Groups:  append([]GroupResult(nil), c.results...),
	}
}

// Close drops the results; in-flight searches are ignored.
func (c *SearchController) Close() {
	c.mu.Lock()
	c.closed = true
	c.results = nil
	c.mu.Unlock()
}
