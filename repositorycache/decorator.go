package repositorycache

import (
	"context"

	"github.com/goliatone/go-repair-console/cache"
	"github.com/goliatone/go-repair-console/entity"
	"github.com/goliatone/go-repair-console/internal/logging"
	"github.com/goliatone/go-repair-console/pkg/interfaces"
	"github.com/goliatone/go-repair-console/querycache"
	"github.com/goliatone/go-repair-console/resource"
)

// Interface assertion to ensure CachedRepository implements resource.Repository
var _ resource.Repository = (*CachedRepository)(nil)

// Invalidator runs the cache invalidation that follows a successful write.
type Invalidator interface {
	InvalidateEntity(ctx context.Context, group entity.Group) error
}

// Option customizes a CachedRepository or CachedDashboard.
type Option func(*options)

type options struct {
	logger interfaces.Logger
}

// WithLogger sets the decorator logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: logging.NoOp()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// CachedRepository decorates a base repository with the query cache
type CachedRepository struct {
	base        resource.Repository
	cache       *querycache.Cache
	invalidator Invalidator
	descriptor  entity.Descriptor
	logger      interfaces.Logger
}

// New creates a new CachedRepository that wraps the base repository with caching
func New(base resource.Repository, qc *querycache.Cache, invalidator Invalidator, opts ...Option) *CachedRepository {
	o := buildOptions(opts)
	return &CachedRepository{
		base:        base,
		cache:       qc,
		invalidator: invalidator,
		descriptor:  base.Descriptor(),
		logger:      o.logger,
	}
}

func (c *CachedRepository) Descriptor() entity.Descriptor { return c.descriptor }

// ListKey returns the cache key for a list query. Params are normalized so
// equivalent queries share an entry.
func (c *CachedRepository) ListKey(params entity.QueryParams) querycache.Key {
	return querycache.Key{
		Group:  c.descriptor.Group.String(),
		Scope:  querycache.ScopeList,
		Params: params.Normalize(c.descriptor.Limit()),
	}
}

// DetailKey returns the cache key for one record.
func (c *CachedRepository) DetailKey(id int64) querycache.Key {
	return querycache.Key{Group: c.descriptor.Group.String(), Scope: querycache.ScopeDetail, Params: id}
}

// ReferenceKey returns the cache key for the select dataset.
func (c *CachedRepository) ReferenceKey() querycache.Key {
	return querycache.Key{Group: c.descriptor.Group.String(), Scope: querycache.ScopeReference}
}

// List retrieves a page through the query cache
func (c *CachedRepository) List(ctx context.Context, params entity.QueryParams) (entity.Page, error) {
	return fetchAs[entity.Page](ctx, c.cache, c.ListKey(params), c.listLoader(params))
}

// Get retrieves one record through the query cache
func (c *CachedRepository) Get(ctx context.Context, id int64) (entity.Record, error) {
	return fetchAs[entity.Record](ctx, c.cache, c.DetailKey(id), c.detailLoader(id))
}

// Reference retrieves the select dataset through the query cache
func (c *CachedRepository) Reference(ctx context.Context) ([]entity.Record, error) {
	if c.descriptor.Reference == nil {
		return nil, nil
	}
	return fetchAs[[]entity.Record](ctx, c.cache, c.ReferenceKey(), c.referenceLoader())
}

// Create passes through to the base repository, then invalidates
func (c *CachedRepository) Create(ctx context.Context, body map[string]any) (entity.Record, error) {
	result, err := c.base.Create(ctx, body)
	if err == nil {
		c.invalidateAfterWrite(ctx, "create")
	}
	return result, err
}

// Update passes through to the base repository, then invalidates
func (c *CachedRepository) Update(ctx context.Context, id int64, body map[string]any) (entity.Record, error) {
	result, err := c.base.Update(ctx, id, body)
	if err == nil {
		c.invalidateAfterWrite(ctx, "update")
	}
	return result, err
}

// Delete passes through to the base repository, then invalidates
func (c *CachedRepository) Delete(ctx context.Context, id int64) error {
	err := c.base.Delete(ctx, id)
	if err == nil {
		c.invalidateAfterWrite(ctx, "delete")
	}
	return err
}

// ObserveList mounts a consumer of a list query.
func (c *CachedRepository) ObserveList(params entity.QueryParams, onChange func(querycache.Entry)) *querycache.Observer {
	return c.cache.Observe(c.ListKey(params), c.listLoader(params), onChange)
}

// ObserveDetail mounts a consumer of one record.
func (c *CachedRepository) ObserveDetail(id int64, onChange func(querycache.Entry)) *querycache.Observer {
	return c.cache.Observe(c.DetailKey(id), c.detailLoader(id), onChange)
}

// ObserveReference mounts a consumer of the select dataset.
func (c *CachedRepository) ObserveReference(onChange func(querycache.Entry)) *querycache.Observer {
	return c.cache.Observe(c.ReferenceKey(), c.referenceLoader(), onChange)
}

// invalidateAfterWrite waits for the coordinator. The write already
// succeeded, so failures are logged and not returned.
func (c *CachedRepository) invalidateAfterWrite(ctx context.Context, op string) {
	if c.invalidator == nil {
		return
	}
	if err := c.invalidator.InvalidateEntity(ctx, c.descriptor.Group); err != nil {
		c.logger.Warn("repositorycache.invalidate_failed",
			"group", c.descriptor.Group.String(),
			"op", op,
			"error", err,
		)
	}
}

func (c *CachedRepository) listLoader(params entity.QueryParams) querycache.Loader {
	return func(ctx context.Context) (any, error) {
		return c.base.List(ctx, params)
	}
}

func (c *CachedRepository) detailLoader(id int64) querycache.Loader {
	return func(ctx context.Context) (any, error) {
		return c.base.Get(ctx, id)
	}
}

func (c *CachedRepository) referenceLoader() querycache.Loader {
	return func(ctx context.Context) (any, error) {
		return c.base.Reference(ctx)
	}
}

// CachedDashboard serves the dashboard stats through the query cache.
type CachedDashboard struct {
	source resource.StatsSource
	cache  *querycache.Cache
}

var _ resource.StatsSource = (*CachedDashboard)(nil)

// NewDashboard wraps source.
func NewDashboard(source resource.StatsSource, qc *querycache.Cache) *CachedDashboard {
	return &CachedDashboard{source: source, cache: qc}
}

// StatsKey is the single dashboard entry.
func StatsKey() querycache.Key {
	return querycache.Key{Group: entity.Dashboard.String(), Scope: querycache.ScopeStats}
}

func (d *CachedDashboard) Stats(ctx context.Context) (entity.Stats, error) {
	return fetchAs[entity.Stats](ctx, d.cache, StatsKey(), d.loader())
}

// ObserveStats mounts a consumer of the dashboard stats.
func (d *CachedDashboard) ObserveStats(onChange func(querycache.Entry)) *querycache.Observer {
	return d.cache.Observe(StatsKey(), d.loader(), onChange)
}

func (d *CachedDashboard) loader() querycache.Loader {
	return func(ctx context.Context) (any, error) {
		return d.source.Stats(ctx)
	}
}

// fetchAs runs a query cache fetch and asserts the entry data to T.
func fetchAs[T any](ctx context.Context, qc *querycache.Cache, key querycache.Key, loader querycache.Loader) (T, error) {
	var zero T
	entry, err := qc.Fetch(ctx, key, loader)
	if err != nil {
		return zero, err
	}
	return DataAs[T](entry)
}

// DataAs returns the entry data as T. An entry that never loaded yields the
// zero value.
func DataAs[T any](entry querycache.Entry) (T, error) {
	var zero T
	if entry.Data == nil {
		return zero, nil
	}
	typed, ok := entry.Data.(T)
	if !ok {
		return zero, cache.ErrInvalidResultType
	}
	return typed, nil
}
