// Package invalidation maps entity mutations onto the query cache entries
// they make stale.
package invalidation

import (
	"context"
	"slices"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-repair-console/entity"
	"github.com/goliatone/go-repair-console/internal/logging"
	"github.com/goliatone/go-repair-console/pkg/interfaces"
	"github.com/goliatone/go-repair-console/querycache"
)

// TextCodeUnknownGroup marks an invalidation request for an unmapped group.
const TextCodeUnknownGroup = "INVALIDATION_UNKNOWN_GROUP"

// Invalidator is the part of the query cache the coordinator drives.
type Invalidator interface {
	Invalidate(ctx context.Context, predicate func(querycache.Key) bool) error
}

// GroupKeys names the cache scopes an entity mutation touches.
type GroupKeys struct {
	Group       entity.Group
	ListScope   querycache.Scope
	DetailScope querycache.Scope
}

// Matches reports whether key belongs to the list or detail scope.
func (g GroupKeys) Matches(key querycache.Key) bool {
	if key.Group != g.Group.String() {
		return false
	}
	return key.Scope == g.ListScope || key.Scope == g.DetailScope
}

// DefaultKeys returns the mapping for every entity group.
func DefaultKeys() map[entity.Group]GroupKeys {
	keys := make(map[entity.Group]GroupKeys, len(entity.EntityGroups()))
	for _, group := range entity.EntityGroups() {
		keys[group] = GroupKeys{
			Group:       group,
			ListScope:   querycache.ScopeList,
			DetailScope: querycache.ScopeDetail,
		}
	}
	return keys
}

// Coordinator invalidates an entity's own entries and then the dashboard.
type Coordinator struct {
	cache  Invalidator
	keys   map[entity.Group]GroupKeys
	logger interfaces.Logger
}

// Option customizes a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the coordinator logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithKeys replaces the group mapping.
func WithKeys(keys map[entity.Group]GroupKeys) Option {
	return func(c *Coordinator) {
		if keys != nil {
			c.keys = keys
		}
	}
}

func NewCoordinator(cache Invalidator, opts ...Option) *Coordinator {
	c := &Coordinator{
		cache:  cache,
		keys:   DefaultKeys(),
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// KeysFor returns the mapping for group.
func (c *Coordinator) KeysFor(group entity.Group) (GroupKeys, bool) {
	keys, ok := c.keys[group]
	return keys, ok
}

// Groups lists the mapped groups in a stable order.
func (c *Coordinator) Groups() []entity.Group {
	groups := make([]entity.Group, 0, len(c.keys))
	for group := range c.keys {
		groups = append(groups, group)
	}
	slices.Sort(groups)
	return groups
}

// InvalidateEntity invalidates the list and detail entries of group, then
// the dashboard stats. Both steps complete before it returns.
func (c *Coordinator) InvalidateEntity(ctx context.Context, group entity.Group) error {
	keys, ok := c.keys[group]
	if !ok {
		return goerrors.New("invalidation: no cache mapping for group "+group.String(), goerrors.CategoryBadInput).
			WithTextCode(TextCodeUnknownGroup)
	}

	if err := c.cache.Invalidate(ctx, keys.Matches); err != nil {
		return err
	}
	if err := c.cache.Invalidate(ctx, isDashboard); err != nil {
		return err
	}

	c.logger.Debug("invalidation.entity", "group", group.String())
	return nil
}

func isDashboard(key querycache.Key) bool {
	return key.Group == entity.Dashboard.String() && key.Scope == querycache.ScopeStats
}
