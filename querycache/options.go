package querycache

import (
	"time"

	"github.com/goliatone/go-repair-console/internal/logging"
	"github.com/goliatone/go-repair-console/pkg/interfaces"
)

// DefaultStaleTime is the age after which a successful entry is refetched.
const DefaultStaleTime = 60 * time.Second

// Option customizes a Cache.
type Option func(*Cache)

// WithStaleTime sets the staleness window. A value <= 0 disables age based
// staleness; entries then only go stale through invalidation.
func WithStaleTime(d time.Duration) Option {
	return func(c *Cache) {
		c.staleTime = d
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the cache logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func defaultLogger() interfaces.Logger { return logging.NoOp() }
