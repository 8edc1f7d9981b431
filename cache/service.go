package cache

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

// ErrInvalidResultType is returned by GetOrFetch when the cached value does not
// match the type requested by the caller.
var ErrInvalidResultType = goerrors.New("cache: cached value has unexpected type", goerrors.CategoryInternal).
	WithTextCode("CACHE_INVALID_RESULT_TYPE")

// KeySerializer builds a cache key from a key prefix plus arbitrary args.
// Implementations must return the same key for equal arguments so two
// screens asking for the same query share one cache slot.
type KeySerializer interface {
	SerializeKey(prefix string, args ...any) string
}

// FetchFn is the function signature CacheService expects when loading from the backend.
type FetchFn[T any] func(ctx context.Context) (T, error)

// CacheService is the key/value store that backs the query cache.
// The store owns capacity and time-to-live; freshness and observers are
// handled one level up in the querycache package.
type CacheService interface {
	GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error)
	Get(ctx context.Context, key string) (any, bool)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
	DeleteMatching(ctx context.Context, match func(key string) bool) error
	InvalidateKeys(ctx context.Context, keys []string) error
	Keys(ctx context.Context) []string
	Size() int
}

// GetOrFetch is a type-safe wrapper around CacheService.GetOrFetch.
func GetOrFetch[T any](ctx context.Context, service CacheService, key string, fetchFn FetchFn[T]) (T, error) {
	var zero T

	result, err := service.GetOrFetch(ctx, key, fetchFn)
	if err != nil {
		return zero, err
	}
	if result == nil {
		return zero, nil
	}

	typed, ok := result.(T)
	if !ok {
		return zero, ErrInvalidResultType
	}
	return typed, nil
}

// Get is the typed counterpart of CacheService.Get. A value of the wrong type
// is reported as a miss.
func Get[T any](ctx context.Context, service CacheService, key string) (T, bool) {
	var zero T

	result, ok := service.Get(ctx, key)
	if !ok || result == nil {
		return zero, false
	}

	typed, ok := result.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
