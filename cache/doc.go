// Package cache provides the key/value store and key serialization that back
// the console's query cache.
//
// # Overview
//
// This package exports two main interfaces and their default implementations:
//
//   - CacheService: a capacity and TTL bounded store with read-through
//     GetOrFetch plus the delete helpers used by invalidation
//   - KeySerializer: builds stable cache keys from a prefix and arguments
//
// The store is deliberately dumb. It does not know about freshness, loading
// states or observers; those live in the querycache package, which keeps a
// snapshot per key and uses this store to hold the latest response.
//
// # Basic Usage
//
//	store, err := cache.NewCacheService(cache.DefaultConfig())
//	serializer := cache.NewDefaultKeySerializer()
//	key := serializer.SerializeKey("customers::list", params)
//
//	page, err := cache.GetOrFetch(ctx, store, key, func(ctx context.Context) (entity.Page, error) {
//		return repo.List(ctx, params)
//	})
//
// # Key Serialization Strategy
//
// The default serializer renders arguments the way a query string would
// read:
//
//   - Basic types: direct string representation
//   - Structs: exported, non-zero fields as name=value pairs, sorted, using
//     the json tag name or the snake_case field name
//   - Maps: non-zero entries as key=value pairs, sorted, wrapped in braces
//   - Slices/arrays: elements in order, wrapped in brackets
//   - Functions and channels: pointer identity, stable only within a process
//
// Skipping zero values means QueryParams{Page: 1} and
// QueryParams{Page: 1, Filters: map[string]string{}} share a key. Segments
// longer than DefaultHashThreshold are replaced by their xxhash digest so
// keys stay short while the group and scope prefix remain readable for
// prefix invalidation.
package cache
