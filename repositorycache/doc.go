// Package repositorycache provides cached decorators for resource repositories.
//
// # Overview
//
// CachedRepository wraps a resource.Repository. Read operations go through the
// query cache; write operations go straight to the base repository and, when
// they succeed, run the invalidation coordinator before returning.
//
// # Basic Usage
//
//	base := resource.NewRESTRepository(client, entity.CustomerDescriptor())
//	qc := querycache.New(store, cache.NewDefaultKeySerializer())
//	coordinator := invalidation.NewCoordinator(qc)
//
//	customers := repositorycache.New(base, qc, coordinator)
//	page, err := customers.List(ctx, entity.QueryParams{Page: 1})
//
// # Cached vs Pass-through Operations
//
// ## Cached Operations (Read-only)
//
//   - List, keyed by group::list plus the normalized query params
//   - Get, keyed by group::detail plus the record id
//   - Reference, keyed by group::reference
//   - CachedDashboard.Stats, keyed by dashboard::stats
//
// ## Pass-through Operations
//
//   - Create, Update, Delete
//
// # Invalidation
//
// A successful write invalidates the entity's list and detail entries, then
// the dashboard stats. Observed entries are refetched before the write
// returns, so a screen navigating after a write finds fresh data. An
// invalidation failure is logged; the write result is returned unchanged.
//
// # Observers
//
// ObserveList, ObserveDetail, ObserveReference and ObserveStats register a
// mounted consumer. The observer receives every entry transition until it is
// closed, including the refetches triggered by invalidation.
//
// # Error Handling
//
// Errors from the base repository are propagated unchanged. A cached value of
// the wrong type yields cache.ErrInvalidResultType.
//
// # See Also
//
// For key serialization and the store, see the cache package.
// For the entry lifecycle, see the querycache package.
// For container wiring, see the pkg/di package.
package repositorycache
