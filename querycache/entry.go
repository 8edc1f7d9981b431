package querycache

import (
	"time"

	"github.com/goliatone/go-repair-console/cache"
)

// Scope separates the kinds of query a group holds.
type Scope string

const (
	ScopeList      Scope = "list"
	ScopeDetail    Scope = "detail"
	ScopeReference Scope = "reference"
	ScopeStats     Scope = "stats"
)

// Key identifies one cached query. Params is serialized with the cache key
// serializer, so equal params share an entry.
type Key struct {
	Group  string
	Scope  Scope
	Params any
}

// Prefix returns the group::scope part of the serialized key.
func (k Key) Prefix() string {
	return k.Group + cache.KeySeparator + string(k.Scope)
}

// InGroup reports whether the key belongs to group.
func (k Key) InGroup(group string) bool { return k.Group == group }

// Status is the lifecycle state of an entry.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Entry is an immutable snapshot of one cached query. Data survives a
// failed or in-flight refetch so screens keep showing the last good result.
type Entry struct {
	Key           Key
	Data          any
	Err           error
	Status        Status
	LastFetchedAt time.Time
	Stale         bool
}

// HasData reports whether the entry ever loaded successfully.
func (e Entry) HasData() bool { return !e.LastFetchedAt.IsZero() }

// IsLoading reports whether a load is in flight.
func (e Entry) IsLoading() bool { return e.Status == StatusLoading }
