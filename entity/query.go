package entity

import (
	"maps"
	"net/url"
	"strconv"
	"strings"
)

// DefaultPageSize is the list limit used when a descriptor sets none.
const DefaultPageSize = 10

// QueryParams describes one list request. Zero values are omitted from the
// wire encoding and from cache keys.
type QueryParams struct {
	Page    int               `json:"page"`
	Limit   int               `json:"limit"`
	Search  string            `json:"search"`
	Filters map[string]string `json:"filters"`
}

// Normalize clamps Page to at least 1, defaults Limit, trims Search and
// drops empty filters.
func (q QueryParams) Normalize(defaultLimit int) QueryParams {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = defaultLimit
		if q.Limit <= 0 {
			q.Limit = DefaultPageSize
		}
	}
	q.Search = strings.TrimSpace(q.Search)

	var filters map[string]string
	for name, value := range q.Filters {
		value = strings.TrimSpace(value)
		if name == "" || value == "" {
			continue
		}
		if filters == nil {
			filters = make(map[string]string, len(q.Filters))
		}
		filters[name] = value
	}
	q.Filters = filters
	return q
}

// WithFilter returns a copy with one filter set; an empty value removes it.
func (q QueryParams) WithFilter(name, value string) QueryParams {
	filters := maps.Clone(q.Filters)
	if filters == nil {
		filters = map[string]string{}
	}
	if value == "" {
		delete(filters, name)
	} else {
		filters[name] = value
	}
	q.Filters = filters
	return q
}

// Values encodes the params as URL query values: page, limit, search when
// set, and one parameter per filter.
func (q QueryParams) Values() url.Values {
	values := url.Values{}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		values.Set("search", search)
	}
	for name, value := range q.Filters {
		if name == "" || value == "" {
			continue
		}
		switch name {
		case "page", "limit", "search":
			continue
		}
		values.Set(name, value)
	}
	return values
}
