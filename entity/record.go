package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"strconv"
	"time"
)

// Record is an opaque backend entity. The console only knows the fields it
// displays or edits; everything else is carried through untouched.
type Record struct {
	ID        int64
	Fields    map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Value returns the named field. id, created_at and updated_at are served
// from the lifted columns.
func (r Record) Value(name string) (any, bool) {
	switch name {
	case "id":
		return r.ID, r.ID != 0
	case "created_at":
		return r.CreatedAt, !r.CreatedAt.IsZero()
	case "updated_at":
		return r.UpdatedAt, !r.UpdatedAt.IsZero()
	}
	v, ok := r.Fields[name]
	return v, ok
}

// String renders a field for display; missing fields render as "".
func (r Record) String(name string) string {
	v, ok := r.Value(name)
	if !ok || v == nil {
		return ""
	}
	switch typed := v.(type) {
	case string:
		return typed
	case time.Time:
		return typed.Format(time.RFC3339)
	default:
		return fmt.Sprint(typed)
	}
}

// Clone returns a copy whose Fields map can be mutated independently.
func (r Record) Clone() Record {
	r.Fields = maps.Clone(r.Fields)
	return r
}

// MarshalJSON flattens the record back into the wire shape.
func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+3)
	maps.Copy(out, r.Fields)
	if r.ID != 0 {
		out["id"] = r.ID
	}
	if !r.CreatedAt.IsZero() {
		out["created_at"] = r.CreatedAt
	}
	if !r.UpdatedAt.IsZero() {
		out["updated_at"] = r.UpdatedAt
	}
	return json.Marshal(out)
}

// UnmarshalJSON lifts id and the timestamps out of the flat wire object.
// Integral numbers decode as int64, other numbers as float64.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	*r = Record{Fields: make(map[string]any, len(raw))}
	for key, value := range raw {
		value = normalizeJSONValue(value)
		switch key {
		case "id":
			id, err := toInt64(value)
			if err != nil {
				return fmt.Errorf("entity: record id: %w", err)
			}
			r.ID = id
		case "created_at":
			r.CreatedAt = parseTime(value)
		case "updated_at":
			r.UpdatedAt = parseTime(value)
		default:
			r.Fields[key] = value
		}
	}
	return nil
}

func normalizeJSONValue(v any) any {
	switch typed := v.(type) {
	case json.Number:
		if i, err := typed.Int64(); err == nil {
			return i
		}
		if f, err := typed.Float64(); err == nil {
			return f
		}
		return typed.String()
	case map[string]any:
		for k, inner := range typed {
			typed[k] = normalizeJSONValue(inner)
		}
		return typed
	case []any:
		for i, inner := range typed {
			typed[i] = normalizeJSONValue(inner)
		}
		return typed
	default:
		return v
	}
}

func toInt64(v any) (int64, error) {
	switch typed := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return typed, nil
	case float64:
		return int64(typed), nil
	case string:
		return strconv.ParseInt(typed, 10, 64)
	default:
		return 0, fmt.Errorf("unsupported id type %T", v)
	}
}

func parseTime(v any) time.Time {
	s, ok := v.(string)
	if !ok || s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Pagination mirrors the pagination block of list responses.
type Pagination struct {
	Pages int `json:"pages"`
	Page  int `json:"page"`
	Total int `json:"total"`
}

// Page is one page of a list query.
type Page struct {
	Records    []Record
	Pagination Pagination
}

// Stats is the dashboard aggregate. Its shape belongs to the backend.
type Stats map[string]any

// Int returns a numeric stat, or 0 when it is missing or not a number.
func (s Stats) Int(name string) int64 {
	switch typed := s[name].(type) {
	case int64:
		return typed
	case float64:
		return int64(typed)
	case json.Number:
		i, _ := typed.Int64()
		return i
	default:
		return 0
	}
}
