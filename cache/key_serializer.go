package cache

import (
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// KeySeparator defines the delimiter used between cache key segments.
const KeySeparator = "::"

// DefaultHashThreshold is the segment length above which a serialized argument
// is replaced by its xxhash digest.
const DefaultHashThreshold = 96

// KeySerializerOption customizes the default serializer.
type KeySerializerOption func(*defaultKeySerializer)

// WithHashThreshold sets the segment length above which arguments are hashed.
// A value <= 0 disables hashing.
func WithHashThreshold(n int) KeySerializerOption {
	return func(s *defaultKeySerializer) {
		s.hashThreshold = n
	}
}

// defaultKeySerializer renders arguments in a query-string like form so keys
// stay readable in logs: structs and maps become sorted name=value pairs,
// zero values are skipped, and oversized segments are hashed. Strings are
// query-escaped so user text cannot forge separators.
type defaultKeySerializer struct {
	hashThreshold int
}

// NewDefaultKeySerializer creates a new instance of the default key serializer.
func NewDefaultKeySerializer(opts ...KeySerializerOption) KeySerializer {
	s := &defaultKeySerializer{hashThreshold: DefaultHashThreshold}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// SerializeKey joins the prefix and every serialized argument with KeySeparator.
func (s *defaultKeySerializer) SerializeKey(prefix string, args ...any) string {
	if len(args) == 0 {
		return prefix
	}

	parts := make([]string, 0, len(args)+1)
	parts = append(parts, prefix)
	for _, arg := range args {
		parts = append(parts, s.segment(arg))
	}
	return strings.Join(parts, KeySeparator)
}

func (s *defaultKeySerializer) segment(arg any) string {
	out := s.serializeValue(arg)
	if out == "" {
		out = "-"
	}
	if s.hashThreshold > 0 && len(out) > s.hashThreshold {
		return "h:" + strconv.FormatUint(xxhash.Sum64String(out), 16)
	}
	return out
}

func (s *defaultKeySerializer) serializeValue(v any) string {
	if v == nil {
		return "nil"
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return "nil"
		}
		return s.serializeValue(rv.Elem().Interface())
	case reflect.Func:
		return fmt.Sprintf("func:%p", v)
	case reflect.Chan:
		return fmt.Sprintf("chan:%p", v)
	case reflect.Slice:
		if rv.IsNil() {
			return "[]"
		}
		return s.serializeList(rv)
	case reflect.Array:
		return s.serializeList(rv)
	case reflect.Map:
		return s.serializeMap(rv)
	case reflect.Struct:
		return s.serializeStruct(rv)
	}

	if rv.Kind() == reflect.String {
		return url.QueryEscape(rv.String())
	}
	if isBasicKind(rv.Kind()) {
		return fmt.Sprintf("%v", v)
	}
	return s.jsonFallback(v)
}

func (s *defaultKeySerializer) serializeList(rv reflect.Value) string {
	parts := make([]string, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		parts[i] = s.serializeValue(rv.Index(i).Interface())
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func (s *defaultKeySerializer) serializeMap(rv reflect.Value) string {
	if rv.Len() == 0 {
		return "{}"
	}

	pairs := make([]string, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		value := iter.Value()
		if isEmptyValue(value) {
			continue
		}
		pairs = append(pairs, s.serializeValue(iter.Key().Interface())+"="+s.serializeValue(value.Interface()))
	}
	sort.Strings(pairs)
	return "{" + strings.Join(pairs, "&") + "}"
}

func (s *defaultKeySerializer) serializeStruct(rv reflect.Value) string {
	rt := rv.Type()
	pairs := make([]string, 0, rv.NumField())

	for i := 0; i < rv.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		value := rv.Field(i)
		if isEmptyValue(value) {
			continue
		}
		pairs = append(pairs, fieldKeyName(field)+"="+s.serializeValue(value.Interface()))
	}

	sort.Strings(pairs)
	return strings.Join(pairs, "&")
}

func (s *defaultKeySerializer) jsonFallback(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "fallback:" + reflect.TypeOf(v).String()
	}
	return "json:" + string(data)
}

func fieldKeyName(field reflect.StructField) string {
	if tag := field.Tag.Get("json"); tag != "" {
		name, _, _ := strings.Cut(tag, ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return toSnake(field.Name)
}

// isEmptyValue reports zero values, nil interfaces, interfaces holding a zero
// value, and empty maps or slices.
func isEmptyValue(v reflect.Value) bool {
	for v.Kind() == reflect.Interface {
		if v.IsNil() {
			return true
		}
		v = v.Elem()
	}
	if !v.IsValid() || v.IsZero() {
		return true
	}
	switch v.Kind() {
	case reflect.Map, reflect.Slice:
		return v.Len() == 0
	}
	return false
}

func isBasicKind(kind reflect.Kind) bool {
	switch kind {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String:
		return true
	default:
		return false
	}
}
