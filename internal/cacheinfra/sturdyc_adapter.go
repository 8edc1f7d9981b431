package cacheinfra

import (
	"context"
	"reflect"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
	"github.com/viccon/sturdyc"
)

const (
	textCodeConfigInvalid  = "CACHE_CONFIG_INVALID"
	textCodeInvalidFetchFn = "CACHE_INVALID_FETCH_FN"
)

// Config holds the configuration for the sturdyc store.
type Config struct {
	// Capacity is the maximum number of responses kept in memory.
	Capacity int

	// NumShards splits the store to reduce lock contention between
	// concurrent screens.
	NumShards int

	// TTL is how long a response survives once written. The query cache
	// decides freshness on its own; this only bounds memory.
	TTL time.Duration

	// EvictionPercentage is the share of entries dropped when the store is
	// full. Must be between 1 and 100.
	EvictionPercentage int

	// EvictionInterval sets how often expired entries are swept.
	// Zero keeps the sturdyc default.
	EvictionInterval time.Duration

	// EarlyRefresh enables sturdyc early refreshes. Nil disables them.
	EarlyRefresh *EarlyRefreshConfig
}

// EarlyRefreshConfig configures sturdyc early refresh behaviour.
type EarlyRefreshConfig struct {
	MinAsyncRefreshTime time.Duration
	MaxAsyncRefreshTime time.Duration
	SyncRefreshTime     time.Duration
	RetryBaseDelay      time.Duration
}

// Validate implements validation.Validatable.
func (c EarlyRefreshConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.MinAsyncRefreshTime, validation.Min(time.Duration(0))),
		validation.Field(&c.MaxAsyncRefreshTime, validation.Min(c.MinAsyncRefreshTime)),
		validation.Field(&c.SyncRefreshTime, validation.Min(time.Duration(0))),
		validation.Field(&c.RetryBaseDelay, validation.Min(time.Duration(0))),
	)
}

// DefaultConfig returns the store defaults used by the console.
func DefaultConfig() Config {
	return Config{
		Capacity:           2048,
		NumShards:          32,
		TTL:                5 * time.Minute,
		EvictionPercentage: 10,
	}
}

// ToSturdycOptions converts the optional settings to sturdyc options.
// Capacity, NumShards, TTL and EvictionPercentage go to sturdyc.New directly.
func (c Config) ToSturdycOptions() []sturdyc.Option {
	var options []sturdyc.Option

	if c.EarlyRefresh != nil {
		options = append(options, sturdyc.WithEarlyRefreshes(
			c.EarlyRefresh.MinAsyncRefreshTime,
			c.EarlyRefresh.MaxAsyncRefreshTime,
			c.EarlyRefresh.SyncRefreshTime,
			c.EarlyRefresh.RetryBaseDelay,
		))
	}

	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}

	return options
}

// Validate checks the configuration and returns a validation category error
// carrying the offending fields.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Capacity, validation.Required, validation.Min(1)),
		validation.Field(&c.NumShards, validation.Required, validation.Min(1)),
		validation.Field(&c.TTL, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.EvictionPercentage, validation.Required, validation.Min(1), validation.Max(100)),
		validation.Field(&c.EvictionInterval, validation.Min(time.Duration(0))),
		validation.Field(&c.EarlyRefresh),
	)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "cache: invalid store configuration").
			WithTextCode(textCodeConfigInvalid)
	}
	return nil
}

// sturdycService wraps a sturdyc client.
type sturdycService struct {
	client *sturdyc.Client[any]
}

// NewSturdycService validates cfg and builds the sturdyc backed store.
func NewSturdycService(cfg Config) (*sturdycService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[any](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		cfg.ToSturdycOptions()...,
	)

	return &sturdycService{client: client}, nil
}

// GetOrFetch returns the stored value for key or runs fetchFn and stores its
// result. fetchFn must have the signature func(context.Context) (T, error).
func (s *sturdycService) GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error) {
	if err := validateFetchFn(fetchFn); err != nil {
		return nil, err
	}

	return s.client.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) {
		return callFetchFn(ctx, fetchFn)
	})
}

// Get returns the stored value for key, if any.
func (s *sturdycService) Get(_ context.Context, key string) (any, bool) {
	return s.client.Get(key)
}

// Set stores value under key, replacing any previous value in one write.
func (s *sturdycService) Set(_ context.Context, key string, value any) error {
	s.client.Set(key, value)
	return nil
}

// Delete removes a single entry.
func (s *sturdycService) Delete(_ context.Context, key string) error {
	s.client.Delete(key)
	return nil
}

// DeleteByPrefix removes every entry whose key starts with prefix.
func (s *sturdycService) DeleteByPrefix(ctx context.Context, prefix string) error {
	return s.DeleteMatching(ctx, func(key string) bool {
		return strings.HasPrefix(key, prefix)
	})
}

// DeleteMatching removes every entry whose key satisfies match.
func (s *sturdycService) DeleteMatching(_ context.Context, match func(key string) bool) error {
	if match == nil {
		return nil
	}
	for _, key := range s.client.ScanKeys() {
		if match(key) {
			s.client.Delete(key)
		}
	}
	return nil
}

// InvalidateKeys removes the listed entries.
func (s *sturdycService) InvalidateKeys(_ context.Context, keys []string) error {
	for _, key := range keys {
		s.client.Delete(key)
	}
	return nil
}

// Keys lists the keys currently held by the store.
func (s *sturdycService) Keys(_ context.Context) []string {
	return s.client.ScanKeys()
}

// Size reports the number of stored entries.
func (s *sturdycService) Size() int {
	return s.client.Size()
}

func validateFetchFn(fetchFn any) error {
	invalid := func(msg string) error {
		return goerrors.New("cache: fetchFn "+msg, goerrors.CategoryBadInput).
			WithTextCode(textCodeInvalidFetchFn)
	}

	if fetchFn == nil {
		return invalid("cannot be nil")
	}

	fnType := reflect.TypeOf(fetchFn)
	if fnType.Kind() != reflect.Func {
		return invalid("must be a function")
	}
	if fnType.NumIn() != 1 || fnType.NumOut() != 2 {
		return invalid("must have signature func(context.Context) (T, error)")
	}

	contextType := reflect.TypeOf((*context.Context)(nil)).Elem()
	if !fnType.In(0).Implements(contextType) {
		return invalid("first parameter must be context.Context")
	}

	errorType := reflect.TypeOf((*error)(nil)).Elem()
	if !fnType.Out(1).Implements(errorType) {
		return invalid("second return value must be error")
	}

	return nil
}

// callFetchFn invokes a pre-validated func(context.Context) (T, error).
func callFetchFn(ctx context.Context, fetchFn any) (any, error) {
	if fn, ok := fetchFn.(func(context.Context) (any, error)); ok {
		return fn(ctx)
	}

	results := reflect.ValueOf(fetchFn).Call([]reflect.Value{reflect.ValueOf(ctx)})

	var result any
	if results[0].IsValid() && results[0].CanInterface() {
		result = results[0].Interface()
	}

	var err error
	if errValue := results[1]; errValue.IsValid() && !errValue.IsNil() {
		err = errValue.Interface().(error)
	}

	return result, err
}
