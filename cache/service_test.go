package cache

import (
	"context"
	"errors"
	"testing"
)

// mockCacheService returns a canned result from every read.
type mockCacheService struct {
	result any
	err    error
	stored map[string]any
}

func (m *mockCacheService) GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error) {
	return m.result, m.err
}

func (m *mockCacheService) Get(ctx context.Context, key string) (any, bool) {
	v, ok := m.stored[key]
	return v, ok
}

func (m *mockCacheService) Set(ctx context.Context, key string, value any) error {
	if m.stored == nil {
		m.stored = map[string]any{}
	}
	m.stored[key] = value
	return nil
}

func (m *mockCacheService) Delete(ctx context.Context, key string) error { return nil }

func (m *mockCacheService) DeleteByPrefix(ctx context.Context, prefix string) error { return nil }

func (m *mockCacheService) DeleteMatching(ctx context.Context, match func(string) bool) error {
	return nil
}

func (m *mockCacheService) InvalidateKeys(ctx context.Context, keys []string) error { return nil }

func (m *mockCacheService) Keys(ctx context.Context) []string { return nil }

func (m *mockCacheService) Size() int { return len(m.stored) }

func TestGetOrFetch_NilInterfaceResult(t *testing.T) {
	mock := &mockCacheService{result: nil}

	type Stats interface {
		Total() int
	}

	result, err := GetOrFetch[Stats](context.Background(), mock, "dashboard::stats", func(ctx context.Context) (Stats, error) {
		return nil, nil
	})
	if err != nil {
		t.Errorf("expected no error but got: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil result but got: %v", result)
	}
}

func TestGetOrFetch_TypedNilPointer(t *testing.T) {
	mock := &mockCacheService{result: (*string)(nil)}

	result, err := GetOrFetch[*string](context.Background(), mock, "k", func(ctx context.Context) (*string, error) {
		return nil, nil
	})
	if err != nil {
		t.Errorf("expected no error but got: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil result but got: %v", result)
	}
}

func TestGetOrFetch_TypeAssertionFailure(t *testing.T) {
	mock := &mockCacheService{result: "wrong-type"}

	result, err := GetOrFetch[int](context.Background(), mock, "k", func(ctx context.Context) (int, error) {
		return 42, nil
	})
	if !errors.Is(err, ErrInvalidResultType) {
		t.Errorf("expected ErrInvalidResultType but got: %v", err)
	}
	if result != 0 {
		t.Errorf("expected zero value but got: %v", result)
	}
}

func TestGetOrFetch_ErrorPropagation(t *testing.T) {
	boom := errors.New("backend unavailable")
	mock := &mockCacheService{err: boom}

	_, err := GetOrFetch[string](context.Background(), mock, "k", func(ctx context.Context) (string, error) {
		return "", boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected backend error, got: %v", err)
	}
}

func TestGetOrFetch_ValidResult(t *testing.T) {
	mock := &mockCacheService{result: "customers"}

	result, err := GetOrFetch[string](context.Background(), mock, "k", func(ctx context.Context) (string, error) {
		return "customers", nil
	})
	if err != nil {
		t.Errorf("expected no error but got: %v", err)
	}
	if result != "customers" {
		t.Errorf("expected 'customers' but got: %q", result)
	}
}

func TestGet_Typed(t *testing.T) {
	mock := &mockCacheService{}
	_ = mock.Set(context.Background(), "count", 3)

	if got, ok := Get[int](context.Background(), mock, "count"); !ok || got != 3 {
		t.Errorf("expected 3, got %v (ok=%v)", got, ok)
	}
	if _, ok := Get[string](context.Background(), mock, "count"); ok {
		t.Error("expected a type mismatch to read as a miss")
	}
	if _, ok := Get[int](context.Background(), mock, "missing"); ok {
		t.Error("expected a miss for an unknown key")
	}
}
