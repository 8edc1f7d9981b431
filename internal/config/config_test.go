package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

func mustDefault(t *testing.T) Config {
	t.Helper()
	cfg, err := Default()
	if err != nil {
		t.Fatalf("Default() error: %v", err)
	}
	return cfg
}

func writeYAML(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "repair-console.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	return path
}

const validYAML = `
api:
  base_url: "https://shop.example.com/api"
  timeout: "5s"
cache:
  capacity: 512
  shards: 8
  ttl: "2m"
  eviction_percentage: 20
  stale_time: "30s"
  refetch_interval: "1m"
list:
  page_size: 25
  search_limit: 3
log:
  level: "debug"
  format: "console"
`

func TestLoad_YAML(t *testing.T) {
	path := writeYAML(t, t.TempDir(), validYAML)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.API.BaseURL != "https://shop.example.com/api" {
		t.Errorf("unexpected base url %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %v", cfg.API.Timeout)
	}
	if cfg.Cache.StaleTime != 30*time.Second || cfg.Cache.RefetchInterval != time.Minute {
		t.Errorf("unexpected cache timings %+v", cfg.Cache)
	}
	if cfg.List.PageSize != 25 || cfg.List.SearchLimit != 3 {
		t.Errorf("unexpected list config %+v", cfg.List)
	}
	if cfg.Log.Format != "console" {
		t.Errorf("expected console format, got %q", cfg.Log.Format)
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := writeYAML(t, t.TempDir(), validYAML)
	t.Setenv("REPAIR_CONSOLE_LIST_PAGE_SIZE", "50")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.List.PageSize != 50 {
		t.Errorf("expected env override 50, got %d", cfg.List.PageSize)
	}
}

func TestLoad_PathFromEnv(t *testing.T) {
	path := writeYAML(t, t.TempDir(), validYAML)
	t.Setenv(PathEnv, path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Cache.Capacity != 512 {
		t.Errorf("expected capacity from yaml, got %d", cfg.Cache.Capacity)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if !goerrors.IsCategory(err, goerrors.CategoryNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.API.Timeout != 15*time.Second {
		t.Errorf("expected default timeout 15s, got %v", cfg.API.Timeout)
	}
	if cfg.Cache.StaleTime != 60*time.Second {
		t.Errorf("expected default stale time 60s, got %v", cfg.Cache.StaleTime)
	}
	if cfg.List.PageSize != 10 || cfg.List.SearchLimit != 5 {
		t.Errorf("unexpected list defaults %+v", cfg.List)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "bad url", mutate: func(c *Config) { c.API.BaseURL = "::not a url" }},
		{name: "zero timeout", mutate: func(c *Config) { c.API.Timeout = 0 }},
		{name: "zero page size", mutate: func(c *Config) { c.List.PageSize = 0 }},
		{name: "negative stale time", mutate: func(c *Config) { c.Cache.StaleTime = -time.Second }},
		{name: "eviction over 100", mutate: func(c *Config) { c.Cache.EvictionPercentage = 150 }},
		{name: "unknown log format", mutate: func(c *Config) { c.Log.Format = "xml" }},
		{name: "unknown role", mutate: func(c *Config) { c.API.Role = "owner" }},
	}

	if err := mustDefault(t).Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := mustDefault(t)
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestDefault_MalformedEnv(t *testing.T) {
	t.Setenv("REPAIR_CONSOLE_API_TIMEOUT", "soon")

	_, err := Default()
	if !goerrors.IsCategory(err, goerrors.CategoryBadInput) {
		t.Fatalf("expected a bad input error, got %v", err)
	}
}

func TestCacheConfig_StoreConfig(t *testing.T) {
	cfg := mustDefault(t).Cache
	cfg.Capacity = 64
	store := cfg.StoreConfig()
	if store.Capacity != 64 || store.TTL != 5*time.Minute {
		t.Errorf("unexpected store config %+v", store)
	}
	if err := store.Validate(); err != nil {
		t.Errorf("store config should validate: %v", err)
	}
}
