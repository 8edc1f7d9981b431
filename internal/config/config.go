package config

import (
	"time"

	"github.com/goliatone/go-repair-console/cache"
)

// Config is the root console configuration.
type Config struct {
	API   APIConfig   `yaml:"api"`
	Cache CacheConfig `yaml:"cache"`
	List  ListConfig  `yaml:"list"`
	Log   LogConfig   `yaml:"log"`
}

// APIConfig holds REST backend settings.
type APIConfig struct {
	BaseURL string        `yaml:"base_url" env:"REPAIR_CONSOLE_API_BASE_URL" env-default:"http://localhost:8080/api"`
	Timeout time.Duration `yaml:"timeout"  env:"REPAIR_CONSOLE_API_TIMEOUT"  env-default:"15s"`
	Token   string        `yaml:"token"    env:"REPAIR_CONSOLE_API_TOKEN"`

	// Role drives client-side permission checks for the token's user. An
	// empty role only gets the actions every user may take.
	Role string `yaml:"role" env:"REPAIR_CONSOLE_API_ROLE"`
}

// CacheConfig holds store sizing and query-cache freshness settings.
type CacheConfig struct {
	Capacity           int           `yaml:"capacity"            env:"REPAIR_CONSOLE_CACHE_CAPACITY"            env-default:"2048"`
	NumShards          int           `yaml:"shards"              env:"REPAIR_CONSOLE_CACHE_SHARDS"              env-default:"32"`
	TTL                time.Duration `yaml:"ttl"                 env:"REPAIR_CONSOLE_CACHE_TTL"                 env-default:"5m"`
	EvictionPercentage int           `yaml:"eviction_percentage" env:"REPAIR_CONSOLE_CACHE_EVICTION_PERCENTAGE" env-default:"10"`
	StaleTime          time.Duration `yaml:"stale_time"          env:"REPAIR_CONSOLE_CACHE_STALE_TIME"          env-default:"60s"`
	RefetchInterval    time.Duration `yaml:"refetch_interval"    env:"REPAIR_CONSOLE_CACHE_REFETCH_INTERVAL"    env-default:"0s"`
}

// ListConfig holds list and search paging defaults.
type ListConfig struct {
	PageSize    int `yaml:"page_size"    env:"REPAIR_CONSOLE_LIST_PAGE_SIZE"    env-default:"10"`
	SearchLimit int `yaml:"search_limit" env:"REPAIR_CONSOLE_LIST_SEARCH_LIMIT" env-default:"5"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string   `yaml:"level"  env:"REPAIR_CONSOLE_LOG_LEVEL"  env-default:"info"`
	Format string   `yaml:"format" env:"REPAIR_CONSOLE_LOG_FORMAT" env-default:"json"`
	Focus  []string `yaml:"focus"  env:"REPAIR_CONSOLE_LOG_FOCUS"`
}

// StoreConfig converts the cache section to the store configuration.
func (c CacheConfig) StoreConfig() cache.Config {
	cfg := cache.DefaultConfig()
	cfg.Capacity = c.Capacity
	cfg.NumShards = c.NumShards
	cfg.TTL = c.TTL
	cfg.EvictionPercentage = c.EvictionPercentage
	return cfg
}
