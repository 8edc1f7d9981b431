package config

import (
	"os"

	goerrors "github.com/goliatone/go-errors"
	"github.com/ilyakaznacheev/cleanenv"
)

// PathEnv names the variable holding the YAML config path.
const PathEnv = "REPAIR_CONSOLE_CONFIG"

const defaultPath = "./repair-console.yaml"

// Load reads configuration from a YAML file and environment variables.
// Priority: ENV > YAML > env-default tags. path wins over PathEnv; when
// neither is set a missing default file falls back to ENV + defaults.
func Load(path string) (*Config, error) {
	var cfg Config

	if path == "" {
		path = os.Getenv(PathEnv)
	}
	explicit := path != ""
	if !explicit {
		path = defaultPath
	}

	if _, statErr := os.Stat(path); statErr == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "config: read "+path).
				WithTextCode("CONFIG_READ_FAILED")
		}
	} else if explicit {
		return nil, goerrors.Wrap(statErr, goerrors.CategoryNotFound, "config: file "+path).
			WithTextCode("CONFIG_NOT_FOUND")
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "config: read env").
			WithTextCode("CONFIG_READ_FAILED")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration produced by environment variables and
// env-default tags. A malformed variable is an error, not a zero value.
func Default() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, goerrors.Wrap(err, goerrors.CategoryBadInput, "config: read env").
			WithTextCode("CONFIG_READ_FAILED")
	}
	return cfg, nil
}
