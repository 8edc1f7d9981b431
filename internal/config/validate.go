package config

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-repair-console/entity"
)

const textCodeConfigInvalid = "CONFIG_INVALID"

var (
	logLevels  = []any{"trace", "debug", "info", "warn", "warning", "error", "fatal"}
	logFormats = []any{"json", "console", "pretty"}
	roles      = []any{entity.RoleAdmin, entity.RoleManager, entity.RoleTechnician, entity.RoleReceptionist}
)

// Validate checks every section and reports the offending fields.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.API),
		validation.Field(&c.Cache),
		validation.Field(&c.List),
		validation.Field(&c.Log),
	)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "config: invalid configuration").
			WithTextCode(textCodeConfigInvalid)
	}
	return nil
}

func (c APIConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.BaseURL, validation.Required, is.URL),
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.Role, validation.In(roles...)),
	)
}

func (c CacheConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Capacity, validation.Required, validation.Min(1)),
		validation.Field(&c.NumShards, validation.Required, validation.Min(1)),
		validation.Field(&c.TTL, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.EvictionPercentage, validation.Required, validation.Min(1), validation.Max(100)),
		validation.Field(&c.StaleTime, validation.Min(time.Duration(0))),
		validation.Field(&c.RefetchInterval, validation.Min(time.Duration(0))),
	)
}

func (c ListConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.PageSize, validation.Required, validation.Min(1), validation.Max(200)),
		validation.Field(&c.SearchLimit, validation.Required, validation.Min(1), validation.Max(50)),
	)
}

func (c LogConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Level, validation.In(logLevels...)),
		validation.Field(&c.Format, validation.In(logFormats...)),
	)
}
