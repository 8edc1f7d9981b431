package logging

import (
	"context"
	"maps"
	"strings"

	"github.com/goliatone/go-repair-console/pkg/interfaces"
)

// Module names used for scoped loggers.
const (
	RootModule   = "console"
	APIModule    = "console.api"
	CacheModule  = "console.cache"
	ListModule   = "console.list"
	FormModule   = "console.form"
	DetailModule = "console.detail"
	SearchModule = "console.search"
)

// ModuleLogger returns a module-scoped logger, falling back to a no-op logger
// when no provider is supplied. The module name is attached as a field.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if strings.TrimSpace(module) == "" {
		module = RootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{"module": module})
}

// WithFields attaches structured fields when the logger supports them.
func WithFields(logger interfaces.Logger, fields map[string]any) interfaces.Logger {
	if logger == nil || len(fields) == 0 {
		return logger
	}
	if fieldsLogger, ok := logger.(interfaces.FieldsLogger); ok {
		return fieldsLogger.WithFields(maps.Clone(fields))
	}
	return logger
}

// WithEntity tags a logger with the entity group a controller works on.
func WithEntity(logger interfaces.Logger, group string) interfaces.Logger {
	if trimmed := strings.TrimSpace(group); trimmed != "" {
		return WithFields(logger, map[string]any{"entity": trimmed})
	}
	return logger
}

type contextKey string

const contextFieldsKey contextKey = "console.logging.fields"

// ContextWithFields returns a context carrying logging fields, merged with any
// fields already present.
func ContextWithFields(ctx context.Context, fields map[string]any) context.Context {
	if ctx == nil || len(fields) == 0 {
		return ctx
	}

	merged := ContextFields(ctx)
	if merged == nil {
		merged = make(map[string]any, len(fields))
	}
	maps.Copy(merged, fields)
	return context.WithValue(ctx, contextFieldsKey, merged)
}

// ContextFields returns a copy of the fields attached with ContextWithFields.
func ContextFields(ctx context.Context) map[string]any {
	if ctx == nil {
		return nil
	}
	fields, ok := ctx.Value(contextFieldsKey).(map[string]any)
	if !ok || len(fields) == 0 {
		return nil
	}
	return maps.Clone(fields)
}

// FromContext enriches logger with the fields carried by ctx.
func FromContext(ctx context.Context, logger interfaces.Logger) interfaces.Logger {
	if logger == nil {
		return NoOp()
	}
	return WithFields(logger.WithContext(ctx), ContextFields(ctx))
}

// NoOp returns a logger that drops every entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger { return n }

func (n noopLogger) WithContext(context.Context) interfaces.Logger { return n }
