package gologger

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-repair-console/internal/config"
	"github.com/goliatone/go-repair-console/internal/logging"
	"github.com/goliatone/go-repair-console/pkg/interfaces"
)

// Redacted replaces the value of credential keys in log output.
const Redacted = "[redacted]"

// sensitiveKeys never reach the log sink with their value. Form bodies carry
// passwords and the API client handles the bearer token.
var sensitiveKeys = map[string]bool{
	"password":      true,
	"token":         true,
	"authorization": true,
}

var formats = map[string]glog.Option{
	"":        glog.WithLoggerTypeJSON(),
	"json":    glog.WithLoggerTypeJSON(),
	"console": glog.WithLoggerTypeConsole(),
	"pretty":  glog.WithLoggerTypePretty(),
}

var levels = map[string]string{
	"trace":   glog.Trace,
	"debug":   glog.Debug,
	"info":    glog.Info,
	"warn":    glog.Warn,
	"warning": glog.Warn,
	"error":   glog.Error,
	"fatal":   glog.Fatal,
}

// Provider serves console module loggers from one go-logger root.
type Provider struct {
	root *glog.BaseLogger
}

// NewProvider builds the root logger from the log section of the console
// config. Unknown levels fall back to the go-logger default; unknown formats
// are rejected.
func NewProvider(cfg config.LogConfig) (*Provider, error) {
	format, ok := formats[strings.ToLower(strings.TrimSpace(cfg.Format))]
	if !ok {
		return nil, goerrors.New("logging: unsupported go-logger format "+cfg.Format, goerrors.CategoryBadInput).
			WithTextCode("LOG_FORMAT_UNSUPPORTED")
	}
	options := []glog.Option{format}
	if level := parseLevel(cfg.Level); level != "" {
		options = append(options, glog.WithLevel(level))
	}

	root := glog.NewLogger(options...)
	var focus []string
	for _, module := range cfg.Focus {
		if module = strings.TrimSpace(module); module != "" {
			focus = append(focus, module)
		}
	}
	if len(focus) > 0 {
		root.Focus(focus...)
	}
	return &Provider{root: root}, nil
}

// GetLogger returns the logger of a console module such as console.api.
// An empty module name yields the root logger.
func (p *Provider) GetLogger(module string) interfaces.Logger {
	if p == nil || p.root == nil {
		return logging.NoOp()
	}
	if module = strings.TrimSpace(module); module != "" {
		return wrap(p.root.GetLogger(module))
	}
	return wrap(p.root)
}

func wrap(inner glog.Logger) interfaces.Logger {
	if inner == nil {
		return logging.NoOp()
	}
	return &adapter{inner: inner}
}

// adapter redacts credentials before handing records to go-logger. When the
// sink cannot hold fields, they are replayed as leading key/value pairs.
type adapter struct {
	inner glog.Logger
	bound []any
}

func (l *adapter) Trace(msg string, args ...any) { l.inner.Trace(msg, l.args(args)...) }
func (l *adapter) Debug(msg string, args ...any) { l.inner.Debug(msg, l.args(args)...) }
func (l *adapter) Info(msg string, args ...any)  { l.inner.Info(msg, l.args(args)...) }
func (l *adapter) Warn(msg string, args ...any)  { l.inner.Warn(msg, l.args(args)...) }
func (l *adapter) Error(msg string, args ...any) { l.inner.Error(msg, l.args(args)...) }
func (l *adapter) Fatal(msg string, args ...any) { l.inner.Fatal(msg, l.args(args)...) }

func (l *adapter) WithFields(fields map[string]any) interfaces.Logger {
	if len(fields) == 0 {
		return l
	}
	safe := make(map[string]any, len(fields))
	for k, v := range fields {
		safe[k] = redactValue(k, v)
	}
	if with, ok := l.inner.(glog.FieldsLogger); ok {
		return &adapter{inner: with.WithFields(safe), bound: l.bound}
	}

	bound := append([]any(nil), l.bound...)
	for k, v := range safe {
		bound = append(bound, k, v)
	}
	return &adapter{inner: l.inner, bound: bound}
}

func (l *adapter) WithContext(ctx context.Context) interfaces.Logger {
	if ctx == nil {
		return l
	}
	return &adapter{inner: l.inner.WithContext(ctx), bound: l.bound}
}

// args prepends bound fields and masks credential values in key/value pairs.
func (l *adapter) args(args []any) []any {
	out := make([]any, 0, len(l.bound)+len(args))
	out = append(out, l.bound...)
	for i := 0; i < len(args); i++ {
		out = append(out, args[i])
		if key, ok := args[i].(string); ok && i+1 < len(args) {
			out = append(out, redactValue(key, args[i+1]))
			i++
		}
	}
	return out
}

func redactValue(key string, v any) any {
	if sensitiveKeys[strings.ToLower(key)] {
		return Redacted
	}
	return v
}

func parseLevel(level string) string {
	return levels[strings.ToLower(strings.TrimSpace(level))]
}
