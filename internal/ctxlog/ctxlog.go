// Package ctxlog provides a context key for safely passing a slog.Logger
// instance through context.Context, plus the attribute helpers shared by the
// engine's log lines.
package ctxlog

import (
	"context"
	"log/slog"
)

// key is an unexported type to prevent collisions with context keys from other packages.
type key struct{}

// loggerKey is the key for the slog.Logger in a context.Context.
var loggerKey = key{}

// WithLogger returns a new context with the provided logger embedded.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the slog.Logger from a context. If no logger is
// found, it returns the default global logger.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
			return logger
		}
	}
	return slog.Default()
}

// FlowAttr tags a log line with the flow it concerns.
func FlowAttr(name string) slog.Attr {
	return slog.String("flow", name)
}

// NodeAttr tags a log line with a node id and type.
func NodeAttr(id int, nodeType string) slog.Attr {
	return slog.Group("node", slog.Int("id", id), slog.String("type", nodeType))
}

// ErrAttr renders an error, tolerating nil.
func ErrAttr(err error) slog.Attr {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return slog.String("error", msg)
}
