package app

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// LevelTrace sits below debug and adds source locations to every record.
const LevelTrace = slog.LevelDebug - 4

// parseLogLevel maps a --log-level value to a slog level. Empty means info.
func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q: expected trace, debug, info, warn or error", s)
}

// parseLogFormat normalizes a --log-format value to "text" or "json".
func parseLogFormat(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "console":
		return "text", nil
	case "json":
		return "json", nil
	}
	return "", fmt.Errorf("unknown log format %q: expected text or json", s)
}

// newLogger builds the logger for one App from its config. It does not
// touch the global logger. Values NewConfig rejects fall back to text at
// info.
func newLogger(cfg *Config, w io.Writer) *slog.Logger {
	level, _ := parseLogLevel(cfg.LogLevel)
	format, err := parseLogFormat(cfg.LogFormat)
	if err != nil {
		format = "text"
	}

	opts := &slog.HandlerOptions{Level: level, AddSource: level <= LevelTrace}
	var handler slog.Handler = slog.NewTextHandler(w, opts)
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler).With("component", "flowcore")
}
