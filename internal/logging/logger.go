// Package logging builds the structured loggers used across storewatch.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
)

// Redacted replaces the value of any attribute whose key looks secret.
const Redacted = "***REDACTED***"

// secretKey matches *_TOKEN, *_SECRET, *DSN and anything mentioning PASSWORD.
var secretKey = regexp.MustCompile(`(?i)(_token|_secret|dsn)$|password`)

type ctxKey struct{}

// ParseLevel maps "debug", "info", "warn" and "error" (case-insensitive) to
// a slog level. Anything else is info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// New returns a JSON logger on stderr.
func New(level string) *slog.Logger {
	return NewWithWriter(os.Stderr, level)
}

// NewWithWriter returns a JSON logger writing to w.
func NewWithWriter(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, handlerOptions(level)))
}

// NewFromConfig builds the process logger from the logging section of the
// configuration. format is "json" or "text"; output is "stderr", "stdout",
// "discard" or a file path opened for append. The returned func closes that
// file and is never nil.
func NewFromConfig(format, level, output string) (*slog.Logger, func() error, error) {
	w, closeFn, err := openOutput(output)
	if err != nil {
		return nil, closeFn, err
	}

	opts := handlerOptions(level)
	if strings.EqualFold(format, "text") {
		return slog.New(slog.NewTextHandler(w, opts)), closeFn, nil
	}
	return slog.New(slog.NewJSONHandler(w, opts)), closeFn, nil
}

func openOutput(output string) (io.Writer, func() error, error) {
	noop := func() error { return nil }
	switch output {
	case "", "stderr":
		return os.Stderr, noop, nil
	case "stdout":
		return os.Stdout, noop, nil
	case "discard", os.DevNull:
		return io.Discard, noop, nil
	}
	f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, noop, err
	}
	return f, f.Close, nil
}

func handlerOptions(level string) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level:       ParseLevel(level),
		ReplaceAttr: redact,
	}
}

func redact(_ []string, a slog.Attr) slog.Attr {
	if secretKey.MatchString(a.Key) {
		return slog.String(a.Key, Redacted)
	}
	return a
}

// Component tags a logger with the subsystem that writes through it.
func Component(logger *slog.Logger, name string) *slog.Logger {
	return logger.With(slog.String("component", name))
}

// WithContext returns a copy of ctx carrying logger.
func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger carried by ctx, or slog.Default.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
