// Package logging defines a minimal structured-logging interface used across
// the project. Implementations wrap slog or zap.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "starting server", "addr", addr, "backend", "sqlite")
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}

// New builds the process logger. backend is "slog" (JSON to stdout) or
// "zap" (zap production config); level is one of debug, info, warn, error.
func New(backend, level string) (Logger, error) {
	switch strings.ToLower(backend) {
	case "", "slog":
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
		return NewSlogLogger(slog.New(h)), nil
	case "zap":
		zcfg := zap.NewProductionConfig()
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		zcfg.Level = lvl
		z, err := zcfg.Build()
		if err != nil {
			return nil, err
		}
		return NewZapLogger(z), nil
	default:
		return nil, fmt.Errorf("unknown log backend %q", backend)
	}
}

// Nop discards everything. Handy in tests.
func Nop() Logger {
	return NewZapLogger(zap.NewNop())
}
