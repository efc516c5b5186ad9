package slotmap

import (
	"context"
	"errors"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with slotmap-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithGeometry adds a geometry field to the logger.
func (l *Logger) WithGeometry(g Geometry) *Logger {
	return &Logger{
		Logger: l.Logger.With("geometry", g.String()),
	}
}

// WithOffset adds a region offset field to the logger.
func (l *Logger) WithOffset(offset int) *Logger {
	return &Logger{
		Logger: l.Logger.With("offset", offset),
	}
}

// WithArena adds an arena name field to the logger.
func (l *Logger) WithArena(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("arena", name),
	}
}

// WithNamespace adds a snapshot namespace field to the logger.
func (l *Logger) WithNamespace(ns string) *Logger {
	return &Logger{
		Logger: l.Logger.With("namespace", ns),
	}
}

// LogOpen logs the construction of a map over a region.
func (l *Logger) LogOpen(ctx context.Context, g Geometry, offset int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "open failed",
			"geometry", g.String(),
			"offset", offset,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "map opened",
			"geometry", g.String(),
			"offset", offset,
			"capacity", g.Capacity(),
		)
	}
}

// LogAlloc logs an alloc operation. A full pool is logged at debug level.
func (l *Logger) LogAlloc(ctx context.Context, index int, err error) {
	switch {
	case errors.Is(err, ErrNoAvailableSlots):
		l.DebugContext(ctx, "alloc found no free slot")
	case err != nil:
		l.ErrorContext(ctx, "alloc failed",
			"error", err,
		)
	default:
		l.DebugContext(ctx, "alloc completed",
			"index", index,
		)
	}
}

// LogDealloc logs a dealloc operation.
func (l *Logger) LogDealloc(ctx context.Context, index int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "dealloc failed",
			"index", index,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "dealloc completed",
			"index", index,
		)
	}
}

// LogSnapshot logs a snapshot save.
func (l *Logger) LogSnapshot(ctx context.Context, id string, size int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"id", id,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot saved",
			"id", id,
			"size", size,
		)
	}
}

// LogRestore logs a snapshot restore.
func (l *Logger) LogRestore(ctx context.Context, id string, regions int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "restore failed",
			"id", id,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot restored",
			"id", id,
			"regions", regions,
		)
	}
}
