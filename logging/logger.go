// Package logging provides a tiny abstraction over slog so downstream code
// can depend on a minimal interface (Logger) while callers plug any
// structured logger they like.
package logging

import (
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger defines the minimal structured logging interface used across relay.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Options configure construction of the default slog-backed logger.
type Options struct {
	Level     slog.Level
	Format    string // "json" or "text"
	Output    io.Writer
	AddSource bool
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a Logger backed by slog with JSON output by default.
func New(optFns ...func(o *Options)) Logger {
	opts := Options{
		Level:  slog.LevelInfo,
		Format: "json",
		Output: os.Stdout,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	hopts := &slog.HandlerOptions{Level: opts.Level, AddSource: opts.AddSource}

	var handler slog.Handler
	if opts.Format == "text" {
		handler = slog.NewTextHandler(opts.Output, hopts)
	} else {
		handler = slog.NewJSONHandler(opts.Output, hopts)
	}

	return &SlogAdapter{Logger: slog.New(handler)}
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// NewSlogAdapter creates a Logger from an existing *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// Debug logs a debug message.
func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }

// Info logs an informational message.
func (s *SlogAdapter) Info(msg string, args ...any) { s.Logger.Info(msg, args...) }

// Warn logs a warning message.
func (s *SlogAdapter) Warn(msg string, args ...any) { s.Logger.Warn(msg, args...) }

// Error logs an error message.
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// NoOpLogger discards all log messages. Useful for tests or when logging is disabled.
type NoOpLogger struct{}

// NewNoOpLogger creates a Logger that discards everything.
func NewNoOpLogger() Logger { return NoOpLogger{} }

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}

// LogToolCall records execution details for a tool invocation.
func LogToolCall(l Logger, tool string, dur time.Duration, err error) {
	if err != nil {
		l.Error("tool call failed", "tool", tool, "duration_ms", dur.Milliseconds(), "error", err.Error())
		return
	}
	l.Info("tool call completed", "tool", tool, "duration_ms", dur.Milliseconds())
}

// LogModelCall records model call latency and success.
func LogModelCall(l Logger, modelID string, dur time.Duration, err error) {
	if err != nil {
		l.Error("model call failed", "model", modelID, "duration_ms", dur.Milliseconds(), "error", err.Error())
		return
	}
	l.Info("model call completed", "model", modelID, "duration_ms", dur.Milliseconds())
}
