// Package logging provides structured logging using zap
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

// NewDefaultLogger creates a logger with default configuration using zap
func NewDefaultLogger() Logger {
	logger, err := NewZapLogger(DefaultLogConfig())
	if err != nil {
		panic(fmt.Sprintf("failed to initialize default zap logger: %v", err))
	}
	return logger
}

// InitGlobalLogger installs the process-wide logger. An empty logFile logs to stdout.
// The returned closer releases the log file, if one was opened.
func InitGlobalLogger(level, logFile string) (io.Closer, error) {
	parsed := ParseLevel(level)

	var (
		output io.Writer = os.Stdout
		closer io.Closer = nopCloser{}
	)
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", logFile, err)
		}
		output = file
		closer = file
	}

	logger, err := NewZapLogger(LogConfig{
		Level:      parsed,
		Output:     output,
		TimeFormat: time.RFC3339,
	})
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	SetGlobalLogger(logger)

	logger.Info("Logger initialized",
		String("level", parsed.String()),
		String("log_file", logFile),
	)
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// MustSync flushes any buffered log entries for zap loggers
// This should be called before application exit
func MustSync() {
	if zapLogger, ok := GetGlobalLogger().(*ZapAdapter); ok {
		_ = zapLogger.Sync()
	}
}

// WithContext is a convenience function to add context to the global logger
func WithContext(ctx context.Context) Logger {
	return GetGlobalLogger().WithContext(ctx)
}

// WithFields is a convenience function to add fields to the global logger
func WithFields(fields ...Field) Logger {
	return GetGlobalLogger().WithFields(fields...)
}

// Component returns the global logger tagged with a component name.
func Component(name string) Logger {
	return GetGlobalLogger().WithFields(String("component", name))
}

// Err creates an error field with key "error"
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}

// NopLogger returns a logger that discards everything. Handy in tests.
func NopLogger() Logger {
	logger, _ := NewZapLogger(LogConfig{Level: ErrorLevel, Output: io.Discard})
	return logger
}
