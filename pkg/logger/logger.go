// Package logger provides structured logging using slog with context support
// for Telegram update handling.
package logger

import (
	"context"
	"log/slog"
	"os"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// ChatIDKey is the context key for the Telegram chat ID.
	ChatIDKey contextKey = "chat_id"
	// UpdateIDKey is the context key for the Telegram update ID.
	UpdateIDKey contextKey = "update_id"
	// RunIDKey is the context key for the pipeline run ID.
	RunIDKey contextKey = "run_id"
)

// Logger wraps slog.Logger with additional context-aware methods.
type Logger struct {
	*slog.Logger
}

// New creates a new Logger with the specified level and format.
func New(level slog.Level, json bool) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	if json {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// Default creates a logger with default settings (INFO level, JSON format).
func Default() *Logger {
	return New(slog.LevelInfo, true)
}

// WithContext returns a new Logger with fields extracted from the context.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	logger := l.Logger

	if chatID, ok := ctx.Value(ChatIDKey).(int64); ok && chatID != 0 {
		logger = logger.With("chat_id", chatID)
	}

	if updateID, ok := ctx.Value(UpdateIDKey).(int64); ok && updateID != 0 {
		logger = logger.With("update_id", updateID)
	}

	if runID, ok := ctx.Value(RunIDKey).(string); ok && runID != "" {
		logger = logger.With("run_id", runID)
	}

	return &Logger{Logger: logger}
}

// WithComponent returns a new Logger with the component field.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger: l.Logger.With("component", component),
	}
}

// WithError returns a new Logger with the error field.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{
		Logger: l.Logger.With("error", err.Error()),
	}
}

// ContextWithChatID adds a Telegram chat ID to the context.
func ContextWithChatID(ctx context.Context, chatID int64) context.Context {
	return context.WithValue(ctx, ChatIDKey, chatID)
}

// ContextWithUpdateID adds a Telegram update ID to the context.
func ContextWithUpdateID(ctx context.Context, updateID int64) context.Context {
	return context.WithValue(ctx, UpdateIDKey, updateID)
}

// ContextWithRunID adds a pipeline run ID to the context.
func ContextWithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// RunIDFromContext extracts the pipeline run ID from context.
func RunIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(RunIDKey).(string); ok {
		return id
	}
	return ""
}
