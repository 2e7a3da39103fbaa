// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// Context key types for storing values in context
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// ConversationIDKey is the context key for conversation ID
	ConversationIDKey contextKey = "conversation_id"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithContext returns a logger with context values extracted.
// Supports request_id and conversation_id from context.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		newLogger = &Logger{Logger: newLogger.With(slog.String("request_id", requestID))}
	}

	if conversationID, ok := ctx.Value(ConversationIDKey).(string); ok && conversationID != "" {
		newLogger = newLogger.WithConversationID(conversationID)
	}

	return newLogger
}

// WithConversationID returns a logger with conversation ID
func (l *Logger) WithConversationID(conversationID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("conversation_id", conversationID)),
	}
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// Turn logs one completed conversation turn.
func (l *Logger) Turn(conversationID, stage string, advanced, forced, ending bool, latencyMs float64) {
	l.Info("conversation_turn",
		slog.String("conversation_id", conversationID),
		slog.String("stage", stage),
		slog.Bool("advanced", advanced),
		slog.Bool("forced", forced),
		slog.Bool("ending", ending),
		slog.Float64("latency_ms", latencyMs),
	)
}

// CollaboratorDegraded logs a soft failure of an LLM/ASR/TTS collaborator.
// The turn still completes with a deterministic fallback.
func (l *Logger) CollaboratorDegraded(collaborator, operation string, err error) {
	l.Warn("collaborator_degraded",
		slog.String("collaborator", collaborator),
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// DatabaseError logs database errors
func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// RateLimitExceeded logs rate limit events
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
