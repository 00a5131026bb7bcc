// Package observability provides structured logging helpers for request
// tracing across conversational turns.
package observability

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	// LogFieldRequestID is the field name for request ID.
	LogFieldRequestID = "request_id"
	// LogFieldSessionID is the field name for session ID.
	LogFieldSessionID = "session_id"
	// LogFieldIntent is the field name for the classified intent.
	LogFieldIntent = "intent"
	// LogFieldDuration is the field name for duration in milliseconds.
	LogFieldDuration = "duration_ms"
	// LogFieldMessageLen is the field name for message length.
	LogFieldMessageLen = "message_length"
	// LogFieldErrorCode is the field name for error code.
	LogFieldErrorCode = "error_code"
)

// RequestContext carries per-turn identifiers for structured logging.
type RequestContext struct {
	RequestID string
	SessionID string
	StartTime time.Time
	Logger    *slog.Logger
}

// NewRequestContext creates a new request context with a generated request ID.
func NewRequestContext(logger *slog.Logger, sessionID string) *RequestContext {
	if logger == nil {
		logger = slog.Default()
	}
	return &RequestContext{
		RequestID: uuid.NewString(),
		SessionID: sessionID,
		StartTime: time.Now(),
		Logger:    logger,
	}
}

// With returns a logger annotated with the request's base fields.
func (r *RequestContext) With(attrs ...any) *slog.Logger {
	base := []any{
		slog.String(LogFieldRequestID, r.RequestID),
		slog.String(LogFieldSessionID, r.SessionID),
	}
	return r.Logger.With(append(base, attrs...)...)
}

// ElapsedMs returns the milliseconds elapsed since the request started.
func (r *RequestContext) ElapsedMs() int64 {
	return time.Since(r.StartTime).Milliseconds()
}
