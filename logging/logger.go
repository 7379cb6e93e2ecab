package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger defines the minimal logging interface used throughout the backend.
// Any structured logger can be adapted; args follow the slog key/value
// convention.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NoOpLogger discards all log messages. Useful for tests or when logging is
// disabled.
type NoOpLogger struct{}

// Debug discards the message.
func (NoOpLogger) Debug(string, ...any) {}

// Info discards the message.
func (NoOpLogger) Info(string, ...any) {}

// Warn discards the message.
func (NoOpLogger) Warn(string, ...any) {}

// Error discards the message.
func (NoOpLogger) Error(string, ...any) {}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// Debug logs a debug message.
func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }

// Info logs an informational message.
func (s *SlogAdapter) Info(msg string, args ...any) { s.Logger.Info(msg, args...) }

// Warn logs a warning message.
func (s *SlogAdapter) Warn(msg string, args ...any) { s.Logger.Warn(msg, args...) }

// Error logs an error message.
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger { return &SlogAdapter{Logger: logger} }

// NewDefaultSlogLogger creates a Logger using slog.Default().
func NewDefaultSlogLogger() Logger { return NewSlogAdapter(slog.Default()) }

// NewJSONLogger creates a JSON Logger at the given level writing to w
// (os.Stdout if nil).
func NewJSONLogger(level slog.Level, w io.Writer) Logger {
	if w == nil {
		w = os.Stdout
	}
	return NewSlogAdapter(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})))
}

// RunLogger wraps a Logger with per-request identifiers so pipeline code can
// log without re-threading session/user/run ids through every call. It is
// cheap to copy via the With* methods.
type RunLogger struct {
	logger    Logger
	component string
	sessionID string
	userID    string
	runID     string
}

// NewRunLogger wraps l (NoOpLogger when nil) for the given component.
func NewRunLogger(l Logger, component string) *RunLogger {
	if l == nil {
		l = NoOpLogger{}
	}
	return &RunLogger{logger: l, component: component}
}

// WithSession returns a copy carrying the session and user identifiers.
func (l *RunLogger) WithSession(sessionID, userID string) *RunLogger {
	nl := *l
	nl.sessionID = sessionID
	nl.userID = userID
	return &nl
}

// WithRun returns a copy carrying the run identifier.
func (l *RunLogger) WithRun(runID string) *RunLogger {
	nl := *l
	nl.runID = runID
	return &nl
}

func (l *RunLogger) attrs(extra ...any) []any {
	args := make([]any, 0, 8+len(extra))
	if l.component != "" {
		args = append(args, "component", l.component)
	}
	if l.sessionID != "" {
		args = append(args, "session_id", l.sessionID)
	}
	if l.userID != "" {
		args = append(args, "user_id", l.userID)
	}
	if l.runID != "" {
		args = append(args, "run_id", l.runID)
	}
	return append(args, extra...)
}

// Debug logs at debug level with the contextual identifiers attached.
func (l *RunLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, l.attrs(args...)...) }

// Info logs at info level with the contextual identifiers attached.
func (l *RunLogger) Info(msg string, args ...any) { l.logger.Info(msg, l.attrs(args...)...) }

// Warn logs at warn level with the contextual identifiers attached.
func (l *RunLogger) Warn(msg string, args ...any) { l.logger.Warn(msg, l.attrs(args...)...) }

// Error logs at error level with the contextual identifiers attached.
func (l *RunLogger) Error(msg string, args ...any) { l.logger.Error(msg, l.attrs(args...)...) }

// LogPhase records an orchestrator phase transition.
func (l *RunLogger) LogPhase(from, to string) {
	l.Debug("run phase transition", "from", from, "to", to)
}

// LogPersistenceInconsistency records the reportable case where a stream was
// fully delivered to the caller but the durable write failed. These entries
// are the trigger for out-of-band retry of the persist operation.
func (l *RunLogger) LogPersistenceInconsistency(turnID string, err error) {
	l.Error("assistant turn delivered but not persisted",
		"turn_id", turnID,
		"error", err.Error(),
		"reportable_inconsistency", true,
	)
}

// LogModelCall records model call latency, token usage and success.
func (l *RunLogger) LogModelCall(model string, tokens int64, dur time.Duration, err error) {
	if err != nil {
		l.Error("model call failed", "model", model, "duration", dur, "error", err.Error())
		return
	}
	l.Info("model call completed", "model", model, "token_count", tokens, "duration", dur)
}

// LogToolCall records execution details for a tool invocation.
func (l *RunLogger) LogToolCall(tool string, dur time.Duration, err error) {
	if err != nil {
		l.Error("tool execution failed", "tool_name", tool, "duration", dur, "error", err.Error())
		return
	}
	l.Info("tool execution completed", "tool_name", tool, "duration", dur)
}

// ctxKey guards against collisions in context values.
type ctxKey struct{}

// IntoContext stores the logger in ctx for retrieval by FromContext.
func IntoContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger stored in ctx, or a NoOpLogger.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(ctxKey{}).(Logger); ok {
		return l
	}
	return NoOpLogger{}
}
