package logger

import (
	"log/slog"
	"time"
)

// LogScore logs a completed scoring operation.
func LogScore(engine, operation, userID string, duration time.Duration, err error) {
	attrs := []any{
		slog.String("type", "score"),
		slog.String("engine", engine),
		slog.String("operation", operation),
		slog.String("user_id", userID),
		slog.Duration("took", duration),
	}

	if err != nil {
		slog.Error("Scoring failed", append(attrs, slog.Any("error", err))...)
	} else {
		slog.Debug("Scoring completed", attrs...)
	}
}

// LogQuery logs database operations.
func LogQuery(query string, duration time.Duration, err error) {
	attrs := []any{
		slog.String("type", "db"),
		slog.Duration("took", duration),
	}

	if err != nil {
		slog.Error("Query failed", append(attrs,
			slog.String("query", query),
			slog.Any("error", err),
		)...)
	} else {
		slog.Info("Query executed", append(attrs,
			slog.String("query", query),
		)...)
	}
}

// LogSystem logs system events.
func LogSystem(msg string, attrs ...any) {
	baseAttrs := []any{slog.String("type", "sys")}
	slog.Info(msg, append(baseAttrs, attrs...)...)
}

// LogError logs error events.
func LogError(msg string, err error, attrs ...any) {
	baseAttrs := []any{
		slog.String("type", "error"),
		slog.Any("error", err),
	}
	slog.Error(msg, append(baseAttrs, attrs...)...)
}

// LogAuditDrop records a swallowed audit-trail failure. The drop is logged
// and counted but never surfaced to the caller.
func LogAuditDrop(entry string, err error) {
	slog.Warn("Audit entry dropped",
		slog.String("type", "audit"),
		slog.String("entry", entry),
		slog.Any("error", err))
}
