package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init configures the global slog logger.
// In production (ENVIRONMENT=production) it uses JSON output for log aggregation.
// Otherwise it uses the human-readable text handler.
func Init() {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	slog.SetDefault(slog.New(handler))
}

// WithAssignment returns a logger with assignment context fields attached.
// Use this for all logging within one assignment's edit session.
func WithAssignment(assignmentID, title string) *slog.Logger {
	return slog.With(
		"assignment_id", assignmentID,
		"title", title,
	)
}

// WithSync returns a logger scoped to one sync-gateway operation.
func WithSync(logger *slog.Logger, op, outcome string) *slog.Logger {
	return logger.With(
		"op", op,
		"outcome", outcome,
	)
}
