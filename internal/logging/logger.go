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

// WithTool returns a logger with tool execution fields attached.
// Use this for all logging within a tool call.
func WithTool(toolName, agentID, sessionID string) *slog.Logger {
	return slog.With(
		"tool", toolName,
		"agent_id", agentID,
		"session_id", sessionID,
	)
}

// WithTask returns a logger scoped to one analysis task.
func WithTask(logger *slog.Logger, taskID int64, title string) *slog.Logger {
	return logger.With(
		"task_id", taskID,
		"task_title", title,
	)
}
