package telemetry

import (
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

// NewLogger создаёт структурированный JSON-логгер.
//
// level: debug, info, warn, error (без учёта регистра).
// Неизвестный уровень трактуется как info.
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
	})
	return slog.New(handler)
}

// WithRunID возвращает логгер с привязанным run_id.
func WithRunID(logger *slog.Logger, runID uuid.UUID) *slog.Logger {
	return logger.With(slog.String("run_id", runID.String()))
}

// WithWorkflow возвращает логгер с привязанным именем workflow.
func WithWorkflow(logger *slog.Logger, name string) *slog.Logger {
	return logger.With(slog.String("workflow", name))
}

// WithStepID возвращает логгер с привязанным step_id.
func WithStepID(logger *slog.Logger, stepID string) *slog.Logger {
	return logger.With(slog.String("step_id", stepID))
}
