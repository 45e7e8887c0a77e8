package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/shaiso/Concord/internal/domain"
)

// LogConfig — настройки логгера.
type LogConfig struct {
	// Level — DEBUG, INFO, WARN, ERROR. По умолчанию: INFO.
	Level string

	// Format — "json" (по умолчанию) или "text".
	Format string

	// Output — куда писать; по умолчанию os.Stdout.
	Output io.Writer
}

// ParseLevel разбирает уровень логирования. Регистр не важен.
// Неизвестные значения дают INFO.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogger инициализирует глобальный логгер.
//
// Формат вывода:
//   - "json" (по умолчанию) — JSON формат для production
//   - "text" — человекочитаемый формат для разработки
func SetupLogger(cfg LogConfig) *slog.Logger {
	var handler slog.Handler

	level := ParseLevel(cfg.Level)
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

// Ключи контекста для передачи данных в логгер.
type ctxKey string

const (
	// CtxLogger — ключ для логгера в контексте.
	CtxLogger ctxKey = "logger"
)

// WithLogger добавляет логгер в контекст.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, CtxLogger, logger)
}

// FromContext извлекает логгер из контекста.
// Если логгер не найден, возвращает глобальный.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(CtxLogger).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithTarget возвращает логгер с добавленным target.
func WithTarget(logger *slog.Logger, target domain.TargetRef) *slog.Logger {
	return logger.With("target", target.String())
}

// WithWorkItem возвращает логгер с атрибутами работы.
func WithWorkItem(logger *slog.Logger, item *domain.ScheduledWorkItem) *slog.Logger {
	return logger.With(
		"work_item_id", item.ID.String(),
		"kind", item.Kind,
		"target", item.Target.String(),
	)
}
