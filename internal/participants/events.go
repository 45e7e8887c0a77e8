package participants

import (
	"context"
	"log/slog"

	"github.com/shaiso/Concord/internal/domain"
)

// LogPublisher пишет события ядра в структурированный лог.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger.With("component", "events")}
}

func (p *LogPublisher) Name() string { return "log" }

func (p *LogPublisher) Publish(ctx context.Context, ev domain.Event) error {
	level := slog.LevelInfo
	if ev.Type == domain.EventWorkFailed {
		level = slog.LevelWarn
	}
	p.logger.Log(ctx, level, "event",
		"event_id", ev.ID.String(),
		"type", ev.Type,
		"target", ev.Target.String(),
		"payload", ev.Payload,
	)
	return nil
}
