package mq

import (
	"context"
	"fmt"
	"log/slog"
)

// Nudger запускает внеочередной проход исполнителя.
type Nudger interface {
	Nudge()
}

// NudgeHandler возвращает обработчик очереди work.nudge.
// Nudge не блокирует: проход запускается планировщиком асинхронно.
func NudgeHandler(n Nudger, logger *slog.Logger) Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(_ context.Context, d *Delivery) error {
		if d.Message.Type != MessageTypeWorkNudge {
			return fmt.Errorf("%w: unexpected type %q", ErrMalformedMessage, d.Message.Type)
		}

		payload, err := ParsePayload[NudgePayload](&d.Message)
		if err != nil {
			return err
		}

		logger.Info("work nudge received", "message_id", d.Message.ID, "reason", payload.Reason)
		n.Nudge()
		return nil
	}
}
