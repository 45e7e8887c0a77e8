package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Concord/internal/domain"
)

// MessageType — тип сообщения.
type MessageType string

// MessageTypeWorkNudge — команда исполнителю. Типы событий совпадают
// с domain.EventType.
const MessageTypeWorkNudge MessageType = "work.nudge"

// Message — конверт сообщения.
type Message struct {
	ID        string      `json:"id"`
	Type      MessageType `json:"type"`
	Payload   any         `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// NudgePayload — payload команды work.nudge.
type NudgePayload struct {
	// Reason — кто и зачем попросил проход (для логов).
	Reason string `json:"reason,omitempty"`
}

// newMessage создаёт конверт с новым ID.
func newMessage(t MessageType, payload any) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Type:      t,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{conn: conn, logger: logger}
}

// Publish публикует сообщение в exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),
			string(routingKey),
			false, // mandatory
			false, // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    msg.ID,
				Type:         string(msg.Type),
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)
		return nil
	})
}

// PublishEvent публикует событие ядра в concord.events.
// Routing key — тип события, потребители подписываются по шаблону.
func (p *Publisher) PublishEvent(ctx context.Context, ev domain.Event) error {
	msg := newMessage(MessageType(ev.Type), ev)
	msg.ID = ev.ID.String()
	msg.Timestamp = ev.OccurredAt
	return p.Publish(ctx, ExchangeEvents, eventRoutingKey(ev), msg)
}

// PublishNudge просит исполнителя выполнить внеочередной проход.
func (p *Publisher) PublishNudge(ctx context.Context, reason string) error {
	return p.Publish(ctx, ExchangeWork, RoutingKeyNudge, newMessage(MessageTypeWorkNudge, NudgePayload{Reason: reason}))
}

func eventRoutingKey(ev domain.Event) RoutingKey {
	return RoutingKey(ev.Type)
}

// EventSink — участник реестра событий, пересылающий события в RabbitMQ.
type EventSink struct {
	publisher *Publisher
}

// NewEventSink создаёт участника поверх Publisher.
func NewEventSink(p *Publisher) *EventSink {
	return &EventSink{publisher: p}
}

// Name реализует registry.Participant.
func (s *EventSink) Name() string { return "amqp" }

// Publish реализует registry.EventPublisher.
func (s *EventSink) Publish(ctx context.Context, ev domain.Event) error {
	return s.publisher.PublishEvent(ctx, ev)
}
