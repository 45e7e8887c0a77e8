package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler обрабатывает сообщение. Ошибка возвращает сообщение в очередь;
// ошибка, оборачивающая ErrMalformedMessage, отправляет его в DLQ.
type Handler func(ctx context.Context, d *Delivery) error

// Delivery — доставленное сообщение.
type Delivery struct {
	Message Message
	Raw     amqp.Delivery
}

// Consumer потребляет сообщения из очереди с ручным ack.
type Consumer struct {
	conn     *Connection
	logger   *slog.Logger
	queue    Queue
	handler  Handler
	prefetch int

	cancelFunc context.CancelFunc
}

// ConsumerConfig — конфигурация Consumer.
type ConsumerConfig struct {
	Queue   Queue
	Handler Handler

	// Prefetch — размер окна неподтверждённых сообщений. По умолчанию: 1.
	Prefetch int
}

// NewConsumer создаёт Consumer.
func NewConsumer(conn *Connection, logger *slog.Logger, cfg ConsumerConfig) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}

	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = 1
	}

	return &Consumer{
		conn:     conn,
		logger:   logger.With("queue", cfg.Queue),
		queue:    cfg.Queue,
		handler:  cfg.Handler,
		prefetch: prefetch,
	}
}

// Start потребляет сообщения до отмены ctx или Stop.
// Разрыв соединения переживается: consumer ждёт переподключения.
func (c *Consumer) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.cancelFunc = cancel

	for {
		deliveries, err := c.setup()
		if err != nil {
			c.logger.Error("failed to setup consume", "error", err)
		} else {
			c.logger.Info("consumer started")
			c.drain(ctx, deliveries)
			if ctx.Err() == nil {
				c.logger.Warn("deliveries channel closed, waiting for reconnect")
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.conn.ReconnectNotify():
			c.logger.Info("reconnected, restarting consumer")
		}
	}
}

// Stop останавливает consumer.
func (c *Consumer) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
}

func (c *Consumer) setup() (<-chan amqp.Delivery, error) {
	ch := c.conn.Channel()
	if ch == nil {
		return nil, ErrNoChannel
	}

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.Consume(
		string(c.queue),
		"",    // consumer tag (auto-generated)
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("consume: %w", err)
	}
	return deliveries, nil
}

// drain обрабатывает сообщения, пока канал открыт.
func (c *Consumer) drain(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-deliveries:
			if !ok {
				return
			}
			c.settle(raw, c.handle(ctx, raw))
		}
	}
}

// handle разбирает конверт и вызывает обработчик.
func (c *Consumer) handle(ctx context.Context, raw amqp.Delivery) error {
	var msg Message
	if err := json.Unmarshal(raw.Body, &msg); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	c.logger.Debug("received message", "message_id", msg.ID, "type", msg.Type)

	return c.handler(ctx, &Delivery{Message: msg, Raw: raw})
}

// settle подтверждает или отклоняет сообщение по результату обработки.
func (c *Consumer) settle(raw amqp.Delivery, err error) {
	switch {
	case err == nil:
		raw.Ack(false)
	case errors.Is(err, ErrMalformedMessage):
		c.logger.Error("dropping malformed message to DLQ", "error", err)
		raw.Nack(false, false)
	default:
		c.logger.Error("handler failed, requeueing", "error", err)
		raw.Nack(false, true)
	}
}

// ParsePayload приводит payload сообщения к типу T.
// Ошибка оборачивает ErrMalformedMessage.
func ParsePayload[T any](msg *Message) (T, error) {
	var result T

	raw, err := json.Marshal(msg.Payload)
	if err != nil {
		return result, fmt.Errorf("%w: marshal payload: %v", ErrMalformedMessage, err)
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return result, fmt.Errorf("%w: unmarshal payload: %v", ErrMalformedMessage, err)
	}
	return result, nil
}
