package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — имя обменника.
type Exchange string

// Queue — имя очереди.
type Queue string

// RoutingKey — ключ маршрутизации.
type RoutingKey string

// Exchanges.
const (
	ExchangeEvents Exchange = "concord.events"
	ExchangeWork   Exchange = "concord.work"
	ExchangeDLQ    Exchange = "concord.dlq"
)

// Queues.
const (
	QueueWorkNudge  Queue = "work.nudge"
	QueueWorkFailed Queue = "events.work_failed"
	QueueDLQWork    Queue = "dlq.work"
)

// Routing keys.
const (
	RoutingKeyNudge      RoutingKey = "nudge"
	RoutingKeyWorkFailed RoutingKey = "work.failed"
	RoutingKeyDLQWork    RoutingKey = "work"
)

type exchangeDecl struct {
	name Exchange
	kind string
}

type queueDecl struct {
	name Queue
	args amqp.Table
}

type bindingDecl struct {
	queue      Queue
	routingKey RoutingKey
	exchange   Exchange
}

// topology — полное описание объявлений; используется SetupTopology и тестами.
func topology() ([]exchangeDecl, []queueDecl, []bindingDecl) {
	dlqArgs := amqp.Table{
		"x-dead-letter-exchange":    string(ExchangeDLQ),
		"x-dead-letter-routing-key": string(RoutingKeyDLQWork),
	}

	exchanges := []exchangeDecl{
		{ExchangeEvents, amqp.ExchangeTopic},
		{ExchangeWork, amqp.ExchangeDirect},
		{ExchangeDLQ, amqp.ExchangeDirect},
	}

	queues := []queueDecl{
		// work.nudge — с DLQ: некорректные команды уходят на разбор
		{QueueWorkNudge, dlqArgs},

		// events.work_failed — отказы работ для операторов
		{QueueWorkFailed, nil},

		{QueueDLQWork, nil},
	}

	bindings := []bindingDecl{
		{QueueWorkNudge, RoutingKeyNudge, ExchangeWork},
		{QueueWorkFailed, RoutingKeyWorkFailed, ExchangeEvents},
		{QueueDLQWork, RoutingKeyDLQWork, ExchangeDLQ},
	}

	return exchanges, queues, bindings
}

// SetupTopology объявляет exchanges, queues и bindings. Идемпотентна.
func SetupTopology(ctx context.Context, conn *Connection) error {
	exchanges, queues, bindings := topology()

	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		for _, ex := range exchanges {
			err := ch.ExchangeDeclare(
				string(ex.name), // name
				ex.kind,         // type
				true,            // durable
				false,           // auto-deleted
				false,           // internal
				false,           // no-wait
				nil,             // arguments
			)
			if err != nil {
				return fmt.Errorf("declare exchange %s: %w", ex.name, err)
			}
		}

		for _, q := range queues {
			_, err := ch.QueueDeclare(
				string(q.name), // name
				true,           // durable
				false,          // delete when unused
				false,          // exclusive
				false,          // no-wait
				q.args,         // arguments
			)
			if err != nil {
				return fmt.Errorf("declare queue %s: %w", q.name, err)
			}
		}

		for _, b := range bindings {
			err := ch.QueueBind(
				string(b.queue),      // queue name
				string(b.routingKey), // routing key
				string(b.exchange),   // exchange
				false,                // no-wait
				nil,                  // arguments
			)
			if err != nil {
				return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
			}
		}

		return nil
	})
}
