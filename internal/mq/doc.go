// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — соединение с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация сообщений и EventSink для реестра событий
//   - consumer.go   — потребление сообщений из очередей
//   - nudge.go      — обработчик work.nudge
//
// Типы сообщений:
//   - work.nudge       — запросить внеочередной проход по наступившим работам
//   - work.completed   — работа выполнена и удалена
//   - work.failed      — попытка работы не удалась
//   - workflow.updated — к процессу объекта применено решение
//
// Exchanges:
//   - concord.events — события ядра (topic, routing key = тип события)
//   - concord.work   — команды исполнителю (direct)
//   - concord.dlq    — dead letter queue
package mq
