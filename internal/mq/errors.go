package mq

import "errors"

var (
	// ErrNoChannel — AMQP канал недоступен (нет соединения).
	ErrNoChannel = errors.New("no amqp channel available")

	// ErrConnectionClosed — соединение закрыто через Close.
	ErrConnectionClosed = errors.New("amqp connection closed")

	// ErrMalformedMessage — сообщение нельзя разобрать; повтор бесполезен.
	ErrMalformedMessage = errors.New("malformed message")
)
