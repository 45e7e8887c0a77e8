package participants

import "errors"

var (
	// ErrUnknownKind — вид участника не поддерживается.
	ErrUnknownKind = errors.New("unknown participant kind")

	// ErrInvalidSpec — конфигурация участника некорректна.
	ErrInvalidSpec = errors.New("invalid participant spec")

	// ErrAMQPUnavailable — запрошен amqp-участник без подключения к RabbitMQ.
	ErrAMQPUnavailable = errors.New("amqp publisher not configured")
)

// Нарушения парольных политик.
var (
	ErrPasswordTooShort        = errors.New("password is too short")
	ErrPasswordMatchesUsername = errors.New("password must not match the username")
	ErrPasswordTooSimple       = errors.New("password uses too few character classes")
)
