package domain

import "errors"

// Ошибки доменной модели.
var (
	// ErrInvalidTarget — ссылка на объект некорректна.
	ErrInvalidTarget = errors.New("invalid target")

	// ErrInvalidWorkItem — work item не может быть запланирован.
	ErrInvalidWorkItem = errors.New("invalid work item")
)
