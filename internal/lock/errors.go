package lock

import "errors"

// Ошибки блокировок.
var (
	// ErrEmptyKey — ключ блокировки пустой.
	ErrEmptyKey = errors.New("empty lock key")
)
