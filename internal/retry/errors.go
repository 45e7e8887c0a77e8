package retry

import (
	"fmt"
	"time"
)

// ContentionError — ожидание блокировки не уложилось в отведённое время.
//
// Сообщение содержит сигнатуру "lock wait timeout exceeded", поэтому
// ошибка классифицируется как конкуренция даже после потери типа
// (например, после сериализации в last_error).
type ContentionError struct {
	Key    string        // ключ блокировки
	Waited time.Duration // сколько ждали
	Err    error         // исходная ошибка драйвера, может быть nil
}

// Error реализует интерфейс error.
func (e *ContentionError) Error() string {
	msg := fmt.Sprintf("lock wait timeout exceeded for %q after %s", e.Key, e.Waited)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap возвращает исходную ошибку.
func (e *ContentionError) Unwrap() error {
	return e.Err
}
