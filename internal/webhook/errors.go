package webhook

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig — конфигурация webhook некорректна.
	ErrInvalidConfig = errors.New("invalid webhook config")
)

// HTTPError — получатель ответил статусом вне 2xx.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

// Error реализует интерфейс error.
func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("webhook HTTP %d: %s", e.StatusCode, e.Status)
	}
	return fmt.Sprintf("webhook HTTP %d: %s: %s", e.StatusCode, e.Status, e.Body)
}
