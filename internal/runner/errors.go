package runner

import (
	"errors"
	"fmt"

	"github.com/shaiso/Concord/internal/domain"
)

// Ошибки исполнителя.
var (
	// ErrTargetNotFound — объект работы не существует.
	ErrTargetNotFound = errors.New("target not found")

	// ErrUnknownWorkKind — для вида работы не зарегистрирован обработчик.
	ErrUnknownWorkKind = errors.New("unknown work kind")

	// ErrNilDecider — UpdateWorkflow вызван без decider'а.
	ErrNilDecider = errors.New("decider is nil")
)

// WorkFailure — ошибка бизнес-логики внутри критической секции.
type WorkFailure struct {
	// Op — операция: имя decider'а или вид работы.
	Op string

	Target domain.TargetRef
	Err    error
}

func (e *WorkFailure) Error() string {
	return fmt.Sprintf("%s on %s: %v", e.Op, e.Target, e.Err)
}

func (e *WorkFailure) Unwrap() error {
	return e.Err
}
