package registry

import (
	"errors"
	"fmt"
)

// Ошибки регистрации.
var (
	// ErrNilParticipant — попытка зарегистрировать nil.
	ErrNilParticipant = errors.New("nil participant")

	// ErrNotComparable — участник не может быть элементом множества.
	ErrNotComparable = errors.New("participant is not comparable")

	// ErrPredicatePanicked — предикат реестра запаниковал на участнике.
	ErrPredicatePanicked = errors.New("registry predicate panicked")

	// ErrUnnamedParticipant — участник вернул пустое имя.
	ErrUnnamedParticipant = errors.New("participant has empty name")
)

// ValidationError — участник отклонён предикатом реестра.
type ValidationError struct {
	Registry    string // имя реестра
	Participant any    // отклонённый участник
	Err         error  // причина
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("registry %s: participant %T rejected: %v", e.Registry, e.Participant, e.Err)
}

// Unwrap возвращает причину отказа.
func (e *ValidationError) Unwrap() error {
	return e.Err
}
