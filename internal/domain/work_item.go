package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Встроенные типы работ.
const (
	// WorkKindValidation — прогон бизнес-правил над объектом.
	WorkKindValidation = "validation"
)

// ScheduledWorkItem — запланированная единица работы над объектом.
//
// Жизненный цикл:
//
//	создан → (run_date <= now) → выполняется под row-lock → удалён
//	                                                     ↘ attempts+1, last_error (остаётся в очереди)
//
// Удаление записи и есть признак завершения: повторный прогон
// не найдёт элемент и не выполнит работу второй раз.
type ScheduledWorkItem struct {
	// ID — уникальный идентификатор элемента.
	ID uuid.UUID `json:"id"`

	// Kind — тип работы, определяет обработчик.
	Kind string `json:"kind"`

	// Target — объект, над которым выполняется работа.
	Target TargetRef `json:"target"`

	// RunDate — элемент становится доступным, когда RunDate <= now.
	RunDate time.Time `json:"run_date"`

	// Attempts — количество неудачных попыток.
	Attempts int `json:"attempts"`

	// LastError — текст последней ошибки.
	LastError string `json:"last_error,omitempty"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`
}

// NewScheduledWorkItem создаёт элемент с новым ID.
func NewScheduledWorkItem(kind string, target TargetRef, runDate time.Time) (*ScheduledWorkItem, error) {
	if kind == "" {
		return nil, fmt.Errorf("%w: empty kind", ErrInvalidWorkItem)
	}
	if err := target.Validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if runDate.IsZero() {
		runDate = now
	}
	return &ScheduledWorkItem{
		ID:        uuid.New(),
		Kind:      kind,
		Target:    target,
		RunDate:   runDate.UTC(),
		CreatedAt: now,
	}, nil
}

// IsDue возвращает true, если элемент можно выполнять в момент now.
func (w *ScheduledWorkItem) IsDue(now time.Time) bool {
	return !w.RunDate.After(now)
}

// RecordFailure фиксирует неудачную попытку. RunDate не меняется.
func (w *ScheduledWorkItem) RecordFailure(msg string) {
	w.Attempts++
	w.LastError = msg
}
