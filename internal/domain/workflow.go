package domain

import (
	"time"

	"github.com/google/uuid"
)

// WorkflowInstance — состояние бизнес-процесса для пары (решающий класс, объект).
//
// Уникален по (DecidingClass, Target). Находится или создаётся только
// под мьютексом объекта, поэтому дубликатов не возникает даже при
// конкурентных обновлениях. Ядро никогда не удаляет экземпляры.
type WorkflowInstance struct {
	// ID — уникальный идентификатор экземпляра.
	ID uuid.UUID `json:"id"`

	// DecidingClass — имя decider'а, владеющего экземпляром.
	DecidingClass string `json:"deciding_class"`

	// Target — объект процесса.
	Target TargetRef `json:"target"`

	// State — текущее состояние.
	State WorkflowState `json:"state"`

	// Data — произвольные данные decider'а.
	Data map[string]any `json:"data,omitempty"`

	// Version — количество применённых решений.
	Version int `json:"version"`

	// UpdatedBy — ID пользователя, принявшего последнее решение.
	UpdatedBy string `json:"updated_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewWorkflowInstance создаёт экземпляр в состоянии new.
func NewWorkflowInstance(class string, target TargetRef) *WorkflowInstance {
	now := time.Now().UTC()
	return &WorkflowInstance{
		ID:            uuid.New(),
		DecidingClass: class,
		Target:        target,
		State:         WorkflowStateNew,
		Data:          map[string]any{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// RecordDecision фиксирует применённое решение.
func (w *WorkflowInstance) RecordDecision(user User, at time.Time) {
	w.Version++
	w.UpdatedBy = user.ID
	w.UpdatedAt = at.UTC()
}

// Set записывает значение в Data, инициализируя map при необходимости.
func (w *WorkflowInstance) Set(key string, value any) {
	if w.Data == nil {
		w.Data = map[string]any{}
	}
	w.Data[key] = value
}

// Int возвращает целое значение из Data.
// JSON-десериализация превращает числа в float64, поэтому учитываем оба варианта.
func (w *WorkflowInstance) Int(key string) int {
	switch v := w.Data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
