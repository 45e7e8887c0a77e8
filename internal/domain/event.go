package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType — тип события, рассылаемого участникам EventRegistry.
type EventType string

const (
	EventWorkCompleted   EventType = "work.completed"
	EventWorkFailed      EventType = "work.failed"
	EventWorkflowUpdated EventType = "workflow.updated"
)

// Event — уведомление о результате работы ядра.
type Event struct {
	ID         uuid.UUID      `json:"id"`
	Type       EventType      `json:"type"`
	Target     TargetRef      `json:"target"`
	Payload    map[string]any `json:"payload,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// NewEvent создаёт событие с текущим временем.
func NewEvent(t EventType, target TargetRef, payload map[string]any) Event {
	return Event{
		ID:         uuid.New(),
		Type:       t,
		Target:     target,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}
}
