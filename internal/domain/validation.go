package domain

import (
	"time"

	"github.com/google/uuid"
)

// ValidationResult — результат применения одного бизнес-правила к объекту.
type ValidationResult struct {
	ID        uuid.UUID `json:"id"`
	Target    TargetRef `json:"target"`
	RuleName  string    `json:"rule_name"`
	Passed    bool      `json:"passed"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
