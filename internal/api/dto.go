package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Concord/internal/domain"
)

// Work item DTOs

// CreateWorkItemRequest — запрос на планирование работы.
type CreateWorkItemRequest struct {
	Kind       string     `json:"kind"`
	TargetType string     `json:"target_type"`
	TargetID   string     `json:"target_id"`
	RunDate    *time.Time `json:"run_date,omitempty"`
}

// WorkItemResponse — ответ с work item.
type WorkItemResponse struct {
	ID         uuid.UUID `json:"id"`
	Kind       string    `json:"kind"`
	TargetType string    `json:"target_type"`
	TargetID   string    `json:"target_id"`
	RunDate    time.Time `json:"run_date"`
	Attempts   int       `json:"attempts"`
	LastError  string    `json:"last_error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// WorkItemFromDomain конвертирует domain.ScheduledWorkItem в WorkItemResponse.
func WorkItemFromDomain(w domain.ScheduledWorkItem) WorkItemResponse {
	return WorkItemResponse{
		ID:         w.ID,
		Kind:       w.Kind,
		TargetType: w.Target.Type,
		TargetID:   w.Target.ID,
		RunDate:    w.RunDate,
		Attempts:   w.Attempts,
		LastError:  w.LastError,
		CreatedAt:  w.CreatedAt,
	}
}

// RunWorkRequest — запрос на внеочередной проход.
// Now по умолчанию — текущее время сервера.
type RunWorkRequest struct {
	Now *time.Time `json:"now,omitempty"`
}

// Workflow DTOs

// WorkflowResponse — ответ с экземпляром процесса.
type WorkflowResponse struct {
	ID            uuid.UUID      `json:"id"`
	DecidingClass string         `json:"deciding_class"`
	TargetType    string         `json:"target_type"`
	TargetID      string         `json:"target_id"`
	State         string         `json:"state"`
	Data          map[string]any `json:"data,omitempty"`
	Version       int            `json:"version"`
	UpdatedBy     string         `json:"updated_by,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// WorkflowFromDomain конвертирует domain.WorkflowInstance в WorkflowResponse.
func WorkflowFromDomain(w domain.WorkflowInstance) WorkflowResponse {
	return WorkflowResponse{
		ID:            w.ID,
		DecidingClass: w.DecidingClass,
		TargetType:    w.Target.Type,
		TargetID:      w.Target.ID,
		State:         string(w.State),
		Data:          w.Data,
		Version:       w.Version,
		UpdatedBy:     w.UpdatedBy,
		CreatedAt:     w.CreatedAt,
		UpdatedAt:     w.UpdatedAt,
	}
}

// Validation DTOs

// ValidationResultResponse — результат правила.
type ValidationResultResponse struct {
	RuleName  string    `json:"rule_name"`
	Passed    bool      `json:"passed"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidationResultFromDomain конвертирует domain.ValidationResult.
func ValidationResultFromDomain(v domain.ValidationResult) ValidationResultResponse {
	return ValidationResultResponse{
		RuleName:  v.RuleName,
		Passed:    v.Passed,
		Message:   v.Message,
		CreatedAt: v.CreatedAt,
	}
}

// Password DTOs

// PasswordCheckRequest — проверка пароля политиками PasswordRegistry.
type PasswordCheckRequest struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name,omitempty"`
	Password string `json:"password"`
}

// PasswordCheckResponse — результат проверки.
type PasswordCheckResponse struct {
	Valid      bool     `json:"valid"`
	Violations []string `json:"violations,omitempty"`
}
