package runner

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Concord/internal/domain"
)

// WorkSource — источник запланированных работ.
type WorkSource interface {
	// FindDue возвращает работы с RunDate <= now в порядке RunDate.
	// limit <= 0 — без ограничения.
	FindDue(ctx context.Context, now time.Time, limit int) ([]domain.ScheduledWorkItem, error)

	WorkItemExists(ctx context.Context, id uuid.UUID) (bool, error)

	// DestroyWorkItem — отметка о завершении работы.
	DestroyWorkItem(ctx context.Context, id uuid.UUID) error
}

// FailureRecorder сохраняет сведения о неудачной попытке.
// Вызывается вне откатываемой транзакции.
type FailureRecorder interface {
	RecordFailure(ctx context.Context, id uuid.UUID, msg string) error
}

// TargetResolver проверяет существование объекта.
type TargetResolver interface {
	TargetExists(ctx context.Context, target domain.TargetRef) (bool, error)
}

// WorkflowStore хранит экземпляры бизнес-процессов.
type WorkflowStore interface {
	FindOrCreateWorkflow(ctx context.Context, class string, target domain.TargetRef) (*domain.WorkflowInstance, error)
	SaveWorkflow(ctx context.Context, inst *domain.WorkflowInstance) error
}

// EventPublisher получает события исполнителя.
// Реализуется registry.EventRegistry.
type EventPublisher interface {
	Publish(ctx context.Context, ev domain.Event) error
}

// Decider — бизнес-логика, применяемая к экземпляру процесса.
type Decider interface {
	// Name — решающий класс; входит в ключ мьютекса.
	Name() string

	// DoWorkflow изменяет inst. Вызывается под мьютексом внутри транзакции.
	DoWorkflow(ctx context.Context, target domain.TargetRef, inst *domain.WorkflowInstance, user domain.User) error
}

// Work — обработчик одного вида запланированных работ.
type Work interface {
	Kind() string

	// Run выполняется под row-блокировкой объекта внутри транзакции.
	Run(ctx context.Context, item *domain.ScheduledWorkItem) error
}
