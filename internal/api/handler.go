package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Concord/internal/domain"
	"github.com/shaiso/Concord/internal/registry"
	"github.com/shaiso/Concord/internal/repo"
	"github.com/shaiso/Concord/internal/runner"
)

// WorkItemStore — хранилище запланированных работ.
type WorkItemStore interface {
	CreateWorkItem(ctx context.Context, item *domain.ScheduledWorkItem) error
	GetWorkItem(ctx context.Context, id uuid.UUID) (*domain.ScheduledWorkItem, error)
	ListWorkItems(ctx context.Context, filter repo.WorkItemFilter) ([]domain.ScheduledWorkItem, error)
}

// WorkflowReader читает экземпляры процессов.
type WorkflowReader interface {
	GetWorkflow(ctx context.Context, class string, target domain.TargetRef) (*domain.WorkflowInstance, error)
	ListWorkflows(ctx context.Context, filter repo.WorkflowFilter) ([]domain.WorkflowInstance, error)
}

// TargetStore — общая таблица объектов.
type TargetStore interface {
	TargetExists(ctx context.Context, target domain.TargetRef) (bool, error)
	PutTarget(ctx context.Context, target domain.TargetRef) error
	DeleteTarget(ctx context.Context, target domain.TargetRef) error
}

// ResultReader читает результаты проверок.
type ResultReader interface {
	ListResults(ctx context.Context, target domain.TargetRef) ([]domain.ValidationResult, error)
}

// BatchRunner запускает проход по наступившим работам.
type BatchRunner interface {
	RunDueWork(ctx context.Context, now time.Time) (runner.Summary, error)
}

// WorkflowUpdater синхронно применяет decider.
type WorkflowUpdater interface {
	UpdateWorkflow(ctx context.Context, d runner.Decider, target domain.TargetRef, user domain.User) (*domain.WorkflowInstance, error)
}

// Deciders ищет decider по решающему классу.
type Deciders interface {
	Get(class string) (runner.Decider, error)
	Names() []string
}

// Nudger сообщает исполнителю о новой работе (например, через AMQP).
type Nudger interface {
	PublishNudge(ctx context.Context, reason string) error
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	workItems WorkItemStore
	workflows WorkflowReader
	targets   TargetStore
	results   ResultReader
	batch     BatchRunner
	updater   WorkflowUpdater
	deciders  Deciders
	catalog   *registry.Catalog
	nudger    Nudger
	logger    *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	WorkItems WorkItemStore
	Workflows WorkflowReader
	Targets   TargetStore
	Results   ResultReader
	Batch     BatchRunner
	Updater   WorkflowUpdater
	Deciders  Deciders
	Catalog   *registry.Catalog

	// Nudger (опционально) — уведомление исполнителя о работе,
	// которая уже наступила.
	Nudger Nudger

	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		workItems: cfg.WorkItems,
		workflows: cfg.Workflows,
		targets:   cfg.Targets,
		results:   cfg.Results,
		batch:     cfg.Batch,
		updater:   cfg.Updater,
		deciders:  cfg.Deciders,
		catalog:   cfg.Catalog,
		nudger:    cfg.Nudger,
		logger:    logger,
	}
}
