package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/shaiso/Concord/internal/domain"
	"github.com/shaiso/Concord/internal/lock"
	"github.com/shaiso/Concord/internal/retry"
	"github.com/shaiso/Concord/internal/telemetry"
)

const tracerName = "github.com/shaiso/Concord/internal/runner"

// WorkflowRunner синхронно применяет decider к экземпляру процесса объекта.
type WorkflowRunner struct {
	locker    lock.Locker
	tx        lock.Transactor
	workflows WorkflowStore
	events    EventPublisher
	tracer    trace.Tracer
	logger    *slog.Logger
	now       func() time.Time
}

// WorkflowConfig — конфигурация WorkflowRunner.
type WorkflowConfig struct {
	Locker    lock.Locker
	Tx        lock.Transactor
	Workflows WorkflowStore

	// Events — получатель события workflow.updated (опционально).
	Events EventPublisher

	// Tracer (опционально; по умолчанию глобальный провайдер otel).
	Tracer trace.Tracer

	Logger *slog.Logger

	// Now — источник времени (для тестов).
	Now func() time.Time
}

// NewWorkflowRunner создаёт WorkflowRunner.
func NewWorkflowRunner(cfg WorkflowConfig) *WorkflowRunner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &WorkflowRunner{
		locker:    cfg.Locker,
		tx:        cfg.Tx,
		workflows: cfg.Workflows,
		events:    cfg.Events,
		tracer:    tracer,
		logger:    logger,
		now:       now,
	}
}

// WorkflowLockKey возвращает ключ мьютекса обновления процесса.
func WorkflowLockKey(class string, target domain.TargetRef) string {
	return fmt.Sprintf("Workflow-%s-%s", class, target.ID)
}

// UpdateWorkflow применяет decider к процессу объекта target от имени user.
//
// Под мьютексом WorkflowLockKey в одной транзакции: найти или создать
// экземпляр, вызвать DoWorkflow, зафиксировать решение, сохранить.
// Ошибка decider'а возвращается как *WorkFailure после отката и
// освобождения блокировки. Повторов на этом уровне нет.
func (r *WorkflowRunner) UpdateWorkflow(ctx context.Context, d Decider, target domain.TargetRef, user domain.User) (*domain.WorkflowInstance, error) {
	if d == nil {
		return nil, ErrNilDecider
	}
	if err := target.Validate(); err != nil {
		return nil, err
	}

	class := d.Name()
	logger := telemetry.WithTarget(r.logger, target).With("deciding_class", class, "user", user.ID)

	ctx, span := r.tracer.Start(ctx, "concord.workflow.update",
		trace.WithAttributes(
			attribute.String("concord.deciding_class", class),
			attribute.String("concord.target", target.String()),
			attribute.String("concord.user", user.ID),
		),
	)
	defer span.End()

	inst, err := lock.Do(ctx, r.locker, WorkflowLockKey(class, target), lock.Temporary,
		func(ctx context.Context) (*domain.WorkflowInstance, error) {
			var inst *domain.WorkflowInstance
			err := r.tx.WithinTx(ctx, func(ctx context.Context) error {
				var err error
				inst, err = r.workflows.FindOrCreateWorkflow(ctx, class, target)
				if err != nil {
					return fmt.Errorf("find or create workflow: %w", err)
				}

				if err := d.DoWorkflow(ctx, target, inst, user); err != nil {
					return &WorkFailure{Op: class, Target: target, Err: err}
				}

				inst.RecordDecision(user, r.now())

				if err := r.workflows.SaveWorkflow(ctx, inst); err != nil {
					return fmt.Errorf("save workflow: %w", err)
				}
				return nil
			})
			return inst, err
		})
	if err != nil {
		errClass := retry.Classify(err)
		workflowUpdatesTotal.WithLabelValues(class, string(errClass)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("workflow update failed", "class", errClass, "error", err)
		return nil, err
	}

	workflowUpdatesTotal.WithLabelValues(class, "ok").Inc()
	span.SetAttributes(
		attribute.String("concord.state", string(inst.State)),
		attribute.Int("concord.version", inst.Version),
	)
	span.SetStatus(codes.Ok, "")

	logger.Info("workflow updated",
		"state", inst.State,
		"version", inst.Version,
	)

	r.publish(ctx, logger, domain.NewEvent(domain.EventWorkflowUpdated, target, map[string]any{
		"deciding_class": class,
		"state":          string(inst.State),
		"version":        inst.Version,
		"user":           user.ID,
	}))

	return inst, nil
}

// publish отправляет событие после фиксации транзакции.
// Ошибка публикации не отменяет уже применённое решение.
func (r *WorkflowRunner) publish(ctx context.Context, logger *slog.Logger, ev domain.Event) {
	if r.events == nil {
		return
	}
	if err := r.events.Publish(ctx, ev); err != nil {
		logger.Warn("failed to publish event", "event", ev.Type, "error", err)
	}
}
