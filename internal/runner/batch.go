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

// Summary — итог одного прохода RunDueWork.
// Contended — подмножество Failed.
type Summary struct {
	Due       int `json:"due"`
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
	Contended int `json:"contended"`
	Skipped   int `json:"skipped"`
}

// BatchRunner обрабатывает наступившие запланированные работы.
type BatchRunner struct {
	source   WorkSource
	failures FailureRecorder
	targets  TargetResolver
	rows     lock.RowLocker
	works    *WorkSet
	events   EventPublisher

	batchSize  int
	alertAfter int

	tracer trace.Tracer
	logger *slog.Logger
}

// BatchConfig — конфигурация BatchRunner.
type BatchConfig struct {
	Source   WorkSource
	Failures FailureRecorder
	Targets  TargetResolver
	Rows     lock.RowLocker
	Works    *WorkSet

	// Events — получатель work.completed и work.failed (опционально).
	Events EventPublisher

	// BatchSize — максимум работ за проход; 0 — без ограничения.
	BatchSize int

	// AlertAfter — число попыток, после которого отказ логируется
	// с attempts_exceeded=true; 0 — выключено.
	AlertAfter int

	Tracer trace.Tracer
	Logger *slog.Logger
}

// NewBatchRunner создаёт BatchRunner.
func NewBatchRunner(cfg BatchConfig) *BatchRunner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}

	works := cfg.Works
	if works == nil {
		works = NewWorkSet()
	}

	return &BatchRunner{
		source:     cfg.Source,
		failures:   cfg.Failures,
		targets:    cfg.Targets,
		rows:       cfg.Rows,
		works:      works,
		events:     cfg.Events,
		batchSize:  cfg.BatchSize,
		alertAfter: cfg.AlertAfter,
		tracer:     tracer,
		logger:     logger,
	}
}

// RunDueWork выполняет все работы с RunDate <= now.
//
// Список берётся снимком; каждая работа выполняется под row-блокировкой
// своего объекта. Отказ одной работы не прерывает пакет: он
// классифицируется, записывается (attempts+1, last_error) и публикуется.
// Контекст проверяется только между работами.
func (r *BatchRunner) RunDueWork(ctx context.Context, now time.Time) (Summary, error) {
	var summary Summary

	start := time.Now()
	defer func() { batchDuration.Observe(time.Since(start).Seconds()) }()

	ctx, span := r.tracer.Start(ctx, "concord.batch.run")
	defer span.End()

	items, err := r.source.FindDue(ctx, now, r.batchSize)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return summary, fmt.Errorf("find due work: %w", err)
	}

	summary.Due = len(items)
	span.SetAttributes(attribute.Int("concord.due", summary.Due))

	if summary.Due == 0 {
		r.logger.Debug("no due work")
		return summary, nil
	}

	for i := range items {
		if err := ctx.Err(); err != nil {
			r.logger.Warn("batch interrupted", "remaining", summary.Due-i, "error", err)
			return summary, err
		}

		item := &items[i]
		skipped, err := r.runItem(ctx, item)

		switch {
		case err != nil:
			r.handleFailure(ctx, item, err, &summary)
		case skipped:
			summary.Skipped++
			workItemsTotal.WithLabelValues(outcomeSkipped).Inc()
		default:
			summary.Processed++
			workItemsTotal.WithLabelValues(outcomeProcessed).Inc()
			r.publish(ctx, domain.NewEvent(domain.EventWorkCompleted, item.Target, map[string]any{
				"work_item_id": item.ID.String(),
				"kind":         item.Kind,
			}))
		}
	}

	r.logger.Info("due work processed",
		"due", summary.Due,
		"processed", summary.Processed,
		"failed", summary.Failed,
		"contended", summary.Contended,
		"skipped", summary.Skipped,
		"duration", time.Since(start),
	)

	return summary, nil
}

// runItem выполняет одну работу под row-блокировкой объекта.
// skipped=true — работа уже удалена другим исполнителем.
func (r *BatchRunner) runItem(ctx context.Context, item *domain.ScheduledWorkItem) (skipped bool, err error) {
	ctx, span := r.tracer.Start(ctx, "concord.work.run",
		trace.WithAttributes(
			attribute.String("concord.work_item_id", item.ID.String()),
			attribute.String("concord.kind", item.Kind),
			attribute.String("concord.target", item.Target.String()),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	err = r.rows.WithRowLock(ctx, item.Target, func(ctx context.Context) error {
		exists, err := r.source.WorkItemExists(ctx, item.ID)
		if err != nil {
			return fmt.Errorf("check work item: %w", err)
		}
		if !exists {
			skipped = true
			return nil
		}

		found, err := r.targets.TargetExists(ctx, item.Target)
		if err != nil {
			return fmt.Errorf("resolve target: %w", err)
		}
		if !found {
			return &WorkFailure{Op: item.Kind, Target: item.Target, Err: ErrTargetNotFound}
		}

		work, err := r.works.Get(item.Kind)
		if err != nil {
			return err
		}

		if err := work.Run(ctx, item); err != nil {
			return &WorkFailure{Op: item.Kind, Target: item.Target, Err: err}
		}

		if err := r.source.DestroyWorkItem(ctx, item.ID); err != nil {
			return fmt.Errorf("destroy work item: %w", err)
		}
		return nil
	})

	return skipped, err
}

// handleFailure классифицирует и записывает отказ работы.
// Транзакция работы уже откатана, поэтому запись идёт отдельно.
func (r *BatchRunner) handleFailure(ctx context.Context, item *domain.ScheduledWorkItem, err error, summary *Summary) {
	class := retry.Classify(err)
	attempts := item.Attempts + 1
	logger := telemetry.WithWorkItem(r.logger, item)

	summary.Failed++
	outcome := outcomeFailed
	if class == retry.ClassContention {
		summary.Contended++
		outcome = outcomeContended
	}
	workItemsTotal.WithLabelValues(outcome).Inc()

	if r.failures != nil {
		if recErr := r.failures.RecordFailure(ctx, item.ID, err.Error()); recErr != nil {
			logger.Warn("failed to record work failure", "error", recErr)
		}
	}

	attrs := []any{"class", class, "attempts", attempts, "error", err}
	switch {
	case r.alertAfter > 0 && attempts >= r.alertAfter:
		logger.Error("work item keeps failing", append(attrs, "attempts_exceeded", true)...)
	case class == retry.ClassContention:
		logger.Warn("work item contended, will retry on next run", attrs...)
	default:
		logger.Error("work item failed", attrs...)
	}

	r.publish(ctx, domain.NewEvent(domain.EventWorkFailed, item.Target, map[string]any{
		"work_item_id": item.ID.String(),
		"kind":         item.Kind,
		"class":        string(class),
		"attempts":     attempts,
		"error":        err.Error(),
	}))
}

func (r *BatchRunner) publish(ctx context.Context, ev domain.Event) {
	if r.events == nil {
		return
	}
	if err := r.events.Publish(ctx, ev); err != nil {
		r.logger.Warn("failed to publish event",
			"event", ev.Type,
			"target", ev.Target.String(),
			"error", err,
		)
	}
}
