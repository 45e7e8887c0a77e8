// Package validation реализует работу вида "validation":
// прогон правил RuleRegistry над объектом с сохранением результатов.
package validation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Concord/internal/domain"
	"github.com/shaiso/Concord/internal/registry"
)

// ResultStore сохраняет результаты проверок объекта.
type ResultStore interface {
	// ReplaceResults заменяет все прежние результаты объекта новыми.
	ReplaceResults(ctx context.Context, target domain.TargetRef, results []domain.ValidationResult) error
}

// Work — обработчик работ вида domain.WorkKindValidation.
//
// Повторный прогон заменяет результаты целиком, поэтому работа
// идемпотентна: при откате транзакции или повторе дублей не остаётся.
type Work struct {
	rules   *registry.RuleRegistry
	results ResultStore
	logger  *slog.Logger
	now     func() time.Time
}

// Config — конфигурация Work.
type Config struct {
	Rules   *registry.RuleRegistry
	Results ResultStore
	Logger  *slog.Logger
}

// New создаёт Work.
func New(cfg Config) *Work {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Work{
		rules:   cfg.Rules,
		results: cfg.Results,
		logger:  logger,
		now:     time.Now,
	}
}

// Kind реализует runner.Work.
func (w *Work) Kind() string {
	return domain.WorkKindValidation
}

// Run применяет правила к объекту работы и сохраняет результаты.
// Непройденное правило — это результат, а не ошибка работы.
func (w *Work) Run(ctx context.Context, item *domain.ScheduledWorkItem) error {
	outcomes, err := w.rules.EvaluateAll(ctx, item.Target)
	if err != nil {
		return fmt.Errorf("evaluate rules: %w", err)
	}

	at := w.now().UTC()
	results := make([]domain.ValidationResult, len(outcomes))
	failed := 0
	for i, o := range outcomes {
		results[i] = domain.ValidationResult{
			ID:        uuid.New(),
			Target:    item.Target,
			RuleName:  o.Rule,
			Passed:    o.Passed,
			Message:   o.Message,
			CreatedAt: at,
		}
		if !o.Passed {
			failed++
		}
	}

	if err := w.results.ReplaceResults(ctx, item.Target, results); err != nil {
		return fmt.Errorf("store validation results: %w", err)
	}

	w.logger.Debug("target validated",
		"target", item.Target.String(),
		"rules", len(results),
		"failed", failed,
	)
	return nil
}
