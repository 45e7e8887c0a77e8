package validation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shaiso/Concord/internal/domain"
	"github.com/shaiso/Concord/internal/registry"
)

type memResults struct {
	byTarget map[domain.TargetRef][]domain.ValidationResult
	calls    int
}

func (m *memResults) ReplaceResults(_ context.Context, target domain.TargetRef, results []domain.ValidationResult) error {
	if m.byTarget == nil {
		m.byTarget = make(map[domain.TargetRef][]domain.ValidationResult)
	}
	m.calls++
	m.byTarget[target] = results
	return nil
}

type staticRule struct {
	name    string
	outcome registry.RuleOutcome
	err     error
}

func (r *staticRule) Name() string { return r.name }

func (r *staticRule) Evaluate(context.Context, domain.TargetRef) (registry.RuleOutcome, error) {
	return r.outcome, r.err
}

var order42 = domain.NewTargetRef("Order", "42")

func newItem(t *testing.T) *domain.ScheduledWorkItem {
	t.Helper()
	item, err := domain.NewScheduledWorkItem(domain.WorkKindValidation, order42, time.Time{})
	if err != nil {
		t.Fatalf("new item: %v", err)
	}
	return item
}

// --- Work Tests ---

func TestWork_StoresResults(t *testing.T) {
	rules := registry.NewRuleRegistry()
	rules.MustRegister(
		&staticRule{name: "has_invoice", outcome: registry.RuleOutcome{Passed: true}},
		&staticRule{name: "hs_code", outcome: registry.RuleOutcome{Passed: false, Message: "missing HS code"}},
	)
	store := &memResults{}
	w := New(Config{Rules: rules, Results: store})

	if w.Kind() != "validation" {
		t.Errorf("unexpected kind %q", w.Kind())
	}

	if err := w.Run(context.Background(), newItem(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := store.byTarget[order42]
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].RuleName != "has_invoice" || !got[0].Passed {
		t.Errorf("unexpected first result %+v", got[0])
	}
	if got[1].Passed || got[1].Message != "missing HS code" {
		t.Errorf("unexpected second result %+v", got[1])
	}
}

func TestWork_RerunReplaces(t *testing.T) {
	rules := registry.NewRuleRegistry()
	rules.MustRegister(&staticRule{name: "ok", outcome: registry.RuleOutcome{Passed: true}})
	store := &memResults{}
	w := New(Config{Rules: rules, Results: store})

	item := newItem(t)
	for range 2 {
		if err := w.Run(context.Background(), item); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if len(store.byTarget[order42]) != 1 {
		t.Errorf("expected results replaced, got %d", len(store.byTarget[order42]))
	}
}

func TestWork_RuleErrorAborts(t *testing.T) {
	boom := errors.New("registry offline")
	rules := registry.NewRuleRegistry()
	rules.MustRegister(&staticRule{name: "remote", err: boom})
	store := &memResults{}

	err := New(Config{Rules: rules, Results: store}).Run(context.Background(), newItem(t))
	if !errors.Is(err, boom) {
		t.Fatalf("expected rule error, got %v", err)
	}
	if store.calls != 0 {
		t.Error("partial results must not be stored")
	}
}
