package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shaiso/Concord/internal/runner"
)

type fakeRunner struct {
	mu      sync.Mutex
	calls   int
	entered chan struct{}
	block   chan struct{}
	done    chan struct{}
}

func (f *fakeRunner) RunDueWork(context.Context, time.Time) (runner.Summary, error) {
	if f.entered != nil {
		close(f.entered)
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.done != nil {
		f.done <- struct{}{}
	}
	return runner.Summary{Due: 1, Processed: 1}, nil
}

func (f *fakeRunner) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// --- Cron Tests ---

func TestValidateSpec(t *testing.T) {
	for _, spec := range []string{"@every 30s", "*/5 * * * *", "@hourly"} {
		if err := ValidateSpec(spec); err != nil {
			t.Errorf("%q should be valid: %v", spec, err)
		}
	}
	if err := ValidateSpec("every minute"); err == nil {
		t.Error("expected error for invalid spec")
	}
}

func TestNextRun(t *testing.T) {
	from := time.Date(2026, 1, 1, 10, 7, 0, 0, time.UTC)
	next, err := NextRun("*/15 * * * *", from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := time.Date(2026, 1, 1, 10, 15, 0, 0, time.UTC); !next.Equal(want) {
		t.Errorf("expected %s, got %s", want, next)
	}
}

// --- Scheduler Tests ---

func TestNew_RejectsBadSpec(t *testing.T) {
	if _, err := New(Config{Runner: &fakeRunner{}, Spec: "nonsense"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestTick_DoesNotOverlap(t *testing.T) {
	f := &fakeRunner{entered: make(chan struct{}), block: make(chan struct{})}
	s, _ := New(Config{Runner: f})

	finished := make(chan struct{})
	go func() {
		s.Tick(context.Background())
		close(finished)
	}()
	<-f.entered

	if _, err := s.Tick(context.Background()); !errors.Is(err, ErrBusy) {
		t.Errorf("expected ErrBusy, got %v", err)
	}

	close(f.block)
	<-finished

	if f.count() != 1 {
		t.Errorf("expected one pass, got %d", f.count())
	}
}

func TestRun_NudgeTriggersPass(t *testing.T) {
	f := &fakeRunner{done: make(chan struct{}, 4)}
	s, _ := New(Config{Runner: f, Spec: "@every 1h"})

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan error, 1)
	go func() { stopped <- s.Run(ctx) }()

	s.Nudge()

	select {
	case <-f.done:
	case <-time.After(2 * time.Second):
		t.Fatal("nudge did not trigger a pass")
	}

	cancel()
	select {
	case err := <-stopped:
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestNudge_Coalesces(t *testing.T) {
	s, _ := New(Config{Runner: &fakeRunner{}})
	for range 5 {
		s.Nudge()
	}
	if len(s.nudges) != 1 {
		t.Errorf("expected nudges to coalesce, got %d pending", len(s.nudges))
	}
}
