package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shaiso/Concord/internal/config"
	"github.com/shaiso/Concord/internal/domain"
	"github.com/shaiso/Concord/internal/participants"
	"github.com/shaiso/Concord/internal/repo"
	"github.com/shaiso/Concord/internal/runner"
	"github.com/shaiso/Concord/internal/webhook"
	"github.com/shaiso/Concord/internal/workflows"
)

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Database: config.DatabaseConfig{Driver: config.DriverSQLite, Path: filepath.Join(t.TempDir(), "app.db")},
		Lock:     config.LockConfig{Backend: config.LockMemory, WaitTimeout: time.Second},
		Runner:   config.RunnerConfig{AlertAfter: 3},
		Tracing:  config.TracingConfig{Exporter: "none", ServiceName: "concord"},
	}
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// --- App Tests ---

func TestNew_SQLiteEndToEnd(t *testing.T) {
	ctx := context.Background()

	a, err := New(ctx, sqliteConfig(t), discard, "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer a.Close()

	if a.MQ != nil || a.Publisher != nil {
		t.Error("rabbitmq must stay disabled")
	}
	if a.Catalog.Passwords.Len() != 2 || a.Catalog.Events.Len() != 1 {
		t.Errorf("expected default participants, got %+v", a.Catalog.Summaries())
	}

	target := domain.NewTargetRef("Order", "42")
	inst, err := a.Workflows.UpdateWorkflow(ctx, mustDecider(t, a, "acceptance"), target, domain.User{ID: "u1"})
	if err != nil {
		t.Fatalf("update workflow: %v", err)
	}
	if inst.State != domain.WorkflowStateAccepted {
		t.Errorf("empty acceptance registry must accept, got %s", inst.State)
	}

	if err := a.Store.PutTarget(ctx, target); err != nil {
		t.Fatalf("put target: %v", err)
	}
	item, _ := domain.NewScheduledWorkItem(domain.WorkKindValidation, target, time.Time{})
	if err := a.Store.CreateWorkItem(ctx, item); err != nil {
		t.Fatalf("create work item: %v", err)
	}

	summary, err := a.Batch.RunDueWork(ctx, time.Now().Add(time.Second))
	if err != nil {
		t.Fatalf("run due work: %v", err)
	}
	if summary.Processed != 1 {
		t.Errorf("expected one processed item, got %+v", summary)
	}

	if a.APIHandler() == nil {
		t.Error("expected API handler")
	}
}

func TestNew_WebhookWorkKind(t *testing.T) {
	ctx := context.Background()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	cfg := sqliteConfig(t)
	cfg.Webhooks = []webhook.Config{{Kind: "notify", URL: srv.URL}}

	a, err := New(ctx, cfg, discard, "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer a.Close()

	target := domain.NewTargetRef("Order", "7")
	a.Store.PutTarget(ctx, target)
	item, _ := domain.NewScheduledWorkItem("notify", target, time.Time{})
	if err := a.Store.CreateWorkItem(ctx, item); err != nil {
		t.Fatalf("create work item: %v", err)
	}

	summary, err := a.Batch.RunDueWork(ctx, time.Now().Add(time.Second))
	if err != nil {
		t.Fatalf("run due work: %v", err)
	}
	if summary.Processed != 1 || hits.Load() != 1 {
		t.Errorf("expected one delivered webhook, got %+v and %d hits", summary, hits.Load())
	}
}

func TestNew_FailedDecisionLeavesNoInstance(t *testing.T) {
	ctx := context.Background()

	a, err := New(ctx, sqliteConfig(t), discard, "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer a.Close()

	target := domain.NewTargetRef("Order", "9")
	_, err = a.Workflows.UpdateWorkflow(ctx, mustDecider(t, a, "booking"), target, domain.User{ID: "u1"})
	if !errors.Is(err, workflows.ErrBookingNotAllowed) {
		t.Fatalf("expected ErrBookingNotAllowed, got %v", err)
	}

	if _, err := a.Store.GetWorkflow(ctx, "booking", target); !errors.Is(err, repo.ErrNotFound) {
		t.Errorf("instance created by a refused decision must be rolled back, got %v", err)
	}
}

func TestNew_RejectsIncompatibleLock(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Lock.Backend = config.LockAdvisory

	if _, err := New(context.Background(), cfg, discard, "test"); !errors.Is(err, config.ErrIncompatibleLock) {
		t.Errorf("expected ErrIncompatibleLock, got %v", err)
	}
}

func TestNew_AMQPParticipantNeedsRabbit(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Participants = []participants.Spec{{Kind: "amqp"}}

	if _, err := New(context.Background(), cfg, discard, "test"); !errors.Is(err, participants.ErrAMQPUnavailable) {
		t.Errorf("expected ErrAMQPUnavailable, got %v", err)
	}
}

func mustDecider(t *testing.T, a *App, class string) runner.Decider {
	t.Helper()
	d, err := a.Deciders.Get(class)
	if err != nil {
		t.Fatalf("decider %s: %v", class, err)
	}
	return d
}
