package repo

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Concord/internal/domain"
	"github.com/shaiso/Concord/internal/lock"
	"github.com/shaiso/Concord/internal/retry"
)

// testPool открывает пул к CONCORD_TEST_DB_URL; без переменной тест пропускается.
func testPool(t *testing.T, maxConns int32) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("CONCORD_TEST_DB_URL")
	if dsn == "" {
		t.Skip("CONCORD_TEST_DB_URL not set")
	}

	ctx := context.Background()
	pool, err := NewPool(ctx, PoolConfig{DSN: dsn, MaxConns: maxConns})
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return pool
}

// --- Advisory + TxManager Tests ---

func TestAdvisory_TxRunsOnLockConnection(t *testing.T) {
	pool := testPool(t, 1)
	store, err := NewStore(pool, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	locker := lock.NewAdvisory(lock.AdvisoryConfig{Pool: pool, WaitTimeout: 5 * time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	target := domain.NewTargetRef("Order", uuid.NewString())
	err = locker.WithLock(ctx, "Workflow-test-"+target.ID, lock.Persistent, func(ctx context.Context) error {
		if _, ok := lock.HeldConn(ctx); !ok {
			t.Error("expected lock connection in context")
		}
		if _, err := store.GetWorkflow(ctx, "test", target); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound outside tx, got %v", err)
		}
		return store.WithinTx(ctx, func(ctx context.Context) error {
			inst, err := store.FindOrCreateWorkflow(ctx, "test", target)
			if err != nil {
				return err
			}
			inst.RecordDecision(domain.User{ID: "u1"}, time.Now())
			return store.SaveWorkflow(ctx, inst)
		})
	})
	if err != nil {
		t.Fatalf("a single-connection pool must be enough, got %v", err)
	}

	inst, err := store.GetWorkflow(context.Background(), "test", target)
	if err != nil {
		t.Fatalf("get workflow: %v", err)
	}
	if inst.Version != 1 {
		t.Errorf("expected version 1, got %d", inst.Version)
	}
}

func TestAdvisory_WaitTimeout(t *testing.T) {
	pool := testPool(t, 2)
	holder := lock.NewAdvisory(lock.AdvisoryConfig{Pool: pool})
	waiter := lock.NewAdvisory(lock.AdvisoryConfig{Pool: pool, WaitTimeout: 200 * time.Millisecond})

	key := "test-" + uuid.NewString()
	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- holder.WithLock(context.Background(), key, lock.Temporary, func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	err := waiter.WithLock(context.Background(), key, lock.Temporary, func(context.Context) error {
		t.Error("critical section must not run while the key is held")
		return nil
	})

	var ce *retry.ContentionError
	if !errors.As(err, &ce) || !retry.IsRetryableContention(err) {
		t.Errorf("expected contention error, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("holder: %v", err)
	}
}

// --- RowLocks Tests ---

func TestRowLocks_LockTimeoutIsContention(t *testing.T) {
	pool := testPool(t, 2)
	rows := NewRowLocks(pool, 200*time.Millisecond)
	target := domain.NewTargetRef("Order", uuid.NewString())

	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- NewRowLocks(pool, 0).WithRowLock(context.Background(), target, func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	err := rows.WithRowLock(context.Background(), target, func(context.Context) error {
		t.Error("critical section must not run while the row is locked")
		return nil
	})
	if retry.Classify(err) != retry.ClassContention {
		t.Errorf("expected contention, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("holder: %v", err)
	}
}
