package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shaiso/Concord/internal/domain"
	"github.com/shaiso/Concord/internal/retry"
)

// --- Memory Tests ---

func TestMemory_MutualExclusion(t *testing.T) {
	m := NewMemory(MemoryConfig{})

	var holders, maxHolders, total int32
	var wg sync.WaitGroup

	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := m.WithLock(context.Background(), "Workflow-acceptance-42", Temporary, func(ctx context.Context) error {
				n := atomic.AddInt32(&holders, 1)
				for {
					cur := atomic.LoadInt32(&maxHolders)
					if n <= cur || atomic.CompareAndSwapInt32(&maxHolders, cur, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&total, 1)
				atomic.AddInt32(&holders, -1)
				return nil
			})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if maxHolders != 1 {
		t.Errorf("expected at most one holder, got %d", maxHolders)
	}
	if total != 20 {
		t.Errorf("expected 20 critical sections, got %d", total)
	}
	if m.Held() != 0 {
		t.Errorf("expected entries cleaned up, got %d", m.Held())
	}
}

func TestMemory_DifferentKeysDoNotBlock(t *testing.T) {
	m := NewMemory(MemoryConfig{WaitTimeout: time.Second})

	inner := make(chan error, 1)
	err := m.WithLock(context.Background(), "a", Temporary, func(ctx context.Context) error {
		// Другой ключ захватывается, пока "a" удерживается
		inner <- m.WithLock(ctx, "b", Temporary, func(context.Context) error { return nil })
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := <-inner; err != nil {
		t.Errorf("unexpected inner error: %v", err)
	}
}

func TestMemory_WaitTimeout(t *testing.T) {
	m := NewMemory(MemoryConfig{WaitTimeout: 20 * time.Millisecond})

	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = m.WithLock(context.Background(), "k", Temporary, func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held
	defer close(release)

	called := false
	err := m.WithLock(context.Background(), "k", Temporary, func(context.Context) error {
		called = true
		return nil
	})

	var ce *retry.ContentionError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ContentionError, got %v", err)
	}
	if ce.Key != "k" {
		t.Errorf("expected key k, got %s", ce.Key)
	}
	if !retry.IsRetryableContention(err) {
		t.Error("timeout should classify as contention")
	}
	if called {
		t.Error("fn must not run without the lock")
	}
}

func TestMemory_ContextCancelledWhileWaiting(t *testing.T) {
	m := NewMemory(MemoryConfig{})

	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = m.WithLock(context.Background(), "k", Temporary, func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := m.WithLock(ctx, "k", Temporary, func(context.Context) error { return nil })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected caller deadline, got %v", err)
	}
}

func TestMemory_ReleasesOnErrorAndPanic(t *testing.T) {
	m := NewMemory(MemoryConfig{WaitTimeout: 50 * time.Millisecond})
	boom := errors.New("boom")

	if err := m.WithLock(context.Background(), "k", Temporary, func(context.Context) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}

	func() {
		defer func() { _ = recover() }()
		_ = m.WithLock(context.Background(), "k", Temporary, func(context.Context) error { panic("oops") })
	}()

	// Блокировка должна быть свободна после ошибки и паники
	if err := m.WithLock(context.Background(), "k", Temporary, func(context.Context) error { return nil }); err != nil {
		t.Errorf("lock not released: %v", err)
	}
}

func TestMemory_EmptyKey(t *testing.T) {
	m := NewMemory(MemoryConfig{})
	if err := m.WithLock(context.Background(), "", Temporary, func(context.Context) error { return nil }); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("expected ErrEmptyKey, got %v", err)
	}
}

func TestMemory_PersistentRecords(t *testing.T) {
	m := NewMemory(MemoryConfig{})
	noop := func(context.Context) error { return nil }

	_ = m.WithLock(context.Background(), "audit", Persistent, noop)
	_ = m.WithLock(context.Background(), "audit", Persistent, noop)
	_ = m.WithLock(context.Background(), "temp", Temporary, noop)

	records := m.Records()
	rec, ok := records["audit"]
	if !ok {
		t.Fatal("expected audit record")
	}
	if rec.Acquisitions != 2 {
		t.Errorf("expected 2 acquisitions, got %d", rec.Acquisitions)
	}
	if rec.LastReleasedAt.Before(rec.LastAcquiredAt) {
		t.Error("release time should not precede acquisition")
	}
	if _, ok := records["temp"]; ok {
		t.Error("temporary lock must not leave a record")
	}
}

// --- Do Tests ---

func TestDo_ReturnsResult(t *testing.T) {
	m := NewMemory(MemoryConfig{})

	got, err := Do(context.Background(), m, "k", Temporary, func(context.Context) (int, error) {
		return 42, nil
	})
	if err != nil || got != 42 {
		t.Errorf("expected 42, got %d (%v)", got, err)
	}

	got, err = Do(context.Background(), m, "k", Temporary, func(context.Context) (int, error) {
		return 7, errors.New("fail")
	})
	if err == nil || got != 0 {
		t.Errorf("expected zero result with error, got %d (%v)", got, err)
	}
}

// --- Keyed Tests ---

type fakeTx struct{ calls int }

func (f *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	return fn(ctx)
}

func TestKeyed_WithRowLock(t *testing.T) {
	m := NewMemory(MemoryConfig{})
	tx := &fakeTx{}
	rows := Keyed{Locker: m, Tx: tx}

	target := domain.NewTargetRef("Order", "42")
	err := rows.WithRowLock(context.Background(), target, func(ctx context.Context) error {
		// Ключ объекта удерживается внутри fn
		if m.Held() != 1 {
			t.Errorf("expected row key held, got %d entries", m.Held())
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.calls != 1 {
		t.Errorf("expected one transaction, got %d", tx.calls)
	}
	if RowKey(target) != "row:Order#42" {
		t.Errorf("unexpected row key %s", RowKey(target))
	}
}
