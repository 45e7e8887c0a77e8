package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Concord/internal/retry"
)

// AdvisoryConfig — конфигурация Advisory.
type AdvisoryConfig struct {
	Pool *pgxpool.Pool

	// WaitTimeout — максимальное время ожидания (0 — ждать, пока жив ctx).
	WaitTimeout time.Duration

	Logger *slog.Logger
}

// Advisory — распределённая блокировка на сессионных advisory-lock PostgreSQL.
//
// Ключ хешируется в bigint через hashtextextended. Блокировка живёт на
// выделенном соединении пула: если освободить её не удалось, соединение
// закрывается, и сервер снимает блокировку вместе с сессией.
//
// Соединение передаётся в fn через контекст (HeldConn): запросы и
// транзакции критической секции идут по нему. Критическая секция не
// должна брать второе соединение из того же пула.
type Advisory struct {
	pool        *pgxpool.Pool
	waitTimeout time.Duration
	logger      *slog.Logger
}

// NewAdvisory создаёт Advisory.
func NewAdvisory(cfg AdvisoryConfig) *Advisory {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Advisory{
		pool:        cfg.Pool,
		waitTimeout: cfg.WaitTimeout,
		logger:      logger,
	}
}

// WithLock реализует Locker.
func (a *Advisory) WithLock(ctx context.Context, key string, mode Mode, fn func(ctx context.Context) error) error {
	if key == "" {
		return ErrEmptyKey
	}

	// Ожидание соединения и ожидание блокировки ограничены одним сроком
	waitCtx := ctx
	if a.waitTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, a.waitTimeout)
		defer cancel()
	}

	start := time.Now()
	conn, err := a.pool.Acquire(waitCtx)
	if err != nil {
		if a.timedOut(ctx, waitCtx) {
			return a.contention(key, err)
		}
		return fmt.Errorf("acquire connection: %w", err)
	}

	if err := a.lock(ctx, waitCtx, conn, key); err != nil {
		// Состояние сессии неизвестно (запрос мог быть отменён посреди захвата)
		discard(conn)
		return err
	}
	lockWaitSeconds.WithLabelValues("advisory").Observe(time.Since(start).Seconds())

	defer func() {
		_, err := conn.Exec(context.Background(), "SELECT pg_advisory_unlock(hashtextextended($1, 0))", key)
		if err != nil {
			a.logger.Warn("advisory unlock failed, closing connection", "key", key, "error", err)
			discard(conn)
			return
		}
		conn.Release()
	}()

	if mode == Persistent {
		if err := a.record(ctx, conn, key); err != nil {
			return err
		}
	}

	return fn(context.WithValue(ctx, heldConnKey{}, conn))
}

type heldConnKey struct{}

// HeldConn возвращает соединение, на котором Advisory держит блокировку
// текущей критической секции.
func HeldConn(ctx context.Context) (*pgxpool.Conn, bool) {
	conn, ok := ctx.Value(heldConnKey{}).(*pgxpool.Conn)
	return conn, ok
}

func (a *Advisory) lock(ctx, waitCtx context.Context, conn *pgxpool.Conn, key string) error {
	_, err := conn.Exec(waitCtx, "SELECT pg_advisory_lock(hashtextextended($1, 0))", key)
	if err == nil {
		return nil
	}
	if a.timedOut(ctx, waitCtx) {
		return a.contention(key, err)
	}
	return fmt.Errorf("advisory lock %q: %w", key, err)
}

// timedOut — истёк срок ожидания, а не родительский контекст.
func (a *Advisory) timedOut(ctx, waitCtx context.Context) bool {
	return ctx.Err() == nil && errors.Is(waitCtx.Err(), context.DeadlineExceeded)
}

func (a *Advisory) contention(key string, err error) error {
	lockContentionTotal.WithLabelValues("advisory").Inc()
	return &retry.ContentionError{Key: key, Waited: a.waitTimeout, Err: err}
}

// record обновляет запись аудита для Persistent-блокировок.
func (a *Advisory) record(ctx context.Context, conn *pgxpool.Conn, key string) error {
	query := `
		INSERT INTO lock_records (lock_key, acquisitions, last_acquired_at)
		VALUES ($1, 1, now())
		ON CONFLICT (lock_key) DO UPDATE
		SET acquisitions = lock_records.acquisitions + 1,
		    last_acquired_at = excluded.last_acquired_at
	`
	if _, err := conn.Exec(ctx, query, key); err != nil {
		return fmt.Errorf("record lock %q: %w", key, err)
	}
	return nil
}

// discard закрывает соединение и возвращает его пулу; пул уничтожит
// закрытое соединение вместо повторного использования.
func discard(conn *pgxpool.Conn) {
	_ = conn.Conn().Close(context.Background())
	conn.Release()
}
