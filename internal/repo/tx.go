package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Concord/internal/domain"
	"github.com/shaiso/Concord/internal/lock"
)

// querier — общее подмножество pgxpool.Pool и pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// scanner — общее подмножество pgx.Row и pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

type txKey struct{}

// conn возвращает транзакцию из контекста, соединение удерживаемой
// advisory-блокировки или пул.
// Все репозитории выполняют запросы через conn, поэтому автоматически
// участвуют в транзакции, открытой TxManager или RowLocks.
func conn(ctx context.Context, pool *pgxpool.Pool) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	if c, ok := lock.HeldConn(ctx); ok {
		return c
	}
	return pool
}

// TxManager открывает транзакции и передаёт их через контекст.
type TxManager struct {
	pool *pgxpool.Pool
}

// NewTxManager создаёт TxManager.
func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return &TxManager{pool: pool}
}

// WithinTx выполняет fn в транзакции. Если в контексте уже есть
// транзакция, fn присоединяется к ней. Под lock.Advisory транзакция
// открывается на соединении блокировки.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	var db interface {
		Begin(ctx context.Context) (pgx.Tx, error)
	} = m.pool
	if c, ok := lock.HeldConn(ctx); ok {
		db = c
	}

	return pgx.BeginFunc(ctx, db, func(tx pgx.Tx) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// RowLocks — row-блокировки объектов на pg_advisory_xact_lock.
//
// Блокировка берётся первой командой транзакции и снимается сервером
// при commit или rollback.
type RowLocks struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

// NewRowLocks создаёт RowLocks. lockTimeout > 0 ограничивает ожидание
// (SET LOCAL lock_timeout); истечение даёт SQLSTATE 55P03.
func NewRowLocks(pool *pgxpool.Pool, lockTimeout time.Duration) *RowLocks {
	return &RowLocks{pool: pool, lockTimeout: lockTimeout}
}

// WithRowLock реализует lock.RowLocker.
func (l *RowLocks) WithRowLock(ctx context.Context, target domain.TargetRef, fn func(ctx context.Context) error) error {
	return pgx.BeginFunc(ctx, l.pool, func(tx pgx.Tx) error {
		if l.lockTimeout > 0 {
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = %d", l.lockTimeout.Milliseconds())
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("set lock timeout: %w", err)
			}
		}

		key := lock.RowKey(target)
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtextextended($1, 0))", key); err != nil {
			return fmt.Errorf("row lock %s: %w", target, err)
		}

		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
