// Package sqlite — однопроцессное хранилище на SQLite (modernc.org/sqlite).
//
// Реализует те же операции, что и PostgreSQL-репозитории пакета repo.
// SQLite допускает одного писателя, поэтому пул ограничен одним
// соединением; транзакция передаётся через контекст, и все методы
// выполняют запросы в ней, если она открыта.
//
// Время хранится как INTEGER (unix millis), UUID — как TEXT,
// данные workflow — как JSON в TEXT.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/shaiso/Concord/internal/domain"
	"github.com/shaiso/Concord/internal/lock"
)

const schema = `
PRAGMA journal_mode=WAL;
PRAGMA busy_timeout=5000;
CREATE TABLE IF NOT EXISTS scheduled_work_items (
  id TEXT PRIMARY KEY,
  kind TEXT NOT NULL,
  target_type TEXT NOT NULL,
  target_id TEXT NOT NULL,
  run_date INTEGER NOT NULL,
  attempts INTEGER NOT NULL DEFAULT 0,
  last_error TEXT,
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_work_items_run_date ON scheduled_work_items(run_date, created_at);
CREATE TABLE IF NOT EXISTS workflow_instances (
  id TEXT PRIMARY KEY,
  deciding_class TEXT NOT NULL,
  target_type TEXT NOT NULL,
  target_id TEXT NOT NULL,
  state TEXT NOT NULL,
  data TEXT NOT NULL DEFAULT '{}',
  version INTEGER NOT NULL DEFAULT 0,
  updated_by TEXT,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_workflow_target ON workflow_instances(deciding_class, target_type, target_id);
CREATE TABLE IF NOT EXISTS validation_results (
  id TEXT PRIMARY KEY,
  target_type TEXT NOT NULL,
  target_id TEXT NOT NULL,
  rule_name TEXT NOT NULL,
  passed INTEGER NOT NULL,
  message TEXT,
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_validation_results_target ON validation_results(target_type, target_id);
CREATE TABLE IF NOT EXISTS targets (
  target_type TEXT NOT NULL,
  target_id TEXT NOT NULL,
  created_at INTEGER NOT NULL,
  PRIMARY KEY (target_type, target_id)
);
`

// Store — хранилище на SQLite.
//
// Row-блокировки объектов берутся на внутрипроцессном мьютексе:
// база однопроцессная, поэтому внешний мьютекс не нужен.
type Store struct {
	db     *sql.DB
	locker lock.Locker
}

// Open открывает (или создаёт) базу по пути и применяет схему.
// path ":memory:" открывает базу в памяти.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?mode=rwc&_pragma=foreign_keys(1)", path)
	if path == ":memory:" {
		dsn = "file::memory:?mode=memory"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite single writer

	if err := EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, locker: lock.NewMemory(lock.MemoryConfig{})}, nil
}

// WithLocker заменяет мьютекс row-блокировок (например, на lock.Memory
// с таймаутом ожидания, общий с WorkflowRunner).
func (s *Store) WithLocker(l lock.Locker) *Store {
	s.locker = l
	return s
}

// WithRowLock реализует lock.RowLocker: мьютекс объекта, затем транзакция.
func (s *Store) WithRowLock(ctx context.Context, target domain.TargetRef, fn func(ctx context.Context) error) error {
	return lock.Keyed{Locker: s.locker, Tx: s}.WithRowLock(ctx, target, fn)
}

// EnsureSchema создаёт таблицы, если их нет.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Close закрывает базу.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB возвращает соединение (для тестов и диагностики).
func (s *Store) DB() *sql.DB {
	return s.db
}

// querier — общее подмножество *sql.DB и *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

func (s *Store) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return s.db
}

// WithinTx выполняет fn в транзакции. Вложенный вызов присоединяется
// к уже открытой транзакции.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// rowScanner — общее подмножество *sql.Row и *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}
