package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema — DDL хранилища. Идемпотентен, выполняется при старте.
const schema = `
CREATE TABLE IF NOT EXISTS scheduled_work_items (
    id          uuid PRIMARY KEY,
    kind        text        NOT NULL,
    target_type text        NOT NULL,
    target_id   text        NOT NULL,
    run_date    timestamptz NOT NULL,
    attempts    integer     NOT NULL DEFAULT 0,
    last_error  text,
    created_at  timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_work_items_run_date ON scheduled_work_items (run_date, created_at);

CREATE TABLE IF NOT EXISTS workflow_instances (
    id             uuid PRIMARY KEY,
    deciding_class text        NOT NULL,
    target_type    text        NOT NULL,
    target_id      text        NOT NULL,
    state          text        NOT NULL,
    data           jsonb       NOT NULL DEFAULT '{}',
    version        integer     NOT NULL DEFAULT 0,
    updated_by     text,
    created_at     timestamptz NOT NULL DEFAULT now(),
    updated_at     timestamptz NOT NULL DEFAULT now(),
    UNIQUE (deciding_class, target_type, target_id)
);

CREATE TABLE IF NOT EXISTS validation_results (
    id          uuid PRIMARY KEY,
    target_type text        NOT NULL,
    target_id   text        NOT NULL,
    rule_name   text        NOT NULL,
    passed      boolean     NOT NULL,
    message     text,
    created_at  timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_validation_results_target ON validation_results (target_type, target_id);

CREATE TABLE IF NOT EXISTS targets (
    target_type text        NOT NULL,
    target_id   text        NOT NULL,
    created_at  timestamptz NOT NULL DEFAULT now(),
    PRIMARY KEY (target_type, target_id)
);

CREATE TABLE IF NOT EXISTS lock_records (
    lock_key         text PRIMARY KEY,
    acquisitions     bigint      NOT NULL DEFAULT 0,
    last_acquired_at timestamptz NOT NULL
);
`

// EnsureSchema создаёт таблицы, если их нет.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
