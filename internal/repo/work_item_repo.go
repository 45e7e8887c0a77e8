package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Concord/internal/domain"
)

// WorkItemRepo — репозиторий scheduled_work_items.
type WorkItemRepo struct {
	pool *pgxpool.Pool
}

// NewWorkItemRepo создаёт новый WorkItemRepo.
func NewWorkItemRepo(pool *pgxpool.Pool) *WorkItemRepo {
	return &WorkItemRepo{pool: pool}
}

const workItemColumns = `id, kind, target_type, target_id, run_date, attempts, last_error, created_at`

// CreateWorkItem создаёт новый элемент.
func (r *WorkItemRepo) CreateWorkItem(ctx context.Context, item *domain.ScheduledWorkItem) error {
	query := `
		INSERT INTO scheduled_work_items (` + workItemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := conn(ctx, r.pool).Exec(ctx, query,
		item.ID,
		item.Kind,
		item.Target.Type,
		item.Target.ID,
		item.RunDate,
		item.Attempts,
		nullString(item.LastError),
		item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert work item: %w", err)
	}
	return nil
}

// GetWorkItem возвращает элемент по ID.
func (r *WorkItemRepo) GetWorkItem(ctx context.Context, id uuid.UUID) (*domain.ScheduledWorkItem, error) {
	query := `SELECT ` + workItemColumns + ` FROM scheduled_work_items WHERE id = $1`
	item, err := scanWorkItem(conn(ctx, r.pool).QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return item, err
}

// FindDue возвращает снимок элементов с run_date <= now в порядке run_date.
// limit <= 0 — без ограничения.
func (r *WorkItemRepo) FindDue(ctx context.Context, now time.Time, limit int) ([]domain.ScheduledWorkItem, error) {
	query := `
		SELECT ` + workItemColumns + `
		FROM scheduled_work_items
		WHERE run_date <= $1
		ORDER BY run_date, created_at
		LIMIT NULLIF($2::int, 0)
	`
	return r.query(ctx, "find due work items", query, now, max(limit, 0))
}

// ListWorkItems возвращает элементы с фильтрацией.
func (r *WorkItemRepo) ListWorkItems(ctx context.Context, filter WorkItemFilter) ([]domain.ScheduledWorkItem, error) {
	filter = filter.Normalize()
	query := `
		SELECT ` + workItemColumns + `
		FROM scheduled_work_items
		WHERE ($1::text IS NULL OR kind = $1)
		  AND ($2::text IS NULL OR target_type = $2)
		ORDER BY run_date, created_at
		LIMIT $3 OFFSET $4
	`
	return r.query(ctx, "list work items", query,
		nullString(filter.Kind),
		nullString(filter.TargetType),
		filter.Limit,
		filter.Offset,
	)
}

// WorkItemExists проверяет, что элемент ещё не завершён.
func (r *WorkItemRepo) WorkItemExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM scheduled_work_items WHERE id = $1)`
	if err := conn(ctx, r.pool).QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check work item: %w", err)
	}
	return exists, nil
}

// DestroyWorkItem удаляет элемент — это отметка о завершении.
func (r *WorkItemRepo) DestroyWorkItem(ctx context.Context, id uuid.UUID) error {
	result, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM scheduled_work_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete work item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordFailure увеличивает attempts и сохраняет last_error. run_date не меняется.
func (r *WorkItemRepo) RecordFailure(ctx context.Context, id uuid.UUID, msg string) error {
	query := `
		UPDATE scheduled_work_items
		SET attempts = attempts + 1, last_error = $2
		WHERE id = $1
	`
	result, err := conn(ctx, r.pool).Exec(ctx, query, id, nullString(msg))
	if err != nil {
		return fmt.Errorf("record work item failure: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *WorkItemRepo) query(ctx context.Context, op, query string, args ...any) ([]domain.ScheduledWorkItem, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var items []domain.ScheduledWorkItem
	for rows.Next() {
		item, err := scanWorkItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func scanWorkItem(row scanner) (*domain.ScheduledWorkItem, error) {
	var item domain.ScheduledWorkItem
	var lastError *string

	err := row.Scan(
		&item.ID,
		&item.Kind,
		&item.Target.Type,
		&item.Target.ID,
		&item.RunDate,
		&item.Attempts,
		&lastError,
		&item.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan work item: %w", err)
	}

	if lastError != nil {
		item.LastError = *lastError
	}
	return &item, nil
}
