package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Concord/internal/domain"
	"github.com/shaiso/Concord/internal/repo"
)

const workItemColumns = `id, kind, target_type, target_id, run_date, attempts, last_error, created_at`

// CreateWorkItem создаёт новый элемент.
func (s *Store) CreateWorkItem(ctx context.Context, item *domain.ScheduledWorkItem) error {
	_, err := s.q(ctx).ExecContext(ctx, `
INSERT INTO scheduled_work_items (`+workItemColumns+`)
VALUES (?,?,?,?,?,?,?,?)`,
		item.ID.String(),
		item.Kind,
		item.Target.Type,
		item.Target.ID,
		toMillis(item.RunDate),
		item.Attempts,
		nullString(item.LastError),
		toMillis(item.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert work item: %w", err)
	}
	return nil
}

// GetWorkItem возвращает элемент по ID.
func (s *Store) GetWorkItem(ctx context.Context, id uuid.UUID) (*domain.ScheduledWorkItem, error) {
	row := s.q(ctx).QueryRowContext(ctx, `SELECT `+workItemColumns+` FROM scheduled_work_items WHERE id = ?`, id.String())
	item, err := scanWorkItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repo.ErrNotFound
	}
	return item, err
}

// FindDue возвращает снимок элементов с run_date <= now. limit <= 0 — без ограничения.
func (s *Store) FindDue(ctx context.Context, now time.Time, limit int) ([]domain.ScheduledWorkItem, error) {
	if limit <= 0 {
		limit = -1
	}
	return s.queryWorkItems(ctx, "find due work items", `
SELECT `+workItemColumns+` FROM scheduled_work_items
WHERE run_date <= ?
ORDER BY run_date, created_at
LIMIT ?`, toMillis(now), limit)
}

// ListWorkItems возвращает элементы с фильтрацией.
func (s *Store) ListWorkItems(ctx context.Context, filter repo.WorkItemFilter) ([]domain.ScheduledWorkItem, error) {
	filter = filter.Normalize()
	return s.queryWorkItems(ctx, "list work items", `
SELECT `+workItemColumns+` FROM scheduled_work_items
WHERE (? = '' OR kind = ?) AND (? = '' OR target_type = ?)
ORDER BY run_date, created_at
LIMIT ? OFFSET ?`,
		filter.Kind, filter.Kind,
		filter.TargetType, filter.TargetType,
		filter.Limit, filter.Offset,
	)
}

// WorkItemExists проверяет, что элемент ещё не завершён.
func (s *Store) WorkItemExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var n int
	err := s.q(ctx).QueryRowContext(ctx, `SELECT COUNT(1) FROM scheduled_work_items WHERE id = ?`, id.String()).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check work item: %w", err)
	}
	return n > 0, nil
}

// DestroyWorkItem удаляет элемент — это отметка о завершении.
func (s *Store) DestroyWorkItem(ctx context.Context, id uuid.UUID) error {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM scheduled_work_items WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete work item: %w", err)
	}
	return affected(res)
}

// RecordFailure увеличивает attempts и сохраняет last_error.
func (s *Store) RecordFailure(ctx context.Context, id uuid.UUID, msg string) error {
	res, err := s.q(ctx).ExecContext(ctx,
		`UPDATE scheduled_work_items SET attempts = attempts + 1, last_error = ? WHERE id = ?`,
		nullString(msg), id.String(),
	)
	if err != nil {
		return fmt.Errorf("record work item failure: %w", err)
	}
	return affected(res)
}

func (s *Store) queryWorkItems(ctx context.Context, op, query string, args ...any) ([]domain.ScheduledWorkItem, error) {
	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
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

func scanWorkItem(row rowScanner) (*domain.ScheduledWorkItem, error) {
	var (
		item               domain.ScheduledWorkItem
		id                 string
		runDate, createdAt int64
		lastError          sql.NullString
	)

	err := row.Scan(&id, &item.Kind, &item.Target.Type, &item.Target.ID, &runDate, &item.Attempts, &lastError, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan work item: %w", err)
	}

	if item.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse work item id: %w", err)
	}
	item.RunDate = fromMillis(runDate)
	item.CreatedAt = fromMillis(createdAt)
	item.LastError = lastError.String
	return &item, nil
}

func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return repo.ErrNotFound
	}
	return nil
}
