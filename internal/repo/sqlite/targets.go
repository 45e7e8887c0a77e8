package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/shaiso/Concord/internal/domain"
)

// TargetExists проверяет, что объект зарегистрирован.
func (s *Store) TargetExists(ctx context.Context, target domain.TargetRef) (bool, error) {
	var n int
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT COUNT(1) FROM targets WHERE target_type = ? AND target_id = ?`,
		target.Type, target.ID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check target %s: %w", target, err)
	}
	return n > 0, nil
}

// PutTarget регистрирует объект. Повторная регистрация ничего не меняет.
func (s *Store) PutTarget(ctx context.Context, target domain.TargetRef) error {
	_, err := s.q(ctx).ExecContext(ctx,
		`INSERT INTO targets (target_type, target_id, created_at) VALUES (?,?,?) ON CONFLICT DO NOTHING`,
		target.Type, target.ID, toMillis(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("insert target: %w", err)
	}
	return nil
}

// DeleteTarget удаляет объект.
func (s *Store) DeleteTarget(ctx context.Context, target domain.TargetRef) error {
	res, err := s.q(ctx).ExecContext(ctx,
		`DELETE FROM targets WHERE target_type = ? AND target_id = ?`,
		target.Type, target.ID,
	)
	if err != nil {
		return fmt.Errorf("delete target: %w", err)
	}
	return affected(res)
}
