package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/shaiso/Concord/internal/domain"
)

// ReplaceResults заменяет результаты объекта новыми.
func (s *Store) ReplaceResults(ctx context.Context, target domain.TargetRef, results []domain.ValidationResult) error {
	q := s.q(ctx)

	if _, err := q.ExecContext(ctx,
		`DELETE FROM validation_results WHERE target_type = ? AND target_id = ?`,
		target.Type, target.ID,
	); err != nil {
		return fmt.Errorf("delete validation results: %w", err)
	}

	for _, res := range results {
		_, err := q.ExecContext(ctx, `
INSERT INTO validation_results (id, target_type, target_id, rule_name, passed, message, created_at)
VALUES (?,?,?,?,?,?,?)`,
			res.ID.String(), target.Type, target.ID, res.RuleName, res.Passed, nullString(res.Message), toMillis(res.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("insert validation result: %w", err)
		}
	}
	return nil
}

// ListResults возвращает результаты объекта.
func (s *Store) ListResults(ctx context.Context, target domain.TargetRef) ([]domain.ValidationResult, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
SELECT id, rule_name, passed, message, created_at FROM validation_results
WHERE target_type = ? AND target_id = ?
ORDER BY created_at, rule_name`, target.Type, target.ID)
	if err != nil {
		return nil, fmt.Errorf("list validation results: %w", err)
	}
	defer rows.Close()

	var out []domain.ValidationResult
	for rows.Next() {
		var (
			res       = domain.ValidationResult{Target: target}
			id        string
			message   sql.NullString
			createdAt int64
		)
		if err := rows.Scan(&id, &res.RuleName, &res.Passed, &message, &createdAt); err != nil {
			return nil, fmt.Errorf("scan validation result: %w", err)
		}
		if res.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse validation result id: %w", err)
		}
		res.Message = message.String
		res.CreatedAt = fromMillis(createdAt)
		out = append(out, res)
	}
	return out, rows.Err()
}
