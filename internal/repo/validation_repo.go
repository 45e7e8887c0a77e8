package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Concord/internal/domain"
)

// ValidationRepo — репозиторий validation_results.
type ValidationRepo struct {
	pool *pgxpool.Pool
}

// NewValidationRepo создаёт новый ValidationRepo.
func NewValidationRepo(pool *pgxpool.Pool) *ValidationRepo {
	return &ValidationRepo{pool: pool}
}

// ReplaceResults заменяет результаты объекта новыми.
// Повторное применение даёт тот же набор строк.
func (r *ValidationRepo) ReplaceResults(ctx context.Context, target domain.TargetRef, results []domain.ValidationResult) error {
	q := conn(ctx, r.pool)

	_, err := q.Exec(ctx, `DELETE FROM validation_results WHERE target_type = $1 AND target_id = $2`, target.Type, target.ID)
	if err != nil {
		return fmt.Errorf("delete validation results: %w", err)
	}

	query := `
		INSERT INTO validation_results (id, target_type, target_id, rule_name, passed, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, res := range results {
		_, err := q.Exec(ctx, query,
			res.ID,
			target.Type,
			target.ID,
			res.RuleName,
			res.Passed,
			nullString(res.Message),
			res.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert validation result: %w", err)
		}
	}
	return nil
}

// ListResults возвращает результаты объекта в порядке создания.
func (r *ValidationRepo) ListResults(ctx context.Context, target domain.TargetRef) ([]domain.ValidationResult, error) {
	query := `
		SELECT id, rule_name, passed, message, created_at
		FROM validation_results
		WHERE target_type = $1 AND target_id = $2
		ORDER BY created_at, rule_name
	`
	rows, err := conn(ctx, r.pool).Query(ctx, query, target.Type, target.ID)
	if err != nil {
		return nil, fmt.Errorf("list validation results: %w", err)
	}
	defer rows.Close()

	var out []domain.ValidationResult
	for rows.Next() {
		res := domain.ValidationResult{Target: target}
		var message *string
		if err := rows.Scan(&res.ID, &res.RuleName, &res.Passed, &message, &res.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan validation result: %w", err)
		}
		if message != nil {
			res.Message = *message
		}
		out = append(out, res)
	}
	return out, rows.Err()
}
