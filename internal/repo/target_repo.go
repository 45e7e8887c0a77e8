package repo

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Concord/internal/domain"
)

// tableName — допустимое имя таблицы: table или schema.table.
var tableName = regexp.MustCompile(`^[a-z_][a-z0-9_]*(\.[a-z_][a-z0-9_]*)?$`)

// TargetRepo проверяет существование бизнес-объектов.
//
// Для типов из tables проверяется строка в соответствующей таблице
// приложения (по колонке id). Остальные типы ищутся в общей таблице targets,
// которую заполняет API.
type TargetRepo struct {
	pool   *pgxpool.Pool
	tables map[string]pgx.Identifier
}

// NewTargetRepo создаёт TargetRepo. tables — отображение тип → таблица.
func NewTargetRepo(pool *pgxpool.Pool, tables map[string]string) (*TargetRepo, error) {
	ids := make(map[string]pgx.Identifier, len(tables))
	for typ, table := range tables {
		if !tableName.MatchString(table) {
			return nil, fmt.Errorf("%w: %q for type %s", ErrInvalidTable, table, typ)
		}
		ids[typ] = pgx.Identifier(strings.Split(table, "."))
	}
	return &TargetRepo{pool: pool, tables: ids}, nil
}

// TargetExists проверяет, что объект существует.
func (r *TargetRepo) TargetExists(ctx context.Context, target domain.TargetRef) (bool, error) {
	var exists bool
	var err error

	if table, ok := r.tables[target.Type]; ok {
		query := `SELECT EXISTS (SELECT 1 FROM ` + table.Sanitize() + ` WHERE id::text = $1)`
		err = conn(ctx, r.pool).QueryRow(ctx, query, target.ID).Scan(&exists)
	} else {
		query := `SELECT EXISTS (SELECT 1 FROM targets WHERE target_type = $1 AND target_id = $2)`
		err = conn(ctx, r.pool).QueryRow(ctx, query, target.Type, target.ID).Scan(&exists)
	}
	if err != nil {
		return false, fmt.Errorf("check target %s: %w", target, err)
	}
	return exists, nil
}

// PutTarget регистрирует объект в общей таблице targets.
func (r *TargetRepo) PutTarget(ctx context.Context, target domain.TargetRef) error {
	if _, ok := r.tables[target.Type]; ok {
		return fmt.Errorf("%w: %s is backed by an application table", ErrUnknownTargetType, target.Type)
	}
	query := `
		INSERT INTO targets (target_type, target_id) VALUES ($1, $2)
		ON CONFLICT (target_type, target_id) DO NOTHING
	`
	if _, err := conn(ctx, r.pool).Exec(ctx, query, target.Type, target.ID); err != nil {
		return fmt.Errorf("insert target: %w", err)
	}
	return nil
}

// DeleteTarget удаляет объект из общей таблицы targets.
func (r *TargetRepo) DeleteTarget(ctx context.Context, target domain.TargetRef) error {
	query := `DELETE FROM targets WHERE target_type = $1 AND target_id = $2`
	result, err := conn(ctx, r.pool).Exec(ctx, query, target.Type, target.ID)
	if err != nil {
		return fmt.Errorf("delete target: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
