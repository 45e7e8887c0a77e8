package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Concord/internal/domain"
)

// WorkflowRepo — репозиторий workflow_instances.
type WorkflowRepo struct {
	pool *pgxpool.Pool
}

// NewWorkflowRepo создаёт новый WorkflowRepo.
func NewWorkflowRepo(pool *pgxpool.Pool) *WorkflowRepo {
	return &WorkflowRepo{pool: pool}
}

const workflowColumns = `id, deciding_class, target_type, target_id, state, data, version, updated_by, created_at, updated_at`

// FindOrCreateWorkflow возвращает экземпляр для (class, target), создавая его при отсутствии.
//
// Вызывается под мьютексом объекта; ON CONFLICT DO NOTHING страхует
// уникальность на уровне схемы.
func (r *WorkflowRepo) FindOrCreateWorkflow(ctx context.Context, class string, target domain.TargetRef) (*domain.WorkflowInstance, error) {
	inst := domain.NewWorkflowInstance(class, target)
	dataJSON, err := json.Marshal(inst.Data)
	if err != nil {
		return nil, fmt.Errorf("marshal data: %w", err)
	}

	q := conn(ctx, r.pool)
	insert := `
		INSERT INTO workflow_instances (` + workflowColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (deciding_class, target_type, target_id) DO NOTHING
	`
	_, err = q.Exec(ctx, insert,
		inst.ID,
		inst.DecidingClass,
		inst.Target.Type,
		inst.Target.ID,
		inst.State,
		dataJSON,
		inst.Version,
		nullString(inst.UpdatedBy),
		inst.CreatedAt,
		inst.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert workflow: %w", err)
	}

	return r.GetWorkflow(ctx, class, target)
}

// GetWorkflow возвращает экземпляр для (class, target).
func (r *WorkflowRepo) GetWorkflow(ctx context.Context, class string, target domain.TargetRef) (*domain.WorkflowInstance, error) {
	query := `
		SELECT ` + workflowColumns + `
		FROM workflow_instances
		WHERE deciding_class = $1 AND target_type = $2 AND target_id = $3
	`
	inst, err := scanWorkflow(conn(ctx, r.pool).QueryRow(ctx, query, class, target.Type, target.ID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return inst, err
}

// SaveWorkflow сохраняет состояние, данные и версию экземпляра.
func (r *WorkflowRepo) SaveWorkflow(ctx context.Context, inst *domain.WorkflowInstance) error {
	dataJSON, err := json.Marshal(inst.Data)
	if err != nil {
		return fmt.Errorf("marshal data: %w", err)
	}

	query := `
		UPDATE workflow_instances
		SET state = $2, data = $3, version = $4, updated_by = $5, updated_at = $6
		WHERE id = $1
	`
	result, err := conn(ctx, r.pool).Exec(ctx, query,
		inst.ID,
		inst.State,
		dataJSON,
		inst.Version,
		nullString(inst.UpdatedBy),
		inst.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update workflow: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListWorkflows возвращает экземпляры с фильтрацией.
func (r *WorkflowRepo) ListWorkflows(ctx context.Context, filter WorkflowFilter) ([]domain.WorkflowInstance, error) {
	filter = filter.Normalize()
	query := `
		SELECT ` + workflowColumns + `
		FROM workflow_instances
		WHERE ($1::text IS NULL OR deciding_class = $1)
		  AND ($2::text IS NULL OR target_type = $2)
		ORDER BY updated_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := conn(ctx, r.pool).Query(ctx, query,
		nullString(filter.Class),
		nullString(filter.TargetType),
		filter.Limit,
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	defer rows.Close()

	var out []domain.WorkflowInstance
	for rows.Next() {
		inst, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inst)
	}
	return out, rows.Err()
}

func scanWorkflow(row scanner) (*domain.WorkflowInstance, error) {
	var inst domain.WorkflowInstance
	var dataJSON []byte
	var updatedBy *string

	err := row.Scan(
		&inst.ID,
		&inst.DecidingClass,
		&inst.Target.Type,
		&inst.Target.ID,
		&inst.State,
		&dataJSON,
		&inst.Version,
		&updatedBy,
		&inst.CreatedAt,
		&inst.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan workflow: %w", err)
	}

	if len(dataJSON) > 0 {
		if err := json.Unmarshal(dataJSON, &inst.Data); err != nil {
			return nil, fmt.Errorf("unmarshal data: %w", err)
		}
	}
	if inst.Data == nil {
		inst.Data = map[string]any{}
	}
	if updatedBy != nil {
		inst.UpdatedBy = *updatedBy
	}
	return &inst, nil
}
