package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/shaiso/Concord/internal/domain"
	"github.com/shaiso/Concord/internal/repo"
)

const workflowColumns = `id, deciding_class, target_type, target_id, state, data, version, updated_by, created_at, updated_at`

// FindOrCreateWorkflow возвращает экземпляр для (class, target), создавая его при отсутствии.
// Уникальный индекс по (class, target) страхует от дубликатов.
func (s *Store) FindOrCreateWorkflow(ctx context.Context, class string, target domain.TargetRef) (*domain.WorkflowInstance, error) {
	inst := domain.NewWorkflowInstance(class, target)
	dataJSON, err := json.Marshal(inst.Data)
	if err != nil {
		return nil, fmt.Errorf("marshal data: %w", err)
	}

	_, err = s.q(ctx).ExecContext(ctx, `
INSERT INTO workflow_instances (`+workflowColumns+`)
VALUES (?,?,?,?,?,?,?,?,?,?)
ON CONFLICT (deciding_class, target_type, target_id) DO NOTHING`,
		inst.ID.String(),
		inst.DecidingClass,
		inst.Target.Type,
		inst.Target.ID,
		string(inst.State),
		string(dataJSON),
		inst.Version,
		nullString(inst.UpdatedBy),
		toMillis(inst.CreatedAt),
		toMillis(inst.UpdatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert workflow: %w", err)
	}

	return s.GetWorkflow(ctx, class, target)
}

// GetWorkflow возвращает экземпляр для (class, target).
func (s *Store) GetWorkflow(ctx context.Context, class string, target domain.TargetRef) (*domain.WorkflowInstance, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
SELECT `+workflowColumns+` FROM workflow_instances
WHERE deciding_class = ? AND target_type = ? AND target_id = ?`,
		class, target.Type, target.ID,
	)
	inst, err := scanWorkflow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repo.ErrNotFound
	}
	return inst, err
}

// SaveWorkflow сохраняет состояние, данные и версию экземпляра.
func (s *Store) SaveWorkflow(ctx context.Context, inst *domain.WorkflowInstance) error {
	dataJSON, err := json.Marshal(inst.Data)
	if err != nil {
		return fmt.Errorf("marshal data: %w", err)
	}

	res, err := s.q(ctx).ExecContext(ctx, `
UPDATE workflow_instances
SET state = ?, data = ?, version = ?, updated_by = ?, updated_at = ?
WHERE id = ?`,
		string(inst.State),
		string(dataJSON),
		inst.Version,
		nullString(inst.UpdatedBy),
		toMillis(inst.UpdatedAt),
		inst.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("update workflow: %w", err)
	}
	return affected(res)
}

// ListWorkflows возвращает экземпляры с фильтрацией.
func (s *Store) ListWorkflows(ctx context.Context, filter repo.WorkflowFilter) ([]domain.WorkflowInstance, error) {
	filter = filter.Normalize()
	rows, err := s.q(ctx).QueryContext(ctx, `
SELECT `+workflowColumns+` FROM workflow_instances
WHERE (? = '' OR deciding_class = ?) AND (? = '' OR target_type = ?)
ORDER BY updated_at DESC
LIMIT ? OFFSET ?`,
		filter.Class, filter.Class,
		filter.TargetType, filter.TargetType,
		filter.Limit, filter.Offset,
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

func scanWorkflow(row rowScanner) (*domain.WorkflowInstance, error) {
	var (
		inst                 domain.WorkflowInstance
		id, state, dataJSON  string
		updatedBy            sql.NullString
		createdAt, updatedAt int64
	)

	err := row.Scan(&id, &inst.DecidingClass, &inst.Target.Type, &inst.Target.ID,
		&state, &dataJSON, &inst.Version, &updatedBy, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan workflow: %w", err)
	}

	if inst.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse workflow id: %w", err)
	}
	if err := json.Unmarshal([]byte(dataJSON), &inst.Data); err != nil {
		return nil, fmt.Errorf("unmarshal data: %w", err)
	}
	if inst.Data == nil {
		inst.Data = map[string]any{}
	}
	inst.State = domain.WorkflowState(state)
	inst.UpdatedBy = updatedBy.String
	inst.CreatedAt = fromMillis(createdAt)
	inst.UpdatedAt = fromMillis(updatedAt)
	return &inst, nil
}
