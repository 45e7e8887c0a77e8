package repo

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store объединяет репозитории PostgreSQL в одно хранилище.
type Store struct {
	*TxManager
	*WorkItemRepo
	*WorkflowRepo
	*TargetRepo
	*ValidationRepo
}

// NewStore создаёт Store. targetTables — отображение тип объекта → таблица.
func NewStore(pool *pgxpool.Pool, targetTables map[string]string) (*Store, error) {
	targets, err := NewTargetRepo(pool, targetTables)
	if err != nil {
		return nil, err
	}

	return &Store{
		TxManager:      NewTxManager(pool),
		WorkItemRepo:   NewWorkItemRepo(pool),
		WorkflowRepo:   NewWorkflowRepo(pool),
		TargetRepo:     targets,
		ValidationRepo: NewValidationRepo(pool),
	}, nil
}
