package postgres

import (
	"context"
	"fmt"

	"github.com/flowforge/durableflow/internal/domain"
	"github.com/flowforge/durableflow/internal/repo"
)

type WorkflowStore struct {
	db repo.DB
}

func NewWorkflowStore(db repo.DB) *WorkflowStore {
	return &WorkflowStore{db: db}
}

// Create inserts and commits; Workflows are immutable once created.
func (s *WorkflowStore) Create(ctx context.Context, workflow domain.Workflow) error {
	if err := workflow.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO workflows (id, name, definition, created_at) VALUES ($1, $2, $3, $4)`,
		workflow.ID, workflow.Name, workflow.DefinitionBlob, normalizeTime(workflow.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert workflow: %w", err)
	}
	return nil
}

func (s *WorkflowStore) Get(ctx context.Context, id string) (domain.Workflow, error) {
	var w domain.Workflow
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, definition, created_at FROM workflows WHERE id = $1`, id)
	if err := row.Scan(&w.ID, &w.Name, &w.DefinitionBlob, &w.CreatedAt); err != nil {
		return domain.Workflow{}, handleNotFound(err)
	}
	w.CreatedAt = w.CreatedAt.UTC()
	return w, nil
}

// List returns summaries only: DefinitionBlob is never populated, so a
// list response can never leak a definition.
func (s *WorkflowStore) List(ctx context.Context) ([]domain.Workflow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_at FROM workflows ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Workflow, 0)
	for rows.Next() {
		var w domain.Workflow
		if err := rows.Scan(&w.ID, &w.Name, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan workflow: %w", err)
		}
		w.CreatedAt = w.CreatedAt.UTC()
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	return out, nil
}
