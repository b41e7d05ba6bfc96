package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/flowforge/durableflow/internal/domain"
	"github.com/flowforge/durableflow/internal/repo"
)

type RunStore struct{}

func NewRunStore() *RunStore {
	return &RunStore{}
}

// Create inserts in domain.RunPending and commits.
func (s *RunStore) Create(ctx context.Context, db repo.DB, run domain.Run) error {
	if err := run.Validate(); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO runs (id, workflow_id, order_id, status, started_at, completed_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		run.ID, run.WorkflowID, nullIfEmptyString(run.OrderID), run.Status.String(),
		nullTime(run.StartedAt), nullTime(run.CompletedAt), normalizeTime(run.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (s *RunStore) Get(ctx context.Context, db repo.DB, id string) (domain.Run, error) {
	row := db.QueryRowContext(ctx,
		`SELECT id, workflow_id, order_id, status, started_at, completed_at, created_at
		 FROM runs WHERE id = $1`, id)
	return scanRun(row)
}

func (s *RunStore) List(ctx context.Context, db repo.DB) ([]repo.RunSummary, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT r.id, r.workflow_id, r.order_id, r.status, r.started_at, r.completed_at, r.created_at, w.name
		 FROM runs r JOIN workflows w ON w.id = r.workflow_id
		 ORDER BY r.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	out := make([]repo.RunSummary, 0)
	for rows.Next() {
		var run domain.Run
		var orderID sql.NullString
		var statusRaw string
		var started, completed sql.NullTime
		var workflowName string
		if err := rows.Scan(&run.ID, &run.WorkflowID, &orderID, &statusRaw, &started, &completed, &run.CreatedAt, &workflowName); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		status, ok := domain.ParseRunStatus(statusRaw)
		if !ok {
			return nil, fmt.Errorf("invalid run status %q", statusRaw)
		}
		run.Status = status
		run.OrderID = ptrStringIfValid(orderID)
		run.StartedAt = ptrIfValid(started)
		run.CompletedAt = ptrIfValid(completed)
		run.CreatedAt = run.CreatedAt.UTC()
		out = append(out, repo.RunSummary{Run: run, WorkflowName: workflowName})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return out, nil
}

// ListRunning is the Recovery Coordinator's entry point.
func (s *RunStore) ListRunning(ctx context.Context, db repo.DB) ([]domain.Run, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, workflow_id, order_id, status, started_at, completed_at, created_at
		 FROM runs WHERE status = $1`, domain.RunRunning.String())
	if err != nil {
		return nil, fmt.Errorf("list running runs: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list running runs: %w", err)
	}
	return out, nil
}

// Update applies a repo.RunUpdate. It does not commit; it participates
// in the caller's transaction.
func (s *RunStore) Update(ctx context.Context, db repo.DB, id string, update repo.RunUpdate) error {
	res, err := db.ExecContext(ctx,
		`UPDATE runs SET status = $1, started_at = COALESCE($2, started_at), completed_at = COALESCE($3, completed_at)
		 WHERE id = $4`,
		update.Status.String(), nullTime(update.StartedAt), nullTime(update.CompletedAt), id,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if rows == 0 {
		return repo.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (domain.Run, error) {
	var run domain.Run
	var orderID sql.NullString
	var statusRaw string
	var started, completed sql.NullTime
	if err := row.Scan(&run.ID, &run.WorkflowID, &orderID, &statusRaw, &started, &completed, &run.CreatedAt); err != nil {
		return domain.Run{}, handleNotFound(err)
	}
	status, ok := domain.ParseRunStatus(statusRaw)
	if !ok {
		return domain.Run{}, fmt.Errorf("invalid run status %q", statusRaw)
	}
	run.Status = status
	run.OrderID = ptrStringIfValid(orderID)
	run.StartedAt = ptrIfValid(started)
	run.CompletedAt = ptrIfValid(completed)
	run.CreatedAt = run.CreatedAt.UTC()
	return run, nil
}
