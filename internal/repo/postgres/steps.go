package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/flowforge/durableflow/internal/domain"
	"github.com/flowforge/durableflow/internal/repo"
)

type StepStore struct{}

func NewStepStore() *StepStore {
	return &StepStore{}
}

// CreateMany inserts the run's step rows in a single commit, preserving
// topological order as StepIndex. Callers pass a *sql.Tx as db so the N
// inserts are one commit.
func (s *StepStore) CreateMany(ctx context.Context, db repo.DB, steps []domain.Step) error {
	for _, step := range steps {
		if err := step.Validate(); err != nil {
			return err
		}
		_, err := db.ExecContext(ctx,
			`INSERT INTO steps (id, run_id, step_id, step_index, status, idempotency_key, retry_count, max_retries, started_at, completed_at, error_message, created_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
			step.ID, step.RunID, step.StepID, step.StepIndex, step.Status.String(),
			nullIfEmptyString(step.IdempotencyKey), step.RetryCount, step.MaxRetries,
			nullTime(step.StartedAt), nullTime(step.CompletedAt), nullIfEmptyString(step.ErrorMessage),
			normalizeTime(step.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("insert step %s: %w", step.StepID, err)
		}
	}
	return nil
}

func (s *StepStore) Get(ctx context.Context, db repo.DB, id string) (domain.Step, error) {
	row := db.QueryRowContext(ctx,
		`SELECT id, run_id, step_id, step_index, status, idempotency_key, retry_count, max_retries, started_at, completed_at, error_message, created_at
		 FROM steps WHERE id = $1`, id)
	return scanStep(row)
}

// ListByRun returns a run's steps ordered by StepIndex, the order the
// Run Executor iterates them in.
func (s *StepStore) ListByRun(ctx context.Context, db repo.DB, runID string) ([]domain.Step, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, run_id, step_id, step_index, status, idempotency_key, retry_count, max_retries, started_at, completed_at, error_message, created_at
		 FROM steps WHERE run_id = $1 ORDER BY step_index ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Step, 0)
	for rows.Next() {
		step, err := scanStep(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, step)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	return out, nil
}

// Update applies a repo.StepUpdate. It does not commit.
func (s *StepStore) Update(ctx context.Context, db repo.DB, id string, update repo.StepUpdate) error {
	res, err := db.ExecContext(ctx,
		`UPDATE steps SET
			status = $1,
			started_at = COALESCE(started_at, $2),
			completed_at = COALESCE($3, completed_at),
			error_message = COALESCE($4, error_message),
			idempotency_key = COALESCE($5, idempotency_key),
			retry_count = COALESCE($6, retry_count)
		 WHERE id = $7`,
		update.Status.String(),
		nullTime(update.StartedAt),
		nullTime(update.CompletedAt),
		nullIfEmptyString(update.ErrorMessage),
		nullIfEmptyString(update.IdempotencyKey),
		nullableInt(update.RetryCount),
		id,
	)
	if err != nil {
		return fmt.Errorf("update step: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update step: %w", err)
	}
	if rows == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func scanStep(row rowScanner) (domain.Step, error) {
	var step domain.Step
	var statusRaw string
	var idempotencyKey, errorMessage sql.NullString
	var startedAt, completedAt sql.NullTime
	if err := row.Scan(&step.ID, &step.RunID, &step.StepID, &step.StepIndex, &statusRaw,
		&idempotencyKey, &step.RetryCount, &step.MaxRetries, &startedAt, &completedAt,
		&errorMessage, &step.CreatedAt); err != nil {
		return domain.Step{}, handleNotFound(err)
	}
	status, ok := domain.ParseStepStatus(statusRaw)
	if !ok {
		return domain.Step{}, fmt.Errorf("invalid step status %q", statusRaw)
	}
	step.Status = status
	step.IdempotencyKey = ptrStringIfValid(idempotencyKey)
	step.ErrorMessage = ptrStringIfValid(errorMessage)
	step.StartedAt = ptrIfValid(startedAt)
	step.CompletedAt = ptrIfValid(completedAt)
	step.CreatedAt = step.CreatedAt.UTC()
	return step, nil
}
