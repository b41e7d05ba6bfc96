package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/flowforge/durableflow/internal/domain"
	"github.com/flowforge/durableflow/internal/repo"
)

type StepResultStore struct{}

func NewStepResultStore() *StepResultStore {
	return &StepResultStore{}
}

// Insert records a result under idempotency_key. It does not commit.
// inserted reports false, with no error, when a row already existed
// under this key — the caller's signal to treat this attempt as having
// lost the race (or as replaying after a crash) and skip invoking the
// Action Dispatcher a second time.
func (s *StepResultStore) Insert(ctx context.Context, db repo.DB, result domain.StepResult) (bool, error) {
	if err := result.Validate(); err != nil {
		return false, err
	}
	var returnedKey string
	err := db.QueryRowContext(ctx,
		`INSERT INTO step_results (idempotency_key, step_id, result_data, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (idempotency_key) DO NOTHING
		 RETURNING idempotency_key`,
		result.IdempotencyKey, result.StepID, result.ResultData, normalizeTime(result.CreatedAt),
	).Scan(&returnedKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("insert step result: %w", err)
	}
	return true, nil
}

func (s *StepResultStore) Get(ctx context.Context, db repo.DB, idempotencyKey string) (domain.StepResult, error) {
	var result domain.StepResult
	row := db.QueryRowContext(ctx,
		`SELECT idempotency_key, step_id, result_data, created_at FROM step_results WHERE idempotency_key = $1`,
		idempotencyKey)
	if err := row.Scan(&result.IdempotencyKey, &result.StepID, &result.ResultData, &result.CreatedAt); err != nil {
		return domain.StepResult{}, handleNotFound(err)
	}
	result.CreatedAt = result.CreatedAt.UTC()
	return result, nil
}
