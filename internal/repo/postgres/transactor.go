package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/flowforge/durableflow/internal/repo"
)

// SQLTransactor implements repo.Transactor over a *sql.DB, following
// the same BeginTx / defer Rollback / Commit shape used inline at every
// transactional call site elsewhere in this codebase's ancestry,
// factored into one place so the Step Executor's success commit does
// not need to know it is talking to database/sql at all.
type SQLTransactor struct {
	DB *sql.DB
}

func NewSQLTransactor(db *sql.DB) *SQLTransactor {
	return &SQLTransactor{DB: db}
}

func (t *SQLTransactor) WithinTx(ctx context.Context, fn func(db repo.DB) error) error {
	tx, err := t.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

var _ repo.Transactor = (*SQLTransactor)(nil)
