package postgres

import (
	"database/sql"

	"github.com/flowforge/durableflow/internal/repo"
)

// Store bundles one instance of each sub-repository. Every method on a
// sub-repository takes a repo.DB explicitly, so a Store's methods run
// equally well against the pool (*sql.DB) or inside a transaction
// (*sql.Tx) obtained from it.
type Store struct {
	DB         *sql.DB
	Transactor *SQLTransactor

	Workflows   *WorkflowStore
	Runs        *RunStore
	Steps       *StepStore
	StepResults *StepResultStore
	Orders      *OrderStore
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		DB:          db,
		Transactor:  NewSQLTransactor(db),
		Workflows:   NewWorkflowStore(db),
		Runs:        NewRunStore(),
		Steps:       NewStepStore(),
		StepResults: NewStepResultStore(),
		Orders:      NewOrderStore(),
	}
}

var (
	_ repo.WorkflowRepository   = (*WorkflowStore)(nil)
	_ repo.RunRepository        = (*RunStore)(nil)
	_ repo.StepRepository       = (*StepStore)(nil)
	_ repo.StepResultRepository = (*StepResultStore)(nil)
	_ repo.OrderRepository      = (*OrderStore)(nil)
)
