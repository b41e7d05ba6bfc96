package repo

import (
	"context"

	"github.com/flowforge/durableflow/internal/domain"
)

// RunSummary is a Run joined with its workflow name, the shape list_runs
// returns.
type RunSummary struct {
	Run          domain.Run
	WorkflowName string
}

// WorkflowRepository persists Workflow definitions. Workflows are
// immutable once created.
type WorkflowRepository interface {
	Create(ctx context.Context, workflow domain.Workflow) error
	Get(ctx context.Context, id string) (domain.Workflow, error)
	// List returns summaries only: DefinitionBlob is never populated, so
	// a list response can never leak a definition (invariant 8).
	List(ctx context.Context) ([]domain.Workflow, error)
}

// RunRepository persists Runs and exposes the queries the Run Executor
// and Recovery Coordinator depend on.
type RunRepository interface {
	// Create inserts a run in domain.RunPending and commits.
	Create(ctx context.Context, db DB, run domain.Run) error
	Get(ctx context.Context, db DB, id string) (domain.Run, error)
	List(ctx context.Context, db DB) ([]RunSummary, error)
	// ListRunning returns every run currently in domain.RunRunning, the
	// Recovery Coordinator's entry point.
	ListRunning(ctx context.Context, db DB) ([]domain.Run, error)
	// Update applies a RunUpdate. It does not commit; it participates in
	// the caller's transaction.
	Update(ctx context.Context, db DB, id string, update RunUpdate) error
}

// StepRepository persists Steps.
type StepRepository interface {
	// CreateMany inserts the run's step rows in a single commit,
	// preserving topological order as StepIndex.
	CreateMany(ctx context.Context, db DB, steps []domain.Step) error
	Get(ctx context.Context, db DB, id string) (domain.Step, error)
	// ListByRun returns a run's steps ordered by StepIndex.
	ListByRun(ctx context.Context, db DB, runID string) ([]domain.Step, error)
	// Update applies a StepUpdate. It does not commit.
	Update(ctx context.Context, db DB, id string, update StepUpdate) error
}

// StepResultRepository persists StepResults, the at-most-once durable
// recording primitive the entire crash-safety design rests on.
type StepResultRepository interface {
	// Insert records a result under idempotency_key. It does not commit.
	// inserted reports false (with no error) when a row already existed
	// under this key — the caller's signal that it lost a race (or is
	// replaying after a crash) and must not treat this attempt as the
	// one that ran the Action Dispatcher.
	Insert(ctx context.Context, db DB, result domain.StepResult) (inserted bool, err error)
	Get(ctx context.Context, db DB, idempotencyKey string) (domain.StepResult, error)
}

// OrderRepository persists the demo Order domain entity.
type OrderRepository interface {
	Get(ctx context.Context, db DB, id string) (domain.Order, error)
	// UpdateStatus enforces the predecessor-state precondition itself
	// and returns domain.ErrInvalidOrderTransition when it is not met,
	// aborting the caller's transaction. It does not commit.
	UpdateStatus(ctx context.Context, db DB, id string, next domain.OrderStatus) error
}
