package taskrunner

import (
	"context"

	"github.com/flowforge/durableflow/internal/domain"
)

// Input is everything a Runner needs to perform one attempt of one
// step. It carries no store handle: the Runner is stateless and holds
// no locks, per the task-body contract.
type Input struct {
	WorkflowID string
	RunID      string
	StepID     string
	OrderID    *string
	Attempt    int
	Config     domain.StepConfig
}

// Result is the opaque outcome of a successful attempt. ResultData is
// serialized exactly as returned; the Step Executor persists it
// verbatim as a StepResult's result_data.
type Result struct {
	ResultData []byte
}

// Runner performs one task body invocation. A failure of the task body
// itself is a *TaskExecutionError; any other failure (bad input, context
// cancellation) is a programming or infrastructure error and is
// returned unwrapped.
type Runner interface {
	Run(ctx context.Context, input Input) (Result, error)
}
