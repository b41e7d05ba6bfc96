package taskrunner

import "context"

// PreconditionChecker reports whether the named action would be
// permitted to run against the entity linked to a run, without
// performing the action's actual mutation. internal/actions supplies
// the concrete implementation, backed by a read-only domain lookup.
type PreconditionChecker interface {
	CheckPrecondition(ctx context.Context, action string, input Input) error
}

// ActionRunner decorates a base Runner with an upfront precondition
// check for steps whose config names an action. This exists because,
// per the source system this engine generalizes, an action precondition
// failure (e.g. charging an order that was never validated) happening
// mid-task is indistinguishable from any other task failure unless the
// Task Runner itself surfaces it before the base task body runs.
//
// ShortCircuitOnPrecondition resolves the corresponding open design
// question: false (the default) means a precondition failure consumes
// the step's retry budget like any other failure; true means it
// exhausts the budget immediately, since retrying an action against an
// entity that is not about to change state cannot succeed.
type ActionRunner struct {
	Base                       Runner
	Checker                    PreconditionChecker
	ShortCircuitOnPrecondition bool
}

func NewActionRunner(base Runner, checker PreconditionChecker, shortCircuit bool) *ActionRunner {
	return &ActionRunner{Base: base, Checker: checker, ShortCircuitOnPrecondition: shortCircuit}
}

func (r *ActionRunner) Run(ctx context.Context, input Input) (Result, error) {
	if r.Checker != nil && input.Config.Action != "" {
		if err := r.Checker.CheckPrecondition(ctx, input.Config.Action, input); err != nil {
			return Result{}, &TaskExecutionError{
				Reason:       err.Error(),
				Precondition: true,
				ForceFail:    r.ShortCircuitOnPrecondition,
			}
		}
	}
	return r.Base.Run(ctx, input)
}
