// Package executor implements the crash-safety epicenter of the
// engine: one attempt of one step (StepExecutor), a full run driven to
// termination (RunExecutor), and the startup-time resumption of
// interrupted runs (RecoveryCoordinator). Grounded on the teacher's
// dry-run executor, generalized from a simulated attempt ledger to the
// real idempotency-key protocol over steps and step_results.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/flowforge/durableflow/internal/actions"
	"github.com/flowforge/durableflow/internal/domain"
	"github.com/flowforge/durableflow/internal/repo"
	"github.com/flowforge/durableflow/internal/taskrunner"
)

// Outcome is what one Step Executor invocation decided for this step.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeRetry     Outcome = "retry"
	OutcomeFailed    Outcome = "failed"
)

// StepExecutor executes one attempt of one step end to end: idempotency
// check, task invocation, result recording, status transition, retry
// bookkeeping. It never loops; the Run Executor loops it on Retry.
type StepExecutor struct {
	DB          repo.DB
	Tx          repo.Transactor
	Steps       repo.StepRepository
	StepResults repo.StepResultRepository
	Orders      repo.OrderRepository
	Runner      taskrunner.Runner
	Dispatcher  *actions.Dispatcher
	Logger      *slog.Logger

	now    func() time.Time
	newKey func() string
}

func NewStepExecutor(db repo.DB, tx repo.Transactor, steps repo.StepRepository, results repo.StepResultRepository, orders repo.OrderRepository, runner taskrunner.Runner, dispatcher *actions.Dispatcher, logger *slog.Logger) *StepExecutor {
	return &StepExecutor{
		DB:          db,
		Tx:          tx,
		Steps:       steps,
		StepResults: results,
		Orders:      orders,
		Runner:      runner,
		Dispatcher:  dispatcher,
		Logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
		newKey:      uuid.NewString,
	}
}

// Execute runs one attempt of step, belonging to run runID of workflow
// workflowID (optionally linked to orderID), using cfg as the step's
// declared configuration.
func (e *StepExecutor) Execute(ctx context.Context, workflowID, runID string, orderID *string, step domain.Step, cfg domain.StepConfig) (Outcome, error) {
	key, err := e.claim(ctx, &step)
	if err != nil {
		return "", fmt.Errorf("claim idempotency key: %w", err)
	}

	existing, err := e.StepResults.Get(ctx, e.DB, key)
	switch {
	case err == nil:
		now := e.now()
		if err := e.Steps.Update(ctx, e.DB, step.ID, repo.StepUpdate{
			Status: domain.StepCompleted, CompletedAt: &now,
		}); err != nil {
			return "", fmt.Errorf("mark step completed after recovery skip: %w", err)
		}
		e.Logger.InfoContext(ctx, "step result already recorded, skipping task invocation",
			"step_id", step.StepID, "run_id", runID, "idempotency_key", key, "result_bytes", len(existing.ResultData))
		return OutcomeCompleted, nil
	case errors.Is(err, repo.ErrNotFound):
		// No prior result under this key: this is a fresh attempt.
	default:
		return "", fmt.Errorf("check step result: %w", err)
	}

	attempt := step.RetryCount + 1
	result, taskErr := e.Runner.Run(ctx, taskrunner.Input{
		WorkflowID: workflowID,
		RunID:      runID,
		StepID:     step.StepID,
		OrderID:    orderID,
		Attempt:    attempt,
		Config:     cfg,
	})
	if taskErr != nil {
		return e.handleFailure(ctx, step, taskErr)
	}

	dispatchErr, err := e.commitSuccess(ctx, step, cfg, key, result, orderID)
	if err != nil {
		return "", err
	}
	if dispatchErr != nil {
		// The action dispatched inside the commit rejected a domain
		// precondition (e.g. the linked order changed state between the
		// eager precondition check and this commit). The whole commit
		// rolled back, so the step never recorded a result; treat this
		// exactly like any other task failure, subject to the same
		// retry policy.
		return e.handleFailure(ctx, step, &taskrunner.TaskExecutionError{
			Reason:       dispatchErr.Error(),
			Precondition: true,
		})
	}
	e.Dispatcher.PostCommitSideEffect(ctx, cfg.Action, orderID)
	return OutcomeCompleted, nil
}

// claim assigns step an idempotency key (reusing one already present
// from a crashed prior attempt) and commits status=running before any
// task body runs, so any future attempt observing this row knows which
// key to look up.
func (e *StepExecutor) claim(ctx context.Context, step *domain.Step) (string, error) {
	key := step.IdempotencyKey
	update := repo.StepUpdate{Status: domain.StepRunning}
	if key == nil {
		fresh := e.newKey()
		key = &fresh
		update.IdempotencyKey = key
	}
	if step.StartedAt == nil {
		now := e.now()
		update.StartedAt = &now
	}
	if err := e.Steps.Update(ctx, e.DB, step.ID, update); err != nil {
		return "", err
	}
	step.IdempotencyKey = key
	return *key, nil
}

func (e *StepExecutor) handleFailure(ctx context.Context, step domain.Step, taskErr error) (Outcome, error) {
	var execErr *taskrunner.TaskExecutionError
	forceFail := errors.As(taskErr, &execErr) && execErr.ForceFail

	if step.RetryCount < step.MaxRetries && !forceFail {
		newKey := e.newKey()
		retryCount := step.RetryCount + 1
		if err := e.Steps.Update(ctx, e.DB, step.ID, repo.StepUpdate{
			Status:         domain.StepPending,
			RetryCount:     &retryCount,
			IdempotencyKey: &newKey,
		}); err != nil {
			return "", fmt.Errorf("record retry: %w", err)
		}
		return OutcomeRetry, nil
	}

	now := e.now()
	msg := taskErr.Error()
	if err := e.Steps.Update(ctx, e.DB, step.ID, repo.StepUpdate{
		Status:       domain.StepFailed,
		CompletedAt:  &now,
		ErrorMessage: &msg,
	}); err != nil {
		return "", fmt.Errorf("record failure: %w", err)
	}
	return OutcomeFailed, nil
}

// commitSuccess performs the single atomic commit that records the
// result, dispatches the linked action, and marks the step complete.
// There is never a committed state in which a result exists without
// the step reflecting completion. Its second return value is non-nil
// only when the action dispatch itself rejected the commit (a domain
// precondition failure); the caller folds that back into the ordinary
// task-failure path rather than treating it as an infrastructure error.
func (e *StepExecutor) commitSuccess(ctx context.Context, step domain.Step, cfg domain.StepConfig, key string, result taskrunner.Result, orderID *string) (dispatchErr error, err error) {
	err = e.Tx.WithinTx(ctx, func(tx repo.DB) error {
		inserted, insertErr := e.StepResults.Insert(ctx, tx, domain.StepResult{
			IdempotencyKey: key,
			StepID:         step.ID,
			ResultData:     result.ResultData,
		})
		if insertErr != nil {
			return fmt.Errorf("insert step result: %w", insertErr)
		}

		if inserted {
			if derr := e.Dispatcher.Dispatch(ctx, tx, e.Orders, cfg.Action, orderID); derr != nil {
				dispatchErr = derr
				return derr
			}
		}

		now := e.now()
		if updErr := e.Steps.Update(ctx, tx, step.ID, repo.StepUpdate{
			Status:      domain.StepCompleted,
			CompletedAt: &now,
		}); updErr != nil {
			return fmt.Errorf("mark step completed: %w", updErr)
		}
		return nil
	})

	if dispatchErr != nil {
		return dispatchErr, nil
	}
	if err != nil {
		return nil, fmt.Errorf("commit success: %w", err)
	}
	return nil, nil
}
