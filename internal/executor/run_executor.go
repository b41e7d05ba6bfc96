package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/flowforge/durableflow/internal/domain"
	"github.com/flowforge/durableflow/internal/repo"
)

// RunExecutor drives one run through all its steps in step_index order,
// honoring the crash-safe invariants, and finalizes the run.
type RunExecutor struct {
	DB        repo.DB
	Runs      repo.RunRepository
	Steps     repo.StepRepository
	Workflows repo.WorkflowRepository
	Step      *StepExecutor
	Logger    *slog.Logger

	now func() time.Time
}

func NewRunExecutor(db repo.DB, runs repo.RunRepository, steps repo.StepRepository, workflows repo.WorkflowRepository, step *StepExecutor, logger *slog.Logger) *RunExecutor {
	return &RunExecutor{
		DB: db, Runs: runs, Steps: steps, Workflows: workflows, Step: step, Logger: logger,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Run drives runID to termination. The run is presumed to already
// exist; this is the entry point used both for a freshly created run
// and for a recovered one.
func (e *RunExecutor) Run(ctx context.Context, runID string) {
	if err := e.run(ctx, runID); err != nil {
		e.Logger.ErrorContext(ctx, "run executor failed", "run_id", runID, "error", err)
		e.failBestEffort(ctx, runID)
	}
}

func (e *RunExecutor) run(ctx context.Context, runID string) error {
	run, err := e.Runs.Get(ctx, e.DB, runID)
	if err != nil {
		e.Logger.WarnContext(ctx, "run not found, nothing to execute", "run_id", runID, "error", err)
		return nil
	}
	if run.Status.Terminal() {
		e.Logger.InfoContext(ctx, "run already terminal, skipping", "run_id", runID, "status", run.Status)
		return nil
	}

	workflow, err := e.Workflows.Get(ctx, run.WorkflowID)
	if err != nil {
		return fmt.Errorf("load workflow %s: %w", run.WorkflowID, err)
	}
	def, err := workflow.Definition()
	if err != nil {
		return fmt.Errorf("parse workflow definition: %w", err)
	}
	cfgByStepID := make(map[string]domain.StepConfig, len(def.Steps))
	for _, step := range def.Steps {
		cfgByStepID[step.ID] = step.Config
	}

	if run.Status == domain.RunPending {
		now := e.now()
		if err := e.Runs.Update(ctx, e.DB, runID, repo.RunUpdate{Status: domain.RunRunning, StartedAt: &now}); err != nil {
			return fmt.Errorf("mark run running: %w", err)
		}
	}

	steps, err := e.Steps.ListByRun(ctx, e.DB, runID)
	if err != nil {
		return fmt.Errorf("list steps: %w", err)
	}

	runFailed := false
	for _, step := range steps {
		if step.Status == domain.StepCompleted {
			continue
		}
		cfg, ok := cfgByStepID[step.StepID]
		if !ok {
			return fmt.Errorf("step %s has no matching definition entry", step.StepID)
		}

		for {
			// Re-fetch immediately before each attempt to observe
			// retry_count and idempotency_key written by a previous
			// attempt (including one from a crashed prior process).
			current, err := e.Steps.Get(ctx, e.DB, step.ID)
			if err != nil {
				return fmt.Errorf("refetch step %s: %w", step.StepID, err)
			}
			if current.Status == domain.StepCompleted {
				break
			}

			outcome, err := e.Step.Execute(ctx, run.WorkflowID, runID, run.OrderID, current, cfg)
			if err != nil {
				return fmt.Errorf("execute step %s: %w", step.StepID, err)
			}
			switch outcome {
			case OutcomeCompleted:
				goto nextStep
			case OutcomeRetry:
				continue
			case OutcomeFailed:
				runFailed = true
				goto nextStep
			}
		}
	nextStep:
		if runFailed {
			break
		}
	}

	now := e.now()
	finalStatus := domain.RunCompleted
	if runFailed {
		finalStatus = domain.RunFailed
	}
	if err := e.Runs.Update(ctx, e.DB, runID, repo.RunUpdate{Status: finalStatus, CompletedAt: &now}); err != nil {
		return fmt.Errorf("finalize run: %w", err)
	}
	return nil
}

func (e *RunExecutor) failBestEffort(ctx context.Context, runID string) {
	now := e.now()
	if err := e.Runs.Update(ctx, e.DB, runID, repo.RunUpdate{Status: domain.RunFailed, CompletedAt: &now}); err != nil {
		e.Logger.ErrorContext(ctx, "best-effort run failure finalization also failed", "run_id", runID, "error", err)
	}
}
