package taskrunner

import (
	"context"
	"testing"

	"github.com/flowforge/durableflow/internal/domain"
)

func TestDemoRunnerDeterministicAcrossCalls(t *testing.T) {
	r := NewDemoRunner()
	input := Input{
		WorkflowID: "wf-1",
		RunID:      "run-1",
		StepID:     "step-a",
		Attempt:    1,
		Config:     domain.StepConfig{FailProbability: 0.5},
	}

	_, err1 := r.Run(context.Background(), input)
	_, err2 := r.Run(context.Background(), input)
	if (err1 == nil) != (err2 == nil) {
		t.Fatalf("non-deterministic outcome: err1=%v err2=%v", err1, err2)
	}
}

func TestDemoRunnerZeroFailProbabilityAlwaysSucceeds(t *testing.T) {
	r := NewDemoRunner()
	for attempt := 1; attempt <= 5; attempt++ {
		_, err := r.Run(context.Background(), Input{
			WorkflowID: "wf", RunID: "run", StepID: "s",
			Attempt: attempt, Config: domain.StepConfig{FailProbability: 0},
		})
		if err != nil {
			t.Fatalf("attempt %d: err=%v, want nil", attempt, err)
		}
	}
}

func TestDemoRunnerFullFailProbabilityAlwaysFails(t *testing.T) {
	r := NewDemoRunner()
	for attempt := 1; attempt <= 5; attempt++ {
		_, err := r.Run(context.Background(), Input{
			WorkflowID: "wf", RunID: "run", StepID: "s",
			Attempt: attempt, Config: domain.StepConfig{FailProbability: 1.0},
		})
		if err == nil {
			t.Fatalf("attempt %d: err=nil, want failure", attempt)
		}
		if _, ok := err.(*TaskExecutionError); !ok {
			t.Fatalf("err type = %T, want *TaskExecutionError", err)
		}
	}
}

func TestDemoRunnerDifferentAttemptsCanDiffer(t *testing.T) {
	r := NewDemoRunner()
	outcomes := make(map[bool]bool)
	for attempt := 1; attempt <= 20; attempt++ {
		_, err := r.Run(context.Background(), Input{
			WorkflowID: "wf", RunID: "run", StepID: "s",
			Attempt: attempt, Config: domain.StepConfig{FailProbability: 0.5},
		})
		outcomes[err == nil] = true
	}
	if len(outcomes) < 2 {
		t.Fatalf("expected both outcomes across attempts at p=0.5, got %v", outcomes)
	}
}

type stubChecker struct {
	err error
}

func (c stubChecker) CheckPrecondition(ctx context.Context, action string, input Input) error {
	return c.err
}

func TestActionRunnerShortCircuitsOnPreconditionFailure(t *testing.T) {
	base := NewDemoRunner()
	r := NewActionRunner(base, stubChecker{err: domain.ErrInvalidOrderTransition}, true)
	_, err := r.Run(context.Background(), Input{
		WorkflowID: "wf", RunID: "run", StepID: "s", Attempt: 1,
		Config: domain.StepConfig{Action: "charge_payment"},
	})
	te, ok := err.(*TaskExecutionError)
	if !ok {
		t.Fatalf("err type = %T, want *TaskExecutionError", err)
	}
	if !te.Precondition || !te.ForceFail {
		t.Fatalf("TaskExecutionError = %+v, want Precondition=true ForceFail=true", te)
	}
}

func TestActionRunnerPreconditionFailureConsumesRetryBudgetByDefault(t *testing.T) {
	base := NewDemoRunner()
	r := NewActionRunner(base, stubChecker{err: domain.ErrInvalidOrderTransition}, false)
	_, err := r.Run(context.Background(), Input{
		WorkflowID: "wf", RunID: "run", StepID: "s", Attempt: 1,
		Config: domain.StepConfig{Action: "charge_payment"},
	})
	te, ok := err.(*TaskExecutionError)
	if !ok {
		t.Fatalf("err type = %T, want *TaskExecutionError", err)
	}
	if te.ForceFail {
		t.Fatalf("TaskExecutionError.ForceFail = true, want false")
	}
}

func TestActionRunnerDelegatesWhenPreconditionPasses(t *testing.T) {
	base := NewDemoRunner()
	r := NewActionRunner(base, stubChecker{err: nil}, true)
	_, err := r.Run(context.Background(), Input{
		WorkflowID: "wf", RunID: "run", StepID: "s", Attempt: 1,
		Config: domain.StepConfig{Action: "validate_order", FailProbability: 0},
	})
	if err != nil {
		t.Fatalf("Run() err=%v, want nil", err)
	}
}

func TestActionRunnerSkipsCheckerWhenNoAction(t *testing.T) {
	base := NewDemoRunner()
	r := NewActionRunner(base, stubChecker{err: domain.ErrInvalidOrderTransition}, true)
	_, err := r.Run(context.Background(), Input{
		WorkflowID: "wf", RunID: "run", StepID: "s", Attempt: 1,
		Config: domain.StepConfig{FailProbability: 0},
	})
	if err != nil {
		t.Fatalf("Run() err=%v, want nil (no action configured, checker should be skipped)", err)
	}
}
