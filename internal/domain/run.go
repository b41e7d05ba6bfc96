package domain

import (
	"errors"
	"strings"
	"time"
)

// Run is one execution instance of a Workflow. Once its Status reaches a
// terminal value it is immutable: no row belonging to it is mutated
// again.
type Run struct {
	ID          string
	WorkflowID  string
	OrderID     *string
	Status      RunStatus
	StartedAt   *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
}

func (r Run) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.New("id is required")
	}
	if strings.TrimSpace(r.WorkflowID) == "" {
		return errors.New("workflow id is required")
	}
	if !r.Status.Valid() {
		return errors.New("status is invalid")
	}
	return nil
}

// Step is one instance of a workflow step within a run.
type Step struct {
	ID             string
	RunID          string
	StepID         string
	StepIndex      int
	Status         StepStatus
	IdempotencyKey *string
	RetryCount     int
	MaxRetries     int
	StartedAt      *time.Time
	CompletedAt    *time.Time
	ErrorMessage   *string
	CreatedAt      time.Time
}

func (s Step) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return errors.New("id is required")
	}
	if strings.TrimSpace(s.RunID) == "" {
		return errors.New("run id is required")
	}
	if strings.TrimSpace(s.StepID) == "" {
		return errors.New("step id is required")
	}
	if s.StepIndex < 0 {
		return errors.New("step index must be non-negative")
	}
	if !s.Status.Valid() {
		return errors.New("status is invalid")
	}
	if s.RetryCount < 0 {
		return errors.New("retry count must be non-negative")
	}
	if s.MaxRetries < 0 {
		return errors.New("max retries must be non-negative")
	}
	return nil
}

// StepResult is the durable record that a step attempt produced an
// outcome. Its presence under a given idempotency key is the
// authoritative signal that the attempt's side effect is durably
// recorded; at most one exists per key.
type StepResult struct {
	IdempotencyKey string
	StepID         string
	ResultData     []byte
	CreatedAt      time.Time
}

func (sr StepResult) Validate() error {
	if strings.TrimSpace(sr.IdempotencyKey) == "" {
		return errors.New("idempotency key is required")
	}
	if strings.TrimSpace(sr.StepID) == "" {
		return errors.New("step id is required")
	}
	return nil
}
