package repo

import (
	"time"

	"github.com/flowforge/durableflow/internal/domain"
)

// StepUpdate enumerates exactly the fields update_step_status is allowed
// to change, per the spec's "variable-keyword updates become an options
// record" design note. A field left nil is left untouched; Status is
// always applied.
type StepUpdate struct {
	Status         domain.StepStatus
	StartedAt      *time.Time
	CompletedAt    *time.Time
	ErrorMessage   *string
	IdempotencyKey *string
	RetryCount     *int
}

// RunUpdate enumerates exactly the fields update_run_status is allowed to
// change.
type RunUpdate struct {
	Status      domain.RunStatus
	StartedAt   *time.Time
	CompletedAt *time.Time
}
