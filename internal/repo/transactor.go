package repo

import "context"

// Transactor runs fn inside a single commit: fn's DB participates in one
// transaction that commits only if fn returns nil, and rolls back
// otherwise. This is the one place the Step Executor's atomic
// success-commit (§4.4 step 4: result + action dispatch + completion,
// in one commit) needs transaction control rather than the narrow DB
// interface every other repository method accepts.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(db DB) error) error
}
