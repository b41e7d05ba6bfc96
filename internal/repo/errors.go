// Package repo declares the storage contracts the durable execution
// subsystem depends on. Concrete implementations live under
// internal/repo/postgres; callers depend only on these interfaces so the
// core never imports a particular database driver.
package repo

import "errors"

// ErrNotFound is returned by a Get when no row matches the given ID.
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists reports an insert that would violate a uniqueness
// constraint. No repository in internal/repo/postgres returns it: a
// duplicate idempotency key is reported by StepResultRepository.Insert
// as inserted=false with a nil error.
var ErrAlreadyExists = errors.New("already exists")
