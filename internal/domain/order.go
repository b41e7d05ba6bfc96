package domain

import (
	"errors"
	"strings"
	"time"
)

// Order is the demo domain entity: an optional execution target for a
// Run. Its status machine (pending -> validated -> charged -> shipped)
// advances only through named action handlers (internal/actions), never
// directly.
type Order struct {
	ID          string
	Status      OrderStatus
	AmountCents int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (o Order) Validate() error {
	if strings.TrimSpace(o.ID) == "" {
		return errors.New("id is required")
	}
	if !o.Status.Valid() {
		return errors.New("status is invalid")
	}
	if o.AmountCents < 0 {
		return errors.New("amount must be non-negative")
	}
	return nil
}

// ErrInvalidOrderTransition is raised by an action handler when an
// order is not in the predecessor state its transition requires. It
// aborts the enclosing commit and surfaces to the Step Executor as an
// ordinary task failure, subject to the retry policy.
var ErrInvalidOrderTransition = errors.New("order is not in the required predecessor state")

// CanTransition reports whether next is reachable from the order's
// current status via a single step of pending -> validated -> charged
// -> shipped.
func (o Order) CanTransition(next OrderStatus) bool {
	switch o.Status {
	case OrderPending:
		return next == OrderValidated
	case OrderValidated:
		return next == OrderCharged
	case OrderCharged:
		return next == OrderShipped
	default:
		return false
	}
}
