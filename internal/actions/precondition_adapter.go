package actions

import (
	"context"

	"github.com/flowforge/durableflow/internal/repo"
	"github.com/flowforge/durableflow/internal/taskrunner"
)

// PreconditionAdapter binds a Dispatcher to a read handle so it can
// satisfy taskrunner.PreconditionChecker. The check always runs
// against the pool, never a transaction: it happens before the Step
// Executor opens the transaction that will carry the actual dispatch.
type PreconditionAdapter struct {
	Dispatcher *Dispatcher
	DB         repo.DB
	Orders     repo.OrderRepository
}

func NewPreconditionAdapter(dispatcher *Dispatcher, db repo.DB, orders repo.OrderRepository) *PreconditionAdapter {
	return &PreconditionAdapter{Dispatcher: dispatcher, DB: db, Orders: orders}
}

func (a *PreconditionAdapter) CheckPrecondition(ctx context.Context, action string, input taskrunner.Input) error {
	return a.Dispatcher.CheckPrecondition(ctx, a.DB, a.Orders, action, input.OrderID)
}
