// Package actions implements the Action Dispatcher: a closed sum type
// over the handful of action names a step's config may declare. A
// handler mutates the Order linked to a run's order_id, inside the
// same transaction as the step's success commit (or not at all, for
// unregistered actions and runs with no linked order).
package actions

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/flowforge/durableflow/internal/domain"
	"github.com/flowforge/durableflow/internal/repo"
)

// Handler mutates the order linked to a run, inside the caller's
// transaction. A non-nil error aborts that transaction; the Step
// Executor observes it as the step's task failure.
type Handler func(ctx context.Context, db repo.DB, orders repo.OrderRepository, orderID string) error

const (
	ActionValidateOrder   = "validate_order"
	ActionChargePayment   = "charge_payment"
	ActionShipOrder       = "ship_order"
	ActionSendNotification = "send_notification"
)

// Dispatcher is the name-to-handler table, built once at startup and
// never mutated afterward: the "closed sum type" the design notes call
// for, expressed as a map rather than a switch so ManifestUploader can
// be attached per action without special-casing ship_order elsewhere.
type Dispatcher struct {
	logger    *slog.Logger
	handlers  map[string]Handler
	manifests ManifestUploader
}

// ManifestUploader uploads a small side-artifact for an action that
// produces one. ship_order is the only registered action that uses it;
// its failure is logged, never propagated, since the object store has
// no transactional join with the order's commit.
type ManifestUploader interface {
	UploadManifest(ctx context.Context, orderID string, manifest []byte) error
}

func NewDispatcher(logger *slog.Logger, manifests ManifestUploader) *Dispatcher {
	d := &Dispatcher{logger: logger, manifests: manifests, handlers: make(map[string]Handler)}
	d.handlers[ActionValidateOrder] = d.validateOrder
	d.handlers[ActionChargePayment] = d.chargePayment
	d.handlers[ActionShipOrder] = d.shipOrder
	d.handlers[ActionSendNotification] = d.sendNotification
	return d
}

// Dispatch invokes the handler registered for action against orderID,
// inside db. It is a silent no-op when action is unregistered or
// orderID is empty, per the Action Dispatcher's unchanged contract.
func (d *Dispatcher) Dispatch(ctx context.Context, db repo.DB, orders repo.OrderRepository, action string, orderID *string) error {
	if action == "" {
		return nil
	}
	handler, ok := d.handlers[action]
	if !ok {
		d.logger.DebugContext(ctx, "action not registered, skipping dispatch", "action", action)
		return nil
	}
	if orderID == nil || *orderID == "" {
		d.logger.DebugContext(ctx, "action has no linked order, skipping dispatch", "action", action)
		return nil
	}
	return handler(ctx, db, orders, *orderID)
}

// CheckPrecondition implements taskrunner.PreconditionChecker: a
// read-only check against the order's current status, performed
// before the task body runs, so a precondition failure can be
// attributed to the action rather than surfacing as an opaque task
// failure. It never mutates state.
func (d *Dispatcher) CheckPrecondition(ctx context.Context, db repo.DB, orders repo.OrderRepository, action string, orderID *string) error {
	if orderID == nil || *orderID == "" {
		return nil
	}
	required, ok := requiredStatus(action)
	if !ok {
		return nil
	}
	order, err := orders.Get(ctx, db, *orderID)
	if err != nil {
		return err
	}
	if order.Status != required {
		return domain.ErrInvalidOrderTransition
	}
	return nil
}

func requiredStatus(action string) (domain.OrderStatus, bool) {
	switch action {
	case ActionValidateOrder:
		return domain.OrderPending, true
	case ActionChargePayment:
		return domain.OrderValidated, true
	case ActionShipOrder:
		return domain.OrderCharged, true
	default:
		return "", false
	}
}

func (d *Dispatcher) validateOrder(ctx context.Context, db repo.DB, orders repo.OrderRepository, orderID string) error {
	order, err := orders.Get(ctx, db, orderID)
	if err != nil {
		return err
	}
	if order.AmountCents <= 0 {
		return fmt.Errorf("order %s has non-positive amount %d", orderID, order.AmountCents)
	}
	return orders.UpdateStatus(ctx, db, orderID, domain.OrderValidated)
}

func (d *Dispatcher) chargePayment(ctx context.Context, db repo.DB, orders repo.OrderRepository, orderID string) error {
	return orders.UpdateStatus(ctx, db, orderID, domain.OrderCharged)
}

func (d *Dispatcher) shipOrder(ctx context.Context, db repo.DB, orders repo.OrderRepository, orderID string) error {
	return orders.UpdateStatus(ctx, db, orderID, domain.OrderShipped)
}

// PostCommitSideEffect runs after the transaction containing a
// successful ship_order dispatch has committed. The manifest upload is
// best-effort and deliberately outside that transaction: object
// storage has no transactional join with Postgres, so its failure is
// logged and never retried as part of the step.
func (d *Dispatcher) PostCommitSideEffect(ctx context.Context, action string, orderID *string) {
	if action != ActionShipOrder || d.manifests == nil || orderID == nil || *orderID == "" {
		return
	}
	manifest, err := buildShipmentManifest(*orderID)
	if err != nil {
		d.logger.WarnContext(ctx, "failed to build shipment manifest", "order_id", *orderID, "error", err)
		return
	}
	if err := d.manifests.UploadManifest(ctx, *orderID, manifest); err != nil {
		d.logger.WarnContext(ctx, "failed to upload shipment manifest", "order_id", *orderID, "error", err)
	}
}

func (d *Dispatcher) sendNotification(ctx context.Context, db repo.DB, orders repo.OrderRepository, orderID string) error {
	d.logger.InfoContext(ctx, "notification sent", "order_id", orderID)
	return nil
}
