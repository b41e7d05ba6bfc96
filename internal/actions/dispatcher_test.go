package actions

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/flowforge/durableflow/internal/domain"
	"github.com/flowforge/durableflow/internal/repo"
)

type fakeOrders struct {
	orders map[string]domain.Order
}

func newFakeOrders(orders ...domain.Order) *fakeOrders {
	f := &fakeOrders{orders: make(map[string]domain.Order)}
	for _, o := range orders {
		f.orders[o.ID] = o
	}
	return f
}

func (f *fakeOrders) Get(ctx context.Context, db repo.DB, id string) (domain.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return domain.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrders) UpdateStatus(ctx context.Context, db repo.DB, id string, next domain.OrderStatus) error {
	o, ok := f.orders[id]
	if !ok {
		return repo.ErrNotFound
	}
	if !o.CanTransition(next) {
		return domain.ErrInvalidOrderTransition
	}
	o.Status = next
	f.orders[id] = o
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDispatchValidateOrderSucceeds(t *testing.T) {
	orders := newFakeOrders(domain.Order{ID: "o1", Status: domain.OrderPending, AmountCents: 500})
	d := NewDispatcher(testLogger(), nil)
	orderID := "o1"
	if err := d.Dispatch(context.Background(), nil, orders, ActionValidateOrder, &orderID); err != nil {
		t.Fatalf("Dispatch() err=%v", err)
	}
	if orders.orders["o1"].Status != domain.OrderValidated {
		t.Fatalf("status = %v, want validated", orders.orders["o1"].Status)
	}
}

func TestDispatchValidateOrderRejectsNonPositiveAmount(t *testing.T) {
	orders := newFakeOrders(domain.Order{ID: "o1", Status: domain.OrderPending, AmountCents: 0})
	d := NewDispatcher(testLogger(), nil)
	orderID := "o1"
	if err := d.Dispatch(context.Background(), nil, orders, ActionValidateOrder, &orderID); err == nil {
		t.Fatal("Dispatch() = nil, want error")
	}
	if orders.orders["o1"].Status != domain.OrderPending {
		t.Fatalf("status = %v, want unchanged pending", orders.orders["o1"].Status)
	}
}

func TestDispatchChargePaymentRequiresValidatedPredecessor(t *testing.T) {
	orders := newFakeOrders(domain.Order{ID: "o1", Status: domain.OrderPending, AmountCents: 500})
	d := NewDispatcher(testLogger(), nil)
	orderID := "o1"
	err := d.Dispatch(context.Background(), nil, orders, ActionChargePayment, &orderID)
	if err != domain.ErrInvalidOrderTransition {
		t.Fatalf("Dispatch() err=%v, want ErrInvalidOrderTransition", err)
	}
}

func TestDispatchUnregisteredActionIsNoOp(t *testing.T) {
	orders := newFakeOrders(domain.Order{ID: "o1", Status: domain.OrderPending, AmountCents: 500})
	d := NewDispatcher(testLogger(), nil)
	orderID := "o1"
	if err := d.Dispatch(context.Background(), nil, orders, "no_such_action", &orderID); err != nil {
		t.Fatalf("Dispatch() err=%v, want nil", err)
	}
}

func TestDispatchNilOrderIDIsNoOp(t *testing.T) {
	orders := newFakeOrders()
	d := NewDispatcher(testLogger(), nil)
	if err := d.Dispatch(context.Background(), nil, orders, ActionValidateOrder, nil); err != nil {
		t.Fatalf("Dispatch() err=%v, want nil", err)
	}
}

func TestCheckPreconditionMatchesDispatchOutcome(t *testing.T) {
	orders := newFakeOrders(domain.Order{ID: "o1", Status: domain.OrderPending, AmountCents: 500})
	d := NewDispatcher(testLogger(), nil)
	orderID := "o1"

	if err := d.CheckPrecondition(context.Background(), nil, orders, ActionChargePayment, &orderID); err != domain.ErrInvalidOrderTransition {
		t.Fatalf("CheckPrecondition() err=%v, want ErrInvalidOrderTransition", err)
	}
	if err := d.CheckPrecondition(context.Background(), nil, orders, ActionValidateOrder, &orderID); err != nil {
		t.Fatalf("CheckPrecondition() err=%v, want nil", err)
	}
}

func TestFullOrderLifecycleThroughDispatcher(t *testing.T) {
	orders := newFakeOrders(domain.Order{ID: "o1", Status: domain.OrderPending, AmountCents: 500})
	d := NewDispatcher(testLogger(), nil)
	orderID := "o1"
	ctx := context.Background()

	steps := []string{ActionValidateOrder, ActionChargePayment, ActionShipOrder, ActionSendNotification}
	for _, action := range steps {
		if err := d.Dispatch(ctx, nil, orders, action, &orderID); err != nil {
			t.Fatalf("Dispatch(%s) err=%v", action, err)
		}
	}
	if orders.orders["o1"].Status != domain.OrderShipped {
		t.Fatalf("final status = %v, want shipped", orders.orders["o1"].Status)
	}
}
