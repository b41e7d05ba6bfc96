package postgres

import (
	"context"
	"fmt"

	"github.com/flowforge/durableflow/internal/domain"
	"github.com/flowforge/durableflow/internal/repo"
)

type OrderStore struct{}

func NewOrderStore() *OrderStore {
	return &OrderStore{}
}

func (s *OrderStore) Get(ctx context.Context, db repo.DB, id string) (domain.Order, error) {
	var order domain.Order
	var statusRaw string
	row := db.QueryRowContext(ctx,
		`SELECT id, status, amount_cents, created_at, updated_at FROM orders WHERE id = $1`, id)
	if err := row.Scan(&order.ID, &statusRaw, &order.AmountCents, &order.CreatedAt, &order.UpdatedAt); err != nil {
		return domain.Order{}, handleNotFound(err)
	}
	status := domain.OrderStatus(statusRaw)
	if !status.Valid() {
		return domain.Order{}, fmt.Errorf("invalid order status %q", statusRaw)
	}
	order.Status = status
	order.CreatedAt = order.CreatedAt.UTC()
	order.UpdatedAt = order.UpdatedAt.UTC()
	return order, nil
}

// UpdateStatus enforces the predecessor-state precondition itself: the
// UPDATE's WHERE clause only matches when the order is currently in the
// state next's transition requires, so a conflicting concurrent
// transition loses the race rather than corrupting the status machine.
// It does not commit.
func (s *OrderStore) UpdateStatus(ctx context.Context, db repo.DB, id string, next domain.OrderStatus) error {
	predecessor, ok := predecessorOf(next)
	if !ok {
		return fmt.Errorf("no predecessor state defined for order status %q", next)
	}
	res, err := db.ExecContext(ctx,
		`UPDATE orders SET status = $1, updated_at = now() WHERE id = $2 AND status = $3`,
		next.String(), id, predecessor.String(),
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if rows == 0 {
		if _, err := s.Get(ctx, db, id); err != nil {
			return err
		}
		return domain.ErrInvalidOrderTransition
	}
	return nil
}

func predecessorOf(next domain.OrderStatus) (domain.OrderStatus, bool) {
	switch next {
	case domain.OrderValidated:
		return domain.OrderPending, true
	case domain.OrderCharged:
		return domain.OrderValidated, true
	case domain.OrderShipped:
		return domain.OrderCharged, true
	default:
		return "", false
	}
}
