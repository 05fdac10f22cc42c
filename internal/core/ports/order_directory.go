package ports

import (
	"context"

	"github.com/yabalash/driver-tracker/internal/core/domain"
)

// OrderDirectory looks orders up in the order API.
type OrderDirectory interface {
	// FindOrder returns domain.ErrNotFound (wrapped) when the order is not listed.
	FindOrder(ctx context.Context, orderNumber string) (*domain.Order, error)
	// TrackedOrders returns the listed orders that carry a tracking URL.
	TrackedOrders(ctx context.Context) ([]domain.Order, error)
}
