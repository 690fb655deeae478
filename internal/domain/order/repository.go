package order

import (
	"context"

	"tillbook/internal/core/id"
)

// Repository defines storage operations for orders and their lines.
// GetForUpdate holds a write lock on the order row so concurrent line
// changes serialize per order.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, orderID id.ID) (*Order, error)
	GetForUpdate(ctx context.Context, orderID id.ID) (*Order, error)

	// Save persists header totals, status and the full line set.
	Save(ctx context.Context, o *Order) error

	List(ctx context.Context, filter ListFilter) ([]Order, error)
}

// ListFilter narrows order listings.
type ListFilter struct {
	Kind       *Kind
	Status     *Status
	CustomerID *id.ID
	Limit      int
	Offset     int
}
