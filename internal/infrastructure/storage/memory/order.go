package memory

import (
	"context"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/domain/order"
)

// OrderRepo is the in-memory order repository.
type OrderRepo struct {
	store *Store
}

// NewOrderRepo creates an order repository over the store.
func NewOrderRepo(store *Store) *OrderRepo {
	return &OrderRepo{store: store}
}

// Create implements order.Repository.
func (r *OrderRepo) Create(_ context.Context, o *order.Order) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.state.orders[o.ID.String()]; ok {
		return apperror.NewConflict("order already exists")
	}
	r.store.state.orders[o.ID.String()] = cloneOrder(o)
	return nil
}

// Get implements order.Repository.
func (r *OrderRepo) Get(_ context.Context, orderID id.ID) (*order.Order, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	o, ok := r.store.state.orders[orderID.String()]
	if !ok {
		return nil, apperror.NewNotFound("order", orderID)
	}
	return cloneOrder(o), nil
}

// GetForUpdate implements order.Repository.
func (r *OrderRepo) GetForUpdate(ctx context.Context, orderID id.ID) (*order.Order, error) {
	return r.Get(ctx, orderID)
}

// Save implements order.Repository.
func (r *OrderRepo) Save(_ context.Context, o *order.Order) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.state.orders[o.ID.String()]; !ok {
		return apperror.NewNotFound("order", o.ID)
	}
	r.store.state.orders[o.ID.String()] = cloneOrder(o)
	return nil
}

// List implements order.Repository.
func (r *OrderRepo) List(_ context.Context, f order.ListFilter) ([]order.Order, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []order.Order
	for _, o := range r.store.state.orders {
		if f.Kind != nil && o.Kind != *f.Kind {
			continue
		}
		if f.Status != nil && o.Status != *f.Status {
			continue
		}
		if f.CustomerID != nil && o.CustomerID != *f.CustomerID {
			continue
		}
		out = append(out, *cloneOrder(o))
	}
	out = paginate(out, f.Offset, f.Limit)
	return out, nil
}
