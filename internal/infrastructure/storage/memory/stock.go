package memory

import (
	"context"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/domain/stock"
)

// StockRepo is the in-memory stock repository.
type StockRepo struct {
	store *Store
}

// NewStockRepo creates a stock repository over the store.
func NewStockRepo(store *Store) *StockRepo {
	return &StockRepo{store: store}
}

// AppendMovement implements stock.Repository. The reference must be unique.
func (r *StockRepo) AppendMovement(_ context.Context, m stock.Movement) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, ex := range r.store.state.stockMovements {
		if ex.ReferenceType == m.ReferenceType && ex.ReferenceID == m.ReferenceID {
			return apperror.NewConflict("duplicate movement reference")
		}
	}
	r.store.state.stockMovements = append(r.store.state.stockMovements, m)
	return nil
}

// FindMovementByReference implements stock.Repository.
func (r *StockRepo) FindMovementByReference(_ context.Context, refType, refID string) (*stock.Movement, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for i := range r.store.state.stockMovements {
		m := r.store.state.stockMovements[i]
		if m.ReferenceType == refType && m.ReferenceID == refID {
			return &m, nil
		}
	}
	return nil, nil
}

// GetMovement implements stock.Repository.
func (r *StockRepo) GetMovement(_ context.Context, movementID id.ID) (*stock.Movement, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for i := range r.store.state.stockMovements {
		m := r.store.state.stockMovements[i]
		if m.ID == movementID {
			return &m, nil
		}
	}
	return nil, nil
}

// MovementsByBucket implements stock.Repository.
func (r *StockRepo) MovementsByBucket(_ context.Context, key stock.BucketKey) ([]stock.Movement, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []stock.Movement
	for _, m := range r.store.state.stockMovements {
		if m.BucketKey == key {
			out = append(out, m)
		}
	}
	return out, nil
}

// MovementsByProduct implements stock.Repository.
func (r *StockRepo) MovementsByProduct(_ context.Context, productID id.ID, f stock.MovementFilter) ([]stock.Movement, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []stock.Movement
	for _, m := range r.store.state.stockMovements {
		if m.ProductID != productID {
			continue
		}
		if f.WarehouseID != nil && m.WarehouseID != *f.WarehouseID {
			continue
		}
		if f.Direction != nil && m.Direction != *f.Direction {
			continue
		}
		if f.FromDate != nil && m.OccurredAt.Before(*f.FromDate) {
			continue
		}
		if f.ToDate != nil && !m.OccurredAt.Before(*f.ToDate) {
			continue
		}
		out = append(out, m)
	}
	out = paginate(out, f.Offset, f.Limit)
	return out, nil
}

// GetAggregate implements stock.Repository.
func (r *StockRepo) GetAggregate(_ context.Context, key stock.BucketKey) (stock.Aggregate, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	if a, ok := r.store.state.aggregates[key.String()]; ok {
		return a, nil
	}
	return stock.Aggregate{BucketKey: key}, nil
}

// GetAggregateForUpdate implements stock.Repository. Row locking is not
// needed here: the transaction manager serializes units of work.
func (r *StockRepo) GetAggregateForUpdate(ctx context.Context, key stock.BucketKey) (stock.Aggregate, error) {
	return r.GetAggregate(ctx, key)
}

// SaveAggregate implements stock.Repository.
func (r *StockRepo) SaveAggregate(_ context.Context, a stock.Aggregate) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.state.aggregates[a.BucketKey.String()] = a
	return nil
}

// GetProductTotal implements stock.Repository.
func (r *StockRepo) GetProductTotal(_ context.Context, productID id.ID) (stock.ProductTotal, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	if t, ok := r.store.state.totals[productID.String()]; ok {
		return t, nil
	}
	return stock.ProductTotal{ProductID: productID}, nil
}

// SaveProductTotal implements stock.Repository.
func (r *StockRepo) SaveProductTotal(_ context.Context, t stock.ProductTotal) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.state.totals[t.ProductID.String()] = t
	return nil
}

// AggregatesByProduct implements stock.Repository.
func (r *StockRepo) AggregatesByProduct(_ context.Context, productID id.ID) ([]stock.Aggregate, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []stock.Aggregate
	for _, a := range r.store.state.aggregates {
		if a.ProductID == productID {
			out = append(out, a)
		}
	}
	return out, nil
}

// AggregatesByWarehouse implements stock.Repository.
func (r *StockRepo) AggregatesByWarehouse(_ context.Context, warehouseID id.ID) ([]stock.Aggregate, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []stock.Aggregate
	for _, a := range r.store.state.aggregates {
		if a.WarehouseID == warehouseID {
			out = append(out, a)
		}
	}
	return out, nil
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
