package stock

import (
	"context"
	"time"

	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
)

// Repository defines storage operations for the stock log and aggregates.
// Writes are only ever performed by the ledger service inside its unit of
// work; the movement table has no update or delete path.
type Repository interface {
	// AppendMovement adds one immutable log entry.
	AppendMovement(ctx context.Context, m Movement) error

	// FindMovementByReference looks up an existing movement by its business
	// reference. Used for idempotent retries; returns nil when absent.
	FindMovementByReference(ctx context.Context, refType, refID string) (*Movement, error)

	// GetMovement returns one movement by id.
	GetMovement(ctx context.Context, movementID id.ID) (*Movement, error)

	// MovementsByBucket returns the full log for one bucket, oldest first.
	MovementsByBucket(ctx context.Context, key BucketKey) ([]Movement, error)

	// MovementsByProduct returns movements across all buckets of a product.
	MovementsByProduct(ctx context.Context, productID id.ID, filter MovementFilter) ([]Movement, error)

	// GetAggregate returns the bucket aggregate, zero-valued when absent.
	GetAggregate(ctx context.Context, key BucketKey) (Aggregate, error)

	// GetAggregateForUpdate returns the aggregate with a write lock held for
	// the remainder of the unit of work.
	GetAggregateForUpdate(ctx context.Context, key BucketKey) (Aggregate, error)

	// SaveAggregate upserts the bucket aggregate.
	SaveAggregate(ctx context.Context, a Aggregate) error

	// GetProductTotal returns the product roll-up, zero-valued when absent.
	GetProductTotal(ctx context.Context, productID id.ID) (ProductTotal, error)

	// SaveProductTotal upserts the product roll-up.
	SaveProductTotal(ctx context.Context, t ProductTotal) error

	// AggregatesByProduct returns all non-empty buckets of a product.
	AggregatesByProduct(ctx context.Context, productID id.ID) ([]Aggregate, error)

	// AggregatesByWarehouse returns all non-empty buckets in a warehouse.
	AggregatesByWarehouse(ctx context.Context, warehouseID id.ID) ([]Aggregate, error)
}

// MovementFilter narrows movement history queries.
type MovementFilter struct {
	WarehouseID *id.ID
	Direction   *Direction
	FromDate    *time.Time
	ToDate      *time.Time
	Limit       int
	Offset      int
}

// Turnover represents receipt/issue totals for a period.
type Turnover struct {
	ProductID      id.ID          `json:"productId"`
	WarehouseID    id.ID          `json:"warehouseId,omitempty"`
	OpeningBalance types.Quantity `json:"openingBalance"`
	Inflow         types.Quantity `json:"inflow"`
	Outflow        types.Quantity `json:"outflow"`
	ClosingBalance types.Quantity `json:"closingBalance"`
}
