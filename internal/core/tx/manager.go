// Package tx defines the unit-of-work contract for ledger operations.
// Domain services depend on this interface only; the concrete managers live
// in infrastructure/storage (postgres transactions, memory snapshots).
package tx

import (
	"context"
)

// Manager runs a function as one atomic unit of work.
type Manager interface {
	// RunInTransaction executes fn within a transaction. If fn returns an
	// error the transaction is rolled back and no partial write becomes
	// visible; otherwise it is committed.
	//
	// Nested calls reuse the existing transaction from context.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with read-only transaction support.
type ReadOnlyManager interface {
	Manager

	// ReadOnly executes fn in a read-only transaction.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
