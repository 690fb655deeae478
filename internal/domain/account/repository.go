package account

import (
	"context"

	"tillbook/internal/core/id"
)

// Repository defines storage operations for account movements and balances.
type Repository interface {
	// AppendMovement adds one immutable ledger entry.
	AppendMovement(ctx context.Context, m Movement) error

	// FindMovementByReference looks up an existing movement by its business
	// reference; returns nil when absent.
	FindMovementByReference(ctx context.Context, refType, refID string) (*Movement, error)

	// GetMovement returns one movement by id.
	GetMovement(ctx context.Context, movementID id.ID) (*Movement, error)

	// MovementsByCustomer returns the customer's ledger, oldest first.
	MovementsByCustomer(ctx context.Context, customerID id.ID) ([]Movement, error)

	// GetAccount returns the account, zero-balance when no movements exist.
	GetAccount(ctx context.Context, customerID id.ID) (Account, error)

	// GetAccountForUpdate returns the account with a write lock held for the
	// remainder of the unit of work.
	GetAccountForUpdate(ctx context.Context, customerID id.ID) (Account, error)

	// SaveAccount upserts the derived balance.
	SaveAccount(ctx context.Context, a Account) error
}
