package memory

import (
	"context"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/domain/account"
)

// AccountRepo is the in-memory account repository.
type AccountRepo struct {
	store *Store
}

// NewAccountRepo creates an account repository over the store.
func NewAccountRepo(store *Store) *AccountRepo {
	return &AccountRepo{store: store}
}

// AppendMovement implements account.Repository.
func (r *AccountRepo) AppendMovement(_ context.Context, m account.Movement) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, ex := range r.store.state.accountMovements {
		if ex.ReferenceType == m.ReferenceType && ex.ReferenceID == m.ReferenceID {
			return apperror.NewConflict("duplicate movement reference")
		}
	}
	r.store.state.accountMovements = append(r.store.state.accountMovements, m)
	return nil
}

// FindMovementByReference implements account.Repository.
func (r *AccountRepo) FindMovementByReference(_ context.Context, refType, refID string) (*account.Movement, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for i := range r.store.state.accountMovements {
		m := r.store.state.accountMovements[i]
		if m.ReferenceType == refType && m.ReferenceID == refID {
			return &m, nil
		}
	}
	return nil, nil
}

// GetMovement implements account.Repository.
func (r *AccountRepo) GetMovement(_ context.Context, movementID id.ID) (*account.Movement, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for i := range r.store.state.accountMovements {
		m := r.store.state.accountMovements[i]
		if m.ID == movementID {
			return &m, nil
		}
	}
	return nil, nil
}

// MovementsByCustomer implements account.Repository.
func (r *AccountRepo) MovementsByCustomer(_ context.Context, customerID id.ID) ([]account.Movement, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []account.Movement
	for _, m := range r.store.state.accountMovements {
		if m.CustomerID == customerID {
			out = append(out, m)
		}
	}
	return out, nil
}

// GetAccount implements account.Repository.
func (r *AccountRepo) GetAccount(_ context.Context, customerID id.ID) (account.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	if a, ok := r.store.state.accounts[customerID.String()]; ok {
		return a, nil
	}
	return account.Account{CustomerID: customerID}, nil
}

// GetAccountForUpdate implements account.Repository.
func (r *AccountRepo) GetAccountForUpdate(ctx context.Context, customerID id.ID) (account.Account, error) {
	return r.GetAccount(ctx, customerID)
}

// SaveAccount implements account.Repository.
func (r *AccountRepo) SaveAccount(_ context.Context, a account.Account) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.state.accounts[a.CustomerID.String()] = a
	return nil
}
