package memory

import (
	"context"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/domain/cashdesk"
)

// CashRepo is the in-memory cash session repository.
type CashRepo struct {
	store *Store
}

// NewCashRepo creates a cash repository over the store.
func NewCashRepo(store *Store) *CashRepo {
	return &CashRepo{store: store}
}

// CreateSession implements cashdesk.Repository. One open session per
// register is enforced here the way the SQL backend does with a partial
// unique index.
func (r *CashRepo) CreateSession(_ context.Context, s *cashdesk.Session) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, ex := range r.store.state.sessions {
		if ex.RegisterID == s.RegisterID && ex.Status == cashdesk.SessionOpen {
			return apperror.NewRegisterAlreadyOpen(s.RegisterID.String(), ex.ID.String())
		}
	}
	cp := *s
	r.store.state.sessions[s.ID.String()] = &cp
	return nil
}

// GetSession implements cashdesk.Repository.
func (r *CashRepo) GetSession(_ context.Context, sessionID id.ID) (*cashdesk.Session, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	s, ok := r.store.state.sessions[sessionID.String()]
	if !ok {
		return nil, apperror.NewNotFound("cash session", sessionID)
	}
	cp := *s
	return &cp, nil
}

// GetSessionForUpdate implements cashdesk.Repository.
func (r *CashRepo) GetSessionForUpdate(ctx context.Context, sessionID id.ID) (*cashdesk.Session, error) {
	return r.GetSession(ctx, sessionID)
}

// FindOpenSession implements cashdesk.Repository.
func (r *CashRepo) FindOpenSession(_ context.Context, registerID id.ID) (*cashdesk.Session, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, s := range r.store.state.sessions {
		if s.RegisterID == registerID && s.Status == cashdesk.SessionOpen {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

// SaveSession implements cashdesk.Repository.
func (r *CashRepo) SaveSession(_ context.Context, s *cashdesk.Session) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.state.sessions[s.ID.String()]; !ok {
		return apperror.NewNotFound("cash session", s.ID)
	}
	cp := *s
	r.store.state.sessions[s.ID.String()] = &cp
	return nil
}

// AppendMovement implements cashdesk.Repository.
func (r *CashRepo) AppendMovement(_ context.Context, m cashdesk.Movement) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, ex := range r.store.state.cashMovements {
		if ex.ReferenceType == m.ReferenceType && ex.ReferenceID == m.ReferenceID {
			return apperror.NewConflict("duplicate movement reference")
		}
	}
	r.store.state.cashMovements = append(r.store.state.cashMovements, m)
	return nil
}

// FindMovementByReference implements cashdesk.Repository.
func (r *CashRepo) FindMovementByReference(_ context.Context, refType, refID string) (*cashdesk.Movement, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for i := range r.store.state.cashMovements {
		m := r.store.state.cashMovements[i]
		if m.ReferenceType == refType && m.ReferenceID == refID {
			return &m, nil
		}
	}
	return nil, nil
}

// MovementsBySession implements cashdesk.Repository.
func (r *CashRepo) MovementsBySession(_ context.Context, sessionID id.ID) ([]cashdesk.Movement, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []cashdesk.Movement
	for _, m := range r.store.state.cashMovements {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	return out, nil
}

// ListSessions implements cashdesk.Repository.
func (r *CashRepo) ListSessions(_ context.Context, f cashdesk.SessionFilter) ([]cashdesk.Session, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []cashdesk.Session
	for _, s := range r.store.state.sessions {
		if f.RegisterID != nil && s.RegisterID != *f.RegisterID {
			continue
		}
		if f.Status != nil && s.Status != *f.Status {
			continue
		}
		out = append(out, *s)
	}
	out = paginate(out, f.Offset, f.Limit)
	return out, nil
}
