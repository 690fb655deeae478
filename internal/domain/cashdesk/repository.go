package cashdesk

import (
	"context"

	"tillbook/internal/core/id"
)

// Repository defines storage operations for cash sessions and their
// movement log. At most one open session may exist per register; the
// storage layer enforces this with a partial unique index, the service
// re-checks it under the register lock.
type Repository interface {
	CreateSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, sessionID id.ID) (*Session, error)
	GetSessionForUpdate(ctx context.Context, sessionID id.ID) (*Session, error)

	// FindOpenSession returns the register's open session, nil when none.
	FindOpenSession(ctx context.Context, registerID id.ID) (*Session, error)

	// SaveSession persists running total, status and close fields.
	SaveSession(ctx context.Context, s *Session) error

	// AppendMovement adds one immutable cash log entry.
	AppendMovement(ctx context.Context, m Movement) error

	// FindMovementByReference looks up a movement by business reference;
	// returns nil when absent.
	FindMovementByReference(ctx context.Context, refType, refID string) (*Movement, error)

	// MovementsBySession returns the session's log, oldest first.
	MovementsBySession(ctx context.Context, sessionID id.ID) ([]Movement, error)

	ListSessions(ctx context.Context, filter SessionFilter) ([]Session, error)
}

// SessionFilter narrows session listings.
type SessionFilter struct {
	RegisterID *id.ID
	Status     *SessionStatus
	Limit      int
	Offset     int
}
