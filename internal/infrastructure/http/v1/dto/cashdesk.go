package dto

import (
	"tillbook/internal/core/types"
	"tillbook/internal/domain/cashdesk"
	"tillbook/internal/domain/ledger"
)

// OpenSessionRequest for POST /cashdesk/sessions.
type OpenSessionRequest struct {
	RegisterID     string      `json:"registerId" binding:"required"`
	OpeningBalance types.Money `json:"openingBalance"`
}

// ToCommand converts to the ledger command. The cashier comes from the
// authenticated user, not the request body.
func (r OpenSessionRequest) ToCommand(cashierID string) (ledger.OpenSessionCommand, error) {
	registerID, err := ParseID("registerId", r.RegisterID)
	if err != nil {
		return ledger.OpenSessionCommand{}, err
	}
	return ledger.OpenSessionCommand{
		RegisterID:     registerID,
		CashierID:      cashierID,
		OpeningBalance: r.OpeningBalance,
	}, nil
}

// CashMovementRequest for POST /cashdesk/sessions/:id/movements.
type CashMovementRequest struct {
	Type            string      `json:"type" binding:"required"`
	AdjustDirection string      `json:"adjustDirection"`
	Amount          types.Money `json:"amount"`
	Concept         string      `json:"concept"`

	ReferenceType string `json:"referenceType" binding:"required"`
	ReferenceID   string `json:"referenceId" binding:"required"`

	OccurredAt string `json:"occurredAt"`
}

// ToCommand converts to the ledger command.
func (r CashMovementRequest) ToCommand(sessionID string) (ledger.CashMovementCommand, error) {
	var cmd ledger.CashMovementCommand

	parsed, err := ParseID("sessionId", sessionID)
	if err != nil {
		return cmd, err
	}
	occurredAt, err := ParseOptionalTime("occurredAt", r.OccurredAt)
	if err != nil {
		return cmd, err
	}

	return ledger.CashMovementCommand{
		SessionID:       parsed,
		Type:            cashdesk.MovementType(r.Type),
		AdjustDirection: cashdesk.AdjustmentDirection(r.AdjustDirection),
		Amount:          r.Amount,
		Concept:         r.Concept,
		Reference:       ledger.Reference{Type: r.ReferenceType, ID: r.ReferenceID},
		OccurredAt:      occurredAt,
	}, nil
}

// CloseSessionRequest for POST /cashdesk/sessions/:id/close.
type CloseSessionRequest struct {
	CountedBalance types.Money `json:"countedBalance"`
}

// ListSessionsQuery filters session listings.
type ListSessionsQuery struct {
	PaginationRequest
	RegisterID string `form:"registerId"`
	Status     string `form:"status"`
}

// ToFilter converts to the domain filter.
func (q ListSessionsQuery) ToFilter() (cashdesk.SessionFilter, error) {
	q.Defaults()
	filter := cashdesk.SessionFilter{Limit: q.Limit, Offset: q.Offset}

	if q.RegisterID != "" {
		registerID, err := ParseID("registerId", q.RegisterID)
		if err != nil {
			return filter, err
		}
		filter.RegisterID = &registerID
	}
	if q.Status != "" {
		s := cashdesk.SessionStatus(q.Status)
		filter.Status = &s
	}
	return filter, nil
}

// SessionResponse combines the session with its movement log.
type SessionResponse struct {
	Session   *cashdesk.Session   `json:"session"`
	Movements []cashdesk.Movement `json:"movements"`
}
