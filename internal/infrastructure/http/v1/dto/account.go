package dto

import (
	"tillbook/internal/core/types"
	"tillbook/internal/domain/account"
	"tillbook/internal/domain/ledger"
)

// AccountMovementRequest for POST /accounts/:customerId/movements.
type AccountMovementRequest struct {
	Type            string      `json:"type" binding:"required"`
	AdjustDirection string      `json:"adjustDirection"`
	Amount          types.Money `json:"amount"`

	ReferenceType string `json:"referenceType" binding:"required"`
	ReferenceID   string `json:"referenceId" binding:"required"`

	OccurredAt string `json:"occurredAt"`
}

// ToCommand converts to the ledger command.
func (r AccountMovementRequest) ToCommand(customerID string) (ledger.AccountMovementCommand, error) {
	var cmd ledger.AccountMovementCommand

	parsed, err := ParseID("customerId", customerID)
	if err != nil {
		return cmd, err
	}
	occurredAt, err := ParseOptionalTime("occurredAt", r.OccurredAt)
	if err != nil {
		return cmd, err
	}

	return ledger.AccountMovementCommand{
		CustomerID:      parsed,
		Type:            account.MovementType(r.Type),
		AdjustDirection: account.AdjustmentDirection(r.AdjustDirection),
		Amount:          r.Amount,
		Reference:       ledger.Reference{Type: r.ReferenceType, ID: r.ReferenceID},
		OccurredAt:      occurredAt,
	}, nil
}

// AccountStatementResponse combines the balance with the full ledger.
type AccountStatementResponse struct {
	Account         account.Account    `json:"account"`
	AvailableCredit types.Money        `json:"availableCredit"`
	Movements       []account.Movement `json:"movements"`
}
