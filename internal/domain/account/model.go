// Package account provides the customer receivables ledger: an append-only
// movement log and the derived per-customer balance.
package account

import (
	"time"

	"github.com/shopspring/decimal"

	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
)

// MovementType classifies an account movement. Charges increase the debt,
// payments decrease it, adjustments carry an explicit direction.
type MovementType string

const (
	TypeCharge     MovementType = "charge"
	TypePayment    MovementType = "payment"
	TypeAdjustment MovementType = "adjustment"
)

// Valid reports whether t is a known movement type.
func (t MovementType) Valid() bool {
	return t == TypeCharge || t == TypePayment || t == TypeAdjustment
}

// AdjustmentDirection disambiguates adjustments; it is required for
// TypeAdjustment and forbidden otherwise.
type AdjustmentDirection string

const (
	AdjustIncrease AdjustmentDirection = "increase"
	AdjustDecrease AdjustmentDirection = "decrease"
)

// Valid reports whether d is a known adjustment direction.
func (d AdjustmentDirection) Valid() bool {
	return d == AdjustIncrease || d == AdjustDecrease
}

// Movement is one immutable receivables ledger entry. Amount is always
// positive; the balance effect comes from Type and AdjustDirection.
type Movement struct {
	ID         id.ID `db:"id" json:"id"`
	CustomerID id.ID `db:"customer_id" json:"customerId"`

	Type            MovementType        `db:"type" json:"type"`
	AdjustDirection AdjustmentDirection `db:"adjust_direction" json:"adjustDirection,omitempty"`
	Amount          types.Money         `db:"amount" json:"amount"`

	ReferenceType string `db:"reference_type" json:"referenceType"`
	ReferenceID   string `db:"reference_id" json:"referenceId"`
	ReversesID    id.ID  `db:"reverses_id" json:"reversesId,omitempty"`

	OccurredAt time.Time `db:"occurred_at" json:"occurredAt"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// SignedAmount returns the balance delta: positive raises the debt.
func (m Movement) SignedAmount() types.Money {
	switch m.Type {
	case TypeCharge:
		return m.Amount
	case TypePayment:
		return m.Amount.Neg()
	case TypeAdjustment:
		if m.AdjustDirection == AdjustDecrease {
			return m.Amount.Neg()
		}
		return m.Amount
	}
	return decimal.Zero
}

// Account is the derived balance for one customer. CurrentBalance equals
// the signed sum of all movements; positive means the customer owes.
type Account struct {
	CustomerID     id.ID       `db:"customer_id" json:"customerId"`
	CreditLimit    types.Money `db:"credit_limit" json:"creditLimit"`
	CurrentBalance types.Money `db:"current_balance" json:"currentBalance"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updatedAt"`
}

// AvailableCredit returns limit minus balance, never below zero.
func (a Account) AvailableCredit() types.Money {
	avail := a.CreditLimit.Sub(a.CurrentBalance)
	if avail.IsNegative() {
		return decimal.Zero
	}
	return avail
}
