// Package cashdesk provides cash sessions and their movement log. A session
// is the money-handling period of one register between open and close; its
// running total is derived from the movement log and reconciled against the
// counted drawer at close.
package cashdesk

import (
	"time"

	"github.com/shopspring/decimal"

	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
)

// SessionStatus is the session lifecycle state.
type SessionStatus string

const (
	SessionOpen   SessionStatus = "open"
	SessionClosed SessionStatus = "closed"
)

// MovementType classifies a cash movement. Sales and payments add to the
// drawer, expenses take from it, adjustments carry an explicit direction.
type MovementType string

const (
	MovementSale       MovementType = "sale"
	MovementPayment    MovementType = "payment"
	MovementExpense    MovementType = "expense"
	MovementAdjustment MovementType = "adjustment"
)

// Valid reports whether t is a known cash movement type.
func (t MovementType) Valid() bool {
	switch t {
	case MovementSale, MovementPayment, MovementExpense, MovementAdjustment:
		return true
	}
	return false
}

// AdjustmentDirection disambiguates adjustments; required for
// MovementAdjustment and forbidden otherwise.
type AdjustmentDirection string

const (
	AdjustIncrease AdjustmentDirection = "increase"
	AdjustDecrease AdjustmentDirection = "decrease"
)

// Valid reports whether d is a known adjustment direction.
func (d AdjustmentDirection) Valid() bool {
	return d == AdjustIncrease || d == AdjustDecrease
}

// DeviationClass grades the close difference for back-office review.
type DeviationClass string

const (
	DeviationNormal   DeviationClass = "normal"
	DeviationWarning  DeviationClass = "warning"
	DeviationCritical DeviationClass = "critical"
)

// Movement is one immutable cash log entry for a session. Amount is always
// positive; the drawer effect comes from Type and AdjustDirection.
type Movement struct {
	ID        id.ID `db:"id" json:"id"`
	SessionID id.ID `db:"session_id" json:"sessionId"`

	Type            MovementType        `db:"type" json:"type"`
	AdjustDirection AdjustmentDirection `db:"adjust_direction" json:"adjustDirection,omitempty"`
	Amount          types.Money         `db:"amount" json:"amount"`
	Concept         string              `db:"concept" json:"concept"`

	ReferenceType string `db:"reference_type" json:"referenceType"`
	ReferenceID   string `db:"reference_id" json:"referenceId"`

	OccurredAt time.Time `db:"occurred_at" json:"occurredAt"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// SignedAmount returns the drawer delta for the movement.
func (m Movement) SignedAmount() types.Money {
	switch m.Type {
	case MovementSale, MovementPayment:
		return m.Amount
	case MovementExpense:
		return m.Amount.Neg()
	case MovementAdjustment:
		if m.AdjustDirection == AdjustDecrease {
			return m.Amount.Neg()
		}
		return m.Amount
	}
	return decimal.Zero
}

// Session is one register's cash-handling period. RunningTotal is derived
// from the movement log; close reconciles the counted drawer against
// opening balance plus running total.
type Session struct {
	ID         id.ID  `db:"id" json:"id"`
	Number     string `db:"number" json:"number"`
	RegisterID id.ID  `db:"register_id" json:"registerId"`
	CashierID  string `db:"cashier_id" json:"cashierId"`

	Status SessionStatus `db:"status" json:"status"`

	OpeningBalance types.Money `db:"opening_balance" json:"openingBalance"`

	// RunningTotal is the sum of signed movement amounts only; it does
	// not include the opening balance. Expected() adds the two, so the
	// expected drawer is always opening balance plus running total.
	RunningTotal types.Money `db:"running_total" json:"runningTotal"`

	CountedBalance  types.Money    `db:"counted_balance" json:"countedBalance"`
	ExpectedBalance types.Money    `db:"expected_balance" json:"expectedBalance"`
	Difference      types.Money    `db:"difference" json:"difference"`
	Deviation       DeviationClass `db:"deviation" json:"deviation,omitempty"`

	OpenedAt time.Time  `db:"opened_at" json:"openedAt"`
	ClosedAt *time.Time `db:"closed_at" json:"closedAt,omitempty"`
}

// IsOpen reports whether the session still accepts movements.
func (s Session) IsOpen() bool {
	return s.Status == SessionOpen
}

// Expected returns opening balance plus running total.
func (s Session) Expected() types.Money {
	return s.OpeningBalance.Add(s.RunningTotal)
}

// Reconcile closes the books: computes expected balance, difference
// (counted minus expected) and the deviation class for the given
// thresholds.
func (s *Session) Reconcile(counted types.Money, p DeviationPolicy) {
	s.CountedBalance = counted
	s.ExpectedBalance = s.Expected()
	s.Difference = counted.Sub(s.ExpectedBalance)
	s.Deviation = p.Classify(s.Difference)
}

// DeviationPolicy holds absolute-difference thresholds for grading a close.
type DeviationPolicy struct {
	WarningAt  types.Money
	CriticalAt types.Money
}

// DefaultDeviationPolicy warns from 1.00 and escalates from 10.00.
func DefaultDeviationPolicy() DeviationPolicy {
	return DeviationPolicy{
		WarningAt:  decimal.NewFromInt(1),
		CriticalAt: decimal.NewFromInt(10),
	}
}

// Classify grades an absolute difference against the thresholds.
func (p DeviationPolicy) Classify(diff types.Money) DeviationClass {
	abs := diff.Abs()
	switch {
	case abs.GreaterThanOrEqual(p.CriticalAt):
		return DeviationCritical
	case abs.GreaterThanOrEqual(p.WarningAt):
		return DeviationWarning
	}
	return DeviationNormal
}
