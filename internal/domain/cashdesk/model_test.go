package cashdesk

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"tillbook/internal/core/types"
)

func money(v string) types.Money {
	return decimal.RequireFromString(v)
}

func TestMovement_SignedAmount(t *testing.T) {
	tests := []struct {
		name string
		m    Movement
		want string
	}{
		{"sale adds", Movement{Type: MovementSale, Amount: money("10")}, "10"},
		{"payment adds", Movement{Type: MovementPayment, Amount: money("25.50")}, "25.50"},
		{"expense takes", Movement{Type: MovementExpense, Amount: money("7")}, "-7"},
		{"adjustment up", Movement{Type: MovementAdjustment, AdjustDirection: AdjustIncrease, Amount: money("3")}, "3"},
		{"adjustment down", Movement{Type: MovementAdjustment, AdjustDirection: AdjustDecrease, Amount: money("3")}, "-3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.m.SignedAmount().Equal(money(tt.want)))
		})
	}
}

func TestDeviationPolicy_Classify(t *testing.T) {
	p := DefaultDeviationPolicy()

	tests := []struct {
		diff string
		want DeviationClass
	}{
		{"0", DeviationNormal},
		{"0.99", DeviationNormal},
		{"-0.99", DeviationNormal},
		{"1", DeviationWarning},
		{"-1", DeviationWarning},
		{"9.99", DeviationWarning},
		{"10", DeviationCritical},
		{"-250", DeviationCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.Classify(money(tt.diff)), "diff %s", tt.diff)
	}
}

func TestSession_Reconcile(t *testing.T) {
	s := Session{
		Status:         SessionOpen,
		OpeningBalance: money("100"),
		RunningTotal:   money("320"),
	}

	s.Reconcile(money("415"), DefaultDeviationPolicy())

	assert.True(t, s.ExpectedBalance.Equal(money("420")))
	assert.True(t, s.Difference.Equal(money("-5")))
	assert.Equal(t, DeviationWarning, s.Deviation)
}
