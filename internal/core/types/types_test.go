package types

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		in   string
		want Quantity
	}{
		{"0", 0},
		{"1", 10_000},
		{"-1", -10_000},
		{"+2.5", 25_000},
		{"3.1415", 31_415},
		{"0.0001", 1},
		{"10.12345", 101_234}, // extra digits truncate
		{"  7 ", 70_000},
		{".5", 5_000},
	}
	for _, tt := range tests {
		got, err := ParseQuantity(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseQuantity_Rejects(t *testing.T) {
	for _, in := range []string{"", "1e4", "1E4", "abc", "1.2.3"} {
		_, err := ParseQuantity(in)
		assert.Error(t, err, in)
	}
}

func TestQuantity_String(t *testing.T) {
	assert.Equal(t, "2.5000", NewQuantityFromInt64Scaled(25_000).String())
	assert.Equal(t, "-2.5000", NewQuantityFromInt64Scaled(-25_000).String())
	assert.Equal(t, "0.0000", Quantity(0).String())
	assert.Equal(t, "0.0001", Quantity(1).String())
	assert.Equal(t, "-0.0001", Quantity(-1).String())
}

func TestQuantity_JSONRoundTrip(t *testing.T) {
	q := NewQuantityFromInt64Scaled(31_415)

	data, err := json.Marshal(q)
	require.NoError(t, err)
	assert.Equal(t, "3.1415", string(data), "must serialize as a plain number")

	var back Quantity
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, q, back)

	// String form is accepted too.
	require.NoError(t, json.Unmarshal([]byte(`"12.5"`), &back))
	assert.Equal(t, NewQuantityFromInt(12)+Quantity(5_000), back)

	require.NoError(t, json.Unmarshal([]byte(`null`), &back))
	assert.True(t, back.IsZero())
}

func TestQuantity_ExactArithmetic(t *testing.T) {
	// 0.1 + 0.2 == 0.3 exactly; this is the whole point of the fixed-point
	// representation.
	a, err := ParseQuantity("0.1")
	require.NoError(t, err)
	b, err := ParseQuantity("0.2")
	require.NoError(t, err)
	c, err := ParseQuantity("0.3")
	require.NoError(t, err)
	assert.Equal(t, c, a+b)
}

func TestQuantity_Decimal(t *testing.T) {
	q := NewQuantityFromInt64Scaled(25_000)
	assert.True(t, q.Decimal().Equal(decimal.RequireFromString("2.5")))
}

func TestMoneyConstructors(t *testing.T) {
	m, err := NewMoneyFromString("19.99")
	require.NoError(t, err)
	assert.True(t, m.Equal(MustMoney("19.99")))
	assert.True(t, ZeroMoney().IsZero())

	assert.Panics(t, func() { MustMoney("not-a-number") })
}
