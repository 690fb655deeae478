package numerator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates the sys_sequences upsert: every call bumps the
// stored value by the increment argument (1 for strict).
type mockQuerier struct {
	mu           sync.Mutex
	currentValue int64
	calls        int
}

func (m *mockQuerier) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	var increment int64 = 1
	if len(args) == 2 {
		if val, ok := args[1].(int64); ok {
			increment = val
		}
	}

	m.currentValue += increment
	m.calls++
	return &mockRow{val: m.currentValue}
}

var testPeriod = time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)

func TestGetNextNumber_Strict(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := DefaultConfig("TEST")

	num, err := svc.GetNextNumber(ctx, cfg, nil, testPeriod)
	require.NoError(t, err)
	assert.Equal(t, "TEST-2026-00001", num)

	num, err = svc.GetNextNumber(ctx, cfg, nil, testPeriod)
	require.NoError(t, err)
	assert.Equal(t, "TEST-2026-00002", num)

	// Strict hits the database on every call.
	assert.Equal(t, 2, q.calls)
}

func TestGetNextNumber_Cached(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := DefaultConfig("ORD")

	opts := &Options{Strategy: StrategyCached, RangeSize: 10}

	// First call reserves the range (1..10]: one DB round trip.
	num, err := svc.GetNextNumber(ctx, cfg, opts, testPeriod)
	require.NoError(t, err)
	assert.Equal(t, "ORD-2026-00001", num)
	assert.EqualValues(t, 10, q.currentValue)
	assert.Equal(t, 1, q.calls)

	// Subsequent calls serve from memory.
	num, err = svc.GetNextNumber(ctx, cfg, opts, testPeriod)
	require.NoError(t, err)
	assert.Equal(t, "ORD-2026-00002", num)
	assert.Equal(t, 1, q.calls)

	// Exhaust the range; the next call reserves (10..20].
	for i := 0; i < 8; i++ {
		_, err = svc.GetNextNumber(ctx, cfg, opts, testPeriod)
		require.NoError(t, err)
	}
	num, err = svc.GetNextNumber(ctx, cfg, opts, testPeriod)
	require.NoError(t, err)
	assert.Equal(t, "ORD-2026-00011", num)
	assert.EqualValues(t, 20, q.currentValue)
	assert.Equal(t, 2, q.calls)
}

func TestSetNextNumber_InvalidatesCache(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := DefaultConfig("INV")
	opts := &Options{Strategy: StrategyCached, RangeSize: 10}

	_, err := svc.GetNextNumber(ctx, cfg, opts, testPeriod)
	require.NoError(t, err)

	require.NoError(t, svc.SetNextNumber(ctx, cfg, testPeriod, 100))

	// The cached range must be gone: the next call goes back to the DB.
	callsBefore := q.calls
	_, err = svc.GetNextNumber(ctx, cfg, opts, testPeriod)
	require.NoError(t, err)
	assert.Equal(t, callsBefore+1, q.calls)
}

func TestBuildKey_ResetPeriods(t *testing.T) {
	period := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "A_2026", buildKey(Config{Prefix: "A", ResetPeriod: "year"}, period))
	assert.Equal(t, "A_2026_08", buildKey(Config{Prefix: "A", ResetPeriod: "month"}, period))
	assert.Equal(t, "A", buildKey(Config{Prefix: "A", ResetPeriod: "never"}, period))
}

func TestFormatAndParseNumber(t *testing.T) {
	cfg := DefaultConfig("SES")
	formatted := formatNumber(cfg, testPeriod, 42)
	assert.Equal(t, "SES-2026-00042", formatted)
	assert.EqualValues(t, 42, ParseNumber(formatted))

	noYear := formatNumber(Config{Prefix: "X", PadWidth: 3}, testPeriod, 7)
	assert.Equal(t, "X-007", noYear)
	assert.EqualValues(t, 7, ParseNumber(noYear))

	assert.EqualValues(t, -1, ParseNumber("garbage"))
	assert.EqualValues(t, -1, ParseNumber("SES-"))
	assert.EqualValues(t, -1, ParseNumber("SES-2026-abc"))
}
