package keylock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillbook/internal/core/apperror"
)

func TestAcquire_SerializesSameKey(t *testing.T) {
	k := New(0)
	ctx := context.Background()

	var mu sync.Mutex
	var active, maxActive int

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := k.Acquire(ctx, "stock:bucket-1")
			require.NoError(t, err)
			defer release()

			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxActive, "holders of the same key must never overlap")
}

func TestAcquire_DifferentKeysRunInParallel(t *testing.T) {
	k := New(0)
	ctx := context.Background()

	releaseA, err := k.Acquire(ctx, "account:a")
	require.NoError(t, err)
	defer releaseA()

	// A second key must not wait behind the first.
	done := make(chan struct{})
	go func() {
		releaseB, err := k.Acquire(ctx, "account:b")
		assert.NoError(t, err)
		releaseB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("acquisition of an uncontended key blocked")
	}
}

func TestAcquire_TimesOutOnContendedKey(t *testing.T) {
	k := New(50 * time.Millisecond)
	ctx := context.Background()

	release, err := k.Acquire(ctx, "order:1")
	require.NoError(t, err)
	defer release()

	_, err = k.Acquire(ctx, "order:1")
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeTimeout))
	assert.True(t, apperror.IsRetryable(err))
}

func TestAcquire_RespectsContextCancellation(t *testing.T) {
	k := New(0)

	release, err := k.Acquire(context.Background(), "order:1")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = k.Acquire(ctx, "order:1")
	assert.True(t, apperror.Is(err, apperror.CodeTimeout))
}

func TestRelease_IsIdempotent(t *testing.T) {
	k := New(0)
	ctx := context.Background()

	release, err := k.Acquire(ctx, "x")
	require.NoError(t, err)
	release()
	release() // second call must be a no-op

	again, err := k.Acquire(ctx, "x")
	require.NoError(t, err)
	again()
}

func TestEntries_FreedWhenUnused(t *testing.T) {
	k := New(0)
	ctx := context.Background()

	release, err := k.Acquire(ctx, "x")
	require.NoError(t, err)
	release()

	k.mu.Lock()
	defer k.mu.Unlock()
	assert.Empty(t, k.locks, "released keys must not leak entries")
}
