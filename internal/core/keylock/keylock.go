// Package keylock serializes ledger operations per aggregate key.
//
// Two concurrent units of work on the same key (same stock bucket, same
// account, same order, same cash session) must never interleave their
// read-validate-write steps; operations on different keys proceed in
// parallel. Acquisition respects the context deadline so a contended key
// fails fast with Timeout instead of hanging.
package keylock

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"tillbook/internal/core/apperror"
)

// KeyLock hands out one weighted(1) semaphore per aggregate key.
type KeyLock struct {
	mu      sync.Mutex
	locks   map[string]*entry
	timeout time.Duration
}

type entry struct {
	sem  *semaphore.Weighted
	refs int
}

// New creates a KeyLock. timeout bounds how long an acquisition may wait;
// zero means only the caller's context limits the wait.
func New(timeout time.Duration) *KeyLock {
	return &KeyLock{
		locks:   make(map[string]*entry),
		timeout: timeout,
	}
}

// Acquire locks the key, waiting until the context deadline or the
// configured timeout, whichever is sooner. On success the returned release
// function must be called exactly once.
func (k *KeyLock) Acquire(ctx context.Context, key string) (release func(), err error) {
	e := k.retain(key)

	if k.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, k.timeout)
		defer cancel()
	}

	if err := e.sem.Acquire(ctx, 1); err != nil {
		k.put(key)
		if ctx.Err() != nil {
			return nil, apperror.NewTimeout(key).WithCause(ctx.Err())
		}
		return nil, apperror.NewInternal(err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			e.sem.Release(1)
			k.put(key)
		})
	}, nil
}

// retain returns the entry for key, creating it on first use.
func (k *KeyLock) retain(key string) *entry {
	k.mu.Lock()
	defer k.mu.Unlock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{sem: semaphore.NewWeighted(1)}
		k.locks[key] = e
	}
	e.refs++
	return e
}

// put drops one reference and frees the entry when nobody holds or waits.
func (k *KeyLock) put(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e, ok := k.locks[key]
	if !ok {
		return
	}
	e.refs--
	if e.refs <= 0 {
		delete(k.locks, key)
	}
}
