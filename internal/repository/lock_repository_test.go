package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBulkLockerFallsBackToLocal(t *testing.T) {
	_, ok := NewBulkLocker(nil).(*LocalLocker)
	assert.True(t, ok)
}

func TestLocalLockerExcludesSecondHolder(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	token, ok, err := locker.Acquire(ctx, "bulk", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEmpty(t, token)

	_, ok, err = locker.Acquire(ctx, "bulk", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, locker.Release(ctx, "bulk", "someone-else"))
	_, ok, _ = locker.Acquire(ctx, "bulk", time.Minute)
	assert.False(t, ok, "foreign token must not release the lease")

	require.NoError(t, locker.Release(ctx, "bulk", token))
	_, ok, _ = locker.Acquire(ctx, "bulk", time.Minute)
	assert.True(t, ok)
}

func TestLocalLockerLeaseExpires(t *testing.T) {
	locker := NewLocalLocker()
	current := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	locker.now = func() time.Time { return current }

	_, ok, err := locker.Acquire(context.Background(), "bulk", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	current = current.Add(2 * time.Minute)
	_, ok, err = locker.Acquire(context.Background(), "bulk", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLocalLockerExtendKeepsLeaseAlive(t *testing.T) {
	locker := NewLocalLocker()
	current := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	locker.now = func() time.Time { return current }
	ctx := context.Background()

	token, ok, err := locker.Acquire(ctx, "bulk", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	current = current.Add(50 * time.Second)
	ok, err = locker.Extend(ctx, "bulk", token, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = locker.Extend(ctx, "bulk", "someone-else", time.Minute)
	assert.False(t, ok, "foreign token must not extend the lease")

	current = current.Add(50 * time.Second)
	_, ok, _ = locker.Acquire(ctx, "bulk", time.Minute)
	assert.False(t, ok, "extended lease still held past the original expiry")

	current = current.Add(2 * time.Minute)
	ok, err = locker.Extend(ctx, "bulk", token, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "expired lease cannot be revived")
}

func TestLocalLockerConcurrentAcquire(t *testing.T) {
	locker := NewLocalLocker()
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := locker.Acquire(context.Background(), "bulk", time.Minute)
			if err == nil && ok {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, winners)
}

func TestLocalLockerHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok, err := NewLocalLocker().Acquire(ctx, "bulk", time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ok)
}
