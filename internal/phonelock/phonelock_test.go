package phonelock

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestAcquireThenAcquireAgainFails(t *testing.T) {
	locker := New(setupTestRedis(t))
	ctx := context.Background()

	_, ok, err := locker.Acquire(ctx, "+15551234567")
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = locker.Acquire(ctx, "+15551234567")
	require.NoError(t, err)
	require.False(t, ok, "expected second acquire for the same number to fail while the first lock is held")
}

func TestDifferentPhonesDoNotContend(t *testing.T) {
	locker := New(setupTestRedis(t))
	ctx := context.Background()

	_, ok, err := locker.Acquire(ctx, "+15551234567")
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = locker.Acquire(ctx, "+15559876543")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestReleaseAllowsReacquire(t *testing.T) {
	locker := New(setupTestRedis(t))
	ctx := context.Background()

	handle, ok, err := locker.Acquire(ctx, "+15551234567")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, locker.Release(ctx, handle))

	_, ok, err = locker.Acquire(ctx, "+15551234567")
	require.NoError(t, err)
	require.True(t, ok, "expected reacquire to succeed after release")
}

func TestReleaseIsANoOpForAStaleHandle(t *testing.T) {
	locker := New(setupTestRedis(t))
	ctx := context.Background()

	first, ok, err := locker.Acquire(ctx, "+15551234567")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, locker.Release(ctx, first))

	second, ok, err := locker.Acquire(ctx, "+15551234567")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, locker.Release(ctx, first))

	_, ok, err = locker.Acquire(ctx, "+15551234567")
	require.NoError(t, err)
	require.False(t, ok, "a stale release must not clear a newer caller's lock")

	require.NoError(t, locker.Release(ctx, second))
}

func TestNilRedisClientDegradesToNoOpLock(t *testing.T) {
	locker := New(nil)
	ctx := context.Background()

	handle, ok, err := locker.Acquire(ctx, "+15551234567")
	require.NoError(t, err)
	require.True(t, ok)

	handle2, ok, err := locker.Acquire(ctx, "+15551234567")
	require.NoError(t, err)
	require.True(t, ok, "a nil-backed lock never contends")

	require.NoError(t, locker.Release(ctx, handle))
	require.NoError(t, locker.Release(ctx, handle2))
}

func TestNilLockerIsSafeToUse(t *testing.T) {
	var locker *Locker
	ctx := context.Background()

	_, ok, err := locker.Acquire(ctx, "+15551234567")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, locker.Release(ctx, Handle{}))
}
