package lockout_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	rdb "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/nexusweb/go-identity-server/auth/lockout"
)

func TestPolicyLocksAfterMaxAttempts(t *testing.T) {
	policy, err := lockout.NewPolicy(lockout.NewMemoryStore(), 3, 5*time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		nowLocked, err := policy.RecordFailure(ctx, "user-1")
		require.NoError(t, err)
		require.False(t, nowLocked)
	}

	nowLocked, err := policy.RecordFailure(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, nowLocked)

	locked, err := policy.Locked(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, locked)
}

func TestPolicyCountersArePerAccount(t *testing.T) {
	policy, err := lockout.NewPolicy(lockout.NewMemoryStore(), 2, 5*time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = policy.RecordFailure(ctx, "user-1")
	require.NoError(t, err)
	_, err = policy.RecordFailure(ctx, "user-1")
	require.NoError(t, err)

	locked, err := policy.Locked(ctx, "user-2")
	require.NoError(t, err)
	require.False(t, locked)
}

func TestPolicyResetClearsHistory(t *testing.T) {
	policy, err := lockout.NewPolicy(lockout.NewMemoryStore(), 2, 5*time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = policy.RecordFailure(ctx, "user-1")
	require.NoError(t, err)
	require.NoError(t, policy.Reset(ctx, "user-1"))

	nowLocked, err := policy.RecordFailure(ctx, "user-1")
	require.NoError(t, err)
	require.False(t, nowLocked)
}

func TestPolicyRejectsInvalidConfiguration(t *testing.T) {
	_, err := lockout.NewPolicy(nil, 3, time.Minute)
	require.Error(t, err)
	_, err = lockout.NewPolicy(lockout.NewMemoryStore(), 0, time.Minute)
	require.Error(t, err)
	_, err = lockout.NewPolicy(lockout.NewMemoryStore(), 3, 0)
	require.Error(t, err)
}

func TestRedisStoreCountsAndExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	client := rdb.NewClient(&rdb.Options{Addr: mr.Addr()})
	store := lockout.NewRedisStore(client, "lockout:")
	ctx := context.Background()

	count, err := store.Incr(ctx, "user-1", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	count, err = store.Incr(ctx, "user-1", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	count, err = store.Count(ctx, "user-1")
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	// The window expires and the counter vanishes with it.
	mr.FastForward(2 * time.Minute)
	count, err = store.Count(ctx, "user-1")
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestRedisStoreReset(t *testing.T) {
	mr := miniredis.RunT(t)
	client := rdb.NewClient(&rdb.Options{Addr: mr.Addr()})
	store := lockout.NewRedisStore(client, "lockout:")
	ctx := context.Background()

	_, err := store.Incr(ctx, "user-1", time.Minute)
	require.NoError(t, err)
	require.NoError(t, store.Reset(ctx, "user-1"))

	count, err := store.Count(ctx, "user-1")
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestRedisBackedPolicy(t *testing.T) {
	mr := miniredis.RunT(t)
	client := rdb.NewClient(&rdb.Options{Addr: mr.Addr()})
	policy, err := lockout.NewPolicy(lockout.NewRedisStore(client, "lockout:"), 2, time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = policy.RecordFailure(ctx, "user-1")
	require.NoError(t, err)
	nowLocked, err := policy.RecordFailure(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, nowLocked)

	// The cooldown elapses and the account unlocks.
	mr.FastForward(2 * time.Minute)
	locked, err := policy.Locked(ctx, "user-1")
	require.NoError(t, err)
	require.False(t, locked)
}
