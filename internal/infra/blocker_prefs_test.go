package infra

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eliteGoblin/focusd/app_guard/internal/domain"
)

func tempBlockerPrefs(t *testing.T) (*BlockerPrefs, *FilePrefStore) {
	t.Helper()
	kv := NewFilePrefStore(filepath.Join(t.TempDir(), "prefs.json"))
	return NewBlockerPrefs(kv), kv
}

// TestBlockerPrefs_BlockedRoundTrip verifies block and unblock writes
func TestBlockerPrefs_BlockedRoundTrip(t *testing.T) {
	prefs, _ := tempBlockerPrefs(t)
	ctx := context.Background()

	require.NoError(t, prefs.SetBlocked(ctx, "com.example.feed", true))
	require.NoError(t, prefs.SetBlocked(ctx, "com.example.game", true))
	require.NoError(t, prefs.SetBlocked(ctx, "com.example.feed", false))

	blocked, err := prefs.BlockedItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"com.example.game": true}, blocked)
}

// TestBlockerPrefs_SetBlockedIdempotent verifies re-blocking does not
// duplicate the entry
func TestBlockerPrefs_SetBlockedIdempotent(t *testing.T) {
	prefs, kv := tempBlockerPrefs(t)
	ctx := context.Background()

	require.NoError(t, prefs.SetBlocked(ctx, "com.example.feed", true))
	require.NoError(t, prefs.SetBlocked(ctx, "com.example.feed", true))

	values, err := kv.GetStringSet(ctx, "blocked_packages")
	require.NoError(t, err)
	assert.Equal(t, []string{"com.example.feed"}, values)
}

// TestBlockerPrefs_AllowanceRoundTrip verifies allowance set and clear
func TestBlockerPrefs_AllowanceRoundTrip(t *testing.T) {
	prefs, _ := tempBlockerPrefs(t)
	ctx := context.Background()

	require.NoError(t, prefs.SetAllowance(ctx, "com.example.feed", 1717200000000))
	require.NoError(t, prefs.SetAllowance(ctx, "com.example.feed", 1717203600000))

	allowances, err := prefs.Allowances(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"com.example.feed": 1717203600000}, allowances)

	require.NoError(t, prefs.ClearAllowance(ctx, "com.example.feed"))
	allowances, err = prefs.Allowances(ctx)
	require.NoError(t, err)
	assert.Empty(t, allowances)
}

// TestBlockerPrefs_LockRoundTrip verifies lock set, supersede and clear
func TestBlockerPrefs_LockRoundTrip(t *testing.T) {
	prefs, _ := tempBlockerPrefs(t)
	ctx := context.Background()

	lock := domain.ActivationLock{LockUntilMillis: 9000, GraceUntilMillis: 4000}
	require.NoError(t, prefs.SetActivationLock(ctx, "com.example.feed", lock))

	locks, err := prefs.ActivationLocks(ctx)
	require.NoError(t, err)
	assert.Equal(t, lock, locks["com.example.feed"])

	require.NoError(t, prefs.ClearActivationLock(ctx, "com.example.feed"))
	locks, err = prefs.ActivationLocks(ctx)
	require.NoError(t, err)
	assert.Empty(t, locks)
}

// TestBlockerPrefs_LegacyLockEntry verifies pre-grace lock entries decode
// with the implied five-minute grace window
func TestBlockerPrefs_LegacyLockEntry(t *testing.T) {
	prefs, kv := tempBlockerPrefs(t)
	ctx := context.Background()

	require.NoError(t, kv.PutStringSet(ctx, "activation_locks", []string{"com.example.feed|1000000"}))

	locks, err := prefs.ActivationLocks(ctx)
	require.NoError(t, err)
	require.Contains(t, locks, "com.example.feed")
	assert.Equal(t, int64(700000), locks["com.example.feed"].GraceUntilMillis)
}

// TestBlockerPrefs_LastDisabled verifies disable timestamps round-trip
func TestBlockerPrefs_LastDisabled(t *testing.T) {
	prefs, _ := tempBlockerPrefs(t)
	ctx := context.Background()

	require.NoError(t, prefs.SetLastDisabled(ctx, "com.example.feed", 42))

	values, err := prefs.LastDisabled(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(42), values["com.example.feed"])
}

// TestBlockerPrefs_Landing verifies the one-way landing flag
func TestBlockerPrefs_Landing(t *testing.T) {
	prefs, _ := tempBlockerPrefs(t)
	ctx := context.Background()

	done, err := prefs.LandingCompleted(ctx)
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, prefs.MarkLandingCompleted(ctx))
	done, err = prefs.LandingCompleted(ctx)
	require.NoError(t, err)
	assert.True(t, done)
}
