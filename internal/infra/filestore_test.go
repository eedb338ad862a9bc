package infra

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempStore(t *testing.T) *FilePrefStore {
	t.Helper()
	return NewFilePrefStore(filepath.Join(t.TempDir(), "prefs.json"))
}

// TestFilePrefStore_MissingFileReadsZero verifies reads before any write
// return zero values without error
func TestFilePrefStore_MissingFileReadsZero(t *testing.T) {
	store := tempStore(t)
	ctx := context.Background()

	set, err := store.GetStringSet(ctx, "blocked_packages")
	require.NoError(t, err)
	assert.Empty(t, set)

	flag, err := store.GetBool(ctx, "landing_completed")
	require.NoError(t, err)
	assert.False(t, flag)

	n, err := store.GetInt64(ctx, "credit_total_seconds")
	require.NoError(t, err)
	assert.Zero(t, n)
}

// TestFilePrefStore_RoundTrip verifies values survive write and re-read
func TestFilePrefStore_RoundTrip(t *testing.T) {
	store := tempStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutStringSet(ctx, "blocked_packages", []string{"a", "b"}))
	require.NoError(t, store.PutBool(ctx, "landing_completed", true))
	require.NoError(t, store.PutInt64(ctx, "credit_total_seconds", 1234))

	set, err := store.GetStringSet(ctx, "blocked_packages")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, set)

	flag, err := store.GetBool(ctx, "landing_completed")
	require.NoError(t, err)
	assert.True(t, flag)

	n, err := store.GetInt64(ctx, "credit_total_seconds")
	require.NoError(t, err)
	assert.Equal(t, int64(1234), n)
}

// TestFilePrefStore_ReopenedStoreSeesData verifies persistence across
// store instances
func TestFilePrefStore_ReopenedStoreSeesData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	ctx := context.Background()

	first := NewFilePrefStore(path)
	require.NoError(t, first.PutStringSet(ctx, "blocked_packages", []string{"a"}))

	second := NewFilePrefStore(path)
	set, err := second.GetStringSet(ctx, "blocked_packages")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, set)
}

// TestFilePrefStore_UpdatePreservesOtherKeys verifies read-modify-write
// does not clobber unrelated keys
func TestFilePrefStore_UpdatePreservesOtherKeys(t *testing.T) {
	store := tempStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutStringSet(ctx, "temporary_allowances", []string{"x|1"}))
	require.NoError(t, store.PutInt64(ctx, "credit_total_seconds", 7))
	require.NoError(t, store.PutStringSet(ctx, "temporary_allowances", []string{"x|2"}))

	n, err := store.GetInt64(ctx, "credit_total_seconds")
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}

// TestFilePrefStore_CorruptFileErrors verifies corrupted JSON surfaces as
// an error rather than silent data loss
func TestFilePrefStore_CorruptFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	store := NewFilePrefStore(path)

	_, err := store.GetStringSet(context.Background(), "blocked_packages")
	assert.Error(t, err)
}

// TestFilePrefStore_ChangesNotifies verifies a write is observable on the
// change channel
func TestFilePrefStore_ChangesNotifies(t *testing.T) {
	store := tempStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, store.PutBool(ctx, "landing_completed", true))

	changes, err := store.Changes(ctx)
	require.NoError(t, err)

	// The initial notification covers state present before the watch.
	<-changes
}
