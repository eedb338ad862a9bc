package infra

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestEncStore creates an encrypted store in a temp directory.
func newTestEncStore(t *testing.T) (*EncryptedPrefStore, []byte, string) {
	t.Helper()
	dataDir := t.TempDir()
	key, err := GenerateKey()
	require.NoError(t, err)

	store, err := NewEncryptedPrefStore(dataDir, key)
	require.NoError(t, err)

	t.Cleanup(func() { store.Close() })
	return store, key, dataDir
}

// TestEncryptedPrefStore_RoundTrip verifies values survive write and re-read
func TestEncryptedPrefStore_RoundTrip(t *testing.T) {
	store, _, _ := newTestEncStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutStringSet(ctx, "blocked_packages", []string{"a", "b"}))
	require.NoError(t, store.PutBool(ctx, "landing_completed", true))
	require.NoError(t, store.PutInt64(ctx, "credit_total_seconds", 4321))

	set, err := store.GetStringSet(ctx, "blocked_packages")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, set)

	flag, err := store.GetBool(ctx, "landing_completed")
	require.NoError(t, err)
	assert.True(t, flag)

	n, err := store.GetInt64(ctx, "credit_total_seconds")
	require.NoError(t, err)
	assert.Equal(t, int64(4321), n)
}

// TestEncryptedPrefStore_MissingKeyReadsZero verifies absent keys return
// zero values without error
func TestEncryptedPrefStore_MissingKeyReadsZero(t *testing.T) {
	store, _, _ := newTestEncStore(t)
	ctx := context.Background()

	set, err := store.GetStringSet(ctx, "never_written")
	require.NoError(t, err)
	assert.Empty(t, set)

	flag, err := store.GetBool(ctx, "never_written")
	require.NoError(t, err)
	assert.False(t, flag)
}

// TestEncryptedPrefStore_ReopenWithSameKey verifies persistence across opens
func TestEncryptedPrefStore_ReopenWithSameKey(t *testing.T) {
	store, key, dataDir := newTestEncStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutInt64(ctx, "credit_total_seconds", 99))
	require.NoError(t, store.Close())

	reopened, err := NewEncryptedPrefStore(dataDir, key)
	require.NoError(t, err)
	defer reopened.Close()

	n, err := reopened.GetInt64(ctx, "credit_total_seconds")
	require.NoError(t, err)
	assert.Equal(t, int64(99), n)
}

// TestEncryptedPrefStore_FileIsNotPlaintext verifies stored values are not
// readable from the raw database file
func TestEncryptedPrefStore_FileIsNotPlaintext(t *testing.T) {
	store, _, dataDir := newTestEncStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutStringSet(ctx, "blocked_packages", []string{"com.example.secretapp"}))
	require.NoError(t, store.Close())

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secretapp")
	assert.NotEmpty(t, dataDir)
}

// TestEncryptedPrefStore_WrongKeyFails verifies a bad key cannot open the
// database
func TestEncryptedPrefStore_WrongKeyFails(t *testing.T) {
	store, _, dataDir := newTestEncStore(t)
	require.NoError(t, store.PutInt64(context.Background(), "credit_total_seconds", 1))
	require.NoError(t, store.Close())

	wrongKey, err := GenerateKey()
	require.NoError(t, err)

	reopened, err := NewEncryptedPrefStore(dataDir, wrongKey)
	if err == nil {
		defer reopened.Close()
		_, err = reopened.GetInt64(context.Background(), "credit_total_seconds")
	}
	assert.Error(t, err)
}
