package infra

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eliteGoblin/focusd/app_guard/internal/domain"
)

// TestDecodeTimestampEntries verifies delimited parsing and malformed drops
func TestDecodeTimestampEntries(t *testing.T) {
	entries := []string{
		"com.example.feed|1717200000000",
		"com.example.game|1717203600000",
		"noDelimiter",
		"too|many|fields",
		"com.example.bad|notanumber",
	}

	out := decodeTimestampEntries(entries)

	require.Len(t, out, 2)
	assert.Equal(t, int64(1717200000000), out["com.example.feed"])
	assert.Equal(t, int64(1717203600000), out["com.example.game"])
}

// TestEncodeTimestampEntries verifies deterministic sorted output
func TestEncodeTimestampEntries(t *testing.T) {
	entries := encodeTimestampEntries(map[string]int64{
		"b.app": 200,
		"a.app": 100,
	})

	assert.Equal(t, []string{"a.app|100", "b.app|200"}, entries)
}

// TestDecodeLockEntries_LegacyTwoField verifies the implied grace deadline
// of expiry minus five minutes
func TestDecodeLockEntries_LegacyTwoField(t *testing.T) {
	out := decodeLockEntries([]string{"com.example.feed|1000000"})

	require.Contains(t, out, "com.example.feed")
	lock := out["com.example.feed"]
	assert.Equal(t, int64(1000000), lock.LockUntilMillis)
	assert.Equal(t, int64(700000), lock.GraceUntilMillis)
}

// TestDecodeLockEntries_ThreeField verifies explicit grace deadlines decode
// as stored
func TestDecodeLockEntries_ThreeField(t *testing.T) {
	out := decodeLockEntries([]string{"com.example.feed|1000000|999"})

	require.Contains(t, out, "com.example.feed")
	lock := out["com.example.feed"]
	assert.Equal(t, int64(1000000), lock.LockUntilMillis)
	assert.Equal(t, int64(999), lock.GraceUntilMillis)
}

// TestDecodeLockEntries_Malformed verifies bad entries are dropped silently
func TestDecodeLockEntries_Malformed(t *testing.T) {
	out := decodeLockEntries([]string{
		"bare",
		"a|x",
		"b|100|x",
		"c|1|2|3",
	})

	assert.Empty(t, out)
}

// TestLockEntriesRoundTrip verifies encode then decode preserves locks
func TestLockEntriesRoundTrip(t *testing.T) {
	locks := map[string]domain.ActivationLock{
		"com.example.feed": {LockUntilMillis: 5000, GraceUntilMillis: 4000},
		"com.example.game": {LockUntilMillis: 9000, GraceUntilMillis: -1},
	}

	decoded := decodeLockEntries(encodeLockEntries(locks))

	assert.Equal(t, locks, decoded)
}

// TestRemoveEntriesFor verifies only the target item's entries are dropped
func TestRemoveEntriesFor(t *testing.T) {
	entries := []string{
		"com.example.feed|100",
		"com.example.feeder|200",
		"com.example.feed|300|400",
	}

	out := removeEntriesFor(entries, "com.example.feed")

	assert.Equal(t, []string{"com.example.feeder|200"}, out)
}
