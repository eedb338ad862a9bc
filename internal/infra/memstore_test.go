package infra

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eliteGoblin/focusd/app_guard/internal/domain"
)

// TestMemLedger_BalanceSurvivesRestart verifies the write-through balance
// seeds the next instance while the transaction log stays in memory
func TestMemLedger_BalanceSurvivesRestart(t *testing.T) {
	kv := NewFilePrefStore(filepath.Join(t.TempDir(), "prefs.json"))
	ctx := context.Background()

	first := NewMemLedger(ctx, kv)
	updated := domain.CreditLedger{
		TotalSeconds: 900,
		Transactions: []domain.CreditTransaction{{ID: "a", Type: domain.TxnEarn, Seconds: 900}},
	}
	require.NoError(t, first.SetLedger(ctx, updated))

	second := NewMemLedger(ctx, kv)
	ledger, err := second.Ledger(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(900), ledger.TotalSeconds)
	assert.Empty(t, ledger.Transactions)
}

// TestMemIntercepts_BoundedMostRecentFirst verifies eviction order
func TestMemIntercepts_BoundedMostRecentFirst(t *testing.T) {
	store := NewMemIntercepts(3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		err := store.Record(ctx, domain.InterceptEvent{
			Context: domain.InterceptContext{
				Item: domain.WatchedItem{ID: "app-" + strconv.Itoa(i)},
			},
		})
		require.NoError(t, err)
	}

	events, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "app-4", events[0].Context.Item.ID)
	assert.Equal(t, "app-2", events[2].Context.Item.ID)
}

// TestMemSessions_UpsertReplaces verifies updating an existing session id
func TestMemSessions_UpsertReplaces(t *testing.T) {
	store := NewMemSessions()
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, domain.FocusSession{ID: "fs-1", CompletedMinutes: 5}))
	require.NoError(t, store.Upsert(ctx, domain.FocusSession{ID: "fs-1", CompletedMinutes: 10}))

	sessions, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, 10, sessions[0].CompletedMinutes)
}
