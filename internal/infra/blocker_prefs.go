package infra

import (
	"context"
	"fmt"
	"sync"

	"github.com/eliteGoblin/focusd/app_guard/internal/domain"
)

const (
	keyBlockedItems     = "blocked_packages"
	keyTempAllowances   = "temporary_allowances"
	keyActivationLocks  = "activation_locks"
	keyLastDisabled     = "last_disabled_timestamps"
	keyLandingCompleted = "landing_completed"
)

// BlockerPrefs implements domain.BlockerStore over a KVStore using the
// delimited-entry encodings. Read-modify-write cycles on the underlying
// string sets serialize on one mutex; there is a single process writing
// these keys.
type BlockerPrefs struct {
	mu sync.Mutex
	kv domain.KVStore
}

// NewBlockerPrefs creates the typed adapter.
func NewBlockerPrefs(kv domain.KVStore) *BlockerPrefs {
	return &BlockerPrefs{kv: kv}
}

func (p *BlockerPrefs) BlockedItems(ctx context.Context) (map[string]bool, error) {
	values, err := p.kv.GetStringSet(ctx, keyBlockedItems)
	if err != nil {
		return nil, err
	}
	blocked := make(map[string]bool, len(values))
	for _, id := range values {
		blocked[id] = true
	}
	return blocked, nil
}

func (p *BlockerPrefs) SetBlocked(ctx context.Context, itemID string, blocked bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	values, err := p.kv.GetStringSet(ctx, keyBlockedItems)
	if err != nil {
		return fmt.Errorf("failed to read blocked set: %w", err)
	}
	out := make([]string, 0, len(values)+1)
	for _, id := range values {
		if id != itemID {
			out = append(out, id)
		}
	}
	if blocked {
		out = append(out, itemID)
	}
	return p.kv.PutStringSet(ctx, keyBlockedItems, out)
}

func (p *BlockerPrefs) Allowances(ctx context.Context) (map[string]int64, error) {
	entries, err := p.kv.GetStringSet(ctx, keyTempAllowances)
	if err != nil {
		return nil, err
	}
	return decodeTimestampEntries(entries), nil
}

func (p *BlockerPrefs) SetAllowance(ctx context.Context, itemID string, allowUntilMillis int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	entries, err := p.kv.GetStringSet(ctx, keyTempAllowances)
	if err != nil {
		return fmt.Errorf("failed to read allowances: %w", err)
	}
	entries = removeEntriesFor(entries, itemID)
	entries = append(entries, fmt.Sprintf("%s|%d", itemID, allowUntilMillis))
	return p.kv.PutStringSet(ctx, keyTempAllowances, entries)
}

func (p *BlockerPrefs) ClearAllowance(ctx context.Context, itemID string) error {
	return p.removeFromSet(ctx, keyTempAllowances, itemID)
}

func (p *BlockerPrefs) ActivationLocks(ctx context.Context) (map[string]domain.ActivationLock, error) {
	entries, err := p.kv.GetStringSet(ctx, keyActivationLocks)
	if err != nil {
		return nil, err
	}
	return decodeLockEntries(entries), nil
}

func (p *BlockerPrefs) SetActivationLock(ctx context.Context, itemID string, lock domain.ActivationLock) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	entries, err := p.kv.GetStringSet(ctx, keyActivationLocks)
	if err != nil {
		return fmt.Errorf("failed to read activation locks: %w", err)
	}
	entries = removeEntriesFor(entries, itemID)
	entries = append(entries, fmt.Sprintf("%s|%d|%d", itemID, lock.LockUntilMillis, lock.GraceUntilMillis))
	return p.kv.PutStringSet(ctx, keyActivationLocks, entries)
}

func (p *BlockerPrefs) ClearActivationLock(ctx context.Context, itemID string) error {
	return p.removeFromSet(ctx, keyActivationLocks, itemID)
}

func (p *BlockerPrefs) LastDisabled(ctx context.Context) (map[string]int64, error) {
	entries, err := p.kv.GetStringSet(ctx, keyLastDisabled)
	if err != nil {
		return nil, err
	}
	return decodeTimestampEntries(entries), nil
}

func (p *BlockerPrefs) SetLastDisabled(ctx context.Context, itemID string, atMillis int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	entries, err := p.kv.GetStringSet(ctx, keyLastDisabled)
	if err != nil {
		return fmt.Errorf("failed to read last-disabled timestamps: %w", err)
	}
	entries = removeEntriesFor(entries, itemID)
	entries = append(entries, fmt.Sprintf("%s|%d", itemID, atMillis))
	return p.kv.PutStringSet(ctx, keyLastDisabled, entries)
}

func (p *BlockerPrefs) LandingCompleted(ctx context.Context) (bool, error) {
	return p.kv.GetBool(ctx, keyLandingCompleted)
}

func (p *BlockerPrefs) MarkLandingCompleted(ctx context.Context) error {
	return p.kv.PutBool(ctx, keyLandingCompleted, true)
}

func (p *BlockerPrefs) removeFromSet(ctx context.Context, key, itemID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	entries, err := p.kv.GetStringSet(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	return p.kv.PutStringSet(ctx, key, removeEntriesFor(entries, itemID))
}

// Ensure BlockerPrefs implements domain.BlockerStore.
var _ domain.BlockerStore = (*BlockerPrefs)(nil)
