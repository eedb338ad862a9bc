package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_guard/internal/domain"
)

// GraceWindow is the early-exit period after (re-)activation during
// which the user may disable without penalty.
const GraceWindow = 5 * time.Minute

// FreeMaxBlockedItems caps simultaneously blocked items on the free plan.
const FreeMaxBlockedItems = 5

// UnlockState classifies early-unlock eligibility for a blocked item.
type UnlockState int

const (
	// UnlockNoLock means no activation lock exists for the item.
	UnlockNoLock UnlockState = iota
	// UnlockInGraceWindow means the grace window is still open.
	UnlockInGraceWindow
	// UnlockLocked means grace has passed; the toggle stays disabled
	// until the lock record is cleared, even past its lock-until time.
	UnlockLocked
)

// UnlockStatus is the result of an unlock eligibility check.
type UnlockStatus struct {
	State           UnlockState
	LockUntilMillis int64
}

// ToggleEvent is emitted by Toggle for the caller to surface.
type ToggleEvent interface {
	isToggleEvent()
}

// LockEngaged reports that blocking an item engaged an activation lock.
type LockEngaged struct {
	Label           string
	UnlockAtMillis  int64
	DurationMinutes int
}

// ToggleLocked reports that a disable attempt was denied by a lock.
type ToggleLocked struct {
	Label          string
	UnlockAtMillis int64
}

// FreeLimitReached reports that the free-plan blocked-item cap was hit.
type FreeLimitReached struct {
	Limit int
}

func (LockEngaged) isToggleEvent()      {}
func (ToggleLocked) isToggleEvent()     {}
func (FreeLimitReached) isToggleEvent() {}

// Blocklist is the authoritative source of whether an item may be used
// right now and what unlock options exist. All store reads fail open to
// an empty snapshot: a storage fault must never turn into an
// uncontrolled block.
type Blocklist struct {
	store  domain.BlockerStore
	focus  *FocusTracker
	logger *zap.Logger
}

// NewBlocklist creates the lock/allowance registry.
func NewBlocklist(store domain.BlockerStore, focus *FocusTracker, logger *zap.Logger) *Blocklist {
	return &Blocklist{
		store:  store,
		focus:  focus,
		logger: logger,
	}
}

// SetBlocked toggles the persisted blocked flag only; callers
// orchestrate locks and focus bookkeeping around it.
func (b *Blocklist) SetBlocked(ctx context.Context, itemID string, blocked bool) error {
	return b.store.SetBlocked(ctx, itemID, blocked)
}

// Activate writes a fresh activation lock for the item. When grace is
// denied the grace deadline is placed one millisecond in the past so it
// reads as already expired.
func (b *Blocklist) Activate(ctx context.Context, item domain.WatchedItem, now time.Time, graceEligible bool) (domain.ActivationLock, error) {
	nowMillis := now.UnixMilli()
	lock := domain.ActivationLock{
		LockUntilMillis:  nowMillis + int64(item.LockDurationMinutes)*60_000,
		GraceUntilMillis: nowMillis - 1,
	}
	if graceEligible {
		lock.GraceUntilMillis = nowMillis + GraceWindow.Milliseconds()
	}
	if err := b.store.SetActivationLock(ctx, item.ID, lock); err != nil {
		return domain.ActivationLock{}, fmt.Errorf("failed to store activation lock: %w", err)
	}
	return lock, nil
}

// UnlockEligibility evaluates the raw lock record. Once grace has
// passed the result stays Locked regardless of the lock-until time;
// display and admission paths use ActiveLocks instead, which does honor
// lock expiry. The divergence is intentional.
func (b *Blocklist) UnlockEligibility(ctx context.Context, itemID string, now time.Time) UnlockStatus {
	locks := b.rawLocks(ctx)
	lock, ok := locks[itemID]
	if !ok {
		return UnlockStatus{State: UnlockNoLock}
	}
	if now.UnixMilli() <= lock.GraceUntilMillis {
		return UnlockStatus{State: UnlockInGraceWindow, LockUntilMillis: lock.LockUntilMillis}
	}
	return UnlockStatus{State: UnlockLocked, LockUntilMillis: lock.LockUntilMillis}
}

// GrantAllowance grants a time-boxed bypass, superseding any existing
// allowance for the item.
func (b *Blocklist) GrantAllowance(ctx context.Context, itemID string, now time.Time, minutes int) error {
	if minutes <= 0 {
		return fmt.Errorf("allowance minutes must be positive, got %d", minutes)
	}
	allowUntil := now.UnixMilli() + int64(minutes)*60_000
	if err := b.store.SetAllowance(ctx, itemID, allowUntil); err != nil {
		return fmt.Errorf("failed to store allowance: %w", err)
	}
	b.logger.Info("allowance granted",
		zap.String("item", itemID),
		zap.Int("minutes", minutes))
	return nil
}

// ClearAllowance removes the allowance for the item (idempotent).
func (b *Blocklist) ClearAllowance(ctx context.Context, itemID string) error {
	return b.store.ClearAllowance(ctx, itemID)
}

// ClearLock removes the activation lock for the item (idempotent).
func (b *Blocklist) ClearLock(ctx context.Context, itemID string) error {
	return b.store.ClearActivationLock(ctx, itemID)
}

// RecordDisabled stores the blocked->unblocked transition time, used to
// judge grace eligibility on the next activation.
func (b *Blocklist) RecordDisabled(ctx context.Context, itemID string, now time.Time) error {
	return b.store.SetLastDisabled(ctx, itemID, now.UnixMilli())
}

// GraceEligible reports whether the item was disabled within the
// cooldown window preceding re-activation. Rapid toggling outside that
// window cannot refresh the grace window.
func (b *Blocklist) GraceEligible(ctx context.Context, itemID string, now time.Time) bool {
	lastDisabled, err := b.store.LastDisabled(ctx)
	if err != nil {
		b.logger.Warn("failed to read last-disabled timestamps", zap.Error(err))
		return false
	}
	at, ok := lastDisabled[itemID]
	if !ok {
		return false
	}
	return now.UnixMilli()-at <= GraceWindow.Milliseconds()
}

// BlockedItems returns the blocked id set, empty on read failure.
func (b *Blocklist) BlockedItems(ctx context.Context) map[string]bool {
	blocked, err := b.store.BlockedItems(ctx)
	if err != nil {
		b.logger.Warn("failed to read blocked items", zap.Error(err))
		return map[string]bool{}
	}
	return blocked
}

// Allowances returns the raw allowance map, expired entries included.
func (b *Blocklist) Allowances(ctx context.Context) map[string]int64 {
	allowances, err := b.store.Allowances(ctx)
	if err != nil {
		b.logger.Warn("failed to read allowances", zap.Error(err))
		return map[string]int64{}
	}
	return allowances
}

// Locks returns the raw activation-lock map, expired entries included.
func (b *Blocklist) Locks(ctx context.Context) map[string]domain.ActivationLock {
	return b.rawLocks(ctx)
}

// ActiveAllowances returns unexpired allowances. Expired entries are
// filtered from this read and scheduled for deletion in the background;
// the read path never blocks on the write.
func (b *Blocklist) ActiveAllowances(ctx context.Context, now time.Time) map[string]int64 {
	nowMillis := now.UnixMilli()
	active := make(map[string]int64)
	var expired []string
	for id, until := range b.Allowances(ctx) {
		if until > nowMillis {
			active[id] = until
		} else {
			expired = append(expired, id)
		}
	}
	b.sweepAllowances(expired)
	return active
}

// ActiveLocks returns locks whose lock-until time has not passed.
// Expired entries are filtered and swept in the background. Note the
// contrast with UnlockEligibility, which keeps reporting Locked for the
// same expired record until the sweep lands.
func (b *Blocklist) ActiveLocks(ctx context.Context, now time.Time) map[string]domain.ActivationLock {
	nowMillis := now.UnixMilli()
	active := make(map[string]domain.ActivationLock)
	var expired []string
	for id, lock := range b.rawLocks(ctx) {
		if lock.LockUntilMillis > nowMillis {
			active[id] = lock
		} else {
			expired = append(expired, id)
		}
	}
	b.sweepLocks(expired)
	return active
}

// Toggle orchestrates a user block/unblock request. Enabling engages an
// activation lock and breaks the focus streak; disabling is denied once
// the grace window has passed. The returned event is nil when the
// toggle simply succeeded without anything to surface.
func (b *Blocklist) Toggle(ctx context.Context, item domain.WatchedItem, shouldBlock bool, now time.Time) (ToggleEvent, error) {
	if shouldBlock {
		blocked := b.BlockedItems(ctx)
		if !blocked[item.ID] && len(blocked) >= FreeMaxBlockedItems {
			return FreeLimitReached{Limit: FreeMaxBlockedItems}, nil
		}
		graceEligible := b.GraceEligible(ctx, item.ID, now)
		if err := b.store.SetBlocked(ctx, item.ID, true); err != nil {
			return nil, fmt.Errorf("failed to set blocked: %w", err)
		}
		lock, err := b.Activate(ctx, item, now, graceEligible)
		if err != nil {
			return nil, err
		}
		if err := b.focus.MarkBlocked(ctx, now); err != nil {
			b.logger.Warn("failed to reset focus streak", zap.Error(err))
		}
		b.logger.Info("item blocked",
			zap.String("item", item.ID),
			zap.Int("lock_minutes", item.LockDurationMinutes),
			zap.Bool("grace", graceEligible))
		return LockEngaged{
			Label:           item.Label,
			UnlockAtMillis:  lock.LockUntilMillis,
			DurationMinutes: item.LockDurationMinutes,
		}, nil
	}

	status := b.UnlockEligibility(ctx, item.ID, now)
	if status.State == UnlockLocked {
		return ToggleLocked{Label: item.Label, UnlockAtMillis: status.LockUntilMillis}, nil
	}
	if err := b.store.ClearActivationLock(ctx, item.ID); err != nil {
		return nil, fmt.Errorf("failed to clear activation lock: %w", err)
	}
	if err := b.store.SetBlocked(ctx, item.ID, false); err != nil {
		return nil, fmt.Errorf("failed to set unblocked: %w", err)
	}
	if err := b.RecordDisabled(ctx, item.ID, now); err != nil {
		b.logger.Warn("failed to record disable time", zap.Error(err))
	}
	if err := b.focus.RecordActivity(ctx, now); err != nil {
		b.logger.Warn("failed to record activity", zap.Error(err))
	}
	b.logger.Info("item unblocked", zap.String("item", item.ID))
	return nil, nil
}

func (b *Blocklist) rawLocks(ctx context.Context) map[string]domain.ActivationLock {
	locks, err := b.store.ActivationLocks(ctx)
	if err != nil {
		b.logger.Warn("failed to read activation locks", zap.Error(err))
		return map[string]domain.ActivationLock{}
	}
	return locks
}

// sweepAllowances deletes expired allowance entries, fire-and-forget.
func (b *Blocklist) sweepAllowances(itemIDs []string) {
	if len(itemIDs) == 0 {
		return
	}
	go func() {
		ctx := context.Background()
		for _, id := range itemIDs {
			if err := b.store.ClearAllowance(ctx, id); err != nil {
				b.logger.Warn("failed to sweep expired allowance",
					zap.String("item", id), zap.Error(err))
			}
		}
	}()
}

// sweepLocks deletes expired lock entries, fire-and-forget.
func (b *Blocklist) sweepLocks(itemIDs []string) {
	if len(itemIDs) == 0 {
		return
	}
	go func() {
		ctx := context.Background()
		for _, id := range itemIDs {
			if err := b.store.ClearActivationLock(ctx, id); err != nil {
				b.logger.Warn("failed to sweep expired lock",
					zap.String("item", id), zap.Error(err))
			}
		}
	}()
}
