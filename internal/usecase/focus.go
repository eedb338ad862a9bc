package usecase

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_guard/internal/domain"
)

const (
	focusGoalMillis   int64 = 60 * 60 * 1000
	rewardSeconds     int64 = 5 * 60
	focusEarnedSource       = "focus_goal"
)

// FocusTracker converts activity/blocked observations into accumulated
// focus time and credit grants. Both entry points are the sole writers
// of the focus state and serialize on one mutex.
type FocusTracker struct {
	mu      sync.Mutex
	store   domain.FocusStore
	credits *Credits
	logger  *zap.Logger
}

// NewFocusTracker creates the tracker.
func NewFocusTracker(store domain.FocusStore, credits *Credits, logger *zap.Logger) *FocusTracker {
	return &FocusTracker{
		store:   store,
		credits: credits,
		logger:  logger,
	}
}

// RecordActivity accrues the time since the previous activity into the
// focus accumulator. Every full hour of accumulated focus converts into
// a five-minute credit grant, with the remainder carried forward.
func (t *FocusTracker) RecordActivity(ctx context.Context, now time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	state := t.loadState(ctx)
	nowMillis := now.UnixMilli()

	previous := state.LastActivityMillis
	if previous == 0 {
		previous = nowMillis
	}
	delta := nowMillis - previous
	if delta < 0 {
		delta = 0
	}
	accumulated := state.AccumulatedFocusMillis + delta

	if accumulated >= focusGoalMillis {
		earnedUnits := accumulated / focusGoalMillis
		grant := earnedUnits * rewardSeconds
		if err := t.credits.Earn(ctx, grant, map[string]string{"source": focusEarnedSource}); err != nil {
			t.logger.Warn("failed to grant focus reward", zap.Error(err))
		}
	}

	updated := domain.FocusState{
		LastActivityMillis:     nowMillis,
		AccumulatedFocusMillis: accumulated % focusGoalMillis,
	}
	if err := t.store.SetState(ctx, updated); err != nil {
		return err
	}
	return nil
}

// MarkBlocked breaks the focus streak: the accumulator resets to zero
// on any visit to a blocked surface, even one that gets intercepted.
func (t *FocusTracker) MarkBlocked(ctx context.Context, now time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.store.SetState(ctx, domain.FocusState{
		LastActivityMillis:     now.UnixMilli(),
		AccumulatedFocusMillis: 0,
	})
}

// State returns the current accumulator snapshot.
func (t *FocusTracker) State(ctx context.Context) domain.FocusState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loadState(ctx)
}

// loadState substitutes a zero state on read failure. Losing an
// in-flight accumulation is preferable to crashing or blocking.
func (t *FocusTracker) loadState(ctx context.Context) domain.FocusState {
	state, err := t.store.State(ctx)
	if err != nil {
		t.logger.Warn("failed to read focus state, starting fresh", zap.Error(err))
		return domain.FocusState{}
	}
	return state
}
