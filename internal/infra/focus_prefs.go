package infra

import (
	"context"
	"fmt"

	"github.com/eliteGoblin/focusd/app_guard/internal/domain"
)

const (
	keyLastActivity     = "last_allowed_activity"
	keyAccumulatedFocus = "accumulated_focus"
)

// FocusPrefs implements domain.FocusStore over two int64 keys.
type FocusPrefs struct {
	kv domain.KVStore
}

// NewFocusPrefs creates the adapter.
func NewFocusPrefs(kv domain.KVStore) *FocusPrefs {
	return &FocusPrefs{kv: kv}
}

func (p *FocusPrefs) State(ctx context.Context) (domain.FocusState, error) {
	lastActivity, err := p.kv.GetInt64(ctx, keyLastActivity)
	if err != nil {
		return domain.FocusState{}, fmt.Errorf("failed to read last activity: %w", err)
	}
	accumulated, err := p.kv.GetInt64(ctx, keyAccumulatedFocus)
	if err != nil {
		return domain.FocusState{}, fmt.Errorf("failed to read accumulated focus: %w", err)
	}
	return domain.FocusState{
		LastActivityMillis:     lastActivity,
		AccumulatedFocusMillis: accumulated,
	}, nil
}

func (p *FocusPrefs) SetState(ctx context.Context, state domain.FocusState) error {
	if err := p.kv.PutInt64(ctx, keyLastActivity, state.LastActivityMillis); err != nil {
		return fmt.Errorf("failed to store last activity: %w", err)
	}
	if err := p.kv.PutInt64(ctx, keyAccumulatedFocus, state.AccumulatedFocusMillis); err != nil {
		return fmt.Errorf("failed to store accumulated focus: %w", err)
	}
	return nil
}

// Ensure FocusPrefs implements domain.FocusStore.
var _ domain.FocusStore = (*FocusPrefs)(nil)
