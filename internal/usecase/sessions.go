package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/eliteGoblin/focusd/app_guard/internal/domain"
)

// FocusSessions registers completed focus sessions and pays out their
// credit reward.
type FocusSessions struct {
	store   domain.FocusSessionStore
	credits *Credits
	now     func() time.Time
}

// NewFocusSessions creates the registrar.
func NewFocusSessions(store domain.FocusSessionStore, credits *Credits) *FocusSessions {
	return &FocusSessions{
		store:   store,
		credits: credits,
		now:     time.Now,
	}
}

// Register stores a completed session. Completed minutes are rewarded
// at 60 credit seconds per minute, capped at the target.
func (s *FocusSessions) Register(ctx context.Context, targetMinutes, completedMinutes int, intent domain.IntentTag) (domain.FocusSession, error) {
	if targetMinutes <= 0 {
		return domain.FocusSession{}, fmt.Errorf("target minutes must be positive, got %d", targetMinutes)
	}
	if completedMinutes < 0 {
		return domain.FocusSession{}, fmt.Errorf("completed minutes must not be negative, got %d", completedMinutes)
	}

	now := s.now()
	rewarded := completedMinutes
	if rewarded > targetMinutes {
		rewarded = targetMinutes
	}
	rewardedSeconds := int64(rewarded) * 60

	session := domain.FocusSession{
		ID:               "fs-" + uuid.NewString()[:8],
		TargetMinutes:    targetMinutes,
		CompletedMinutes: completedMinutes,
		StartedAt:        now.Add(-time.Duration(completedMinutes) * time.Minute),
		CompletedAt:      now,
		Intent:           intent,
		RewardedSeconds:  rewardedSeconds,
	}
	if err := s.store.Upsert(ctx, session); err != nil {
		return domain.FocusSession{}, fmt.Errorf("failed to store focus session: %w", err)
	}
	if rewardedSeconds > 0 {
		if err := s.credits.Earn(ctx, rewardedSeconds, map[string]string{
			"source":    "focus_session",
			"sessionId": session.ID,
		}); err != nil {
			return domain.FocusSession{}, err
		}
	}
	return session, nil
}
