package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_guard/internal/domain"
)

// DefaultHistoryLimit bounds the intercept history consulted for slip
// counting.
const DefaultHistoryLimit = 50

// Outcomes records interception resolutions and settles their credit
// cost.
type Outcomes struct {
	store   domain.InterceptStore
	credits *Credits
	logger  *zap.Logger
	now     func() time.Time
}

// NewOutcomes creates the recorder.
func NewOutcomes(store domain.InterceptStore, credits *Credits, logger *zap.Logger) *Outcomes {
	return &Outcomes{
		store:   store,
		credits: credits,
		logger:  logger,
		now:     time.Now,
	}
}

// Record appends the event to the bounded history and, when the user
// resolved by spending credits, settles the decision's credit cost.
func (o *Outcomes) Record(ctx context.Context, ictx domain.InterceptContext, decision domain.InterceptDecision, outcome domain.InterceptOutcome) error {
	event := domain.InterceptEvent{
		Context:    ictx,
		Decision:   decision,
		Outcome:    outcome,
		RecordedAt: o.now(),
	}
	if err := o.store.Record(ctx, event); err != nil {
		return fmt.Errorf("failed to record intercept event: %w", err)
	}

	if outcome == domain.OutcomeUseCredits && decision.CreditCostSeconds > 0 {
		ok, err := o.credits.Spend(ctx, decision.CreditCostSeconds, map[string]string{
			"item":   ictx.Item.ID,
			"reason": "unlock",
		})
		if err != nil {
			return err
		}
		if !ok {
			o.logger.Warn("credit cost exceeded balance at settlement",
				zap.String("item", ictx.Item.ID),
				zap.Int64("cost", decision.CreditCostSeconds))
		}
	}
	return nil
}

// RecentSlipCount counts slips among the recent history.
func (o *Outcomes) RecentSlipCount(ctx context.Context) int {
	events, err := o.store.Recent(ctx, DefaultHistoryLimit)
	if err != nil {
		o.logger.Warn("failed to read intercept history", zap.Error(err))
		return 0
	}
	count := 0
	for _, event := range events {
		if event.IsSlip() {
			count++
		}
	}
	return count
}
