package usecase

import (
	"github.com/eliteGoblin/focusd/app_guard/internal/domain"
	"github.com/eliteGoblin/focusd/app_guard/internal/policy"
)

const (
	autoBypassSeconds       int64 = 15 * 60
	notificationPeekSeconds int64 = 2 * 60
	defaultUnlockSeconds    int64 = 10 * 60
	defaultFocusMinutes           = 5
	slipThreshold                 = 3
)

// Engine is the stateless interception decision policy. Branches are
// evaluated in strict priority order and the first match wins.
type Engine struct{}

// Evaluate maps an interception context to a recommended action with a
// reasoning trace.
func (Engine) Evaluate(ictx domain.InterceptContext) domain.InterceptDecision {
	var reasoning []string

	if ictx.ActiveRule != nil {
		reasoning = append(reasoning, policy.Describe(ictx.ActiveRule))
		return domain.InterceptDecision{
			Action:     domain.ActionAllow{DurationSeconds: autoBypassSeconds},
			Reasoning:  reasoning,
			AutoBypass: true,
		}
	}

	if ictx.NotificationTriggered {
		reasoning = append(reasoning, "Notification triggered unlock; granting peek window.")
		return domain.InterceptDecision{
			Action:    domain.ActionNotificationPeek{DurationSeconds: notificationPeekSeconds},
			Reasoning: reasoning,
		}
	}

	if ictx.AvailableCreditsSeconds > 0 {
		creditChunk := ictx.AvailableCreditsSeconds
		if creditChunk > defaultUnlockSeconds {
			creditChunk = defaultUnlockSeconds
		}
		reasoning = append(reasoning, "Credits available: recommending time-boxed unlock.")
		if ictx.RecentSlipCount >= slipThreshold {
			// Advisory only: the recommended chunk is not reduced.
			reasoning = append(reasoning, "Recent slips detected; suggesting shorter unlock.")
		}
		return domain.InterceptDecision{
			Action:            domain.ActionAllow{DurationSeconds: creditChunk},
			Reasoning:         reasoning,
			CreditCostSeconds: creditChunk,
		}
	}

	reasoning = append(reasoning, "No credits; recommend quick focus session instead of opening app.")
	return domain.InterceptDecision{
		Action:    domain.ActionPromptFocus{DurationMinutes: defaultFocusMinutes},
		Reasoning: reasoning,
	}
}
