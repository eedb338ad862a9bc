package domain

import "time"

// InterceptOutcome is the user's resolution of an interception.
type InterceptOutcome string

const (
	OutcomeSkip             InterceptOutcome = "skip"
	OutcomeStartFocus       InterceptOutcome = "start_focus"
	OutcomeUseCredits       InterceptOutcome = "use_credits"
	OutcomeEmergencyBypass  InterceptOutcome = "emergency_bypass"
	OutcomeNotificationPeek InterceptOutcome = "notification_peek"
	OutcomeDismissed        InterceptOutcome = "dismissed"
)

// InterceptContext is the snapshot of contextual signals fed to the
// decision engine when the user attempts to open a blocked item.
// ActiveRule is nil when no context rule matched; the caller resolves
// which rule (at most one) is active.
type InterceptContext struct {
	Item                    WatchedItem
	Timestamp               time.Time
	AvailableCreditsSeconds int64
	StreakDays              int
	ActiveRule              ContextRule
	NotificationTriggered   bool
	RecentSlipCount         int
	Intent                  IntentTag
}

// InterceptAction is the engine's recommended action, one of Block,
// Allow, PromptFocus or NotificationPeek.
type InterceptAction interface {
	isInterceptAction()
}

// ActionBlock keeps the item blocked with no unlock offer.
type ActionBlock struct{}

// ActionAllow opens the item for a bounded duration.
type ActionAllow struct {
	DurationSeconds int64
}

// ActionPromptFocus suggests a short focus session instead of opening.
type ActionPromptFocus struct {
	DurationMinutes int
}

// ActionNotificationPeek grants a short peek triggered by a notification.
type ActionNotificationPeek struct {
	DurationSeconds int64
}

func (ActionBlock) isInterceptAction()            {}
func (ActionAllow) isInterceptAction()            {}
func (ActionPromptFocus) isInterceptAction()      {}
func (ActionNotificationPeek) isInterceptAction() {}

// InterceptDecision is the engine's pure output. Reasoning is an ordered
// human-readable trace of which branch fired and why.
type InterceptDecision struct {
	Action            InterceptAction
	Reasoning         []string
	CreditCostSeconds int64
	AutoBypass        bool
}

// InterceptEvent is one recorded interception, appended to a bounded
// most-recent-first history.
type InterceptEvent struct {
	Context    InterceptContext
	Decision   InterceptDecision
	Outcome    InterceptOutcome
	RecordedAt time.Time
}

// IsSlip reports whether the user bypassed the block by spending credits
// or using the emergency path.
func (e InterceptEvent) IsSlip() bool {
	return e.Outcome == OutcomeUseCredits || e.Outcome == OutcomeEmergencyBypass
}
