// Package domain contains core business entities and interfaces.
// This is the innermost layer in Clean Architecture - no external dependencies.
package domain

import "time"

// Category groups watched items by the kind of distraction they represent.
// The category drives the activation-lock duration bonus.
type Category string

const (
	CategorySocial        Category = "social"
	CategoryEntertainment Category = "entertainment"
	CategoryGaming        Category = "gaming"
	CategoryShopping      Category = "shopping"
	CategoryNews          Category = "news"
	CategoryProductivity  Category = "productivity"
	CategoryOther         Category = "other"
)

// WatchedItem is a distraction source under user-configured monitoring.
// The ID is an opaque identifier (package name, process name, ...).
// Immutable once resolved for a session.
type WatchedItem struct {
	ID                  string
	Label               string
	Category            Category
	LockDurationMinutes int
}

// ActivationLock is a mandatory minimum-duration block period that starts
// when a watched item is enabled. GraceUntil is an independent early-exit
// window; it is set in the past when grace was denied at activation.
type ActivationLock struct {
	LockUntilMillis  int64
	GraceUntilMillis int64
}

// FocusState accumulates non-distracted usage time between blocked
// observations. AccumulatedFocusMillis only grows across consecutive
// activity observations and resets to zero on any blocked observation.
type FocusState struct {
	LastActivityMillis     int64
	AccumulatedFocusMillis int64
}

// IntentTag is the user's self-reported reason for opening a watched item.
type IntentTag string

const (
	IntentBored                IntentTag = "bored"
	IntentCheckingNotification IntentTag = "checking_notification"
	IntentLookingForSomething  IntentTag = "looking_for_something"
	IntentHabit                IntentTag = "habit"
	IntentOther                IntentTag = "other"
)

// FocusSession is a deliberate focus block the user completed instead of
// opening a watched item. Completed minutes up to the target are rewarded
// as credit seconds.
type FocusSession struct {
	ID               string
	TargetMinutes    int
	CompletedMinutes int
	StartedAt        time.Time
	CompletedAt      time.Time
	Intent           IntentTag
	RewardedSeconds  int64
}
