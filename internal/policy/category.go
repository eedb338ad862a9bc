// Package policy implements the classification and context rules that
// decide how hard a watched item locks and when interceptions are waived.
package policy

import (
	"strings"

	"github.com/eliteGoblin/focusd/app_guard/internal/domain"
)

// BaseLockMinutes is the activation-lock floor before category bonuses.
const BaseLockMinutes = 240

type categoryEntry struct {
	category     domain.Category
	display      string
	bonusMinutes int
	keywords     []string
}

// Ordered: first matching category wins. CategoryOther is the fallback
// and carries no keywords.
var categoryTable = []categoryEntry{
	{domain.CategorySocial, "Social", 0,
		[]string{"instagram", "facebook", "whatsapp", "snap", "reddit", "twitter", "telegram"}},
	{domain.CategoryEntertainment, "Entertainment", 30,
		[]string{"youtube", "netflix", "prime", "spotify", "music", "tiktok", "disney", "hulu"}},
	{domain.CategoryGaming, "Gaming", 60,
		[]string{"game", "clash", "royale", "pubg", "genshin", "freefire", "callofduty", "roblox"}},
	{domain.CategoryShopping, "Shopping", 30,
		[]string{"amazon", "flipkart", "shop", "myntra", "nykaa", "walmart"}},
	{domain.CategoryNews, "News", 15,
		[]string{"news", "cnn", "bbc", "nyt", "inshorts", "guardian"}},
	{domain.CategoryProductivity, "Productivity", 0,
		[]string{"calendar", "notes", "drive", "docs"}},
}

// Classify returns the first category whose keyword set matches a
// substring of the label or id, else CategoryOther.
func Classify(label, itemID string) domain.Category {
	labelLower := strings.ToLower(label)
	idLower := strings.ToLower(itemID)
	for _, entry := range categoryTable {
		for _, kw := range entry.keywords {
			if strings.Contains(labelLower, kw) || strings.Contains(idLower, kw) {
				return entry.category
			}
		}
	}
	return domain.CategoryOther
}

// LockDurationMinutes returns the base lock duration plus the category
// bonus.
func LockDurationMinutes(category domain.Category) int {
	for _, entry := range categoryTable {
		if entry.category == category {
			return BaseLockMinutes + entry.bonusMinutes
		}
	}
	return BaseLockMinutes
}

// DisplayName returns the human-readable category name.
func DisplayName(category domain.Category) string {
	for _, entry := range categoryTable {
		if entry.category == category {
			return entry.display
		}
	}
	return "Other"
}

// NewWatchedItem resolves a watched item from its id and label,
// classifying it and deriving the lock duration. A blank label falls
// back to the id.
func NewWatchedItem(itemID, label string) domain.WatchedItem {
	if label == "" {
		label = itemID
	}
	category := Classify(label, itemID)
	return domain.WatchedItem{
		ID:                  itemID,
		Label:               label,
		Category:            category,
		LockDurationMinutes: LockDurationMinutes(category),
	}
}
