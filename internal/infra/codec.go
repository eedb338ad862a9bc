// Package infra provides the storage, event-feed and presentation
// implementations behind the domain interfaces.
package infra

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/eliteGoblin/focusd/app_guard/internal/domain"
)

// legacyGraceWindowMillis is the implied grace window for two-field lock
// entries written before the grace deadline was persisted explicitly.
const legacyGraceWindowMillis int64 = 5 * 60_000

// decodeTimestampEntries parses "id|millis" entries. Malformed entries
// (wrong field count, non-numeric fields) are silently dropped.
func decodeTimestampEntries(entries []string) map[string]int64 {
	out := make(map[string]int64, len(entries))
	for _, entry := range entries {
		parts := strings.Split(entry, "|")
		if len(parts) != 2 {
			continue
		}
		millis, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			continue
		}
		out[parts[0]] = millis
	}
	return out
}

func encodeTimestampEntries(values map[string]int64) []string {
	entries := make([]string, 0, len(values))
	for id, millis := range values {
		entries = append(entries, fmt.Sprintf("%s|%d", id, millis))
	}
	sort.Strings(entries)
	return entries
}

// decodeLockEntries parses activation-lock entries. The current format
// is "id|lockUntil|graceUntil"; the legacy two-field "id|expiry" format
// decodes with an implied grace window of expiry minus five minutes.
func decodeLockEntries(entries []string) map[string]domain.ActivationLock {
	out := make(map[string]domain.ActivationLock, len(entries))
	for _, entry := range entries {
		parts := strings.Split(entry, "|")
		switch len(parts) {
		case 2:
			expiry, err := strconv.ParseInt(parts[1], 10, 64)
			if err != nil {
				continue
			}
			out[parts[0]] = domain.ActivationLock{
				LockUntilMillis:  expiry,
				GraceUntilMillis: expiry - legacyGraceWindowMillis,
			}
		case 3:
			lockUntil, err := strconv.ParseInt(parts[1], 10, 64)
			if err != nil {
				continue
			}
			graceUntil, err := strconv.ParseInt(parts[2], 10, 64)
			if err != nil {
				continue
			}
			out[parts[0]] = domain.ActivationLock{
				LockUntilMillis:  lockUntil,
				GraceUntilMillis: graceUntil,
			}
		}
	}
	return out
}

func encodeLockEntries(locks map[string]domain.ActivationLock) []string {
	entries := make([]string, 0, len(locks))
	for id, lock := range locks {
		entries = append(entries, fmt.Sprintf("%s|%d|%d", id, lock.LockUntilMillis, lock.GraceUntilMillis))
	}
	sort.Strings(entries)
	return entries
}

// removeEntriesFor drops every entry belonging to the item id.
func removeEntriesFor(entries []string, itemID string) []string {
	prefix := itemID + "|"
	out := entries[:0]
	for _, entry := range entries {
		if !strings.HasPrefix(entry, prefix) {
			out = append(out, entry)
		}
	}
	return out
}
