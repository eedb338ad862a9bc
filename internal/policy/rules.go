package policy

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/eliteGoblin/focusd/app_guard/internal/domain"
)

// Signals is a point-in-time snapshot of the ambient context used to
// evaluate rules. Absent signals simply never match their rule variant.
type Signals struct {
	HasLocation    bool
	Latitude       float64
	Longitude      float64
	CalendarTitles []string
}

// ActiveRule returns the first rule that matches now and the given
// signals, or nil. At most one rule is considered active per decision;
// rule order is the caller's priority order.
func ActiveRule(rules []domain.ContextRule, now time.Time, sig Signals) domain.ContextRule {
	for _, rule := range rules {
		if ruleMatches(rule, now, sig) {
			return rule
		}
	}
	return nil
}

func ruleMatches(rule domain.ContextRule, now time.Time, sig Signals) bool {
	switch r := rule.(type) {
	case domain.TimeWindowRule:
		return timeWindowMatches(r, now)
	case domain.LocationRule:
		if !sig.HasLocation {
			return false
		}
		return haversineMeters(sig.Latitude, sig.Longitude, r.Latitude, r.Longitude) <= r.RadiusMeters
	case domain.CalendarKeywordRule:
		keyword := strings.ToLower(r.Keyword)
		for _, title := range sig.CalendarTitles {
			if strings.Contains(strings.ToLower(title), keyword) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func timeWindowMatches(r domain.TimeWindowRule, now time.Time) bool {
	if len(r.Days) > 0 {
		found := false
		for _, d := range r.Days {
			if d == now.Weekday() {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	minute := now.Hour()*60 + now.Minute()
	if r.StartMinute == r.EndMinute {
		return false
	}
	if r.StartMinute < r.EndMinute {
		return minute >= r.StartMinute && minute < r.EndMinute
	}
	// Window wraps past midnight.
	return minute >= r.StartMinute || minute < r.EndMinute
}

// Describe renders the rule match for decision reasoning.
func Describe(rule domain.ContextRule) string {
	switch rule.(type) {
	case domain.TimeWindowRule:
		return fmt.Sprintf("Time rule %q matched.", rule.RuleLabel())
	case domain.LocationRule:
		return fmt.Sprintf("Location rule %q matched.", rule.RuleLabel())
	case domain.CalendarKeywordRule:
		return fmt.Sprintf("Calendar rule %q matched.", rule.RuleLabel())
	default:
		return fmt.Sprintf("Rule %q matched.", rule.RuleLabel())
	}
}

const earthRadiusMeters = 6371000

func haversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(a))
}
