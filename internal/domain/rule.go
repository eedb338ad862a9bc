package domain

import "time"

// ContextRule is a user-defined condition under which interceptions are
// auto-bypassed. Variants: TimeWindowRule, LocationRule, CalendarKeywordRule.
type ContextRule interface {
	RuleID() string
	RuleLabel() string
	isContextRule()
}

// TimeWindowRule matches a recurring window on selected weekdays.
// Start and end are minutes since local midnight; the start is inclusive
// and the end exclusive. EndMinute < StartMinute wraps past midnight.
type TimeWindowRule struct {
	ID          string
	Label       string
	Days        []time.Weekday
	StartMinute int
	EndMinute   int
}

// LocationRule matches when the device is within RadiusMeters of a point.
type LocationRule struct {
	ID           string
	Label        string
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
}

// CalendarKeywordRule matches when a current calendar entry title contains
// the keyword.
type CalendarKeywordRule struct {
	ID      string
	Label   string
	Keyword string
}

func (r TimeWindowRule) RuleID() string         { return r.ID }
func (r TimeWindowRule) RuleLabel() string      { return r.Label }
func (r LocationRule) RuleID() string           { return r.ID }
func (r LocationRule) RuleLabel() string        { return r.Label }
func (r CalendarKeywordRule) RuleID() string    { return r.ID }
func (r CalendarKeywordRule) RuleLabel() string { return r.Label }

func (TimeWindowRule) isContextRule()      {}
func (LocationRule) isContextRule()        {}
func (CalendarKeywordRule) isContextRule() {}
