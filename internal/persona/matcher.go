package persona

import (
	"strings"
	"time"
)

// Matches reports whether every condition the rule specifies holds for cc.
// now is the wall-clock time used for time-range and day-of-week conditions;
// a zero now means no clock is available and those conditions match.
func Matches(rule SelectionRule, cc CallContext, now time.Time) bool {
	c := rule.Conditions

	if len(c.CallTypes) > 0 && !contains(c.CallTypes, cc.CallType) {
		return false
	}

	if len(c.CustomerTags) > 0 {
		if cc.CustomerHistory == nil || !anyIn(cc.CustomerHistory.Tags, c.CustomerTags) {
			return false
		}
	}

	if len(c.LeadSources) > 0 {
		if cc.CustomerHistory == nil || !contains(c.LeadSources, cc.CustomerHistory.LeadSource) {
			return false
		}
	}

	if len(c.PreviousOutcomes) > 0 {
		if cc.CustomerHistory == nil || !contains(c.PreviousOutcomes, cc.CustomerHistory.PreviousOutcome) {
			return false
		}
	}

	if c.CallAttempt != nil && *c.CallAttempt != cc.CallAttempt {
		return false
	}

	if now.IsZero() {
		return true
	}

	if len(c.DaysOfWeek) > 0 && !matchesDay(c.DaysOfWeek, now.Weekday()) {
		return false
	}

	if c.TimeRange != nil && !c.TimeRange.Contains(now) {
		return false
	}

	return true
}

func anyIn(have, allowed []string) bool {
	for _, h := range have {
		if contains(allowed, h) {
			return true
		}
	}
	return false
}

func matchesDay(days []string, day time.Weekday) bool {
	for _, d := range days {
		if wd, ok := ParseWeekday(d); ok && wd == day {
			return true
		}
	}
	return false
}

// ParseWeekday accepts full ("monday") or short ("mon") English day names
func ParseWeekday(s string) (time.Weekday, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || s == name[:3] {
			return d, true
		}
	}
	return 0, false
}

// Valid reports whether both ends parse as HH:MM
func (tr TimeRange) Valid() bool {
	_, okStart := parseClock(tr.Start)
	_, okEnd := parseClock(tr.End)
	return okStart && okEnd
}

// Contains reports whether the wall-clock time of t falls in the range.
// Ranges whose end is before their start wrap past midnight.
// A range that does not parse contains every time.
func (tr TimeRange) Contains(t time.Time) bool {
	start, okStart := parseClock(tr.Start)
	end, okEnd := parseClock(tr.End)
	if !okStart || !okEnd {
		return true
	}

	minute := t.Hour()*60 + t.Minute()
	if start <= end {
		return minute >= start && minute < end
	}
	return minute >= start || minute < end
}

// parseClock converts "HH:MM" into minutes after midnight
func parseClock(s string) (int, bool) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}
