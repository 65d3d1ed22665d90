package calendar

import (
	"strings"
	"time"
)

var weekdayKeys = [7]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

// ParseWeekday accepts short ("mon") or long ("monday") weekday names, case-insensitively.
func ParseWeekday(value string) (time.Weekday, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	if len(v) < 3 {
		return 0, false
	}
	for i, key := range weekdayKeys {
		if strings.HasPrefix(v, key) && strings.HasPrefix(strings.ToLower(time.Weekday(i).String()), v) {
			return time.Weekday(i), true
		}
	}
	return 0, false
}

// WeekdaySet is a fixed lookup table over weekdays.
type WeekdaySet [7]bool

// NewWeekdaySet builds a set from weekday names; unknown names are ignored.
func NewWeekdaySet(names []string) WeekdaySet {
	var set WeekdaySet
	for _, name := range names {
		if wd, ok := ParseWeekday(name); ok {
			set[wd] = true
		}
	}
	return set
}

// Has reports whether the weekday of t is in the set.
func (s WeekdaySet) Has(t time.Time) bool {
	return s[t.Weekday()]
}

// Empty reports whether no weekday is set.
func (s WeekdaySet) Empty() bool {
	for _, v := range s {
		if v {
			return false
		}
	}
	return true
}
