// Package availability computes which calendar days a booking may start or end on.
package availability

import (
	"time"

	"github.com/noah-isme/productform/internal/booking"
	"github.com/noah-isme/productform/internal/calendar"
)

// Calendar answers day-level availability questions for one session. The
// bookable window and exclusion lookups are computed once at construction.
type Calendar struct {
	cfg              booking.Config
	today            time.Time
	minDate          time.Time
	maxDate          time.Time
	minLength        int
	maxLength        int
	excludedDays     map[string]struct{}
	excludedWeekdays calendar.WeekdaySet
}

// New builds a Calendar for cfg as seen at now.
func New(cfg booking.Config, now time.Time) *Calendar {
	today := calendar.Day(now)
	minDate := calendar.Day(calendar.Wall(now).Add(cfg.Availability.Buffer.Duration()))
	maxDate := calendar.AddDays(today, cfg.Availability.MaxDays-1)
	if maxDate.Before(minDate) {
		maxDate = minDate
	}
	excluded := make(map[string]struct{}, len(cfg.ExcludedDays))
	for _, d := range cfg.ExcludedDays {
		if d.IsZero() {
			continue
		}
		excluded[calendar.Format(d.Time)] = struct{}{}
	}
	minLength, maxLength := cfg.Lengths()
	return &Calendar{
		cfg:              cfg,
		today:            today,
		minDate:          minDate,
		maxDate:          maxDate,
		minLength:        minLength,
		maxLength:        maxLength,
		excludedDays:     excluded,
		excludedWeekdays: calendar.NewWeekdaySet(cfg.ExcludedWeekdays),
	}
}

// MinDate is the earliest bookable day: now plus the buffer, time of day dropped.
func (c *Calendar) MinDate() time.Time { return c.minDate }

// MaxDate is the last bookable day. It never precedes MinDate.
func (c *Calendar) MaxDate() time.Time { return c.maxDate }

// IsDateExcluded reports whether date is listed in excluded_days.
func (c *Calendar) IsDateExcluded(date time.Time) bool {
	_, ok := c.excludedDays[calendar.Format(calendar.Day(date))]
	return ok
}

// IsWeekdayExcluded reports whether date falls on an excluded weekday.
func (c *Calendar) IsWeekdayExcluded(date time.Time) bool {
	return c.excludedWeekdays.Has(date)
}

func (c *Calendar) excluded(date time.Time) bool {
	return c.IsDateExcluded(date) || c.IsWeekdayExcluded(date)
}

// InWindow reports whether date lies within [MinDate, MaxDate].
func (c *Calendar) InWindow(date time.Time) bool {
	d := calendar.Day(date)
	return !d.Before(c.minDate) && !d.After(c.maxDate)
}

// IsDateAvailable reports whether date is bookable on its own.
func (c *Calendar) IsDateAvailable(date time.Time) bool {
	return !c.IsWeekdayExcluded(date) && !c.IsDateExcluded(date) && c.InWindow(date)
}

// IsDayUnavailable marks excluded dates that are still shown to the customer.
func (c *Calendar) IsDayUnavailable(date time.Time) bool {
	return c.IsDateExcluded(date)
}

// IsSingleDayDisabled is the disable predicate for single day and timeslot pickers.
func (c *Calendar) IsSingleDayDisabled(date time.Time) bool {
	if c.cfg.Availability.MaxDays < 1 {
		return true
	}
	return !c.IsDateAvailable(date)
}

// IsRangeDayDisabled is the disable predicate for a date range picker. start is
// the saved start date, if any; pickingEnd is true while the end is being chosen.
// Days outside the bookable window are always disabled.
func (c *Calendar) IsRangeDayDisabled(date time.Time, start *time.Time, pickingEnd bool) bool {
	if c.cfg.Availability.MaxDays < 1 {
		return true
	}
	date = calendar.Day(date)
	if !c.InWindow(date) {
		return true
	}
	if pickingEnd && start != nil {
		return c.endDisabled(date, calendar.Day(*start))
	}
	return c.startDisabled(date)
}

func (c *Calendar) lengthOffset() int {
	if c.cfg.Counting() == booking.CountDays {
		return -1
	}
	return 0
}

func (c *Calendar) endDisabled(date, start time.Time) bool {
	if date.Before(start) {
		return true
	}
	if c.IsWeekdayExcluded(date) {
		return true
	}
	offset := c.lengthOffset()
	minEnd := calendar.AddDays(start, c.minLength+offset)
	maxEnd := calendar.AddDays(start, c.maxLength+offset)
	if date.Before(minEnd) || date.After(maxEnd) {
		return true
	}
	for d := calendar.AddDays(start, 1); !d.After(date); d = calendar.AddDays(d, 1) {
		if c.excluded(d) {
			return true
		}
	}
	return false
}

func (c *Calendar) startDisabled(date time.Time) bool {
	if c.excluded(date) {
		return true
	}
	minEnd := calendar.AddDays(date, c.minLength+c.lengthOffset())
	if minEnd.After(c.maxDate) {
		return true
	}
	for i := 1; i <= c.maxLength; i++ {
		d := calendar.AddDays(date, i)
		if d.After(minEnd) {
			break
		}
		if c.excluded(d) {
			return true
		}
	}
	return false
}
