// Package booking describes booking configuration and the booking value a
// customer builds up while picking dates and slots.
package booking

import (
	"fmt"
	"time"

	"github.com/noah-isme/productform/internal/calendar"
)

// Mode selects how a booking is picked.
type Mode string

const (
	ModeDateRange Mode = "date_range"
	ModeSingleDay Mode = "single_day"
	ModeTimeslots Mode = "timeslots"
)

// Valid reports whether m is a known booking mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeDateRange, ModeSingleDay, ModeTimeslots:
		return true
	}
	return false
}

// CountMode selects whether a range is measured in nights or days.
type CountMode string

const (
	CountNights CountMode = "nights"
	CountDays   CountMode = "days"
)

// Config is the booking field configuration.
type Config struct {
	Mode             Mode            `json:"mode"`
	CountMode        CountMode       `json:"count_mode"`
	Availability     Availability    `json:"availability"`
	DateRange        RangeLimits     `json:"date_range"`
	ExcludedDays     []calendar.Date `json:"excluded_days"`
	ExcludedWeekdays []string        `json:"excluded_weekdays"`
	Timeslots        Timeslots       `json:"timeslots"`
	QuantityPerSlot  int             `json:"quantity_per_slot"`
	BookedSlotCounts map[string]int  `json:"booked_slot_counts"`
}

// Availability bounds the bookable window.
type Availability struct {
	MaxDays int             `json:"max_days"`
	Buffer  calendar.Buffer `json:"buffer"`
}

// RangeLimits bounds the length of a date range booking.
type RangeLimits struct {
	MinLength int `json:"min_length"`
	MaxLength int `json:"max_length"`
}

// Timeslots groups slot definitions by weekday.
type Timeslots struct {
	Groups []SlotGroup `json:"groups"`
}

// SlotGroup assigns a list of slots to a set of weekdays.
type SlotGroup struct {
	Days  []string `json:"days"`
	Slots []Slot   `json:"slots"`
}

// Slot is a bookable time window within a day, in HH:MM.
type Slot struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// String renders the slot as "from-to".
func (s Slot) String() string {
	return s.From + "-" + s.To
}

// SlotCountKey is the key used by BookedSlotCounts for a slot on a date.
func SlotCountKey(date time.Time, s Slot) string {
	return fmt.Sprintf("%s %s", calendar.Format(date), s.String())
}

// Counting returns the count mode, defaulting to nights.
func (c Config) Counting() CountMode {
	if c.CountMode == CountDays {
		return CountDays
	}
	return CountNights
}

// Lengths returns the normalised minimum and maximum range lengths. A missing
// minimum is one unit; a missing or inverted maximum falls back to max_days.
func (c Config) Lengths() (minLength, maxLength int) {
	minLength = c.DateRange.MinLength
	if minLength < 1 {
		minLength = 1
	}
	maxLength = c.DateRange.MaxLength
	if maxLength <= 0 {
		maxLength = c.Availability.MaxDays
	}
	if maxLength < minLength {
		maxLength = minLength
	}
	return minLength, maxLength
}

// Value is the booking selection. Which fields are meaningful depends on the mode.
type Value struct {
	StartDate calendar.Date `json:"start_date,omitzero"`
	EndDate   calendar.Date `json:"end_date,omitzero"`
	Date      calendar.Date `json:"date,omitzero"`
	Slot      *Slot         `json:"slot,omitempty"`
}

// IsZero reports whether nothing has been booked.
func (v Value) IsZero() bool {
	return v.StartDate.IsZero() && v.EndDate.IsZero() && v.Date.IsZero() && v.Slot == nil
}

// SavedRange returns the saved range when both ends are set and form a
// non-empty range for the count mode.
func (v Value) SavedRange(mode CountMode) (start, end time.Time, ok bool) {
	if v.StartDate.IsZero() || v.EndDate.IsZero() {
		return time.Time{}, time.Time{}, false
	}
	start, end = v.StartDate.Time, v.EndDate.Time
	if end.Before(start) {
		return time.Time{}, time.Time{}, false
	}
	if mode != CountDays && end.Equal(start) {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// RangeLength measures a range: nights = max(1, |end-start|), days = |end-start| + 1.
func RangeLength(start, end time.Time, mode CountMode) int {
	diff := calendar.DaysBetween(start, end)
	if diff < 0 {
		diff = -diff
	}
	if mode == CountDays {
		return diff + 1
	}
	if diff < 1 {
		return 1
	}
	return diff
}

// RepeatDays lists the calendar days a repeat-priced item accrues over: every
// day from start, excluding the end day in nights mode. ok is false outside a
// date range booking with a saved range.
func RepeatDays(cfg *Config, v Value) (days []time.Time, ok bool) {
	if cfg == nil || cfg.Mode != ModeDateRange {
		return nil, false
	}
	mode := cfg.Counting()
	start, end, ok := v.SavedRange(mode)
	if !ok {
		return nil, false
	}
	n := RangeLength(start, end, mode)
	days = make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		days = append(days, calendar.AddDays(start, i))
	}
	return days, true
}

// ReferenceDate is the date whose price applies outside a repeat window: the
// booked date in single day and timeslot modes, otherwise today.
func ReferenceDate(cfg *Config, v Value, today time.Time) time.Time {
	if cfg != nil && (cfg.Mode == ModeSingleDay || cfg.Mode == ModeTimeslots) && !v.Date.IsZero() {
		return v.Date.Time
	}
	return calendar.Day(today)
}
