// Package calendar provides day-granularity date helpers shared by the booking
// and pricing packages. Days are represented as time.Time values at midnight UTC
// carrying the wall-clock calendar date of the session.
package calendar

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

const day = 24 * time.Hour

// Day strips the time of day from t, keeping its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Wall reinterprets the wall-clock reading of t as a UTC instant so it can be
// compared against Day values and slot start times.
func Wall(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// AddDays returns the day n calendar days after t.
func AddDays(t time.Time, n int) time.Time {
	return Day(t).AddDate(0, 0, n)
}

// DaysBetween returns the signed number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)) / day)
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	return Day(a).Equal(Day(b))
}

// Format renders the calendar date of t.
func Format(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD date. RFC3339 timestamps are accepted and truncated.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(DateLayout, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("calendar: invalid date %q", value)
	}
	return Day(t), nil
}

// Date is a calendar date that decodes from and encodes to YYYY-MM-DD.
type Date struct {
	time.Time
}

// NewDate wraps the calendar date of t.
func NewDate(t time.Time) Date {
	return Date{Time: Day(t)}
}

// MustDate parses value and panics on failure. Intended for tests and fixtures.
func MustDate(value string) Date {
	t, err := ParseDate(value)
	if err != nil {
		panic(err)
	}
	return Date{Time: t}
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		d.Time = time.Time{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("calendar: date must be a string: %w", err)
	}
	if strings.TrimSpace(raw) == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := ParseDate(raw)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(Format(d.Time))
}

// String returns the YYYY-MM-DD form of the date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return Format(d.Time)
}
