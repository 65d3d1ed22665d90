package calendar

import (
	"strconv"
	"strings"
	"time"
)

// BufferUnit selects how a buffer amount is converted to a duration.
type BufferUnit string

const (
	BufferHours BufferUnit = "hours"
	BufferDays  BufferUnit = "days"
)

// Buffer is the minimum lead time between now and the earliest bookable date or slot.
type Buffer struct {
	Amount int        `json:"amount"`
	Unit   BufferUnit `json:"unit"`
}

// Duration converts the buffer into a duration. Unknown units count as days.
func (b Buffer) Duration() time.Duration {
	if b.Amount <= 0 {
		return 0
	}
	switch strings.ToLower(strings.TrimSpace(string(b.Unit))) {
	case "hour", "hours", "h":
		return time.Duration(b.Amount) * time.Hour
	default:
		return time.Duration(b.Amount) * day
	}
}

// ParseClock parses an "HH:MM" time of day into minutes after midnight.
func ParseClock(value string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) < 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 24 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// At returns the instant minutes after midnight of the given day.
func At(d time.Time, minutes int) time.Time {
	return Day(d).Add(time.Duration(minutes) * time.Minute)
}
