// Package timeslot computes per-slot capacity and availability for timeslot bookings.
package timeslot

import (
	"time"

	"github.com/noah-isme/productform/internal/booking"
	"github.com/noah-isme/productform/internal/calendar"
)

// Availability describes one slot on a specific date.
type Availability struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Disabled  bool   `json:"disabled"`
	Remaining int    `json:"remaining"`
}

// Scheduler answers slot questions for one session.
type Scheduler struct {
	byWeekday [7][]booking.Slot
	perSlot   int
	booked    map[string]int
	today     time.Time
	earliest  time.Time
}

// New flattens the configured slot groups into a weekday map.
func New(cfg booking.Config, now time.Time) *Scheduler {
	s := &Scheduler{
		perSlot:  cfg.QuantityPerSlot,
		booked:   cfg.BookedSlotCounts,
		today:    calendar.Day(now),
		earliest: calendar.Wall(now).Add(cfg.Availability.Buffer.Duration()),
	}
	for _, group := range cfg.Timeslots.Groups {
		for _, name := range group.Days {
			wd, ok := calendar.ParseWeekday(name)
			if !ok {
				continue
			}
			s.byWeekday[wd] = append(s.byWeekday[wd], group.Slots...)
		}
	}
	return s
}

// Slots lists the configured slots for date's weekday.
func (s *Scheduler) Slots(date time.Time) []booking.Slot {
	return s.byWeekday[date.Weekday()]
}

// Remaining is the unbooked capacity of slot on date. It may be negative when
// the slot is overbooked.
func (s *Scheduler) Remaining(date time.Time, slot booking.Slot) int {
	return s.perSlot - s.booked[booking.SlotCountKey(date, slot)]
}

// SlotsFor lists the slots of date with their disabled state. A slot is disabled
// when it is sold out or, for today, when it starts before now plus the buffer.
func (s *Scheduler) SlotsFor(date time.Time) []Availability {
	date = calendar.Day(date)
	slots := s.Slots(date)
	out := make([]Availability, 0, len(slots))
	isToday := date.Equal(s.today)
	for _, slot := range slots {
		remaining := s.Remaining(date, slot)
		disabled := remaining < 1
		if !disabled && isToday {
			disabled = s.startsTooSoon(date, slot)
		}
		out = append(out, Availability{
			From:      slot.From,
			To:        slot.To,
			Disabled:  disabled,
			Remaining: remaining,
		})
	}
	return out
}

func (s *Scheduler) startsTooSoon(date time.Time, slot booking.Slot) bool {
	minutes, ok := calendar.ParseClock(slot.From)
	if !ok {
		return true
	}
	return calendar.At(date, minutes).Before(s.earliest)
}

// IsDateDisabled reports whether date has no slot configured for its weekday.
func (s *Scheduler) IsDateDisabled(date time.Time) bool {
	return len(s.Slots(date)) == 0
}

// IsSlotAvailable reports whether slot is configured and enabled on date.
func (s *Scheduler) IsSlotAvailable(date time.Time, slot booking.Slot) bool {
	for _, a := range s.SlotsFor(date) {
		if a.From == slot.From && a.To == slot.To {
			return !a.Disabled
		}
	}
	return false
}

// DayCapacity sums the remaining capacity of every slot on date, ignoring overbooked slots.
func (s *Scheduler) DayCapacity(date time.Time) int {
	date = calendar.Day(date)
	total := 0
	for _, slot := range s.Slots(date) {
		if remaining := s.Remaining(date, slot); remaining > 0 {
			total += remaining
		}
	}
	return total
}
