package form

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/productform/internal/booking"
	"github.com/noah-isme/productform/internal/calendar"
	"github.com/noah-isme/productform/internal/pricing"
	"github.com/noah-isme/productform/internal/timeslot"
)

// DayInfo is what the calendar picker needs to render one day.
type DayInfo struct {
	Date         calendar.Date   `json:"date"`
	Disabled     bool            `json:"disabled"`
	Unavailable  bool            `json:"unavailable"`
	TooltipPrice decimal.Decimal `json:"tooltip_price"`
	// Capacity is the remaining slot capacity of timeslot bookings.
	Capacity *int `json:"capacity,omitempty"`
}

// TooltipPrice is the price shown for date in the calendar. The minimum price
// of the matched rule wins, then the product minimum price, then the base
// price on that day.
func (s *Session) TooltipPrice(date time.Time) decimal.Decimal {
	if rule := s.rules.Resolve(date); rule != nil && rule.MinimumPrice.IsPositive() {
		return rule.MinimumPrice
	}
	if s.doc.Props.MinimumPrice.IsPositive() {
		return s.doc.Props.MinimumPrice
	}
	return pricing.BasePriceOn(s.doc.Props.BasePrice, s.rules, date)
}

// IsDayDisabled is the calendar disable predicate for the current state. While
// a date range has a start but no end, days are judged as candidate end dates.
func (s *Session) IsDayDisabled(st State, date time.Time) (bool, error) {
	cfg := s.bookingConfig()
	if cfg == nil {
		return false, ErrNotBooking
	}
	if cfg.Mode == booking.ModeDateRange {
		if !st.Booking.StartDate.IsZero() && st.Booking.EndDate.IsZero() {
			start := st.Booking.StartDate.Time
			return s.calendar.IsRangeDayDisabled(date, &start, true), nil
		}
		return s.calendar.IsRangeDayDisabled(date, nil, false), nil
	}
	return s.singleDayDisabled(date), nil
}

func (s *Session) singleDayDisabled(date time.Time) bool {
	if s.calendar.IsSingleDayDisabled(date) {
		return true
	}
	return s.slots != nil && s.slots.IsDateDisabled(date)
}

// Days describes every day from from to to, both inclusive.
func (s *Session) Days(st State, from, to time.Time) ([]DayInfo, error) {
	if s.bookingConfig() == nil {
		return nil, ErrNotBooking
	}
	from, to = calendar.Day(from), calendar.Day(to)
	if to.Before(from) {
		return nil, fmt.Errorf("form: calendar window ends before it starts")
	}
	out := make([]DayInfo, 0, calendar.DaysBetween(from, to)+1)
	for d := from; !d.After(to); d = calendar.AddDays(d, 1) {
		disabled, err := s.IsDayDisabled(st, d)
		if err != nil {
			return nil, err
		}
		info := DayInfo{
			Date:         calendar.NewDate(d),
			Disabled:     disabled,
			Unavailable:  s.calendar.IsDayUnavailable(d),
			TooltipPrice: s.TooltipPrice(d),
		}
		if s.slots != nil {
			capacity := s.slots.DayCapacity(d)
			info.Capacity = &capacity
		}
		out = append(out, info)
	}
	return out, nil
}

// Timeslots lists the slots of date for timeslot bookings.
func (s *Session) Timeslots(date time.Time) ([]timeslot.Availability, int, error) {
	if s.slots == nil {
		return nil, 0, ErrNotBooking
	}
	if s.calendar.IsSingleDayDisabled(date) {
		slots := s.slots.SlotsFor(date)
		for i := range slots {
			slots[i].Disabled = true
		}
		return slots, 0, nil
	}
	return s.slots.SlotsFor(date), s.slots.DayCapacity(date), nil
}
