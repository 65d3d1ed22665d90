package form

import (
	"encoding/json"
	"fmt"

	"github.com/noah-isme/productform/internal/addon"
	"github.com/noah-isme/productform/internal/booking"
	"github.com/noah-isme/productform/internal/calendar"
	"github.com/noah-isme/productform/internal/pricing"
)

// Mutation is one write a user action makes to the selection state.
type Mutation interface {
	mutation()
}

// ToggleSwitcher flips a switcher addon.
type ToggleSwitcher struct {
	Addon string `json:"addon"`
}

// SetNumericQuantity sets the quantity of a numeric addon.
type SetNumericQuantity struct {
	Addon    string `json:"addon"`
	Quantity int    `json:"quantity"`
}

// SelectChoice selects a choice of a select or custom-select addon.
type SelectChoice struct {
	Addon string `json:"addon"`
	Value string `json:"value"`
}

// ToggleChoice adds or removes a choice of a multiselect or custom-multiselect addon.
type ToggleChoice struct {
	Addon string `json:"addon"`
	Value string `json:"value"`
}

// SetChoiceQuantity sets the quantity of a selected custom choice.
type SetChoiceQuantity struct {
	Addon    string `json:"addon"`
	Value    string `json:"value"`
	Quantity int    `json:"quantity"`
}

// SetAttribute records a variation attribute choice.
type SetAttribute struct {
	Attribute string `json:"attribute"`
	Value     string `json:"value"`
}

// SetQuantity sets the product quantity.
type SetQuantity struct {
	Quantity int `json:"quantity"`
}

// SetDateRange sets both ends of a date range booking. A zero end keeps only the start.
type SetDateRange struct {
	Start calendar.Date `json:"start"`
	End   calendar.Date `json:"end"`
}

// SetDate picks the day of a single day or timeslot booking.
type SetDate struct {
	Date calendar.Date `json:"date"`
}

// SetSlot picks a slot on the already chosen day.
type SetSlot struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ClearBooking resets the booking value.
type ClearBooking struct{}

func (ToggleSwitcher) mutation()     {}
func (SetNumericQuantity) mutation() {}
func (SelectChoice) mutation()       {}
func (ToggleChoice) mutation()       {}
func (SetChoiceQuantity) mutation()  {}
func (SetAttribute) mutation()       {}
func (SetQuantity) mutation()        {}
func (SetDateRange) mutation()       {}
func (SetDate) mutation()            {}
func (SetSlot) mutation()            {}
func (ClearBooking) mutation()       {}

// DecodeMutation decodes a {"type": ..., ...} mutation.
func DecodeMutation(data json.RawMessage) (Mutation, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("form: decode mutation: %w", err)
	}
	var m Mutation
	var err error
	switch head.Type {
	case "toggle_switcher":
		m, err = decodeAs[ToggleSwitcher](data)
	case "set_numeric_quantity":
		m, err = decodeAs[SetNumericQuantity](data)
	case "select_choice":
		m, err = decodeAs[SelectChoice](data)
	case "toggle_choice":
		m, err = decodeAs[ToggleChoice](data)
	case "set_choice_quantity":
		m, err = decodeAs[SetChoiceQuantity](data)
	case "set_attribute":
		m, err = decodeAs[SetAttribute](data)
	case "set_quantity":
		m, err = decodeAs[SetQuantity](data)
	case "set_date_range":
		m, err = decodeAs[SetDateRange](data)
	case "set_date":
		m, err = decodeAs[SetDate](data)
	case "set_slot":
		m, err = decodeAs[SetSlot](data)
	case "clear_booking":
		m = ClearBooking{}
	default:
		return nil, fmt.Errorf("form: unknown mutation type %q", head.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("form: decode %s: %w", head.Type, err)
	}
	return m, nil
}

// DecodeMutations decodes a list of mutations, stopping at the first bad entry.
func DecodeMutations(items []json.RawMessage) ([]Mutation, error) {
	out := make([]Mutation, 0, len(items))
	for i, item := range items {
		m, err := DecodeMutation(item)
		if err != nil {
			return nil, fmt.Errorf("mutation %d: %w", i, err)
		}
		out = append(out, m)
	}
	return out, nil
}

func decodeAs[T Mutation](data json.RawMessage) (Mutation, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// Apply performs every write of one user action, then clamps quantities and
// re-resolves the variation once. Writes to unknown addons, attributes or
// unavailable dates are ignored.
func (s *Session) Apply(state State, mutations ...Mutation) (Update, error) {
	st := state.clone()
	for _, m := range mutations {
		s.write(&st, m)
	}
	return s.normalize(st)
}

func (s *Session) write(st *State, m Mutation) {
	switch m := m.(type) {
	case ToggleSwitcher:
		s.writeAddon(st, m.Addon, func(a addon.Addon, cur addon.State) addon.State {
			return addon.Toggle(a, cur)
		})
	case SetNumericQuantity:
		s.writeAddon(st, m.Addon, func(a addon.Addon, cur addon.State) addon.State {
			return addon.SetQuantity(a, cur, m.Quantity)
		})
	case SelectChoice:
		s.writeAddon(st, m.Addon, func(a addon.Addon, cur addon.State) addon.State {
			return addon.Choose(a, cur, m.Value)
		})
	case ToggleChoice:
		s.writeAddon(st, m.Addon, func(a addon.Addon, cur addon.State) addon.State {
			return addon.ToggleChoice(a, cur, m.Value)
		})
	case SetChoiceQuantity:
		s.writeAddon(st, m.Addon, func(a addon.Addon, cur addon.State) addon.State {
			return addon.SetChoiceQuantity(a, cur, m.Value, m.Quantity)
		})
	case SetAttribute:
		if s.variations == nil || !s.hasAttribute(m.Attribute) {
			return
		}
		if st.Variations.Selections == nil {
			st.Variations.Selections = make(map[string]string)
		}
		st.Variations.Selections[m.Attribute] = m.Value
	case SetQuantity:
		if s.mode == pricing.ModeVariable {
			st.Variations.Quantity = m.Quantity
		} else {
			st.Stock.Quantity = m.Quantity
		}
	case SetDateRange:
		s.writeDateRange(st, m)
	case SetDate:
		if !s.bookingModeIs(booking.ModeSingleDay, booking.ModeTimeslots) {
			return
		}
		if m.Date.IsZero() {
			st.Booking = booking.Value{}
			return
		}
		if s.singleDayDisabled(m.Date.Time) {
			return
		}
		st.Booking = booking.Value{Date: m.Date}
	case SetSlot:
		if !s.bookingModeIs(booking.ModeTimeslots) || st.Booking.Date.IsZero() {
			return
		}
		slot := booking.Slot{From: m.From, To: m.To}
		if !s.slots.IsSlotAvailable(st.Booking.Date.Time, slot) {
			return
		}
		st.Booking.Slot = &slot
	case ClearBooking:
		st.Booking = booking.Value{}
	}
}

func (s *Session) writeAddon(st *State, key string, fn func(addon.Addon, addon.State) addon.State) {
	a, ok := s.addon(key)
	if !ok {
		return
	}
	st.Addons[key] = fn(a, st.Addons[key])
}

func (s *Session) writeDateRange(st *State, m SetDateRange) {
	if !s.bookingModeIs(booking.ModeDateRange) {
		return
	}
	if m.Start.IsZero() {
		st.Booking = booking.Value{}
		return
	}
	start := m.Start.Time
	if s.calendar.IsRangeDayDisabled(start, nil, false) {
		return
	}
	next := booking.Value{StartDate: m.Start}
	if !m.End.IsZero() && !s.calendar.IsRangeDayDisabled(m.End.Time, &start, true) {
		next.EndDate = m.End
	}
	st.Booking = next
}

func (s *Session) bookingModeIs(modes ...booking.Mode) bool {
	cfg := s.bookingConfig()
	if cfg == nil {
		return false
	}
	for _, m := range modes {
		if cfg.Mode == m {
			return true
		}
	}
	return false
}

func (s *Session) hasAttribute(key string) bool {
	for _, attr := range s.variations.Attributes() {
		if attr.Key == key {
			return true
		}
	}
	return false
}
