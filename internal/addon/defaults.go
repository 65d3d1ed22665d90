package addon

import (
	"slices"
	"strconv"
	"strings"
)

// DefaultState computes the initial state of a. search holds the values the
// search context carries for the addon, if any.
func DefaultState(a Addon, search []string) State {
	switch spec := a.Spec.(type) {
	case Switcher:
		return SwitcherState{Enabled: a.Required || len(search) > 0}
	case Numeric:
		quantity := 0
		if a.Required {
			quantity = spec.MinUnits
		}
		if len(search) > 0 {
			if v, err := strconv.Atoi(strings.TrimSpace(search[0])); err == nil && v >= spec.MinUnits && v <= spec.MaxUnits {
				quantity = v
			}
		}
		return NumericState{Quantity: &quantity}
	case Select:
		for _, v := range search {
			if _, ok := findChoice(spec.Choices, v); ok {
				return SelectState{Selected: v}
			}
		}
		if a.Required && len(spec.Choices) > 0 {
			return SelectState{Selected: spec.Choices[0].Value}
		}
		return SelectState{}
	case Multiselect:
		st := MultiselectState{}
		for _, v := range search {
			if _, ok := findChoice(spec.Choices, v); ok && !slices.Contains(st.Selected, v) {
				st.Selected = append(st.Selected, v)
			}
		}
		if len(st.Selected) == 0 && a.Required && len(spec.Choices) > 0 {
			st.Selected = []string{spec.Choices[0].Value}
		}
		return st
	case CustomSelect:
		for _, v := range search {
			if c, ok := findCustomChoice(spec.Choices, v); ok {
				return CustomSelectState{Selected: &ItemQuantity{Item: v, Quantity: minQuantity(c)}}
			}
		}
		if a.Required && len(spec.Choices) > 0 {
			c := spec.Choices[0]
			return CustomSelectState{Selected: &ItemQuantity{Item: c.Value, Quantity: minQuantity(c)}}
		}
		return CustomSelectState{}
	case CustomMultiselect:
		st := CustomMultiselectState{}
		for _, v := range search {
			if c, ok := findCustomChoice(spec.Choices, v); ok && indexOfItem(st.Selected, v) < 0 {
				st.Selected = append(st.Selected, ItemQuantity{Item: v, Quantity: minQuantity(c)})
			}
		}
		if len(st.Selected) == 0 && a.Required && len(spec.Choices) > 0 {
			c := spec.Choices[0]
			st.Selected = []ItemQuantity{{Item: c.Value, Quantity: minQuantity(c)}}
		}
		return st
	}
	return nil
}

// EffectiveMin is the lowest quantity a numeric addon may hold: zero for
// optional addons, the configured minimum for required ones.
func EffectiveMin(a Addon, spec Numeric) int {
	if a.Required {
		return max(0, spec.MinUnits)
	}
	return 0
}

// ValidateBounds normalises st against the configuration of a: quantities are
// clamped, unknown choices dropped, and required addons kept selected. A state
// of the wrong kind is replaced by the default state.
func ValidateBounds(a Addon, st State) State {
	switch spec := a.Spec.(type) {
	case Switcher:
		s, ok := st.(SwitcherState)
		if !ok {
			return DefaultState(a, nil)
		}
		s.Enabled = s.Enabled || a.Required
		return s
	case Numeric:
		s, ok := st.(NumericState)
		if !ok {
			return DefaultState(a, nil)
		}
		lo := EffectiveMin(a, spec)
		hi := max(spec.MaxUnits, lo)
		quantity := lo
		if s.Quantity != nil {
			quantity = min(max(*s.Quantity, lo), hi)
		}
		return NumericState{Quantity: &quantity}
	case Select:
		s, ok := st.(SelectState)
		if !ok {
			return DefaultState(a, nil)
		}
		if _, found := findChoice(spec.Choices, s.Selected); !found {
			s.Selected = ""
		}
		if s.Selected == "" && a.Required && len(spec.Choices) > 0 {
			s.Selected = spec.Choices[0].Value
		}
		return s
	case Multiselect:
		s, ok := st.(MultiselectState)
		if !ok {
			return DefaultState(a, nil)
		}
		out := MultiselectState{}
		for _, v := range s.Selected {
			if _, found := findChoice(spec.Choices, v); found && !slices.Contains(out.Selected, v) {
				out.Selected = append(out.Selected, v)
			}
		}
		if len(out.Selected) == 0 && a.Required && len(spec.Choices) > 0 {
			out.Selected = []string{spec.Choices[0].Value}
		}
		return out
	case CustomSelect:
		s, ok := st.(CustomSelectState)
		if !ok {
			return DefaultState(a, nil)
		}
		if s.Selected != nil {
			c, found := findCustomChoice(spec.Choices, s.Selected.Item)
			if !found {
				return ValidateBounds(a, CustomSelectState{})
			}
			return CustomSelectState{Selected: &ItemQuantity{Item: c.Value, Quantity: clampItem(c, s.Selected.Quantity)}}
		}
		if a.Required && len(spec.Choices) > 0 {
			c := spec.Choices[0]
			return CustomSelectState{Selected: &ItemQuantity{Item: c.Value, Quantity: minQuantity(c)}}
		}
		return CustomSelectState{}
	case CustomMultiselect:
		s, ok := st.(CustomMultiselectState)
		if !ok {
			return DefaultState(a, nil)
		}
		out := CustomMultiselectState{}
		for _, item := range s.Selected {
			c, found := findCustomChoice(spec.Choices, item.Item)
			if !found || indexOfItem(out.Selected, item.Item) >= 0 {
				continue
			}
			out.Selected = append(out.Selected, ItemQuantity{Item: c.Value, Quantity: clampItem(c, item.Quantity)})
		}
		if len(out.Selected) == 0 && a.Required && len(spec.Choices) > 0 {
			c := spec.Choices[0]
			out.Selected = []ItemQuantity{{Item: c.Value, Quantity: minQuantity(c)}}
		}
		return out
	}
	return st
}

func minQuantity(c CustomChoice) int {
	if !c.Quantity.Enabled {
		return 1
	}
	return max(1, c.Quantity.Min)
}

// clampItem keeps a selected custom choice's quantity in its [min, max] range.
// Choices without a quantity always count once.
func clampItem(c CustomChoice, quantity int) int {
	lo := minQuantity(c)
	if !c.Quantity.Enabled {
		return lo
	}
	hi := c.Quantity.Max
	if hi < lo {
		hi = lo
	}
	return min(max(quantity, lo), hi)
}

func indexOfItem(items []ItemQuantity, value string) int {
	for i, it := range items {
		if it.Item == value {
			return i
		}
	}
	return -1
}
