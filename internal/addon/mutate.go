package addon

import "slices"

// Toggle flips a switcher. Required switchers stay on.
func Toggle(a Addon, st State) State {
	if _, isSwitcher := a.Spec.(Switcher); !isSwitcher {
		return st
	}
	s, _ := st.(SwitcherState)
	s.Enabled = !s.Enabled
	return ValidateBounds(a, s)
}

// SetQuantity stores a numeric quantity, clamped to the addon bounds.
func SetQuantity(a Addon, st State, quantity int) State {
	if _, isNumeric := a.Spec.(Numeric); !isNumeric {
		return st
	}
	return ValidateBounds(a, NumericState{Quantity: &quantity})
}

// Choose selects value on a select or custom-select addon. Choosing the
// current custom choice again clears it; an empty value clears a select.
// Required addons cannot be cleared, so those writes keep the current choice.
func Choose(a Addon, st State, value string) State {
	switch spec := a.Spec.(type) {
	case Select:
		if value == "" && a.Required {
			return ValidateBounds(a, st)
		}
		return ValidateBounds(a, SelectState{Selected: value})
	case CustomSelect:
		s, _ := st.(CustomSelectState)
		if s.Selected != nil && s.Selected.Item == value {
			if a.Required {
				return ValidateBounds(a, s)
			}
			return ValidateBounds(a, CustomSelectState{})
		}
		c, ok := findCustomChoice(spec.Choices, value)
		if !ok {
			return ValidateBounds(a, st)
		}
		return ValidateBounds(a, CustomSelectState{Selected: &ItemQuantity{Item: value, Quantity: minQuantity(c)}})
	}
	return st
}

// ToggleChoice adds or removes value on a multiselect or custom-multiselect
// addon. The last selected item of a required addon cannot be removed.
func ToggleChoice(a Addon, st State, value string) State {
	switch spec := a.Spec.(type) {
	case Multiselect:
		s, _ := st.(MultiselectState)
		if i := slices.Index(s.Selected, value); i >= 0 {
			if a.Required && len(s.Selected) == 1 {
				return ValidateBounds(a, s)
			}
			s.Selected = slices.Delete(slices.Clone(s.Selected), i, i+1)
		} else {
			s.Selected = append(slices.Clone(s.Selected), value)
		}
		return ValidateBounds(a, s)
	case CustomMultiselect:
		s, _ := st.(CustomMultiselectState)
		if i := indexOfItem(s.Selected, value); i >= 0 {
			if a.Required && len(s.Selected) == 1 {
				return ValidateBounds(a, s)
			}
			s.Selected = slices.Delete(slices.Clone(s.Selected), i, i+1)
		} else if c, ok := findCustomChoice(spec.Choices, value); ok {
			s.Selected = append(slices.Clone(s.Selected), ItemQuantity{Item: value, Quantity: minQuantity(c)})
		}
		return ValidateBounds(a, s)
	}
	return st
}

// SetChoiceQuantity changes the quantity of a selected custom choice. Choices
// that are not selected are left alone.
func SetChoiceQuantity(a Addon, st State, value string, quantity int) State {
	switch a.Spec.(type) {
	case CustomSelect:
		s, ok := st.(CustomSelectState)
		if !ok || s.Selected == nil || s.Selected.Item != value {
			return st
		}
		return ValidateBounds(a, CustomSelectState{Selected: &ItemQuantity{Item: value, Quantity: quantity}})
	case CustomMultiselect:
		s, ok := st.(CustomMultiselectState)
		if !ok {
			return st
		}
		i := indexOfItem(s.Selected, value)
		if i < 0 {
			return st
		}
		s.Selected = slices.Clone(s.Selected)
		s.Selected[i].Quantity = quantity
		return ValidateBounds(a, s)
	}
	return st
}

// PanelChoices lists the custom choices shown in the addon's own panel. With an
// external handler only choices that are already selected are shown.
func PanelChoices(a Addon, st State) []CustomChoice {
	var choices []CustomChoice
	var external bool
	var selected []string
	switch spec := a.Spec.(type) {
	case CustomSelect:
		choices, external = spec.Choices, spec.HasExternalHandler
		if s, ok := st.(CustomSelectState); ok && s.Selected != nil {
			selected = []string{s.Selected.Item}
		}
	case CustomMultiselect:
		choices, external = spec.Choices, spec.HasExternalHandler
		if s, ok := st.(CustomMultiselectState); ok {
			for _, it := range s.Selected {
				selected = append(selected, it.Item)
			}
		}
	default:
		return nil
	}
	if !external {
		return choices
	}
	visible := make([]CustomChoice, 0, len(selected))
	for _, c := range choices {
		if slices.Contains(selected, c.Value) {
			visible = append(visible, c)
		}
	}
	return visible
}

// Visible reports whether the addon's panel has anything to show.
func Visible(a Addon, st State) bool {
	switch a.Spec.(type) {
	case CustomSelect, CustomMultiselect:
		return len(PanelChoices(a, st)) > 0
	case Switcher, Numeric, Select, Multiselect:
		return true
	}
	return false
}
