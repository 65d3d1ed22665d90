package addon

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// State is the selection state of one addon. Its concrete type follows the addon kind.
type State interface {
	state()
}

// SwitcherState records whether a switcher is on.
type SwitcherState struct {
	Enabled bool `json:"enabled"`
}

// NumericState holds the chosen quantity. A nil quantity is unset.
type NumericState struct {
	Quantity *int `json:"quantity"`
}

// Value returns the quantity, treating unset as zero.
func (s NumericState) Value() int {
	if s.Quantity == nil {
		return 0
	}
	return *s.Quantity
}

// SelectState holds the selected choice value, empty when nothing is selected.
type SelectState struct {
	Selected string `json:"selected"`
}

// MultiselectState holds the selected choice values.
type MultiselectState struct {
	Selected []string `json:"selected"`
}

// ItemQuantity is a selected custom choice with its quantity.
type ItemQuantity struct {
	Item     string `json:"item"`
	Quantity int    `json:"quantity"`
}

// CustomSelectState holds the selected custom choice, nil when nothing is selected.
type CustomSelectState struct {
	Selected *ItemQuantity `json:"selected"`
}

// CustomMultiselectState holds the selected custom choices.
type CustomMultiselectState struct {
	Selected []ItemQuantity `json:"selected"`
}

func (SwitcherState) state()          {}
func (NumericState) state()           {}
func (SelectState) state()            {}
func (MultiselectState) state()       {}
func (CustomSelectState) state()      {}
func (CustomMultiselectState) state() {}

// DecodeState decodes a stored state for a. Decoding never fails: values that
// cannot be read are treated as unset and left to ValidateBounds.
func DecodeState(a Addon, data json.RawMessage) State {
	switch a.Spec.(type) {
	case Switcher:
		var raw struct {
			Enabled json.RawMessage `json:"enabled"`
		}
		_ = json.Unmarshal(data, &raw)
		return SwitcherState{Enabled: looseBool(raw.Enabled)}
	case Numeric:
		var raw struct {
			Quantity json.RawMessage `json:"quantity"`
		}
		_ = json.Unmarshal(data, &raw)
		return NumericState{Quantity: looseInt(raw.Quantity)}
	case Select:
		var s SelectState
		if json.Unmarshal(data, &s) != nil {
			return SelectState{}
		}
		return s
	case Multiselect:
		var s MultiselectState
		if json.Unmarshal(data, &s) != nil {
			return MultiselectState{}
		}
		return s
	case CustomSelect:
		var raw struct {
			Selected *itemJSON `json:"selected"`
		}
		if json.Unmarshal(data, &raw) != nil || raw.Selected == nil || raw.Selected.Item == "" {
			return CustomSelectState{}
		}
		item := raw.Selected.value()
		return CustomSelectState{Selected: &item}
	case CustomMultiselect:
		var raw struct {
			Selected []itemJSON `json:"selected"`
		}
		if json.Unmarshal(data, &raw) != nil {
			return CustomMultiselectState{}
		}
		out := CustomMultiselectState{}
		for _, it := range raw.Selected {
			if it.Item == "" {
				continue
			}
			out.Selected = append(out.Selected, it.value())
		}
		return out
	}
	return nil
}

type itemJSON struct {
	Item     string          `json:"item"`
	Quantity json.RawMessage `json:"quantity"`
}

func (i itemJSON) value() ItemQuantity {
	q := 0
	if v := looseInt(i.Quantity); v != nil {
		q = *v
	}
	return ItemQuantity{Item: i.Item, Quantity: q}
}

// looseInt reads a JSON number or numeric string. Fractions are truncated.
func looseInt(data json.RawMessage) *int {
	text := strings.TrimSpace(string(bytes.Trim(bytes.TrimSpace(data), `"`)))
	if text == "" || text == "null" {
		return nil
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return nil
	}
	v := int(d.IntPart())
	return &v
}

func looseBool(data json.RawMessage) bool {
	switch strings.ToLower(strings.TrimSpace(string(bytes.Trim(bytes.TrimSpace(data), `"`)))) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}
