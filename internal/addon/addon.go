// Package addon prices product addons. The set of addon kinds is closed: every
// kind has its own props, selection state and pricing function.
package addon

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind is the wire name of an addon kind.
type Kind string

const (
	KindSwitcher          Kind = "switcher"
	KindNumeric           Kind = "numeric"
	KindSelect            Kind = "select"
	KindMultiselect       Kind = "multiselect"
	KindCustomSelect      Kind = "custom-select"
	KindCustomMultiselect Kind = "custom-multiselect"
)

// Spec is the kind-specific configuration of an addon.
type Spec interface {
	Kind() Kind
	spec()
}

// Addon is one configured addon.
type Addon struct {
	Key      string
	Label    string
	Required bool
	// Repeat makes the price accrue once per day of a date range booking.
	Repeat bool
	Spec   Spec
}

// Kind returns the addon kind, or an empty kind when it is not recognised.
func (a Addon) Kind() Kind {
	if a.Spec == nil {
		return ""
	}
	return a.Spec.Kind()
}

// Switcher is an on/off addon.
type Switcher struct {
	Price decimal.Decimal `json:"price"`
}

// ChargeAfter makes the first Quantity units free.
type ChargeAfter struct {
	Enabled  bool `json:"enabled"`
	Quantity int  `json:"quantity"`
}

// Numeric is a quantity addon priced per unit.
type Numeric struct {
	Price       decimal.Decimal `json:"price"`
	MinUnits    int             `json:"min_units"`
	MaxUnits    int             `json:"max_units"`
	ChargeAfter ChargeAfter     `json:"charge_after"`
}

// Choice is a priced option of a select style addon.
type Choice struct {
	Value string          `json:"value"`
	Label string          `json:"label"`
	Price decimal.Decimal `json:"price"`
}

// Select is a single choice addon.
type Select struct {
	Choices []Choice `json:"choices"`
}

// Multiselect is a multiple choice addon.
type Multiselect struct {
	Choices []Choice `json:"choices"`
}

// QuantityRange is the optional per-choice quantity of custom addons.
type QuantityRange struct {
	Enabled bool `json:"enabled"`
	Min     int  `json:"min"`
	Max     int  `json:"max"`
}

// CustomChoice is a button driven choice with an optional quantity.
type CustomChoice struct {
	Choice
	Quantity QuantityRange `json:"quantity"`
	Image    string        `json:"image,omitempty"`
}

// CustomSelect is the button driven variant of Select.
type CustomSelect struct {
	Choices            []CustomChoice `json:"choices"`
	HasExternalHandler bool           `json:"has_external_handler"`
}

// CustomMultiselect is the button driven variant of Multiselect.
type CustomMultiselect struct {
	Choices            []CustomChoice `json:"choices"`
	HasExternalHandler bool           `json:"has_external_handler"`
}

func (Switcher) Kind() Kind          { return KindSwitcher }
func (Numeric) Kind() Kind           { return KindNumeric }
func (Select) Kind() Kind            { return KindSelect }
func (Multiselect) Kind() Kind       { return KindMultiselect }
func (CustomSelect) Kind() Kind      { return KindCustomSelect }
func (CustomMultiselect) Kind() Kind { return KindCustomMultiselect }

func (Switcher) spec()          {}
func (Numeric) spec()           {}
func (Select) spec()            {}
func (Multiselect) spec()       {}
func (CustomSelect) spec()      {}
func (CustomMultiselect) spec() {}

// unknown keeps addons of unrecognised kinds in the configuration. They never
// produce a line.
type unknown struct {
	kind Kind
}

func (u unknown) Kind() Kind { return u.kind }
func (unknown) spec()        {}

type addonJSON struct {
	Key      string          `json:"key"`
	Label    string          `json:"label"`
	Type     Kind            `json:"type"`
	Required bool            `json:"required"`
	Repeat   bool            `json:"repeat"`
	Props    json.RawMessage `json:"props"`
}

// UnmarshalJSON decodes an addon and its kind specific props.
func (a *Addon) UnmarshalJSON(data []byte) error {
	var raw addonJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("addon: decode: %w", err)
	}
	var spec Spec
	switch raw.Type {
	case KindSwitcher:
		var s Switcher
		if err := decodeProps(raw.Props, &s); err != nil {
			return fmt.Errorf("addon %q: %w", raw.Key, err)
		}
		spec = s
	case KindNumeric:
		var s Numeric
		if err := decodeProps(raw.Props, &s); err != nil {
			return fmt.Errorf("addon %q: %w", raw.Key, err)
		}
		spec = s
	case KindSelect:
		var s Select
		if err := decodeProps(raw.Props, &s); err != nil {
			return fmt.Errorf("addon %q: %w", raw.Key, err)
		}
		spec = s
	case KindMultiselect:
		var s Multiselect
		if err := decodeProps(raw.Props, &s); err != nil {
			return fmt.Errorf("addon %q: %w", raw.Key, err)
		}
		spec = s
	case KindCustomSelect:
		var s CustomSelect
		if err := decodeProps(raw.Props, &s); err != nil {
			return fmt.Errorf("addon %q: %w", raw.Key, err)
		}
		spec = s
	case KindCustomMultiselect:
		var s CustomMultiselect
		if err := decodeProps(raw.Props, &s); err != nil {
			return fmt.Errorf("addon %q: %w", raw.Key, err)
		}
		spec = s
	default:
		spec = unknown{kind: raw.Type}
	}
	*a = Addon{
		Key:      raw.Key,
		Label:    raw.Label,
		Required: raw.Required,
		Repeat:   raw.Repeat,
		Spec:     spec,
	}
	return nil
}

func decodeProps(data json.RawMessage, dst any) error {
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode props: %w", err)
	}
	return nil
}

func findChoice(choices []Choice, value string) (Choice, bool) {
	for _, c := range choices {
		if c.Value == value {
			return c, true
		}
	}
	return Choice{}, false
}

func findCustomChoice(choices []CustomChoice, value string) (CustomChoice, bool) {
	for _, c := range choices {
		if c.Value == value {
			return c, true
		}
	}
	return CustomChoice{}, false
}
