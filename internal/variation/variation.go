// Package variation resolves partial attribute selections to one concrete
// product variation.
package variation

import (
	"errors"

	"github.com/noah-isme/productform/internal/money"
)

// Any is the wildcard attribute value: the variation accepts whatever the
// customer picked for that attribute.
const Any = "any"

// ErrNoActiveVariation is returned when the configuration has no active
// variation to resolve to. Callers present an out-of-stock state.
var ErrNoActiveVariation = errors.New("variation: no active variation")

// Status is the sale status of a variation.
type Status string

const (
	StatusActive     Status = "active"
	StatusOutOfStock Status = "out_of_stock"
)

// Choice is one selectable value of an attribute.
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Attribute is a product attribute with its choices in display order.
type Attribute struct {
	Key     string   `json:"key"`
	Label   string   `json:"label"`
	Choices []Choice `json:"choices"`
}

// FirstChoice returns the value of the first configured choice.
func (a Attribute) FirstChoice() (string, bool) {
	if len(a.Choices) == 0 {
		return "", false
	}
	return a.Choices[0].Value, true
}

// ChoiceLabel returns the label of value, or value itself when it is not a known choice.
func (a Attribute) ChoiceLabel(value string) string {
	for _, c := range a.Choices {
		if c.Value == value {
			if c.Label != "" {
				return c.Label
			}
			break
		}
	}
	return value
}

// Stock is the stock configuration of a variation.
type Stock struct {
	Enabled          bool `json:"enabled"`
	Quantity         int  `json:"quantity"`
	SoldIndividually bool `json:"sold_individually"`
}

// VariationConfig holds the per-variation stock and price.
type VariationConfig struct {
	Stock     Stock       `json:"stock"`
	BasePrice money.Price `json:"base_price"`
}

// Variation is one concrete purchasable combination of attribute values.
type Variation struct {
	ID         string            `json:"id"`
	Attributes map[string]string `json:"attributes"`
	Status     Status            `json:"status"`
	Config     VariationConfig   `json:"config"`
	Image      string            `json:"image,omitempty"`
}

// Active reports whether the variation can be sold.
func (v Variation) Active() bool {
	return v.Status == StatusActive
}

// value returns the stored value for key. A missing value is a wildcard.
func (v Variation) value(key string) string {
	val, ok := v.Attributes[key]
	if !ok || val == "" {
		return Any
	}
	return val
}

func (v Variation) accepts(key, selected string) bool {
	val := v.value(key)
	return val == Any || val == selected
}

// Config is the variations field configuration.
type Config struct {
	Attributes   []Attribute `json:"attributes"`
	Variations   []Variation `json:"variations"`
	StockEnabled bool        `json:"stock_enabled"`
}

// State is the variation selection state.
type State struct {
	Selections         map[string]string `json:"selections"`
	SelectedAttributes map[string]string `json:"selected_attributes"`
	VariationID        string            `json:"variation_id"`
	Quantity           int               `json:"quantity"`
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := s
	out.Selections = cloneMap(s.Selections)
	out.SelectedAttributes = cloneMap(s.SelectedAttributes)
	return out
}

func cloneMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
