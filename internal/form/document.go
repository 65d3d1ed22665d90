// Package form ties the pricing components together into a product form
// session: it decodes the configuration document, computes default selections,
// applies user mutations and recomputes the price summary.
package form

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/productform/internal/addon"
	"github.com/noah-isme/productform/internal/booking"
	"github.com/noah-isme/productform/internal/money"
	"github.com/noah-isme/productform/internal/pricerule"
	"github.com/noah-isme/productform/internal/pricing"
	"github.com/noah-isme/productform/internal/variation"
)

var (
	// ErrInvalidDocument is returned when a configuration document cannot back a session.
	ErrInvalidDocument = errors.New("form: invalid document")
	// ErrNotBooking is returned by booking queries on a form without that booking mode.
	ErrNotBooking = errors.New("form: booking query not supported by product mode")
)

// Document is the configuration document of one product form.
type Document struct {
	Settings Settings        `json:"settings"`
	Props    Props           `json:"props"`
	Value    json.RawMessage `json:"value,omitempty"`
}

// Settings holds the product mode and the search context the form was opened with.
type Settings struct {
	ProductMode   pricing.Mode  `json:"product_mode"`
	SearchContext SearchContext `json:"search_context"`
}

// Props is the read-only product configuration.
type Props struct {
	BasePrice    money.Price     `json:"base_price"`
	MinimumPrice decimal.Decimal `json:"minimum_price"`
	CustomPrices CustomPrices    `json:"custom_prices"`
	Fields       Fields          `json:"fields"`
}

// CustomPrices is the custom price rule list.
type CustomPrices struct {
	Enabled bool             `json:"enabled"`
	List    []pricerule.Rule `json:"list"`
}

// Fields is the per-field configuration. Absent fields are nil.
type Fields struct {
	Addons     []addon.Addon     `json:"addons"`
	Stock      *StockField       `json:"stock"`
	Variations *variation.Config `json:"variations"`
	Booking    *booking.Config   `json:"booking"`
}

// StockField is the regular mode quantity field.
type StockField struct {
	Enabled bool `json:"enabled"`
	Min     int  `json:"min"`
	Max     int  `json:"max"`
}

// Bounds returns the allowed quantity range. A zero max leaves the quantity unbounded.
func (f *StockField) Bounds() (lo, hi int) {
	if f == nil || !f.Enabled {
		return 1, 1
	}
	lo = max(1, f.Min)
	hi = f.Max
	if hi > 0 && hi < lo {
		hi = lo
	}
	return lo, hi
}

// Decode parses a configuration document.
func Decode(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return doc, nil
}

func (d Document) validate() error {
	mode := d.Settings.ProductMode
	if mode == "" {
		mode = pricing.ModeRegular
	}
	if !mode.Valid() {
		return fmt.Errorf("%w: unknown product mode %q", ErrInvalidDocument, d.Settings.ProductMode)
	}
	switch mode {
	case pricing.ModeVariable:
		if d.Props.Fields.Variations == nil {
			return fmt.Errorf("%w: variable product without variations field", ErrInvalidDocument)
		}
		seen := make(map[string]struct{}, len(d.Props.Fields.Variations.Attributes))
		for _, attr := range d.Props.Fields.Variations.Attributes {
			if _, dup := seen[attr.Key]; dup || attr.Key == "" {
				return fmt.Errorf("%w: attribute key %q is empty or repeated", ErrInvalidDocument, attr.Key)
			}
			seen[attr.Key] = struct{}{}
		}
	case pricing.ModeBooking:
		cfg := d.Props.Fields.Booking
		if cfg == nil {
			return fmt.Errorf("%w: booking product without booking field", ErrInvalidDocument)
		}
		if !cfg.Mode.Valid() {
			return fmt.Errorf("%w: unknown booking mode %q", ErrInvalidDocument, cfg.Mode)
		}
	}
	seen := make(map[string]struct{}, len(d.Props.Fields.Addons))
	for _, a := range d.Props.Fields.Addons {
		if _, dup := seen[a.Key]; dup || a.Key == "" {
			return fmt.Errorf("%w: addon key %q is empty or repeated", ErrInvalidDocument, a.Key)
		}
		seen[a.Key] = struct{}{}
	}
	return nil
}
