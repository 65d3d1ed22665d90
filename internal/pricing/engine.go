// Package pricing assembles the itemized price summary of a product form.
package pricing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/productform/internal/booking"
	"github.com/noah-isme/productform/internal/calendar"
	"github.com/noah-isme/productform/internal/money"
	"github.com/noah-isme/productform/internal/pricerule"
)

// Mode is the product mode of a form.
type Mode string

const (
	ModeRegular  Mode = "regular"
	ModeVariable Mode = "variable"
	ModeBooking  Mode = "booking"
)

// Valid reports whether m is a known product mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeRegular, ModeVariable, ModeBooking:
		return true
	}
	return false
}

// Item is one line of the summary. Hidden items are not displayed but still
// count toward the total.
type Item struct {
	Label    string          `json:"label"`
	Amount   decimal.Decimal `json:"amount"`
	Quantity int             `json:"quantity,omitempty"`
	Hidden   bool            `json:"hidden"`
}

// Summary is the priced outcome of one recompute.
type Summary struct {
	Items []Item          `json:"items"`
	Total decimal.Decimal `json:"total_amount"`
}

// Inputs is the full snapshot a summary is computed from.
type Inputs struct {
	Mode      Mode
	BasePrice money.Price
	Rules     *pricerule.Resolver
	// Reference is the day whose rule prices the regular base line.
	Reference time.Time
	// Quantity is the regular mode quantity.
	Quantity int
	// Variation is the resolved variation line, already multiplied by its quantity.
	Variation *money.Line
	// VariationQuantity is the quantity embedded in Variation.
	VariationQuantity int
	Booking           *booking.Config
	BookingValue      booking.Value
	Addons            []money.Line
}

// BasePriceOn returns the effective base price on day: the matched rule's base
// price override if any, otherwise the product base price.
func BasePriceOn(base money.Price, rules *pricerule.Resolver, day time.Time) decimal.Decimal {
	if override := rules.Resolve(day).BasePrice(); override != nil {
		return override.Effective()
	}
	return base.Effective()
}

// Compute builds the summary for in. Every call is a full recompute.
func Compute(in Inputs) Summary {
	switch in.Mode {
	case ModeVariable:
		return computeVariable(in)
	case ModeBooking:
		return computeBooking(in)
	default:
		return computeRegular(in)
	}
}

func computeRegular(in Inputs) Summary {
	items := make([]Item, 0, len(in.Addons)+1)
	items = append(items, Item{
		Label:  "Base price",
		Amount: BasePriceOn(in.BasePrice, in.Rules, in.Reference),
		Hidden: len(in.Addons) > 0,
	})
	items = appendLines(items, in.Addons)
	quantity := in.Quantity
	if quantity < 1 {
		quantity = 1
	}
	return Summary{Items: items, Total: money.Times(sum(items), quantity)}
}

func computeVariable(in Inputs) Summary {
	items := make([]Item, 0, 2)
	if in.Variation != nil {
		items = appendLines(items, []money.Line{*in.Variation})
		if in.VariationQuantity > 1 {
			items = append(items, Item{Label: "Quantity", Amount: decimal.Zero, Quantity: in.VariationQuantity})
		}
	}
	return Summary{Items: items, Total: sum(items)}
}

func computeBooking(in Inputs) Summary {
	items := make([]Item, 0, len(in.Addons)+1)
	if line := BookingLine(in.Booking, in.BookingValue, in.BasePrice, in.Rules); line != nil {
		items = append(items, Item{
			Label:    line.Label,
			Amount:   line.Amount,
			Quantity: line.Quantity,
			Hidden:   line.Amount.IsZero(),
		})
	}
	items = appendLines(items, in.Addons)
	return Summary{Items: items, Total: sum(items)}
}

// BookingLine prices the booking value. Date ranges accrue the base price of
// every day in the repeat window. It returns nil while the booking is incomplete.
func BookingLine(cfg *booking.Config, v booking.Value, base money.Price, rules *pricerule.Resolver) *money.Line {
	if cfg == nil {
		return nil
	}
	switch cfg.Mode {
	case booking.ModeDateRange:
		days, ok := booking.RepeatDays(cfg, v)
		if !ok {
			return nil
		}
		total := decimal.Zero
		for _, day := range days {
			total = total.Add(BasePriceOn(base, rules, day))
		}
		return &money.Line{
			Label:    lengthLabel(len(days), cfg.Counting()),
			Amount:   total,
			Quantity: len(days),
		}
	case booking.ModeSingleDay:
		if v.Date.IsZero() {
			return nil
		}
		return &money.Line{
			Label:    calendar.Format(v.Date.Time),
			Amount:   BasePriceOn(base, rules, v.Date.Time),
			Quantity: 1,
		}
	case booking.ModeTimeslots:
		if v.Date.IsZero() || v.Slot == nil {
			return nil
		}
		return &money.Line{
			Label:    fmt.Sprintf("%s %s–%s", calendar.Format(v.Date.Time), v.Slot.From, v.Slot.To),
			Amount:   BasePriceOn(base, rules, v.Date.Time),
			Quantity: 1,
		}
	}
	return nil
}

func lengthLabel(n int, mode booking.CountMode) string {
	unit := "night"
	if mode == booking.CountDays {
		unit = "day"
	}
	if n != 1 {
		unit += "s"
	}
	return fmt.Sprintf("%d %s", n, unit)
}

func appendLines(items []Item, lines []money.Line) []Item {
	for _, l := range lines {
		items = append(items, Item{Label: l.Label, Amount: l.Amount, Quantity: l.Quantity})
	}
	return items
}

func sum(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Amount)
	}
	return total
}
