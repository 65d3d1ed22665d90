package addon

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/productform/internal/money"
	"github.com/noah-isme/productform/internal/pricerule"
)

// PriceContext carries what addon prices depend on besides the addon itself.
type PriceContext struct {
	Rules *pricerule.Resolver
	// Reference is the day whose rule applies outside a repeat window.
	Reference time.Time
	// RepeatDays is the repeat window of a saved date range booking. It is
	// empty when no such window exists.
	RepeatDays []time.Time
}

type override func(*pricerule.Rule) (decimal.Decimal, bool)

// unitPrice prices one unit of an addon or choice. Repeat addons accrue the
// day's price for every day of the window.
func (c PriceContext) unitPrice(a Addon, base decimal.Decimal, over override) decimal.Decimal {
	priceOn := func(day time.Time) decimal.Decimal {
		if p, ok := over(c.Rules.Resolve(day)); ok {
			return p
		}
		return base
	}
	if !a.Repeat || len(c.RepeatDays) == 0 {
		return priceOn(c.Reference)
	}
	total := decimal.Zero
	for _, day := range c.RepeatDays {
		total = total.Add(priceOn(day))
	}
	return total
}

func addonOverride(key string) override {
	return func(r *pricerule.Rule) (decimal.Decimal, bool) { return r.AddonPrice(key) }
}

func choiceOverride(key, choice string) override {
	return func(r *pricerule.Rule) (decimal.Decimal, bool) { return r.ChoicePrice(key, choice) }
}

func quantityLabel(label string, quantity int) string {
	if quantity > 1 {
		return fmt.Sprintf("%s × %d", label, quantity)
	}
	return label
}

func choiceLabel(a Addon, c Choice) string {
	label := c.Label
	if label == "" {
		label = c.Value
	}
	if a.Label == "" {
		return label
	}
	return a.Label + ": " + label
}

// SwitcherLine prices an enabled switcher. It returns nil when the switcher is off.
func SwitcherLine(a Addon, spec Switcher, st SwitcherState, ctx PriceContext) *money.Line {
	if !st.Enabled {
		return nil
	}
	return &money.Line{
		Label:    a.Label,
		Amount:   ctx.unitPrice(a, spec.Price, addonOverride(a.Key)),
		Quantity: 1,
	}
}

// NumericLine prices the chosen units, skipping the free ones when charge-after
// is enabled. It returns nil when no unit is chosen.
func NumericLine(a Addon, spec Numeric, st NumericState, ctx PriceContext) *money.Line {
	quantity := st.Value()
	if quantity <= 0 {
		return nil
	}
	charged := quantity
	if spec.ChargeAfter.Enabled {
		charged = max(0, quantity-spec.ChargeAfter.Quantity)
	}
	unit := ctx.unitPrice(a, spec.Price, addonOverride(a.Key))
	return &money.Line{
		Label:    quantityLabel(a.Label, quantity),
		Amount:   money.Times(unit, charged),
		Quantity: quantity,
	}
}

// SelectLine prices the selected choice. It returns nil when nothing valid is selected.
func SelectLine(a Addon, spec Select, st SelectState, ctx PriceContext) *money.Line {
	c, ok := findChoice(spec.Choices, st.Selected)
	if st.Selected == "" || !ok {
		return nil
	}
	return &money.Line{
		Label:    choiceLabel(a, c),
		Amount:   ctx.unitPrice(a, c.Price, choiceOverride(a.Key, c.Value)),
		Quantity: 1,
	}
}

// MultiselectLines returns one line per selected choice, in configured order.
func MultiselectLines(a Addon, spec Multiselect, st MultiselectState, ctx PriceContext) []money.Line {
	if len(st.Selected) == 0 {
		return []money.Line{}
	}
	selected := make(map[string]struct{}, len(st.Selected))
	for _, v := range st.Selected {
		selected[v] = struct{}{}
	}
	lines := make([]money.Line, 0, len(st.Selected))
	for _, c := range spec.Choices {
		if _, ok := selected[c.Value]; !ok {
			continue
		}
		lines = append(lines, money.Line{
			Label:    choiceLabel(a, c),
			Amount:   ctx.unitPrice(a, c.Price, choiceOverride(a.Key, c.Value)),
			Quantity: 1,
		})
	}
	return lines
}

func customLine(a Addon, c CustomChoice, quantity int, ctx PriceContext) money.Line {
	if !c.Quantity.Enabled || quantity < 1 {
		quantity = 1
	}
	unit := ctx.unitPrice(a, c.Price, choiceOverride(a.Key, c.Value))
	return money.Line{
		Label:    quantityLabel(choiceLabel(a, c.Choice), quantity),
		Amount:   money.Times(unit, quantity),
		Quantity: quantity,
	}
}

// CustomSelectLine prices the selected custom choice times its quantity.
func CustomSelectLine(a Addon, spec CustomSelect, st CustomSelectState, ctx PriceContext) *money.Line {
	if st.Selected == nil {
		return nil
	}
	c, ok := findCustomChoice(spec.Choices, st.Selected.Item)
	if !ok {
		return nil
	}
	line := customLine(a, c, st.Selected.Quantity, ctx)
	return &line
}

// CustomMultiselectLines returns one line per selected custom choice.
func CustomMultiselectLines(a Addon, spec CustomMultiselect, st CustomMultiselectState, ctx PriceContext) []money.Line {
	lines := make([]money.Line, 0, len(st.Selected))
	for _, item := range st.Selected {
		c, ok := findCustomChoice(spec.Choices, item.Item)
		if !ok {
			continue
		}
		lines = append(lines, customLine(a, c, item.Quantity, ctx))
	}
	return lines
}

// Lines prices a of any kind. A state that does not match the addon kind, or
// an addon of unknown kind, produces no lines.
func Lines(a Addon, st State, ctx PriceContext) []money.Line {
	switch spec := a.Spec.(type) {
	case Switcher:
		s, ok := st.(SwitcherState)
		if !ok {
			return nil
		}
		return single(SwitcherLine(a, spec, s, ctx))
	case Numeric:
		s, ok := st.(NumericState)
		if !ok {
			return nil
		}
		return single(NumericLine(a, spec, s, ctx))
	case Select:
		s, ok := st.(SelectState)
		if !ok {
			return nil
		}
		return single(SelectLine(a, spec, s, ctx))
	case Multiselect:
		s, ok := st.(MultiselectState)
		if !ok {
			return nil
		}
		return MultiselectLines(a, spec, s, ctx)
	case CustomSelect:
		s, ok := st.(CustomSelectState)
		if !ok {
			return nil
		}
		return single(CustomSelectLine(a, spec, s, ctx))
	case CustomMultiselect:
		s, ok := st.(CustomMultiselectState)
		if !ok {
			return nil
		}
		return CustomMultiselectLines(a, spec, s, ctx)
	}
	return nil
}

func single(line *money.Line) []money.Line {
	if line == nil {
		return nil
	}
	return []money.Line{*line}
}
