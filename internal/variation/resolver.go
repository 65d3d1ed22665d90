package variation

import (
	"strings"

	"github.com/noah-isme/productform/internal/money"
)

// Resolution is the outcome of a resolution pass.
type Resolution struct {
	State     State
	Variation *Variation
	// FellBack is set when the selections matched nothing and were rewritten
	// from the first active variation.
	FellBack bool
	// ScrollToImage carries the image of the resolved variation, if any, so the
	// display layer can bring it into view.
	ScrollToImage string
}

// Resolver resolves selections against a fixed configuration. Attributes are
// always walked in their declared order.
type Resolver struct {
	cfg    Config
	active []int
}

// NewResolver indexes the active variations of cfg.
func NewResolver(cfg Config) *Resolver {
	r := &Resolver{cfg: cfg}
	for i, v := range cfg.Variations {
		if v.Active() {
			r.active = append(r.active, i)
		}
	}
	return r
}

// Attributes returns the configured attributes in declared order.
func (r *Resolver) Attributes() []Attribute {
	return r.cfg.Attributes
}

// Find returns the variation with id, or nil.
func (r *Resolver) Find(id string) *Variation {
	if id == "" {
		return nil
	}
	for i := range r.cfg.Variations {
		if r.cfg.Variations[i].ID == id {
			return &r.cfg.Variations[i]
		}
	}
	return nil
}

// SetDefaultSelection seeds the selections from the first active variation and
// resolves them.
func (r *Resolver) SetDefaultSelection(state State) (Resolution, error) {
	state = state.Clone()
	if len(r.active) == 0 {
		return r.unresolved(state)
	}
	state.Selections = r.selectionsFrom(&r.cfg.Variations[r.active[0]])
	return r.Validate(state)
}

// SetAttribute records the customer's choice for key and resolves the selections.
// Unknown attribute keys leave the selections untouched.
func (r *Resolver) SetAttribute(state State, key, value string) (Resolution, error) {
	state = state.Clone()
	if r.attribute(key) != nil {
		if state.Selections == nil {
			state.Selections = make(map[string]string, len(r.cfg.Attributes))
		}
		state.Selections[key] = value
	}
	return r.Validate(state)
}

// Validate filters the active variations attribute by attribute. When no
// variation survives, the selections are rewritten from the first active
// variation. The quantity is reconciled against the resolved variation's stock.
func (r *Resolver) Validate(state State) (Resolution, error) {
	state = state.Clone()
	if len(r.active) == 0 {
		return r.unresolved(state)
	}

	candidates := r.active
	fellBack := false
	for _, attr := range r.cfg.Attributes {
		selected := state.Selections[attr.Key]
		next := make([]int, 0, len(candidates))
		for _, idx := range candidates {
			if r.cfg.Variations[idx].accepts(attr.Key, selected) {
				next = append(next, idx)
			}
		}
		if len(next) == 0 {
			fellBack = true
			break
		}
		candidates = next
	}

	var resolved *Variation
	if fellBack {
		resolved = &r.cfg.Variations[r.active[0]]
		state.Selections = r.selectionsFrom(resolved)
	} else {
		resolved = &r.cfg.Variations[candidates[0]]
		state.Selections = r.complete(state.Selections, resolved)
	}

	state.VariationID = resolved.ID
	state.SelectedAttributes = nil
	for _, attr := range r.cfg.Attributes {
		if resolved.value(attr.Key) != Any {
			continue
		}
		if state.SelectedAttributes == nil {
			state.SelectedAttributes = make(map[string]string)
		}
		state.SelectedAttributes[attr.Key] = state.Selections[attr.Key]
	}
	state.Quantity = r.reconcileQuantity(resolved, state.Quantity)

	return Resolution{
		State:         state,
		Variation:     resolved,
		FellBack:      fellBack,
		ScrollToImage: resolved.Image,
	}, nil
}

// SetQuantity stores quantity and clamps it against the current variation.
func (r *Resolver) SetQuantity(state State, quantity int) State {
	state = state.Clone()
	state.Quantity = r.reconcileQuantity(r.Find(state.VariationID), quantity)
	return state
}

// Tracked reports whether quantities are limited by the stock of v.
func (r *Resolver) Tracked(v *Variation) bool {
	return v != nil && r.cfg.StockEnabled && v.Config.Stock.Enabled && !v.Config.Stock.SoldIndividually
}

func (r *Resolver) reconcileQuantity(v *Variation, quantity int) int {
	if !r.Tracked(v) {
		return 1
	}
	if quantity > v.Config.Stock.Quantity {
		quantity = v.Config.Stock.Quantity
	}
	if quantity < 1 {
		quantity = 1
	}
	return quantity
}

// SummaryLine prices the resolved variation. It returns nil when the state has
// no resolved variation.
func (r *Resolver) SummaryLine(state State) *money.Line {
	v := r.Find(state.VariationID)
	if v == nil {
		return nil
	}
	quantity := 1
	if r.Tracked(v) && state.Quantity > 1 {
		quantity = state.Quantity
	}
	labels := make([]string, 0, len(r.cfg.Attributes))
	for _, attr := range r.cfg.Attributes {
		value := v.value(attr.Key)
		if value == Any {
			value = state.Selections[attr.Key]
		}
		if value == "" {
			continue
		}
		labels = append(labels, attr.ChoiceLabel(value))
	}
	return &money.Line{
		Label:    strings.Join(labels, " / "),
		Amount:   money.Times(v.Config.BasePrice.Effective(), quantity),
		Quantity: quantity,
	}
}

func (r *Resolver) unresolved(state State) (Resolution, error) {
	state.VariationID = ""
	state.SelectedAttributes = nil
	if state.Quantity < 1 {
		state.Quantity = 1
	}
	return Resolution{State: state}, ErrNoActiveVariation
}

func (r *Resolver) attribute(key string) *Attribute {
	for i := range r.cfg.Attributes {
		if r.cfg.Attributes[i].Key == key {
			return &r.cfg.Attributes[i]
		}
	}
	return nil
}

// complete fills every attribute missing from selections with v's value for
// it, so selections are never partial once resolved.
func (r *Resolver) complete(selections map[string]string, v *Variation) map[string]string {
	defaults := r.selectionsFrom(v)
	if selections == nil {
		return defaults
	}
	for key, value := range defaults {
		if selections[key] == "" {
			selections[key] = value
		}
	}
	return selections
}

// selectionsFrom copies v's values for every attribute, replacing wildcards
// with the attribute's first choice.
func (r *Resolver) selectionsFrom(v *Variation) map[string]string {
	selections := make(map[string]string, len(r.cfg.Attributes))
	for _, attr := range r.cfg.Attributes {
		value := v.value(attr.Key)
		if value == Any {
			if first, ok := attr.FirstChoice(); ok {
				value = first
			}
		}
		selections[attr.Key] = value
	}
	return selections
}
