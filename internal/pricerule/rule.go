package pricerule

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/productform/internal/calendar"
	"github.com/noah-isme/productform/internal/money"
)

// Condition decides whether a rule applies to a calendar day.
type Condition interface {
	Matches(day time.Time) bool
	condition()
}

// ExactDate matches a single calendar date.
type ExactDate struct {
	Date calendar.Date `json:"date"`
}

// Matches implements Condition.
func (c ExactDate) Matches(day time.Time) bool {
	return !c.Date.IsZero() && calendar.SameDay(c.Date.Time, day)
}

func (ExactDate) condition() {}

// DateRange matches every date between From and To, both inclusive.
type DateRange struct {
	From calendar.Date `json:"from"`
	To   calendar.Date `json:"to"`
}

// Matches implements Condition.
func (c DateRange) Matches(day time.Time) bool {
	if c.From.IsZero() || c.To.IsZero() {
		return false
	}
	d := calendar.Day(day)
	return !d.Before(c.From.Time) && !d.After(c.To.Time)
}

func (DateRange) condition() {}

// DayOfWeek matches dates falling on one of the listed weekdays.
type DayOfWeek struct {
	Days calendar.WeekdaySet
}

// Matches implements Condition.
func (c DayOfWeek) Matches(day time.Time) bool {
	return c.Days.Has(day)
}

func (DayOfWeek) condition() {}

type never struct{}

func (never) Matches(time.Time) bool { return false }
func (never) condition()             {}

// AddonPrices overrides the price of an addon or of its choices. A nil entry
// means the price is not overridden.
type AddonPrices struct {
	Price   *decimal.Decimal            `json:"price"`
	Choices map[string]*decimal.Decimal `json:"choices"`
}

// Prices groups the overrides carried by a rule.
type Prices struct {
	BasePrice *money.Price           `json:"base_price"`
	Addons    map[string]AddonPrices `json:"addons"`
}

// Rule is a custom price rule. Its conditions are OR'd.
type Rule struct {
	Conditions   []Condition
	Prices       Prices
	MinimumPrice decimal.Decimal
}

type ruleJSON struct {
	Conditions   []json.RawMessage `json:"conditions"`
	Prices       Prices            `json:"prices"`
	MinimumPrice decimal.Decimal   `json:"minimum_price"`
}

type conditionJSON struct {
	Type string        `json:"type"`
	Date calendar.Date `json:"date"`
	From calendar.Date `json:"from"`
	To   calendar.Date `json:"to"`
	Days []string      `json:"days"`
}

// UnmarshalJSON decodes a rule, mapping each condition to its concrete type.
// Unknown condition types decode to a condition that never matches.
func (r *Rule) UnmarshalJSON(data []byte) error {
	var raw ruleJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("pricerule: decode rule: %w", err)
	}
	conditions := make([]Condition, 0, len(raw.Conditions))
	for _, item := range raw.Conditions {
		var c conditionJSON
		if err := json.Unmarshal(item, &c); err != nil {
			return fmt.Errorf("pricerule: decode condition: %w", err)
		}
		switch c.Type {
		case "date":
			conditions = append(conditions, ExactDate{Date: c.Date})
		case "date_range":
			conditions = append(conditions, DateRange{From: c.From, To: c.To})
		case "day_of_week":
			conditions = append(conditions, DayOfWeek{Days: calendar.NewWeekdaySet(c.Days)})
		default:
			conditions = append(conditions, never{})
		}
	}
	r.Conditions = conditions
	r.Prices = raw.Prices
	r.MinimumPrice = raw.MinimumPrice
	return nil
}

// Matches reports whether any condition of the rule matches day.
func (r *Rule) Matches(day time.Time) bool {
	for _, c := range r.Conditions {
		if c != nil && c.Matches(day) {
			return true
		}
	}
	return false
}

// BasePrice returns the base price override, or nil.
func (r *Rule) BasePrice() *money.Price {
	if r == nil {
		return nil
	}
	return r.Prices.BasePrice
}

// AddonPrice returns the override for an addon's own price.
func (r *Rule) AddonPrice(addonKey string) (decimal.Decimal, bool) {
	if r == nil {
		return decimal.Zero, false
	}
	prices, ok := r.Prices.Addons[addonKey]
	if !ok || prices.Price == nil {
		return decimal.Zero, false
	}
	return *prices.Price, true
}

// ChoicePrice returns the override for one choice of an addon.
func (r *Rule) ChoicePrice(addonKey, choice string) (decimal.Decimal, bool) {
	if r == nil {
		return decimal.Zero, false
	}
	prices, ok := r.Prices.Addons[addonKey]
	if !ok {
		return decimal.Zero, false
	}
	p, ok := prices.Choices[choice]
	if !ok || p == nil {
		return decimal.Zero, false
	}
	return *p, true
}
