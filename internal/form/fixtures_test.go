package form

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const bookingDoc = `{
  "settings": {"product_mode": "booking"},
  "props": {
    "base_price": {"amount": 100},
    "fields": {
      "addons": [
        {"key": "breakfast", "label": "Breakfast", "type": "switcher", "repeat": true, "props": {"price": 10}},
        {"key": "guests", "label": "Guests", "type": "numeric", "props": {"price": 5, "min_units": 1, "max_units": 4}}
      ],
      "booking": {
        "mode": "date_range",
        "count_mode": "nights",
        "availability": {"max_days": 365},
        "date_range": {"min_length": 1, "max_length": 14}
      }
    }
  }
}`

const sundayClosedDoc = `{
  "settings": {"product_mode": "booking"},
  "props": {
    "base_price": {"amount": 80},
    "fields": {
      "booking": {
        "mode": "date_range",
        "count_mode": "days",
        "availability": {"max_days": 60},
        "date_range": {"min_length": 2, "max_length": 5},
        "excluded_weekdays": ["sun"]
      }
    }
  }
}`

const variableDoc = `{
  "settings": {"product_mode": "variable"},
  "props": {
    "base_price": {"amount": 0},
    "fields": {
      "addons": [{"key": "wrap", "type": "switcher", "props": {"price": 3}}],
      "variations": {
        "stock_enabled": true,
        "attributes": [
          {"key": "color", "label": "Color", "choices": [{"value": "red", "label": "Red"}, {"value": "blue", "label": "Blue"}]},
          {"key": "size", "label": "Size", "choices": [{"value": "s", "label": "S"}, {"value": "l", "label": "L"}]}
        ],
        "variations": [
          {"id": "red-s", "attributes": {"color": "red", "size": "s"}, "status": "active", "image": "img-red",
           "config": {"stock": {"enabled": true, "quantity": 3}, "base_price": {"amount": 20}}},
          {"id": "blue-any", "attributes": {"color": "blue", "size": "any"}, "status": "active",
           "config": {"base_price": {"amount": 25, "discount_amount": 22}}}
        ]
      }
    }
  }
}`

const regularDoc = `{
  "settings": {"product_mode": "regular", "search_context": {"addons": {"color": ["blue"]}}},
  "props": {
    "base_price": {"amount": 50, "discount_amount": 45},
    "custom_prices": {"enabled": true, "list": [
      {"conditions": [{"type": "date", "date": "2025-01-01"}], "prices": {"base_price": {"amount": 60}}, "minimum_price": 55},
      {"conditions": [{"type": "day_of_week", "days": ["sat"]}], "prices": {"base_price": {"amount": 70}}}
    ]},
    "fields": {
      "stock": {"enabled": true, "min": 1, "max": 10},
      "addons": [
        {"key": "color", "label": "Color", "type": "select", "required": true,
         "props": {"choices": [{"value": "red", "label": "Red", "price": 0}, {"value": "blue", "label": "Blue", "price": 5}]}}
      ]
    }
  }
}`

const timeslotDoc = `{
  "settings": {"product_mode": "booking"},
  "props": {
    "base_price": {"amount": 30},
    "fields": {
      "booking": {
        "mode": "timeslots",
        "availability": {"max_days": 30},
        "quantity_per_slot": 5,
        "booked_slot_counts": {"2025-01-06 09:00-10:00": 5, "2025-01-06 10:00-11:00": 4},
        "timeslots": {"groups": [{"days": ["mon"], "slots": [{"from": "09:00", "to": "10:00"}, {"from": "10:00", "to": "11:00"}]}]}
      }
    }
  }
}`

func newSession(t *testing.T, doc string, now time.Time) *Session {
	t.Helper()
	d, err := Decode([]byte(doc))
	require.NoError(t, err)
	s, err := NewSession(d, now)
	require.NoError(t, err)
	return s
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func requireAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, got.Equal(dec(want)), "want %s, got %s", want, got)
}
