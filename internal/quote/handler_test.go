package quote_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/productform/internal/form"
	"github.com/noah-isme/productform/internal/formstore"
)

func TestFormStorage(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodGet, "/api/v1/forms/stay-1", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, "NOT_FOUND", decodeBody[errorResponse](t, rr).Error.Code)

	rr = f.do(t, http.MethodPut, "/api/v1/forms/stay-1", map[string]any{"document": json.RawMessage(stayDoc)})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	saved := decodeBody[struct {
		Data formstore.Record `json:"data"`
	}](t, rr)
	require.Equal(t, int64(1), saved.Data.Revision)
	require.Equal(t, december20, saved.Data.UpdatedAt)

	rr = f.do(t, http.MethodGet, "/api/v1/forms/stay-1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	got := decodeBody[struct {
		Data formstore.Record `json:"data"`
	}](t, rr)
	require.JSONEq(t, stayDoc, string(got.Data.Document))

	t.Run("stale revision", func(t *testing.T) {
		rr := f.do(t, http.MethodPut, "/api/v1/forms/stay-1", map[string]any{"document": json.RawMessage(stayDoc), "revision": 0})
		require.Equal(t, http.StatusConflict, rr.Code)
		require.Equal(t, "REVISION_CONFLICT", decodeBody[errorResponse](t, rr).Error.Code)
	})

	t.Run("invalid document is not stored", func(t *testing.T) {
		rr := f.do(t, http.MethodPut, "/api/v1/forms/bad", map[string]any{"document": json.RawMessage(`{"settings": {"product_mode": "subscription"}}`)})
		require.Equal(t, http.StatusBadRequest, rr.Code)
		require.Equal(t, "INVALID_DOCUMENT", decodeBody[errorResponse](t, rr).Error.Code)
		_, err := f.store.Get(context.Background(), "bad")
		require.ErrorIs(t, err, formstore.ErrNotFound)
	})

	t.Run("missing document", func(t *testing.T) {
		rr := f.do(t, http.MethodPut, "/api/v1/forms/stay-2", map[string]any{})
		require.Equal(t, http.StatusBadRequest, rr.Code)
		body := decodeBody[errorResponse](t, rr)
		require.Equal(t, "VALIDATION_FAILED", body.Error.Code)
		require.Equal(t, map[string]any{"document": "required"}, body.Error.Details["fields"])
	})

	t.Run("malformed json", func(t *testing.T) {
		rr := f.do(t, http.MethodPut, "/api/v1/forms/stay-2", `{"document": `)
		require.Equal(t, http.StatusBadRequest, rr.Code)
		require.Equal(t, "INVALID_JSON", decodeBody[errorResponse](t, rr).Error.Code)
	})

	t.Run("delete", func(t *testing.T) {
		rr := f.do(t, http.MethodDelete, "/api/v1/forms/stay-1", nil)
		require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())
		require.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/v1/forms/stay-1", nil).Code)

		rr = f.do(t, http.MethodDelete, "/api/v1/forms/stay-1", nil)
		require.Equal(t, http.StatusNotFound, rr.Code)
		require.Equal(t, "NOT_FOUND", decodeBody[errorResponse](t, rr).Error.Code)
	})
}

func TestQuoteLifecycle(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodPut, "/api/v1/forms/stay-1", map[string]any{"document": json.RawMessage(stayDoc)})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = f.do(t, http.MethodPost, "/api/v1/quotes/init", map[string]any{"product_id": "stay-1"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	init := decodeBody[quoteResponse](t, rr)
	require.Empty(t, init.Data.Summary.Items)
	require.True(t, init.Data.Summary.TotalAmount.IsZero())

	rr = f.do(t, http.MethodPost, "/api/v1/quotes/apply", map[string]any{
		"product_id": "stay-1",
		"state":      init.Data.State,
		"mutations": []map[string]any{
			{"type": "set_date_range", "start": "2025-01-01", "end": "2025-01-04"},
			{"type": "toggle_switcher", "addon": "breakfast"},
		},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	applied := decodeBody[quoteResponse](t, rr)
	require.Len(t, applied.Data.Summary.Items, 2)
	require.Equal(t, "3 nights", applied.Data.Summary.Items[0].Label)
	requireAmount(t, "350", applied.Data.Summary.Items[0].Amount)
	require.Equal(t, "Breakfast", applied.Data.Summary.Items[1].Label)
	requireAmount(t, "30", applied.Data.Summary.Items[1].Amount)
	requireAmount(t, "380", applied.Data.Summary.TotalAmount)
	require.False(t, applied.Data.OutOfStock)

	var state struct {
		Booking struct {
			StartDate string `json:"start_date"`
			EndDate   string `json:"end_date"`
		} `json:"booking"`
	}
	require.NoError(t, json.Unmarshal(applied.Data.State, &state))
	require.Equal(t, "2025-01-01", state.Booking.StartDate)
	require.Equal(t, "2025-01-04", state.Booking.EndDate)

	t.Run("state round trips", func(t *testing.T) {
		rr := f.do(t, http.MethodPost, "/api/v1/quotes/apply", map[string]any{
			"product_id": "stay-1",
			"state":      applied.Data.State,
			"mutations":  []map[string]any{{"type": "set_numeric_quantity", "addon": "guests", "quantity": 2}},
		})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		next := decodeBody[quoteResponse](t, rr)
		requireAmount(t, "390", next.Data.Summary.TotalAmount)
	})

	t.Run("unknown mutation", func(t *testing.T) {
		rr := f.do(t, http.MethodPost, "/api/v1/quotes/apply", map[string]any{
			"product_id": "stay-1",
			"mutations":  []map[string]any{{"type": "teleport"}},
		})
		require.Equal(t, http.StatusBadRequest, rr.Code)
		require.Equal(t, "INVALID_MUTATION", decodeBody[errorResponse](t, rr).Error.Code)
	})

	t.Run("mutations required", func(t *testing.T) {
		rr := f.do(t, http.MethodPost, "/api/v1/quotes/apply", map[string]any{"product_id": "stay-1"})
		require.Equal(t, http.StatusBadRequest, rr.Code)
		body := decodeBody[errorResponse](t, rr)
		require.Equal(t, "VALIDATION_FAILED", body.Error.Code)
		require.Equal(t, map[string]any{"mutations": "required"}, body.Error.Details["fields"])
	})

	t.Run("unknown product", func(t *testing.T) {
		rr := f.do(t, http.MethodPost, "/api/v1/quotes/init", map[string]any{"product_id": "nope"})
		require.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("no source", func(t *testing.T) {
		rr := f.do(t, http.MethodPost, "/api/v1/quotes/init", map[string]any{})
		require.Equal(t, http.StatusBadRequest, rr.Code)
		require.Equal(t, "INVALID_REQUEST", decodeBody[errorResponse](t, rr).Error.Code)
	})
}

func TestInitUsesSearchQuery(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodPost, "/api/v1/quotes/init", map[string]any{
		"document": json.RawMessage(stayDoc),
		"search":   "https://shop.example/stays?start=2025-01-01&end=2025-01-03&addons.guests=2&date=garbage",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	init := decodeBody[quoteResponse](t, rr)
	require.Len(t, init.Data.Summary.Items, 2)
	require.Equal(t, "2 nights", init.Data.Summary.Items[0].Label)
	requireAmount(t, "250", init.Data.Summary.Items[0].Amount)
	require.Equal(t, "Guests × 2", init.Data.Summary.Items[1].Label)
	requireAmount(t, "260", init.Data.Summary.TotalAmount)
}

func TestVariableQuoteFallsBack(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodPost, "/api/v1/quotes/init", map[string]any{"document": json.RawMessage(shirtDoc)})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	init := decodeBody[quoteResponse](t, rr)
	require.False(t, init.Data.OutOfStock)
	require.Equal(t, "img-blue", init.Data.ScrollToImage)
	requireAmount(t, "25", init.Data.Summary.TotalAmount)

	rr = f.do(t, http.MethodPost, "/api/v1/quotes/apply", map[string]any{
		"document":  json.RawMessage(shirtDoc),
		"state":     init.Data.State,
		"mutations": []map[string]any{{"type": "set_attribute", "attribute": "color", "value": "red"}},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	applied := decodeBody[quoteResponse](t, rr)
	require.True(t, applied.Data.FellBack)
	require.Equal(t, "Blue", applied.Data.Summary.Items[0].Label)
}

func TestVariableQuoteOutOfStock(t *testing.T) {
	f := newFixture(t)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(shirtDoc), &doc))
	variations := doc["props"].(map[string]any)["fields"].(map[string]any)["variations"].(map[string]any)["variations"].([]any)
	for _, v := range variations {
		v.(map[string]any)["status"] = "out_of_stock"
	}

	rr := f.do(t, http.MethodPost, "/api/v1/quotes/init", map[string]any{"document": doc})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	init := decodeBody[quoteResponse](t, rr)
	require.True(t, init.Data.OutOfStock)
	require.Empty(t, init.Data.Summary.Items)
}

func TestCalendarEndpoint(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodPost, "/api/v1/quotes/calendar", map[string]any{
		"document": json.RawMessage(stayDoc),
		"from":     "2024-12-19",
		"to":       "2025-01-02",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var body struct {
		Data []struct {
			Date         string  `json:"date"`
			Disabled     bool    `json:"disabled"`
			TooltipPrice float64 `json:"tooltip_price"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Data, 15)
	require.Equal(t, "2024-12-19", body.Data[0].Date)
	require.True(t, body.Data[0].Disabled, "days before today are disabled")
	require.False(t, body.Data[1].Disabled)
	require.InDelta(t, 150, body.Data[14].TooltipPrice, 0.001)
	require.InDelta(t, 100, body.Data[13].TooltipPrice, 0.001)

	t.Run("window too large", func(t *testing.T) {
		rr := f.do(t, http.MethodPost, "/api/v1/quotes/calendar", map[string]any{
			"document": json.RawMessage(stayDoc),
			"from":     "2025-01-01",
			"to":       "2025-06-01",
		})
		require.Equal(t, http.StatusBadRequest, rr.Code)
		require.Equal(t, "INVALID_WINDOW", decodeBody[errorResponse](t, rr).Error.Code)
	})

	t.Run("reversed window", func(t *testing.T) {
		rr := f.do(t, http.MethodPost, "/api/v1/quotes/calendar", map[string]any{
			"document": json.RawMessage(stayDoc),
			"from":     "2025-01-05",
			"to":       "2025-01-01",
		})
		require.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("bad date", func(t *testing.T) {
		rr := f.do(t, http.MethodPost, "/api/v1/quotes/calendar", map[string]any{
			"document": json.RawMessage(stayDoc),
			"from":     "01/05/2025",
			"to":       "2025-01-01",
		})
		require.Equal(t, http.StatusBadRequest, rr.Code)
		body := decodeBody[errorResponse](t, rr)
		require.Equal(t, "VALIDATION_FAILED", body.Error.Code)
		require.Equal(t, map[string]any{"from": "datetime"}, body.Error.Details["fields"])
	})

	t.Run("not a booking form", func(t *testing.T) {
		rr := f.do(t, http.MethodPost, "/api/v1/quotes/calendar", map[string]any{
			"document": json.RawMessage(shirtDoc),
			"from":     "2025-01-01",
			"to":       "2025-01-02",
		})
		require.Equal(t, http.StatusBadRequest, rr.Code)
		require.Equal(t, "NOT_BOOKING", decodeBody[errorResponse](t, rr).Error.Code)
	})
}

func TestTimeslotsEndpoint(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodPost, "/api/v1/quotes/timeslots", map[string]any{
		"document": json.RawMessage(slotDoc),
		"date":     "2025-01-06",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var body struct {
		Data struct {
			Date  string `json:"date"`
			Slots []struct {
				From      string `json:"from"`
				To        string `json:"to"`
				Disabled  bool   `json:"disabled"`
				Remaining int    `json:"remaining"`
			} `json:"slots"`
			Capacity int `json:"capacity"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "2025-01-06", body.Data.Date)
	require.Len(t, body.Data.Slots, 2)
	require.True(t, body.Data.Slots[0].Disabled)
	require.False(t, body.Data.Slots[1].Disabled)
	require.Equal(t, 1, body.Data.Slots[1].Remaining)
	require.Equal(t, 1, body.Data.Capacity)
}

const gearDoc = `{
  "settings": {"product_mode": "regular"},
  "props": {
    "base_price": {"amount": 0.1},
    "fields": {
      "addons": [
        {"key": "fee", "label": "Fee", "type": "switcher", "required": true, "props": {"price": 0.2}},
        {"key": "gear", "label": "Gear", "type": "custom-multiselect",
         "props": {"has_external_handler": true, "choices": [{"value": "kayak", "label": "Kayak", "price": 40}, {"value": "map", "label": "Map", "price": 2}]}}
      ]
    }
  }
}`

func TestQuoteRendersExactAmountsAndPanels(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodPost, "/api/v1/quotes/init", map[string]any{"document": json.RawMessage(gearDoc)})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Contains(t, rr.Body.String(), `"total_amount":0.3`)

	init := decodeBody[quoteResponse](t, rr)
	requireAmount(t, "0.3", init.Data.Summary.TotalAmount)
	require.Equal(t, []form.Panel{
		{Addon: "fee", Visible: true},
		{Addon: "gear", Visible: false},
	}, init.Data.Panels)

	rr = f.do(t, http.MethodPost, "/api/v1/quotes/apply", map[string]any{
		"document":  json.RawMessage(gearDoc),
		"state":     init.Data.State,
		"mutations": []map[string]any{{"type": "toggle_choice", "addon": "gear", "value": "map"}},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	applied := decodeBody[quoteResponse](t, rr)
	require.Equal(t, form.Panel{Addon: "gear", Visible: true, Choices: []string{"map"}}, applied.Data.Panels[1])
	requireAmount(t, "2.3", applied.Data.Summary.TotalAmount)
}
