package quote_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	redis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/productform/internal/clock"
	"github.com/noah-isme/productform/internal/form"
	"github.com/noah-isme/productform/internal/formstore"
	"github.com/noah-isme/productform/internal/quote"
)

var december20 = time.Date(2024, 12, 20, 10, 0, 0, 0, time.UTC)

const stayDoc = `{
  "settings": {"product_mode": "booking"},
  "props": {
    "base_price": {"amount": 100},
    "custom_prices": {"enabled": true, "list": [
      {"conditions": [{"type": "date", "date": "2025-01-02"}], "prices": {"base_price": {"amount": 150}}}
    ]},
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

const shirtDoc = `{
  "settings": {"product_mode": "variable"},
  "props": {
    "fields": {
      "variations": {
        "attributes": [
          {"key": "color", "label": "Color", "choices": [{"value": "red", "label": "Red"}, {"value": "blue", "label": "Blue"}]}
        ],
        "variations": [
          {"id": "red", "attributes": {"color": "red"}, "status": "out_of_stock", "config": {"base_price": {"amount": 20}}},
          {"id": "blue", "attributes": {"color": "blue"}, "status": "active", "image": "img-blue", "config": {"base_price": {"amount": 25}}}
        ]
      }
    }
  }
}`

const slotDoc = `{
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

type fixture struct {
	router http.Handler
	store  *formstore.Store
	mr     *miniredis.Miniredis
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clk := clock.Fixed{At: december20}
	store := formstore.New(client, formstore.Config{Clock: clk})
	svc := quote.NewService(quote.ServiceConfig{Store: store, Clock: clk, MaxWindowDays: 62})
	handler := quote.NewHandler(quote.HandlerConfig{Service: svc})

	r := chi.NewRouter()
	r.Route("/api/v1", func(v chi.Router) { handler.Routes(v) })
	return fixture{router: r, store: store, mr: mr}
}

func (f fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch v := body.(type) {
		case string:
			buf.WriteString(v)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(v))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

type errorResponse struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

type quoteResponse struct {
	Data struct {
		State         json.RawMessage `json:"state"`
		Summary       quote.Summary   `json:"summary"`
		Panels        []form.Panel    `json:"panels"`
		OutOfStock    bool            `json:"out_of_stock"`
		FellBack      bool            `json:"fell_back"`
		ScrollToImage string          `json:"scroll_to_image"`
	} `json:"data"`
}

func requireAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}
