package obs

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/productform/internal/tenant"
)

func TestNewLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "json", "warn")
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), `"message":"shown"`)

	require.Equal(t, zerolog.InfoLevel, newLogger(&buf, "json", "loud").GetLevel())
}

func TestRequestLoggerFields(t *testing.T) {
	cases := []struct {
		status int
		level  string
	}{
		{status: http.StatusOK, level: "info"},
		{status: http.StatusNotFound, level: "warn"},
		{status: http.StatusServiceUnavailable, level: "error"},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			var buf bytes.Buffer
			handler := RequestLogger{Logger: newLogger(&buf, "json", "debug")}.Middleware(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tc.status)
				}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/forms/mug", nil)
			req.RemoteAddr = "198.51.100.7:4242"
			ctx := WithRoutePattern(tenant.With(req.Context(), "acme"), "/api/v1/forms/{productID}")
			handler.ServeHTTP(httptest.NewRecorder(), req.WithContext(ctx))

			var line map[string]any
			require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &line))
			require.Equal(t, tc.level, line["level"])
			require.Equal(t, "http_request", line["message"])
			require.Equal(t, "/api/v1/forms/{productID}", line["route"])
			require.Equal(t, float64(tc.status), line["status"])
			require.Equal(t, "acme", line["tenant_id"])
			require.Equal(t, "198.51.100.7", line["client_ip"])
			require.NotContains(t, line, "trace_id")
		})
	}
}
