package calendar

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDayStripsTimeOfDay(t *testing.T) {
	loc := time.FixedZone("WIB", 7*3600)
	in := time.Date(2025, 3, 9, 23, 30, 0, 0, loc)
	require.Equal(t, time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), Day(in))
}

func TestDaysBetweenAcrossMonths(t *testing.T) {
	a := MustDate("2025-01-30").Time
	b := MustDate("2025-02-02").Time
	require.Equal(t, 3, DaysBetween(a, b))
	require.Equal(t, -3, DaysBetween(b, a))
	require.Equal(t, b, AddDays(a, 3))
}

func TestParseDateAcceptsTimestamps(t *testing.T) {
	d, err := ParseDate("2025-01-05T18:00:00Z")
	require.NoError(t, err)
	require.Equal(t, "2025-01-05", Format(d))

	_, err = ParseDate("05/01/2025")
	require.Error(t, err)
}

func TestDateJSON(t *testing.T) {
	var payload struct {
		Start Date `json:"start"`
		End   Date `json:"end"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"start":"2025-01-01","end":null}`), &payload))
	require.Equal(t, "2025-01-01", payload.Start.String())
	require.True(t, payload.End.IsZero())

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	require.JSONEq(t, `{"start":"2025-01-01","end":null}`, string(out))
}

func TestWeekdayParsing(t *testing.T) {
	cases := map[string]time.Weekday{
		"mon":      time.Monday,
		"Monday":   time.Monday,
		"tues":     time.Tuesday,
		"SUN":      time.Sunday,
		"saturday": time.Saturday,
	}
	for in, want := range cases {
		got, ok := ParseWeekday(in)
		require.True(t, ok, in)
		require.Equal(t, want, got, in)
	}
	_, ok := ParseWeekday("mo")
	require.False(t, ok)
	_, ok = ParseWeekday("monkey")
	require.False(t, ok)

	set := NewWeekdaySet([]string{"sun", "bogus"})
	require.True(t, set.Has(MustDate("2025-01-05").Time))
	require.False(t, set.Has(MustDate("2025-01-06").Time))
}

func TestBufferDuration(t *testing.T) {
	require.Equal(t, 5*time.Hour, Buffer{Amount: 5, Unit: BufferHours}.Duration())
	require.Equal(t, 48*time.Hour, Buffer{Amount: 2, Unit: BufferDays}.Duration())
	require.Equal(t, 24*time.Hour, Buffer{Amount: 1}.Duration())
	require.Zero(t, Buffer{Amount: -1, Unit: BufferHours}.Duration())
}

func TestParseClock(t *testing.T) {
	m, ok := ParseClock("09:30")
	require.True(t, ok)
	require.Equal(t, 570, m)
	_, ok = ParseClock("9")
	require.False(t, ok)
	require.Equal(t, time.Date(2025, 1, 1, 9, 30, 0, 0, time.UTC), At(MustDate("2025-01-01").Time, 570))
}
