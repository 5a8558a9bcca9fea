package timeresolve

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fx-calendar-lab/internal/domain"
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := NewResolver(nil)
	require.NoError(t, err)
	return r
}

func TestResolve_DSTSpringForward(t *testing.T) {
	r := newTestResolver(t)

	before, err := r.Resolve("2025-03-09", "1:30am", "", "America/New_York")
	require.NoError(t, err)
	require.NotNil(t, before.UTC)
	assert.Equal(t, "2025-03-09T06:30:00Z", before.ISO())

	after, err := r.Resolve("2025-03-09", "3:30am", "", "America/New_York")
	require.NoError(t, err)
	require.NotNil(t, after.UTC)
	assert.Equal(t, "2025-03-09T07:30:00Z", after.ISO())

	// Two wall-clock hours apart, one real hour apart: the skipped hour is gone.
	assert.Equal(t, 60.0, after.UTC.Sub(*before.UTC).Minutes())

	// 2:30am does not exist that night; it reads as 3:30am EDT.
	skipped, err := r.Resolve("2025-03-09", "2:30am", "", "America/New_York")
	require.NoError(t, err)
	require.NotNil(t, skipped.UTC)
	assert.Equal(t, "2025-03-09T07:30:00Z", skipped.ISO())
	assert.NotEqual(t, before.ISO(), skipped.ISO())

	london, err := r.Resolve("2025-03-30", "1:15am", "", "Europe/London")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-30T01:15:00Z", london.ISO())
}

func TestResolve_MidnightWrap(t *testing.T) {
	r := newTestResolver(t)

	res, err := r.Resolve("2025-01-05", "11:45pm", "", "America/Los_Angeles")
	require.NoError(t, err)
	assert.True(t, res.HasSpecificTime)
	assert.Equal(t, "2025-01-06", res.UTCDate())
	assert.Equal(t, "2025-01-06T07:45:00Z", res.ISO())
}

func TestResolve_CurrencyZones(t *testing.T) {
	r := newTestResolver(t)

	tests := []struct {
		name     string
		date     string
		label    string
		currency string
		want     string
	}{
		{"USD winter", "2025-01-10", "8:30am", "USD", "2025-01-10T13:30:00Z"},
		{"USD summer", "2025-07-03", "8:30am", "USD", "2025-07-03T12:30:00Z"},
		{"GBP summer", "2025-06-18", "7:00am", "GBP", "2025-06-18T06:00:00Z"},
		{"EUR 24h", "2025-02-28", "14:00", "EUR", "2025-02-28T13:00:00Z"},
		{"JPY crosses back a day", "2025-01-10", "8:50am", "JPY", "2025-01-09T23:50:00Z"},
		{"AUD daylight time", "2025-01-15", "11:30am", "AUD", "2025-01-15T00:30:00Z"},
		{"NZD winter", "2025-07-15", "10:45am", "NZD", "2025-07-14T22:45:00Z"},
		{"unknown currency is UTC", "2025-01-10", "9:00am", "CNY", "2025-01-10T09:00:00Z"},
		{"lowercase currency", "2025-01-10", "8:30am", "usd", "2025-01-10T13:30:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.Resolve(tt.date, tt.label, tt.currency, "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.ISO())
			assert.True(t, res.HasSpecificTime)
		})
	}
}

func TestResolve_NonClockLabels(t *testing.T) {
	r := newTestResolver(t)

	for _, label := range []string{"All Day", "Tentative", "Day 2", "day", "off", "19th-24th", "3rd", "Mar 3-4", "--", "", "Asian Session"} {
		t.Run(label, func(t *testing.T) {
			res, err := r.Resolve("2025-01-10", label, "USD", "")
			assert.NoError(t, err)
			assert.Nil(t, res.UTC)
			assert.False(t, res.HasSpecificTime)
			assert.Equal(t, "", res.UTCDate())
		})
	}
}

func TestResolve_FailSoft(t *testing.T) {
	r := newTestResolver(t)

	tests := []struct {
		name  string
		date  string
		label string
		zone  string
	}{
		{"garbage label", "2025-01-10", "soon", ""},
		{"bad hour", "2025-01-10", "25:00", ""},
		{"13pm", "2025-01-10", "13pm", ""},
		{"bad date", "10th of Jan", "8:30am", ""},
		{"bad zone", "2025-01-10", "8:30am", "Mars/Olympus"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.Resolve(tt.date, tt.label, "USD", tt.zone)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrMalformedValue))
			assert.Nil(t, res.UTC)
			assert.False(t, res.HasSpecificTime)
		})
	}
}

func TestResolve_ExplicitZoneWins(t *testing.T) {
	r := newTestResolver(t)

	res, err := r.Resolve("2025-01-10", "8:30am", "EUR", "America/New_York")
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", res.Zone)
	assert.Equal(t, "2025-01-10T13:30:00Z", res.ISO())
}

func TestNewResolver_Overrides(t *testing.T) {
	r, err := NewResolver(map[string]string{"eur": "Europe/Paris", "CNY": "Asia/Shanghai"})
	require.NoError(t, err)
	assert.Equal(t, "Europe/Paris", r.ZoneFor("EUR"))
	assert.Equal(t, "Asia/Shanghai", r.ZoneFor("CNY"))
	assert.Equal(t, "UTC", r.ZoneFor("XAU"))

	_, err = NewResolver(map[string]string{"USD": "Not/AZone"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"8:30am", "08:30"},
		{"8am", "08:00"},
		{"12:00pm", "12:00"},
		{"12:15am", "00:15"},
		{"1:05PM", "13:05"},
		{"13:30", "13:30"},
		{"0:00", "00:00"},
		{" 9:45 pm ", "21:45"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := ParseClock(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.String())
		})
	}
}

func TestParseDate(t *testing.T) {
	for _, in := range []string{"2025-01-10", "2025/01/10", "01/10/2025", "01-10-2025", "Jan 10, 2025", "Fri Jan 10 2025"} {
		d, err := ParseDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, "2025-01-10", d.Format("2006-01-02"), in)
	}
}
