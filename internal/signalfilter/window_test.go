package signalfilter

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fx-calendar-lab/internal/domain"
)

func TestWindow_Contains(t *testing.T) {
	day := func(hh, mm int) time.Time {
		return time.Date(2025, 1, 2, hh, mm, 0, 0, time.UTC)
	}

	london := Window{Start: 7 * 60, End: 16 * 60}
	assert.True(t, london.Contains(day(7, 0)))
	assert.True(t, london.Contains(day(15, 59)))
	assert.False(t, london.Contains(day(16, 0)))
	assert.False(t, london.Contains(day(6, 59)))

	sydney := Window{Start: 21 * 60, End: 6 * 60}
	assert.True(t, sydney.Contains(day(21, 0)))
	assert.True(t, sydney.Contains(day(0, 0)))
	assert.True(t, sydney.Contains(day(5, 59)))
	assert.False(t, sydney.Contains(day(6, 0)))
	assert.False(t, sydney.Contains(day(20, 59)))

	// Non-UTC instants are converted before the minute-of-day check.
	ny := time.FixedZone("EST", -5*3600)
	assert.True(t, london.Contains(time.Date(2025, 1, 2, 3, 0, 0, 0, ny)))
}

func TestSession(t *testing.T) {
	w, err := Session("newyork")
	require.NoError(t, err)
	assert.Equal(t, "NewYork", w.Name)
	assert.Equal(t, "12:00-21:00", w.String())

	w, err = Session(" NYSE ")
	require.NoError(t, err)
	assert.Equal(t, "13:30-20:00", w.String())

	_, err = Session("Frankfurt")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
	assert.Contains(t, err.Error(), "Sydney, Tokyo, London, NewYork, NYSE")
}

func TestResolveSessions(t *testing.T) {
	ws, err := ResolveSessions([]string{"London", "", "Tokyo"})
	require.NoError(t, err)
	require.Len(t, ws, 2)
	assert.Equal(t, "London", ws[0].Name)

	_, err = ResolveSessions([]string{"London", "Mars"})
	assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
}

func TestParseWindows(t *testing.T) {
	ws, err := ParseWindows("07:00-20:00;21:30-02:15;")
	require.NoError(t, err)
	require.Len(t, ws, 2)
	assert.Equal(t, 7*60, ws[0].Start)
	assert.Equal(t, 20*60, ws[0].End)
	assert.Equal(t, 21*60+30, ws[1].Start)
	assert.Equal(t, 2*60+15, ws[1].End)

	ws, err = ParseWindows("20:00-24:00")
	require.NoError(t, err)
	assert.Equal(t, 24*60, ws[0].End)

	for _, bad := range []string{"0700-2000", "07:00", "07:00-07:00", "25:00-01:00", "07:60-08:00", "7:5-8:00", "24:30-01:00"} {
		_, err := ParseWindows(bad)
		require.Error(t, err, bad)
		assert.True(t, errors.Is(err, domain.ErrInvalidConfig), bad)
	}
}

func TestParseTieBreak(t *testing.T) {
	tb, err := ParseTieBreak("")
	require.NoError(t, err)
	assert.Equal(t, TieBreakImpactFirst, tb)

	tb, err = ParseTieBreak("ABSZ_THEN_IMPACT")
	require.NoError(t, err)
	assert.Equal(t, TieBreakAbsZFirst, tb)

	_, err = ParseTieBreak("coin_flip")
	assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
}
