package projection

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fx-calendar-lab/internal/domain"
	"fx-calendar-lab/internal/idhash"
)

func ptr[T any](v T) *T {
	return &v
}

func signs(pds []PairDirection) map[string]*int {
	m := make(map[string]*int, len(pds))
	for _, pd := range pds {
		m[pd.Pair] = pd.Sign
	}
	return m
}

func TestProject(t *testing.T) {
	got := signs(Project("USD", 1, []string{"EURUSD", "USDJPY"}))
	assert.Equal(t, ptr(-1), got["EURUSD"])
	assert.Equal(t, ptr(1), got["USDJPY"])

	got = signs(Project("GBP", 1, []string{"EURUSD"}))
	assert.Nil(t, got["EURUSD"])

	got = signs(Project("USD", 0, []string{"EURUSD"}))
	assert.Equal(t, ptr(0), got["EURUSD"])

	got = signs(Project("usd", -1, []string{"EURUSD", "USDCAD"}))
	assert.Equal(t, ptr(1), got["EURUSD"])
	assert.Equal(t, ptr(-1), got["USDCAD"])
}

func TestProject_MalformedPairIsNil(t *testing.T) {
	pds := Project("USD", 1, []string{"EURUS", "USDJPYX", ""})
	require.Len(t, pds, 3)
	for _, pd := range pds {
		assert.Nil(t, pd.Sign, pd.Pair)
	}

	pds = Project("USD", 0, []string{"EUR/USD"})
	assert.Nil(t, pds[0].Sign)
}

func TestProject_PreservesOrder(t *testing.T) {
	pds := Project("JPY", 1, DefaultPairs)
	require.Len(t, pds, len(DefaultPairs))
	for i, pd := range pds {
		assert.Equal(t, DefaultPairs[i], pd.Pair)
	}
	assert.Equal(t, ptr(-1), pds[2].Sign)
}

func TestValidatePairs(t *testing.T) {
	got, err := ValidatePairs([]string{" eurusd", "USDJPY", "EURUSD"})
	require.NoError(t, err)
	assert.Equal(t, []string{"EURUSD", "USDJPY"}, got)

	for _, bad := range [][]string{nil, {"EURUS"}, {"EUR/USD"}, {"USDUSD"}, {"EURUS1"}} {
		_, err := ValidatePairs(bad)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
	}
}

func TestBuildPairSignals(t *testing.T) {
	when := time.Date(2025, 1, 10, 13, 30, 0, 0, time.UTC)
	scored := []*domain.ScoredEvent{
		{
			Event: domain.Event{
				EventID: "e1", Currency: "USD", Title: "Non-Farm Payrolls",
				Impact: domain.ImpactHigh, WhenUTC: &when, Source: domain.SourceCSV,
			},
			SurpriseRaw:    ptr(50000.0),
			SurpriseZ:      ptr(1.5),
			SurpriseSign:   ptr(1),
			CCStrengthSign: ptr(1),
		},
		{
			Event:       domain.Event{EventID: "e2", Currency: "USD", Title: "Obscure"},
			SurpriseRaw: ptr(1.0),
		},
		{
			Event:          domain.Event{EventID: "e3", Currency: "SEK", Title: "CPI"},
			CCStrengthSign: ptr(1),
		},
	}

	out := BuildPairSignals(scored, []string{"EURUSD", "USDJPY", "GBPJPY"})
	require.Len(t, out, 2)

	assert.Equal(t, "EURUSD", out[0].Pair)
	assert.Equal(t, -1, out[0].DirectionSign)
	assert.Equal(t, "USDJPY", out[1].Pair)
	assert.Equal(t, 1, out[1].DirectionSign)

	ps := out[0]
	assert.Equal(t, idhash.ComputeSignalID("e1", "EURUSD"), ps.SignalID)
	assert.Equal(t, "e1", ps.EventID)
	assert.Equal(t, "USD", ps.Currency)
	assert.Equal(t, 3, ps.ImpactNum())
	assert.Equal(t, "2025-01-10T13:30:00Z", ps.WhenISO())
	assert.Equal(t, 1.5, *ps.SurpriseZ)
	assert.Equal(t, 1, ps.CCStrengthSign)
	assert.Equal(t, domain.SourceCSV, ps.Source)

	*scored[0].SurpriseZ = 9
	assert.Equal(t, 1.5, *ps.SurpriseZ)
}

func TestBuildPairSignals_NeutralEmitsZeroRows(t *testing.T) {
	scored := []*domain.ScoredEvent{{
		Event:          domain.Event{EventID: "n", Currency: "NZD"},
		CCStrengthSign: ptr(0),
	}}
	out := BuildPairSignals(scored, []string{"EURUSD", "NZDUSD"})
	require.Len(t, out, 2)
	for _, ps := range out {
		assert.Equal(t, 0, ps.DirectionSign)
	}
}
