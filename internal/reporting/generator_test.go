package reporting

import (
	"context"
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fx-calendar-lab/internal/domain"
	"fx-calendar-lab/internal/normalization"
	"fx-calendar-lab/internal/pipeline"
	"fx-calendar-lab/internal/projection"
	"fx-calendar-lab/internal/signalfilter"
	"fx-calendar-lab/internal/storage/memory"
	"fx-calendar-lab/internal/timeresolve"
)

var fixedNow = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func generateFixtureReport(t *testing.T) (*QualityReport, []*domain.ScoredEvent) {
	t.Helper()
	ctx := context.Background()

	resolver, err := timeresolve.NewResolver(nil)
	require.NoError(t, err)
	store := memory.NewEventStore()
	_, err = pipeline.LoadFixtures(ctx, normalization.NewNormalizer(resolver), store)
	require.NoError(t, err)

	gen := NewGenerator(store, nil).WithClock(func() time.Time { return fixedNow })
	report, scored, err := gen.Generate(ctx)
	require.NoError(t, err)
	return report, scored
}

func parseCSV(t *testing.T, s string) [][]string {
	t.Helper()
	records, err := csv.NewReader(strings.NewReader(s)).ReadAll()
	require.NoError(t, err)
	return records
}

func TestGenerator_Overall(t *testing.T) {
	r, _ := generateFixtureReport(t)

	assert.Equal(t, fixedNow, r.GeneratedAt)
	assert.Equal(t, domain.DefaultMinSamples, r.MinSamples)

	o := r.Overall
	assert.Equal(t, 67, o.RowsTotal)
	assert.Equal(t, 64, o.RowsWithTime)
	assert.Equal(t, 3, o.RowsUnknownImpact)
	assert.Equal(t, 60, o.RowsWithSurprise)
	assert.Equal(t, 48, o.RowsWithDirection)
	assert.Equal(t, 48, o.RowsWithDirectionalSurprise)
	assert.Equal(t, 0, o.DuplicateKeys)
	assert.Equal(t, 7, o.TitleGroups)
	assert.Equal(t, 5, o.GroupsOK)
	assert.Equal(t, 4, o.GroupsDirectionalOK)
	assert.Equal(t, "2024-01-01", o.DateFrom)
	assert.Equal(t, "2024-12-17", o.DateTo)
	assert.InDelta(t, 95.52, o.PctWithTime, 0.01)

	assert.Greater(t, o.RowsWithZ, 0)
	assert.LessOrEqual(t, o.RowsWithZ, o.RowsWithSurprise)
	assert.Greater(t, o.AbsZMedian, 0.0)
	assert.GreaterOrEqual(t, o.AbsZP90, o.AbsZMedian)
}

func TestGenerator_Breakdowns(t *testing.T) {
	r, _ := generateFixtureReport(t)

	assert.Equal(t, []CountRow{{Key: "2024", Rows: 67}}, r.ByYear)
	assert.Equal(t, []CountRow{
		{Key: "USD", Rows: 36},
		{Key: "EUR", Rows: 16},
		{Key: "CAD", Rows: 12},
		{Key: "JPY", Rows: 3},
	}, r.ByCurrency)
	assert.Equal(t, []CountRow{
		{Key: "high", Rows: 28},
		{Key: "medium", Rows: 24},
		{Key: "low", Rows: 12},
		{Key: "unknown", Rows: 3},
	}, r.ByImpact)

	// holiday weeks have untimed rows and sort first
	require.NotEmpty(t, r.Weeks)
	assert.Less(t, r.Weeks[0].TimedPct, 100.0)
}

func TestGenerator_TitleCoverage(t *testing.T) {
	r, _ := generateFixtureReport(t)

	var titles []string
	for _, row := range r.TitleCoverage {
		titles = append(titles, row.TitleNorm)
	}
	assert.Equal(t, []string{
		"german zew economic sentiment",
		"non-farm employment change",
		"unemployment claims",
		"unemployment rate",
		"bank holiday",
		"ecb press conference",
		"trade balance",
	}, titles)

	first := r.TitleCoverage[0]
	assert.Equal(t, domain.DirectionHigherBetter, first.Direction)
	assert.Equal(t, 12, first.WithDirectional)
	assert.Equal(t, 100.0, first.PctWithDirectional)
	assert.True(t, first.StatsOK)
	assert.True(t, first.DirectionalOK)

	trade := r.TitleCoverage[6]
	assert.Equal(t, domain.DirectionAmbiguous, trade.Direction)
	assert.True(t, trade.StatsOK)
	assert.False(t, trade.DirectionalOK)
}

func TestGenerator_DataQuality(t *testing.T) {
	r, _ := generateFixtureReport(t)

	assert.True(t, r.DataQuality.AllChecksPassed)
	assert.Len(t, r.DataQuality.SufficiencyChecks, 4)
	assert.Empty(t, r.DataQuality.IntegrityErrors)
}

func TestGenerator_NoStore(t *testing.T) {
	_, _, err := NewGenerator(nil, nil).Generate(context.Background())
	assert.Error(t, err)
}

func TestRenderMarkdown(t *testing.T) {
	r, scored := generateFixtureReport(t)
	r.RunID = "run-1"

	projected := projection.BuildPairSignals(scored, projection.DefaultPairs)
	filtered, stats, err := signalfilter.Apply(projected, signalfilter.DefaultConfig())
	require.NoError(t, err)
	r.Signals = SummarizeSignals(projection.DefaultPairs, projected, filtered, stats)

	md := RenderMarkdown(r)
	assert.Contains(t, md, "# Calendar Quality Report")
	assert.Contains(t, md, "Generated: 2025-01-01T00:00:00Z")
	assert.Contains(t, md, "Run: `run-1`")
	assert.Contains(t, md, "| Events | 67 |")
	assert.Contains(t, md, "| Duplicate identity keys | 0 |")
	assert.Contains(t, md, "**All checks passed.**")
	assert.Contains(t, md, "| german zew economic sentiment | higher_better | 12 | 100.0% | 100.0% | ok |")
	assert.Contains(t, md, "| trade balance | ambiguous | 12 | 100.0% | 0.0% | raw only |")
	assert.Contains(t, md, "## Pair Signals")
	assert.Contains(t, md, "| USDJPY |")
	assert.NotContains(t, md, "FAIL")
}

func TestRenderMarkdown_FailedChecks(t *testing.T) {
	r := NewGenerator(memory.NewEventStore(), nil).
		WithClock(func() time.Time { return fixedNow }).
		Build(nil, domain.NewStatsTable(10, nil))

	md := RenderMarkdown(r)
	assert.Contains(t, md, "**Some checks failed.**")
	assert.Contains(t, md, "FAIL")
	assert.Contains(t, md, "No titles in corpus.")
	assert.NotContains(t, md, "## Pair Signals")
}

func TestRenderGoldenCSV(t *testing.T) {
	_, scored := generateFixtureReport(t)

	records := parseCSV(t, RenderGoldenCSV(scored))
	require.Len(t, records, 68)
	assert.Equal(t, GoldenColumns, records[0])

	col := make(map[string]int, len(GoldenColumns))
	for i, c := range GoldenColumns {
		col[c] = i
	}

	var nfp []string
	for _, rec := range records[1:] {
		if rec[col["title_norm"]] == "non-farm employment change" && rec[col["date_local"]] == "2024-01-05" {
			nfp = rec
		}
	}
	require.NotNil(t, nfp)
	assert.Equal(t, "high", nfp[col["impact"]])
	assert.Equal(t, "3", nfp[col["impact_num"]])
	assert.Equal(t, "35000", nfp[col["surprise_raw"]])
	assert.Equal(t, "1", nfp[col["surprise_sign"]])
	assert.Equal(t, "level", nfp[col["surprise_kind"]])
	assert.Equal(t, "higher_better", nfp[col["direction"]])
	assert.Equal(t, "true", nfp[col["good_is_higher"]])
	assert.Equal(t, "1", nfp[col["cc_strength_sign"]])
	assert.NotEmpty(t, nfp[col["surprise_z"]])
	assert.Equal(t, "2024-01-05T13:30:00Z", nfp[col["when_utc"]])
	assert.Equal(t, "2024-01-05T13:30:00Z", nfp[col["ts_15m"]])
	assert.Equal(t, "2024-01-05T13:00:00Z", nfp[col["ts_1h"]])
	assert.Equal(t, "202401", nfp[col["week_id"]])

	for _, rec := range records[1:] {
		if rec[col["title_norm"]] == "bank holiday" {
			assert.Empty(t, rec[col["when_utc"]])
			assert.Empty(t, rec[col["ts_1m"]])
			assert.Empty(t, rec[col["surprise_raw"]])
			assert.Equal(t, "ambiguous", rec[col["direction"]])
			assert.Empty(t, rec[col["good_is_higher"]])
		}
	}
}

func TestRenderSignalsCSV(t *testing.T) {
	when := time.Date(2025, 1, 10, 13, 30, 0, 0, time.UTC)
	z := 1.25
	signals := []*domain.PairSignal{{
		SignalID:       "sig",
		EventID:        "e1",
		Pair:           "USDJPY",
		Currency:       "USD",
		Title:          "Retail Sales, ex Autos",
		DirectionSign:  1,
		WhenUTC:        &when,
		Impact:         domain.ImpactHigh,
		SurpriseZ:      &z,
		CCStrengthSign: 1,
		Source:         domain.SourceCSV,
	}}

	out := RenderSignalsCSV(signals)
	assert.True(t, strings.HasPrefix(out,
		"event_id,pair,direction_sign,when_utc,impact_num,surprise_z,currency,title,"))
	assert.Contains(t, out, `"Retail Sales, ex Autos"`)

	records := parseCSV(t, out)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"e1", "USDJPY", "1", "2025-01-10T13:30:00Z", "3", "1.25", "USD", "Retail Sales, ex Autos"},
		records[1][:8])
	assert.Empty(t, records[1][10], "surprise_raw")
}

func TestRenderTitleStatsCSV(t *testing.T) {
	mu, sigma := 1.5, 0.5
	table := domain.NewStatsTable(10, []domain.SurpriseStat{
		{TitleNorm: "b", Raw: domain.GroupStat{Count: 1, Mu: &mu}},
		{TitleNorm: "a", Raw: domain.GroupStat{Count: 12, Mu: &mu, Sigma: &sigma, OK: true}},
	})

	records := parseCSV(t, RenderTitleStatsCSV(table))
	require.Len(t, records, 3)
	assert.Equal(t, []string{"a", "12", "1.5", "0.5", "true", "0", "", "", "false"}, records[1])
	assert.Equal(t, []string{"b", "1", "1.5", "", "false", "0", "", "", "false"}, records[2])
}

func TestWriteReportAndDataset(t *testing.T) {
	r, scored := generateFixtureReport(t)
	dir := filepath.Join(t.TempDir(), "out")

	paths, err := WriteReport(dir, r)
	require.NoError(t, err)
	assert.Len(t, paths, 7)

	table := domain.NewStatsTable(10, nil)
	paths, err = WriteDataset(dir, Dataset{Scored: scored, Table: table})
	require.NoError(t, err)
	assert.Len(t, paths, 2, "no signal stages")

	paths, err = WriteDataset(dir, Dataset{Scored: scored, Table: table, Projected: []*domain.PairSignal{}})
	require.NoError(t, err)
	assert.Len(t, paths, 4)

	data, err := os.ReadFile(filepath.Join(dir, FileFiltered))
	require.NoError(t, err)
	assert.Equal(t, strings.Join(SignalColumns, ",")+"\n", string(data))
}

func TestWeekID(t *testing.T) {
	assert.Equal(t, "202401", WeekID("2024-01-05"))
	assert.Equal(t, "202501", WeekID("2024-12-30"))
	assert.Equal(t, "", WeekID(""))
	assert.Equal(t, "", WeekID("not a date"))
}

func TestFormatFloat(t *testing.T) {
	v := 0.1 + 0.2
	assert.Equal(t, "0.3", formatFloat(&v, 10))
	assert.Equal(t, "", formatFloat(nil, 10))
	big := 1.5e9
	assert.Equal(t, "1500000000", formatFloat(&big, 10))

	inf, nan := math.Inf(1), math.NaN()
	assert.Equal(t, "", formatFloat(&inf, 4))
	assert.Equal(t, "", formatFloat(&nan, 4))
}

func TestRenderGoldenCSV_NonFiniteValue(t *testing.T) {
	inf := math.Inf(1)
	scored := []*domain.ScoredEvent{{
		Event: domain.Event{
			EventID: "x", Source: domain.SourceCSV, Currency: "USD", Title: "Overflow",
			TitleNorm: "overflow", DateLocal: "2024-01-05", ActualVal: &inf,
		},
		Direction: domain.DirectionAmbiguous,
	}}

	var out string
	require.NotPanics(t, func() { out = RenderGoldenCSV(scored) })
	records := parseCSV(t, out)
	require.Len(t, records, 2)
	assert.Empty(t, records[1][indexOf(GoldenColumns, "actual_val")])
}

func indexOf(cols []string, name string) int {
	for i, c := range cols {
		if c == name {
			return i
		}
	}
	return -1
}

func TestSummarizeSignals(t *testing.T) {
	filtered := []*domain.PairSignal{{Pair: "EURUSD"}, {Pair: "EURUSD"}, {Pair: "USDJPY"}}
	s := SummarizeSignals([]string{"EURUSD", "GBPUSD", "USDJPY"}, make([]*domain.PairSignal, 5), filtered, signalfilter.Stats{})

	assert.Equal(t, 5, s.Projected)
	assert.Equal(t, 3, s.Filtered)
	assert.Equal(t, []CountRow{{"EURUSD", 2}, {"GBPUSD", 0}, {"USDJPY", 1}}, s.ByPair)
}
