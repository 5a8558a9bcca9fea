package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"fx-calendar-lab/internal/domain"
	"fx-calendar-lab/internal/pipeline"
	"fx-calendar-lab/internal/signalfilter"
	"fx-calendar-lab/internal/storage"
	"fx-calendar-lab/internal/surprise"
	"fx-calendar-lab/internal/timeresolve"
)

// Generator produces quality reports from the event corpus.
type Generator struct {
	eventStore storage.EventStore
	scorer     *surprise.Scorer
	thresholds pipeline.Thresholds
	now        func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator. A nil scorer uses the built-in
// direction table and the default sample gate.
func NewGenerator(eventStore storage.EventStore, scorer *surprise.Scorer) *Generator {
	if scorer == nil {
		scorer = surprise.NewScorer(nil, 0)
	}
	return &Generator{
		eventStore: eventStore,
		scorer:     scorer,
		thresholds: pipeline.DefaultThresholds(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// WithThresholds overrides the sufficiency thresholds.
func (g *Generator) WithThresholds(t pipeline.Thresholds) *Generator {
	g.thresholds = t
	return g
}

// Generate loads the stored corpus, scores it and builds the quality report.
func (g *Generator) Generate(ctx context.Context) (*QualityReport, []*domain.ScoredEvent, error) {
	if g.eventStore == nil {
		return nil, nil, fmt.Errorf("report generator has no event store")
	}
	events, err := g.eventStore.GetAll(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load events: %w", err)
	}
	scored, table := g.scorer.FitScore(events)
	return g.Build(scored, table), scored, nil
}

// Build produces the report over an already scored corpus and its table.
func (g *Generator) Build(scored []*domain.ScoredEvent, table *domain.StatsTable) *QualityReport {
	events := make([]*domain.Event, len(scored))
	for i, se := range scored {
		events[i] = &se.Event
	}

	r := &QualityReport{
		GeneratedAt:   g.now(),
		MinSamples:    table.MinSamples,
		Overall:       summarize(scored, table),
		ByYear:        countBy(events, yearKey, byKey),
		ByCurrency:    countBy(events, func(e *domain.Event) string { return e.Currency }, byRows),
		ByImpact:      countBy(events, func(e *domain.Event) string { return e.Impact.String() }, byRows),
		Weeks:         weekCoverage(events),
		TitleCoverage: titleCoverage(scored, table),
	}

	suff := pipeline.CheckCorpus(events, table, g.thresholds)
	r.DataQuality.AllChecksPassed = suff.AllPass
	r.DataQuality.IntegrityErrors = suff.Errors
	for _, c := range suff.Checks {
		r.DataQuality.SufficiencyChecks = append(r.DataQuality.SufficiencyChecks, SufficiencyCheckRow{
			Name:      c.Name,
			Threshold: c.Threshold,
			Actual:    c.Actual,
			Pass:      c.Pass,
		})
	}
	return r
}

// SummarizeSignals describes the projected and filtered stages of a run.
func SummarizeSignals(pairs []string, projected, filtered []*domain.PairSignal, stats signalfilter.Stats) *SignalSummary {
	perPair := make(map[string]int, len(pairs))
	for _, s := range filtered {
		perPair[s.Pair]++
	}
	byPair := make([]CountRow, 0, len(pairs))
	for _, p := range pairs {
		byPair = append(byPair, CountRow{Key: p, Rows: perPair[p]})
	}
	return &SignalSummary{
		Pairs:     append([]string(nil), pairs...),
		Projected: len(projected),
		Filtered:  len(filtered),
		Filter:    stats,
		ByPair:    byPair,
	}
}

func summarize(scored []*domain.ScoredEvent, table *domain.StatsTable) OverallSummary {
	s := OverallSummary{RowsTotal: len(scored)}
	weeks := make(map[string]struct{})
	events := make([]*domain.Event, 0, len(scored))
	var absZ []float64

	for _, se := range scored {
		events = append(events, &se.Event)
		if se.WhenUTC != nil {
			s.RowsWithTime++
		}
		if se.Impact.Rank() == 0 {
			s.RowsUnknownImpact++
		}
		if se.SurpriseRaw != nil {
			s.RowsWithSurprise++
		}
		if se.Direction != domain.DirectionAmbiguous {
			s.RowsWithDirection++
		}
		if se.DirectionalSurprise != nil {
			s.RowsWithDirectionalSurprise++
		}
		if z, ok := se.AbsZ(); ok {
			absZ = append(absZ, z)
		}
		if w := WeekID(se.DateLocal); w != "" {
			weeks[w] = struct{}{}
		}
		if se.DateLocal != "" && (s.DateFrom == "" || se.DateLocal < s.DateFrom) {
			s.DateFrom = se.DateLocal
		}
		if se.DateLocal > s.DateTo {
			s.DateTo = se.DateLocal
		}
	}

	s.PctWithTime = pipeline.Pct(s.RowsWithTime, s.RowsTotal)
	s.PctUnknownImpact = pipeline.Pct(s.RowsUnknownImpact, s.RowsTotal)
	s.PctWithSurprise = pipeline.Pct(s.RowsWithSurprise, s.RowsTotal)
	s.UniqueWeeks = len(weeks)
	s.DuplicateKeys = len(pipeline.DuplicateKeys(events))
	s.TitleGroups = table.Len()
	s.GroupsOK, s.GroupsDirectionalOK = table.CountOK()
	s.RowsWithZ = len(absZ)
	s.AbsZMedian = surprise.Percentile(absZ, 0.5)
	s.AbsZP90 = surprise.Percentile(absZ, 0.9)
	return s
}

func yearKey(e *domain.Event) string {
	if len(e.DateLocal) < 4 {
		return "unknown"
	}
	return e.DateLocal[:4]
}

func byKey(a, b CountRow) bool {
	return a.Key < b.Key
}

func byRows(a, b CountRow) bool {
	if a.Rows != b.Rows {
		return a.Rows > b.Rows
	}
	return a.Key < b.Key
}

func countBy(events []*domain.Event, key func(*domain.Event) string, less func(a, b CountRow) bool) []CountRow {
	counts := make(map[string]int)
	for _, e := range events {
		counts[key(e)]++
	}
	rows := make([]CountRow, 0, len(counts))
	for k, n := range counts {
		rows = append(rows, CountRow{Key: k, Rows: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		return less(rows[i], rows[j])
	})
	return rows
}

func weekCoverage(events []*domain.Event) []WeekCoverageRow {
	index := make(map[string]int)
	var rows []WeekCoverageRow
	for _, e := range events {
		w := WeekID(e.DateLocal)
		i, ok := index[w]
		if !ok {
			i = len(rows)
			index[w] = i
			rows = append(rows, WeekCoverageRow{WeekID: w})
		}
		rows[i].Rows++
		if e.WhenUTC != nil {
			rows[i].Timed++
		}
	}
	for i := range rows {
		rows[i].TimedPct = pipeline.Pct(rows[i].Timed, rows[i].Rows)
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.TimedPct != b.TimedPct {
			return a.TimedPct < b.TimedPct
		}
		if a.Rows != b.Rows {
			return a.Rows < b.Rows
		}
		return a.WeekID < b.WeekID
	})
	return rows
}

func titleCoverage(scored []*domain.ScoredEvent, table *domain.StatsTable) []TitleCoverageRow {
	index := make(map[string]int)
	var rows []TitleCoverageRow
	for _, se := range scored {
		i, ok := index[se.TitleNorm]
		if !ok {
			i = len(rows)
			index[se.TitleNorm] = i
			row := TitleCoverageRow{TitleNorm: se.TitleNorm, Direction: se.Direction}
			if stat, found := table.Get(se.TitleNorm); found {
				row.StatsOK = stat.Raw.OK
				row.DirectionalOK = stat.Directional.OK
			}
			rows = append(rows, row)
		}
		rows[i].Rows++
		if se.SurpriseRaw != nil {
			rows[i].WithSurprise++
		}
		if se.DirectionalSurprise != nil {
			rows[i].WithDirectional++
		}
	}
	for i := range rows {
		rows[i].PctWithSurprise = pipeline.Pct(rows[i].WithSurprise, rows[i].Rows)
		rows[i].PctWithDirectional = pipeline.Pct(rows[i].WithDirectional, rows[i].Rows)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].WithDirectional != rows[j].WithDirectional {
			return rows[i].WithDirectional > rows[j].WithDirectional
		}
		return rows[i].TitleNorm < rows[j].TitleNorm
	})
	return rows
}

// WeekID returns the ISO year and week of a local date as YYYYWW, or "".
func WeekID(dateLocal string) string {
	d, err := timeresolve.ParseDate(dateLocal)
	if err != nil {
		return ""
	}
	y, w := d.ISOWeek()
	return fmt.Sprintf("%d%02d", y, w)
}
