// Package surprise fits per-title surprise statistics over a corpus and derives
// z-scores and currency-strength signs from them.
package surprise

import (
	"sort"

	"fx-calendar-lab/internal/direction"
	"fx-calendar-lab/internal/domain"
)

// Scorer fits and applies per-title surprise statistics.
// It holds no state between calls; the fitted table is passed explicitly.
type Scorer struct {
	classifier *direction.Classifier
	minSamples int
}

// NewScorer creates a scorer. minSamples <= 0 selects domain.DefaultMinSamples.
func NewScorer(classifier *direction.Classifier, minSamples int) *Scorer {
	if classifier == nil {
		classifier = direction.Builtin()
	}
	if minSamples <= 0 {
		minSamples = domain.DefaultMinSamples
	}
	return &Scorer{classifier: classifier, minSamples: minSamples}
}

// MinSamples returns the sample gate in use.
func (s *Scorer) MinSamples() int {
	return s.minSamples
}

// Fit computes raw and directional statistics per title_norm over the whole corpus.
// Every title present in the corpus gets an entry, including groups with no
// usable surprise.
func (s *Scorer) Fit(events []*domain.Event) *domain.StatsTable {
	raw := make(map[string][]float64)
	dir := make(map[string][]float64)
	seen := make(map[string]struct{})

	for _, e := range events {
		seen[e.TitleNorm] = struct{}{}
		v := e.SurpriseRaw()
		if v == nil {
			continue
		}
		raw[e.TitleNorm] = append(raw[e.TitleNorm], *v)
		if sgn, ok := s.classifier.Classify(e.TitleNorm).Sign(); ok {
			dir[e.TitleNorm] = append(dir[e.TitleNorm], float64(sgn)*(*v))
		}
	}

	titles := make([]string, 0, len(seen))
	for t := range seen {
		titles = append(titles, t)
	}
	sort.Strings(titles)

	stats := make([]domain.SurpriseStat, 0, len(titles))
	for _, t := range titles {
		stats = append(stats, domain.SurpriseStat{
			TitleNorm:   t,
			Raw:         computeGroupStat(raw[t], s.minSamples),
			Directional: computeGroupStat(dir[t], s.minSamples),
		})
	}
	return domain.NewStatsTable(s.minSamples, stats)
}

// Score derives surprise, z-scores and currency-strength signs for each event
// against a fitted table. Output order matches input order; events are copied.
func (s *Scorer) Score(events []*domain.Event, table *domain.StatsTable) []*domain.ScoredEvent {
	out := make([]*domain.ScoredEvent, 0, len(events))
	for _, e := range events {
		out = append(out, s.scoreOne(e, table))
	}
	return out
}

// FitScore fits the table on events and scores the same corpus against it.
func (s *Scorer) FitScore(events []*domain.Event) ([]*domain.ScoredEvent, *domain.StatsTable) {
	table := s.Fit(events)
	return s.Score(events, table), table
}

func (s *Scorer) scoreOne(e *domain.Event, table *domain.StatsTable) *domain.ScoredEvent {
	d := s.classifier.Classify(e.TitleNorm)
	se := &domain.ScoredEvent{
		Event:        *e.Clone(),
		Direction:    d,
		GoodIsHigher: d.GoodIsHigher(),
		SurpriseRaw:  e.SurpriseRaw(),
	}

	stat, _ := table.Get(e.TitleNorm)
	se.SurpriseZ = zScore(se.SurpriseRaw, stat.Raw)

	if se.SurpriseRaw == nil {
		return se
	}
	ss := sign(*se.SurpriseRaw)
	se.SurpriseSign = &ss

	dirSign, ok := d.Sign()
	if !ok {
		return se
	}
	ds := float64(dirSign) * (*se.SurpriseRaw)
	se.DirectionalSurprise = &ds
	se.DirectionalZ = zScore(se.DirectionalSurprise, stat.Directional)

	cc := ss * dirSign
	se.CCStrengthSign = &cc
	return se
}
