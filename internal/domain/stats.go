package domain

import "sort"

// DefaultMinSamples is the minimum group size before a z-score is trusted.
const DefaultMinSamples = 10

// GroupStat summarizes one surprise series for a title group.
type GroupStat struct {
	Count int
	Mu    *float64 // nil when Count == 0
	Sigma *float64 // sample stddev (n-1), nil when Count < 2
	OK    bool     // Count >= min samples and Sigma > 0
}

// SurpriseStat holds the raw and directional statistics of one title_norm group.
// Corresponds to title_stats table in ClickHouse.
type SurpriseStat struct {
	TitleNorm   string
	Raw         GroupStat // actual - forecast
	Directional GroupStat // sign(direction) * (actual - forecast)
}

// StatsTable is the fitted per-title statistics of one corpus pass.
// It is built once and passed explicitly to scoring.
type StatsTable struct {
	MinSamples int
	byTitle    map[string]SurpriseStat
}

// NewStatsTable builds a table from fitted or stored stats.
func NewStatsTable(minSamples int, stats []SurpriseStat) *StatsTable {
	t := &StatsTable{
		MinSamples: minSamples,
		byTitle:    make(map[string]SurpriseStat, len(stats)),
	}
	for _, s := range stats {
		t.byTitle[s.TitleNorm] = s
	}
	return t
}

// Get returns the stats of a title group.
func (t *StatsTable) Get(titleNorm string) (SurpriseStat, bool) {
	if t == nil {
		return SurpriseStat{}, false
	}
	s, ok := t.byTitle[titleNorm]
	return s, ok
}

// Len returns the number of title groups.
func (t *StatsTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.byTitle)
}

// Stats returns all groups ordered by title_norm.
func (t *StatsTable) Stats() []SurpriseStat {
	if t == nil {
		return nil
	}
	out := make([]SurpriseStat, 0, len(t.byTitle))
	for _, s := range t.byTitle {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].TitleNorm < out[j].TitleNorm
	})
	return out
}

// CountOK returns how many groups pass the raw and directional gates.
func (t *StatsTable) CountOK() (raw, directional int) {
	if t == nil {
		return 0, 0
	}
	for _, s := range t.byTitle {
		if s.Raw.OK {
			raw++
		}
		if s.Directional.OK {
			directional++
		}
	}
	return raw, directional
}
