package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"fx-calendar-lab/internal/domain"
	"fx-calendar-lab/internal/storage"
	"fx-calendar-lab/internal/surprise"
)

// Default corpus sufficiency thresholds, in percent of all events.
const (
	DefaultMinTimedPct         = 90.0
	DefaultMaxUnknownImpactPct = 10.0
)

// SufficiencyCheck represents one corpus sufficiency criterion.
type SufficiencyCheck struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// SufficiencyResult contains all 4 checks.
type SufficiencyResult struct {
	Checks  []SufficiencyCheck
	AllPass bool
	Errors  []string // data integrity errors
}

// Thresholds configures the percentage checks.
type Thresholds struct {
	MinTimedPct         float64
	MaxUnknownImpactPct float64
}

// DefaultThresholds returns the default sufficiency thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinTimedPct:         DefaultMinTimedPct,
		MaxUnknownImpactPct: DefaultMaxUnknownImpactPct,
	}
}

// DuplicateKey is one identity key (date, time, currency, title) carried by
// more than one event_id.
type DuplicateKey struct {
	DateLocal string
	TimeLocal string
	Currency  string
	TitleNorm string
	EventIDs  []string // sorted
}

// String returns the key as date|time|currency|title.
func (k DuplicateKey) String() string {
	return strings.Join([]string{k.DateLocal, k.TimeLocal, k.Currency, k.TitleNorm}, "|")
}

// SufficiencyChecker validates that the stored corpus can support scoring.
type SufficiencyChecker struct {
	eventStore storage.EventStore
	scorer     *surprise.Scorer
	thresholds Thresholds
}

// NewSufficiencyChecker creates a new sufficiency checker.
func NewSufficiencyChecker(eventStore storage.EventStore, scorer *surprise.Scorer) *SufficiencyChecker {
	if scorer == nil {
		scorer = surprise.NewScorer(nil, 0)
	}
	return &SufficiencyChecker{
		eventStore: eventStore,
		scorer:     scorer,
		thresholds: DefaultThresholds(),
	}
}

// WithThresholds overrides the percentage thresholds.
func (c *SufficiencyChecker) WithThresholds(t Thresholds) *SufficiencyChecker {
	c.thresholds = t
	return c
}

// Check loads the corpus, fits the title statistics and runs all checks.
func (c *SufficiencyChecker) Check(ctx context.Context) (*SufficiencyResult, error) {
	events, err := c.eventStore.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}
	return CheckCorpus(events, c.scorer.Fit(events), c.thresholds), nil
}

// CheckCorpus runs all checks over an in-memory corpus and its fitted table.
func CheckCorpus(events []*domain.Event, table *domain.StatsTable, t Thresholds) *SufficiencyResult {
	result := &SufficiencyResult{
		Checks:  make([]SufficiencyCheck, 0, 4),
		AllPass: true,
		Errors:  []string{},
	}
	add := func(check SufficiencyCheck) {
		result.Checks = append(result.Checks, check)
		if !check.Pass {
			result.AllPass = false
		}
	}

	// Check 1: share of events with a resolved UTC instant
	add(checkTimeCoverage(events, t.MinTimedPct))

	// Check 2: share of events with unknown impact
	add(checkUnknownImpact(events, t.MaxUnknownImpactPct))

	// Check 3: duplicate identity keys == 0
	dupes := DuplicateKeys(events)
	add(SufficiencyCheck{
		Name:      "Duplicate identity keys",
		Threshold: "== 0",
		Actual:    fmt.Sprintf("%d", len(dupes)),
		Pass:      len(dupes) == 0,
	})
	for _, d := range dupes {
		result.Errors = append(result.Errors,
			fmt.Sprintf("duplicate key %s: event_ids %s", d, strings.Join(d.EventIDs, ", ")))
	}

	// Check 4: at least one title group can be z-scored
	rawOK, _ := table.CountOK()
	add(SufficiencyCheck{
		Name:      "Title groups with OK stats",
		Threshold: ">= 1",
		Actual:    fmt.Sprintf("%d", rawOK),
		Pass:      rawOK >= 1,
	})

	return result
}

func checkTimeCoverage(events []*domain.Event, minPct float64) SufficiencyCheck {
	timed := 0
	for _, e := range events {
		if e.WhenUTC != nil {
			timed++
		}
	}
	pct := Pct(timed, len(events))
	return SufficiencyCheck{
		Name:      "Events with resolved UTC time",
		Threshold: fmt.Sprintf(">= %.2f%%", minPct),
		Actual:    fmt.Sprintf("%.2f%% (%d/%d)", pct, timed, len(events)),
		Pass:      len(events) > 0 && pct >= minPct,
	}
}

func checkUnknownImpact(events []*domain.Event, maxPct float64) SufficiencyCheck {
	unknown := 0
	for _, e := range events {
		if e.Impact.Rank() == 0 {
			unknown++
		}
	}
	pct := Pct(unknown, len(events))
	return SufficiencyCheck{
		Name:      "Unknown impact share",
		Threshold: fmt.Sprintf("<= %.2f%%", maxPct),
		Actual:    fmt.Sprintf("%.2f%% (%d/%d)", pct, unknown, len(events)),
		Pass:      len(events) > 0 && pct <= maxPct,
	}
}

// DuplicateKeys returns identity keys shared by more than one event_id, ordered
// by key. The same release ingested with a source id and with a derived id shows
// up here.
func DuplicateKeys(events []*domain.Event) []DuplicateKey {
	type identity struct {
		date, clock, currency, title string
	}
	groups := make(map[identity]map[string]struct{})
	for _, e := range events {
		k := identity{e.DateLocal, strings.ToLower(e.TimeLocal), e.Currency, e.TitleNorm}
		if groups[k] == nil {
			groups[k] = make(map[string]struct{})
		}
		groups[k][e.EventID] = struct{}{}
	}

	var out []DuplicateKey
	for k, ids := range groups {
		if len(ids) < 2 {
			continue
		}
		d := DuplicateKey{DateLocal: k.date, TimeLocal: k.clock, Currency: k.currency, TitleNorm: k.title}
		for id := range ids {
			d.EventIDs = append(d.EventIDs, id)
		}
		sort.Strings(d.EventIDs)
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})
	return out
}

// Pct returns 100*n/total, or 0 when total is 0.
func Pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(n) / float64(total)
}
