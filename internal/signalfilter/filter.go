// Package signalfilter thresholds, session-filters and deduplicates pair signals
// so that at most one event per currency survives in each time bucket.
package signalfilter

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"fx-calendar-lab/internal/domain"
)

// TieBreak selects the ranking used to pick one event per bucket.
type TieBreak string

const (
	TieBreakImpactFirst TieBreak = "impact_first" // impact desc, then |z| desc
	TieBreakAbsZFirst   TieBreak = "abs_z_first"  // |z| desc, then impact desc
)

// ParseTieBreak parses a tie-break policy name.
func ParseTieBreak(s string) (TieBreak, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "impact_first", "impact_then_absz":
		return TieBreakImpactFirst, nil
	case "abs_z_first", "absz_first", "absz_then_impact":
		return TieBreakAbsZFirst, nil
	default:
		return "", fmt.Errorf("%w: unknown tie-break policy %q", domain.ErrInvalidConfig, s)
	}
}

// Config holds the filter thresholds.
type Config struct {
	MinImpact int           // keep impact rank >= MinImpact; 0 disables
	MinAbsZ   float64       // keep |z| >= MinAbsZ; 0 disables and lets undefined z through
	Windows   []Window      // keep timestamps inside any window; empty disables
	Bucket    time.Duration // dedupe bucket width; 0 disables dedupe
	TieBreak  TieBreak
	MinGap    time.Duration // minimum spacing of kept events per currency; 0 disables
}

// DefaultConfig returns the default thresholds: everything passes, 1-minute
// buckets, impact-first tie-break.
func DefaultConfig() Config {
	return Config{
		Bucket:   time.Minute,
		TieBreak: TieBreakImpactFirst,
	}
}

// Validate checks the configuration before any row is processed.
func (c Config) Validate() error {
	if c.MinImpact < 0 || c.MinImpact > 3 {
		return fmt.Errorf("%w: impact_min must be in [0,3], got %d", domain.ErrInvalidConfig, c.MinImpact)
	}
	if math.IsNaN(c.MinAbsZ) || c.MinAbsZ < 0 {
		return fmt.Errorf("%w: z_min must be >= 0, got %v", domain.ErrInvalidConfig, c.MinAbsZ)
	}
	if c.Bucket < 0 {
		return fmt.Errorf("%w: bucket must be >= 0, got %s", domain.ErrInvalidConfig, c.Bucket)
	}
	if c.MinGap < 0 {
		return fmt.Errorf("%w: min_gap must be >= 0, got %s", domain.ErrInvalidConfig, c.MinGap)
	}
	if _, err := ParseTieBreak(string(c.TieBreak)); err != nil {
		return err
	}
	for _, w := range c.Windows {
		if w.Start == w.End || w.Start < 0 || w.End < 0 || w.Start > 24*60 || w.End > 24*60 {
			return fmt.Errorf("%w: bad window %s", domain.ErrInvalidConfig, w)
		}
	}
	return nil
}

// Stats reports row and event counts after each stage.
type Stats struct {
	Input         int // pair rows in
	Timestamped   int // rows with timestamp and pair
	Thresholded   int // rows passing impact and |z|
	InSession     int // rows inside a session window
	Events        int // distinct events among InSession rows
	BucketWinners int // events left after bucket dedupe
	Kept          int // events left after the min-gap pass
	Output        int // pair rows out
}

// candidate is one event considered for a bucket.
type candidate struct {
	eventID  string
	currency string
	ts       time.Time
	impact   int
	absZ     float64
	hasZ     bool
}

// Apply filters signals. The input is not modified; output rows are ordered by
// (timestamp, currency, event_id, pair).
func Apply(signals []*domain.PairSignal, cfg Config) ([]*domain.PairSignal, Stats, error) {
	stats := Stats{Input: len(signals)}
	if err := cfg.Validate(); err != nil {
		return nil, stats, err
	}
	tieBreak, _ := ParseTieBreak(string(cfg.TieBreak))

	// 1-3: row-level filters.
	rows := make([]*domain.PairSignal, 0, len(signals))
	for _, s := range signals {
		if s == nil || s.WhenUTC == nil || s.Pair == "" {
			continue
		}
		stats.Timestamped++

		if cfg.MinImpact > 0 && s.ImpactNum() < cfg.MinImpact {
			continue
		}
		if cfg.MinAbsZ > 0 {
			z, ok := s.AbsZ()
			if !ok || z < cfg.MinAbsZ {
				continue
			}
		}
		stats.Thresholded++

		if len(cfg.Windows) > 0 && !inAnyWindow(*s.WhenUTC, cfg.Windows) {
			continue
		}
		stats.InSession++
		rows = append(rows, s)
	}

	// 4: one event per (currency, bucket).
	events := distinctEvents(rows)
	stats.Events = len(events)
	winners := dedupeBuckets(events, cfg.Bucket, tieBreak)
	stats.BucketWinners = len(winners)

	// 5: spacing per currency.
	kept := applyMinGap(winners, cfg.MinGap)
	stats.Kept = len(kept)

	keep := make(map[string]struct{}, len(kept))
	for _, c := range kept {
		keep[c.eventID] = struct{}{}
	}
	out := make([]*domain.PairSignal, 0, len(rows))
	for _, s := range rows {
		if _, ok := keep[s.EventID]; ok {
			out = append(out, s)
		}
	}
	SortSignals(out)
	stats.Output = len(out)
	return out, stats, nil
}

// SortSignals orders rows by (timestamp, currency, event_id, pair); rows without
// a timestamp go last.
func SortSignals(rows []*domain.PairSignal) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch {
		case a.WhenUTC == nil && b.WhenUTC != nil:
			return false
		case a.WhenUTC != nil && b.WhenUTC == nil:
			return true
		case a.WhenUTC != nil && !a.WhenUTC.Equal(*b.WhenUTC):
			return a.WhenUTC.Before(*b.WhenUTC)
		}
		if a.Currency != b.Currency {
			return a.Currency < b.Currency
		}
		if a.EventID != b.EventID {
			return a.EventID < b.EventID
		}
		return a.Pair < b.Pair
	})
}

func inAnyWindow(t time.Time, windows []Window) bool {
	for _, w := range windows {
		if w.Contains(t) {
			return true
		}
	}
	return false
}

func distinctEvents(rows []*domain.PairSignal) []candidate {
	seen := make(map[string]struct{}, len(rows))
	var out []candidate
	for _, s := range rows {
		if _, ok := seen[s.EventID]; ok {
			continue
		}
		seen[s.EventID] = struct{}{}
		z, ok := s.AbsZ()
		out = append(out, candidate{
			eventID:  s.EventID,
			currency: s.Currency,
			ts:       s.WhenUTC.UTC(),
			impact:   s.ImpactNum(),
			absZ:     z,
			hasZ:     ok,
		})
	}
	return out
}

type bucketKey struct {
	currency string
	start    time.Time
}

func dedupeBuckets(events []candidate, bucket time.Duration, tieBreak TieBreak) []candidate {
	if bucket <= 0 {
		return events
	}
	best := make(map[bucketKey]candidate, len(events))
	var order []bucketKey
	for _, c := range events {
		k := bucketKey{currency: c.currency, start: FloorUTC(c.ts, bucket)}
		cur, ok := best[k]
		if !ok {
			order = append(order, k)
			best[k] = c
			continue
		}
		if ranksBefore(c, cur, tieBreak) {
			best[k] = c
		}
	}

	out := make([]candidate, 0, len(order))
	for _, k := range order {
		out = append(out, best[k])
	}
	return out
}

// ranksBefore reports whether a beats b under the tie-break policy.
// An undefined |z| ranks below any defined one; event_id ascending breaks ties.
func ranksBefore(a, b candidate, tieBreak TieBreak) bool {
	impact := compareInt(a.impact, b.impact)
	absZ := compareZ(a, b)

	primary, secondary := impact, absZ
	if tieBreak == TieBreakAbsZFirst {
		primary, secondary = absZ, impact
	}
	if primary != 0 {
		return primary > 0
	}
	if secondary != 0 {
		return secondary > 0
	}
	return a.eventID < b.eventID
}

func compareInt(a, b int) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

func compareZ(a, b candidate) int {
	switch {
	case a.hasZ && !b.hasZ:
		return 1
	case !a.hasZ && b.hasZ:
		return -1
	case !a.hasZ && !b.hasZ:
		return 0
	case a.absZ > b.absZ:
		return 1
	case a.absZ < b.absZ:
		return -1
	default:
		return 0
	}
}

func applyMinGap(events []candidate, gap time.Duration) []candidate {
	if gap <= 0 {
		return events
	}
	sorted := make([]candidate, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].currency != sorted[j].currency {
			return sorted[i].currency < sorted[j].currency
		}
		if !sorted[i].ts.Equal(sorted[j].ts) {
			return sorted[i].ts.Before(sorted[j].ts)
		}
		return sorted[i].eventID < sorted[j].eventID
	})

	lastKept := make(map[string]time.Time)
	var out []candidate
	for _, c := range sorted {
		if last, ok := lastKept[c.currency]; ok && c.ts.Sub(last) < gap {
			continue
		}
		lastKept[c.currency] = c.ts
		out = append(out, c)
	}
	return out
}

// FloorUTC floors t to a multiple of d counted from the Unix epoch, so widths
// that do not divide a day still bucket the same way across days.
func FloorUTC(t time.Time, d time.Duration) time.Time {
	if d <= 0 {
		return t.UTC()
	}
	ns := t.UnixNano()
	rem := ns % int64(d)
	if rem < 0 {
		rem += int64(d)
	}
	return time.Unix(0, ns-rem).UTC()
}
