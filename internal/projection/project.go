// Package projection turns a currency-strength sign into per-pair direction signs.
package projection

import (
	"fmt"
	"strings"

	"fx-calendar-lab/internal/domain"
	"fx-calendar-lab/internal/idhash"
)

// DefaultPairs is the pair universe used when none is configured.
var DefaultPairs = []string{"EURUSD", "GBPUSD", "USDJPY", "USDCHF", "AUDUSD", "NZDUSD", "USDCAD"}

// PairDirection is the projected sign for one pair.
// Sign is nil when the currency is not part of the pair or the pair code is malformed.
type PairDirection struct {
	Pair string
	Sign *int
}

// Project maps a currency-strength sign onto each pair, preserving universe order.
// A zero sign is neutral for every pair, which is distinct from "no signal" (nil).
func Project(currency string, ccSign int, pairs []string) []PairDirection {
	ccy := strings.ToUpper(strings.TrimSpace(currency))
	out := make([]PairDirection, 0, len(pairs))

	for _, p := range pairs {
		pd := PairDirection{Pair: p}
		if len(p) != 6 {
			out = append(out, pd)
			continue
		}
		if ccSign == 0 {
			zero := 0
			pd.Sign = &zero
			out = append(out, pd)
			continue
		}

		base, quote := strings.ToUpper(p[:3]), strings.ToUpper(p[3:])
		switch ccy {
		case base:
			s := ccSign
			pd.Sign = &s
		case quote:
			s := -ccSign
			pd.Sign = &s
		}
		out = append(out, pd)
	}
	return out
}

// ValidatePairs trims and uppercases pair codes and rejects malformed ones.
// Duplicates are dropped, first occurrence wins.
func ValidatePairs(pairs []string) ([]string, error) {
	if len(pairs) == 0 {
		return nil, fmt.Errorf("%w: empty pair universe", domain.ErrInvalidConfig)
	}
	out := make([]string, 0, len(pairs))
	seen := make(map[string]struct{}, len(pairs))
	for _, p := range pairs {
		code := strings.ToUpper(strings.TrimSpace(p))
		if !isPairCode(code) {
			return nil, fmt.Errorf("%w: malformed pair code %q", domain.ErrInvalidConfig, p)
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out, nil
}

func isPairCode(s string) bool {
	if len(s) != 6 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return s[:3] != s[3:]
}

// BuildPairSignals emits one PairSignal per (event, pair) with a defined projection.
// Events without a currency-strength sign emit nothing. Output follows input
// event order, then pair universe order.
func BuildPairSignals(scored []*domain.ScoredEvent, pairs []string) []*domain.PairSignal {
	var out []*domain.PairSignal
	for _, se := range scored {
		if se.CCStrengthSign == nil {
			continue
		}
		for _, pd := range Project(se.Currency, *se.CCStrengthSign, pairs) {
			if pd.Sign == nil {
				continue
			}
			out = append(out, newPairSignal(se, pd.Pair, *pd.Sign))
		}
	}
	return out
}

func newPairSignal(se *domain.ScoredEvent, pair string, dirSign int) *domain.PairSignal {
	ps := &domain.PairSignal{
		SignalID:       idhash.ComputeSignalID(se.EventID, pair),
		EventID:        se.EventID,
		Pair:           pair,
		Currency:       se.Currency,
		Title:          se.Title,
		DirectionSign:  dirSign,
		Impact:         se.Impact,
		SurpriseRaw:    copyFloat(se.SurpriseRaw),
		SurpriseZ:      copyFloat(se.SurpriseZ),
		CCStrengthSign: *se.CCStrengthSign,
		DateLocal:      se.DateLocal,
		TimeLocal:      se.TimeLocal,
		Source:         se.Source,
	}
	if se.SurpriseSign != nil {
		s := *se.SurpriseSign
		ps.SurpriseSign = &s
	}
	if se.WhenUTC != nil {
		t := se.WhenUTC.UTC()
		ps.WhenUTC = &t
	}
	return ps
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
