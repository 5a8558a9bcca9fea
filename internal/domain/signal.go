package domain

import "time"

// SignalStage distinguishes projected rows from rows that survived filtering.
type SignalStage string

const (
	StageProjected SignalStage = "projected"
	StageFiltered  SignalStage = "filtered"
)

// PairSignal is one (event, pair) projection of a currency-strength sign.
// Recomputed on every run, never mutated independently of the event corpus.
// Corresponds to pair_signals table in ClickHouse.
type PairSignal struct {
	SignalID       string // base58(SHA256(event_id|pair))
	EventID        string
	Pair           string // 6-letter code, e.g. EURUSD
	Currency       string // event currency
	Title          string
	DirectionSign  int // -1, 0, +1
	WhenUTC        *time.Time
	Impact         Impact
	SurpriseRaw    *float64
	SurpriseZ      *float64
	SurpriseSign   *int
	CCStrengthSign int
	DateLocal      string
	TimeLocal      string
	Source         Source
}

// ImpactNum returns the impact rank of the originating event.
func (p *PairSignal) ImpactNum() int {
	return p.Impact.Rank()
}

// WhenISO returns the UTC instant in RFC 3339, or "".
func (p *PairSignal) WhenISO() string {
	if p.WhenUTC == nil {
		return ""
	}
	return p.WhenUTC.UTC().Format(time.RFC3339)
}

// AbsZ returns |SurpriseZ| and whether it is defined.
func (p *PairSignal) AbsZ() (float64, bool) {
	if p.SurpriseZ == nil {
		return 0, false
	}
	z := *p.SurpriseZ
	if z < 0 {
		z = -z
	}
	return z, true
}
