package domain

// ScoredEvent is an Event with its surprise, z-scores and currency-strength sign.
// Corresponds to scored_events table in ClickHouse.
type ScoredEvent struct {
	Event

	Direction           Direction
	GoodIsHigher        *bool    // nil for ambiguous titles
	SurpriseRaw         *float64 // actual - forecast, same kind only
	SurpriseSign        *int     // sign(SurpriseRaw)
	SurpriseZ           *float64 // nil unless the raw group is OK
	DirectionalSurprise *float64 // nil for ambiguous titles
	DirectionalZ        *float64 // nil unless the directional group is OK
	CCStrengthSign      *int     // SurpriseSign adjusted by direction, nil when undefined
}

// AbsZ returns |SurpriseZ| and whether it is defined.
func (s *ScoredEvent) AbsZ() (float64, bool) {
	if s.SurpriseZ == nil {
		return 0, false
	}
	z := *s.SurpriseZ
	if z < 0 {
		z = -z
	}
	return z, true
}
