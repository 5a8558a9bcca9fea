package domain

// ValueKind is the unit family of a parsed numeric field.
type ValueKind string

const (
	KindPct   ValueKind = "pct"   // percentage points, not divided by 100
	KindLevel ValueKind = "level" // plain magnitude after suffix multiplication
)

// Direction says whether a higher print is good for the releasing currency.
type Direction string

const (
	DirectionHigherBetter Direction = "higher_better"
	DirectionLowerBetter  Direction = "lower_better"
	DirectionAmbiguous    Direction = "ambiguous"
)

// Sign returns +1 for higher_better and -1 for lower_better.
// ok is false for ambiguous titles, which have no directional sign.
func (d Direction) Sign() (sign int, ok bool) {
	switch d {
	case DirectionHigherBetter:
		return 1, true
	case DirectionLowerBetter:
		return -1, true
	default:
		return 0, false
	}
}

// GoodIsHigher returns the rule-table flag for the direction, nil when ambiguous.
func (d Direction) GoodIsHigher() *bool {
	switch d {
	case DirectionHigherBetter:
		v := true
		return &v
	case DirectionLowerBetter:
		v := false
		return &v
	default:
		return nil
	}
}

// ParseDirection maps a stored direction name back to Direction.
func ParseDirection(s string) Direction {
	switch Direction(s) {
	case DirectionHigherBetter, DirectionLowerBetter:
		return Direction(s)
	default:
		return DirectionAmbiguous
	}
}
