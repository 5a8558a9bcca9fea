package domain

// Impact is the expected market significance of a release.
type Impact string

const (
	ImpactUnknown Impact = "unknown"
	ImpactLow     Impact = "low"
	ImpactMedium  Impact = "medium"
	ImpactHigh    Impact = "high"
)

// Rank returns the ordinal encoding unknown(0) < low(1) < medium(2) < high(3).
func (i Impact) Rank() int {
	switch i {
	case ImpactLow:
		return 1
	case ImpactMedium:
		return 2
	case ImpactHigh:
		return 3
	default:
		return 0
	}
}

// String returns the string representation of Impact.
func (i Impact) String() string {
	if i == "" {
		return string(ImpactUnknown)
	}
	return string(i)
}

// ParseImpact maps a stored impact name back to Impact.
// Anything other than the four canonical names is unknown.
func ParseImpact(s string) Impact {
	switch Impact(s) {
	case ImpactLow, ImpactMedium, ImpactHigh:
		return Impact(s)
	default:
		return ImpactUnknown
	}
}
