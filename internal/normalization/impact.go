package normalization

import (
	"strconv"
	"strings"

	"fx-calendar-lab/internal/domain"
)

// impactWords maps the impact vocabularies of the supported sources.
// Lookups use the lowercased, trimmed label.
var impactWords = map[string]domain.Impact{
	"high":                   domain.ImpactHigh,
	"red":                    domain.ImpactHigh,
	"!!!":                    domain.ImpactHigh,
	"***":                    domain.ImpactHigh,
	"★★★":                    domain.ImpactHigh,
	"high impact expected":   domain.ImpactHigh,
	"icon--ff-impact-red":    domain.ImpactHigh,
	"medium":                 domain.ImpactMedium,
	"med":                    domain.ImpactMedium,
	"moderate":               domain.ImpactMedium,
	"orange":                 domain.ImpactMedium,
	"yellow":                 domain.ImpactMedium,
	"!!":                     domain.ImpactMedium,
	"**":                     domain.ImpactMedium,
	"★★":                     domain.ImpactMedium,
	"medium impact expected": domain.ImpactMedium,
	"icon--ff-impact-ora":    domain.ImpactMedium,
	"low":                    domain.ImpactLow,
	"grey":                   domain.ImpactLow,
	"gray":                   domain.ImpactLow,
	"!":                      domain.ImpactLow,
	"*":                      domain.ImpactLow,
	"★":                      domain.ImpactLow,
	"low impact expected":    domain.ImpactLow,
	"icon--ff-impact-yel":    domain.ImpactLow,
	"holiday":                domain.ImpactUnknown,
	"non-economic":           domain.ImpactUnknown,
	"icon--ff-impact-gra":    domain.ImpactUnknown,
	"unknown":                domain.ImpactUnknown,
	"":                       domain.ImpactUnknown,
}

// NormalizeImpact maps free impact text to the canonical levels.
// Numeric codes: >=4 high, 3 medium, 1-2 low. Unmapped text is unknown.
func NormalizeImpact(label string) domain.Impact {
	l := strings.ToLower(strings.TrimSpace(label))

	if impact, ok := impactWords[l]; ok {
		return impact
	}

	if n, err := strconv.Atoi(l); err == nil {
		switch {
		case n >= 4:
			return domain.ImpactHigh
		case n == 3:
			return domain.ImpactMedium
		case n >= 1:
			return domain.ImpactLow
		default:
			return domain.ImpactUnknown
		}
	}

	// class lists such as "icon icon--ff-impact-red" and sentences like
	// "High Impact Expected" from other sources
	for _, field := range strings.Fields(l) {
		if strings.HasPrefix(field, "icon--ff-impact-") {
			if impact, ok := impactWords[field]; ok {
				return impact
			}
		}
	}
	switch {
	case strings.Contains(l, "holiday"):
		return domain.ImpactUnknown
	case strings.HasPrefix(l, "high"):
		return domain.ImpactHigh
	case strings.HasPrefix(l, "medium"):
		return domain.ImpactMedium
	case strings.HasPrefix(l, "low"):
		return domain.ImpactLow
	}

	return domain.ImpactUnknown
}
