// Package numparse decodes calendar value text ("1.3M", "-0.2%", "4,500") into a
// number and a unit kind.
package numparse

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"fx-calendar-lab/internal/domain"
)

// Number is the parsed form of one value field. Both parts are optional:
// "--" yields neither, "n.a.%" yields a kind without a value.
type Number struct {
	Value *float64
	Kind  *domain.ValueKind
}

var placeholders = map[string]struct{}{
	"n/a": {},
	"na":  {},
	"--":  {},
}

var (
	wordBillion  = regexp.MustCompile(`(?i)\s*(billion|bn)\b`)
	wordMillion  = regexp.MustCompile(`(?i)\s*(million|mln)\b`)
	wordThousand = regexp.MustCompile(`(?i)\s*(thousand|thou)\b`)

	// Keep word characters, sign, dot and whitespace; drops %, currency symbols, commas.
	strayChars = regexp.MustCompile(`[^\w.\-+\s]`)

	strictNumber   = regexp.MustCompile(`(?i)^([+-]?\d*\.?\d+(?:e[+-]?\d+)?)([KMBT])?$`)
	embeddedNumber = regexp.MustCompile(`[+-]?\d*\.?\d+`)

	// accounting negative: "(2.1)", "(0.4%)"
	parenthesized = regexp.MustCompile(`^\(\s*([^()]*?)\s*\)$`)
)

var errNotFinite = errors.New("value out of float64 range")

// suffix exponents of ten
var multipliers = map[string]int32{
	"K": 3,
	"M": 6,
	"B": 9,
	"T": 12,
}

// Parse decodes s. It never panics; text that carries no usable number returns
// a Number with a nil Value and an error wrapping domain.ErrMalformedValue.
// Empty input and placeholders return the zero Number and no error.
func Parse(s string) (Number, error) {
	text := strings.TrimSpace(s)
	if text == "" {
		return Number{}, nil
	}
	if _, ok := placeholders[strings.ToLower(text)]; ok {
		return Number{}, nil
	}

	kind := domain.KindLevel
	if strings.Contains(text, "%") {
		kind = domain.KindPct
	}
	out := Number{Kind: &kind}

	text = strings.ReplaceAll(text, "\u2212", "-")
	if m := parenthesized.FindStringSubmatch(text); m != nil && !strings.HasPrefix(m[1], "-") {
		text = "-" + m[1]
	}
	text = wordBillion.ReplaceAllString(text, "B")
	text = wordMillion.ReplaceAllString(text, "M")
	text = wordThousand.ReplaceAllString(text, "K")
	text = strayChars.ReplaceAllString(text, "")
	text = strings.NewReplacer(",", "", "_", "").Replace(text)
	text = strings.Join(strings.Fields(text), "")

	if m := strictNumber.FindStringSubmatch(text); m != nil {
		v, err := scale(m[1], strings.ToUpper(m[2]))
		if err != nil {
			return out, fmt.Errorf("%w: %q: %v", domain.ErrMalformedValue, s, err)
		}
		out.Value = &v
		return out, nil
	}

	if m := embeddedNumber.FindString(text); m != "" {
		v, err := scale(m, "")
		if err != nil {
			return out, fmt.Errorf("%w: %q: %v", domain.ErrMalformedValue, s, err)
		}
		out.Value = &v
		return out, nil
	}

	// no number and no unit marker: nothing is known about the field
	if kind == domain.KindLevel {
		return Number{}, fmt.Errorf("%w: no number in %q", domain.ErrMalformedValue, s)
	}
	return out, fmt.Errorf("%w: no number in %q", domain.ErrMalformedValue, s)
}

// scale multiplies the decimal magnitude by the suffix in exact arithmetic.
func scale(magnitude, suffix string) (float64, error) {
	d, err := decimal.NewFromString(canonicalDecimal(magnitude))
	if err != nil {
		return 0, err
	}
	if exp, ok := multipliers[suffix]; ok {
		d = d.Shift(exp)
	}
	v := d.InexactFloat64()
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, errNotFinite
	}
	return v, nil
}

// canonicalDecimal turns "+.5" / "-.5" / ".5" into forms every decimal parser accepts.
func canonicalDecimal(s string) string {
	sign := ""
	if strings.HasPrefix(s, "+") {
		s = s[1:]
	} else if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	return sign + s
}
