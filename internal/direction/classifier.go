// Package direction classifies event titles as higher-is-better, lower-is-better or
// ambiguous through an ordered first-match-wins rule list.
package direction

import (
	"fmt"
	"regexp"

	"fx-calendar-lab/internal/domain"
)

// MatchMode says how a rule pattern is interpreted.
type MatchMode string

const (
	MatchSubstring MatchMode = "substring" // literal, case-insensitive
	MatchRegex     MatchMode = "regex"     // RE2 syntax, case-insensitive
)

// Rule is one (pattern, good_is_higher) row.
type Rule struct {
	Pattern      string
	Mode         MatchMode
	GoodIsHigher bool

	re *regexp.Regexp
}

// NewRule compiles a rule. Substring patterns are quoted; both modes are
// case-insensitive.
func NewRule(pattern string, mode MatchMode, goodIsHigher bool) (Rule, error) {
	var expr string
	switch mode {
	case MatchSubstring, "":
		mode = MatchSubstring
		expr = "(?i)" + regexp.QuoteMeta(pattern)
	case MatchRegex:
		expr = "(?i)" + pattern
	default:
		return Rule{}, fmt.Errorf("%w: unknown match mode %q", domain.ErrInvalidConfig, mode)
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return Rule{}, fmt.Errorf("%w: rule %q: %v", domain.ErrInvalidConfig, pattern, err)
	}
	return Rule{Pattern: pattern, Mode: mode, GoodIsHigher: goodIsHigher, re: re}, nil
}

// Matches reports whether the rule matches title.
func (r Rule) Matches(title string) bool {
	return r.re != nil && r.re.MatchString(title)
}

// Direction returns the direction the rule assigns.
func (r Rule) Direction() domain.Direction {
	if r.GoodIsHigher {
		return domain.DirectionHigherBetter
	}
	return domain.DirectionLowerBetter
}

// Classifier holds an ordered rule list. The order is semantically significant:
// "core cpi" and "cpi" may both match, and the first rule wins.
type Classifier struct {
	rules []Rule
}

// NewClassifier creates a classifier over exactly the given rules, in order.
// The rules replace the built-in table; they are not merged with it.
func NewClassifier(rules []Rule) *Classifier {
	c := &Classifier{rules: make([]Rule, len(rules))}
	copy(c.rules, rules)
	return c
}

// Classify returns the direction of the first matching rule, or ambiguous.
func (c *Classifier) Classify(title string) domain.Direction {
	for _, r := range c.rules {
		if r.Matches(title) {
			return r.Direction()
		}
	}
	return domain.DirectionAmbiguous
}

// Rules returns a copy of the rule list in match order.
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Len returns the number of rules.
func (c *Classifier) Len() int {
	return len(c.rules)
}
