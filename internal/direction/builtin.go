package direction

// Built-in rules for common macro releases. Higher-is-better rules come first.
var builtinHigher = []string{
	`\b(gdp|gross domestic product)\b`,
	`\b(retail sales|core retail sales)\b`,
	`\b(non[- ]?farm payrolls|non[- ]?farm employment change|nfp|employment change|payrolls)\b`,
	`\b(average hourly earnings|wage|wages|earnings)\b`,
	`\b(cpi|core cpi|pce price|core pce|ppi|core ppi|inflation)\b`,
	`\b(ism|pmi)\b`,
	`\b(industrial production|factory orders|durable goods|capex)\b`,
	`\b(housing starts|building permits|home sales|new home sales|existing home sales|pending home sales)\b`,
	`\b(consumer confidence|business confidence|ifo|zew|gfk|sentiment)\b`,
	`\b(leading indicators)\b`,
}

var builtinLower = []string{
	`\bunemployment rate\b`,
	`\b(jobless claims|initial claims|continuing claims|unemployment claims)\b`,
	`\bunemployment change\b`,
	`\bclaimant count\b`,
}

// BuiltinRules returns the built-in rule table in match order.
func BuiltinRules() []Rule {
	rules := make([]Rule, 0, len(builtinHigher)+len(builtinLower))
	for _, p := range builtinHigher {
		rules = append(rules, mustRule(p, true))
	}
	for _, p := range builtinLower {
		rules = append(rules, mustRule(p, false))
	}
	return rules
}

// Builtin returns a classifier over the built-in table.
func Builtin() *Classifier {
	return NewClassifier(BuiltinRules())
}

func mustRule(pattern string, goodIsHigher bool) Rule {
	r, err := NewRule(pattern, MatchRegex, goodIsHigher)
	if err != nil {
		panic(err)
	}
	return r
}
