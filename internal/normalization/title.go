package normalization

import (
	"regexp"
	"strings"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	titleStray    = regexp.MustCompile(`[^a-z0-9 %/.\-]`)
)

// NormalizeTitle derives the statistical grouping key of a title:
// lowercase, collapse whitespace runs, strip characters outside [a-z0-9 %/.-], trim.
// Titles that differ only in punctuation or case are pooled together.
func NormalizeTitle(title string) string {
	s := strings.ToLower(title)
	s = whitespaceRun.ReplaceAllString(s, " ")
	s = titleStray.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// NormalizeCurrency uppercases and trims a currency code.
func NormalizeCurrency(ccy string) string {
	return strings.ToUpper(strings.TrimSpace(ccy))
}
