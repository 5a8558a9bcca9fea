package direction

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"fx-calendar-lab/internal/domain"
)

// LoadRulesFile reads an ordered rule table from a CSV file.
func LoadRulesFile(path string) ([]Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open rules csv: %v", domain.ErrInvalidConfig, err)
	}
	defer f.Close()

	rules, err := LoadRulesCSV(f)
	if err != nil {
		return nil, fmt.Errorf("rules csv %s: %w", path, err)
	}
	return rules, nil
}

// LoadRulesCSV reads an ordered rule table. Required columns: pattern (or the
// legacy title_pattern) and good_is_higher. An optional match column selects
// substring (default) or regex per row. Row order is preserved.
func LoadRulesCSV(r io.Reader) ([]Rule, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: rules csv is empty", domain.ErrInvalidConfig)
		}
		return nil, fmt.Errorf("%w: read rules header: %v", domain.ErrInvalidConfig, err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}

	patternCol, ok := cols["pattern"]
	if !ok {
		patternCol, ok = cols["title_pattern"]
	}
	goodCol, hasGood := cols["good_is_higher"]
	if !ok || !hasGood {
		return nil, fmt.Errorf("%w: rules csv must have columns pattern,good_is_higher (got %s)",
			domain.ErrInvalidConfig, strings.Join(header, ","))
	}
	matchCol, hasMatch := cols["match"]

	var rules []Rule
	line := 1
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: rules csv line %d: %v", domain.ErrInvalidConfig, line, err)
		}

		pattern := strings.TrimSpace(field(rec, patternCol))
		if pattern == "" {
			continue
		}
		mode := MatchSubstring
		if hasMatch {
			if m := strings.ToLower(strings.TrimSpace(field(rec, matchCol))); m != "" {
				mode = MatchMode(m)
			}
		}

		rule, err := NewRule(pattern, mode, isTruthy(field(rec, goodCol)))
		if err != nil {
			return nil, fmt.Errorf("rules csv line %d: %w", line, err)
		}
		rules = append(rules, rule)
	}

	return rules, nil
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

func isTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}
