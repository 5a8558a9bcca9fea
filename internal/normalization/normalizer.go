// Package normalization decodes raw calendar rows into canonical Events.
package normalization

import (
	"fmt"
	"strings"
	"time"

	"fx-calendar-lab/internal/domain"
	"fx-calendar-lab/internal/idhash"
	"fx-calendar-lab/internal/numparse"
	"fx-calendar-lab/internal/timeresolve"
)

// FieldIssue records a field that degraded to null/unknown during normalization.
type FieldIssue struct {
	EventID string
	Field   string
	Value   string
	Err     error
}

func (i FieldIssue) Error() string {
	return fmt.Sprintf("event %s field %s=%q: %v", i.EventID, i.Field, i.Value, i.Err)
}

// Unwrap returns the underlying error class.
func (i FieldIssue) Unwrap() error {
	return i.Err
}

// Normalizer turns RawEvents into Events. Output is a pure function of the raw row
// and the resolver's zone table.
type Normalizer struct {
	resolver *timeresolve.Resolver
}

// NewNormalizer creates a normalizer backed by the given time resolver.
func NewNormalizer(resolver *timeresolve.Resolver) *Normalizer {
	return &Normalizer{resolver: resolver}
}

// Normalize decodes one raw row. It never fails: malformed fields become nulls and
// are reported as issues.
func (n *Normalizer) Normalize(raw domain.RawEvent) (*domain.Event, []FieldIssue) {
	e := &domain.Event{
		Source:    raw.Source,
		Currency:  NormalizeCurrency(raw.Currency),
		Impact:    NormalizeImpact(raw.Impact),
		Title:     clean(raw.Title),
		Actual:    clean(raw.Actual),
		Forecast:  clean(raw.Forecast),
		Previous:  clean(raw.Previous),
		DateLocal: clean(raw.DateLocal),
		TimeLocal: clean(raw.TimeLocal),
		WhenTZ:    clean(raw.WhenTZ),
		URL:       clean(raw.URL),
	}
	e.TitleNorm = NormalizeTitle(e.Title)

	e.EventID = clean(raw.EventID)
	if e.EventID == "" {
		e.EventID = idhash.ComputeEventID(e.DateLocal, e.TimeLocal, e.Currency, e.Title)
	}

	var issues []FieldIssue
	report := func(field, value string, err error) {
		issues = append(issues, FieldIssue{EventID: e.EventID, Field: field, Value: value, Err: err})
	}

	if e.Currency == "" {
		report("currency", raw.Currency, fmt.Errorf("%w: empty currency", domain.ErrMalformedValue))
	}

	e.ActualVal, e.ActualKind = n.parseValue(e.Actual, "actual", report)
	e.ForecastVal, e.ForecastKind = n.parseValue(e.Forecast, "forecast", report)
	e.PreviousVal, e.PreviousKind = n.parseValue(e.Previous, "previous", report)

	e.RefreshSurpriseKind()
	if e.SurpriseKind == nil && e.ActualVal != nil && e.ForecastVal != nil {
		report("surprise", e.Actual+" vs "+e.Forecast,
			fmt.Errorf("%w: actual and forecast kinds differ", domain.ErrMalformedValue))
	}

	n.resolveTime(e, clean(raw.WhenISO), report)

	return e, issues
}

// NormalizeAll decodes a batch, keeping input order.
func (n *Normalizer) NormalizeAll(raws []domain.RawEvent) ([]*domain.Event, []FieldIssue) {
	events := make([]*domain.Event, 0, len(raws))
	var issues []FieldIssue
	for _, raw := range raws {
		e, rowIssues := n.Normalize(raw)
		events = append(events, e)
		issues = append(issues, rowIssues...)
	}
	return events, issues
}

func (n *Normalizer) parseValue(text, field string, report func(string, string, error)) (*float64, *domain.ValueKind) {
	num, err := numparse.Parse(text)
	if err != nil {
		report(field, text, err)
	}
	return num.Value, num.Kind
}

// resolveTime prefers a source-supplied UTC instant; otherwise it resolves the
// local date and label through the zone table.
func (n *Normalizer) resolveTime(e *domain.Event, whenISO string, report func(string, string, error)) {
	if whenISO != "" {
		if t, err := time.Parse(time.RFC3339, whenISO); err == nil {
			utc := t.UTC()
			e.WhenUTC = &utc
			e.HasSpecificTime = true
			if e.WhenTZ == "" {
				e.WhenTZ = "UTC"
			}
			return
		}
		report("when_iso", whenISO, fmt.Errorf("%w: not RFC 3339", domain.ErrMalformedValue))
	}

	res, err := n.resolver.Resolve(e.DateLocal, e.TimeLocal, e.Currency, e.WhenTZ)
	if err != nil {
		report("time_local", e.DateLocal+" "+e.TimeLocal, err)
	}
	e.WhenTZ = res.Zone
	e.WhenUTC = res.UTC
	e.HasSpecificTime = res.HasSpecificTime
}

// clean trims text and collapses the non-breaking spaces scraped pages carry.
func clean(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\u00a0", " "))
}
