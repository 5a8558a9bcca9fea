package ingestion

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fx-calendar-lab/internal/domain"
)

// ErrUnsupportedFormat is returned when an input cannot be read by its parser
// (missing required columns, not a JSON array, no calendar table).
var ErrUnsupportedFormat = errors.New("unsupported input format")

// DefaultZone is the zone ForexFactory pages and exports are published in.
const DefaultZone = "America/New_York"

// Parser decodes the bytes of one input into raw calendar rows.
// Rows are returned in input order; decoding of values happens in normalization.
type Parser interface {
	// Source returns the adapter tag stamped on every row.
	Source() domain.Source

	// Parse decodes one input.
	Parse(data []byte) ([]domain.RawEvent, error)
}

// Input is one file to ingest with the parser that reads it.
type Input struct {
	Location string
	Parser   Parser
}

// ParserFor returns the parser registered under a CLI source name:
// csv, ffhtml, ffjson or tejson. year is only used by ffhtml.
func ParserFor(name string, year int) (Parser, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "csv":
		return NewCSVParser(), nil
	case "ffhtml", "ff_html":
		return NewFFHTMLParser(year, DefaultZone), nil
	case "ffjson", "ff_json":
		return NewFFJSONParser(DefaultZone), nil
	case "tejson", "tradingeconomics":
		return NewTEJSONParser(), nil
	default:
		return nil, fmt.Errorf("%w: unknown source %q (want csv, ffhtml, ffjson or tejson)",
			domain.ErrInvalidConfig, name)
	}
}

// instantLayouts are the offset-carrying timestamp layouts seen in exports.
var instantLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05-0700",
	"2006-01-02 15:04Z07:00",
}

// naiveUTCLayouts carry no offset and are read as UTC.
var naiveUTCLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

// parseInstant parses an exported timestamp. ok is false when no layout matches.
func parseInstant(s string, naiveIsUTC bool) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if naiveIsUTC {
		for _, layout := range naiveUTCLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
	}
	return time.Time{}, false
}

// fillLocal sets the row's when_iso and, when absent, derives the local date and
// clock label in zone from the instant.
func fillLocal(raw *domain.RawEvent, t time.Time, zone string) {
	raw.WhenISO = t.UTC().Format(time.RFC3339)
	if raw.DateLocal != "" {
		return
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		loc = t.Location()
		zone = ""
	}
	local := t.In(loc)
	raw.DateLocal = local.Format("2006-01-02")
	raw.TimeLocal = strings.ToLower(local.Format("3:04PM"))
	if raw.WhenTZ == "" {
		raw.WhenTZ = zone
	}
}
