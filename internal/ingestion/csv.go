package ingestion

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"fx-calendar-lab/internal/domain"
)

// csvAliases maps canonical raw fields to accepted header names (lowercased,
// spaces replaced by underscores). Earlier aliases win.
var csvAliases = map[string][]string{
	"event_id":   {"event_id", "id"},
	"date_local": {"date_local", "date", "day"},
	"time_local": {"time_local", "time"},
	"when_tz":    {"when_tz", "tz", "timezone"},
	"when_iso":   {"when_iso", "datetime", "date_time", "timestamp"},
	"currency":   {"currency", "ccy", "country"},
	"impact":     {"impact", "importance"},
	"title":      {"title", "event", "detail", "name"},
	"actual":     {"actual"},
	"forecast":   {"forecast"},
	"previous":   {"previous", "prev"},
	"url":        {"url", "link"},
}

// CSVParser reads calendar exports and prepared datasets with flexible headers.
// An offset-carrying datetime column becomes when_iso; when the date column is
// missing, the local date and clock label are derived from it in the row's zone.
type CSVParser struct {
	zone string
}

// NewCSVParser creates a CSV parser deriving local fields in DefaultZone.
func NewCSVParser() *CSVParser {
	return &CSVParser{zone: DefaultZone}
}

// Source returns the csv tag.
func (p *CSVParser) Source() domain.Source {
	return domain.SourceCSV
}

// Parse decodes a CSV export. The header row must name a title and a currency
// column and either a date or a datetime column.
func (p *CSVParser) Parse(data []byte) ([]domain.RawEvent, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty csv", ErrUnsupportedFormat)
		}
		return nil, fmt.Errorf("%w: read csv header: %v", ErrUnsupportedFormat, err)
	}

	cols := resolveColumns(header)
	if cols["title"] < 0 || cols["currency"] < 0 || (cols["date_local"] < 0 && cols["when_iso"] < 0) {
		return nil, fmt.Errorf("%w: csv needs title, currency and date or datetime columns (got %s)",
			ErrUnsupportedFormat, strings.Join(header, ","))
	}

	var rows []domain.RawEvent
	line := 1
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: csv line %d: %v", ErrUnsupportedFormat, line, err)
		}
		if isBlankRecord(rec) {
			continue
		}

		get := func(name string) string {
			return field(rec, cols[name])
		}
		raw := domain.RawEvent{
			EventID:   get("event_id"),
			Source:    domain.SourceCSV,
			DateLocal: get("date_local"),
			TimeLocal: get("time_local"),
			WhenTZ:    get("when_tz"),
			Currency:  get("currency"),
			Impact:    get("impact"),
			Title:     get("title"),
			Actual:    get("actual"),
			Forecast:  get("forecast"),
			Previous:  get("previous"),
			URL:       get("url"),
		}

		if iso := strings.TrimSpace(get("when_iso")); iso != "" {
			zone := raw.WhenTZ
			if zone == "" {
				zone = p.zone
			}
			if t, ok := parseInstant(iso, true); ok {
				fillLocal(&raw, t, zone)
			} else {
				// left for the normalizer to report
				raw.WhenISO = iso
			}
		}
		rows = append(rows, raw)
	}
	return rows, nil
}

func resolveColumns(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		key = strings.ReplaceAll(key, " ", "_")
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}

	cols := make(map[string]int, len(csvAliases))
	for name, aliases := range csvAliases {
		cols[name] = -1
		for _, a := range aliases {
			if i, ok := index[a]; ok {
				cols[name] = i
				break
			}
		}
	}
	return cols
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func isBlankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
