package ingestion

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"fx-calendar-lab/internal/domain"
)

// ffExportRow is one record of the ForexFactory weekly JSON export.
type ffExportRow struct {
	Title    string          `json:"title"`
	Country  string          `json:"country"`
	Date     string          `json:"date"`
	Impact   string          `json:"impact"`
	Forecast json.RawMessage `json:"forecast"`
	Previous json.RawMessage `json:"previous"`
	Actual   json.RawMessage `json:"actual"`
	URL      string          `json:"url"`
}

// FFJSONParser reads the ForexFactory weekly JSON export. Dates carry an offset;
// the local date and clock label are derived in the export zone.
type FFJSONParser struct {
	zone string
}

// NewFFJSONParser creates a parser for exports published in zone.
func NewFFJSONParser(zone string) *FFJSONParser {
	if zone == "" {
		zone = DefaultZone
	}
	return &FFJSONParser{zone: zone}
}

// Source returns the ff_json tag.
func (p *FFJSONParser) Source() domain.Source {
	return domain.SourceFFJSON
}

// Parse decodes one weekly export.
func (p *FFJSONParser) Parse(data []byte) ([]domain.RawEvent, error) {
	var records []ffExportRow
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: ff export: %v", ErrUnsupportedFormat, err)
	}

	rows := make([]domain.RawEvent, 0, len(records))
	for _, rec := range records {
		raw := domain.RawEvent{
			Source:   domain.SourceFFJSON,
			Currency: rec.Country,
			Impact:   rec.Impact,
			Title:    rec.Title,
			Actual:   jsonText(rec.Actual),
			Forecast: jsonText(rec.Forecast),
			Previous: jsonText(rec.Previous),
			URL:      rec.URL,
		}
		if t, ok := parseInstant(rec.Date, false); ok {
			fillLocal(&raw, t, p.zone)
		} else {
			raw.WhenISO = rec.Date
		}
		rows = append(rows, raw)
	}
	return rows, nil
}

// countryCurrency maps TradingEconomics country names to currency codes for
// records that carry no Currency field.
var countryCurrency = map[string]string{
	"united states":  "USD",
	"euro area":      "EUR",
	"germany":        "EUR",
	"france":         "EUR",
	"italy":          "EUR",
	"spain":          "EUR",
	"united kingdom": "GBP",
	"japan":          "JPY",
	"switzerland":    "CHF",
	"australia":      "AUD",
	"new zealand":    "NZD",
	"canada":         "CAD",
	"china":          "CNY",
}

// TEJSONParser reads TradingEconomics calendar JSON. Dates are UTC; Importance
// 1-3 maps to low/medium/high.
type TEJSONParser struct{}

// NewTEJSONParser creates a TradingEconomics parser.
func NewTEJSONParser() *TEJSONParser {
	return &TEJSONParser{}
}

// Source returns the tradingeconomics tag.
func (p *TEJSONParser) Source() domain.Source {
	return domain.SourceTradingEconomics
}

// Parse decodes one calendar response.
func (p *TEJSONParser) Parse(data []byte) ([]domain.RawEvent, error) {
	var records []map[string]json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: tradingeconomics: %v", ErrUnsupportedFormat, err)
	}

	rows := make([]domain.RawEvent, 0, len(records))
	for _, rec := range records {
		currency := pick(rec, "Currency")
		if currency == "" {
			country := pick(rec, "Country")
			if c, ok := countryCurrency[strings.ToLower(country)]; ok {
				currency = c
			} else {
				currency = country
			}
		}

		raw := domain.RawEvent{
			Source:   domain.SourceTradingEconomics,
			Currency: currency,
			Impact:   teImportance(pick(rec, "Importance", "Impact")),
			Title:    pick(rec, "Event", "Category"),
			Actual:   pick(rec, "Actual"),
			Forecast: pick(rec, "Forecast", "TEForecast"),
			Previous: pick(rec, "Previous"),
			URL:      pick(rec, "URL"),
		}
		if id := pick(rec, "CalendarId"); id != "" {
			raw.EventID = "te:" + id
		}

		date := pick(rec, "DateUtc", "Date")
		if t, ok := parseInstant(date, true); ok {
			fillLocal(&raw, t, "UTC")
		} else {
			raw.WhenISO = date
		}
		rows = append(rows, raw)
	}
	return rows, nil
}

// teImportance maps the 1-3 importance scale; other values pass through.
func teImportance(v string) string {
	switch v {
	case "1":
		return "low"
	case "2":
		return "medium"
	case "3":
		return "high"
	}
	return v
}

// pick returns the first non-empty value among keys as text.
func pick(rec map[string]json.RawMessage, keys ...string) string {
	for _, k := range keys {
		if v := jsonText(rec[k]); v != "" {
			return v
		}
	}
	return ""
}

// jsonText renders a scalar JSON value as text: strings unquoted, numbers in
// shortest form, null and absent as "".
func jsonText(v json.RawMessage) string {
	if len(v) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ""
}
