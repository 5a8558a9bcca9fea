package domain

import "time"

// RawEvent is one calendar row as delivered by a source adapter.
// Every field is loosely typed text; decoding happens once in normalization.
type RawEvent struct {
	EventID   string // source-supplied id, empty when the source has none
	Source    Source
	DateLocal string // YYYY-MM-DD or another supported date layout
	TimeLocal string // "8:30am", "13:30", "All Day", "Tentative", ...
	WhenTZ    string // explicit IANA zone of DateLocal/TimeLocal, empty = currency default
	WhenISO   string // already-resolved RFC 3339 instant, authoritative when present
	Currency  string
	Impact    string // free text: "High Impact Expected", "red", "3", "***", ...
	Title     string
	Actual    string
	Forecast  string
	Previous  string
	URL       string
}

// Event is one canonical economic-calendar release.
// Corresponds to the events table in PostgreSQL.
type Event struct {
	EventID   string // PRIMARY KEY, source id or SHA256(date|time|currency|title)
	Source    Source
	Currency  string // uppercased 3-letter code
	Impact    Impact
	Title     string
	TitleNorm string // grouping key for all statistics

	Actual   string // raw text, "" when absent
	Forecast string
	Previous string

	ActualVal    *float64
	ForecastVal  *float64
	PreviousVal  *float64
	ActualKind   *ValueKind
	ForecastKind *ValueKind
	PreviousKind *ValueKind
	SurpriseKind *ValueKind // set only when actual and forecast parsed to the same kind

	DateLocal       string
	TimeLocal       string
	WhenTZ          string     // zone the local date/time was interpreted in
	WhenUTC         *time.Time // nil for All Day / Tentative / unparsable labels
	HasSpecificTime bool
	URL             string
}

// ImpactNum returns the impact rank.
func (e *Event) ImpactNum() int {
	return e.Impact.Rank()
}

// WhenISO returns the UTC instant in RFC 3339, or "" when the time is undefined.
func (e *Event) WhenISO() string {
	if e.WhenUTC == nil {
		return ""
	}
	return e.WhenUTC.UTC().Format(time.RFC3339)
}

// UTCDate returns the UTC calendar date (YYYY-MM-DD) of the instant, or "".
func (e *Event) UTCDate() string {
	if e.WhenUTC == nil {
		return ""
	}
	return e.WhenUTC.UTC().Format("2006-01-02")
}

// SurpriseRaw returns actual - forecast when both parsed to the same kind.
func (e *Event) SurpriseRaw() *float64 {
	if e.SurpriseKind == nil || e.ActualVal == nil || e.ForecastVal == nil {
		return nil
	}
	v := *e.ActualVal - *e.ForecastVal
	return &v
}

// RefreshSurpriseKind recomputes SurpriseKind from the parsed actual/forecast.
func (e *Event) RefreshSurpriseKind() {
	e.SurpriseKind = nil
	if e.ActualVal == nil || e.ForecastVal == nil {
		return
	}
	if e.ActualKind == nil || e.ForecastKind == nil || *e.ActualKind != *e.ForecastKind {
		return
	}
	k := *e.ActualKind
	e.SurpriseKind = &k
}

// Clone returns a deep copy of the event.
func (e *Event) Clone() *Event {
	c := *e
	c.ActualVal = cloneFloat(e.ActualVal)
	c.ForecastVal = cloneFloat(e.ForecastVal)
	c.PreviousVal = cloneFloat(e.PreviousVal)
	c.ActualKind = cloneKind(e.ActualKind)
	c.ForecastKind = cloneKind(e.ForecastKind)
	c.PreviousKind = cloneKind(e.PreviousKind)
	c.SurpriseKind = cloneKind(e.SurpriseKind)
	if e.WhenUTC != nil {
		t := *e.WhenUTC
		c.WhenUTC = &t
	}
	return &c
}

// MergeFill folds a later observation of the same event into e.
// Value fields are filled or revised only by non-empty incoming values; a present
// value is never cleared. Identity fields (event_id, date, time, currency, title)
// never change. Returns true when e was modified.
func (e *Event) MergeFill(in *Event) bool {
	changed := false

	if mergeValue(&e.Actual, &e.ActualVal, &e.ActualKind, in.Actual, in.ActualVal, in.ActualKind) {
		changed = true
	}
	if mergeValue(&e.Forecast, &e.ForecastVal, &e.ForecastKind, in.Forecast, in.ForecastVal, in.ForecastKind) {
		changed = true
	}
	if mergeValue(&e.Previous, &e.PreviousVal, &e.PreviousKind, in.Previous, in.PreviousVal, in.PreviousKind) {
		changed = true
	}
	if changed {
		e.RefreshSurpriseKind()
	}

	if e.Impact.Rank() == 0 && in.Impact.Rank() > 0 {
		e.Impact = in.Impact
		changed = true
	}
	if e.URL == "" && in.URL != "" {
		e.URL = in.URL
		changed = true
	}
	if e.WhenUTC == nil && in.WhenUTC != nil {
		t := in.WhenUTC.UTC()
		e.WhenUTC = &t
		e.HasSpecificTime = in.HasSpecificTime
		if e.WhenTZ == "" {
			e.WhenTZ = in.WhenTZ
		}
		changed = true
	}
	return changed
}

func mergeValue(raw *string, val **float64, kind **ValueKind, inRaw string, inVal *float64, inKind *ValueKind) bool {
	if inRaw == "" || inRaw == *raw {
		return false
	}
	// "--", "n/a" and unparsable text are empty values: they never fill or revise.
	if inVal == nil {
		return false
	}
	*raw = inRaw
	*val = cloneFloat(inVal)
	*kind = cloneKind(inKind)
	return true
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneKind(k *ValueKind) *ValueKind {
	if k == nil {
		return nil
	}
	c := *k
	return &c
}
