// Package timeresolve turns a local calendar date and time label into a UTC instant.
package timeresolve

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	_ "time/tzdata" // zone rules must not depend on the host's zoneinfo

	"fx-calendar-lab/internal/domain"
)

// DefaultZones returns the currency -> IANA zone table used when a row carries
// no explicit zone. Unknown currencies resolve in UTC.
func DefaultZones() map[string]string {
	return map[string]string{
		"USD": "America/New_York",
		"CAD": "America/Toronto",
		"EUR": "Europe/Berlin",
		"GBP": "Europe/London",
		"CHF": "Europe/Zurich",
		"JPY": "Asia/Tokyo",
		"AUD": "Australia/Sydney",
		"NZD": "Pacific/Auckland",
	}
}

// Resolution is the outcome of resolving one date/time label.
type Resolution struct {
	UTC             *time.Time // nil when the label is not a clock time
	HasSpecificTime bool
	Zone            string // zone the label was interpreted in
}

// ISO returns the instant in RFC 3339 UTC, or "".
func (r Resolution) ISO() string {
	if r.UTC == nil {
		return ""
	}
	return r.UTC.Format(time.RFC3339)
}

// UTCDate returns the UTC calendar date, which can differ from the local date
// across midnight. Empty when there is no instant.
func (r Resolution) UTCDate() string {
	if r.UTC == nil {
		return ""
	}
	return r.UTC.Format("2006-01-02")
}

// Resolver combines local dates and time labels with a currency zone table.
// It is safe for concurrent use; the only state is a memo of loaded zones.
type Resolver struct {
	zones map[string]string

	mu        sync.Mutex
	locations map[string]*time.Location
}

// NewResolver creates a resolver from the default table with overrides applied.
// Override keys are currency codes; values are IANA zone names.
func NewResolver(overrides map[string]string) (*Resolver, error) {
	zones := DefaultZones()
	for ccy, zone := range overrides {
		zones[strings.ToUpper(strings.TrimSpace(ccy))] = strings.TrimSpace(zone)
	}

	r := &Resolver{
		zones:     zones,
		locations: make(map[string]*time.Location),
	}

	// A bad zone in the table is a configuration error, not a row error.
	ccys := make([]string, 0, len(zones))
	for ccy := range zones {
		ccys = append(ccys, ccy)
	}
	sort.Strings(ccys)
	for _, ccy := range ccys {
		if _, err := r.location(zones[ccy]); err != nil {
			return nil, fmt.Errorf("%w: zone for %s: %v", domain.ErrInvalidConfig, ccy, err)
		}
	}
	return r, nil
}

// ZoneFor returns the zone name used for a currency when no explicit zone is set.
func (r *Resolver) ZoneFor(currency string) string {
	if zone, ok := r.zones[strings.ToUpper(strings.TrimSpace(currency))]; ok {
		return zone
	}
	return "UTC"
}

// Resolve interprets dateLocal + timeLabel in explicitZone, or in the currency's
// zone when explicitZone is empty, and converts to UTC.
//
// Non-clock labels ("All Day", "Tentative", ...) return an empty Resolution and no
// error. Unparsable dates, labels or zones return an empty Resolution and an error
// wrapping domain.ErrMalformedValue; callers treat that as a null field.
func (r *Resolver) Resolve(dateLocal, timeLabel, currency, explicitZone string) (Resolution, error) {
	zone := strings.TrimSpace(explicitZone)
	if zone == "" {
		zone = r.ZoneFor(currency)
	}
	res := Resolution{Zone: zone}

	if IsNonClockLabel(timeLabel) {
		return res, nil
	}

	clock, err := ParseClock(timeLabel)
	if err != nil {
		return res, err
	}

	date, err := ParseDate(dateLocal)
	if err != nil {
		return res, err
	}

	loc, err := r.location(zone)
	if err != nil {
		return res, fmt.Errorf("%w: zone %q", domain.ErrMalformedValue, zone)
	}

	utc := wallToUTC(date, clock, loc)
	res.UTC = &utc
	res.HasSpecificTime = true
	return res, nil
}

// wallToUTC converts a local wall clock to UTC. A label inside a spring-forward
// gap does not exist locally; it is read with the offset in force before the
// transition, so 2:30am on a 2am->3am night becomes 3:30am after it.
func wallToUTC(date time.Time, clock Clock, loc *time.Location) time.Time {
	local := time.Date(date.Year(), date.Month(), date.Day(), clock.Hour, clock.Minute, 0, 0, loc)
	if local.Hour() == clock.Hour && local.Minute() == clock.Minute {
		return local.UTC()
	}

	offset := preTransitionOffset(local)
	wall := time.Date(date.Year(), date.Month(), date.Day(), clock.Hour, clock.Minute, 0, 0, time.UTC)
	return wall.Add(-time.Duration(offset) * time.Second)
}

// preTransitionOffset returns the UTC offset in seconds in force just before the
// transition nearest to t.
func preTransitionOffset(t time.Time) int {
	start, end := t.ZoneBounds()
	_, offset := t.Zone()
	switch {
	case !end.IsZero() && end.Sub(t) <= 24*time.Hour:
		return offset
	case !start.IsZero():
		_, before := start.Add(-time.Second).Zone()
		return before
	}
	return offset
}

func (r *Resolver) location(name string) (*time.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if loc, ok := r.locations[name]; ok {
		return loc, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, err
	}
	r.locations[name] = loc
	return loc, nil
}
