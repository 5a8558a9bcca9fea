package timeresolve

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"fx-calendar-lab/internal/domain"
)

// Clock is a local time of day in 24-hour form.
type Clock struct {
	Hour   int
	Minute int
}

// String returns the clock as HH:MM.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

var clockPattern = regexp.MustCompile(`(?i)^\s*(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\s*$`)

var nonClockTokens = map[string]struct{}{
	"":          {},
	"--":        {},
	"all day":   {},
	"allday":    {},
	"tentative": {},
	"day":       {},
	"off":       {},
	"holiday":   {},
	"tbd":       {},
	"tba":       {},
}

var (
	dayNumber     = regexp.MustCompile(`^day\s*\d+$`)
	ordinalRange  = regexp.MustCompile(`^\d{1,2}(st|nd|rd|th)(\s*-\s*\d{1,2}(st|nd|rd|th))?$`)
	monthDayRange = regexp.MustCompile(`^(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{1,2}(st|nd|rd|th)?(\s*-\s*\d{1,2}(st|nd|rd|th)?)?$`)
	sessionLabel  = regexp.MustCompile(`\b(session|week|month|quarter|q[1-4])\b`)
)

// IsNonClockLabel reports whether label is one of the known placeholders that
// never denote a time of day ("All Day", "Tentative", "Day 2", "19th-24th", ...).
func IsNonClockLabel(label string) bool {
	l := strings.ToLower(strings.Join(strings.Fields(label), " "))
	if _, ok := nonClockTokens[l]; ok {
		return true
	}
	return dayNumber.MatchString(l) ||
		ordinalRange.MatchString(l) ||
		monthDayRange.MatchString(l) ||
		sessionLabel.MatchString(l)
}

// ParseClock parses "8:30am", "8am", "12:00pm", "13:30" or "8" into a Clock.
// 12pm is noon and 12am is midnight.
func ParseClock(label string) (Clock, error) {
	m := clockPattern.FindStringSubmatch(label)
	if m == nil {
		return Clock{}, fmt.Errorf("%w: time label %q", domain.ErrMalformedValue, label)
	}

	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	meridiem := strings.ToLower(m[3])

	switch meridiem {
	case "am", "pm":
		if hour < 1 || hour > 12 {
			return Clock{}, fmt.Errorf("%w: hour %d with %s", domain.ErrMalformedValue, hour, meridiem)
		}
		if meridiem == "pm" && hour != 12 {
			hour += 12
		}
		if meridiem == "am" && hour == 12 {
			hour = 0
		}
	default:
		if hour > 23 {
			return Clock{}, fmt.Errorf("%w: hour %d", domain.ErrMalformedValue, hour)
		}
	}
	if minute > 59 {
		return Clock{}, fmt.Errorf("%w: minute %d", domain.ErrMalformedValue, minute)
	}

	return Clock{Hour: hour, Minute: minute}, nil
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01-02-2006",
	"01/02/2006",
	"1/2/2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"Mon Jan 2 2006",
	"2006.01.02",
}

// ParseDate parses a local calendar date in one of the supported layouts.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: date %q", domain.ErrMalformedValue, s)
}
