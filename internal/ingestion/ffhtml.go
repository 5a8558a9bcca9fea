package ingestion

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"fx-calendar-lab/internal/domain"
)

var (
	dayLabelRe = regexp.MustCompile(`(?i)(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s*(\d{1,2})(?:\s*,?\s*(\d{4}))?`)
	detailIDRe = regexp.MustCompile(`detail=(\d+)`)
	digitsRe   = regexp.MustCompile(`\d+`)
)

var monthAbbrev = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

// FFHTMLParser reads saved ForexFactory calendar pages.
//
// Rows are tr.calendar__row. The date carries over from the last day label
// (a day-breaker row or a calendar__date cell) and an empty time cell carries
// over the previous row's label, since the site prints a time once per group.
// Day labels carry no year; year seeds the first label and rolls over when the
// month wraps from December to January.
type FFHTMLParser struct {
	year int
	zone string
}

// NewFFHTMLParser creates a parser for pages rendered in zone.
// An empty zone means DefaultZone.
func NewFFHTMLParser(year int, zone string) *FFHTMLParser {
	if zone == "" {
		zone = DefaultZone
	}
	return &FFHTMLParser{year: year, zone: zone}
}

// Source returns the ff_html tag.
func (p *FFHTMLParser) Source() domain.Source {
	return domain.SourceFFHTML
}

// Parse decodes one saved calendar page.
func (p *FFHTMLParser) Parse(data []byte) ([]domain.RawEvent, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %v", ErrUnsupportedFormat, err)
	}

	trs := doc.Find("tr.calendar__row")
	if trs.Length() == 0 {
		return nil, fmt.Errorf("%w: no calendar rows in page", ErrUnsupportedFormat)
	}

	var (
		rows      []domain.RawEvent
		date      string
		lastTime  string
		year      = p.year
		lastMonth time.Month
		parseErr  error
	)

	trs.EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		if label := dayLabel(tr); label != "" {
			d, err := resolveDayLabel(label, &year, &lastMonth)
			if err != nil {
				parseErr = err
				return false
			}
			date = d
			lastTime = ""
		}
		if tr.HasClass("calendar__row--day-breaker") {
			return true
		}

		currency := cellText(tr, "td.calendar__currency")
		title := cellText(tr, ".calendar__event-title")
		if title == "" {
			title = cellText(tr, "td.calendar__event")
		}
		if currency == "" || title == "" {
			return true
		}

		timeLabel := cellText(tr, "td.calendar__time")
		if timeLabel == "" {
			timeLabel = lastTime
		}
		lastTime = timeLabel

		id, url := eventRef(tr)
		rows = append(rows, domain.RawEvent{
			EventID:   id,
			Source:    domain.SourceFFHTML,
			DateLocal: date,
			TimeLocal: timeLabel,
			WhenTZ:    p.zone,
			Currency:  currency,
			Impact:    impactLabel(tr),
			Title:     title,
			Actual:    cellText(tr, "td.calendar__actual"),
			Forecast:  cellText(tr, "td.calendar__forecast"),
			Previous:  cellText(tr, "td.calendar__previous"),
			URL:       url,
		})
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return rows, nil
}

// dayLabel returns the date text a row introduces, or "".
func dayLabel(tr *goquery.Selection) string {
	if tr.HasClass("calendar__row--day-breaker") {
		return collapse(tr.Text())
	}
	return cellText(tr, "td.calendar__date")
}

// resolveDayLabel turns "Fri Jan 10" (or "Jan 10, 2025") into YYYY-MM-DD.
func resolveDayLabel(label string, year *int, lastMonth *time.Month) (string, error) {
	m := dayLabelRe.FindStringSubmatch(label)
	if m == nil {
		return "", fmt.Errorf("%w: unrecognized day label %q", ErrUnsupportedFormat, label)
	}
	month := monthAbbrev[strings.ToLower(m[1])]
	day, _ := strconv.Atoi(m[2])

	switch {
	case m[3] != "":
		*year, _ = strconv.Atoi(m[3])
	case *year == 0:
		return "", fmt.Errorf("%w: day label %q has no year and no calendar year was given",
			domain.ErrInvalidConfig, label)
	case *lastMonth == time.December && month == time.January:
		*year++
	}
	*lastMonth = month

	d := time.Date(*year, month, day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day {
		return "", fmt.Errorf("%w: invalid day label %q", ErrUnsupportedFormat, label)
	}
	return d.Format("2006-01-02"), nil
}

// impactLabel prefers the icon class list, then its title, then the cell text.
func impactLabel(tr *goquery.Selection) string {
	cell := tr.Find("td.calendar__impact").First()
	icon := cell.Find("span").First()
	if cls, ok := icon.Attr("class"); ok && strings.Contains(cls, "icon--ff-impact") {
		return cls
	}
	if title, ok := icon.Attr("title"); ok && strings.TrimSpace(title) != "" {
		return title
	}
	return collapse(cell.Text())
}

// eventRef returns the ForexFactory event id and detail link of a row.
func eventRef(tr *goquery.Selection) (id, url string) {
	for _, attr := range []string{"data-event-id", "data-eventid"} {
		if v, ok := tr.Attr(attr); ok && strings.TrimSpace(v) != "" {
			id = strings.TrimSpace(v)
			break
		}
	}

	tr.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if strings.Contains(href, "detail") || url == "" {
			url = strings.TrimSpace(href)
		}
		return !strings.Contains(href, "detail")
	})

	if id == "" && url != "" {
		if m := detailIDRe.FindStringSubmatch(url); m != nil {
			id = m[1]
		} else if d := digitsRe.FindString(url); d != "" {
			id = d
		}
	}
	return id, url
}

func cellText(tr *goquery.Selection, selector string) string {
	return collapse(tr.Find(selector).First().Text())
}

// collapse trims and squeezes runs of whitespace, including non-breaking spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
