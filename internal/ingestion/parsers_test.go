package ingestion

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fx-calendar-lab/internal/domain"
)

func TestCSVParser_HeaderAliases(t *testing.T) {
	in := "\ufeffDate,Time,Currency,Impact,Event,Actual,Forecast,Previous,Extra\n" +
		"2025-01-10,8:30am,USD,High Impact Expected,Non-Farm Employment Change,256K,164K,227K,x\n" +
		",,,,,,,,\n" +
		"2025-01-10,All Day,JPY,Holiday,Bank Holiday,,,,\n"

	rows, err := NewCSVParser().Parse([]byte(in))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, domain.SourceCSV, rows[0].Source)
	assert.Equal(t, "2025-01-10", rows[0].DateLocal)
	assert.Equal(t, "8:30am", rows[0].TimeLocal)
	assert.Equal(t, "USD", rows[0].Currency)
	assert.Equal(t, "Non-Farm Employment Change", rows[0].Title)
	assert.Equal(t, "256K", rows[0].Actual)
	assert.Equal(t, "", rows[0].WhenISO)
	assert.Equal(t, "All Day", rows[1].TimeLocal)
}

func TestCSVParser_DateTimeWithOffset(t *testing.T) {
	in := "DateTime,Currency,Impact,Event,Actual,Forecast,Previous\n" +
		"2025-01-10 08:30:00-05:00,USD,High Impact Expected,Non-Farm Employment Change,256K,164K,227K\n" +
		"2025-01-10 16:30:00+03:30,EUR,Low Impact Expected,Something,,,\n"

	rows, err := NewCSVParser().Parse([]byte(in))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "2025-01-10T13:30:00Z", rows[0].WhenISO)
	assert.Equal(t, "2025-01-10", rows[0].DateLocal)
	assert.Equal(t, "8:30am", rows[0].TimeLocal)
	assert.Equal(t, DefaultZone, rows[0].WhenTZ)

	assert.Equal(t, "2025-01-10T13:00:00Z", rows[1].WhenISO)
	assert.Equal(t, "8:00am", rows[1].TimeLocal)
}

func TestCSVParser_MissingColumns(t *testing.T) {
	for _, in := range []string{
		"",
		"Currency,Impact\nUSD,High\n",
		"Event,Currency\nCPI,USD\n",
	} {
		_, err := NewCSVParser().Parse([]byte(in))
		require.Error(t, err, in)
		assert.True(t, errors.Is(err, ErrUnsupportedFormat), in)
	}
}

func TestFFHTMLParser_Page(t *testing.T) {
	data, err := os.ReadFile("testdata/ff_week.html")
	require.NoError(t, err)

	rows, err := NewFFHTMLParser(2025, "").Parse(data)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	nfp := rows[0]
	assert.Equal(t, "139820", nfp.EventID)
	assert.Equal(t, domain.SourceFFHTML, nfp.Source)
	assert.Equal(t, "2025-01-10", nfp.DateLocal)
	assert.Equal(t, "8:30am", nfp.TimeLocal)
	assert.Equal(t, DefaultZone, nfp.WhenTZ)
	assert.Equal(t, "USD", nfp.Currency)
	assert.Contains(t, nfp.Impact, "icon--ff-impact-red")
	assert.Equal(t, "Non-Farm Employment Change", nfp.Title)
	assert.Equal(t, "256K", nfp.Actual)
	assert.Equal(t, "164K", nfp.Forecast)
	assert.Equal(t, "227K", nfp.Previous)
	assert.Equal(t, "/calendar?day=jan10.2025#detail=139820", nfp.URL)

	// time carries over, id comes from the detail link
	ur := rows[1]
	assert.Equal(t, "139821", ur.EventID)
	assert.Equal(t, "8:30am", ur.TimeLocal)
	assert.Equal(t, "2025-01-10", ur.DateLocal)

	// date carries over from the second day breaker, time resets
	hol := rows[2]
	assert.Equal(t, "2025-01-11", hol.DateLocal)
	assert.Equal(t, "All Day", hol.TimeLocal)
	assert.Equal(t, "", hol.EventID)
}

func TestFFHTMLParser_NeedsYear(t *testing.T) {
	data, err := os.ReadFile("testdata/ff_week.html")
	require.NoError(t, err)

	_, err = NewFFHTMLParser(0, "").Parse(data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
}

func TestFFHTMLParser_NoRows(t *testing.T) {
	_, err := NewFFHTMLParser(2025, "").Parse([]byte("<html><body><p>blocked</p></body></html>"))
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestResolveDayLabel_YearRollover(t *testing.T) {
	year := 2024
	var last time.Month

	d, err := resolveDayLabel("Tue Dec 31", &year, &last)
	require.NoError(t, err)
	assert.Equal(t, "2024-12-31", d)

	d, err = resolveDayLabel("Wed Jan 1", &year, &last)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01", d)

	d, err = resolveDayLabel("Mar 7, 2023", &year, &last)
	require.NoError(t, err)
	assert.Equal(t, "2023-03-07", d)

	_, err = resolveDayLabel("Feb 30", &year, &last)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestFFJSONParser(t *testing.T) {
	in := `[
	  {"title":"Non-Farm Employment Change","country":"USD","date":"2025-01-10T08:30:00-05:00","impact":"High","forecast":"164K","previous":"227K","actual":"256K"},
	  {"title":"Bank Holiday","country":"JPY","date":"2025-01-13T00:00:00-05:00","impact":"Holiday","forecast":"","previous":""},
	  {"title":"Broken","country":"EUR","date":"soon","impact":"Low","forecast":null,"previous":1.5}
	]`

	rows, err := NewFFJSONParser("").Parse([]byte(in))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, domain.SourceFFJSON, rows[0].Source)
	assert.Equal(t, "2025-01-10T13:30:00Z", rows[0].WhenISO)
	assert.Equal(t, "2025-01-10", rows[0].DateLocal)
	assert.Equal(t, "8:30am", rows[0].TimeLocal)
	assert.Equal(t, "256K", rows[0].Actual)
	assert.Equal(t, "", rows[1].Actual)
	assert.Equal(t, "soon", rows[2].WhenISO)
	assert.Equal(t, "", rows[2].Forecast)
	assert.Equal(t, "1.5", rows[2].Previous)

	_, err = NewFFJSONParser("").Parse([]byte(`{"not":"an array"}`))
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestTEJSONParser(t *testing.T) {
	in := `[
	  {"CalendarId":"351234","Date":"2025-01-10T13:30:00","Country":"United States","Category":"Non Farm Payrolls","Event":"Non Farm Payrolls","Actual":"256K","Previous":"212K","Forecast":"165K","Importance":3},
	  {"Date":"2025-01-10T07:00:00","Country":"Germany","Event":"Industrial Production MoM","Actual":"1.5%","Forecast":"0.5%","Importance":2},
	  {"Date":"2025-01-10T09:00:00","Currency":"gbp","Country":"United Kingdom","Event":"GDP","Importance":1}
	]`

	rows, err := NewTEJSONParser().Parse([]byte(in))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "te:351234", rows[0].EventID)
	assert.Equal(t, "USD", rows[0].Currency)
	assert.Equal(t, "high", rows[0].Impact)
	assert.Equal(t, "Non Farm Payrolls", rows[0].Title)
	assert.Equal(t, "2025-01-10T13:30:00Z", rows[0].WhenISO)
	assert.Equal(t, "2025-01-10", rows[0].DateLocal)
	assert.Equal(t, "UTC", rows[0].WhenTZ)

	assert.Equal(t, "EUR", rows[1].Currency)
	assert.Equal(t, "medium", rows[1].Impact)
	assert.Equal(t, "", rows[1].EventID)

	assert.Equal(t, "gbp", rows[2].Currency)
	assert.Equal(t, "low", rows[2].Impact)
}

func TestParserFor(t *testing.T) {
	for name, want := range map[string]domain.Source{
		"csv":    domain.SourceCSV,
		"ffhtml": domain.SourceFFHTML,
		"FFJSON": domain.SourceFFJSON,
		"tejson": domain.SourceTradingEconomics,
	} {
		p, err := ParserFor(name, 2025)
		require.NoError(t, err, name)
		assert.Equal(t, want, p.Source(), name)
	}

	_, err := ParserFor("xml", 0)
	assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
}
