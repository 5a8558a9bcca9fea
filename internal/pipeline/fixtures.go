package pipeline

import (
	"context"
	"fmt"
	"time"

	"fx-calendar-lab/internal/domain"
	"fx-calendar-lab/internal/normalization"
	"fx-calendar-lab/internal/storage"
)

// FixtureYear is the calendar year covered by the synthetic corpus.
const FixtureYear = 2024

// Monthly deviations of actual from forecast, one per month.
var (
	payrollDeviations = []int{35, -20, 12, -48, 5, 60, -15, 22, -30, 8, -5, 41}           // K
	rateDeviations    = []float64{0.1, -0.1, 0, 0.2, -0.1, 0.1, 0, -0.2, 0.1, 0, 0.1, -0.1} // pct points
	claimsDeviations  = []int{-12, 9, 4, -7, 15, -3, 0, 11, -9, 6, -14, 2}                   // K
	zewDeviations     = []float64{4.1, -2.3, 0.7, -5.2, 3.3, -1.1, 2.6, -0.4, 1.9, -3.7, 0.2, 5.5}
	tradeDeviations   = []float64{0.4, -0.7, 0.1, 0.9, -0.2, -1.1, 0.6, 0.3, -0.5, 0.8, -0.3, 0.2} // B
)

// FixtureRawEvents returns the synthetic calendar corpus used by the demo and
// by tests. The corpus is fixed: every call returns the same rows.
//
// It holds twelve monthly releases of five titles (payrolls, unemployment rate,
// claims, ZEW sentiment, trade balance) plus value-less rows: three all-day
// holidays and four press conferences. Payrolls and the unemployment rate share
// a timestamp so the filter has a bucket to resolve.
func FixtureRawEvents() []domain.RawEvent {
	var rows []domain.RawEvent
	for i := 0; i < 12; i++ {
		month := time.Month(i + 1)

		nfpDay := nthWeekday(FixtureYear, month, time.Friday, 1)
		nfpForecast := 170 + 5*i
		rows = append(rows,
			fixtureRow(nfpDay, "8:30am", "USD", "High Impact Expected", "Non-Farm Employment Change",
				fmt.Sprintf("%dK", nfpForecast+payrollDeviations[i]),
				fmt.Sprintf("%dK", nfpForecast),
				fmt.Sprintf("%dK", nfpForecast-10)),
			fixtureRow(nfpDay, "8:30am", "USD", "High Impact Expected", "Unemployment Rate",
				fmt.Sprintf("%.1f%%", 3.8+rateDeviations[i]),
				"3.8%",
				"3.8%"),
		)

		claimsDay := nthWeekday(FixtureYear, month, time.Thursday, 2)
		rows = append(rows, fixtureRow(claimsDay, "8:30am", "USD", "Medium Impact Expected", "Unemployment Claims",
			fmt.Sprintf("%dK", 215+claimsDeviations[i]),
			"215K",
			"218K"))

		zewDay := nthWeekday(FixtureYear, month, time.Tuesday, 3)
		zewForecast := 10.0 + float64(i)
		rows = append(rows, fixtureRow(zewDay, "11:00am", "EUR", "Medium Impact Expected", "German ZEW Economic Sentiment",
			fmt.Sprintf("%.1f", zewForecast+zewDeviations[i]),
			fmt.Sprintf("%.1f", zewForecast),
			fmt.Sprintf("%.1f", zewForecast-1)))

		tradeDay := nthWeekday(FixtureYear, month, time.Wednesday, 1)
		rows = append(rows, fixtureRow(tradeDay, "8:30am", "CAD", "Low Impact Expected", "Trade Balance",
			fmt.Sprintf("%.1fB", -1.0+tradeDeviations[i]),
			"-1.0B",
			"-1.2B"))
	}

	for _, d := range []string{"2024-01-01", "2024-01-08", "2024-02-12"} {
		rows = append(rows, fixtureRow(d, "All Day", "JPY", "Holiday", "Bank Holiday", "", "", ""))
	}
	for _, d := range []string{"2024-01-25", "2024-03-07", "2024-04-11", "2024-06-06"} {
		rows = append(rows, fixtureRow(d, "2:45pm", "EUR", "High Impact Expected", "ECB Press Conference", "", "", ""))
	}
	return rows
}

// LoadFixtures normalizes the synthetic corpus and upserts it into store.
func LoadFixtures(ctx context.Context, normalizer *normalization.Normalizer, store storage.EventStore) (storage.UpsertResult, error) {
	events, issues := normalizer.NormalizeAll(FixtureRawEvents())
	if len(issues) > 0 {
		return storage.UpsertResult{}, fmt.Errorf("fixture corpus has %d field issues, first: %w", len(issues), issues[0])
	}
	return store.Upsert(ctx, events)
}

func fixtureRow(date, clock, currency, impact, title, actual, forecast, previous string) domain.RawEvent {
	return domain.RawEvent{
		Source:    domain.SourceFixture,
		DateLocal: date,
		TimeLocal: clock,
		Currency:  currency,
		Impact:    impact,
		Title:     title,
		Actual:    actual,
		Forecast:  forecast,
		Previous:  previous,
	}
}

// nthWeekday returns the date of the n-th weekday of a month as YYYY-MM-DD.
func nthWeekday(year int, month time.Month, wd time.Weekday, n int) string {
	d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	for d.Weekday() != wd {
		d = d.AddDate(0, 0, 1)
	}
	return d.AddDate(0, 0, 7*(n-1)).Format("2006-01-02")
}
