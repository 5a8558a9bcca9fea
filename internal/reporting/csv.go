package reporting

import (
	"encoding/csv"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fx-calendar-lab/internal/domain"
	"fx-calendar-lab/internal/signalfilter"
)

// GoldenColumns is the column order of the golden dataset.
var GoldenColumns = []string{
	"event_id", "source", "currency", "impact", "impact_num", "title", "title_norm",
	"actual", "forecast", "previous", "actual_val", "forecast_val", "previous_val",
	"surprise_kind", "surprise_raw", "surprise_sign", "surprise_z",
	"direction", "good_is_higher", "directional_surprise", "directional_z", "cc_strength_sign",
	"date_local", "time_local", "when_tz", "when_utc", "has_specific_time",
	"week_id", "day_id", "ts_1m", "ts_5m", "ts_15m", "ts_1h", "url",
}

// SignalColumns is the column order of pair-signal exports. The first eight
// columns are the label stream read by the price-join consumer.
var SignalColumns = []string{
	"event_id", "pair", "direction_sign", "when_utc", "impact_num", "surprise_z", "currency", "title",
	"signal_id", "impact", "surprise_raw", "surprise_sign", "cc_strength_sign",
	"date_local", "time_local", "source",
}

// RenderGoldenCSV renders the scored corpus as the golden dataset.
func RenderGoldenCSV(scored []*domain.ScoredEvent) string {
	rows := make([][]string, 0, len(scored))
	for _, se := range scored {
		rows = append(rows, []string{
			se.EventID,
			se.Source.String(),
			se.Currency,
			se.Impact.String(),
			strconv.Itoa(se.ImpactNum()),
			se.Title,
			se.TitleNorm,
			se.Actual,
			se.Forecast,
			se.Previous,
			formatFloat(se.ActualVal, 10),
			formatFloat(se.ForecastVal, 10),
			formatFloat(se.PreviousVal, 10),
			formatKind(se.SurpriseKind),
			formatFloat(se.SurpriseRaw, 10),
			formatInt(se.SurpriseSign),
			formatFloat(se.SurpriseZ, 6),
			string(se.Direction),
			formatBool(se.GoodIsHigher),
			formatFloat(se.DirectionalSurprise, 10),
			formatFloat(se.DirectionalZ, 6),
			formatInt(se.CCStrengthSign),
			se.DateLocal,
			se.TimeLocal,
			se.WhenTZ,
			se.WhenISO(),
			strconv.FormatBool(se.HasSpecificTime),
			WeekID(se.DateLocal),
			se.DateLocal,
			floorTS(se.WhenUTC, time.Minute),
			floorTS(se.WhenUTC, 5*time.Minute),
			floorTS(se.WhenUTC, 15*time.Minute),
			floorTS(se.WhenUTC, time.Hour),
			se.URL,
		})
	}
	return renderTable(GoldenColumns, rows)
}

// RenderSignalsCSV renders pair signals (projected or filtered) in SignalColumns order.
func RenderSignalsCSV(signals []*domain.PairSignal) string {
	rows := make([][]string, 0, len(signals))
	for _, s := range signals {
		rows = append(rows, []string{
			s.EventID,
			s.Pair,
			strconv.Itoa(s.DirectionSign),
			s.WhenISO(),
			strconv.Itoa(s.ImpactNum()),
			formatFloat(s.SurpriseZ, 6),
			s.Currency,
			s.Title,
			s.SignalID,
			s.Impact.String(),
			formatFloat(s.SurpriseRaw, 10),
			formatInt(s.SurpriseSign),
			strconv.Itoa(s.CCStrengthSign),
			s.DateLocal,
			s.TimeLocal,
			s.Source.String(),
		})
	}
	return renderTable(SignalColumns, rows)
}

// RenderTitleStatsCSV renders the fitted statistics ordered by title_norm.
func RenderTitleStatsCSV(table *domain.StatsTable) string {
	header := []string{"title_norm", "count", "mu", "sigma", "ok", "dir_count", "dir_mu", "dir_sigma", "dir_ok"}
	var rows [][]string
	for _, s := range table.Stats() {
		rows = append(rows, []string{
			s.TitleNorm,
			strconv.Itoa(s.Raw.Count),
			formatFloat(s.Raw.Mu, 10),
			formatFloat(s.Raw.Sigma, 10),
			strconv.FormatBool(s.Raw.OK),
			strconv.Itoa(s.Directional.Count),
			formatFloat(s.Directional.Mu, 10),
			formatFloat(s.Directional.Sigma, 10),
			strconv.FormatBool(s.Directional.OK),
		})
	}
	return renderTable(header, rows)
}

// RenderOverallCSV renders the corpus totals as a one-row table.
func RenderOverallCSV(o OverallSummary) string {
	header := []string{
		"rows_total", "rows_with_time", "pct_with_time", "rows_unknown_impact", "pct_unknown_impact",
		"unique_weeks_with_rows", "duplicate_keys_found", "rows_with_surprise_raw", "pct_with_surprise_raw",
		"rows_with_direction", "rows_with_directional_surprise", "title_groups", "groups_ok", "groups_dir_ok",
		"rows_with_z", "abs_z_p50", "abs_z_p90", "date_from", "date_to",
	}
	row := []string{
		strconv.Itoa(o.RowsTotal),
		strconv.Itoa(o.RowsWithTime),
		fmt.Sprintf("%.2f", o.PctWithTime),
		strconv.Itoa(o.RowsUnknownImpact),
		fmt.Sprintf("%.2f", o.PctUnknownImpact),
		strconv.Itoa(o.UniqueWeeks),
		strconv.Itoa(o.DuplicateKeys),
		strconv.Itoa(o.RowsWithSurprise),
		fmt.Sprintf("%.2f", o.PctWithSurprise),
		strconv.Itoa(o.RowsWithDirection),
		strconv.Itoa(o.RowsWithDirectionalSurprise),
		strconv.Itoa(o.TitleGroups),
		strconv.Itoa(o.GroupsOK),
		strconv.Itoa(o.GroupsDirectionalOK),
		strconv.Itoa(o.RowsWithZ),
		formatFloat(&o.AbsZMedian, 4),
		formatFloat(&o.AbsZP90, 4),
		o.DateFrom,
		o.DateTo,
	}
	return renderTable(header, [][]string{row})
}

// RenderCountsCSV renders one breakdown with key as the first column name.
func RenderCountsCSV(key string, counts []CountRow) string {
	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, []string{c.Key, strconv.Itoa(c.Rows)})
	}
	return renderTable([]string{key, "rows"}, rows)
}

// RenderWeeksCSV renders week time coverage.
func RenderWeeksCSV(weeks []WeekCoverageRow) string {
	rows := make([][]string, 0, len(weeks))
	for _, w := range weeks {
		rows = append(rows, []string{
			w.WeekID,
			strconv.Itoa(w.Rows),
			strconv.Itoa(w.Timed),
			fmt.Sprintf("%.3f", w.TimedPct/100),
		})
	}
	return renderTable([]string{"week_id", "count", "sum", "timed_pct"}, rows)
}

// RenderTitleCoverageCSV renders surprise coverage by title.
func RenderTitleCoverageCSV(titles []TitleCoverageRow) string {
	header := []string{
		"title_norm", "direction", "rows", "with_surprise", "with_dir",
		"pct_with_surprise", "pct_with_directional", "stats_ok", "dir_stats_ok",
	}
	rows := make([][]string, 0, len(titles))
	for _, t := range titles {
		rows = append(rows, []string{
			t.TitleNorm,
			string(t.Direction),
			strconv.Itoa(t.Rows),
			strconv.Itoa(t.WithSurprise),
			strconv.Itoa(t.WithDirectional),
			fmt.Sprintf("%.2f", t.PctWithSurprise),
			fmt.Sprintf("%.2f", t.PctWithDirectional),
			strconv.FormatBool(t.StatsOK),
			strconv.FormatBool(t.DirectionalOK),
		})
	}
	return renderTable(header, rows)
}

func renderTable(header []string, rows [][]string) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	// writes to a strings.Builder cannot fail
	_ = w.Write(header)
	_ = w.WriteAll(rows)
	return sb.String()
}

// formatFloat renders v rounded to places decimals without trailing zeros,
// or "" when v is nil or not finite.
func formatFloat(v *float64, places int32) string {
	if v == nil || math.IsInf(*v, 0) || math.IsNaN(*v) {
		return ""
	}
	return decimal.NewFromFloat(*v).Round(places).String()
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatBool(v *bool) string {
	if v == nil {
		return ""
	}
	return strconv.FormatBool(*v)
}

func formatKind(k *domain.ValueKind) string {
	if k == nil {
		return ""
	}
	return string(*k)
}

// floorTS floors t to a multiple of d and renders it in RFC 3339 UTC.
func floorTS(t *time.Time, d time.Duration) string {
	if t == nil {
		return ""
	}
	return signalfilter.FloorUTC(*t, d).Format(time.RFC3339)
}
