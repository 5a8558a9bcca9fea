package reporting

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// maxTitleRows caps the title coverage table in markdown; the CSV has every title.
const maxTitleRows = 25

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *QualityReport) string {
	var sb strings.Builder
	o := r.Overall

	// Header
	sb.WriteString("# Calendar Quality Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	if r.RunID != "" {
		sb.WriteString(fmt.Sprintf("Run: `%s`\n\n", r.RunID))
	}
	if o.DateFrom != "" {
		sb.WriteString(fmt.Sprintf("Coverage: %s to %s (%s ISO weeks)\n\n", o.DateFrom, o.DateTo, humanize.Comma(int64(o.UniqueWeeks))))
	}

	// Corpus
	sb.WriteString("## Corpus\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Events | %s |\n", humanize.Comma(int64(o.RowsTotal))))
	sb.WriteString(fmt.Sprintf("| With UTC time | %s (%.2f%%) |\n", humanize.Comma(int64(o.RowsWithTime)), o.PctWithTime))
	sb.WriteString(fmt.Sprintf("| Unknown impact | %s (%.2f%%) |\n", humanize.Comma(int64(o.RowsUnknownImpact)), o.PctUnknownImpact))
	sb.WriteString(fmt.Sprintf("| With surprise | %s (%.2f%%) |\n", humanize.Comma(int64(o.RowsWithSurprise)), o.PctWithSurprise))
	sb.WriteString(fmt.Sprintf("| With direction | %s |\n", humanize.Comma(int64(o.RowsWithDirection))))
	sb.WriteString(fmt.Sprintf("| With directional surprise | %s |\n", humanize.Comma(int64(o.RowsWithDirectionalSurprise))))
	sb.WriteString(fmt.Sprintf("| Duplicate identity keys | %s |\n", humanize.Comma(int64(o.DuplicateKeys))))
	sb.WriteString(fmt.Sprintf("| Title groups | %s |\n", humanize.Comma(int64(o.TitleGroups))))
	sb.WriteString(fmt.Sprintf("| Groups with OK stats (n >= %d) | %s raw, %s directional |\n",
		r.MinSamples, humanize.Comma(int64(o.GroupsOK)), humanize.Comma(int64(o.GroupsDirectionalOK))))
	if o.RowsWithZ > 0 {
		sb.WriteString(fmt.Sprintf("| \\|z\\| median / p90 (%s rows) | %.2f / %.2f |\n",
			humanize.Comma(int64(o.RowsWithZ)), o.AbsZMedian, o.AbsZP90))
	}
	sb.WriteString("\n")

	// Data Quality
	sb.WriteString("## Data Quality\n\n")
	if len(r.DataQuality.SufficiencyChecks) > 0 {
		sb.WriteString("### Sufficiency Checks\n\n")
		sb.WriteString("| Check | Threshold | Actual | Status |\n")
		sb.WriteString("|-------|-----------|--------|--------|\n")
		for _, check := range r.DataQuality.SufficiencyChecks {
			status := "FAIL"
			if check.Pass {
				status = "PASS"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				check.Name, check.Threshold, check.Actual, status))
		}
		sb.WriteString("\n")

		if r.DataQuality.AllChecksPassed {
			sb.WriteString("**All checks passed.**\n\n")
		} else {
			sb.WriteString("**Some checks failed.** Z-scores and signals may be sparse or unreliable.\n\n")
		}
	} else if len(r.DataQuality.IntegrityErrors) == 0 {
		sb.WriteString("No data quality checks performed.\n\n")
	}

	// Integrity errors (always shown if present, even without sufficiency checks)
	if len(r.DataQuality.IntegrityErrors) > 0 {
		sb.WriteString("### Integrity Errors\n\n")
		for _, err := range r.DataQuality.IntegrityErrors {
			sb.WriteString(fmt.Sprintf("- %s\n", err))
		}
		sb.WriteString("\n")
	}

	// Breakdowns
	writeCounts(&sb, "Events by Year", "Year", r.ByYear)
	writeCounts(&sb, "Events by Currency", "Currency", r.ByCurrency)
	writeCounts(&sb, "Events by Impact", "Impact", r.ByImpact)

	// Title coverage
	sb.WriteString("## Surprise Coverage by Title\n\n")
	if len(r.TitleCoverage) > 0 {
		sb.WriteString("| Title | Direction | Rows | Surprise | Directional | Stats |\n")
		sb.WriteString("|-------|-----------|------|----------|-------------|-------|\n")
		for i, t := range r.TitleCoverage {
			if i == maxTitleRows {
				sb.WriteString(fmt.Sprintf("\n%s more titles in the coverage CSV.\n",
					humanize.Comma(int64(len(r.TitleCoverage)-maxTitleRows))))
				break
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %.1f%% | %.1f%% | %s |\n",
				t.TitleNorm, t.Direction, humanize.Comma(int64(t.Rows)),
				t.PctWithSurprise, t.PctWithDirectional, statsLabel(t.StatsOK, t.DirectionalOK)))
		}
	} else {
		sb.WriteString("No titles in corpus.\n")
	}
	sb.WriteString("\n")

	// Signals
	if s := r.Signals; s != nil {
		sb.WriteString("## Pair Signals\n\n")
		sb.WriteString(fmt.Sprintf("Pairs: %s\n\n", strings.Join(s.Pairs, ", ")))
		sb.WriteString("| Stage | Count |\n")
		sb.WriteString("|-------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Projected rows | %s |\n", humanize.Comma(int64(s.Projected))))
		sb.WriteString(fmt.Sprintf("| Rows with time and pair | %s |\n", humanize.Comma(int64(s.Filter.Timestamped))))
		sb.WriteString(fmt.Sprintf("| Rows passing thresholds | %s |\n", humanize.Comma(int64(s.Filter.Thresholded))))
		sb.WriteString(fmt.Sprintf("| Rows in session | %s |\n", humanize.Comma(int64(s.Filter.InSession))))
		sb.WriteString(fmt.Sprintf("| Distinct events | %s |\n", humanize.Comma(int64(s.Filter.Events))))
		sb.WriteString(fmt.Sprintf("| Bucket winners | %s |\n", humanize.Comma(int64(s.Filter.BucketWinners))))
		sb.WriteString(fmt.Sprintf("| Events after min gap | %s |\n", humanize.Comma(int64(s.Filter.Kept))))
		sb.WriteString(fmt.Sprintf("| Filtered rows | %s |\n", humanize.Comma(int64(s.Filtered))))
		sb.WriteString("\n")
		writeCounts(&sb, "Filtered Rows by Pair", "Pair", s.ByPair)
	}

	return sb.String()
}

func writeCounts(sb *strings.Builder, title, column string, rows []CountRow) {
	sb.WriteString(fmt.Sprintf("## %s\n\n", title))
	if len(rows) == 0 {
		sb.WriteString("No data.\n\n")
		return
	}
	sb.WriteString(fmt.Sprintf("| %s | Rows |\n", column))
	sb.WriteString("|------|------|\n")
	for _, c := range rows {
		sb.WriteString(fmt.Sprintf("| %s | %s |\n", c.Key, humanize.Comma(int64(c.Rows))))
	}
	sb.WriteString("\n")
}

func statsLabel(raw, directional bool) string {
	switch {
	case raw && directional:
		return "ok"
	case raw:
		return "raw only"
	default:
		return "insufficient"
	}
}
