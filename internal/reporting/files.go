package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"fx-calendar-lab/internal/domain"
)

// Output file names.
const (
	FileOverall       = "calendar_quality_overall.csv"
	FileByYear        = "calendar_summary_by_year.csv"
	FileByCurrency    = "calendar_summary_by_currency.csv"
	FileByImpact      = "calendar_summary_by_impact.csv"
	FileWeeks         = "calendar_weeks_timed_ratio.csv"
	FileTitleCoverage = "calendar_surprise_coverage_by_title.csv"
	FileReport        = "calendar_quality_report.md"
	FileGolden        = "calendar_events_golden.csv"
	FileTitleStats    = "calendar_title_stats.csv"
	FileSignals       = "pair_signals.csv"
	FileFiltered      = "pair_signals_filtered.csv"
)

// Dataset is the scored output of one run.
type Dataset struct {
	Scored    []*domain.ScoredEvent
	Table     *domain.StatsTable
	Projected []*domain.PairSignal
	Filtered  []*domain.PairSignal
}

// WriteReport writes the quality CSVs and the markdown report into dir.
// Returns the written paths.
func WriteReport(dir string, r *QualityReport) ([]string, error) {
	return writeFiles(dir, []outputFile{
		{FileOverall, RenderOverallCSV(r.Overall)},
		{FileByYear, RenderCountsCSV("year", r.ByYear)},
		{FileByCurrency, RenderCountsCSV("currency", r.ByCurrency)},
		{FileByImpact, RenderCountsCSV("impact", r.ByImpact)},
		{FileWeeks, RenderWeeksCSV(r.Weeks)},
		{FileTitleCoverage, RenderTitleCoverageCSV(r.TitleCoverage)},
		{FileReport, RenderMarkdown(r)},
	})
}

// WriteDataset writes the golden dataset, title stats and pair-signal CSVs into dir.
// Signal files are skipped when the dataset carries no signal stages.
func WriteDataset(dir string, d Dataset) ([]string, error) {
	files := []outputFile{
		{FileGolden, RenderGoldenCSV(d.Scored)},
		{FileTitleStats, RenderTitleStatsCSV(d.Table)},
	}
	if d.Projected != nil || d.Filtered != nil {
		files = append(files,
			outputFile{FileSignals, RenderSignalsCSV(d.Projected)},
			outputFile{FileFiltered, RenderSignalsCSV(d.Filtered)},
		)
	}
	return writeFiles(dir, files)
}

type outputFile struct {
	name    string
	content string
}

func writeFiles(dir string, files []outputFile) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := os.WriteFile(path, []byte(f.content), 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", f.name, err)
		}
		log.Debug().Str("component", "reporting").Str("path", path).Msg("wrote")
		paths = append(paths, path)
	}
	return paths, nil
}
