package reporting

import (
	"time"

	"fx-calendar-lab/internal/domain"
	"fx-calendar-lab/internal/signalfilter"
)

// QualityReport represents the calendar quality report structure.
type QualityReport struct {
	// Metadata
	GeneratedAt time.Time
	RunID       string // empty for standalone reports
	MinSamples  int

	// Corpus totals
	Overall OverallSummary

	// Breakdowns (by year ascending; currency and impact by rows descending)
	ByYear     []CountRow
	ByCurrency []CountRow
	ByImpact   []CountRow

	// Weeks ordered worst time coverage first
	Weeks []WeekCoverageRow

	// Per-title coverage (by rows with directional surprise descending)
	TitleCoverage []TitleCoverageRow

	// Data Quality (sufficiency checks)
	DataQuality DataQualitySection

	// Signals is set when the report covers a pipeline run.
	Signals *SignalSummary
}

// OverallSummary contains corpus-wide counts.
type OverallSummary struct {
	RowsTotal                   int
	RowsWithTime                int
	PctWithTime                 float64
	RowsUnknownImpact           int
	PctUnknownImpact            float64
	UniqueWeeks                 int
	DuplicateKeys               int
	RowsWithSurprise            int
	PctWithSurprise             float64
	RowsWithDirection           int
	RowsWithDirectionalSurprise int
	TitleGroups                 int
	GroupsOK                    int
	GroupsDirectionalOK         int
	RowsWithZ                   int
	AbsZMedian                  float64 // over rows with a defined surprise_z
	AbsZP90                     float64
	DateFrom                    string // earliest date_local, "" for an empty corpus
	DateTo                      string
}

// CountRow is one bucket of a breakdown.
type CountRow struct {
	Key  string
	Rows int
}

// WeekCoverageRow reports time coverage of one ISO week.
type WeekCoverageRow struct {
	WeekID   string // YYYYWW, "" when date_local is unparsable
	Rows     int
	Timed    int
	TimedPct float64
}

// TitleCoverageRow reports surprise coverage of one title group.
type TitleCoverageRow struct {
	TitleNorm          string
	Direction          domain.Direction
	Rows               int
	WithSurprise       int
	WithDirectional    int
	PctWithSurprise    float64
	PctWithDirectional float64
	StatsOK            bool
	DirectionalOK      bool
}

// DataQualitySection contains corpus sufficiency checks and integrity errors.
type DataQualitySection struct {
	SufficiencyChecks []SufficiencyCheckRow
	IntegrityErrors   []string
	AllChecksPassed   bool
}

// SufficiencyCheckRow represents one sufficiency criterion.
type SufficiencyCheckRow struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// SignalSummary describes the pair-signal stages of a run.
type SignalSummary struct {
	Pairs     []string
	Projected int
	Filtered  int
	Filter    signalfilter.Stats
	ByPair    []CountRow // filtered rows per pair, universe order
}
