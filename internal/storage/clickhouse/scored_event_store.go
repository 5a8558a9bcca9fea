package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"fx-calendar-lab/internal/domain"
	"fx-calendar-lab/internal/normalization"
	"fx-calendar-lab/internal/storage"
)

// ScoredEventStore implements storage.ScoredEventStore using ClickHouse.
type ScoredEventStore struct {
	conn *Conn
}

// NewScoredEventStore creates a new ScoredEventStore.
func NewScoredEventStore(conn *Conn) *ScoredEventStore {
	return &ScoredEventStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ScoredEventStore = (*ScoredEventStore)(nil)

const scoredEventColumns = `
	event_id, source, currency, impact, title, title_norm,
	actual, forecast, previous, actual_val, forecast_val, previous_val,
	actual_kind, forecast_kind, previous_kind, surprise_kind,
	date_local, time_local, when_tz, when_utc, has_specific_time, url,
	direction, good_is_higher, surprise_raw, surprise_sign, surprise_z,
	directional_surprise, directional_z, cc_strength_sign
`

// InsertRun stores the scored corpus of a run. Returns ErrDuplicateKey if the run exists.
func (s *ScoredEventStore) InsertRun(ctx context.Context, runID string, events []*domain.ScoredEvent) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}

	exists, err := s.conn.runExists(ctx, `SELECT count(*) FROM scored_events WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}
	if len(events) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO scored_events (run_id, `+scoredEventColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, e := range events {
		if e == nil {
			return storage.ErrInvalidInput
		}
		err = batch.Append(
			runID,
			e.EventID, string(e.Source), e.Currency, e.Impact.String(), e.Title, e.TitleNorm,
			e.Actual, e.Forecast, e.Previous, e.ActualVal, e.ForecastVal, e.PreviousVal,
			kindToNullable(e.ActualKind), kindToNullable(e.ForecastKind),
			kindToNullable(e.PreviousKind), kindToNullable(e.SurpriseKind),
			e.DateLocal, e.TimeLocal, e.WhenTZ, timeToNullable(e.WhenUTC), boolToUInt8(e.HasSpecificTime), e.URL,
			string(e.Direction), boolToNullable(e.GoodIsHigher), e.SurpriseRaw, signToNullable(e.SurpriseSign), e.SurpriseZ,
			e.DirectionalSurprise, e.DirectionalZ, signToNullable(e.CCStrengthSign),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByRun retrieves the scored corpus of a run in canonical event order.
func (s *ScoredEventStore) GetByRun(ctx context.Context, runID string) ([]*domain.ScoredEvent, error) {
	query := `SELECT ` + scoredEventColumns + ` FROM scored_events WHERE run_id = ?`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query scored events: %w", err)
	}
	defer rows.Close()

	events, err := scanScoredEvents(rows)
	if err != nil {
		return nil, err
	}
	normalization.SortScored(events)
	return events, nil
}

// scanScoredEvents scans multiple rows into a slice of ScoredEvent.
func scanScoredEvents(rows driver.Rows) ([]*domain.ScoredEvent, error) {
	var events []*domain.ScoredEvent

	for rows.Next() {
		var e domain.ScoredEvent
		var source, impact, direction string
		var actualKind, forecastKind, previousKind, surpriseKind *string
		var hasSpecificTime uint8
		var goodIsHigher *uint8
		var surpriseSign, ccStrengthSign *int8

		err := rows.Scan(
			&e.EventID, &source, &e.Currency, &impact, &e.Title, &e.TitleNorm,
			&e.Actual, &e.Forecast, &e.Previous, &e.ActualVal, &e.ForecastVal, &e.PreviousVal,
			&actualKind, &forecastKind, &previousKind, &surpriseKind,
			&e.DateLocal, &e.TimeLocal, &e.WhenTZ, &e.WhenUTC, &hasSpecificTime, &e.URL,
			&direction, &goodIsHigher, &e.SurpriseRaw, &surpriseSign, &e.SurpriseZ,
			&e.DirectionalSurprise, &e.DirectionalZ, &ccStrengthSign,
		)
		if err != nil {
			return nil, fmt.Errorf("scan scored event row: %w", err)
		}

		e.Source = domain.Source(source)
		e.Impact = domain.ParseImpact(impact)
		e.ActualKind = kindFromNullable(actualKind)
		e.ForecastKind = kindFromNullable(forecastKind)
		e.PreviousKind = kindFromNullable(previousKind)
		e.SurpriseKind = kindFromNullable(surpriseKind)
		e.HasSpecificTime = hasSpecificTime != 0
		e.WhenUTC = timeToNullable(e.WhenUTC)
		e.Direction = domain.ParseDirection(direction)
		e.GoodIsHigher = boolFromNullable(goodIsHigher)
		e.SurpriseSign = signFromNullable(surpriseSign)
		e.CCStrengthSign = signFromNullable(ccStrengthSign)
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scored event rows: %w", err)
	}
	return events, nil
}
