package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"fx-calendar-lab/internal/domain"
	"fx-calendar-lab/internal/storage"
)

// PairSignalStore implements storage.PairSignalStore using ClickHouse.
type PairSignalStore struct {
	conn *Conn
}

// NewPairSignalStore creates a new PairSignalStore.
func NewPairSignalStore(conn *Conn) *PairSignalStore {
	return &PairSignalStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PairSignalStore = (*PairSignalStore)(nil)

const pairSignalColumns = `
	signal_id, event_id, pair, currency, title, direction_sign, when_utc, impact,
	surprise_raw, surprise_z, surprise_sign, cc_strength_sign, date_local, time_local, source
`

// InsertRun stores the signals of a run stage. Returns ErrDuplicateKey if it exists.
func (s *PairSignalStore) InsertRun(ctx context.Context, runID string, stage domain.SignalStage, signals []*domain.PairSignal) error {
	if runID == "" || stage == "" {
		return storage.ErrInvalidInput
	}

	exists, err := s.conn.runExists(ctx,
		`SELECT count(*) FROM pair_signals WHERE run_id = ? AND stage = ?`, runID, string(stage))
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}
	if len(signals) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO pair_signals (run_id, stage, `+pairSignalColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range signals {
		if p == nil {
			return storage.ErrInvalidInput
		}
		err = batch.Append(
			runID, string(stage),
			p.SignalID, p.EventID, p.Pair, p.Currency, p.Title, int8(p.DirectionSign),
			timeToNullable(p.WhenUTC), p.Impact.String(),
			p.SurpriseRaw, p.SurpriseZ, signToNullable(p.SurpriseSign), int8(p.CCStrengthSign),
			p.DateLocal, p.TimeLocal, string(p.Source),
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

// GetByRun retrieves the signals of a run stage ordered by (when_utc, currency, event_id, pair).
func (s *PairSignalStore) GetByRun(ctx context.Context, runID string, stage domain.SignalStage) ([]*domain.PairSignal, error) {
	query := `SELECT ` + pairSignalColumns + `
		FROM pair_signals
		WHERE run_id = ? AND stage = ?
		ORDER BY when_utc ASC NULLS LAST, currency ASC, event_id ASC, pair ASC
	`

	rows, err := s.conn.Query(ctx, query, runID, string(stage))
	if err != nil {
		return nil, fmt.Errorf("query pair signals: %w", err)
	}
	defer rows.Close()

	return scanPairSignals(rows)
}

// scanPairSignals scans multiple rows into a slice of PairSignal.
func scanPairSignals(rows driver.Rows) ([]*domain.PairSignal, error) {
	var signals []*domain.PairSignal

	for rows.Next() {
		var p domain.PairSignal
		var impact, source string
		var directionSign, ccStrengthSign int8
		var surpriseSign *int8

		err := rows.Scan(
			&p.SignalID, &p.EventID, &p.Pair, &p.Currency, &p.Title, &directionSign,
			&p.WhenUTC, &impact,
			&p.SurpriseRaw, &p.SurpriseZ, &surpriseSign, &ccStrengthSign,
			&p.DateLocal, &p.TimeLocal, &source,
		)
		if err != nil {
			return nil, fmt.Errorf("scan pair signal row: %w", err)
		}

		p.DirectionSign = int(directionSign)
		p.CCStrengthSign = int(ccStrengthSign)
		p.SurpriseSign = signFromNullable(surpriseSign)
		p.WhenUTC = timeToNullable(p.WhenUTC)
		p.Impact = domain.ParseImpact(impact)
		p.Source = domain.Source(source)
		signals = append(signals, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pair signal rows: %w", err)
	}
	return signals, nil
}
