package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"fx-calendar-lab/internal/domain"
	"fx-calendar-lab/internal/storage"
)

// TitleStatsStore implements storage.TitleStatsStore using ClickHouse.
type TitleStatsStore struct {
	conn *Conn
}

// NewTitleStatsStore creates a new TitleStatsStore.
func NewTitleStatsStore(conn *Conn) *TitleStatsStore {
	return &TitleStatsStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TitleStatsStore = (*TitleStatsStore)(nil)

// InsertRun stores the fitted table of a run. Returns ErrDuplicateKey if the run exists.
func (s *TitleStatsStore) InsertRun(ctx context.Context, runID string, table *domain.StatsTable) error {
	if runID == "" || table == nil {
		return storage.ErrInvalidInput
	}

	exists, err := s.conn.runExists(ctx, `SELECT count(*) FROM title_stats WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	stats := table.Stats()
	if len(stats) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO title_stats (
			run_id, title_norm, min_samples,
			raw_count, raw_mu, raw_sigma, raw_ok,
			dir_count, dir_mu, dir_sigma, dir_ok
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, st := range stats {
		err = batch.Append(
			runID, st.TitleNorm, uint32(table.MinSamples),
			uint32(st.Raw.Count), st.Raw.Mu, st.Raw.Sigma, boolToUInt8(st.Raw.OK),
			uint32(st.Directional.Count), st.Directional.Mu, st.Directional.Sigma, boolToUInt8(st.Directional.OK),
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

// GetByRun retrieves the fitted table of a run. Returns ErrNotFound if the run is unknown.
func (s *TitleStatsStore) GetByRun(ctx context.Context, runID string) (*domain.StatsTable, error) {
	query := `
		SELECT
			title_norm, min_samples,
			raw_count, raw_mu, raw_sigma, raw_ok,
			dir_count, dir_mu, dir_sigma, dir_ok
		FROM title_stats
		WHERE run_id = ?
		ORDER BY title_norm ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query title stats: %w", err)
	}
	defer rows.Close()

	minSamples, stats, err := scanTitleStats(rows)
	if err != nil {
		return nil, err
	}
	if len(stats) == 0 {
		return nil, storage.ErrNotFound
	}
	return domain.NewStatsTable(minSamples, stats), nil
}

// scanTitleStats scans rows into stats and returns the run's min_samples.
func scanTitleStats(rows driver.Rows) (int, []domain.SurpriseStat, error) {
	var stats []domain.SurpriseStat
	var minSamples uint32

	for rows.Next() {
		var st domain.SurpriseStat
		var rawCount, dirCount uint32
		var rawOK, dirOK uint8

		err := rows.Scan(
			&st.TitleNorm, &minSamples,
			&rawCount, &st.Raw.Mu, &st.Raw.Sigma, &rawOK,
			&dirCount, &st.Directional.Mu, &st.Directional.Sigma, &dirOK,
		)
		if err != nil {
			return 0, nil, fmt.Errorf("scan title stat row: %w", err)
		}

		st.Raw.Count = int(rawCount)
		st.Raw.OK = rawOK != 0
		st.Directional.Count = int(dirCount)
		st.Directional.OK = dirOK != 0
		stats = append(stats, st)
	}

	if err := rows.Err(); err != nil {
		return 0, nil, fmt.Errorf("iterate title stat rows: %w", err)
	}
	return int(minSamples), stats, nil
}
