package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"fx-calendar-lab/internal/domain"
	"fx-calendar-lab/internal/storage"
)

// EventStore implements storage.EventStore using PostgreSQL.
type EventStore struct {
	pool *Pool
}

// NewEventStore creates a new EventStore.
func NewEventStore(pool *Pool) *EventStore {
	return &EventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.EventStore = (*EventStore)(nil)

const eventColumns = `
	event_id, source, currency, impact, title, title_norm,
	actual, forecast, previous, actual_val, forecast_val, previous_val,
	actual_kind, forecast_kind, previous_kind, surprise_kind,
	date_local, time_local, when_tz, when_utc, has_specific_time, url
`

const eventOrder = `ORDER BY when_utc ASC NULLS LAST, date_local ASC, currency ASC, event_id ASC`

// Upsert inserts new events and merges later observations into existing ones.
// Each existing row is locked with SELECT ... FOR UPDATE; the batch commits atomically.
func (s *EventStore) Upsert(ctx context.Context, events []*domain.Event) (storage.UpsertResult, error) {
	var res storage.UpsertResult
	if len(events) == 0 {
		return res, nil
	}
	for _, e := range events {
		if e == nil || e.EventID == "" {
			return res, storage.ErrInvalidInput
		}
	}

	err := s.pool.inTx(ctx, func(tx pgx.Tx) error {
		for _, e := range events {
			row := tx.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE event_id = $1 FOR UPDATE`, e.EventID)
			existing, err := scanEvent(row)
			if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("lock event %s: %w", e.EventID, err)
			}

			if existing == nil {
				if err := insertEvent(ctx, tx, e); err != nil {
					return err
				}
				res.Inserted++
				continue
			}

			if !existing.MergeFill(e) {
				res.Unchanged++
				continue
			}
			if err := updateEventValues(ctx, tx, existing); err != nil {
				return err
			}
			res.Updated++
		}
		return nil
	})
	if err != nil {
		return storage.UpsertResult{}, err
	}
	return res, nil
}

func insertEvent(ctx context.Context, tx pgx.Tx, e *domain.Event) error {
	query := `
		INSERT INTO events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	`
	_, err := tx.Exec(ctx, query,
		e.EventID, string(e.Source), e.Currency, e.Impact.String(), e.Title, e.TitleNorm,
		e.Actual, e.Forecast, e.Previous, e.ActualVal, e.ForecastVal, e.PreviousVal,
		kindText(e.ActualKind), kindText(e.ForecastKind), kindText(e.PreviousKind), kindText(e.SurpriseKind),
		e.DateLocal, e.TimeLocal, e.WhenTZ, utcPtr(e.WhenUTC), e.HasSpecificTime, e.URL,
	)
	return mapError("insert event "+e.EventID, err)
}

// updateEventValues writes the mergeable columns only; identity columns are never touched.
func updateEventValues(ctx context.Context, tx pgx.Tx, e *domain.Event) error {
	query := `
		UPDATE events SET
			impact = $2,
			actual = $3, forecast = $4, previous = $5,
			actual_val = $6, forecast_val = $7, previous_val = $8,
			actual_kind = $9, forecast_kind = $10, previous_kind = $11, surprise_kind = $12,
			when_tz = $13, when_utc = $14, has_specific_time = $15, url = $16,
			updated_at = NOW()
		WHERE event_id = $1
	`
	_, err := tx.Exec(ctx, query,
		e.EventID, e.Impact.String(),
		e.Actual, e.Forecast, e.Previous,
		e.ActualVal, e.ForecastVal, e.PreviousVal,
		kindText(e.ActualKind), kindText(e.ForecastKind), kindText(e.PreviousKind), kindText(e.SurpriseKind),
		e.WhenTZ, utcPtr(e.WhenUTC), e.HasSpecificTime, e.URL,
	)
	if err != nil {
		return fmt.Errorf("update event %s: %w", e.EventID, err)
	}
	return nil
}

// GetByID retrieves an event by its ID. Returns ErrNotFound if not exists.
func (s *EventStore) GetByID(ctx context.Context, eventID string) (*domain.Event, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE event_id = $1`, eventID)
	e, err := scanEvent(row)
	if err != nil {
		return nil, mapError("get event by id", err)
	}
	return e, nil
}

// GetAll retrieves every event in canonical order.
func (s *EventStore) GetAll(ctx context.Context) ([]*domain.Event, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+eventColumns+` FROM events `+eventOrder)
	if err != nil {
		return nil, fmt.Errorf("get all events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// GetByDateRange retrieves events with date_local within [from, to] (inclusive).
func (s *EventStore) GetByDateRange(ctx context.Context, from, to string) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE date_local >= $1 AND date_local <= $2 ` + eventOrder

	rows, err := s.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("get events by date range: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// GetByCurrency retrieves all events of one currency in canonical order.
func (s *EventStore) GetByCurrency(ctx context.Context, currency string) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE currency = $1 ` + eventOrder

	rows, err := s.pool.Query(ctx, query, strings.ToUpper(strings.TrimSpace(currency)))
	if err != nil {
		return nil, fmt.Errorf("get events by currency: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// scanEvent scans a single row into an Event.
func scanEvent(row pgx.Row) (*domain.Event, error) {
	var e domain.Event
	var source, impact string
	var actualKind, forecastKind, previousKind, surpriseKind *string

	err := row.Scan(
		&e.EventID, &source, &e.Currency, &impact, &e.Title, &e.TitleNorm,
		&e.Actual, &e.Forecast, &e.Previous, &e.ActualVal, &e.ForecastVal, &e.PreviousVal,
		&actualKind, &forecastKind, &previousKind, &surpriseKind,
		&e.DateLocal, &e.TimeLocal, &e.WhenTZ, &e.WhenUTC, &e.HasSpecificTime, &e.URL,
	)
	if err != nil {
		return nil, err
	}

	e.Source = domain.Source(source)
	e.Impact = domain.ParseImpact(impact)
	e.ActualKind = parseKind(actualKind)
	e.ForecastKind = parseKind(forecastKind)
	e.PreviousKind = parseKind(previousKind)
	e.SurpriseKind = parseKind(surpriseKind)
	e.WhenUTC = utcPtr(e.WhenUTC)
	return &e, nil
}

// scanEvents scans multiple rows into a slice of Event.
func scanEvents(rows pgx.Rows) ([]*domain.Event, error) {
	var events []*domain.Event

	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rows: %w", err)
	}
	return events, nil
}

func kindText(k *domain.ValueKind) *string {
	if k == nil {
		return nil
	}
	s := string(*k)
	return &s
}

func parseKind(s *string) *domain.ValueKind {
	if s == nil {
		return nil
	}
	k := domain.ValueKind(*s)
	return &k
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
