package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/unklstewy/planefence/internal/fence"
)

// EventRepository stores finalized proximity events.
type EventRepository struct {
	db *DB
}

// NewEventRepository creates a new event repository.
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

// upsertQuery inserts an event or refreshes the stored copy of the same
// event (same aircraft, same first-seen time) from a later run over a
// longer log. A known flight number is never blanked.
func (r *EventRepository) upsertQuery() string {
	p := make([]string, 7)
	for i := range p {
		p[i] = r.db.dialect.placeholder(i + 1)
	}

	return `
		INSERT INTO events (icao, flight_number, first_seen, last_seen,
		                    lowest_altitude, min_distance, track_link)
		VALUES (` + strings.Join(p, ", ") + `)
		ON CONFLICT (icao, first_seen) DO UPDATE SET
			flight_number = CASE WHEN excluded.flight_number <> ''
			                     THEN excluded.flight_number
			                     ELSE events.flight_number END,
			last_seen = excluded.last_seen,
			lowest_altitude = excluded.lowest_altitude,
			min_distance = excluded.min_distance,
			track_link = excluded.track_link,
			updated_at = CURRENT_TIMESTAMP`
}

// SaveEvents writes all records in a single transaction.
func (r *EventRepository) SaveEvents(ctx context.Context, records []fence.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, r.upsertQuery())
	if err != nil {
		return fmt.Errorf("failed to prepare event upsert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		_, err := stmt.ExecContext(ctx,
			rec.ICAO,
			rec.FlightNumber,
			rec.FirstSeen,
			rec.LastSeen,
			rec.LowestAltitude,
			rec.MinDistance,
			rec.TrackLink,
		)
		if err != nil {
			return fmt.Errorf("failed to save event %s at %s: %w", rec.ICAO, rec.FirstSeen, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit events: %w", err)
	}
	return nil
}

// ListEvents returns every stored event ordered by first-seen time.
func (r *EventRepository) ListEvents(ctx context.Context) ([]fence.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT icao, flight_number, first_seen, last_seen,
		       lowest_altitude, min_distance, track_link
		FROM events
		ORDER BY first_seen, icao`)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	records := []fence.Record{}
	for rows.Next() {
		var rec fence.Record
		err := rows.Scan(
			&rec.ICAO,
			&rec.FlightNumber,
			&rec.FirstSeen,
			&rec.LastSeen,
			&rec.LowestAltitude,
			&rec.MinDistance,
			&rec.TrackLink,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}

	return records, nil
}

// CountEvents returns the number of stored events.
func (r *EventRepository) CountEvents(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return n, nil
}
