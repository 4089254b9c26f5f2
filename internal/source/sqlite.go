package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/caevv/storewatch/internal/uptime"
)

const schema = `
CREATE TABLE IF NOT EXISTS store_status (
  store_id TEXT NOT NULL,
  status TEXT NOT NULL,
  timestamp_utc INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_store_status_store ON store_status (store_id, timestamp_utc);
CREATE TABLE IF NOT EXISTS menu_hours (
  store_id TEXT NOT NULL,
  day_of_week INTEGER NOT NULL,
  start_time_local TEXT NOT NULL,
  end_time_local TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_menu_hours_store ON menu_hours (store_id);
CREATE TABLE IF NOT EXISTS timezones (
  store_id TEXT PRIMARY KEY,
  timezone_str TEXT NOT NULL
);
`

// SQLite reads observations and business hours from a SQLite database.
// Timestamps are stored as Unix microseconds.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("sqlite source requires a path")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

// ListObservations returns observations ordered by timestamp; rows with equal
// timestamps keep their insertion order.
func (s *SQLite) ListObservations(ctx context.Context, storeID string) ([]uptime.Observation, error) {
	query := `SELECT store_id, status, timestamp_utc FROM store_status`
	var args []any
	if storeID != "" {
		query += ` WHERE store_id = ?`
		args = append(args, storeID)
	}
	query += ` ORDER BY timestamp_utc, rowid`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uptime.Observation
	for rows.Next() {
		var (
			id, status string
			micros     int64
		)
		if err := rows.Scan(&id, &status, &micros); err != nil {
			return nil, err
		}
		// An unparsable status stays Unknown and is rejected by the engine.
		st, _ := uptime.ParseStatus(status)
		out = append(out, uptime.Observation{
			StoreID:   id,
			Timestamp: time.UnixMicro(micros).UTC(),
			Status:    st,
		})
	}
	return out, rows.Err()
}

func (s *SQLite) BusinessHours(ctx context.Context, storeID string) ([]uptime.BusinessHours, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT day_of_week, start_time_local, end_time_local
       FROM menu_hours WHERE store_id = ? ORDER BY rowid`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uptime.BusinessHours
	for rows.Next() {
		var (
			day        int
			start, end string
		)
		if err := rows.Scan(&day, &start, &end); err != nil {
			return nil, err
		}
		h := uptime.BusinessHours{StoreID: storeID, DayOfWeek: day}
		// Unparsable clocks leave Start == End so validation rejects the entry.
		if h.Start, err = uptime.ParseClock(start); err != nil {
			h.Start, h.End = 0, 0
		} else if h.End, err = uptime.ParseClock(end); err != nil {
			h.Start, h.End = 0, 0
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *SQLite) Timezone(ctx context.Context, storeID string) (string, bool, error) {
	var zone string
	err := s.db.QueryRowContext(ctx,
		`SELECT timezone_str FROM timezones WHERE store_id = ?`, storeID).Scan(&zone)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return zone, true, nil
}

// ImportStats counts the rows written by Import.
type ImportStats struct {
	Observations int
	Hours        int
	Timezones    int
}

// Import replaces the database contents with ds in a single transaction.
func (s *SQLite) Import(ctx context.Context, ds *Dataset) (ImportStats, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ImportStats{}, err
	}
	defer tx.Rollback()

	for _, table := range []string{"store_status", "menu_hours", "timezones"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return ImportStats{}, fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	var stats ImportStats
	obsStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO store_status (store_id, status, timestamp_utc) VALUES (?, ?, ?)`)
	if err != nil {
		return ImportStats{}, err
	}
	defer obsStmt.Close()
	for _, o := range ds.Observations {
		if _, err := obsStmt.ExecContext(ctx, o.StoreID, o.Status.String(), o.Timestamp.UnixMicro()); err != nil {
			return ImportStats{}, fmt.Errorf("failed to insert observation: %w", err)
		}
		stats.Observations++
	}

	hoursStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO menu_hours (store_id, day_of_week, start_time_local, end_time_local) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return ImportStats{}, err
	}
	defer hoursStmt.Close()
	for _, id := range sortedKeys(ds.Hours) {
		for _, h := range ds.Hours[id] {
			if _, err := hoursStmt.ExecContext(ctx, h.StoreID, h.DayOfWeek,
				uptime.FormatClock(h.Start), uptime.FormatClock(h.End)); err != nil {
				return ImportStats{}, fmt.Errorf("failed to insert business hours: %w", err)
			}
			stats.Hours++
		}
	}

	for _, id := range sortedKeys(ds.Timezones) {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO timezones (store_id, timezone_str) VALUES (?, ?)`, id, ds.Timezones[id]); err != nil {
			return ImportStats{}, fmt.Errorf("failed to insert timezone: %w", err)
		}
		stats.Timezones++
	}

	if err := tx.Commit(); err != nil {
		return ImportStats{}, err
	}
	return stats, nil
}
