/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements timeentry.Store (time entries) and timeentry.RunStore
  (reconciliation audit) on SQLite. The same queries work on PostgreSQL
  with placeholder changes only.

KEY TABLES:
  time_entries:        One row per time entry. start_on/end_on are
                       YYYY-MM-DD text, so range comparisons are lexical.
  reconciliation_runs: Audit of every reconciliation attempt.

NO DAY UNIQUENESS:
  time_entries deliberately has no unique index on start_on. Concurrent
  reconciliations of overlapping intervals may both insert the same day;
  adding a unique index would turn the loser into a create failure, which
  the reconciler reports as a store error. That trade-off is left to the
  deployment.

ERRORS:
  Driver failures (exec, query) on both tables are wrapped in
  timeentry.StoreError so callers see ErrStoreUnavailable. Rows that
  cannot be parsed are returned as plain errors: the reconciler and the
  HTTP layer treat those as unknown.

CONCURRENCY:
  One open connection (SQLite has a single writer) guarded by a
  sync.RWMutex. ":memory:" databases rely on the single connection, since
  every new connection would get its own empty database.

USAGE:
  store, err := sqlite.New("./data/timeentry.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  reconciler := timeentry.NewReconciler(store, timeentry.Options{})

SEE ALSO:
  - timeentry/store.go: Interface definitions
  - timeentry/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/timeentry/calendar"
	"github.com/warp/timeentry/timeentry"
)

// timestampLayout is fixed width so that text columns sort chronologically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Time entries (one row per marked day)
	CREATE TABLE IF NOT EXISTS time_entries (
		id TEXT PRIMARY KEY,
		start_on TEXT NOT NULL,
		end_on TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Overlap probe: end_on >= ? AND start_on <= ?
	CREATE INDEX IF NOT EXISTS idx_time_entries_range
		ON time_entries(start_on, end_on);

	-- Reconciliation Runs (audit)
	CREATE TABLE IF NOT EXISTS reconciliation_runs (
		id TEXT PRIMARY KEY,
		start_on TEXT NOT NULL,
		end_on TEXT NOT NULL,
		triggered_by TEXT NOT NULL,
		status TEXT NOT NULL,
		requested INTEGER NOT NULL DEFAULT 0,
		created INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		started_at TEXT NOT NULL,
		completed_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reconciliation_runs_status
		ON reconciliation_runs(status);
	CREATE INDEX IF NOT EXISTS idx_reconciliation_runs_started
		ON reconciliation_runs(started_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TIME ENTRY STORE (timeentry.Store interface)
// =============================================================================

// QueryOverlapping returns entries whose [start_on, end_on] overlaps interval.
func (s *Store) QueryOverlapping(ctx context.Context, interval calendar.Interval) ([]timeentry.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, start_on, end_on, created_at
		FROM time_entries
		WHERE end_on >= ? AND start_on <= ?
		ORDER BY start_on ASC, created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, interval.Start.String(), interval.End.String())
	if err != nil {
		return nil, timeentry.NewStoreError(timeentry.OpQueryOverlapping, calendar.Date{}, err)
	}
	defer rows.Close()

	var records []timeentry.Record
	for rows.Next() {
		var id, startOn, endOn, createdAt string
		if err := rows.Scan(&id, &startOn, &endOn, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan time entry: %w", err)
		}
		rec, err := parseRecord(id, startOn, endOn, createdAt)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, timeentry.NewStoreError(timeentry.OpQueryOverlapping, calendar.Date{}, err)
	}
	return records, nil
}

// CreateDayRecord inserts {start_on: day, end_on: day}.
func (s *Store) CreateDayRecord(ctx context.Context, day calendar.Date) (timeentry.RecordID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := timeentry.NewRecordID()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO time_entries (id, start_on, end_on, created_at) VALUES (?, ?, ?, ?)",
		string(id), day.String(), day.String(), time.Now().UTC().Format(timestampLayout),
	)
	if err != nil {
		return "", timeentry.NewStoreError(timeentry.OpCreateDayRecord, day, err)
	}
	return id, nil
}

// InsertRecord stores a record with arbitrary start and end days.
// Used for imports and test seeding; the reconciler never calls it.
func (s *Store) InsertRecord(ctx context.Context, rec timeentry.Record) (timeentry.RecordID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = timeentry.NewRecordID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO time_entries (id, start_on, end_on, created_at) VALUES (?, ?, ?, ?)",
		string(rec.ID), rec.Start.String(), rec.End.String(), rec.CreatedAt.UTC().Format(timestampLayout),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert time entry: %w", err)
	}
	return rec.ID, nil
}

func parseRecord(id, startOn, endOn, createdAt string) (timeentry.Record, error) {
	start, err := calendar.ParseDate(startOn)
	if err != nil {
		return timeentry.Record{}, fmt.Errorf("time entry %s: start_on: %w", id, err)
	}
	end, err := calendar.ParseDate(endOn)
	if err != nil {
		return timeentry.Record{}, fmt.Errorf("time entry %s: end_on: %w", id, err)
	}
	created, err := time.Parse(timestampLayout, createdAt)
	if err != nil {
		return timeentry.Record{}, fmt.Errorf("time entry %s: created_at: %w", id, err)
	}

	return timeentry.Record{
		ID:        timeentry.RecordID(id),
		Start:     start,
		End:       end,
		CreatedAt: created,
	}, nil
}

// =============================================================================
// RUN STORE (timeentry.RunStore interface)
// =============================================================================

// SaveRun appends a reconciliation run.
func (s *Store) SaveRun(ctx context.Context, r timeentry.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO reconciliation_runs (id, start_on, end_on, triggered_by, status,
			requested, created, error, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		string(r.ID), r.Interval.Start.String(), r.Interval.End.String(),
		string(r.Trigger), string(r.Status), r.Requested, r.Created,
		nullString(r.Error),
		r.StartedAt.UTC().Format(timestampLayout), r.CompletedAt.UTC().Format(timestampLayout),
	)
	if err != nil {
		return timeentry.NewStoreError(timeentry.OpSaveRun, calendar.Date{}, err)
	}
	return nil
}

// ListRuns returns reconciliation runs, newest first.
func (s *Store) ListRuns(ctx context.Context, status timeentry.RunStatus, limit int) ([]timeentry.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`
		SELECT id, start_on, end_on, triggered_by, status, requested, created,
			error, started_at, completed_at
		FROM reconciliation_runs`)
	if status != "" {
		sb.WriteString(" WHERE status = ?")
		args = append(args, string(status))
	}
	sb.WriteString(" ORDER BY started_at DESC, id DESC")
	if limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, timeentry.NewStoreError(timeentry.OpListRuns, calendar.Date{}, err)
	}
	defer rows.Close()

	var runs []timeentry.Run
	for rows.Next() {
		var (
			id, trigger, status    string
			startOn, endOn         string
			requested, created     int
			errMsg                 sql.NullString
			startedAt, completedAt string
		)
		if err := rows.Scan(&id, &startOn, &endOn, &trigger, &status,
			&requested, &created, &errMsg, &startedAt, &completedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reconciliation run: %w", err)
		}

		r, err := parseRun(id, startOn, endOn, startedAt, completedAt)
		if err != nil {
			return nil, err
		}
		r.Trigger = timeentry.Trigger(trigger)
		r.Status = timeentry.RunStatus(status)
		r.Requested = requested
		r.Created = created
		r.Error = errMsg.String

		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, timeentry.NewStoreError(timeentry.OpListRuns, calendar.Date{}, err)
	}
	return runs, nil
}

func parseRun(id, startOn, endOn, startedAt, completedAt string) (timeentry.Run, error) {
	start, err := calendar.ParseDate(startOn)
	if err != nil {
		return timeentry.Run{}, fmt.Errorf("reconciliation run %s: start_on: %w", id, err)
	}
	end, err := calendar.ParseDate(endOn)
	if err != nil {
		return timeentry.Run{}, fmt.Errorf("reconciliation run %s: end_on: %w", id, err)
	}
	started, err := time.Parse(timestampLayout, startedAt)
	if err != nil {
		return timeentry.Run{}, fmt.Errorf("reconciliation run %s: started_at: %w", id, err)
	}
	completed, err := time.Parse(timestampLayout, completedAt)
	if err != nil {
		return timeentry.Run{}, fmt.Errorf("reconciliation run %s: completed_at: %w", id, err)
	}

	return timeentry.Run{
		ID:          timeentry.RunID(id),
		Interval:    calendar.NewInterval(start, end),
		StartedAt:   started,
		CompletedAt: completed,
	}, nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
