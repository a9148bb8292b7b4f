/*
Package sqlite provides a SQLite-backed implementation of the timesheet
collaborator interfaces.

INTERFACES IMPLEMENTED:
  timesheet.EntryStore:    time entry persistence
  timesheet.Registry:      month lock status records
  timesheet.ScheduleStore: weekly schedules (read by the engine, written by admin/seed paths)

KEY TABLES:
  time_entries:     one row per (employee, date); duration is NULL on legacy rows
  timesheets:       one status row per (employee, month); absent row means open
  weekly_schedules: one row per (employee, weekday)

ENCODING:
  Dates are stored as YYYY-MM-DD text so month lookups are plain range scans.
  Overtime and schedule hours are stored as decimal strings, never floats.
  Timestamps are RFC3339 UTC.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety and a single connection, so ":memory:"
  databases are shared by every caller of one Store.

USAGE:
  store, err := sqlite.New("./data/timesheet.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New().
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
	"github.com/shopspring/decimal"
	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/timesheet"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var (
	_ timesheet.EntryStore    = (*Store)(nil)
	_ timesheet.Registry      = (*Store)(nil)
	_ timesheet.ScheduleStore = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

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

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Time entries
	CREATE TABLE IF NOT EXISTS time_entries (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		entry_type TEXT NOT NULL,
		duration INTEGER,
		bad_weather_duration INTEGER NOT NULL DEFAULT 0,
		overtime TEXT NOT NULL DEFAULT '0',
		location TEXT NOT NULL DEFAULT '',
		start_time TEXT NOT NULL DEFAULT '',
		end_time TEXT NOT NULL DEFAULT '',
		break_minutes INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- At most one entry per employee and day
	CREATE UNIQUE INDEX IF NOT EXISTS idx_time_entries_employee_date
		ON time_entries(employee_id, date);

	-- Month lock records
	CREATE TABLE IF NOT EXISTS timesheets (
		employee_id TEXT NOT NULL,
		month TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'open',
		updated_at TEXT NOT NULL,
		PRIMARY KEY (employee_id, month)
	);

	-- Weekly contractual hours
	CREATE TABLE IF NOT EXISTS weekly_schedules (
		employee_id TEXT NOT NULL,
		weekday INTEGER NOT NULL,
		enabled BOOLEAN NOT NULL DEFAULT FALSE,
		hours TEXT NOT NULL DEFAULT '0',
		PRIMARY KEY (employee_id, weekday)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TIME ENTRIES (timesheet.EntryStore)
// =============================================================================

// Add inserts a new entry.
func (s *Store) Add(ctx context.Context, e timesheet.TimeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	now := time.Now().UTC().Format(time.RFC3339)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO time_entries
		(id, employee_id, date, entry_type, duration, bad_weather_duration, overtime,
		 location, start_time, end_time, break_minutes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.ID,
		e.EmployeeID,
		e.Date.Key(),
		e.Type,
		nullInt(e.Duration),
		e.BadWeatherDuration,
		e.Overtime.String(),
		e.Location,
		e.StartTime,
		e.EndTime,
		e.BreakMinutes,
		createdAt.UTC().Format(time.RFC3339),
		now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("add %s on %s: %w", e.ID, e.Date, timesheet.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to add time entry: %w", err)
	}
	return nil
}

// Update replaces every mutable column of the entry. created_at is kept.
func (s *Store) Update(ctx context.Context, id timesheet.EntryID, e timesheet.TimeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE time_entries SET
			employee_id = ?,
			date = ?,
			entry_type = ?,
			duration = ?,
			bad_weather_duration = ?,
			overtime = ?,
			location = ?,
			start_time = ?,
			end_time = ?,
			break_minutes = ?,
			updated_at = ?
		WHERE id = ?
	`,
		e.EmployeeID,
		e.Date.Key(),
		e.Type,
		nullInt(e.Duration),
		e.BadWeatherDuration,
		e.Overtime.String(),
		e.Location,
		e.StartTime,
		e.EndTime,
		e.BreakMinutes,
		time.Now().UTC().Format(time.RFC3339),
		id,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("update %s on %s: %w", id, e.Date, timesheet.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to update time entry: %w", err)
	}
	return expectOneRow(res, "update", id)
}

// Delete removes one entry by id.
func (s *Store) Delete(ctx context.Context, id timesheet.EntryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM time_entries WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete time entry: %w", err)
	}
	return expectOneRow(res, "delete", id)
}

// List returns the employee's entries dated in the month.
func (s *Store) List(ctx context.Context, employee timesheet.EmployeeID, month generic.Month) ([]timesheet.TimeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, date, entry_type, duration, bad_weather_duration, overtime,
		       location, start_time, end_time, break_minutes, created_at
		FROM time_entries
		WHERE employee_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`, employee, month.First().Key(), month.Last().Key())
	if err != nil {
		return nil, fmt.Errorf("failed to query time entries: %w", err)
	}
	defer rows.Close()

	var entries []timesheet.TimeEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanEntry(rows *sql.Rows) (timesheet.TimeEntry, error) {
	var (
		e         timesheet.TimeEntry
		day       string
		duration  sql.NullInt64
		overtime  string
		createdAt string
	)

	err := rows.Scan(
		&e.ID, &e.EmployeeID, &day, &e.Type, &duration, &e.BadWeatherDuration, &overtime,
		&e.Location, &e.StartTime, &e.EndTime, &e.BreakMinutes, &createdAt,
	)
	if err != nil {
		return e, fmt.Errorf("failed to scan time entry: %w", err)
	}

	if e.Date, err = generic.ParseDate(day); err != nil {
		return e, fmt.Errorf("time entry %s: %w", e.ID, err)
	}
	if duration.Valid {
		e.Duration = timesheet.Minutes(int(duration.Int64))
	}
	if e.Overtime, err = decimal.NewFromString(overtime); err != nil {
		return e, fmt.Errorf("time entry %s overtime %q: %w", e.ID, overtime, err)
	}
	if e.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return e, fmt.Errorf("time entry %s created_at %q: %w", e.ID, createdAt, err)
	}
	return e, nil
}

// =============================================================================
// TIMESHEETS (timesheet.Registry)
// =============================================================================

// Status returns the month's lock state; a missing row reads as open.
func (s *Store) Status(ctx context.Context, employee timesheet.EmployeeID, month generic.Month) (timesheet.Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var status string
	err := s.db.QueryRowContext(ctx,
		"SELECT status FROM timesheets WHERE employee_id = ? AND month = ?",
		employee, month.Prefix(),
	).Scan(&status)
	if err == sql.ErrNoRows {
		return timesheet.StatusOpen, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get timesheet status: %w", err)
	}
	return timesheet.Status(status), nil
}

// SetStatus creates or replaces the month's status row.
func (s *Store) SetStatus(ctx context.Context, employee timesheet.EmployeeID, month generic.Month, status timesheet.Status) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO timesheets (employee_id, month, status, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(employee_id, month) DO UPDATE SET
			status = excluded.status,
			updated_at = excluded.updated_at
	`, employee, month.Prefix(), status, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to set timesheet status: %w", err)
	}
	return nil
}

// Timesheets lists every status record of an employee, newest month first.
func (s *Store) Timesheets(ctx context.Context, employee timesheet.EmployeeID) ([]timesheet.Timesheet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT employee_id, month, status, updated_at
		FROM timesheets
		WHERE employee_id = ?
		ORDER BY month DESC
	`, employee)
	if err != nil {
		return nil, fmt.Errorf("failed to query timesheets: %w", err)
	}
	defer rows.Close()

	var sheets []timesheet.Timesheet
	for rows.Next() {
		var (
			ts        timesheet.Timesheet
			month     string
			updatedAt string
		)
		if err := rows.Scan(&ts.EmployeeID, &month, &ts.Status, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan timesheet: %w", err)
		}
		if ts.Month, err = generic.ParseMonth(month); err != nil {
			return nil, err
		}
		if ts.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
			return nil, fmt.Errorf("timesheet %s/%s updated_at %q: %w", ts.EmployeeID, month, updatedAt, err)
		}
		sheets = append(sheets, ts)
	}
	return sheets, rows.Err()
}

// =============================================================================
// WEEKLY SCHEDULES (timesheet.ScheduleStore)
// =============================================================================

// WeeklySchedule returns nil when the employee has no schedule rows.
func (s *Store) WeeklySchedule(ctx context.Context, employee timesheet.EmployeeID) (*timesheet.WeeklySchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT weekday, enabled, hours FROM weekly_schedules WHERE employee_id = ? ORDER BY weekday",
		employee,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query weekly schedule: %w", err)
	}
	defer rows.Close()

	schedule := &timesheet.WeeklySchedule{EmployeeID: employee, Days: make(map[time.Weekday]timesheet.ScheduleSlot)}
	for rows.Next() {
		var (
			weekday int
			slot    timesheet.ScheduleSlot
			hours   string
		)
		if err := rows.Scan(&weekday, &slot.Enabled, &hours); err != nil {
			return nil, fmt.Errorf("failed to scan schedule slot: %w", err)
		}
		if slot.Hours, err = decimal.NewFromString(hours); err != nil {
			return nil, fmt.Errorf("schedule %s weekday %d hours %q: %w", employee, weekday, hours, err)
		}
		schedule.Days[time.Weekday(weekday)] = slot
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(schedule.Days) == 0 {
		return nil, nil
	}
	return schedule, nil
}

// SaveWeeklySchedule replaces all slots of the employee atomically.
func (s *Store) SaveWeeklySchedule(ctx context.Context, schedule timesheet.WeeklySchedule) error {
	if schedule.EmployeeID == "" {
		return fmt.Errorf("save schedule: employee id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM weekly_schedules WHERE employee_id = ?", schedule.EmployeeID); err != nil {
		return fmt.Errorf("failed to clear weekly schedule: %w", err)
	}
	for wd, slot := range schedule.Days {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO weekly_schedules (employee_id, weekday, enabled, hours) VALUES (?, ?, ?, ?)",
			schedule.EmployeeID, int(wd), slot.Enabled, slot.Hours.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to save schedule slot %s: %w", wd, err)
		}
	}
	return tx.Commit()
}

// =============================================================================
// HELPERS
// =============================================================================

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}

func expectOneRow(res sql.Result, op string, id timesheet.EntryID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s time entry: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", op, id, timesheet.ErrEntryNotFound)
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
