/*
store.go - Interfaces to the engine's external collaborators

PURPOSE:
  The engine never owns persistence or employee master data. It talks to
  three collaborators through the interfaces below, all passed explicitly
  to NewSession / NewMonthLock:

  EntryStore:        durable TimeEntry records, keyed by id, unique per (employee, date)
  Registry:          one open/finalized status per (employee, month)
  ScheduleDirectory: weekly contractual hours per employee (read-only here)

CONTRACT NOTES:
  - EntryStore has no range delete. ResetMonth enumerates and deletes one by one.
  - Writes are keyed by entry id, so repeating a Save after a failure does not
    create duplicates.
  - Registry.Status returns StatusOpen when no record exists.
  - ScheduleDirectory.WeeklySchedule returns (nil, nil) when the employee has
    no schedule.

IMPLEMENTATIONS:
  - store/sqlite: SQLite (production)
  - store/memory: in-memory (tests, demos)
*/
package timesheet

import (
	"context"

	"github.com/warp/timesheet-engine/generic"
)

// EntryStore persists committed TimeEntry records.
type EntryStore interface {
	// Add persists a new entry. Returns ErrDuplicateEntry if the id or the
	// (employee, date) pair already exists.
	Add(ctx context.Context, entry TimeEntry) error

	// Update replaces the entry with the given id. Returns ErrEntryNotFound
	// if it does not exist. CreatedAt is never changed.
	Update(ctx context.Context, id EntryID, entry TimeEntry) error

	// Delete removes one entry. Returns ErrEntryNotFound if it does not exist.
	Delete(ctx context.Context, id EntryID) error

	// List returns the employee's entries in the month, ordered by date.
	List(ctx context.Context, employee EmployeeID, month generic.Month) ([]TimeEntry, error)
}

// Registry persists the lock status of employee-months.
type Registry interface {
	Status(ctx context.Context, employee EmployeeID, month generic.Month) (Status, error)
	SetStatus(ctx context.Context, employee EmployeeID, month generic.Month, status Status) error
}

// ScheduleDirectory supplies weekly schedules.
type ScheduleDirectory interface {
	WeeklySchedule(ctx context.Context, employee EmployeeID) (*WeeklySchedule, error)
}

// ScheduleStore extends ScheduleDirectory with writes, for stores that also
// hold the schedule data locally (admin and seeding paths only).
type ScheduleStore interface {
	ScheduleDirectory
	SaveWeeklySchedule(ctx context.Context, schedule WeeklySchedule) error
}
