/*
session.go - One employee's editing session

PURPOSE:
  A Session owns the Edit Buffer for one employee and exposes the operations
  the presentation layer calls: stage a field edit, autofill a month, read
  the merged (persisted ∪ staged) month, save, reset, finalize and reopen.

FLOW:
  Month()        reads Store ∪ Buffer (buffer wins per date)
  StageUpdate()  lock-gated; clones buffer/store/default entry, applies one
                 field, re-derives overtime on duration/type changes
  AutoFill()     lock-gated; stages default WORK entries on empty scheduled days
  Save()         commit.go; batch-writes the buffer
  ResetMonth()   commit.go; deletes the month's persisted and staged entries

CONCURRENCY:
  Single writer. All methods take the session mutex, so the HTTP adapter can
  share one Session between requests; calls are applied in arrival order.
*/
package timesheet

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/warp/timesheet-engine/generic"
)

// Session is the Reconciliation/Commit Engine for one employee.
type Session struct {
	employee  EmployeeID
	entries   EntryStore
	schedules ScheduleDirectory
	lock      *MonthLock
	buffer    *EditBuffer

	opts Options
	log  *slog.Logger

	mu sync.Mutex
}

// NewSession wires a session to its collaborators. schedules may be nil, in
// which case every day is treated as unscheduled.
func NewSession(employee EmployeeID, entries EntryStore, schedules ScheduleDirectory, lock *MonthLock, opts Options) *Session {
	opts = opts.withDefaults()
	return &Session{
		employee:  employee,
		entries:   entries,
		schedules: schedules,
		lock:      lock,
		buffer:    NewEditBuffer(),
		opts:      opts,
		log:       opts.Logger.With("employee", string(employee)),
	}
}

func (s *Session) Employee() EmployeeID { return s.employee }

// =============================================================================
// STAGING
// =============================================================================

// StageUpdate sets one field of the day's entry in the buffer and returns
// the staged result.
//
// On a finalized month nothing changes and a *LockedMonthError is returned;
// callers that only want the no-op can ignore it. Malformed values return a
// *ValidationError and also leave the buffer untouched.
func (s *Session) StageUpdate(ctx context.Context, day generic.TimePoint, field Field, value string) (TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock.guard(ctx, s.employee, day.CalendarMonth()); err != nil {
		return TimeEntry{}, err
	}

	current, found, err := s.current(ctx, day)
	if err != nil {
		return TimeEntry{}, err
	}
	if !found {
		current = s.synthesize(day)
	}

	updated := current.Clone()
	if err := applyField(&updated, field, value); err != nil {
		return TimeEntry{}, err
	}

	if !found || field.rederives() {
		schedule, err := s.schedule(ctx)
		if err != nil {
			return TimeEntry{}, err
		}
		updated.Overtime = DeriveOvertime(updated, schedule)
	}

	s.buffer.Put(updated)
	s.opts.Observer.Staged("edit", 1)
	return updated.Clone(), nil
}

// current finds the entry a day edit starts from: buffer first, then store.
func (s *Session) current(ctx context.Context, day generic.TimePoint) (TimeEntry, bool, error) {
	if e, ok := s.buffer.Get(day); ok {
		return e, true, nil
	}
	persisted, err := s.list(ctx, day.CalendarMonth())
	if err != nil {
		return TimeEntry{}, false, err
	}
	for _, e := range persisted {
		if e.Date.Equal(day) {
			return e.Clone(), true, nil
		}
	}
	return TimeEntry{}, false, nil
}

// synthesize builds the default entry for a day nobody has touched yet.
func (s *Session) synthesize(day generic.TimePoint) TimeEntry {
	return TimeEntry{
		ID:         s.opts.NewID(),
		EmployeeID: s.employee,
		Date:       day,
		Type:       TypeWork,
		Overtime:   decimal.Zero,
		StartTime:  s.opts.DefaultStartTime,
		EndTime:    placeholderEnd(s.opts.DefaultStartTime, 8*60),
		CreatedAt:  s.opts.Now(),
	}
}

// Discard drops the staged entry for one day without touching the store.
func (s *Session) Discard(day generic.TimePoint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffer.Remove(day)
}

// DiscardAll drops every staged entry.
func (s *Session) DiscardAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffer.Clear()
}

// Pending returns the staged entries, ordered by date.
func (s *Session) Pending() []TimeEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffer.Entries()
}

// =============================================================================
// AUTOFILL
// =============================================================================

// AutoFill stages a default WORK entry for every day of the month that has
// an enabled schedule slot and no entry, persisted or staged. It never
// overwrites anything and only touches the buffer; Save persists.
// Returns the number of entries staged.
func (s *Session) AutoFill(ctx context.Context, month generic.Month) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock.guard(ctx, s.employee, month); err != nil {
		return 0, err
	}

	schedule, err := s.schedule(ctx)
	if err != nil {
		return 0, err
	}
	if schedule == nil {
		return 0, nil
	}

	persisted, err := s.list(ctx, month)
	if err != nil {
		return 0, err
	}
	taken := make(map[string]bool, len(persisted))
	for _, e := range persisted {
		taken[e.Date.Key()] = true
	}

	staged := 0
	for _, day := range month.Days() {
		if taken[day.Key()] || s.buffer.Has(day) {
			continue
		}
		hours, ok := schedule.Target(day).Contractual()
		if !ok {
			continue
		}
		minutes := MinutesForHours(hours)
		s.buffer.Put(TimeEntry{
			ID:         s.opts.NewID(),
			EmployeeID: s.employee,
			Date:       day,
			Type:       TypeWork,
			Duration:   Minutes(minutes),
			Overtime:   decimal.Zero,
			Location:   s.opts.DefaultLocation,
			StartTime:  s.opts.DefaultStartTime,
			// Break stays zero so the placeholder span equals the net duration.
			EndTime:   placeholderEnd(s.opts.DefaultStartTime, minutes),
			CreatedAt: s.opts.Now(),
		})
		staged++
	}

	if staged > 0 {
		s.opts.Observer.Staged("autofill", staged)
	}
	s.log.Info("autofill staged entries", "month", month.String(), "staged", staged)
	return staged, nil
}

// =============================================================================
// LOCK (delegated)
// =============================================================================

// Finalize locks the month. Staged entries for it stay in the buffer.
func (s *Session) Finalize(ctx context.Context, month generic.Month) error {
	s.mu.Lock()
	pending := len(s.buffer.EntriesIn(month))
	s.mu.Unlock()

	if err := s.lock.Finalize(ctx, s.employee, month); err != nil {
		return err
	}
	if pending > 0 {
		s.log.Warn("month finalized with unsaved staged entries",
			"month", month.String(), "pending", pending)
	}
	return nil
}

// Reopen unlocks the month.
func (s *Session) Reopen(ctx context.Context, month generic.Month) error {
	return s.lock.Reopen(ctx, s.employee, month)
}

// Status returns the month's lock state.
func (s *Session) Status(ctx context.Context, month generic.Month) (Status, error) {
	return s.lock.Status(ctx, s.employee, month)
}

// =============================================================================
// QUERY HELPERS
// =============================================================================

func (s *Session) list(ctx context.Context, month generic.Month) ([]TimeEntry, error) {
	entries, err := s.entries.List(ctx, s.employee, month)
	if err != nil {
		return nil, &OpError{Op: OpList, Err: fmt.Errorf("%s: %w", month, err)}
	}
	return entries, nil
}

func (s *Session) schedule(ctx context.Context) (*WeeklySchedule, error) {
	if s.schedules == nil {
		return nil, nil
	}
	schedule, err := s.schedules.WeeklySchedule(ctx, s.employee)
	if err != nil {
		return nil, fmt.Errorf("load weekly schedule for %s: %w", s.employee, err)
	}
	return schedule, nil
}
