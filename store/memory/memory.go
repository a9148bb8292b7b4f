// Package memory provides in-memory implementations of the timesheet
// collaborators, for tests and demos.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/timesheet"
)

// =============================================================================
// MEMORY STORE - EntryStore + Registry + ScheduleStore
// =============================================================================

type Store struct {
	mu        sync.RWMutex
	entries   map[timesheet.EntryID]timesheet.TimeEntry
	byDay     map[dayKey]timesheet.EntryID
	statuses  map[monthKey]timesheet.Status
	schedules map[timesheet.EmployeeID]timesheet.WeeklySchedule
}

type dayKey struct {
	Employee timesheet.EmployeeID
	Date     string
}

type monthKey struct {
	Employee timesheet.EmployeeID
	Month    generic.Month
}

var (
	_ timesheet.EntryStore    = (*Store)(nil)
	_ timesheet.Registry      = (*Store)(nil)
	_ timesheet.ScheduleStore = (*Store)(nil)
)

func New() *Store {
	return &Store{
		entries:   make(map[timesheet.EntryID]timesheet.TimeEntry),
		byDay:     make(map[dayKey]timesheet.EntryID),
		statuses:  make(map[monthKey]timesheet.Status),
		schedules: make(map[timesheet.EmployeeID]timesheet.WeeklySchedule),
	}
}

func keyOf(e timesheet.TimeEntry) dayKey {
	return dayKey{Employee: e.EmployeeID, Date: e.Date.Key()}
}

// =============================================================================
// ENTRIES
// =============================================================================

func (m *Store) Add(_ context.Context, e timesheet.TimeEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[e.ID]; ok {
		return fmt.Errorf("add %s: %w", e.ID, timesheet.ErrDuplicateEntry)
	}
	if _, ok := m.byDay[keyOf(e)]; ok {
		return fmt.Errorf("add %s on %s: %w", e.EmployeeID, e.Date, timesheet.ErrDuplicateEntry)
	}
	m.entries[e.ID] = e.Clone()
	m.byDay[keyOf(e)] = e.ID
	return nil
}

func (m *Store) Update(_ context.Context, id timesheet.EntryID, e timesheet.TimeEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.entries[id]
	if !ok {
		return fmt.Errorf("update %s: %w", id, timesheet.ErrEntryNotFound)
	}
	if other, taken := m.byDay[keyOf(e)]; taken && other != id {
		return fmt.Errorf("update %s on %s: %w", id, e.Date, timesheet.ErrDuplicateEntry)
	}

	e = e.Clone()
	e.ID = id
	e.CreatedAt = old.CreatedAt
	delete(m.byDay, keyOf(old))
	m.entries[id] = e
	m.byDay[keyOf(e)] = id
	return nil
}

func (m *Store) Delete(_ context.Context, id timesheet.EntryID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.entries[id]
	if !ok {
		return fmt.Errorf("delete %s: %w", id, timesheet.ErrEntryNotFound)
	}
	delete(m.entries, id)
	delete(m.byDay, keyOf(old))
	return nil
}

func (m *Store) List(_ context.Context, employee timesheet.EmployeeID, month generic.Month) ([]timesheet.TimeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []timesheet.TimeEntry
	for _, e := range m.entries {
		if e.EmployeeID == employee && month.Contains(e.Date) {
			result = append(result, e.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

// Len returns the number of persisted entries across all employees.
func (m *Store) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// =============================================================================
// REGISTRY
// =============================================================================

func (m *Store) Status(_ context.Context, employee timesheet.EmployeeID, month generic.Month) (timesheet.Status, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.statuses[monthKey{employee, month}]; ok {
		return s, nil
	}
	return timesheet.StatusOpen, nil
}

func (m *Store) SetStatus(_ context.Context, employee timesheet.EmployeeID, month generic.Month, status timesheet.Status) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[monthKey{employee, month}] = status
	return nil
}

// =============================================================================
// SCHEDULES
// =============================================================================

func (m *Store) WeeklySchedule(_ context.Context, employee timesheet.EmployeeID) (*timesheet.WeeklySchedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.schedules[employee]
	if !ok {
		return nil, nil
	}
	return copySchedule(s), nil
}

func (m *Store) SaveWeeklySchedule(_ context.Context, s timesheet.WeeklySchedule) error {
	if s.EmployeeID == "" {
		return fmt.Errorf("save schedule: employee id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedules[s.EmployeeID] = *copySchedule(s)
	return nil
}

func copySchedule(s timesheet.WeeklySchedule) *timesheet.WeeklySchedule {
	c := timesheet.WeeklySchedule{EmployeeID: s.EmployeeID, Days: make(map[time.Weekday]timesheet.ScheduleSlot, len(s.Days))}
	for wd, slot := range s.Days {
		c.Days[wd] = slot
	}
	return &c
}
