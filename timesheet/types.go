/*
Package timesheet implements the time accounting reconciliation engine.

PURPOSE:
  Tracks an employee's daily work and absence entries for a calendar month,
  derives overtime against the employee's weekly schedule, gates every
  mutation behind a month lock, and reconciles staged edits against the
  persisted store in one batch commit.

KEY CONCEPTS:
  - TimeEntry:      one employee's record for one calendar day
  - WeeklySchedule: per-weekday contractual hours (read-only, external)
  - EditBuffer:     staged, unsaved entries keyed by date
  - Session:        one employee's editing session (stage, autofill, save, reset)
  - MonthLock:      open/finalized state machine per (employee, month)

INVARIANTS:
  1. At most one persisted TimeEntry per (EmployeeID, date).
  2. At most one staged entry per date; it shadows the persisted one wholesale.
  3. While a month is finalized, nothing can be staged, autofilled or reset in it.
  4. Overtime is derived from duration and type only; a manual value survives
     until one of those two fields changes.

SEE ALSO:
  - overtime.go: DeriveOvertime and the schedule lookup
  - session.go:  staging, autofill and the merged month view
  - commit.go:   Save and ResetMonth batch application
  - lock.go:     MonthLock
*/
package timesheet

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/timesheet-engine/generic"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type EntryID string

// =============================================================================
// ENTRY TYPE
// =============================================================================

// EntryType classifies what happened on a day.
type EntryType string

const (
	TypeWork           EntryType = "WORK"
	TypeBadWeather     EntryType = "BAD_WEATHER"
	TypeWorkBadWeather EntryType = "WORK_BAD_WEATHER"
	TypeVacation       EntryType = "VACATION"
	TypeSick           EntryType = "SICK"
	TypeHoliday        EntryType = "HOLIDAY"
	TypeOff            EntryType = "OFF"
)

// EntryTypes lists every valid type in display order.
var EntryTypes = []EntryType{
	TypeWork, TypeBadWeather, TypeWorkBadWeather,
	TypeVacation, TypeSick, TypeHoliday, TypeOff,
}

func (t EntryType) Valid() bool {
	for _, v := range EntryTypes {
		if t == v {
			return true
		}
	}
	return false
}

// CountsAsWork reports whether worked time of this type is measured against
// the contract. Only these types ever carry overtime.
func (t EntryType) CountsAsWork() bool {
	switch t {
	case TypeWork, TypeBadWeather, TypeWorkBadWeather:
		return true
	}
	return false
}

// ParseEntryType accepts any casing and surrounding whitespace.
func ParseEntryType(s string) (EntryType, error) {
	t := EntryType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown entry type %q", s)
	}
	return t, nil
}

// =============================================================================
// TIME ENTRY
// =============================================================================

// TimeEntry is one calendar day's record for one employee.
type TimeEntry struct {
	ID         EntryID
	EmployeeID EmployeeID
	Date       generic.TimePoint
	Type       EntryType

	// Duration is the worked time in minutes and the source of truth for
	// hours worked. Nil only on records written before it existed.
	Duration           *int
	BadWeatherDuration int
	Overtime           decimal.Decimal
	Location           string

	// Legacy wall-clock fields, HH:MM. Not authoritative once Duration is set.
	StartTime    string
	EndTime      string
	BreakMinutes int

	CreatedAt time.Time
}

// Clone returns a deep copy; the Duration pointer is not shared.
func (e TimeEntry) Clone() TimeEntry {
	c := e
	if e.Duration != nil {
		d := *e.Duration
		c.Duration = &d
	}
	return c
}

func (e TimeEntry) HasDuration() bool { return e.Duration != nil }

// EffectiveMinutes is the worked time used for accounting. Entries without a
// numeric duration fall back to the legacy start/end span for WORK entries.
func (e TimeEntry) EffectiveMinutes() int {
	if e.Duration != nil {
		return *e.Duration
	}
	if e.Type == TypeWork {
		if d, ok := LegacyDuration(e.StartTime, e.EndTime); ok {
			return d
		}
	}
	return 0
}

// Month returns the calendar month the entry belongs to.
func (e TimeEntry) Month() generic.Month { return e.Date.CalendarMonth() }

// Minutes is a convenience for building a Duration pointer.
func Minutes(n int) *int { return &n }

// =============================================================================
// WEEKLY SCHEDULE
// =============================================================================

// ScheduleSlot is the contract for one weekday.
type ScheduleSlot struct {
	Enabled bool
	Hours   decimal.Decimal
}

// WeeklySchedule maps weekdays to contractual hours for one employee.
// A weekday missing from Days has no slot at all.
type WeeklySchedule struct {
	EmployeeID EmployeeID
	Days       map[time.Weekday]ScheduleSlot
}

// NewWeekdaySchedule enables Monday through Friday at the given hours and
// disables the weekend.
func NewWeekdaySchedule(employee EmployeeID, hours decimal.Decimal) *WeeklySchedule {
	s := &WeeklySchedule{EmployeeID: employee, Days: make(map[time.Weekday]ScheduleSlot, 7)}
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		enabled := wd != time.Saturday && wd != time.Sunday
		slot := ScheduleSlot{Enabled: enabled}
		if enabled {
			slot.Hours = hours
		}
		s.Days[wd] = slot
	}
	return s
}

// =============================================================================
// TIMESHEET (month lock record)
// =============================================================================

// Status is the lock state of one employee-month.
type Status string

const (
	StatusOpen      Status = "open"
	StatusFinalized Status = "finalized"
)

func (s Status) Valid() bool { return s == StatusOpen || s == StatusFinalized }

// Timesheet is the status record for one (employee, month). A missing record
// means the month is open.
type Timesheet struct {
	EmployeeID EmployeeID
	Month      generic.Month
	Status     Status
	UpdatedAt  time.Time
}
