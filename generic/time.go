/*
Package generic provides the calendar primitives shared by the timesheet engine.

PURPOSE:
  Every record in the engine is keyed by a calendar day, and every lock and
  bulk operation is scoped to a calendar month. This package keeps those two
  notions in one place so the domain package never juggles raw time.Time
  values with stray hours, minutes or locations attached.

KEY CONCEPTS:
  - TimePoint: a calendar day (UTC midnight, day granularity)
  - Period:    an inclusive [Start, End] range of days
  - Month:     a calendar month (YYYY-MM), the unit of locking

SEE ALSO:
  - period.go: Period and Month
  - timesheet/types.go: TimeEntry uses TimePoint as its date
*/
package generic

import (
	"fmt"
	"time"
)

// DateLayout is the ISO calendar date layout used for keys and storage.
const DateLayout = "2006-01-02"

// =============================================================================
// TIME POINT - A calendar day
// =============================================================================

// TimePoint is a single calendar day. The wall-clock part is always midnight UTC.
type TimePoint struct {
	Time time.Time
}

// NewTimePoint returns the TimePoint for the given calendar day.
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// FromTime truncates t to its calendar day, keeping t's own year/month/day.
func FromTime(t time.Time) TimePoint {
	return NewTimePoint(t.Year(), t.Month(), t.Day())
}

// ParseDate parses an ISO date (YYYY-MM-DD).
func ParseDate(s string) (TimePoint, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return TimePoint{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return FromTime(t), nil
}

// MustParseDate is ParseDate for literals in tests and seed data.
func MustParseDate(s string) TimePoint {
	tp, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return tp
}

func Today() TimePoint { return FromTime(time.Now()) }

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.Time.Before(other.Time) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.Time.Equal(other.Time) }
func (tp TimePoint) After(other TimePoint) bool         { return tp.Time.After(other.Time) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return !tp.After(other) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return !tp.Before(other) }

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint   { return FromTime(tp.Time.AddDate(0, 0, n)) }
func (tp TimePoint) AddMonths(n int) TimePoint { return FromTime(tp.Time.AddDate(0, n, 0)) }

// Properties
func (tp TimePoint) Year() int             { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month     { return tp.Time.Month() }
func (tp TimePoint) Day() int              { return tp.Time.Day() }
func (tp TimePoint) Weekday() time.Weekday { return tp.Time.Weekday() }
func (tp TimePoint) IsZero() bool          { return tp.Time.IsZero() }

func (tp TimePoint) IsWeekend() bool {
	wd := tp.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// CalendarMonth returns the month this day belongs to.
func (tp TimePoint) CalendarMonth() Month { return Month{Year: tp.Year(), Month: tp.Month()} }

// Key is the ISO date string. Use it for map keys instead of the struct itself.
func (tp TimePoint) Key() string { return tp.Time.Format(DateLayout) }

func (tp TimePoint) String() string { return tp.Key() }

// =============================================================================
// TIME UTILITIES
// =============================================================================

func DaysBetween(from, to TimePoint) int { return int(to.Time.Sub(from.Time).Hours() / 24) }

func StartOfMonth(year int, month time.Month) TimePoint { return NewTimePoint(year, month, 1) }

func EndOfMonth(year int, month time.Month) TimePoint {
	return FromTime(time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1))
}
