package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// PERIOD - An inclusive range of days
// =============================================================================

// Period is an inclusive [Start, End] range of calendar days.
type Period struct {
	Start TimePoint
	End   TimePoint
}

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// Days returns all days in the period as a slice of TimePoints.
func (p Period) Days() []TimePoint {
	var days []TimePoint
	current := p.Start
	for current.BeforeOrEqual(p.End) {
		days = append(days, current)
		current = current.AddDays(1)
	}
	return days
}

// Len is the number of days in the period.
func (p Period) Len() int {
	if p.End.Before(p.Start) {
		return 0
	}
	return DaysBetween(p.Start, p.End) + 1
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// MONTH - The unit of locking and bulk operations
// =============================================================================

// MonthLayout is the YYYY-MM layout used for month keys and storage.
const MonthLayout = "2006-01"

// Month is a calendar month. The zero value is invalid.
type Month struct {
	Year  int
	Month time.Month
}

func NewMonth(year int, month time.Month) Month { return Month{Year: year, Month: month} }

// ParseMonth parses a YYYY-MM string.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(MonthLayout, s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q (use YYYY-MM): %w", s, err)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// MustParseMonth is ParseMonth for literals in tests and seed data.
func MustParseMonth(s string) Month {
	m, err := ParseMonth(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Month) IsZero() bool { return m.Year == 0 && m.Month == 0 }

func (m Month) First() TimePoint { return StartOfMonth(m.Year, m.Month) }
func (m Month) Last() TimePoint  { return EndOfMonth(m.Year, m.Month) }

// Period returns the first..last day range of the month.
func (m Month) Period() Period { return Period{Start: m.First(), End: m.Last()} }

// Days returns every calendar day of the month.
func (m Month) Days() []TimePoint { return m.Period().Days() }

// Contains reports whether the day falls in this month.
func (m Month) Contains(tp TimePoint) bool {
	return tp.Year() == m.Year && tp.Month() == m.Month
}

func (m Month) Next() Month     { return m.First().AddMonths(1).CalendarMonth() }
func (m Month) Previous() Month { return m.First().AddMonths(-1).CalendarMonth() }

// Prefix is the YYYY-MM string. ISO dates of this month all start with it.
func (m Month) Prefix() string { return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month)) }

func (m Month) String() string { return m.Prefix() }
