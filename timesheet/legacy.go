package timesheet

import (
	"fmt"
	"strconv"
	"strings"
)

// Placeholder wall-clock values written on synthesized entries.
const (
	DefaultStartTime = "08:00"
	DefaultEndTime   = "16:00"
)

const minutesPerDay = 24 * 60

// ParseClock parses an HH:MM (or H:MM) wall-clock time into minutes since midnight.
func ParseClock(s string) (int, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	hours, err := strconv.Atoi(h)
	if err != nil || hours < 0 || hours > 23 || len(h) > 2 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	minutes, err := strconv.Atoi(m)
	if err != nil || minutes < 0 || minutes > 59 || len(m) != 2 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hours*60 + minutes, nil
}

// FormatClock renders minutes since midnight as HH:MM, wrapping past midnight.
func FormatClock(minutes int) string {
	minutes = ((minutes % minutesPerDay) + minutesPerDay) % minutesPerDay
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// FormatDuration renders minutes as hours and minutes, e.g. 9h30. Unlike
// FormatClock it does not wrap at midnight.
func FormatDuration(minutes int) string {
	sign := ""
	if minutes < 0 {
		sign, minutes = "-", -minutes
	}
	return fmt.Sprintf("%s%dh%02d", sign, minutes/60, minutes%60)
}

// LegacyDuration is end minus start in minutes. An end before the start is
// read as crossing midnight.
func LegacyDuration(start, end string) (int, bool) {
	s, err := ParseClock(start)
	if err != nil {
		return 0, false
	}
	e, err := ParseClock(end)
	if err != nil {
		return 0, false
	}
	d := e - s
	if d < 0 {
		d += minutesPerDay
	}
	return d, true
}

// placeholderEnd returns an end time consistent with start plus duration.
func placeholderEnd(start string, duration int) string {
	s, err := ParseClock(start)
	if err != nil {
		s, _ = ParseClock(DefaultStartTime)
	}
	return FormatClock(s + duration)
}

// materializeDuration fills a missing Duration on WORK entries from the
// legacy start/end pair and re-derives overtime from it. Entries created
// after Duration became authoritative pass through untouched.
func materializeDuration(e TimeEntry, schedule *WeeklySchedule) TimeEntry {
	if e.Duration != nil || e.Type != TypeWork {
		return e
	}
	d, ok := LegacyDuration(e.StartTime, e.EndTime)
	if !ok {
		return e
	}
	e.Duration = &d
	e.Overtime = DeriveOvertime(e, schedule)
	return e
}
