package timesheet

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/warp/timesheet-engine/generic"
)

// =============================================================================
// MERGED MONTH VIEW
// =============================================================================

// DayView is one calendar day of the merged month.
type DayView struct {
	Date   generic.TimePoint
	Target DayTarget
	// Entry is the staged entry if one exists, else the persisted one, else nil.
	Entry *TimeEntry
	// Pending is true when Entry comes from the buffer.
	Pending bool
}

// Summary totals the merged entries of a month.
type Summary struct {
	WorkedMinutes     int
	BadWeatherMinutes int
	Overtime          decimal.Decimal
	TargetHours       decimal.Decimal
	DaysByType        map[EntryType]int
	Pending           int
}

// MonthView is the month as the user sees it: Store ∪ Buffer.
type MonthView struct {
	EmployeeID EmployeeID
	Month      generic.Month
	Status     Status
	Days       []DayView
	Summary    Summary
}

// Entries returns the merged entries in date order, skipping empty days.
func (v MonthView) Entries() []TimeEntry {
	var out []TimeEntry
	for _, d := range v.Days {
		if d.Entry != nil {
			out = append(out, *d.Entry)
		}
	}
	return out
}

// Month returns the merged view of a month. Reading is never lock-gated.
func (s *Session) Month(ctx context.Context, month generic.Month) (MonthView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, err := s.lock.Status(ctx, s.employee, month)
	if err != nil {
		return MonthView{}, err
	}
	schedule, err := s.schedule(ctx)
	if err != nil {
		return MonthView{}, err
	}
	persisted, err := s.list(ctx, month)
	if err != nil {
		return MonthView{}, err
	}

	byDate := make(map[string]TimeEntry, len(persisted))
	for _, e := range persisted {
		byDate[e.Date.Key()] = e
	}

	view := MonthView{
		EmployeeID: s.employee,
		Month:      month,
		Status:     status,
		Summary: Summary{
			Overtime:    decimal.Zero,
			TargetHours: decimal.Zero,
			DaysByType:  make(map[EntryType]int),
		},
	}

	for _, day := range month.Days() {
		dv := DayView{Date: day, Target: schedule.Target(day)}
		if e, ok := s.buffer.Get(day); ok {
			dv.Entry, dv.Pending = &e, true
		} else if e, ok := byDate[day.Key()]; ok {
			e = e.Clone()
			dv.Entry = &e
		}
		view.Summary.add(dv)
		view.Days = append(view.Days, dv)
	}
	return view, nil
}

func (sum *Summary) add(d DayView) {
	if hours, ok := d.Target.Contractual(); ok {
		sum.TargetHours = sum.TargetHours.Add(hours)
	}
	if d.Entry == nil {
		return
	}
	e := d.Entry
	if d.Pending {
		sum.Pending++
	}
	sum.DaysByType[e.Type]++
	if e.Type.CountsAsWork() {
		sum.WorkedMinutes += e.EffectiveMinutes()
	}
	sum.BadWeatherMinutes += e.BadWeatherDuration
	sum.Overtime = sum.Overtime.Add(e.Overtime)
}
