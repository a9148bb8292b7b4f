package timesheet

import (
	"github.com/shopspring/decimal"
	"github.com/warp/timesheet-engine/generic"
)

var minutesPerHour = decimal.NewFromInt(60)

// =============================================================================
// DAY TARGET - Tagged result of a schedule lookup
// =============================================================================

// TargetKind classifies a day against the weekly schedule.
type TargetKind int

const (
	TargetUnspecified TargetKind = iota // no schedule, or no slot for the weekday
	TargetDisabled                      // slot present but not enabled
	TargetEnabled                       // contractual hours apply
)

func (k TargetKind) String() string {
	switch k {
	case TargetEnabled:
		return "enabled"
	case TargetDisabled:
		return "disabled"
	default:
		return "unspecified"
	}
}

// DayTarget is the contract for one calendar day.
type DayTarget struct {
	Kind  TargetKind
	Hours decimal.Decimal // meaningful only when Kind == TargetEnabled
}

// Contractual returns the target hours and true only for enabled days.
// Disabled and unspecified days both report no contract.
func (t DayTarget) Contractual() (decimal.Decimal, bool) {
	if t.Kind != TargetEnabled {
		return decimal.Zero, false
	}
	return t.Hours, true
}

// Target looks up the contract for a day. Safe on a nil schedule.
func (s *WeeklySchedule) Target(day generic.TimePoint) DayTarget {
	if s == nil || s.Days == nil {
		return DayTarget{Kind: TargetUnspecified}
	}
	slot, ok := s.Days[day.Weekday()]
	if !ok {
		return DayTarget{Kind: TargetUnspecified}
	}
	if !slot.Enabled {
		return DayTarget{Kind: TargetDisabled}
	}
	return DayTarget{Kind: TargetEnabled, Hours: slot.Hours}
}

// =============================================================================
// OVERTIME DERIVER
// =============================================================================

// DeriveOvertime computes an entry's overtime in hours.
//
// Non-work types carry no overtime. Work on a day with contractual hours is
// measured against them and may go negative. Work on a day without a
// contract (disabled slot, missing slot, or no schedule at all) counts in
// full as overtime.
//
// TODO: confirm with product whether a missing slot should really behave
// like a disabled one before changing DayTarget handling here.
func DeriveOvertime(entry TimeEntry, schedule *WeeklySchedule) decimal.Decimal {
	if !entry.Type.CountsAsWork() {
		return decimal.Zero
	}
	actual := decimal.NewFromInt(int64(entry.EffectiveMinutes())).Div(minutesPerHour)
	if hours, ok := schedule.Target(entry.Date).Contractual(); ok {
		return actual.Sub(hours)
	}
	return actual
}

// MinutesForHours converts contractual hours to whole minutes.
func MinutesForHours(hours decimal.Decimal) int {
	return int(hours.Mul(minutesPerHour).Round(0).IntPart())
}
