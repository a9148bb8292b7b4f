/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the timesheet domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request types carry go-playground/validator tags; handlers call
  validate.Struct before touching the engine. Field-level value checks
  (durations, clock times, overtime) stay in the engine so the CLI gets the
  same rules.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"sort"
	"strings"
	"time"

	"github.com/warp/timesheet-engine/timesheet"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// StageUpdateRequest sets one field of a day's entry in the edit buffer.
type StageUpdateRequest struct {
	Field string `json:"field" validate:"required,max=32"`
	Value string `json:"value" validate:"max=256"`
}

// ScheduleRequest replaces an employee's weekly schedule.
type ScheduleRequest struct {
	Days []ScheduleSlotDTO `json:"days" validate:"required,min=1,max=7,unique=Weekday,dive"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// TimeEntryDTO represents one day's entry.
type TimeEntryDTO struct {
	ID                 string `json:"id"`
	EmployeeID         string `json:"employeeId"`
	Date               string `json:"date"`
	Type               string `json:"type"`
	Duration           *int   `json:"duration"`
	BadWeatherDuration int    `json:"badWeatherDuration"`
	Overtime           string `json:"overtime"`
	Location           string `json:"location"`
	StartTime          string `json:"startTime,omitempty"`
	EndTime            string `json:"endTime,omitempty"`
	BreakMinutes       int    `json:"breakMinutes"`
	CreatedAt          string `json:"createdAt,omitempty"`
}

// DayDTO is one row of the month view.
type DayDTO struct {
	Date        string        `json:"date"`
	Weekday     string        `json:"weekday"`
	Target      string        `json:"target"`
	TargetHours string        `json:"targetHours,omitempty"`
	Pending     bool          `json:"pending"`
	Entry       *TimeEntryDTO `json:"entry"`
}

// SummaryDTO totals the month view.
type SummaryDTO struct {
	WorkedMinutes     int            `json:"workedMinutes"`
	BadWeatherMinutes int            `json:"badWeatherMinutes"`
	Overtime          string         `json:"overtime"`
	TargetHours       string         `json:"targetHours"`
	DaysByType        map[string]int `json:"daysByType"`
	Pending           int            `json:"pending"`
}

// MonthDTO is the merged (persisted ∪ staged) month.
type MonthDTO struct {
	EmployeeID string     `json:"employeeId"`
	Month      string     `json:"month"`
	Status     string     `json:"status"`
	Days       []DayDTO   `json:"days"`
	Summary    SummaryDTO `json:"summary"`
}

// StatusDTO reports a month's lock state.
type StatusDTO struct {
	EmployeeID string `json:"employeeId"`
	Month      string `json:"month"`
	Status     string `json:"status"`
}

// CountDTO reports how many entries an operation touched.
type CountDTO struct {
	Count int `json:"count"`
}

// BatchResultDTO reports the outcome of a save or reset.
type BatchResultDTO struct {
	Added    int            `json:"added,omitempty"`
	Updated  int            `json:"updated,omitempty"`
	Deleted  int            `json:"deleted,omitempty"`
	Cleared  int            `json:"cleared,omitempty"`
	Failed   int            `json:"failed"`
	Failures []OpFailureDTO `json:"failures,omitempty"`
	Pending  []TimeEntryDTO `json:"pending,omitempty"`
}

// OpFailureDTO is one failed store call of a batch.
type OpFailureDTO struct {
	Op      string `json:"op"`
	EntryID string `json:"entryId"`
	Date    string `json:"date"`
	Error   string `json:"error"`
}

// ScheduleSlotDTO is one weekday of a weekly schedule.
type ScheduleSlotDTO struct {
	Weekday string  `json:"weekday" validate:"required,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	Enabled bool    `json:"enabled"`
	Hours   float64 `json:"hours" validate:"gte=0,lte=24"`
}

// ScheduleDTO is an employee's weekly schedule.
type ScheduleDTO struct {
	EmployeeID string            `json:"employeeId"`
	Days       []ScheduleSlotDTO `json:"days"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toEntryDTO(e timesheet.TimeEntry) TimeEntryDTO {
	dto := TimeEntryDTO{
		ID:                 string(e.ID),
		EmployeeID:         string(e.EmployeeID),
		Date:               e.Date.Key(),
		Type:               string(e.Type),
		Duration:           e.Duration,
		BadWeatherDuration: e.BadWeatherDuration,
		Overtime:           e.Overtime.String(),
		Location:           e.Location,
		StartTime:          e.StartTime,
		EndTime:            e.EndTime,
		BreakMinutes:       e.BreakMinutes,
	}
	if !e.CreatedAt.IsZero() {
		dto.CreatedAt = e.CreatedAt.UTC().Format(time.RFC3339)
	}
	return dto
}

func toEntryDTOs(entries []timesheet.TimeEntry) []TimeEntryDTO {
	dtos := make([]TimeEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toEntryDTO(e)
	}
	return dtos
}

func toMonthDTO(v timesheet.MonthView) MonthDTO {
	dto := MonthDTO{
		EmployeeID: string(v.EmployeeID),
		Month:      v.Month.String(),
		Status:     string(v.Status),
		Days:       make([]DayDTO, len(v.Days)),
		Summary: SummaryDTO{
			WorkedMinutes:     v.Summary.WorkedMinutes,
			BadWeatherMinutes: v.Summary.BadWeatherMinutes,
			Overtime:          v.Summary.Overtime.String(),
			TargetHours:       v.Summary.TargetHours.String(),
			DaysByType:        make(map[string]int, len(v.Summary.DaysByType)),
			Pending:           v.Summary.Pending,
		},
	}
	for t, n := range v.Summary.DaysByType {
		dto.Summary.DaysByType[string(t)] = n
	}
	for i, d := range v.Days {
		day := DayDTO{
			Date:    d.Date.Key(),
			Weekday: d.Date.Weekday().String(),
			Target:  d.Target.Kind.String(),
			Pending: d.Pending,
		}
		if h, ok := d.Target.Contractual(); ok {
			day.TargetHours = h.String()
		}
		if d.Entry != nil {
			e := toEntryDTO(*d.Entry)
			day.Entry = &e
		}
		dto.Days[i] = day
	}
	return dto
}

func toScheduleDTO(s timesheet.WeeklySchedule) ScheduleDTO {
	dto := ScheduleDTO{EmployeeID: string(s.EmployeeID), Days: []ScheduleSlotDTO{}}
	for wd, slot := range s.Days {
		dto.Days = append(dto.Days, ScheduleSlotDTO{
			Weekday: lowerWeekday(wd),
			Enabled: slot.Enabled,
			Hours:   slot.Hours.InexactFloat64(),
		})
	}
	// Monday first.
	sort.Slice(dto.Days, func(i, j int) bool {
		a, _ := timesheet.ParseWeekday(dto.Days[i].Weekday)
		b, _ := timesheet.ParseWeekday(dto.Days[j].Weekday)
		return (a+6)%7 < (b+6)%7
	})
	return dto
}

func lowerWeekday(wd time.Weekday) string { return strings.ToLower(wd.String()) }
