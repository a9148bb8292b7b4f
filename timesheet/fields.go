package timesheet

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Field names one editable attribute of a TimeEntry.
type Field string

const (
	FieldType               Field = "type"
	FieldDuration           Field = "duration"
	FieldBadWeatherDuration Field = "badWeatherDuration"
	FieldOvertime           Field = "overtime"
	FieldLocation           Field = "location"
	FieldStartTime          Field = "startTime"
	FieldEndTime            Field = "endTime"
	FieldBreakMinutes       Field = "breakMinutes"
)

var fields = []Field{
	FieldType, FieldDuration, FieldBadWeatherDuration, FieldOvertime,
	FieldLocation, FieldStartTime, FieldEndTime, FieldBreakMinutes,
}

// MaxLocationLength bounds the free-text location, in characters.
const MaxLocationLength = 200

func ParseField(s string) (Field, error) {
	for _, f := range fields {
		if strings.EqualFold(string(f), strings.TrimSpace(s)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown field %q", s)
}

// rederives reports whether changing this field recomputes overtime.
func (f Field) rederives() bool {
	return f == FieldDuration || f == FieldType
}

// applyField normalizes raw and writes it into e. On error e is unchanged.
func applyField(e *TimeEntry, f Field, raw string) error {
	value := strings.TrimSpace(raw)
	invalid := func(reason string) error {
		return &ValidationError{Field: f, Value: raw, Reason: reason}
	}

	switch f {
	case FieldType:
		t, err := ParseEntryType(value)
		if err != nil {
			return invalid("must be one of WORK, BAD_WEATHER, WORK_BAD_WEATHER, VACATION, SICK, HOLIDAY, OFF")
		}
		e.Type = t

	case FieldDuration:
		m, err := parseMinutes(value)
		if err != nil {
			return invalid(err.Error())
		}
		e.Duration = &m

	case FieldBadWeatherDuration:
		m, err := parseMinutes(value)
		if err != nil {
			return invalid(err.Error())
		}
		e.BadWeatherDuration = m

	case FieldBreakMinutes:
		m, err := parseMinutes(value)
		if err != nil {
			return invalid(err.Error())
		}
		e.BreakMinutes = m

	case FieldOvertime:
		if value == "" {
			e.Overtime = decimal.Zero
			return nil
		}
		d, err := decimal.NewFromString(strings.Replace(value, ",", ".", 1))
		if err != nil {
			return invalid("not a number")
		}
		if d.Abs().GreaterThan(decimal.NewFromInt(24)) {
			return invalid("must be within ±24 hours")
		}
		e.Overtime = d

	case FieldLocation:
		if utf8.RuneCountInString(value) > MaxLocationLength {
			return invalid(fmt.Sprintf("longer than %d characters", MaxLocationLength))
		}
		e.Location = value

	case FieldStartTime, FieldEndTime:
		clock := ""
		if value != "" {
			m, err := ParseClock(value)
			if err != nil {
				return invalid(err.Error())
			}
			clock = FormatClock(m)
		}
		if f == FieldStartTime {
			e.StartTime = clock
		} else {
			e.EndTime = clock
		}

	default:
		return invalid("not an editable field")
	}
	return nil
}

// parseMinutes accepts whole minutes ("450") or hours and minutes ("7:30").
// Empty input normalizes to zero.
func parseMinutes(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	var m int
	if h, mm, ok := strings.Cut(s, ":"); ok {
		hours, err := strconv.Atoi(h)
		if err != nil || hours < 0 {
			return 0, fmt.Errorf("not a duration")
		}
		minutes, err := strconv.Atoi(mm)
		if err != nil || minutes < 0 || minutes > 59 {
			return 0, fmt.Errorf("not a duration")
		}
		m = hours*60 + minutes
	} else {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("not a whole number of minutes")
		}
		m = n
	}
	if m < 0 {
		return 0, fmt.Errorf("must not be negative")
	}
	if m > minutesPerDay {
		return 0, fmt.Errorf("more than 24 hours")
	}
	return m, nil
}
