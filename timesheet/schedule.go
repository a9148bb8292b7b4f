package timesheet

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var maxDayHours = decimal.NewFromInt(24)

// ParseWeekday accepts English weekday names or their three-letter prefix,
// in any case.
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		full := strings.ToLower(wd.String())
		if name == full || (len(name) == 3 && strings.HasPrefix(full, name)) {
			return wd, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// Validate checks the schedule before it is stored.
func (s WeeklySchedule) Validate() error {
	if s.EmployeeID == "" {
		return &ValidationError{Field: "employeeId", Reason: "employee id is required"}
	}
	for wd, slot := range s.Days {
		if wd < time.Sunday || wd > time.Saturday {
			return &ValidationError{Field: "weekday", Value: fmt.Sprint(int(wd)), Reason: "not a weekday"}
		}
		if slot.Hours.IsNegative() || slot.Hours.GreaterThan(maxDayHours) {
			return &ValidationError{Field: "hours", Value: slot.Hours.String(), Reason: wd.String() + " must be within 0 and 24 hours"}
		}
		if slot.Enabled && !slot.Hours.IsPositive() {
			return &ValidationError{Field: "hours", Value: slot.Hours.String(), Reason: wd.String() + " is enabled without hours"}
		}
	}
	return nil
}
