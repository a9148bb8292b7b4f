package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timesheet-engine/timesheet"
)

// run executes the command tree against db and returns stdout.
func run(t *testing.T, db string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--db", db}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const fourDayWeek = `
employee: emp-1
days:
  monday:    {enabled: true, hours: 10}
  tuesday:   {enabled: true, hours: 10}
  wednesday: {enabled: true, hours: 10}
  thursday:  {enabled: true, hours: 10}
  friday:    {enabled: false}
`

func TestMonthWorkflow(t *testing.T) {
	db := filepath.Join(t.TempDir(), "timesheet.db")
	schedule := writeFile(t, "week.yaml", fourDayWeek)

	// GIVEN: a Mon-Thu 10h schedule
	out, err := run(t, db, "schedule", "set", "--file", schedule)
	require.NoError(t, err)
	assert.Contains(t, out, "Schedule saved for emp-1 (5 days)")

	out, err = run(t, db, "schedule", "show", "-e", "emp-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Monday")
	assert.Contains(t, out, "Sunday")

	// WHEN: January 2025 is autofilled (Mon-Thu: 18 days)
	out, err = run(t, db, "month", "autofill", "2025-01", "-e", "emp-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Filled 18 days of 2025-01 (18 saved)")

	// AND: a Friday is worked
	out, err = run(t, db, "day", "set", "2025-01-10", "duration=4:00", "location=Depot", "-e", "emp-1")
	require.NoError(t, err)
	assert.Contains(t, out, "2025-01-10 WORK 4h00 overtime 4h")

	// THEN: the month shows both
	out, err = run(t, db, "month", "show", "2025-01", "-e", "emp-1")
	require.NoError(t, err)
	assert.Contains(t, out, "emp-1  2025-01  [open]")
	assert.Contains(t, out, "Depot")
	assert.Contains(t, out, "overtime 4h")
	assert.Contains(t, out, "of 180h target")

	// Finalize blocks edits until reopened.
	_, err = run(t, db, "month", "finalize", "2025-01", "-e", "emp-1")
	require.NoError(t, err)
	_, err = run(t, db, "day", "set", "2025-01-13", "duration=600", "-e", "emp-1")
	assert.ErrorIs(t, err, timesheet.ErrMonthLocked)

	out, err = run(t, db, "month", "list", "-e", "emp-1")
	require.NoError(t, err)
	assert.Contains(t, out, "2025-01")
	assert.Contains(t, out, "finalized")

	_, err = run(t, db, "month", "reopen", "2025-01", "-e", "emp-1")
	require.NoError(t, err)

	out, err = run(t, db, "month", "reset", "2025-01", "-e", "emp-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 19 entries of 2025-01")
}

func TestCommandErrors(t *testing.T) {
	db := filepath.Join(t.TempDir(), "timesheet.db")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing employee", []string{"month", "show", "2025-01"}, "--employee is required"},
		{"bad month", []string{"month", "show", "January", "-e", "emp-1"}, "January"},
		{"bad assignment", []string{"day", "set", "2025-01-06", "duration", "-e", "emp-1"}, "expected field=value"},
		{"unknown field", []string{"day", "set", "2025-01-06", "mood=good", "-e", "emp-1"}, "unknown field"},
		{"invalid value", []string{"day", "set", "2025-01-06", "startTime=25:00", "-e", "emp-1"}, "startTime"},
		{"no schedule", []string{"schedule", "show", "-e", "nobody"}, "no schedule for nobody"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, db, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScheduleFile(t *testing.T) {
	// GIVEN: a file for emp-1 loaded for emp-9
	schedule, err := loadScheduleFile(strings.NewReader(fourDayWeek), "emp-9")

	// THEN
	require.NoError(t, err)
	assert.Equal(t, timesheet.EmployeeID("emp-9"), schedule.EmployeeID)
	assert.Len(t, schedule.Days, 5)
	assert.Equal(t, "10", schedule.Days[time.Monday].Hours.String())
	assert.False(t, schedule.Days[time.Friday].Enabled)

	bad := []string{
		"days:\n  funday: {enabled: true, hours: 8}\n",
		"employee: emp-1\ndays:\n  monday: {enabled: true, hours: 30}\n",
		"employee: emp-1\ndays:\n  monday: {enabled: true}\n",
		"employee: emp-1\ndays:\n  monday: {enabled: true, hours: 8}\n  Mon: {enabled: true, hours: 8}\n",
		"days: [",
	}
	for _, in := range bad {
		_, err := loadScheduleFile(strings.NewReader(in), "")
		assert.Error(t, err, in)
	}
}
