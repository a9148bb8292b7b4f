package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/timesheet"
)

func entry(id, day string) timesheet.TimeEntry {
	return timesheet.TimeEntry{
		ID:         timesheet.EntryID(id),
		EmployeeID: "emp-1",
		Date:       generic.MustParseDate(day),
		Type:       timesheet.TypeWork,
		Duration:   timesheet.Minutes(480),
		Overtime:   decimal.Zero,
		CreatedAt:  time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestStore_OneEntryPerDay(t *testing.T) {
	ctx := context.Background()
	st := New()
	require.NoError(t, st.Add(ctx, entry("a", "2025-03-10")))

	assert.ErrorIs(t, st.Add(ctx, entry("a", "2025-03-11")), timesheet.ErrDuplicateEntry)
	assert.ErrorIs(t, st.Add(ctx, entry("b", "2025-03-10")), timesheet.ErrDuplicateEntry)

	// Moving b onto a's day is rejected too.
	require.NoError(t, st.Add(ctx, entry("b", "2025-03-11")))
	assert.ErrorIs(t, st.Update(ctx, "b", entry("b", "2025-03-10")), timesheet.ErrDuplicateEntry)
}

func TestStore_UpdateKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	st := New()
	require.NoError(t, st.Add(ctx, entry("a", "2025-03-10")))

	// GIVEN: an update carrying a different creation time and a new day
	changed := entry("a", "2025-03-12")
	changed.CreatedAt = time.Now()
	changed.Location = "Site B"

	// WHEN
	require.NoError(t, st.Update(ctx, "a", changed))

	// THEN
	march, err := st.List(ctx, "emp-1", generic.MustParseMonth("2025-03"))
	require.NoError(t, err)
	require.Len(t, march, 1)
	assert.Equal(t, "2025-03-12", march[0].Date.Key())
	assert.Equal(t, "Site B", march[0].Location)
	assert.Equal(t, 2025, march[0].CreatedAt.Year())

	// The old day is free again.
	require.NoError(t, st.Add(ctx, entry("c", "2025-03-10")))
	assert.ErrorIs(t, st.Update(ctx, "missing", entry("missing", "2025-03-20")), timesheet.ErrEntryNotFound)
}

func TestStore_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	st := New()
	for _, e := range []timesheet.TimeEntry{entry("c", "2025-03-20"), entry("a", "2025-03-03"), entry("x", "2025-04-01")} {
		require.NoError(t, st.Add(ctx, e))
	}

	march, err := st.List(ctx, "emp-1", generic.MustParseMonth("2025-03"))
	require.NoError(t, err)
	require.Len(t, march, 2)
	assert.Equal(t, timesheet.EntryID("a"), march[0].ID)

	other, err := st.List(ctx, "emp-2", generic.MustParseMonth("2025-03"))
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, st.Delete(ctx, "a"))
	assert.ErrorIs(t, st.Delete(ctx, "a"), timesheet.ErrEntryNotFound)
	assert.Equal(t, 2, st.Len())
}

func TestStore_StatusAndSchedule(t *testing.T) {
	ctx := context.Background()
	st := New()
	march := generic.MustParseMonth("2025-03")

	status, err := st.Status(ctx, "emp-1", march)
	require.NoError(t, err)
	assert.Equal(t, timesheet.StatusOpen, status)

	require.NoError(t, st.SetStatus(ctx, "emp-1", march, timesheet.StatusFinalized))
	status, _ = st.Status(ctx, "emp-1", march)
	assert.Equal(t, timesheet.StatusFinalized, status)
	assert.Error(t, st.SetStatus(ctx, "emp-1", march, "archived"))

	schedule, err := st.WeeklySchedule(ctx, "emp-1")
	require.NoError(t, err)
	assert.Nil(t, schedule)

	// Stored schedules are copies.
	in := timesheet.NewWeekdaySchedule("emp-1", decimal.NewFromInt(8))
	require.NoError(t, st.SaveWeeklySchedule(ctx, *in))
	delete(in.Days, time.Monday)
	schedule, err = st.WeeklySchedule(ctx, "emp-1")
	require.NoError(t, err)
	assert.Contains(t, schedule.Days, time.Monday)
}
