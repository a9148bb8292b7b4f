package sqlite

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

func TestCorruptTimestampsAreReported(t *testing.T) {
	ctx := context.Background()
	store, err := New(":memory:")
	require.NoError(t, err)
	defer store.Close()

	march := generic.MustParseMonth("2025-03")
	require.NoError(t, store.Add(ctx, timesheet.TimeEntry{
		ID:         "e-1",
		EmployeeID: "emp-1",
		Date:       generic.MustParseDate("2025-03-10"),
		Type:       timesheet.TypeWork,
		Duration:   timesheet.Minutes(480),
		Overtime:   decimal.Zero,
		CreatedAt:  time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, store.SetStatus(ctx, "emp-1", march, timesheet.StatusFinalized))

	// GIVEN: rows whose timestamps were damaged outside the store
	_, err = store.db.Exec(`UPDATE time_entries SET created_at = 'last tuesday' WHERE id = 'e-1'`)
	require.NoError(t, err)
	_, err = store.db.Exec(`UPDATE timesheets SET updated_at = '' WHERE employee_id = 'emp-1'`)
	require.NoError(t, err)

	// WHEN / THEN: reads fail instead of returning zero times
	_, err = store.List(ctx, "emp-1", march)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "created_at")

	_, err = store.Timesheets(ctx, "emp-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "updated_at")
}
