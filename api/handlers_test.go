/*
handlers_test.go - Tests for the HTTP API

Tests for:
- Staging edits and reading the merged month
- Save, including partial failure (207) with the buffer retained
- Finalize / reopen gating (409)
- Schedule round trip and request validation
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/timesheet-engine/metrics"
	"github.com/warp/timesheet-engine/store/memory"
	"github.com/warp/timesheet-engine/timesheet"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// failingBackend rejects writes for the listed dates.
type failingBackend struct {
	*memory.Store
	failDates map[string]bool
}

func (b *failingBackend) Add(ctx context.Context, e timesheet.TimeEntry) error {
	if b.failDates[e.Date.Key()] {
		return errors.New("disk full")
	}
	return b.Store.Add(ctx, e)
}

type testServer struct {
	t       *testing.T
	backend *failingBackend
	srv     *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	st := memory.New()
	require.NoError(t, st.SaveWeeklySchedule(context.Background(),
		*timesheet.NewWeekdaySchedule("emp-1", decimal.NewFromInt(8))))

	backend := &failingBackend{Store: st, failDates: map[string]bool{}}
	rec := metrics.New()
	opts := timesheet.Options{Observer: rec, Logger: slog.New(slog.DiscardHandler)}
	srv := httptest.NewServer(NewRouter(NewHandler(backend, opts), rec, []string{"*"}))
	t.Cleanup(srv.Close)
	return &testServer{t: t, backend: backend, srv: srv}
}

func (ts *testServer) do(method, path string, body any) (int, []byte) {
	ts.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(ts.t, err)
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, r)
	require.NoError(ts.t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(ts.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(ts.t, err)
	return resp.StatusCode, data
}

func (ts *testServer) stage(date, field, value string) int {
	ts.t.Helper()
	status, _ := ts.do(http.MethodPut, "/api/employees/emp-1/days/"+date,
		StageUpdateRequest{Field: field, Value: value})
	return status
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

// =============================================================================
// STAGING AND MONTH VIEW
// =============================================================================

func TestStageUpdate_DerivesOvertime(t *testing.T) {
	ts := newTestServer(t)

	// WHEN: 10 hours on a contractual 8h Monday
	status, body := ts.do(http.MethodPut, "/api/employees/emp-1/days/2025-03-10",
		StageUpdateRequest{Field: "duration", Value: "600"})

	// THEN
	require.Equal(t, http.StatusOK, status, string(body))
	entry := decode[TimeEntryDTO](t, body)
	assert.Equal(t, "2", entry.Overtime)
	assert.Equal(t, "WORK", entry.Type)
	require.NotNil(t, entry.Duration)
	assert.Equal(t, 600, *entry.Duration)
}

func TestStageUpdate_RejectsBadInput(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name, path string
		body       any
	}{
		{"bad date", "/api/employees/emp-1/days/2025-13-01", StageUpdateRequest{Field: "duration", Value: "60"}},
		{"unknown field", "/api/employees/emp-1/days/2025-03-10", StageUpdateRequest{Field: "mood", Value: "good"}},
		{"missing field", "/api/employees/emp-1/days/2025-03-10", StageUpdateRequest{Value: "60"}},
		{"invalid value", "/api/employees/emp-1/days/2025-03-10", StageUpdateRequest{Field: "startTime", Value: "25:00"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := ts.do(http.MethodPut, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, status, string(body))
		})
	}

	// Nothing was staged by the rejected requests.
	_, body := ts.do(http.MethodGet, "/api/employees/emp-1/pending", nil)
	assert.Empty(t, decode[[]TimeEntryDTO](t, body))
}

func TestGetMonth_MergesBufferAndStore(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusOK, ts.stage("2025-02-03", "duration", "540"))

	// WHEN
	status, body := ts.do(http.MethodGet, "/api/employees/emp-1/months/2025-02", nil)

	// THEN
	require.Equal(t, http.StatusOK, status, string(body))
	month := decode[MonthDTO](t, body)
	assert.Equal(t, "open", month.Status)
	assert.Len(t, month.Days, 28)
	assert.Equal(t, "160", month.Summary.TargetHours)
	assert.Equal(t, 1, month.Summary.Pending)

	monday := month.Days[2]
	assert.Equal(t, "2025-02-03", monday.Date)
	assert.True(t, monday.Pending)
	require.NotNil(t, monday.Entry)
	assert.Equal(t, "1", monday.Entry.Overtime)
	assert.Equal(t, "8", monday.TargetHours)

	status, _ = ts.do(http.MethodGet, "/api/employees/emp-1/months/Feb", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestDiscard(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusOK, ts.stage("2025-03-10", "location", "Site A"))
	require.Equal(t, http.StatusOK, ts.stage("2025-03-11", "location", "Site B"))

	status, _ := ts.do(http.MethodDelete, "/api/employees/emp-1/days/2025-03-10", nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = ts.do(http.MethodDelete, "/api/employees/emp-1/days/2025-03-10", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body := ts.do(http.MethodDelete, "/api/employees/emp-1/pending", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, decode[CountDTO](t, body).Count)
}

// =============================================================================
// SAVE AND RESET
// =============================================================================

func TestAutoFillAndSave(t *testing.T) {
	ts := newTestServer(t)

	// GIVEN: January 2025 autofilled
	status, body := ts.do(http.MethodPost, "/api/employees/emp-1/months/2025-01/autofill", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, 23, decode[CountDTO](t, body).Count)

	// WHEN
	status, body = ts.do(http.MethodPost, "/api/employees/emp-1/save", nil)

	// THEN
	require.Equal(t, http.StatusOK, status, string(body))
	result := decode[BatchResultDTO](t, body)
	assert.Equal(t, 23, result.Added)
	assert.Zero(t, result.Failed)
	assert.Equal(t, 23, ts.backend.Len())

	_, body = ts.do(http.MethodGet, "/api/employees/emp-1/pending", nil)
	assert.Empty(t, decode[[]TimeEntryDTO](t, body))
}

func TestSave_PartialFailureKeepsFailedEntries(t *testing.T) {
	ts := newTestServer(t)
	ts.backend.failDates["2025-03-11"] = true
	require.Equal(t, http.StatusOK, ts.stage("2025-03-10", "duration", "480"))
	require.Equal(t, http.StatusOK, ts.stage("2025-03-11", "duration", "480"))

	// WHEN
	status, body := ts.do(http.MethodPost, "/api/employees/emp-1/save", nil)

	// THEN: 207, the failed day is reported and still staged
	require.Equal(t, http.StatusMultiStatus, status, string(body))
	result := decode[BatchResultDTO](t, body)
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "2025-03-11", result.Failures[0].Date)
	assert.Equal(t, "add", result.Failures[0].Op)
	require.Len(t, result.Pending, 1)
	assert.Equal(t, "2025-03-11", result.Pending[0].Date)

	// A total failure is a 502.
	status, body = ts.do(http.MethodPost, "/api/employees/emp-1/save", nil)
	assert.Equal(t, http.StatusBadGateway, status, string(body))

	// Once the store recovers the retry completes.
	delete(ts.backend.failDates, "2025-03-11")
	status, body = ts.do(http.MethodPost, "/api/employees/emp-1/save", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, 1, decode[BatchResultDTO](t, body).Added)
	assert.Equal(t, 2, ts.backend.Len())
}

func TestResetMonth(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusOK, ts.stage("2025-03-10", "duration", "480"))
	status, _ := ts.do(http.MethodPost, "/api/employees/emp-1/save", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, http.StatusOK, ts.stage("2025-03-12", "duration", "480"))

	// WHEN
	status, body := ts.do(http.MethodPost, "/api/employees/emp-1/months/2025-03/reset", nil)

	// THEN
	require.Equal(t, http.StatusOK, status, string(body))
	result := decode[BatchResultDTO](t, body)
	assert.Equal(t, 1, result.Deleted)
	assert.Equal(t, 1, result.Cleared)
	assert.Zero(t, ts.backend.Len())
}

// =============================================================================
// MONTH LOCK
// =============================================================================

func TestFinalizeBlocksEditsUntilReopen(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.do(http.MethodPost, "/api/employees/emp-1/months/2025-03/finalize", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, "finalized", decode[StatusDTO](t, body).Status)

	// Edits, autofill and reset are refused.
	assert.Equal(t, http.StatusConflict, ts.stage("2025-03-10", "duration", "480"))
	status, body = ts.do(http.MethodPost, "/api/employees/emp-1/months/2025-03/autofill", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "month_finalized", decode[ErrorResponse](t, body).Code)
	status, _ = ts.do(http.MethodPost, "/api/employees/emp-1/months/2025-03/reset", nil)
	assert.Equal(t, http.StatusConflict, status)

	// Other months are unaffected.
	assert.Equal(t, http.StatusOK, ts.stage("2025-04-01", "duration", "480"))

	status, body = ts.do(http.MethodPost, "/api/employees/emp-1/months/2025-03/reopen", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "open", decode[StatusDTO](t, body).Status)
	assert.Equal(t, http.StatusOK, ts.stage("2025-03-10", "duration", "480"))

	_, body = ts.do(http.MethodGet, "/api/employees/emp-1/months/2025-03/status", nil)
	assert.Equal(t, "open", decode[StatusDTO](t, body).Status)
}

// =============================================================================
// SCHEDULE
// =============================================================================

func TestSchedule(t *testing.T) {
	ts := newTestServer(t)

	// GIVEN: a four-day week
	req := ScheduleRequest{Days: []ScheduleSlotDTO{
		{Weekday: "monday", Enabled: true, Hours: 10},
		{Weekday: "tuesday", Enabled: true, Hours: 10},
		{Weekday: "wednesday", Enabled: true, Hours: 10},
		{Weekday: "thursday", Enabled: true, Hours: 10},
		{Weekday: "friday", Enabled: false},
	}}

	// WHEN
	status, body := ts.do(http.MethodPut, "/api/employees/emp-2/schedule", req)

	// THEN
	require.Equal(t, http.StatusOK, status, string(body))
	status, body = ts.do(http.MethodGet, "/api/employees/emp-2/schedule", nil)
	require.Equal(t, http.StatusOK, status)
	got := decode[ScheduleDTO](t, body)
	require.Len(t, got.Days, 5)
	assert.Equal(t, "monday", got.Days[0].Weekday)
	assert.Equal(t, 10.0, got.Days[0].Hours)

	// Overtime for emp-2 follows the new schedule.
	status, body = ts.do(http.MethodPut, "/api/employees/emp-2/days/2025-03-10",
		StageUpdateRequest{Field: "duration", Value: "600"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "0", decode[TimeEntryDTO](t, body).Overtime)

	status, _ = ts.do(http.MethodGet, "/api/employees/nobody/schedule", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestPutSchedule_Validation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		req  ScheduleRequest
	}{
		{"empty", ScheduleRequest{}},
		{"unknown weekday", ScheduleRequest{Days: []ScheduleSlotDTO{{Weekday: "funday", Enabled: true, Hours: 8}}}},
		{"too many hours", ScheduleRequest{Days: []ScheduleSlotDTO{{Weekday: "monday", Enabled: true, Hours: 25}}}},
		{"duplicate weekday", ScheduleRequest{Days: []ScheduleSlotDTO{
			{Weekday: "monday", Enabled: true, Hours: 8},
			{Weekday: "monday", Enabled: true, Hours: 6},
		}}},
		{"enabled without hours", ScheduleRequest{Days: []ScheduleSlotDTO{{Weekday: "monday", Enabled: true}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := ts.do(http.MethodPut, "/api/employees/emp-1/schedule", tt.req)
			assert.Equal(t, http.StatusBadRequest, status, string(body))
		})
	}
}

func TestValidationErrorListsFields(t *testing.T) {
	ts := newTestServer(t)

	// WHEN: a schedule with an unknown weekday
	status, body := ts.do(http.MethodPut, "/api/employees/emp-1/schedule", ScheduleRequest{
		Days: []ScheduleSlotDTO{{Weekday: "funday", Enabled: true, Hours: 8}},
	})

	// THEN: the failing field and rule are reported
	require.Equal(t, http.StatusBadRequest, status, string(body))
	resp := decode[ErrorResponse](t, body)
	assert.Equal(t, "validation", resp.Code)
	details, ok := resp.Details.(map[string]any)
	require.True(t, ok, "details: %#v", resp.Details)
	assert.Equal(t, "oneof", details["ScheduleRequest.Days[0].Weekday"])
}

// =============================================================================
// OBSERVABILITY
// =============================================================================

func TestMetricsAndHealth(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusOK, ts.stage("2025-03-10", "duration", "480"))

	status, _ := ts.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, status)

	status, body := ts.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `timesheet_staged_entries_total{source="edit"} 1`)
	assert.Contains(t, string(body), `route="/api/employees/{id}/days/{date}"`)
}
