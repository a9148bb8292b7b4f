package metrics_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/metrics"
	"github.com/warp/timesheet-engine/store/memory"
	"github.com/warp/timesheet-engine/timesheet"
)

func TestRecorder_ObservesSession(t *testing.T) {
	rec := metrics.New()
	st := memory.New()
	ctx := context.Background()
	require.NoError(t, st.SaveWeeklySchedule(ctx, *timesheet.NewWeekdaySchedule("emp-1", decimal.NewFromInt(8))))

	opts := timesheet.Options{Observer: rec, Logger: slog.New(slog.DiscardHandler)}
	session := timesheet.NewSession("emp-1", st, st, timesheet.NewMonthLock(st, opts), opts)
	march := generic.MustParseMonth("2025-03")

	// GIVEN: an autofill, one edit, a save and a finalize
	n, err := session.AutoFill(ctx, march)
	require.NoError(t, err)
	_, err = session.StageUpdate(ctx, generic.MustParseDate("2025-03-15"), timesheet.FieldDuration, "240")
	require.NoError(t, err)
	_, err = session.Save(ctx)
	require.NoError(t, err)
	require.NoError(t, session.Finalize(ctx, march))

	// THEN
	reg := rec.Registry()
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "timesheet_lock_transitions_total"))

	families, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			key := mf.GetName()
			for _, l := range m.GetLabel() {
				key += "," + l.GetName() + "=" + l.GetValue()
			}
			values[key] = m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, float64(n), values["timesheet_staged_entries_total,source=autofill"])
	assert.Equal(t, 1.0, values["timesheet_staged_entries_total,source=edit"])
	assert.Equal(t, float64(n+1), values["timesheet_store_operations_total,op=add,result=ok"])
	assert.Equal(t, 1.0, values["timesheet_lock_transitions_total,status=finalized"])
}

func TestRecorder_ClassifiesStoreErrors(t *testing.T) {
	rec := metrics.New()

	rec.StoreOp(timesheet.OpUpdate, timesheet.ErrEntryNotFound)
	rec.StoreOp(timesheet.OpDelete, errors.New("disk full"))
	rec.StoreOp(timesheet.OpDelete, nil)

	assert.Equal(t, 3, testutil.CollectAndCount(rec.Registry(), "timesheet_store_operations_total"))
}

func TestRecorder_MiddlewareAndHandler(t *testing.T) {
	rec := metrics.New()
	r := chi.NewRouter()
	r.Use(rec.Middleware)
	r.Get("/api/employees/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Handle("/metrics", rec.Handler())

	for _, id := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/employees/"+id, nil))
		assert.Equal(t, http.StatusTeapot, w.Code)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body, _ := io.ReadAll(w.Body)
	assert.Contains(t, string(body), `http_requests_total{route="/api/employees/{id}",status="418"} 2`)
}
