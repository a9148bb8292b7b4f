// Package metrics exposes engine and HTTP counters through Prometheus.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/warp/timesheet-engine/timesheet"
)

// Recorder implements timesheet.Observer. Each Recorder owns its registry so
// several can live in one process (tests, multiple servers).
type Recorder struct {
	registry *prometheus.Registry

	storeOps        *prometheus.CounterVec
	stagedEntries   *prometheus.CounterVec
	lockTransitions *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

var _ timesheet.Observer = (*Recorder)(nil)

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		storeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timesheet_store_operations_total",
			Help: "Store calls issued by save and reset, by operation and result.",
		}, []string{"op", "result"}),
		stagedEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timesheet_staged_entries_total",
			Help: "Entries written to edit buffers, by source.",
		}, []string{"source"}),
		lockTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timesheet_lock_transitions_total",
			Help: "Month finalize/reopen transitions, by resulting status.",
		}, []string{"status"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}

	r.registry.MustRegister(
		r.storeOps,
		r.stagedEntries,
		r.lockTransitions,
		r.httpRequests,
		r.httpDuration,
	)
	return r
}

// =============================================================================
// timesheet.Observer
// =============================================================================

func (r *Recorder) StoreOp(op timesheet.StoreOp, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, timesheet.ErrEntryNotFound), errors.Is(err, timesheet.ErrDuplicateEntry):
		result = "conflict"
	default:
		result = "error"
	}
	r.storeOps.WithLabelValues(string(op), result).Inc()
}

func (r *Recorder) Staged(source string, n int) {
	r.stagedEntries.WithLabelValues(source).Add(float64(n))
}

func (r *Recorder) LockChanged(status timesheet.Status) {
	r.lockTransitions.WithLabelValues(string(status)).Inc()
}

// =============================================================================
// HTTP
// =============================================================================

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// Middleware counts requests by chi route pattern, so path parameters do not
// explode label cardinality.
func (r *Recorder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, req)

		route := "unmatched"
		if rctx := chi.RouteContext(req.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		r.httpRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		r.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry is exposed for tests and for callers that add their own collectors.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }
