/*
handlers.go - HTTP API handlers for the timesheet engine

PURPOSE:
  Exposes one editing session per employee over REST. Handles HTTP
  request/response, JSON serialization, and delegates to timesheet.Session.

ENDPOINTS:
  Month:
    GET    /api/employees/{id}/months/{month}            Merged month view (store ∪ buffer)
    POST   /api/employees/{id}/months/{month}/autofill   Stage default WORK entries
    POST   /api/employees/{id}/months/{month}/reset      Delete the month's entries
    GET    /api/employees/{id}/months/{month}/status     Lock state
    POST   /api/employees/{id}/months/{month}/finalize   Lock the month
    POST   /api/employees/{id}/months/{month}/reopen     Unlock the month

  Buffer:
    PUT    /api/employees/{id}/days/{date}      Stage one field edit
    DELETE /api/employees/{id}/days/{date}      Discard the staged day
    GET    /api/employees/{id}/pending          List staged entries
    DELETE /api/employees/{id}/pending          Discard all staged entries
    POST   /api/employees/{id}/save             Persist the whole buffer

  Schedule:
    GET    /api/employees/{id}/schedule         Weekly schedule
    PUT    /api/employees/{id}/schedule         Replace weekly schedule

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Nothing staged / no schedule
  - 409: Month is finalized
  - 207: Save or reset partially applied (body lists the failures)
  - 502: Store failed
  - 500: Anything else

SEE ALSO:
  - dto.go: Request/response data structures
  - sessions.go: Per-employee sessions
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/timesheet"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	sessions  *SessionManager
	schedules timesheet.ScheduleStore
	validate  *validator.Validate
	log       *slog.Logger
}

// NewHandler creates a handler serving sessions over the backend.
func NewHandler(backend Backend, opts timesheet.Options) *Handler {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		sessions:  NewSessionManager(backend, opts),
		schedules: backend,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		log:       log,
	}
}

// session resolves the {id} path parameter.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*timesheet.Session, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "Employee id is required", nil)
		return nil, false
	}
	return h.sessions.Get(timesheet.EmployeeID(id)), true
}

func monthParam(w http.ResponseWriter, r *http.Request) (generic.Month, bool) {
	m, err := generic.ParseMonth(chi.URLParam(r, "month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month (use YYYY-MM)", err)
		return generic.Month{}, false
	}
	return m, true
}

func dateParam(w http.ResponseWriter, r *http.Request) (generic.TimePoint, bool) {
	d, err := generic.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
		return generic.TimePoint{}, false
	}
	return d, true
}

// decode reads and validates a JSON body.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request",
			Code:    "validation",
			Details: validationDetails(err),
		})
		return false
	}
	return true
}

// =============================================================================
// MONTH HANDLERS
// =============================================================================

// GetMonth returns the merged month view.
func (h *Handler) GetMonth(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	month, ok := monthParam(w, r)
	if !ok {
		return
	}

	view, err := s.Month(r.Context(), month)
	if err != nil {
		h.writeEngineError(w, "Failed to load month", err)
		return
	}
	writeJSON(w, http.StatusOK, toMonthDTO(view))
}

// AutoFill stages default entries on the month's empty scheduled days.
func (h *Handler) AutoFill(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	month, ok := monthParam(w, r)
	if !ok {
		return
	}

	n, err := s.AutoFill(r.Context(), month)
	if err != nil {
		h.writeEngineError(w, "Failed to autofill month", err)
		return
	}
	writeJSON(w, http.StatusOK, CountDTO{Count: n})
}

// ResetMonth deletes the month's persisted entries and clears its staged ones.
func (h *Handler) ResetMonth(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	month, ok := monthParam(w, r)
	if !ok {
		return
	}

	res, err := s.ResetMonth(r.Context(), month)
	dto := BatchResultDTO{Deleted: res.Deleted, Cleared: res.Cleared, Failed: res.Failed}
	h.writeBatch(w, "Failed to reset month", dto, err)
}

// GetStatus returns the month's lock state.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	h.lockAction(w, r, nil)
}

// Finalize locks the month.
func (h *Handler) Finalize(w http.ResponseWriter, r *http.Request) {
	h.lockAction(w, r, (*timesheet.Session).Finalize)
}

// Reopen unlocks the month.
func (h *Handler) Reopen(w http.ResponseWriter, r *http.Request) {
	h.lockAction(w, r, (*timesheet.Session).Reopen)
}

func (h *Handler) lockAction(w http.ResponseWriter, r *http.Request, action func(*timesheet.Session, context.Context, generic.Month) error) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	month, ok := monthParam(w, r)
	if !ok {
		return
	}

	if action != nil {
		if err := action(s, r.Context(), month); err != nil {
			h.writeEngineError(w, "Failed to change month status", err)
			return
		}
	}
	status, err := s.Status(r.Context(), month)
	if err != nil {
		h.writeEngineError(w, "Failed to read month status", err)
		return
	}
	writeJSON(w, http.StatusOK, StatusDTO{
		EmployeeID: string(s.Employee()),
		Month:      month.String(),
		Status:     string(status),
	})
}

// =============================================================================
// BUFFER HANDLERS
// =============================================================================

// StageUpdate sets one field of a day's entry.
func (h *Handler) StageUpdate(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	day, ok := dateParam(w, r)
	if !ok {
		return
	}
	var req StageUpdateRequest
	if !h.decode(w, r, &req) {
		return
	}
	field, err := timesheet.ParseField(req.Field)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown field", err)
		return
	}

	entry, err := s.StageUpdate(r.Context(), day, field, req.Value)
	if err != nil {
		h.writeEngineError(w, "Failed to stage update", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(entry))
}

// DiscardDay drops the staged entry for one day.
func (h *Handler) DiscardDay(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	day, ok := dateParam(w, r)
	if !ok {
		return
	}

	if !s.Discard(day) {
		writeError(w, http.StatusNotFound, "Nothing staged for "+day.Key(), nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListPending returns every staged entry.
func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTOs(s.Pending()))
}

// DiscardAll empties the edit buffer.
func (h *Handler) DiscardAll(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, CountDTO{Count: s.DiscardAll()})
}

// Save persists the edit buffer.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	res, err := s.Save(r.Context())
	dto := BatchResultDTO{Added: res.Added, Updated: res.Updated, Failed: res.Failed}
	if err != nil {
		dto.Pending = toEntryDTOs(s.Pending())
	}
	h.writeBatch(w, "Failed to save", dto, err)
}

// =============================================================================
// SCHEDULE HANDLERS
// =============================================================================

// GetSchedule returns the employee's weekly schedule.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id := timesheet.EmployeeID(chi.URLParam(r, "id"))

	schedule, err := h.schedules.WeeklySchedule(r.Context(), id)
	if err != nil {
		h.writeEngineError(w, "Failed to load schedule", err)
		return
	}
	if schedule == nil {
		writeError(w, http.StatusNotFound, "No schedule for employee", nil)
		return
	}
	writeJSON(w, http.StatusOK, toScheduleDTO(*schedule))
}

// PutSchedule replaces the employee's weekly schedule. Weekdays left out of
// the request have no slot afterwards.
func (h *Handler) PutSchedule(w http.ResponseWriter, r *http.Request) {
	id := timesheet.EmployeeID(chi.URLParam(r, "id"))
	var req ScheduleRequest
	if !h.decode(w, r, &req) {
		return
	}

	schedule := timesheet.WeeklySchedule{EmployeeID: id, Days: make(map[time.Weekday]timesheet.ScheduleSlot, len(req.Days))}
	for _, d := range req.Days {
		wd, err := timesheet.ParseWeekday(d.Weekday)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid weekday", err)
			return
		}
		schedule.Days[wd] = timesheet.ScheduleSlot{Enabled: d.Enabled, Hours: decimal.NewFromFloat(d.Hours)}
	}
	if err := schedule.Validate(); err != nil {
		h.writeEngineError(w, "Invalid schedule", err)
		return
	}

	if err := h.schedules.SaveWeeklySchedule(r.Context(), schedule); err != nil {
		h.writeEngineError(w, "Failed to save schedule", err)
		return
	}
	h.log.Info("weekly schedule replaced", "employee", string(id), "slots", len(schedule.Days))
	writeJSON(w, http.StatusOK, toScheduleDTO(schedule))
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeEngineError maps timesheet errors onto HTTP statuses.
func (h *Handler) writeEngineError(w http.ResponseWriter, message string, err error) {
	var (
		status int
		code   string
	)
	switch {
	case errors.Is(err, timesheet.ErrValidation):
		status, code = http.StatusBadRequest, "validation"
	case errors.Is(err, timesheet.ErrMonthLocked):
		status, code = http.StatusConflict, "month_finalized"
	case errors.Is(err, timesheet.ErrEntryNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, timesheet.ErrPersistence):
		status, code = http.StatusBadGateway, "persistence"
	default:
		status, code = http.StatusInternalServerError, "internal"
	}
	if status >= 500 {
		h.log.Error(message, "err", err)
	}
	writeJSON(w, status, ErrorResponse{Error: message, Code: code, Details: err.Error()})
}

// writeBatch reports a save or reset. A partially applied batch is 207 so
// clients know the buffer cannot simply be discarded.
func (h *Handler) writeBatch(w http.ResponseWriter, message string, dto BatchResultDTO, err error) {
	if err == nil {
		writeJSON(w, http.StatusOK, dto)
		return
	}
	var be *timesheet.BatchError
	if !errors.As(err, &be) {
		h.writeEngineError(w, message, err)
		return
	}

	for _, f := range be.Failed {
		dto.Failures = append(dto.Failures, OpFailureDTO{
			Op:      string(f.Op),
			EntryID: string(f.EntryID),
			Date:    f.Date.Key(),
			Error:   f.Err.Error(),
		})
	}
	status := http.StatusBadGateway
	if be.Partial() {
		status = http.StatusMultiStatus
	}
	h.log.Warn(message, "err", err, "failed", len(be.Failed))
	writeJSON(w, status, dto)
}

func validationDetails(err error) any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fe.Namespace()] = fe.Tag()
	}
	return details
}
