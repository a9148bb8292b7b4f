/*
errors.go - Error types for the timesheet engine

ERROR CATEGORIES:
  1. Validation  - malformed field input, rejected before it reaches the buffer
  2. Locked      - mutation attempted on a finalized month
  3. Persistence - one store operation failed
  4. Batch       - some or all operations of a Save/ResetMonth failed

Use errors.Is with the sentinels and errors.As with the structured types.
Nothing here is fatal: every error is recoverable by retrying or re-editing.
*/
package timesheet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/warp/timesheet-engine/generic"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned when a field value cannot be normalized.
	ErrValidation = errors.New("invalid field value")

	// ErrMonthLocked is returned when a mutation targets a finalized month.
	ErrMonthLocked = errors.New("month is finalized")

	// ErrPersistence is returned when a store operation fails.
	ErrPersistence = errors.New("persistence failure")

	// ErrPartialBatch is returned when some, but not all, operations of a
	// batch were applied. The buffer still holds the failed dates.
	ErrPartialBatch = errors.New("batch partially applied")

	// ErrEntryNotFound is returned by stores when updating or deleting a missing id.
	ErrEntryNotFound = errors.New("entry not found")

	// ErrDuplicateEntry is returned by stores when adding an id, or an
	// (employee, date) pair, that already exists.
	ErrDuplicateEntry = errors.New("entry already exists")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ValidationError describes a rejected field value.
type ValidationError struct {
	Field  Field
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// LockedMonthError is returned by StageUpdate, AutoFill and ResetMonth when
// the month is finalized. The call had no effect.
type LockedMonthError struct {
	EmployeeID EmployeeID
	Month      generic.Month
}

func (e *LockedMonthError) Error() string {
	return fmt.Sprintf("timesheet %s for %s is finalized", e.Month, e.EmployeeID)
}

func (e *LockedMonthError) Unwrap() error { return ErrMonthLocked }

// StoreOp names a single store call.
type StoreOp string

const (
	OpAdd    StoreOp = "add"
	OpUpdate StoreOp = "update"
	OpDelete StoreOp = "delete"
	OpList   StoreOp = "list"
)

// OpError is one failed store call.
type OpError struct {
	Op      StoreOp
	EntryID EntryID
	Date    generic.TimePoint
	Err     error
}

func (e *OpError) Error() string {
	if e.EntryID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s (%s): %v", e.Op, e.EntryID, e.Date, e.Err)
}

func (e *OpError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

// BatchError aggregates the failed operations of one Save or ResetMonth call.
type BatchError struct {
	Op        string // "save" or "reset"
	Succeeded int
	Failed    []*OpError
}

// Partial reports whether anything was written before the failures.
func (e *BatchError) Partial() bool { return e.Succeeded > 0 }

func (e *BatchError) Error() string {
	var b strings.Builder
	total := e.Succeeded + len(e.Failed)
	fmt.Fprintf(&b, "%s: %d of %d operations failed", e.Op, len(e.Failed), total)
	for i, f := range e.Failed {
		if i == 3 {
			fmt.Fprintf(&b, "; and %d more", len(e.Failed)-i)
			break
		}
		b.WriteString("; ")
		b.WriteString(f.Error())
	}
	return b.String()
}

func (e *BatchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed)+1)
	if e.Partial() {
		errs = append(errs, ErrPartialBatch)
	} else {
		errs = append(errs, ErrPersistence)
	}
	for _, f := range e.Failed {
		errs = append(errs, f)
	}
	return errs
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to the caller's input or
// the month's lock state rather than the store.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrMonthLocked)
}

// IsRetryable returns true if repeating the call may succeed. Save and
// ResetMonth are safe to repeat: writes are keyed by entry id.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrPersistence) || errors.Is(err, ErrPartialBatch)
}
