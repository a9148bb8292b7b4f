/*
lock.go - Month lock state machine

STATES:
  OPEN       initial; no registry record also means OPEN
  FINALIZED  user-asserted checkpoint, no completeness validation

TRANSITIONS:
  Finalize: OPEN -> FINALIZED
  Reopen:   FINALIZED -> OPEN
  Both are idempotent. There is no terminal state.

ENFORCEMENT:
  The lock is enforced in exactly three places, all in Session:
  StageUpdate, AutoFill and ResetMonth. Save is not gated.
*/
package timesheet

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/warp/timesheet-engine/generic"
)

// MonthLock gates mutation through the Registry's status records.
type MonthLock struct {
	registry Registry
	log      *slog.Logger
	observer Observer
}

// NewMonthLock creates a controller over the registry. Only Logger and
// Observer are read from opts.
func NewMonthLock(registry Registry, opts Options) *MonthLock {
	opts = opts.withDefaults()
	return &MonthLock{registry: registry, log: opts.Logger, observer: opts.Observer}
}

// Status returns the lock state. A missing record reads as StatusOpen.
func (l *MonthLock) Status(ctx context.Context, employee EmployeeID, month generic.Month) (Status, error) {
	status, err := l.registry.Status(ctx, employee, month)
	if err != nil {
		return "", fmt.Errorf("read timesheet status %s/%s: %w", employee, month, err)
	}
	if status == "" {
		return StatusOpen, nil
	}
	return status, nil
}

func (l *MonthLock) IsFinalized(ctx context.Context, employee EmployeeID, month generic.Month) (bool, error) {
	status, err := l.Status(ctx, employee, month)
	if err != nil {
		return false, err
	}
	return status == StatusFinalized, nil
}

// Finalize locks the month.
func (l *MonthLock) Finalize(ctx context.Context, employee EmployeeID, month generic.Month) error {
	return l.transition(ctx, employee, month, StatusFinalized)
}

// Reopen unlocks the month.
func (l *MonthLock) Reopen(ctx context.Context, employee EmployeeID, month generic.Month) error {
	return l.transition(ctx, employee, month, StatusOpen)
}

func (l *MonthLock) transition(ctx context.Context, employee EmployeeID, month generic.Month, to Status) error {
	if month.IsZero() {
		return &ValidationError{Field: "month", Value: "", Reason: "month is required"}
	}
	if err := l.registry.SetStatus(ctx, employee, month, to); err != nil {
		return fmt.Errorf("set timesheet %s/%s to %s: %w", employee, month, to, err)
	}
	l.observer.LockChanged(to)
	l.log.Info("timesheet status changed",
		"employee", employee, "month", month.String(), "status", string(to))
	return nil
}

// guard returns a LockedMonthError when the month is finalized.
func (l *MonthLock) guard(ctx context.Context, employee EmployeeID, month generic.Month) error {
	finalized, err := l.IsFinalized(ctx, employee, month)
	if err != nil {
		return err
	}
	if finalized {
		return &LockedMonthError{EmployeeID: employee, Month: month}
	}
	return nil
}
