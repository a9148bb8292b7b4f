package timesheet

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Observer receives engine events. The metrics package implements it.
type Observer interface {
	// StoreOp is called once per settled store call.
	StoreOp(op StoreOp, err error)
	// Staged is called with the number of entries staged by one call.
	// Source is "edit" or "autofill".
	Staged(source string, n int)
	// LockChanged is called after a successful finalize or reopen.
	LockChanged(status Status)
}

type nopObserver struct{}

func (nopObserver) StoreOp(StoreOp, error) {}
func (nopObserver) Staged(string, int)     {}
func (nopObserver) LockChanged(Status)     {}

// Options configures a Session and its MonthLock. Zero fields take defaults.
type Options struct {
	// DefaultLocation is written on autofilled entries.
	DefaultLocation string
	// DefaultStartTime is the placeholder start of synthesized entries (HH:MM).
	DefaultStartTime string
	// MaxConcurrentWrites bounds in-flight store calls during Save and ResetMonth.
	MaxConcurrentWrites int

	Logger   *slog.Logger
	Observer Observer

	NewID func() EntryID
	Now   func() time.Time
}

const (
	DefaultLocation            = "Office"
	DefaultMaxConcurrentWrites = 8
)

func (o Options) withDefaults() Options {
	if o.DefaultLocation == "" {
		o.DefaultLocation = DefaultLocation
	}
	if _, err := ParseClock(o.DefaultStartTime); err != nil {
		o.DefaultStartTime = DefaultStartTime
	}
	if o.MaxConcurrentWrites <= 0 {
		o.MaxConcurrentWrites = DefaultMaxConcurrentWrites
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Observer == nil {
		o.Observer = nopObserver{}
	}
	if o.NewID == nil {
		o.NewID = func() EntryID { return EntryID(uuid.NewString()) }
	}
	if o.Now == nil {
		o.Now = func() time.Time { return time.Now().UTC() }
	}
	return o
}
