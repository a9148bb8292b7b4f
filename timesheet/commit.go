/*
commit.go - Batch application of the Edit Buffer

SAVE:
  1. Group staged entries by month and list each month once.
  2. Resolve every entry to Add or Update:
       id already persisted        -> Update(id)
       date already persisted      -> Update(persisted id), keeping its id and CreatedAt
       otherwise                   -> Add
  3. WORK entries without a Duration get one from the legacy start/end span,
     and their overtime is re-derived from it.
  4. Run all writes concurrently, bounded by MaxConcurrentWrites. Writes are
     not cancelled when the caller's context is.
  5. Remove every date whose write succeeded from the buffer. Failed dates
     stay staged, so calling Save again retries exactly those.

RESET:
  Lock-gated. Deletes every persisted entry of the month one by one, then
  drops the month's staged entries. The buffer is cleared even when some
  deletes fail; the failures are reported in the BatchError.

Save is not lock-gated: staging is, so a finalized month can only reach Save
through entries staged before it was finalized.
*/
package timesheet

import (
	"context"

	"github.com/warp/timesheet-engine/generic"
	"golang.org/x/sync/errgroup"
)

// SaveResult reports what one Save call wrote.
type SaveResult struct {
	Added   int
	Updated int
	Failed  int
}

// ResetResult reports what one ResetMonth call removed.
type ResetResult struct {
	Deleted int
	Cleared int
	Failed  int
}

// storeWrite is one resolved store call.
type storeWrite struct {
	op    StoreOp
	entry TimeEntry
}

func (w storeWrite) apply(ctx context.Context, store EntryStore) error {
	switch w.op {
	case OpAdd:
		return store.Add(ctx, w.entry)
	case OpUpdate:
		return store.Update(ctx, w.entry.ID, w.entry)
	default:
		return store.Delete(ctx, w.entry.ID)
	}
}

// =============================================================================
// SAVE
// =============================================================================

// Save persists every staged entry. With an empty buffer it is a no-op.
//
// On failure the returned error is a *BatchError; the entries that were
// written are gone from the buffer and the failed ones remain staged.
func (s *Session) Save(ctx context.Context) (SaveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.buffer.Entries()
	if len(staged) == 0 {
		return SaveResult{}, nil
	}

	writes, err := s.resolve(ctx, staged)
	if err != nil {
		return SaveResult{}, err
	}

	failed := s.runBatch(ctx, writes)

	var res SaveResult
	for i, w := range writes {
		if failed[i] != nil {
			res.Failed++
			continue
		}
		if w.op == OpAdd {
			res.Added++
		} else {
			res.Updated++
		}
		s.buffer.Remove(w.entry.Date)
	}

	s.log.Info("save applied",
		"added", res.Added, "updated", res.Updated, "failed", res.Failed, "pending", s.buffer.Len())

	if res.Failed > 0 {
		return res, batchError("save", res.Added+res.Updated, failed)
	}
	return res, nil
}

// resolve turns staged entries into Add/Update calls against the current store.
func (s *Session) resolve(ctx context.Context, staged []TimeEntry) ([]storeWrite, error) {
	schedule, err := s.schedule(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[EntryID]bool)
	byDate := make(map[string]TimeEntry)
	listed := make(map[generic.Month]bool)

	writes := make([]storeWrite, 0, len(staged))
	for _, e := range staged {
		if m := e.Month(); !listed[m] {
			persisted, err := s.list(ctx, m)
			if err != nil {
				return nil, err
			}
			for _, p := range persisted {
				byID[p.ID] = true
				byDate[p.Date.Key()] = p
			}
			listed[m] = true
		}

		e.EmployeeID = s.employee
		e = materializeDuration(e, schedule)

		switch p, ok := byDate[e.Date.Key()]; {
		case byID[e.ID]:
			writes = append(writes, storeWrite{op: OpUpdate, entry: e})
		case ok:
			e.ID, e.CreatedAt = p.ID, p.CreatedAt
			writes = append(writes, storeWrite{op: OpUpdate, entry: e})
		default:
			writes = append(writes, storeWrite{op: OpAdd, entry: e})
		}
	}
	return writes, nil
}

// =============================================================================
// RESET
// =============================================================================

// ResetMonth deletes every persisted entry of the month and clears its staged
// entries. Nothing else is touched. A finalized month returns a
// *LockedMonthError and is left as is.
func (s *Session) ResetMonth(ctx context.Context, month generic.Month) (ResetResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock.guard(ctx, s.employee, month); err != nil {
		return ResetResult{}, err
	}

	persisted, err := s.list(ctx, month)
	if err != nil {
		return ResetResult{}, err
	}

	writes := make([]storeWrite, len(persisted))
	for i, e := range persisted {
		writes[i] = storeWrite{op: OpDelete, entry: e}
	}
	failed := s.runBatch(ctx, writes)

	res := ResetResult{Cleared: s.buffer.RemoveMonth(month)}
	for _, f := range failed {
		if f != nil {
			res.Failed++
		}
	}
	res.Deleted = len(writes) - res.Failed

	s.log.Info("month reset",
		"month", month.String(), "deleted", res.Deleted, "cleared", res.Cleared, "failed", res.Failed)

	if res.Failed > 0 {
		return res, batchError("reset", res.Deleted, failed)
	}
	return res, nil
}

// =============================================================================
// BATCH EXECUTION
// =============================================================================

// runBatch applies writes concurrently and returns one error slot per write.
// Every write is attempted; a failure does not stop the others.
func (s *Session) runBatch(ctx context.Context, writes []storeWrite) []*OpError {
	failed := make([]*OpError, len(writes))
	if len(writes) == 0 {
		return failed
	}

	// Writes run to completion even if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	var g errgroup.Group
	g.SetLimit(s.opts.MaxConcurrentWrites)

	for i, w := range writes {
		g.Go(func() error {
			err := w.apply(ctx, s.entries)
			s.opts.Observer.StoreOp(w.op, err)
			if err == nil {
				return nil
			}
			s.log.Warn("store operation failed",
				"op", string(w.op), "entry", string(w.entry.ID), "date", w.entry.Date.String(), "err", err)
			failed[i] = &OpError{Op: w.op, EntryID: w.entry.ID, Date: w.entry.Date, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return failed
}

func batchError(op string, succeeded int, slots []*OpError) *BatchError {
	be := &BatchError{Op: op, Succeeded: succeeded}
	for _, f := range slots {
		if f != nil {
			be.Failed = append(be.Failed, f)
		}
	}
	return be
}
