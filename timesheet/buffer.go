package timesheet

import (
	"sort"

	"github.com/warp/timesheet-engine/generic"
)

// =============================================================================
// EDIT BUFFER - Staged, unsaved entries keyed by date
// =============================================================================

// EditBuffer holds at most one pending entry per date. A staged entry
// shadows any persisted entry for the same date; it never merges with it.
// The buffer never writes anywhere by itself.
//
// EditBuffer is not safe for concurrent use. Session serializes access.
type EditBuffer struct {
	entries map[string]TimeEntry
}

func NewEditBuffer() *EditBuffer {
	return &EditBuffer{entries: make(map[string]TimeEntry)}
}

// Get returns a copy of the staged entry for the day.
func (b *EditBuffer) Get(day generic.TimePoint) (TimeEntry, bool) {
	e, ok := b.entries[day.Key()]
	if !ok {
		return TimeEntry{}, false
	}
	return e.Clone(), true
}

func (b *EditBuffer) Has(day generic.TimePoint) bool {
	_, ok := b.entries[day.Key()]
	return ok
}

// Put replaces whatever is staged for the entry's date.
func (b *EditBuffer) Put(e TimeEntry) {
	b.entries[e.Date.Key()] = e.Clone()
}

// Remove drops the staged entry for one day.
func (b *EditBuffer) Remove(day generic.TimePoint) bool {
	key := day.Key()
	if _, ok := b.entries[key]; !ok {
		return false
	}
	delete(b.entries, key)
	return true
}

// RemoveMonth drops every staged entry dated in the month.
func (b *EditBuffer) RemoveMonth(m generic.Month) int {
	n := 0
	for key, e := range b.entries {
		if m.Contains(e.Date) {
			delete(b.entries, key)
			n++
		}
	}
	return n
}

// Clear drops everything.
func (b *EditBuffer) Clear() int {
	n := len(b.entries)
	b.entries = make(map[string]TimeEntry)
	return n
}

func (b *EditBuffer) Len() int { return len(b.entries) }

// Entries returns copies of all staged entries, ordered by date.
func (b *EditBuffer) Entries() []TimeEntry {
	out := make([]TimeEntry, 0, len(b.entries))
	for _, e := range b.entries {
		out = append(out, e.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// EntriesIn returns staged entries dated in the month, ordered by date.
func (b *EditBuffer) EntriesIn(m generic.Month) []TimeEntry {
	var out []TimeEntry
	for _, e := range b.Entries() {
		if m.Contains(e.Date) {
			out = append(out, e)
		}
	}
	return out
}
