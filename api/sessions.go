package api

import (
	"sync"
	"time"

	"github.com/warp/timesheet-engine/timesheet"
)

// Backend is everything the API needs from persistence. Both store/sqlite
// and store/memory implement it.
type Backend interface {
	timesheet.EntryStore
	timesheet.Registry
	timesheet.ScheduleStore
}

const (
	// DefaultSessionIdle is how long a session with nothing staged survives
	// after its last request.
	DefaultSessionIdle = 30 * time.Minute

	sweepInterval = time.Minute
)

// SessionManager hands out one editing session per employee.
//
// A session is dropped once it has been idle for longer than the idle timeout
// and its edit buffer is empty. Sessions holding staged entries are kept until
// those entries are saved or discarded, so unsaved work is never lost; the
// number of such sessions is bounded only by the callers.
type SessionManager struct {
	backend Backend
	lock    *timesheet.MonthLock
	opts    timesheet.Options
	idle    time.Duration
	now     func() time.Time

	mu        sync.Mutex
	sessions  map[timesheet.EmployeeID]*managedSession
	lastSweep time.Time
}

type managedSession struct {
	session  *timesheet.Session
	lastUsed time.Time
}

func NewSessionManager(backend Backend, opts timesheet.Options) *SessionManager {
	return &SessionManager{
		backend:  backend,
		lock:     timesheet.NewMonthLock(backend, opts),
		opts:     opts,
		idle:     DefaultSessionIdle,
		now:      time.Now,
		sessions: make(map[timesheet.EmployeeID]*managedSession),
	}
}

// Get returns the employee's session, creating it on first use.
func (m *SessionManager) Get(employee timesheet.EmployeeID) *timesheet.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if now.Sub(m.lastSweep) >= sweepInterval {
		m.evictIdle(now)
		m.lastSweep = now
	}

	ms, ok := m.sessions[employee]
	if !ok {
		ms = &managedSession{session: timesheet.NewSession(employee, m.backend, m.backend, m.lock, m.opts)}
		m.sessions[employee] = ms
	}
	ms.lastUsed = now
	return ms.session
}

// evictIdle drops idle sessions with an empty buffer. Caller holds m.mu.
func (m *SessionManager) evictIdle(now time.Time) int {
	evicted := 0
	for id, ms := range m.sessions {
		if now.Sub(ms.lastUsed) <= m.idle || len(ms.session.Pending()) > 0 {
			continue
		}
		delete(m.sessions, id)
		evicted++
	}
	return evicted
}

// Active returns the number of live sessions.
func (m *SessionManager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
