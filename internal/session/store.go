package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown or expired session ids
var ErrNotFound = errors.New("session not found")

// Limits bound the sessions a store keeps. Zero values mean no limit.
type Limits struct {
	// MaxSessions caps live sessions; creating one more evicts the least
	// recently used.
	MaxSessions int
	// IdleTTL expires sessions not accessed for this long
	IdleTTL time.Duration
}

// Store keeps sessions in memory, keyed by generated id
type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry
	limits   Limits
	opts     []Option
	now      func() time.Time
}

type entry struct {
	mu       sync.Mutex
	session  *Session
	lastUsed time.Time
}

// NewStore creates an unbounded store; opts apply to every created session
func NewStore(opts ...Option) *Store {
	return NewBoundedStore(Limits{}, opts...)
}

// NewBoundedStore creates a store that evicts sessions beyond limits
func NewBoundedStore(limits Limits, opts ...Option) *Store {
	return &Store{
		sessions: make(map[string]*entry),
		limits:   limits,
		opts:     opts,
		now:      time.Now,
	}
}

// Create registers a new empty session and returns its id
func (st *Store) Create() string {
	id := uuid.New().String()

	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	st.pruneLocked(now)
	if st.limits.MaxSessions > 0 {
		for len(st.sessions) >= st.limits.MaxSessions {
			st.evictOldestLocked()
		}
	}
	st.sessions[id] = &entry{session: New(nil, nil, st.opts...), lastUsed: now}
	return id
}

// With runs fn with exclusive access to the session
func (st *Store) With(id string, fn func(*Session) error) error {
	st.mu.Lock()
	e, ok := st.sessions[id]
	if ok {
		now := st.now()
		if st.expired(e, now) {
			delete(st.sessions, id)
			ok = false
		} else {
			e.lastUsed = now
		}
	}
	st.mu.Unlock()
	if !ok {
		return ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.session)
}

// Delete removes a session
func (st *Store) Delete(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(st.sessions, id)
	return nil
}

// Prune drops expired sessions and returns how many were removed
func (st *Store) Prune() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.pruneLocked(st.now())
}

// Len returns the number of live sessions
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.pruneLocked(st.now())
	return len(st.sessions)
}

func (st *Store) expired(e *entry, now time.Time) bool {
	return st.limits.IdleTTL > 0 && now.Sub(e.lastUsed) > st.limits.IdleTTL
}

func (st *Store) pruneLocked(now time.Time) int {
	removed := 0
	for id, e := range st.sessions {
		if st.expired(e, now) {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

func (st *Store) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, e := range st.sessions {
		if oldestID == "" || e.lastUsed.Before(oldest) {
			oldestID, oldest = id, e.lastUsed
		}
	}
	delete(st.sessions, oldestID)
}
