package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pyview/hiergraph/pkg/view"
)

// ErrNotFound is returned when a session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

// DefaultTTL is how long an idle session is kept.
const DefaultTTL = 2 * time.Hour

// Store is an in-memory session registry with idle expiry.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewStore creates a store. A ttl of zero means DefaultTTL.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// TTL returns the idle expiry of the store.
func (st *Store) TTL() time.Duration { return st.ttl }

// Create registers a new session with a random id.
func (st *Store) Create(scope *view.Scope, graphHash string, level int) *Session {
	return st.CreateWithID(uuid.NewString(), scope, graphHash, level)
}

// CreateWithID registers a session under a caller-chosen id, replacing any
// session with that id.
func (st *Store) CreateWithID(id string, scope *view.Scope, graphHash string, level int) *Session {
	sess := newSession(id, scope, graphHash, level, st.now())
	st.mu.Lock()
	st.sessions[id] = sess
	st.mu.Unlock()
	return sess
}

// Get returns a live session and marks it as used. Expired sessions are
// removed and reported as ErrNotFound.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	sess, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	now := st.now()
	if now.Sub(sess.idleSince()) > st.ttl {
		st.Delete(id)
		return nil, ErrNotFound
	}
	sess.touch(now)
	return sess, nil
}

// Delete removes a session. Deleting an unknown id is a no-op.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// Len returns the number of registered sessions, expired or not.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Cleanup removes expired sessions and returns how many were removed.
func (st *Store) Cleanup() int {
	now := st.now()
	st.mu.Lock()
	defer st.mu.Unlock()
	removed := 0
	for id, sess := range st.sessions {
		if now.Sub(sess.idleSince()) > st.ttl {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

// ReplaceAll installs a new analysis result in every session. newScope is
// called once per session so that no two sessions share a hidden set.
func (st *Store) ReplaceAll(newScope func() *view.Scope, graphHash string) int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	for _, sess := range st.sessions {
		sess.Replace(newScope(), graphHash)
	}
	return len(st.sessions)
}

// ExpiresAt returns when sess expires if left idle.
func (st *Store) ExpiresAt(sess *Session) time.Time {
	return sess.idleSince().Add(st.ttl)
}
