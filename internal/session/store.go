// Package session holds per-session dataset state in memory. A session is
// created on upload and carries the raw table, the cleaned table once
// cleaning has run, and upload metadata. Sessions expire by TTL and the
// store evicts the oldest session when a capacity cap is hit. Nothing is
// persisted; when the process exits the sessions are gone.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"tabcli/internal/dataset"
)

// Meta describes the uploaded file behind a session.
type Meta struct {
	Filename   string    `json:"filename"`
	SizeBytes  int64     `json:"size_bytes"`
	Rows       int       `json:"rows"`
	Columns    int       `json:"columns"`
	UploadedAt time.Time `json:"uploaded_at"`
	CleanedAt  time.Time `json:"cleaned_at,omitempty"`
}

// Session is one upload and its derived state.
type Session struct {
	ID      string
	Meta    Meta
	Raw     *dataset.Table
	Cleaned *dataset.Table
}

// Current returns the cleaned table when one exists, otherwise the raw
// table. Analysis and charts run against this.
func (s *Session) Current() *dataset.Table {
	if s.Cleaned != nil {
		return s.Cleaned
	}
	return s.Raw
}

// ErrNotFound is returned for unknown or expired session IDs.
var ErrNotFound = fmt.Errorf("session not found")

// Store is an in-memory session store guarded by an RWMutex.
type Store struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	ttl         time.Duration
	maxSessions int
	now         func() time.Time
}

// NewStore creates a store. ttl <= 0 disables expiry; maxSessions <= 0
// disables the capacity cap.
func NewStore(ttl time.Duration, maxSessions int) *Store {
	return &Store{
		sessions:    make(map[string]*Session),
		ttl:         ttl,
		maxSessions: maxSessions,
		now:         time.Now,
	}
}

// Create registers a new session for an uploaded table and returns it.
func (s *Store) Create(meta Meta, raw *dataset.Table) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictExpiredLocked()
	if s.maxSessions > 0 && len(s.sessions) >= s.maxSessions {
		s.evictOldestLocked()
	}

	sess := &Session{
		ID:   uuid.New().String(),
		Meta: meta,
		Raw:  raw,
	}
	sess.Meta.UploadedAt = s.now()
	s.sessions[sess.ID] = sess
	return sess
}

// Get returns the session for id, or ErrNotFound when it does not exist or
// has expired. The result is a snapshot taken under the lock; a concurrent
// SetCleaned does not mutate it.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok || s.expired(sess) {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	snapshot := *sess
	return &snapshot, nil
}

// SetCleaned stores the cleaned table for a session.
func (s *Store) SetCleaned(id string, cleaned *dataset.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || s.expired(sess) {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	sess.Cleaned = cleaned
	sess.Meta.CleanedAt = s.now()
	return nil
}

// Delete removes a session.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, sess := range s.sessions {
		if !s.expired(sess) {
			n++
		}
	}
	return n
}

func (s *Store) expired(sess *Session) bool {
	return s.ttl > 0 && s.now().Sub(sess.Meta.UploadedAt) > s.ttl
}

func (s *Store) evictExpiredLocked() {
	for id, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, id)
		}
	}
}

func (s *Store) evictOldestLocked() {
	var oldestID string
	var oldestAt time.Time
	for id, sess := range s.sessions {
		if oldestID == "" || sess.Meta.UploadedAt.Before(oldestAt) {
			oldestID = id
			oldestAt = sess.Meta.UploadedAt
		}
	}
	if oldestID != "" {
		delete(s.sessions, oldestID)
	}
}
