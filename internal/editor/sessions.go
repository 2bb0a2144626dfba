package editor

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned for unknown or expired sessions.
var ErrSessionNotFound = errors.New("editor session not found")

// Session is one open editor addressed by id.
type Session struct {
	ID         string
	CreatedAt  time.Time
	LastAccess time.Time

	mu     sync.Mutex
	editor *Editor
}

// Do runs fn with exclusive access to the session's editor.
func (s *Session) Do(fn func(*Editor) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.editor)
}

// Sessions keeps editors in memory, evicting the least recently used one
// when full and dropping idle ones after ttl.
type Sessions struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	maxSessions int
	ttl         time.Duration
	now         func() time.Time
	editorOpts  []Option
	onEvict     func(*Session)
}

// NewSessions creates a session store. opts are applied to every editor.
func NewSessions(maxSessions int, ttl time.Duration, opts ...Option) *Sessions {
	if maxSessions <= 0 {
		maxSessions = 1
	}
	return &Sessions{
		sessions:    make(map[string]*Session),
		maxSessions: maxSessions,
		ttl:         ttl,
		now:         time.Now,
		editorOpts:  opts,
	}
}

// OnEvict registers fn to run for every session dropped by capacity
// eviction or Cleanup. It is not called for Delete.
func (s *Sessions) OnEvict(fn func(*Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEvict = fn
}

func (s *Sessions) evicted(dropped []*Session, hook func(*Session)) {
	if hook == nil {
		return
	}
	for _, sess := range dropped {
		hook(sess)
	}
}

// Create registers a new closed editor and returns its session.
func (s *Sessions) Create() *Session {
	s.mu.Lock()

	var dropped []*Session
	if len(s.sessions) >= s.maxSessions {
		var oldest *Session
		for _, sess := range s.sessions {
			if oldest == nil || sess.LastAccess.Before(oldest.LastAccess) {
				oldest = sess
			}
		}
		delete(s.sessions, oldest.ID)
		dropped = append(dropped, oldest)
	}

	now := s.now()
	sess := &Session{
		ID:         uuid.New().String(),
		CreatedAt:  now,
		LastAccess: now,
		editor:     New(s.editorOpts...),
	}
	s.sessions[sess.ID] = sess
	hook := s.onEvict
	s.mu.Unlock()

	s.evicted(dropped, hook)
	return sess
}

// Get returns the session and marks it as used.
func (s *Sessions) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.LastAccess = s.now()
	return sess, nil
}

// Delete forgets a session.
func (s *Sessions) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Cleanup removes sessions idle for longer than ttl.
func (s *Sessions) Cleanup() int {
	s.mu.Lock()
	var dropped []*Session
	cutoff := s.now().Add(-s.ttl)
	for id, sess := range s.sessions {
		if sess.LastAccess.Before(cutoff) {
			delete(s.sessions, id)
			dropped = append(dropped, sess)
		}
	}
	hook := s.onEvict
	s.mu.Unlock()

	s.evicted(dropped, hook)
	return len(dropped)
}

// StartCleanup runs Cleanup every interval until the returned stop
// function is called.
func (s *Sessions) StartCleanup(interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				s.Cleanup()
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() {
		close(done)
	}
}
