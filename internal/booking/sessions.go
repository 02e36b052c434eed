package booking

import (
	"sync"
	"time"
)

type session struct {
	workflow  *Workflow
	updatedAt time.Time
}

// SessionStore keeps one Workflow per chat and forgets idle ones.
type SessionStore struct {
	sessions map[int64]*session
	mu       sync.Mutex
	timeout  time.Duration
	now      func() time.Time
}

func NewSessionStore(timeout time.Duration) *SessionStore {
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &SessionStore{
		sessions: make(map[int64]*session),
		timeout:  timeout,
		now:      time.Now,
	}
}

// Get returns the chat's workflow and marks it active. Expired sessions
// are treated as missing.
func (ss *SessionStore) Get(chatID int64) (*Workflow, bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	s, ok := ss.sessions[chatID]
	if !ok {
		return nil, false
	}
	if ss.expired(s) {
		delete(ss.sessions, chatID)
		return nil, false
	}
	s.updatedAt = ss.now()
	return s.workflow, true
}

// Put replaces the chat's workflow unless a booking is running in the old one.
func (ss *SessionStore) Put(w *Workflow) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if old, ok := ss.sessions[w.ChatID]; ok && old.workflow != w && old.workflow.Busy() {
		return ErrBusy
	}
	ss.sessions[w.ChatID] = &session{workflow: w, updatedAt: ss.now()}
	return nil
}

func (ss *SessionStore) Delete(chatID int64) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.sessions, chatID)
}

// Cleanup removes expired sessions that are not mid-booking.
func (ss *SessionStore) Cleanup() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	removed := 0
	for chatID, s := range ss.sessions {
		if ss.expired(s) {
			delete(ss.sessions, chatID)
			removed++
		}
	}
	return removed
}

func (ss *SessionStore) Len() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return len(ss.sessions)
}

func (ss *SessionStore) expired(s *session) bool {
	return !s.workflow.Busy() && ss.now().Sub(s.updatedAt) > ss.timeout
}
