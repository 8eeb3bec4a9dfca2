package net

import "sync"

// SessionStore tracks live sessions so battle notices can reach every client
// watching a battle.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[uint64]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[uint64]*Session)}
}

func (s *SessionStore) Add(sess *Session) {
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
}

func (s *SessionStore) Remove(id uint64) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// ForEach calls fn for every session. fn must not call back into the store.
func (s *SessionStore) ForEach(fn func(*Session)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.sessions {
		fn(sess)
	}
}

// Watching calls fn for every session watching battleID.
func (s *SessionStore) Watching(battleID int64, fn func(*Session)) {
	s.ForEach(func(sess *Session) {
		if sess.Watching() == battleID {
			fn(sess)
		}
	})
}
