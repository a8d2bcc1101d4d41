// Package storage holds in-memory sessions keyed by an id.
package storage

import (
	"sync"
)

type SessionStore[K comparable, V any] struct {
	sessions map[K]V
	mu       sync.RWMutex
}

func New[K comparable, V any]() *SessionStore[K, V] {
	return &SessionStore[K, V]{
		sessions: make(map[K]V),
	}
}

func (s *SessionStore[K, V]) Get(id K) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, exists := s.sessions[id]
	return session, exists
}

func (s *SessionStore[K, V]) Set(id K, session V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = session
}

// GetOrCreate returns the session for id, calling create under the lock
// when there is none so concurrent callers share one session.
func (s *SessionStore[K, V]) GetOrCreate(id K, create func() V) V {
	if session, ok := s.Get(id); ok {
		return session
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[id]; ok {
		return session
	}
	session := create()
	s.sessions[id] = session
	return session
}

func (s *SessionStore[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore[K, V]) Delete(id K) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}
