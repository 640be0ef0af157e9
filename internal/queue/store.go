// Package queue implements the admission-control queue for generation
// sessions: a FIFO registry of session identifiers, an advisory capacity
// check, and a polling scheduler that tells a session when its turn comes.
package queue

import (
	"sync"

	"mapforge/internal/domain"
)

// Store is the process-wide ordered registry of active sessions, pending and
// running alike. All methods are safe for concurrent use; each takes the
// store lock so reads observe a consistent snapshot.
type Store struct {
	mu      sync.Mutex
	order   []string
	present map[string]struct{}
}

// NewStore creates an empty session registry.
func NewStore() *Store {
	return &Store{present: make(map[string]struct{})}
}

// Enqueue inserts the session at the tail of the queue. A session that is
// already present is rejected with domain.ErrAlreadyQueued and the store is
// left untouched.
func (s *Store) Enqueue(session string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.present[session]; ok {
		return domain.ErrAlreadyQueued
	}
	s.present[session] = struct{}{}
	s.order = append(s.order, session)
	return nil
}

// Len returns the number of sessions currently registered.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Rank returns the number of sessions enqueued strictly before the given one
// and still present. An absent session yields domain.ErrNotQueued so rank 0
// ("front of the queue") is never conflated with "not queued at all".
func (s *Store) Rank(session string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, id := range s.order {
		if id == session {
			return i, nil
		}
	}
	return 0, domain.ErrNotQueued
}

// Dequeue removes the session if present. Removing an absent session is a
// no-op: cleanup runs on every orchestration exit path, including ones where
// the session never made it into the store.
func (s *Store) Dequeue(session string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.present[session]; !ok {
		return
	}
	delete(s.present, session)
	for i, id := range s.order {
		if id == session {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Admit reports whether a new request should be accepted given the current
// queue length and the configured ceiling. It is evaluated at the submission
// boundary only and is not atomic with Enqueue, so a burst of submissions can
// transiently exceed the ceiling; the throttle is advisory.
func Admit(length, ceiling int) bool {
	return length < ceiling
}
