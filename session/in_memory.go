package session

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/relabs-ai/relay/model"
)

// InMemoryStore is a volatile Store keeping sessions in a process local
// map. Returned sessions are clones, so callers cannot mutate internal
// state. Best suited for tests and single-process deployments; transcripts
// are lost on restart and memory is not bounded.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Get returns a clone of the session for id.
func (s *InMemoryStore) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return sess.Clone(), nil
}

// Append adds messages to the session transcript, creating the session on
// first use, and returns a clone of the updated session.
func (s *InMemoryStore) Append(id, agent string, messages ...model.Message) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sess, ok := s.sessions[id]
	if !ok {
		sess = &Session{ID: id, Created: now}
		s.sessions[id] = sess
	}
	sess.Messages = append(sess.Messages, messages...)
	if agent != "" {
		sess.Agent = agent
	}
	sess.Updated = now

	return sess.Clone(), nil
}

// Delete removes the session for id.
func (s *InMemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

// IDs returns the known session ids in sorted order.
func (s *InMemoryStore) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
