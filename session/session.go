package session

import (
	"errors"
	"time"

	"github.com/relabs-ai/relay/model"
)

// ErrNotFound is returned when no session exists for the given id.
var ErrNotFound = errors.New("session not found")

// Session is a conversation transcript. Agent records which agent last
// handled the conversation.
type Session struct {
	ID       string          `json:"id"`
	Agent    string          `json:"agent,omitempty"`
	Messages []model.Message `json:"messages"`
	Created  time.Time       `json:"created"`
	Updated  time.Time       `json:"updated"`
}

// Clone returns a deep enough copy that callers can mutate the message
// slice without affecting stored state.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Messages = make([]model.Message, len(s.Messages))
	copy(cp.Messages, s.Messages)
	return &cp
}

// Store persists conversation sessions. Implementations must be safe for
// concurrent use.
type Store interface {
	// Get returns the session for id, or an error wrapping ErrNotFound.
	Get(id string) (*Session, error)
	// Append creates the session on first use and appends messages to its
	// transcript, returning the updated session.
	Append(id, agent string, messages ...model.Message) (*Session, error)
	// Delete removes the session. Deleting an unknown id is not an error.
	Delete(id string) error
	// IDs lists the known session ids.
	IDs() []string
}
