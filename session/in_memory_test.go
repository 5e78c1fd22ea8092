package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-ai/relay/model"
)

func TestInMemoryStoreAppendCreates(t *testing.T) {
	s := NewInMemoryStore()

	_, err := s.Get("s1")
	assert.ErrorIs(t, err, ErrNotFound)

	sess, err := s.Append("s1", "meta", model.Message{Role: model.RoleUser, Content: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "s1", sess.ID)
	assert.Equal(t, "meta", sess.Agent)
	require.Len(t, sess.Messages, 1)
	assert.False(t, sess.Created.IsZero())

	sess, err = s.Append("s1", "", model.Message{Role: model.RoleAssistant, Content: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "meta", sess.Agent, "empty agent keeps the previous value")
	assert.Len(t, sess.Messages, 2)

	got, err := s.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Messages[1].Content)
}

func TestInMemoryStoreReturnsClones(t *testing.T) {
	s := NewInMemoryStore()

	_, err := s.Append("s1", "chat", model.Message{Role: model.RoleUser, Content: "hi"})
	require.NoError(t, err)

	got, err := s.Get("s1")
	require.NoError(t, err)
	got.Messages[0].Content = "mutated"

	again, err := s.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, "hi", again.Messages[0].Content)
}

func TestInMemoryStoreDeleteAndIDs(t *testing.T) {
	s := NewInMemoryStore()

	for _, id := range []string{"b", "a"} {
		_, err := s.Append(id, "chat", model.Message{Role: model.RoleUser, Content: "x"})
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"a", "b"}, s.IDs())

	require.NoError(t, s.Delete("a"))
	require.NoError(t, s.Delete("missing"))
	assert.Equal(t, []string{"b"}, s.IDs())
}
