package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockModelCannedResponse(t *testing.T) {
	m := NewMockModel()
	m.AddResponse("hi", "hello!")

	resp, err := m.Complete(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello!", resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
}

func TestMockModelMatchesLastMessage(t *testing.T) {
	m := NewMockModel()
	m.AddResponse("first", "a")
	m.AddResponse("second", "b")

	resp, err := m.Complete(context.Background(), Request{
		Messages: []Message{
			{Role: RoleUser, Content: "first"},
			{Role: RoleAssistant, Content: "a"},
			{Role: RoleUser, Content: "second"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "b", resp.Content)
}

func TestMockModelToolCallsAreOneShot(t *testing.T) {
	m := NewMockModel()
	m.AddToolCalls("do it", ToolCall{ID: "c1", Name: "sum", Arguments: []byte(`{"a":1}`)})

	resp, err := m.Complete(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "do it"}},
	})
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "tool_calls", resp.FinishReason)

	// Same input again falls through to a plain completion.
	resp, err = m.Complete(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "do it"}},
	})
	require.NoError(t, err)
	assert.Empty(t, resp.ToolCalls)
}

func TestMockModelDefaultsAndErrors(t *testing.T) {
	m := NewMockModel()

	resp, err := m.Complete(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "anything"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "mock response to: anything", resp.Content)

	_, err = m.Complete(context.Background(), Request{})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Complete(ctx, Request{Messages: []Message{{Role: RoleUser, Content: "x"}}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMockModelRecordsRequests(t *testing.T) {
	m := NewMockModel()

	_, err := m.Complete(context.Background(), Request{
		Model:    "mock",
		Messages: []Message{{Role: RoleUser, Content: "one"}},
	})
	require.NoError(t, err)

	require.Len(t, m.Requests(), 1)
	assert.Equal(t, "mock", m.Requests()[0].Model)
	assert.True(t, m.Info().SupportsTools)
}
