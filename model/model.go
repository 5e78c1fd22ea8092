// Package model defines the provider-neutral interface relay uses to talk
// to language models, plus the unified message / tool-call types shared by
// the OpenAI and Anthropic adapters.
package model

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Settings carry the per-agent generation knobs the descriptor selects.
// Providers apply what they support and ignore the rest.
type Settings struct {
	// ReasoningEffort is one of "minimal", "low", "medium", "high".
	ReasoningEffort string `json:"reasoning_effort,omitempty"`
	// Verbosity is one of "low", "medium", "high".
	Verbosity string `json:"verbosity,omitempty"`
}

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is a single conversation turn in provider-neutral form.
type Message struct {
	// Role is "system", "user", "assistant" or "tool".
	Role    string `json:"role"`
	Content string `json:"content"`
	// ToolCalls is set on assistant messages that request tool execution.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	// ToolCallID links a tool-role message back to the call it answers.
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// ToolCall represents a function call request surfaced by a model provider.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolDefinition declaratively exposes a callable function to the model.
// Parameters is a minimal JSON Schema object.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request captures a normalized completion request.
type Request struct {
	Model        string           `json:"model"`
	Instructions string           `json:"instructions,omitempty"`
	Messages     []Message        `json:"messages"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
	Settings     Settings         `json:"settings"`
}

// TokenUsage captures token accounting for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the final completion produced for a Request.
type Response struct {
	Content      string     `json:"content"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
	FinishReason string     `json:"finish_reason"`
	Usage        TokenUsage `json:"usage"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Provider      string `json:"provider"` // "openai", "anthropic", "mock"
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface the runner needs to drive generation.
type Model interface {
	Complete(ctx context.Context, req Request) (*Response, error)
	Info() Info
}

// MockModel is a lightweight in-memory Model for tests and examples. It
// matches canned responses against the latest user/tool message and can be
// scripted to request tool calls.
type MockModel struct {
	responses map[string]string
	toolCalls map[string][]ToolCall
	calls     []Request
}

// NewMockModel constructs an empty MockModel.
func NewMockModel() *MockModel {
	return &MockModel{
		responses: make(map[string]string),
		toolCalls: make(map[string][]ToolCall),
	}
}

// AddResponse registers a deterministic completion for an input message.
func (m *MockModel) AddResponse(input, response string) { m.responses[input] = response }

// AddToolCalls scripts the model to request the given tool calls when it
// sees the input message.
func (m *MockModel) AddToolCalls(input string, calls ...ToolCall) { m.toolCalls[input] = calls }

// Requests returns every request seen so far, in order.
func (m *MockModel) Requests() []Request { return m.calls }

// Complete implements Model.
func (m *MockModel) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("no messages provided")
	}

	m.calls = append(m.calls, req)

	last := req.Messages[len(req.Messages)-1].Content

	if calls, ok := m.toolCalls[last]; ok {
		delete(m.toolCalls, last) // one-shot, so the follow-up turn completes
		return &Response{ToolCalls: calls, FinishReason: "tool_calls"}, nil
	}

	if resp, ok := m.responses[last]; ok {
		return &Response{Content: resp, FinishReason: "stop"}, nil
	}

	return &Response{Content: "mock response to: " + strings.TrimSpace(last), FinishReason: "stop"}, nil
}

// Info implements Model.
func (m *MockModel) Info() Info {
	return Info{Provider: "mock", SupportsTools: true}
}
