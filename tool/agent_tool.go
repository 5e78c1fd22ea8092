package tool

import (
	"context"
	"fmt"
)

// RunFunc invokes another agent with a natural-language prompt and returns
// its final output. The runner supplies the implementation; taking a plain
// function here keeps the tool package free of a runner dependency.
type RunFunc func(ctx context.Context, prompt string) (string, error)

// AgentTool exposes an agent as a tool of another agent: the parent calls
// it with a prompt, the target runs a full (recursive) conversation turn
// and its final output becomes the tool result.
type AgentTool struct {
	name        string
	description string
	run         RunFunc
}

// NewAgentTool wraps run as a tool with a single "prompt" argument.
func NewAgentTool(name, description string, run RunFunc) *AgentTool {
	return &AgentTool{name: name, description: description, run: run}
}

// Name returns the unique tool name.
func (t *AgentTool) Name() string { return t.name }

// Description returns the description exposed to models.
func (t *AgentTool) Description() string { return t.description }

// Parameters returns the JSON schema describing expected arguments.
func (t *AgentTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"prompt": map[string]any{
				"type":        "string",
				"description": "Natural language request for the delegated agent",
			},
		},
		"required": []string{"prompt"},
	}
}

// Call runs the delegated agent and returns its final output.
func (t *AgentTool) Call(ctx context.Context, args map[string]any) (any, error) {
	prompt, ok := args["prompt"].(string)
	if !ok || prompt == "" {
		return nil, &ToolError{
			Tool:    t.name,
			Code:    CodeValidation,
			Message: "prompt must be a non-empty string",
		}
	}

	out, err := t.run(ctx, prompt)
	if err != nil {
		return nil, &ToolError{
			Tool:    t.name,
			Code:    CodeExecution,
			Message: fmt.Sprintf("delegated agent failed: %v", err),
			Details: err,
		}
	}

	return out, nil
}
