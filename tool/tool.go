// Package tool defines the callable capabilities agents may invoke
// mid-conversation, plus adapters that expose Go functions, the code
// sandbox, the weather client, the retrieval pipeline and other agents as
// tools.
package tool

import (
	"context"
	"fmt"
)

// Error codes reported by tools.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeExecution  = "EXECUTION_ERROR"
)

// Tool is a callable capability exposed to a model.
type Tool interface {
	// Name is the unique tool identifier (snake_case recommended).
	Name() string
	// Description is shown to models to decide when to call the tool.
	Description() string
	// Parameters is a minimal JSON schema describing accepted arguments.
	Parameters() map[string]any
	// Call invokes the tool with already-decoded arguments.
	Call(ctx context.Context, args map[string]any) (any, error)
}

// ToolError normalizes tool failures with a stable code for downstream
// handling.
type ToolError struct {
	Tool    string `json:"tool"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details error  `json:"-"`
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %s failed [%s]: %s", e.Tool, e.Code, e.Message)
}

// Unwrap exposes the underlying error, if any.
func (e *ToolError) Unwrap() error { return e.Details }
