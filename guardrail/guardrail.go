// Package guardrail screens agent input and output. A guardrail inspects
// text and returns a verdict; a disallowed verdict makes the runner abort
// the turn with a typed error instead of surfacing the text.
package guardrail

import (
	"context"
	"fmt"
)

// Verdict is the outcome of a guardrail check.
type Verdict struct {
	// Allowed reports whether the text may pass.
	Allowed bool `json:"allowed"`
	// Reason explains a rejection and is shown to the caller.
	Reason string `json:"reason,omitempty"`
}

// Guardrail screens a piece of text.
type Guardrail interface {
	// Name identifies the guardrail in errors and traces.
	Name() string
	// Check inspects text and returns a verdict. An error means the check
	// itself failed, not that the text was rejected.
	Check(ctx context.Context, text string) (*Verdict, error)
}

// TripError is returned by the runner when a guardrail rejects text.
type TripError struct {
	Guardrail string
	Stage     string // "input" or "output"
	Reason    string
}

// Error implements the error interface.
func (e *TripError) Error() string {
	return fmt.Sprintf("%s guardrail %q rejected the %s: %s", e.Stage, e.Guardrail, e.Stage, e.Reason)
}

// Func adapts a plain function to the Guardrail interface.
type Func struct {
	GuardrailName string
	CheckFunc     func(ctx context.Context, text string) (*Verdict, error)
}

// Name implements Guardrail.
func (f *Func) Name() string { return f.GuardrailName }

// Check implements Guardrail.
func (f *Func) Check(ctx context.Context, text string) (*Verdict, error) {
	return f.CheckFunc(ctx, text)
}
