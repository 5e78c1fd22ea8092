// Package sandbox evaluates untrusted code snippets inside an embedded
// Starlark interpreter.
//
// Starlark is a hermetic Python-like language: scripts cannot import
// modules, open files, spawn processes, or otherwise reach the host. That
// makes it a materially safer execution surface than filtering builtins
// around a general-purpose interpreter, but it is still an in-process
// sandbox: runaway CPU is bounded only by the configured deadline and
// memory consumption is not bounded at all. Callers that need hard
// resource isolation must run the evaluator inside a separate process.
package sandbox

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Error kinds reported in Result.Err.
const (
	ErrKindSyntax   = "syntax"   // code failed to parse or resolve
	ErrKindRuntime  = "runtime"  // code raised during execution (incl. fail())
	ErrKindTimeout  = "timeout"  // execution exceeded the deadline
	ErrKindInternal = "internal" // evaluator failure (bad context value, panic)
)

// Error describes a failed evaluation. It is data, not a Go error: the
// evaluator never propagates user-code failures to its caller.
type Error struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Trace   string `json:"trace,omitempty"`
}

func (e *Error) String() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Result is the structured outcome of a single evaluation.
type Result struct {
	// Output is the value bound to the output variable ("out" by default)
	// in the script's globals, or nil if it was never set.
	Output any `json:"output"`
	// Stdout holds everything the script printed.
	Stdout string `json:"stdout"`
	// Stderr holds the error backtrace when evaluation failed.
	Stderr string `json:"stderr"`
	// Elapsed is the wall-clock time spent executing the script.
	Elapsed time.Duration `json:"elapsed"`
	// Err is non-nil when evaluation failed.
	Err *Error `json:"error,omitempty"`
}

// Options configure an Evaluator.
type Options struct {
	// OutputVar names the global the script uses to return a value.
	OutputVar string
	// Timeout bounds a single evaluation. Zero or negative disables the
	// deadline; the caller's context still applies.
	Timeout time.Duration
}

// Evaluator runs code snippets against a fresh namespace per call. It has no
// mutable state and is safe for concurrent use.
type Evaluator struct {
	opts Options
}

// NewEvaluator creates an Evaluator with a 10s default deadline and "out" as
// the output variable.
func NewEvaluator(optFns ...func(o *Options)) *Evaluator {
	opts := Options{
		OutputVar: "out",
		Timeout:   10 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Evaluator{opts: opts}
}

// fileOpts enables the non-core language conveniences (while, set, top-level
// control flow, reassignment, recursion) so snippets read like scripts
// rather than Starlark modules.
var fileOpts = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

// Evaluate runs code with env merged into the execution namespace and
// returns a structured result. Failures of any kind (syntax errors, runtime
// errors, deadline, bad env values) are captured in Result.Err; Evaluate
// itself never returns an error and never panics.
func (e *Evaluator) Evaluate(ctx context.Context, code string, env map[string]any) (res *Result) {
	res = &Result{}

	var stdout strings.Builder

	defer func() {
		if r := recover(); r != nil {
			res.Err = &Error{Kind: ErrKindInternal, Message: fmt.Sprintf("evaluator panic: %v", r)}
			res.Stdout = stdout.String()
		}
	}()

	predeclared := starlark.StringDict{}
	for name, v := range env {
		sv, err := toStarlark(v)
		if err != nil {
			res.Err = &Error{Kind: ErrKindInternal, Message: err.Error()}
			return res
		}
		predeclared[name] = sv
	}

	thread := &starlark.Thread{
		Name: "sandbox",
		Print: func(_ *starlark.Thread, msg string) {
			stdout.WriteString(msg)
			stdout.WriteByte('\n')
		},
	}

	// Cancel the interpreter when the deadline passes or the caller's
	// context is done. Starlark checks for cancellation at loop and call
	// boundaries, so even tight loops terminate.
	var timedOut atomic.Bool

	watchCtx := ctx
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		watchCtx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-watchCtx.Done():
			timedOut.Store(true)
			thread.Cancel("deadline exceeded")
		case <-done:
		}
	}()

	start := time.Now()
	globals, err := starlark.ExecFileOptions(fileOpts, thread, "input.star", code, predeclared)
	res.Elapsed = time.Since(start)
	res.Stdout = stdout.String()

	if err != nil {
		res.Err = classify(err, timedOut.Load())
		res.Stderr = res.Err.Trace
		return res
	}

	if v, ok := globals[e.opts.OutputVar]; ok {
		res.Output = fromStarlark(v)
	}

	return res
}

func classify(err error, timedOut bool) *Error {
	if evalErr, ok := err.(*starlark.EvalError); ok {
		kind := ErrKindRuntime
		if timedOut {
			kind = ErrKindTimeout
		}
		return &Error{
			Kind:    kind,
			Message: evalErr.Msg,
			Trace:   evalErr.Backtrace(),
		}
	}
	// Parse and resolve failures surface before execution starts.
	return &Error{Kind: ErrKindSyntax, Message: err.Error()}
}
