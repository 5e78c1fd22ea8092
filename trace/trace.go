// Package trace records runner lifecycle events as newline-delimited JSON.
// Each run opens a trace; model calls, tool calls, guardrail checks and
// handoffs open spans inside it. Long field values are truncated so the log
// stays scannable.
package trace

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/relabs-ai/relay/internal/util"
)

// Span kinds.
const (
	KindAgent     = "agent"
	KindModel     = "model"
	KindTool      = "tool"
	KindGuardrail = "guardrail"
	KindHandoff   = "handoff"
)

// Event is one JSONL record.
type Event struct {
	Time    time.Time      `json:"time"`
	Type    string         `json:"type"` // trace_start, trace_end, span_start, span_end
	TraceID string         `json:"trace_id"`
	SpanID  string         `json:"span_id,omitempty"`
	Kind    string         `json:"kind,omitempty"`
	Name    string         `json:"name,omitempty"`
	// DurationMS is set on end events.
	DurationMS int64          `json:"duration_ms,omitempty"`
	Error      string         `json:"error,omitempty"`
	Fields     map[string]any `json:"fields,omitempty"`
}

// Options configure a Writer.
type Options struct {
	// MaxFieldLen truncates string field values longer than this.
	MaxFieldLen int
}

// Writer appends events to an io.Writer, one JSON object per line. Safe for
// concurrent use.
type Writer struct {
	mu   sync.Mutex
	out  io.Writer
	opts Options
}

// NewWriter creates a Writer. A nil out discards events.
func NewWriter(out io.Writer, optFns ...func(o *Options)) *Writer {
	opts := Options{MaxFieldLen: 2000}
	for _, fn := range optFns {
		fn(&opts)
	}
	if out == nil {
		out = io.Discard
	}
	return &Writer{out: out, opts: opts}
}

// NewFileWriter creates a Writer appending to the file at path.
func NewFileWriter(path string, optFns ...func(o *Options)) (*Writer, func() error, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open trace log: %w", err)
	}
	return NewWriter(f, optFns...), f.Close, nil
}

// Trace is one top-level run.
type Trace struct {
	ID   string
	Name string

	w     *Writer
	start time.Time
}

// Span is one timed operation inside a trace.
type Span struct {
	ID   string
	Kind string
	Name string

	trace *Trace
	start time.Time
}

// StartTrace opens a trace and writes its start event.
func (w *Writer) StartTrace(name string, fields map[string]any) *Trace {
	t := &Trace{
		ID:    util.NewPrefixedID("trace"),
		Name:  name,
		w:     w,
		start: time.Now(),
	}
	w.emit(Event{
		Time:    t.start,
		Type:    "trace_start",
		TraceID: t.ID,
		Name:    name,
		Fields:  w.truncateFields(fields),
	})
	return t
}

// End closes the trace. err may be nil.
func (t *Trace) End(err error, fields map[string]any) {
	t.w.emit(Event{
		Time:       time.Now(),
		Type:       "trace_end",
		TraceID:    t.ID,
		Name:       t.Name,
		DurationMS: time.Since(t.start).Milliseconds(),
		Error:      errString(err),
		Fields:     t.w.truncateFields(fields),
	})
}

// StartSpan opens a span inside the trace and writes its start event.
func (t *Trace) StartSpan(kind, name string, fields map[string]any) *Span {
	s := &Span{
		ID:    util.NewPrefixedID("span"),
		Kind:  kind,
		Name:  name,
		trace: t,
		start: time.Now(),
	}
	t.w.emit(Event{
		Time:    s.start,
		Type:    "span_start",
		TraceID: t.ID,
		SpanID:  s.ID,
		Kind:    kind,
		Name:    name,
		Fields:  t.w.truncateFields(fields),
	})
	return s
}

// End closes the span. err may be nil.
func (s *Span) End(err error, fields map[string]any) {
	s.trace.w.emit(Event{
		Time:       time.Now(),
		Type:       "span_end",
		TraceID:    s.trace.ID,
		SpanID:     s.ID,
		Kind:       s.Kind,
		Name:       s.Name,
		DurationMS: time.Since(s.start).Milliseconds(),
		Error:      errString(err),
		Fields:     s.trace.w.truncateFields(fields),
	})
}

func (w *Writer) emit(ev Event) {
	line, err := json.Marshal(ev)
	if err != nil {
		// Field extraction is best effort; drop the fields rather than the
		// event.
		ev.Fields = map[string]any{"marshal_error": err.Error()}
		line, err = json.Marshal(ev)
		if err != nil {
			return
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.out.Write(append(line, '\n'))
}

// truncateFields copies fields, cutting long string values to MaxFieldLen.
func (w *Writer) truncateFields(fields map[string]any) map[string]any {
	if len(fields) == 0 {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if s, ok := v.(string); ok && len(s) > w.opts.MaxFieldLen {
			out[k] = s[:w.opts.MaxFieldLen] + "...(truncated)"
			continue
		}
		out[k] = v
	}
	return out
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
