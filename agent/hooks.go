package agent

import (
	"context"

	"github.com/relabs-ai/relay/logging"
)

// Hooks receive callbacks on lifecycle events for a specific agent. Embed
// NoopHooks and override the methods you need.
type Hooks interface {
	// OnStart is called before the agent's first model call of a run.
	OnStart(ctx context.Context, agentName string)
	// OnEnd is called when the agent produces a final output.
	OnEnd(ctx context.Context, agentName, output string)
	// OnHandoff is called on the target when a conversation is handed off.
	OnHandoff(ctx context.Context, agentName, sourceName string)
	// OnToolStart is called before a tool invocation.
	OnToolStart(ctx context.Context, agentName, toolName string)
	// OnToolEnd is called after a tool invocation with its rendered result.
	OnToolEnd(ctx context.Context, agentName, toolName, result string)
}

// NoopHooks implements Hooks with no behavior.
type NoopHooks struct{}

// OnStart implements Hooks.
func (NoopHooks) OnStart(context.Context, string) {}

// OnEnd implements Hooks.
func (NoopHooks) OnEnd(context.Context, string, string) {}

// OnHandoff implements Hooks.
func (NoopHooks) OnHandoff(context.Context, string, string) {}

// OnToolStart implements Hooks.
func (NoopHooks) OnToolStart(context.Context, string, string) {}

// OnToolEnd implements Hooks.
func (NoopHooks) OnToolEnd(context.Context, string, string, string) {}

// LoggerHooks logs every lifecycle event through a logging.Logger.
type LoggerHooks struct {
	Logger logging.Logger
}

// NewLoggerHooks creates hooks that log lifecycle events.
func NewLoggerHooks(logger logging.Logger) *LoggerHooks {
	return &LoggerHooks{Logger: logger}
}

// OnStart implements Hooks.
func (h *LoggerHooks) OnStart(_ context.Context, agentName string) {
	h.Logger.Info("agent starting", "agent", agentName)
}

// OnEnd implements Hooks.
func (h *LoggerHooks) OnEnd(_ context.Context, agentName, _ string) {
	h.Logger.Info("agent finished", "agent", agentName)
}

// OnHandoff implements Hooks.
func (h *LoggerHooks) OnHandoff(_ context.Context, agentName, sourceName string) {
	h.Logger.Info("handoff", "from", sourceName, "to", agentName)
}

// OnToolStart implements Hooks.
func (h *LoggerHooks) OnToolStart(_ context.Context, agentName, toolName string) {
	h.Logger.Info("tool started", "agent", agentName, "tool", toolName)
}

// OnToolEnd implements Hooks.
func (h *LoggerHooks) OnToolEnd(_ context.Context, agentName, toolName, _ string) {
	h.Logger.Info("tool ended", "agent", agentName, "tool", toolName)
}
