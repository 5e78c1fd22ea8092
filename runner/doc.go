// Package runner drives agent conversations: it resolves an agent from the
// registry, screens input through guardrails, loops between model
// completions and tool executions, follows transfer_to_agent handoffs,
// screens the final output, and records the whole run as trace spans.
//
// The Runner is deliberately thin. Agents are plain descriptors; all
// execution state lives in the per-run transcript, so public methods are
// safe for concurrent use.
package runner
