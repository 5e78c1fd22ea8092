// Package agent defines agent descriptors, their builders, and the registry
// that memoizes construction.
//
// A Descriptor is a configuration bundle (instructions, model choice,
// tools, handoffs, lifecycle hooks) describing one conversational role. It
// carries no runtime state: execution belongs to the runner.
package agent

import (
	"github.com/relabs-ai/relay/guardrail"
	"github.com/relabs-ai/relay/model"
	"github.com/relabs-ai/relay/tool"
)

// Tier names for model selection. Fast suits quick low-complexity tasks,
// Core balances speed and detail, Expert adds depth for complex queries.
const (
	TierFast   = "fast"
	TierCore   = "core"
	TierExpert = "expert"
)

// Tiers maps tier names to model identifiers.
type Tiers map[string]string

// DefaultTiers returns the stock tier -> model mapping.
func DefaultTiers() Tiers {
	return Tiers{
		TierFast:   "gpt-5-nano",
		TierCore:   "gpt-5-mini",
		TierExpert: "gpt-5",
	}
}

// Model resolves a tier name, falling back to the core tier for unknown names.
func (t Tiers) Model(tier string) string {
	if id, ok := t[tier]; ok {
		return id
	}
	return t[TierCore]
}

// Settings presets combining reasoning effort and verbosity. Brief focuses
// on concise responses, Standard balances detail and brevity, Detailed
// provides in-depth analysis.
var settingsMatrix = map[string]model.Settings{
	"brief-min":     {ReasoningEffort: "minimal", Verbosity: "low"},
	"brief-low":     {ReasoningEffort: "low", Verbosity: "low"},
	"brief-med":     {ReasoningEffort: "medium", Verbosity: "low"},
	"brief-high":    {ReasoningEffort: "high", Verbosity: "low"},
	"standard-min":  {ReasoningEffort: "minimal", Verbosity: "medium"},
	"standard-low":  {ReasoningEffort: "low", Verbosity: "medium"},
	"standard-med":  {ReasoningEffort: "medium", Verbosity: "medium"},
	"standard-high": {ReasoningEffort: "high", Verbosity: "medium"},
	"detailed-min":  {ReasoningEffort: "minimal", Verbosity: "high"},
	"detailed-low":  {ReasoningEffort: "low", Verbosity: "high"},
	"detailed-med":  {ReasoningEffort: "medium", Verbosity: "high"},
	"detailed-high": {ReasoningEffort: "high", Verbosity: "high"},
}

// SettingsPreset returns the named effort/verbosity preset, defaulting to
// standard-med for unknown names.
func SettingsPreset(name string) model.Settings {
	if s, ok := settingsMatrix[name]; ok {
		return s
	}
	return settingsMatrix["standard-med"]
}

// Handoff names another agent the conversation can be delegated to.
type Handoff struct {
	// Name is the target's registry key.
	Name string
	// Description tells the model when the handoff is appropriate.
	Description string
}

// Descriptor is an immutable agent configuration. Identity matters for
// caching: resolving the same name yields the same instance until an
// explicit refresh.
type Descriptor struct {
	// Name is the human-readable agent name.
	Name string
	// Instructions is the resolved system prompt.
	Instructions string
	// Model is the concrete model identifier (tier already applied).
	Model string
	// Settings select reasoning effort and verbosity.
	Settings model.Settings
	// Tools the agent may invoke mid-conversation.
	Tools []tool.Tool
	// Handoffs lists agents this one can transfer the conversation to.
	Handoffs []Handoff
	// HandoffDescription tells a parent agent what this one handles.
	HandoffDescription string
	// Hooks receive lifecycle callbacks during a run. May be nil.
	Hooks Hooks
	// InputGuardrails veto disallowed input before the first model call.
	InputGuardrails []guardrail.Guardrail
	// OutputGuardrails veto disallowed output before it is returned.
	OutputGuardrails []guardrail.Guardrail
}

// Tool returns the named tool and true, or nil and false.
func (d *Descriptor) Tool(name string) (tool.Tool, bool) {
	for _, t := range d.Tools {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

// Handoff returns the named handoff and true, or a zero Handoff and false.
func (d *Descriptor) Handoff(name string) (Handoff, bool) {
	for _, h := range d.Handoffs {
		if h.Name == name {
			return h, true
		}
	}
	return Handoff{}, false
}
