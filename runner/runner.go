package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/relabs-ai/relay/agent"
	"github.com/relabs-ai/relay/guardrail"
	"github.com/relabs-ai/relay/logging"
	"github.com/relabs-ai/relay/model"
	"github.com/relabs-ai/relay/trace"
)

// HandoffToolName is the synthetic tool models call to transfer the
// conversation to another agent.
const HandoffToolName = "transfer_to_agent"

// Options holds dependency and configuration overrides passed to New().
type Options struct {
	// MaxTurns limits model calls per run, counting calls made after
	// handoffs.
	MaxTurns int
	Logger   logging.Logger
	// Tracer records run lifecycle events. Defaults to a discarding writer.
	Tracer *trace.Writer
}

// RunResult is the outcome of a completed run.
type RunResult struct {
	// FinalOutput is the agent's last assistant message content.
	FinalOutput string `json:"final_output"`
	// Messages is the full transcript, suitable as input to a follow-up
	// run.
	Messages []model.Message `json:"messages"`
	// AgentName is the agent that produced the final output, which differs
	// from the requested agent after a handoff.
	AgentName string `json:"agent_name"`
}

// Runner executes conversations against registered agents.
type Runner struct {
	registry *agent.Registry
	m        model.Model

	maxTurns int
	logger   logging.Logger
	tracer   *trace.Writer
}

// New constructs a Runner over a registry and a model provider.
func New(registry *agent.Registry, m model.Model, optFns ...func(o *Options)) *Runner {
	opts := Options{
		MaxTurns: 10,
		Logger:   logging.NoOpLogger{},
		Tracer:   trace.NewWriter(nil),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Runner{
		registry: registry,
		m:        m,
		maxTurns: opts.MaxTurns,
		logger:   opts.Logger,
		tracer:   opts.Tracer,
	}
}

// Run resolves agentName and drives the conversation until the agent
// produces a final output or the turn budget is exhausted. messages is not
// mutated.
func (r *Runner) Run(ctx context.Context, agentName string, messages []model.Message) (*RunResult, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("no input messages")
	}

	desc, err := r.registry.Resolve(ctx, agentName)
	if err != nil {
		return nil, err
	}

	tr := r.tracer.StartTrace("agent_run", map[string]any{
		"agent": desc.Name,
		"input": lastUserContent(messages),
	})

	result, err := r.run(ctx, tr, desc, messages)
	if err != nil {
		tr.End(err, nil)
		return nil, err
	}

	tr.End(nil, map[string]any{"output": result.FinalOutput})
	return result, nil
}

// RunFuncFor returns a function that runs the named agent on a single
// prompt, for wiring agents up as tools of other agents.
func (r *Runner) RunFuncFor(agentName string) func(ctx context.Context, prompt string) (string, error) {
	return func(ctx context.Context, prompt string) (string, error) {
		result, err := r.Run(ctx, agentName, []model.Message{
			{Role: model.RoleUser, Content: prompt},
		})
		if err != nil {
			return "", err
		}
		return result.FinalOutput, nil
	}
}

func (r *Runner) run(ctx context.Context, tr *trace.Trace, desc *agent.Descriptor, messages []model.Message) (*RunResult, error) {
	hooks := desc.Hooks
	if hooks == nil {
		hooks = agent.NoopHooks{}
	}
	hooks.OnStart(ctx, desc.Name)

	if err := r.checkGuardrails(ctx, tr, desc.InputGuardrails, "input", lastUserContent(messages)); err != nil {
		return nil, err
	}

	conversation := append([]model.Message(nil), messages...)

	for turn := 0; turn < r.maxTurns; turn++ {
		resp, err := r.complete(ctx, tr, desc, conversation)
		if err != nil {
			return nil, err
		}

		if len(resp.ToolCalls) == 0 {
			if err := r.checkGuardrails(ctx, tr, desc.OutputGuardrails, "output", resp.Content); err != nil {
				return nil, err
			}

			conversation = append(conversation, model.Message{
				Role:    model.RoleAssistant,
				Content: resp.Content,
			})
			hooks.OnEnd(ctx, desc.Name, resp.Content)

			return &RunResult{
				FinalOutput: resp.Content,
				Messages:    conversation,
				AgentName:   desc.Name,
			}, nil
		}

		conversation = append(conversation, model.Message{
			Role:      model.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, call := range resp.ToolCalls {
			if call.Name == HandoffToolName {
				target, err := r.handoff(ctx, tr, desc, call)
				if err != nil {
					return nil, err
				}
				conversation = append(conversation, model.Message{
					Role:       model.RoleTool,
					Content:    fmt.Sprintf("transferred to agent %q", target.Name),
					ToolCallID: call.ID,
				})
				desc = target
				hooks = desc.Hooks
				if hooks == nil {
					hooks = agent.NoopHooks{}
				}
				continue
			}

			result := r.callTool(ctx, tr, hooks, desc, call)
			conversation = append(conversation, model.Message{
				Role:       model.RoleTool,
				Content:    result,
				ToolCallID: call.ID,
			})
		}
	}

	return nil, fmt.Errorf("agent %q exceeded %d turns without a final output", desc.Name, r.maxTurns)
}

// complete performs one traced model call with the descriptor's tool
// surface attached.
func (r *Runner) complete(ctx context.Context, tr *trace.Trace, desc *agent.Descriptor, conversation []model.Message) (*model.Response, error) {
	req := model.Request{
		Model:        desc.Model,
		Instructions: desc.Instructions,
		Messages:     conversation,
		Tools:        toolDefinitions(desc),
		Settings:     desc.Settings,
	}

	span := tr.StartSpan(trace.KindModel, desc.Model, map[string]any{"agent": desc.Name})
	start := time.Now()
	resp, err := r.m.Complete(ctx, req)
	logging.LogModelCall(r.logger, desc.Model, time.Since(start), err)
	if err != nil {
		span.End(err, nil)
		return nil, fmt.Errorf("model call for agent %q: %w", desc.Name, err)
	}
	span.End(nil, map[string]any{
		"finish_reason": resp.FinishReason,
		"tool_calls":    len(resp.ToolCalls),
		"total_tokens":  resp.Usage.TotalTokens,
	})
	return resp, nil
}

// callTool executes one tool call. Failures become the tool result rather
// than aborting the run, so the model can recover.
func (r *Runner) callTool(ctx context.Context, tr *trace.Trace, hooks agent.Hooks, desc *agent.Descriptor, call model.ToolCall) string {
	t, ok := desc.Tool(call.Name)
	if !ok {
		r.logger.Warn("model requested unknown tool", "agent", desc.Name, "tool", call.Name)
		return fmt.Sprintf("error: unknown tool %q", call.Name)
	}

	args := map[string]any{}
	if len(call.Arguments) > 0 {
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return fmt.Sprintf("error: invalid tool arguments: %v", err)
		}
	}

	hooks.OnToolStart(ctx, desc.Name, call.Name)
	span := tr.StartSpan(trace.KindTool, call.Name, map[string]any{
		"agent":     desc.Name,
		"arguments": string(call.Arguments),
	})

	start := time.Now()
	out, err := t.Call(ctx, args)
	logging.LogToolCall(r.logger, call.Name, time.Since(start), err)
	if err != nil {
		span.End(err, nil)
		hooks.OnToolEnd(ctx, desc.Name, call.Name, err.Error())
		return fmt.Sprintf("error: %v", err)
	}

	rendered := renderToolResult(out)
	span.End(nil, map[string]any{"result": rendered})
	hooks.OnToolEnd(ctx, desc.Name, call.Name, rendered)
	return rendered
}

// handoff resolves the transfer target named in the call's arguments.
func (r *Runner) handoff(ctx context.Context, tr *trace.Trace, from *agent.Descriptor, call model.ToolCall) (*agent.Descriptor, error) {
	var args struct {
		Agent string `json:"agent"`
	}
	if err := json.Unmarshal(call.Arguments, &args); err != nil {
		return nil, fmt.Errorf("invalid handoff arguments: %w", err)
	}

	if _, ok := from.Handoff(args.Agent); !ok {
		return nil, fmt.Errorf("agent %q cannot hand off to %q", from.Name, args.Agent)
	}

	target, err := r.registry.Resolve(ctx, args.Agent)
	if err != nil {
		return nil, fmt.Errorf("resolve handoff target: %w", err)
	}

	span := tr.StartSpan(trace.KindHandoff, args.Agent, map[string]any{"from": from.Name})
	span.End(nil, nil)

	if target.Hooks != nil {
		target.Hooks.OnHandoff(ctx, target.Name, from.Name)
	}
	r.logger.Info("handoff", "from", from.Name, "to", target.Name)
	return target, nil
}

func (r *Runner) checkGuardrails(ctx context.Context, tr *trace.Trace, guardrails []guardrail.Guardrail, stage, text string) error {
	for _, g := range guardrails {
		span := tr.StartSpan(trace.KindGuardrail, g.Name(), map[string]any{"stage": stage})

		verdict, err := g.Check(ctx, text)
		if err != nil {
			span.End(err, nil)
			return err
		}
		span.End(nil, map[string]any{"allowed": verdict.Allowed})

		if !verdict.Allowed {
			return &guardrail.TripError{Guardrail: g.Name(), Stage: stage, Reason: verdict.Reason}
		}
	}
	return nil
}

// toolDefinitions builds the model-facing tool surface, including the
// synthetic handoff tool when the descriptor declares handoffs.
func toolDefinitions(desc *agent.Descriptor) []model.ToolDefinition {
	defs := make([]model.ToolDefinition, 0, len(desc.Tools)+1)
	for _, t := range desc.Tools {
		defs = append(defs, model.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}

	if len(desc.Handoffs) > 0 {
		names := make([]string, len(desc.Handoffs))
		var b strings.Builder
		b.WriteString("Transfer the conversation to another agent. Available agents: ")
		for i, h := range desc.Handoffs {
			names[i] = h.Name
			if i > 0 {
				b.WriteString("; ")
			}
			fmt.Fprintf(&b, "%s (%s)", h.Name, h.Description)
		}
		defs = append(defs, model.ToolDefinition{
			Name:        HandoffToolName,
			Description: b.String(),
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"agent": map[string]any{
						"type":        "string",
						"enum":        names,
						"description": "Name of the agent to transfer to",
					},
				},
				"required": []string{"agent"},
			},
		})
	}
	return defs
}

// renderToolResult converts a tool's return value to message content.
func renderToolResult(out any) string {
	switch v := out.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}

// lastUserContent returns the content of the most recent user message.
func lastUserContent(messages []model.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == model.RoleUser {
			return messages[i].Content
		}
	}
	return ""
}
