package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/relabs-ai/relay/guardrail"
	"github.com/relabs-ai/relay/logging"
	"github.com/relabs-ai/relay/model"
	"github.com/relabs-ai/relay/prompt"
	"github.com/relabs-ai/relay/retrieval"
	"github.com/relabs-ai/relay/sandbox"
	"github.com/relabs-ai/relay/tool"
	"github.com/relabs-ai/relay/weather"
)

// Deps bundle the collaborators agent builders draw from. Registration is
// explicit: call RegisterDefaults (or Register individual builders) at
// startup instead of relying on import side effects.
type Deps struct {
	// Prompts loads agent instructions by name.
	Prompts *prompt.Store
	// Tiers maps tier names to model ids.
	Tiers Tiers
	// Weather backs the weather agent's tools.
	Weather *weather.Client
	// Sandbox backs the code agent's interpreter tool.
	Sandbox *sandbox.Evaluator
	// Retrieval backs the document search tool. Optional.
	Retrieval *retrieval.Pipeline
	// GuardrailModel is the provider classifier guardrails run on.
	GuardrailModel model.Model
	// GuardrailModelID pins classifier requests to a model id, typically
	// the fast tier. Empty uses the provider default.
	GuardrailModelID string
	// RunAgent turns a registered agent into a tool of another agent. The
	// application wires this to the runner.
	RunAgent func(name string) func(ctx context.Context, prompt string) (string, error)
	Logger   logging.Logger
}

// Default agent names.
const (
	NameChat     = "chat"
	NamePlanning = "planning"
	NameWeather  = "weather"
	NameCode     = "code"
	NameRouter   = "router"
	NameMeta     = "meta"
)

// RegisterDefaults registers the stock agents: chat, planning, weather,
// code, router and meta.
func RegisterDefaults(r *Registry, deps Deps) {
	if deps.Tiers == nil {
		deps.Tiers = DefaultTiers()
	}
	if deps.Logger == nil {
		deps.Logger = logging.NoOpLogger{}
	}

	r.Register(NameChat, ChatBuilder(deps))
	r.Register(NamePlanning, PlanningBuilder(deps))
	r.Register(NameWeather, WeatherBuilder(deps))
	r.Register(NameCode, CodeBuilder(deps))
	r.Register(NameRouter, RouterBuilder(deps))
	r.Register(NameMeta, MetaBuilder(deps))
}

func instructions(deps Deps, name string, values map[string]string) (string, error) {
	if deps.Prompts == nil {
		return "", fmt.Errorf("no prompt store configured")
	}
	text, err := deps.Prompts.Load(name, values)
	if err != nil {
		return "", fmt.Errorf("load instructions: %w", err)
	}
	return text, nil
}

// ChatBuilder builds the conversational agent.
func ChatBuilder(deps Deps) Builder {
	return func(ctx context.Context) (*Descriptor, error) {
		text, err := instructions(deps, "chat_agent", nil)
		if err != nil {
			return nil, err
		}
		return &Descriptor{
			Name:               NameChat,
			Instructions:       text,
			Model:              deps.Tiers.Model(TierCore),
			Settings:           SettingsPreset("standard-min"),
			HandoffDescription: "Handles general conversational tasks.",
			Hooks:              NewLoggerHooks(deps.Logger),
		}, nil
	}
}

// PlanningBuilder builds the task planning agent.
func PlanningBuilder(deps Deps) Builder {
	return func(ctx context.Context) (*Descriptor, error) {
		text, err := instructions(deps, "planning_agent", nil)
		if err != nil {
			return nil, err
		}
		return &Descriptor{
			Name:               NamePlanning,
			Instructions:       text,
			Model:              deps.Tiers.Model(TierCore),
			Settings:           SettingsPreset("standard-med"),
			HandoffDescription: "Handles task planning and organization.",
			Hooks:              NewLoggerHooks(deps.Logger),
		}, nil
	}
}

// WeatherBuilder builds the weather agent with the full Open-Meteo tool
// surface.
func WeatherBuilder(deps Deps) Builder {
	return func(ctx context.Context) (*Descriptor, error) {
		text, err := instructions(deps, "weather_agent", nil)
		if err != nil {
			return nil, err
		}
		if deps.Weather == nil {
			return nil, fmt.Errorf("no weather client configured")
		}
		return &Descriptor{
			Name:         NameWeather,
			Instructions: text,
			Model:        deps.Tiers.Model(TierFast),
			Settings:     SettingsPreset("standard-med"),
			Tools: []tool.Tool{
				tool.NewCurrentWeatherTool(deps.Weather),
				tool.NewDailyForecastTool(deps.Weather),
				tool.NewHourlyForecastTool(deps.Weather),
				tool.NewAirQualityTool(deps.Weather),
				tool.NewMarineForecastTool(deps.Weather),
				tool.NewGeocodeTool(deps.Weather),
				tool.NewHistoricalWeatherTool(deps.Weather),
				tool.NewHistoricalForecastTool(deps.Weather),
				tool.NewWeatherBundleTool(deps.Weather),
			},
			HandoffDescription: "Handles weather-related queries and can call weather tools.",
			Hooks:              NewLoggerHooks(deps.Logger),
		}, nil
	}
}

// CodeBuilder builds the code execution agent.
func CodeBuilder(deps Deps) Builder {
	return func(ctx context.Context) (*Descriptor, error) {
		text, err := instructions(deps, "code_agent", nil)
		if err != nil {
			return nil, err
		}
		if deps.Sandbox == nil {
			return nil, fmt.Errorf("no sandbox evaluator configured")
		}
		return &Descriptor{
			Name:               NameCode,
			Instructions:       text,
			Model:              deps.Tiers.Model(TierCore),
			Settings:           SettingsPreset("standard-high"),
			Tools:              []tool.Tool{tool.NewCodeInterpreter(deps.Sandbox, nil)},
			HandoffDescription: "Executes sandboxed code to perform computations and analyze data.",
			Hooks:              NewLoggerHooks(deps.Logger),
		}, nil
	}
}

// RouterBuilder builds the router agent, which owns no tools and instead
// hands the conversation off to a specialist.
func RouterBuilder(deps Deps) Builder {
	return func(ctx context.Context) (*Descriptor, error) {
		handoffs := []Handoff{
			{Name: NameChat, Description: "general conversation"},
			{Name: NamePlanning, Description: "task planning and organization"},
			{Name: NameWeather, Description: "weather queries"},
		}
		summaries := make([]string, 0, len(handoffs))
		for _, h := range handoffs {
			summaries = append(summaries, fmt.Sprintf("%s (%s)", h.Name, h.Description))
		}
		text, err := instructions(deps, "router_agent", map[string]string{
			"agents": strings.Join(summaries, ", "),
		})
		if err != nil {
			return nil, err
		}
		return &Descriptor{
			Name:         NameRouter,
			Instructions: text,
			Model:        deps.Tiers.Model(TierCore),
			Settings:     SettingsPreset("standard-low"),
			Handoffs:     handoffs,
			Hooks:        NewLoggerHooks(deps.Logger),
		}, nil
	}
}

// MetaBuilder builds the front-door agent: it exposes the planning and
// weather agents as tools, searches the document store, and carries the
// input/output guardrails. Sub-agents resolve through the registry the
// application wired RunAgent to, so their construction stays memoized.
func MetaBuilder(deps Deps) Builder {
	return func(ctx context.Context) (*Descriptor, error) {
		text, err := instructions(deps, "meta_agent", nil)
		if err != nil {
			return nil, err
		}
		if deps.RunAgent == nil {
			return nil, fmt.Errorf("no agent runner configured")
		}

		tools := []tool.Tool{
			tool.NewAgentTool(
				"planning",
				"A tool for planning tasks and managing schedules.",
				deps.RunAgent(NamePlanning),
			),
			tool.NewAgentTool(
				"weather",
				"A tool for retrieving weather information. Takes in a natural language prompt and returns weather info.",
				deps.RunAgent(NameWeather),
			),
		}
		if deps.Retrieval != nil {
			tools = append(tools, tool.NewDocumentSearchTool(deps.Retrieval))
		}

		var input, output []guardrail.Guardrail
		if deps.GuardrailModel != nil {
			pin := guardrail.WithModel(deps.GuardrailModelID)
			input = append(input, guardrail.NewUSWeatherGuardrail(deps.GuardrailModel, pin))
			output = append(output, guardrail.NewNoPoemGuardrail(deps.GuardrailModel, pin))
		}

		return &Descriptor{
			Name:             NameMeta,
			Instructions:     text,
			Model:            deps.Tiers.Model(TierCore),
			Settings:         SettingsPreset("standard-low"),
			Tools:            tools,
			Hooks:            NewLoggerHooks(deps.Logger),
			InputGuardrails:  input,
			OutputGuardrails: output,
		}, nil
	}
}
