package agent

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-ai/relay/model"
	"github.com/relabs-ai/relay/prompt"
	"github.com/relabs-ai/relay/retrieval"
	"github.com/relabs-ai/relay/sandbox"
	"github.com/relabs-ai/relay/weather"
)

func testDeps(t *testing.T) Deps {
	t.Helper()

	dir := t.TempDir()
	for _, name := range []string{
		"chat_agent", "planning_agent", "weather_agent",
		"code_agent", "meta_agent",
	} {
		err := os.WriteFile(filepath.Join(dir, name+".txt"), []byte("You are the "+name+"."), 0o644)
		require.NoError(t, err)
	}
	err := os.WriteFile(filepath.Join(dir, "router_agent.txt"), []byte("Route between: {{agents}}."), 0o644)
	require.NoError(t, err)

	return Deps{
		Prompts:        prompt.NewStore(dir),
		Weather:        weather.NewClient(),
		Sandbox:        sandbox.NewEvaluator(),
		GuardrailModel: model.NewMockModel(),
		RunAgent: func(name string) func(ctx context.Context, prompt string) (string, error) {
			return func(ctx context.Context, prompt string) (string, error) {
				return "ran " + name, nil
			}
		},
	}
}

func TestRegisterDefaults(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r, testDeps(t))

	assert.Equal(t, []string{"chat", "code", "meta", "planning", "router", "weather"}, r.Names())
	require.NoError(t, r.Warm(context.Background()))
}

func TestWeatherBuilderToolSurface(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r, testDeps(t))

	d, err := r.Resolve(context.Background(), NameWeather)
	require.NoError(t, err)

	assert.Len(t, d.Tools, 9)
	for _, name := range []string{
		"get_current_weather", "get_daily_forecast", "get_hourly_forecast",
		"get_air_quality", "get_marine_forecast", "geocode_location",
		"get_historical_weather", "get_historical_forecast", "get_weather_bundle",
	} {
		_, ok := d.Tool(name)
		assert.True(t, ok, "expected tool %s", name)
	}
	assert.Equal(t, "gpt-5-nano", d.Model)
}

func TestMetaBuilderWiring(t *testing.T) {
	deps := testDeps(t)
	deps.Retrieval = retrieval.NewPipeline(nil, retrieval.NewInMemoryStore())

	r := NewRegistry()
	RegisterDefaults(r, deps)

	d, err := r.Resolve(context.Background(), NameMeta)
	require.NoError(t, err)

	for _, name := range []string{"planning", "weather", "search_documents"} {
		_, ok := d.Tool(name)
		assert.True(t, ok, "expected tool %s", name)
	}
	assert.Len(t, d.InputGuardrails, 1)
	assert.Len(t, d.OutputGuardrails, 1)

	// Agent-as-tool delegates through RunAgent.
	planning, _ := d.Tool("planning")
	out, err := planning.Call(context.Background(), map[string]any{"prompt": "plan"})
	require.NoError(t, err)
	assert.Equal(t, "ran planning", out)
}

func TestMetaBuilderPinsGuardrailModel(t *testing.T) {
	deps := testDeps(t)
	m := model.NewMockModel()
	m.AddResponse("hello", `{"reasoning": "ok", "flagged": false}`)
	deps.GuardrailModel = m
	deps.GuardrailModelID = "gpt-5-nano"

	r := NewRegistry()
	RegisterDefaults(r, deps)

	d, err := r.Resolve(context.Background(), NameMeta)
	require.NoError(t, err)
	require.Len(t, d.InputGuardrails, 1)

	_, err = d.InputGuardrails[0].Check(context.Background(), "hello")
	require.NoError(t, err)
	require.Len(t, m.Requests(), 1)
	assert.Equal(t, "gpt-5-nano", m.Requests()[0].Model)
}

func TestRouterBuilderHandoffs(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r, testDeps(t))

	d, err := r.Resolve(context.Background(), NameRouter)
	require.NoError(t, err)

	require.Len(t, d.Handoffs, 3)
	_, ok := d.Handoff(NameWeather)
	assert.True(t, ok)

	// The {{agents}} placeholder expands to the handoff roster.
	assert.Equal(t, "Route between: chat (general conversation), planning (task planning and organization), weather (weather queries).", d.Instructions)
}

func TestBuilderMissingPrompt(t *testing.T) {
	deps := testDeps(t)
	deps.Prompts = prompt.NewStore(t.TempDir())

	r := NewRegistry()
	RegisterDefaults(r, deps)

	_, err := r.Resolve(context.Background(), NameChat)
	assert.ErrorIs(t, err, prompt.ErrNotFound)
}
