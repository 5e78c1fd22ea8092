// Package app composes the application: configuration, logging, the prompt
// store, the agent registry, model providers, the weather client, the
// retrieval pipeline, tracing and the runner are wired into one explicit
// object with no package-level state.
package app

import (
	"context"
	"fmt"

	"github.com/relabs-ai/relay/agent"
	"github.com/relabs-ai/relay/config"
	"github.com/relabs-ai/relay/logging"
	"github.com/relabs-ai/relay/model"
	"github.com/relabs-ai/relay/model/anthropic"
	"github.com/relabs-ai/relay/model/openai"
	"github.com/relabs-ai/relay/prompt"
	"github.com/relabs-ai/relay/retrieval"
	"github.com/relabs-ai/relay/runner"
	"github.com/relabs-ai/relay/sandbox"
	"github.com/relabs-ai/relay/server"
	"github.com/relabs-ai/relay/session"
	"github.com/relabs-ai/relay/trace"
	"github.com/relabs-ai/relay/weather"
)

// App owns every long-lived collaborator.
type App struct {
	Config    config.Config
	Logger    logging.Logger
	Prompts   *prompt.Store
	Registry  *agent.Registry
	Model     model.Model
	Weather   *weather.Client
	Sandbox   *sandbox.Evaluator
	Retrieval *retrieval.Pipeline
	Tracer    *trace.Writer
	Runner    *runner.Runner
	Sessions  session.Store
	Server    *server.Server

	closeTrace func() error
}

// New wires an App from configuration.
func New(cfg config.Config) (*App, error) {
	logger := logging.New(func(o *logging.Options) {
		o.Level = logging.ParseLevel(cfg.Logging.Level)
		o.Format = cfg.Logging.Format
	})

	m, err := newModel(cfg.Models)
	if err != nil {
		return nil, err
	}

	tracer := trace.NewWriter(nil)
	var closeTrace func() error
	if cfg.Trace.Path != "" {
		tracer, closeTrace, err = trace.NewFileWriter(cfg.Trace.Path)
		if err != nil {
			return nil, err
		}
	}

	a := &App{
		Config:     cfg,
		Logger:     logger,
		Prompts:    prompt.NewStore(cfg.Prompts.Dir),
		Registry:   agent.NewRegistry(),
		Model:      m,
		Weather:    weather.NewClient(),
		Tracer:     tracer,
		closeTrace: closeTrace,
	}

	a.Sandbox = sandbox.NewEvaluator(func(o *sandbox.Options) {
		if cfg.Sandbox.Timeout > 0 {
			o.Timeout = cfg.Sandbox.Timeout
		}
	})

	a.Retrieval = retrieval.NewPipeline(
		newEmbedder(cfg.Models),
		retrieval.NewInMemoryStore(),
		func(o *retrieval.PipelineOptions) {
			o.ChunkSize = cfg.Retrieval.ChunkSize
			o.ChunkOverlap = cfg.Retrieval.ChunkOverlap
			o.Semantic = cfg.Retrieval.Semantic
			o.TokenCounter = retrieval.NewTokenizer(retrieval.DefaultEncoding)
			o.Logger = logger
		},
	)

	a.Runner = runner.New(a.Registry, a.Model, func(o *runner.Options) {
		o.Logger = logger
		o.Tracer = tracer
	})

	tiers := agent.DefaultTiers()
	for tier, id := range cfg.Models.Tiers {
		tiers[tier] = id
	}

	agent.RegisterDefaults(a.Registry, agent.Deps{
		Prompts:          a.Prompts,
		Tiers:            tiers,
		Weather:          a.Weather,
		Sandbox:          a.Sandbox,
		Retrieval:        a.Retrieval,
		GuardrailModel:   a.Model,
		GuardrailModelID: tiers.Model(cfg.Models.GuardrailTier),
		RunAgent:         a.Runner.RunFuncFor,
		Logger:           logger,
	})

	a.Sessions = session.NewInMemoryStore()

	a.Server = server.New(a.Runner, a.Registry, func(o *server.Options) {
		o.Sessions = a.Sessions
		o.Logger = logger
	})

	return a, nil
}

// Warm eagerly builds every registered agent.
func (a *App) Warm(ctx context.Context) error {
	return a.Registry.Warm(ctx)
}

// Close tears down resources opened by New.
func (a *App) Close() error {
	if a.closeTrace != nil {
		return a.closeTrace()
	}
	return nil
}

func newModel(cfg config.Models) (model.Model, error) {
	switch cfg.Provider {
	case "openai":
		return openai.NewModel(), nil
	case "anthropic":
		return anthropic.NewModel(), nil
	case "mock":
		return model.NewMockModel(), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}

// newEmbedder returns the OpenAI embedder; retrieval always embeds through
// OpenAI regardless of the chat provider.
func newEmbedder(cfg config.Models) retrieval.Embedder {
	return retrieval.NewOpenAIEmbedder(func(o *retrieval.EmbedderOptions) {
		if cfg.EmbeddingModel != "" {
			o.Model = cfg.EmbeddingModel
		}
	})
}
