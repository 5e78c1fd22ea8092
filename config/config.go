// Package config loads the application configuration from an optional YAML
// file, with environment variables overriding file values.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full application configuration.
type Config struct {
	Server    Server    `yaml:"server"`
	Logging   Logging   `yaml:"logging"`
	Models    Models    `yaml:"models"`
	Prompts   Prompts   `yaml:"prompts"`
	Sandbox   Sandbox   `yaml:"sandbox"`
	Retrieval Retrieval `yaml:"retrieval"`
	Trace     Trace     `yaml:"trace"`
}

// Server configures the HTTP listener.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns the host:port listen address.
func (s Server) Addr() string { return fmt.Sprintf("%s:%d", s.Host, s.Port) }

// Logging configures the logger.
type Logging struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or text
}

// Models selects providers and tier model ids.
type Models struct {
	// Provider is "openai", "anthropic" or "mock".
	Provider string `yaml:"provider"`
	// Tiers override the fast/core/expert model ids.
	Tiers map[string]string `yaml:"tiers"`
	// GuardrailTier names the tier guardrail classifiers run on.
	GuardrailTier string `yaml:"guardrail_tier"`
	// EmbeddingModel is the embedding model id.
	EmbeddingModel string `yaml:"embedding_model"`
}

// Prompts locates the prompt template directory.
type Prompts struct {
	Dir string `yaml:"dir"`
}

// Sandbox configures the code evaluator.
type Sandbox struct {
	Timeout time.Duration `yaml:"timeout"`
}

// Retrieval configures the ingestion pipeline.
type Retrieval struct {
	ChunkSize    int  `yaml:"chunk_size"`
	ChunkOverlap int  `yaml:"chunk_overlap"`
	Semantic     bool `yaml:"semantic"`
}

// Trace locates the JSONL trace log.
type Trace struct {
	Path string `yaml:"path"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Server:  Server{Host: "127.0.0.1", Port: 8000},
		Logging: Logging{Level: "info", Format: "json"},
		Models: Models{
			Provider:       "openai",
			GuardrailTier:  "fast",
			EmbeddingModel: "text-embedding-3-large",
		},
		Prompts: Prompts{Dir: "prompts"},
		Sandbox: Sandbox{Timeout: 10 * time.Second},
		Retrieval: Retrieval{
			ChunkSize:    300,
			ChunkOverlap: 50,
			Semantic:     true,
		},
		Trace: Trace{Path: "trace.jsonl"},
	}
}

// Load reads path (when non-empty) over the defaults, then applies
// environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch c.Models.Provider {
	case "openai", "anthropic", "mock":
	default:
		return fmt.Errorf("unknown model provider %q", c.Models.Provider)
	}
	if c.Retrieval.ChunkSize <= 0 {
		return fmt.Errorf("retrieval chunk_size must be > 0")
	}
	if c.Retrieval.ChunkOverlap < 0 || c.Retrieval.ChunkOverlap >= c.Retrieval.ChunkSize {
		return fmt.Errorf("retrieval chunk_overlap must be in [0, chunk_size)")
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("RELAY_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("RELAY_PORT"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Server.Port)
	}
	if v := os.Getenv("RELAY_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("RELAY_MODEL_PROVIDER"); v != "" {
		cfg.Models.Provider = v
	}
	if v := os.Getenv("RELAY_PROMPTS_DIR"); v != "" {
		cfg.Prompts.Dir = v
	}
	if v := os.Getenv("RELAY_TRACE_PATH"); v != "" {
		cfg.Trace.Path = v
	}
}
