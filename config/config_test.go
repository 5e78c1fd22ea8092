package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8000", cfg.Server.Addr())
	assert.Equal(t, "openai", cfg.Models.Provider)
	assert.Equal(t, 300, cfg.Retrieval.ChunkSize)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9900
models:
  provider: mock
  tiers:
    fast: test-model
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9900, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "mock", cfg.Models.Provider)
	assert.Equal(t, "test-model", cfg.Models.Tiers["fast"])
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("RELAY_MODEL_PROVIDER", "mock")
	t.Setenv("RELAY_PORT", "7001")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "mock", cfg.Models.Provider)
	assert.Equal(t, 7001, cfg.Server.Port)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Models.Provider = "delphi"
	assert.ErrorContains(t, cfg.Validate(), "unknown model provider")

	cfg = Default()
	cfg.Retrieval.ChunkOverlap = cfg.Retrieval.ChunkSize
	assert.ErrorContains(t, cfg.Validate(), "chunk_overlap")
}
