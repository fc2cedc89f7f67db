package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 1000, cfg.RAG.ChunkSize)
	assert.Equal(t, 100, cfg.RAG.ChunkOverlap)
	assert.Equal(t, 2, cfg.RAG.TopK)
	assert.Equal(t, 4096, cfg.InferenceLLM.NumCtx)
	assert.Equal(t, cfg.EmbedLLM.Model, cfg.InferenceLLM.Model)
	assert.Equal(t, BackendJSON, cfg.Store.Backend)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_NonExistent(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
rag:
  chunk_size: 256
  top_k: 5
store:
  backend: bolt
  path: ./records.db
inference_llm:
  provider: openai
  model: gpt-4o-mini
  key_env: OPENAI_API_KEY
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 256, cfg.RAG.ChunkSize)
	assert.Equal(t, 100, cfg.RAG.ChunkOverlap, "unset fields keep defaults")
	assert.Equal(t, 5, cfg.RAG.TopK)
	assert.Equal(t, BackendBolt, cfg.Store.Backend)
	assert.Equal(t, ProviderOpenAI, cfg.InferenceLLM.Provider)
	assert.Equal(t, "OPENAI_API_KEY", cfg.InferenceLLM.KeyEnv)
}

func TestLoadConfig_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[rag]
chunk_size = 512
chunk_overlap = 64

[logging]
level = "debug"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 512, cfg.RAG.ChunkSize)
	assert.Equal(t, 64, cfg.RAG.ChunkOverlap)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"zero chunk size", "rag:\n  chunk_size: 0\n"},
		{"zero top k", "rag:\n  top_k: 0\n"},
		{"unknown backend", "store:\n  backend: redis\n"},
		{"postgres without dsn", "store:\n  backend: postgres\n"},
		{"unknown provider", "embed_llm:\n  provider: bedrock\n"},
		{"short encryption key", "rag:\n  encryption_key: secret\n"},
		{"malformed", "rag: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestAPIKey(t *testing.T) {
	t.Setenv("DOCCHAT_TEST_KEY", "from-env")

	assert.Equal(t, "inline", (&LLMConfig{Key: "inline", KeyEnv: "DOCCHAT_TEST_KEY"}).APIKey())
	assert.Equal(t, "from-env", (&LLMConfig{KeyEnv: "DOCCHAT_TEST_KEY"}).APIKey())
	assert.Empty(t, (&LLMConfig{}).APIKey())
}
