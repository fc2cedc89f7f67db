package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"

	BackendJSON     = "json"
	BackendBolt     = "bolt"
	BackendPostgres = "postgres"

	DriverPgdriver = "pgdriver"
	DriverPQ       = "pq"
)

type Config struct {
	EmbedLLM     LLMConfig      `yaml:"embed_llm" toml:"embed_llm"`
	InferenceLLM LLMConfig      `yaml:"inference_llm" toml:"inference_llm"`
	RAG          RAGConfig      `yaml:"rag" toml:"rag"`
	Store        StoreConfig    `yaml:"store" toml:"store"`
	Database     DatabaseConfig `yaml:"database" toml:"database"`
	Ingest       IngestConfig   `yaml:"ingest" toml:"ingest"`
	Logging      LoggingConfig  `yaml:"logging" toml:"logging"`
}

// LLMConfig describes one external model endpoint.
type LLMConfig struct {
	Provider string `yaml:"provider" toml:"provider"` // "ollama" or "openai"
	BaseURL  string `yaml:"base_url" toml:"base_url"`
	Model    string `yaml:"model" toml:"model"`
	Key      string `yaml:"key" toml:"key"`
	KeyEnv   string `yaml:"key_env" toml:"key_env"`

	TimeoutSecs       int     `yaml:"timeout_secs" toml:"timeout_secs"`
	MaxRetries        int     `yaml:"max_retries" toml:"max_retries"`
	RequestsPerSecond float64 `yaml:"requests_per_second" toml:"requests_per_second"` // 0 = unlimited

	// NumCtx bounds the context window of the generation model (ollama only).
	NumCtx int `yaml:"num_ctx" toml:"num_ctx"`
}

type RAGConfig struct {
	ChunkSize     int    `yaml:"chunk_size" toml:"chunk_size"`
	ChunkOverlap  int    `yaml:"chunk_overlap" toml:"chunk_overlap"`
	TopK          int    `yaml:"top_k" toml:"top_k"`
	Encoding      string `yaml:"encoding" toml:"encoding"`
	EncryptionKey string `yaml:"encryption_key" toml:"encryption_key"`
}

type StoreConfig struct {
	Backend string `yaml:"backend" toml:"backend"`
	Path    string `yaml:"path" toml:"path"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver" toml:"driver"`
	DSN    string `yaml:"dsn" toml:"dsn"`
	Table  string `yaml:"table" toml:"table"`
	Debug  bool   `yaml:"debug" toml:"debug"`
}

type IngestConfig struct {
	// Concurrency is the number of embedding calls in flight per page.
	Concurrency int `yaml:"concurrency" toml:"concurrency"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"` // "console" or "json"
}

func DefaultConfig() *Config {
	return &Config{
		EmbedLLM: LLMConfig{
			Provider:    ProviderOllama,
			BaseURL:     "http://localhost:11434",
			Model:       "phi3",
			TimeoutSecs: 60,
			MaxRetries:  2,
		},
		InferenceLLM: LLMConfig{
			Provider:    ProviderOllama,
			BaseURL:     "http://localhost:11434",
			Model:       "phi3",
			TimeoutSecs: 300,
			MaxRetries:  1,
			NumCtx:      4096,
		},
		RAG: RAGConfig{
			ChunkSize:    1000,
			ChunkOverlap: 100,
			TopK:         2,
			Encoding:     "cl100k_base",
		},
		Store: StoreConfig{
			Backend: BackendJSON,
			Path:    "./simple_db.json",
		},
		Database: DatabaseConfig{
			Driver: DriverPgdriver,
			Table:  "documents",
		},
		Ingest: IngestConfig{
			Concurrency: 1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig reads a YAML or TOML file (by extension) over the defaults.
// A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.RAG.ChunkSize <= 0 {
		return fmt.Errorf("rag.chunk_size must be positive, got %d", c.RAG.ChunkSize)
	}
	if c.RAG.ChunkOverlap < 0 {
		return fmt.Errorf("rag.chunk_overlap must not be negative, got %d", c.RAG.ChunkOverlap)
	}
	if c.RAG.TopK <= 0 {
		return fmt.Errorf("rag.top_k must be positive, got %d", c.RAG.TopK)
	}
	if n := len(c.RAG.EncryptionKey); n != 0 && n != 32 {
		return fmt.Errorf("rag.encryption_key must be 32 bytes, got %d", n)
	}
	for name, llm := range map[string]LLMConfig{"embed_llm": c.EmbedLLM, "inference_llm": c.InferenceLLM} {
		if llm.Provider != ProviderOllama && llm.Provider != ProviderOpenAI {
			return fmt.Errorf("%s.provider: unknown provider %q", name, llm.Provider)
		}
		if llm.Model == "" {
			return fmt.Errorf("%s.model is required", name)
		}
	}
	switch c.Store.Backend {
	case BackendJSON, BackendBolt:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for backend %q", c.Store.Backend)
		}
	case BackendPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for backend %q", c.Store.Backend)
		}
		if c.Database.Driver != DriverPgdriver && c.Database.Driver != DriverPQ {
			return fmt.Errorf("database.driver: unknown driver %q", c.Database.Driver)
		}
	default:
		return fmt.Errorf("store.backend: unknown backend %q", c.Store.Backend)
	}
	return nil
}

// APIKey returns the configured key, falling back to the KeyEnv variable.
func (l *LLMConfig) APIKey() string {
	if l.Key != "" {
		return l.Key
	}
	if l.KeyEnv != "" {
		return os.Getenv(l.KeyEnv)
	}
	return ""
}
