package embedding

import (
	"fmt"

	"github.com/tmc/langchaingo/embeddings"

	"docchat/internal/config"
	"docchat/internal/llmservice"
)

// NewEmbedder builds a langchaingo embedder on the backend named by cfg.
// Newlines are kept so chunk text is embedded exactly as stored.
func NewEmbedder(cfg *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	llm, err := llmservice.NewLLM(cfg)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(llm, embeddings.WithStripNewLines(false))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return embedder, nil
}
