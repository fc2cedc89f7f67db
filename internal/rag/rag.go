package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"

	"docchat/internal/models"
	"docchat/internal/vectorstore"
)

type QueryEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Retriever interface {
	Query(ctx context.Context, q []float32, k int) ([]vectorstore.Match, error)
}

type Generator interface {
	Generate(ctx context.Context, messages []llms.MessageContent) (string, error)
}

// RAG answers questions from passages retrieved out of the vector store.
// It holds no conversation state; history is passed in on every call.
type RAG struct {
	embedder  QueryEmbedder
	store     Retriever
	generator Generator
	topK      int
}

func NewRAG(embedder QueryEmbedder, store Retriever, generator Generator, topK int) *RAG {
	return &RAG{embedder: embedder, store: store, generator: generator, topK: topK}
}

// Ask embeds query, retrieves the top passages, and returns the model's answer
// verbatim together with the passages used. An embedding failure aborts before
// generation. An empty store still produces a generation call with an empty
// context block.
func (r *RAG) Ask(ctx context.Context, query string, history []models.Turn) (*models.Answer, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty question", models.ErrInvalidInput)
	}
	start := time.Now()

	queryEmbedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	matches, err := r.store.Query(ctx, queryEmbedding, r.topK)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve passages: %w", err)
	}

	sources := make([]models.Source, len(matches))
	for i, m := range matches {
		sources[i] = models.Source{Text: m.Text, Metadata: m.Metadata}
		log.Debug().Int("chunk_id", m.ID).Int("page", m.Metadata.Page).Float64("score", m.Score).Msg("Retrieved passage")
	}

	messages := BuildPrompt(sources, history, query)
	content, err := r.generator.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	log.Info().
		Int("k", r.topK).
		Int("sources", len(sources)).
		Int("history", len(history)).
		Dur("elapsed", time.Since(start)).
		Msg("Answered question")

	return &models.Answer{Query: query, Content: content, Sources: sources}, nil
}
