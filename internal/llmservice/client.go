package llmservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"docchat/internal/config"
	"docchat/internal/helper"
	"docchat/internal/models"
)

// Model is a langchaingo backend that can both generate and embed.
type Model interface {
	llms.Model
	embeddings.EmbedderClient
}

// ContentGenerator is the part of llms.Model the generator needs.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// NewLLM builds the backend named by cfg.Provider.
func NewLLM(cfg *config.LLMConfig) (Model, error) {
	log.Debug().
		Str("provider", cfg.Provider).
		Str("base_url", cfg.BaseURL).
		Str("model", cfg.Model).
		Msg("Initializing LLM")

	switch cfg.Provider {
	case config.ProviderOllama:
		opts := []ollama.Option{ollama.WithModel(cfg.Model)}
		if cfg.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
		}
		if cfg.NumCtx > 0 {
			opts = append(opts, ollama.WithRunnerNumCtx(cfg.NumCtx))
		}
		llm, err := ollama.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ollama: %w", err)
		}
		return llm, nil

	case config.ProviderOpenAI:
		opts := []openai.Option{
			openai.WithModel(cfg.Model),
			openai.WithEmbeddingModel(cfg.Model),
			openai.WithToken(strings.TrimPrefix(cfg.APIKey(), "Bearer ")),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize openai: %w", err)
		}
		return llm, nil
	}

	return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
}

// Generator produces answers from a chat model with a per-call timeout and retries.
type Generator struct {
	model      ContentGenerator
	timeout    time.Duration
	maxRetries int
}

func NewGenerator(model ContentGenerator, cfg *config.LLMConfig) *Generator {
	return &Generator{
		model:      model,
		timeout:    time.Duration(cfg.TimeoutSecs) * time.Second,
		maxRetries: cfg.MaxRetries,
	}
}

// Generate returns the model's text for messages. Transport failures, timeouts
// and empty responses are reported as ErrGenerationUnavailable.
func (g *Generator) Generate(ctx context.Context, messages []llms.MessageContent) (string, error) {
	var content string
	start := time.Now()

	err := helper.Retry(ctx, g.maxRetries, 500*time.Millisecond, func(ctx context.Context) error {
		callCtx, cancel := g.withTimeout(ctx)
		defer cancel()

		resp, err := g.model.GenerateContent(callCtx, messages)
		if err != nil {
			log.Warn().Err(err).Msg("Generation attempt failed")
			return err
		}
		if resp == nil || len(resp.Choices) == 0 {
			return fmt.Errorf("model returned no choices")
		}
		content = resp.Choices[0].Content
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %w", models.ErrGenerationUnavailable, err)
	}

	log.Debug().Dur("elapsed", time.Since(start)).Int("answer_len", len(content)).Msg("Generated answer")
	return content, nil
}

func (g *Generator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}
