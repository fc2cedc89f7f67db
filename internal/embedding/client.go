package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"docchat/internal/config"
	"docchat/internal/helper"
	"docchat/internal/models"
)

// QueryEmbedder embeds a single text. *embeddings.EmbedderImpl satisfies it.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Client wraps an embedder with a timeout, bounded retries and an optional
// request rate limit.
type Client struct {
	embedder   QueryEmbedder
	timeout    time.Duration
	maxRetries int
	limiter    *rate.Limiter
}

func NewClient(embedder QueryEmbedder, cfg *config.LLMConfig) *Client {
	c := &Client{
		embedder:   embedder,
		timeout:    time.Duration(cfg.TimeoutSecs) * time.Second,
		maxRetries: cfg.MaxRetries,
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return c
}

var errEmptyVector = errors.New("embedding service returned an empty vector")

// Embed returns the vector for text. Any failure, including an empty vector,
// is reported as ErrEmbeddingUnavailable. Cancellation of ctx is returned as is.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	var vec []float32

	err := helper.Retry(ctx, c.maxRetries, 250*time.Millisecond, func(ctx context.Context) error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		callCtx, cancel := c.withTimeout(ctx)
		defer cancel()

		v, err := c.embedder.EmbedQuery(callCtx, text)
		if err != nil {
			log.Debug().Err(err).Msg("Embedding attempt failed")
			return err
		}
		if len(v) == 0 {
			return errEmptyVector
		}
		vec = v
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", models.ErrEmbeddingUnavailable, err)
	}
	return vec, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}
