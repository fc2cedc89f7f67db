package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"docchat/internal/helper"
	"docchat/internal/models"
)

type PageExtractor interface {
	ExtractPages(path string) ([]models.Page, error)
}

type Splitter interface {
	Split(text string) []string
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Store interface {
	NextID() int
	Add(ctx context.Context, records []models.Record) error
}

// Pipeline turns a document into embedded records in the store.
type Pipeline struct {
	extractor   PageExtractor
	splitter    Splitter
	embedder    Embedder
	store       Store
	concurrency int

	// OnProgress, when set, is called after each page with the number of
	// pages processed so far.
	OnProgress func(done, total int)
}

func NewPipeline(extractor PageExtractor, splitter Splitter, embedder Embedder, store Store, concurrency int) *Pipeline {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pipeline{
		extractor:   extractor,
		splitter:    splitter,
		embedder:    embedder,
		store:       store,
		concurrency: concurrency,
	}
}

// Ingest extracts, chunks and embeds the document at path and adds the result
// to the store in a single batch. It returns the number of chunks added.
//
// Every chunk consumes an id, including chunks whose embedding fails; those are
// logged and left out. When the store keeps the records but cannot persist
// them, the count is returned together with the ErrPersistenceFailure error.
func (p *Pipeline) Ingest(ctx context.Context, path string) (int, error) {
	runID, err := helper.GenerateUUID()
	if err != nil {
		return 0, err
	}
	source := filepath.Base(path)
	logger := log.With().Str("run_id", runID).Str("source", source).Logger()
	start := time.Now()

	pages, err := p.extractor.ExtractPages(path)
	if err != nil {
		return 0, err
	}
	logger.Info().Int("pages", len(pages)).Msg("Ingesting document")

	nextID := p.store.NextID()
	considered := 0
	var batch []models.Record

	for i, page := range pages {
		if strings.TrimSpace(page.Text) == "" {
			logger.Debug().Err(models.ErrNoExtractableText).Int("page", page.Number).Msg("Skipping page")
			p.progress(i+1, len(pages))
			continue
		}

		texts := p.splitter.Split(page.Text)
		chunks := make([]models.Chunk, len(texts))
		for j, text := range texts {
			chunks[j] = models.Chunk{
				ID:       nextID,
				Content:  text,
				Metadata: models.Metadata{Page: page.Number, Source: source},
			}
			nextID++
		}
		considered += len(chunks)

		records, err := p.embedChunks(ctx, logger, chunks)
		if err != nil {
			return 0, err
		}
		batch = append(batch, records...)
		p.progress(i+1, len(pages))
	}

	if len(batch) == 0 {
		logger.Warn().Int("chunks", considered).Msg("No chunks were embedded")
		return 0, nil
	}

	if err := p.store.Add(ctx, batch); err != nil {
		if errors.Is(err, models.ErrPersistenceFailure) {
			return len(batch), err
		}
		return 0, err
	}

	logger.Info().
		Int("chunks", len(batch)).
		Int("dropped", considered-len(batch)).
		Dur("elapsed", time.Since(start)).
		Msg("Ingested document")
	return len(batch), nil
}

// embedChunks embeds up to p.concurrency chunks at a time and returns the
// successful ones in input order.
func (p *Pipeline) embedChunks(ctx context.Context, logger zerolog.Logger, chunks []models.Chunk) ([]models.Record, error) {
	vecs := make([][]float32, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, c := range chunks {
		i, c := i, c
		g.Go(func() error {
			vec, err := p.embedder.Embed(gctx, c.Content)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Warn().Err(err).Int("page", c.Metadata.Page).Int("chunk_id", c.ID).Msg("Dropping chunk")
				return nil
			}
			vecs[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := make([]models.Record, 0, len(chunks))
	for i, c := range chunks {
		if vecs[i] == nil {
			continue
		}
		records = append(records, models.Record{
			ID:        c.ID,
			Text:      c.Content,
			Metadata:  c.Metadata,
			Embedding: vecs[i],
		})
	}
	return records, nil
}

func (p *Pipeline) progress(done, total int) {
	if p.OnProgress != nil {
		p.OnProgress(done, total)
	}
}
