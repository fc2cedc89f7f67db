package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"docchat/internal/chromemdb"
	"docchat/internal/chunker"
	"docchat/internal/config"
	"docchat/internal/db"
	"docchat/internal/embedding"
	"docchat/internal/ingest"
	"docchat/internal/llmservice"
	"docchat/internal/models"
	"docchat/internal/parser"
	"docchat/internal/rag"
	"docchat/internal/vectorstore"
)

// App exposes the two core operations, ingest and ask, plus maintenance
// commands over one vector store.
type App struct {
	cfg      *config.Config
	store    *vectorstore.Store
	embedder ingest.Embedder
	rag      *rag.RAG

	pipelineOnce sync.Once
	pipeline     *ingest.Pipeline
	pipelineErr  error
	splitter     ingest.Splitter
}

// Stats describes the store contents.
type Stats struct {
	Records   int    `json:"records"`
	Dimension int    `json:"dimension"`
	Backend   string `json:"backend"`
	NextID    int    `json:"next_id"`
}

// Services are the external model clients. New builds them from config;
// tests inject fakes through NewWithServices. A nil Splitter is built from
// the rag config on the first ingest, so asking never needs the tokenizer.
type Services struct {
	Embedder  ingest.Embedder
	Generator rag.Generator
	Splitter  ingest.Splitter
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	llm, err := llmservice.NewLLM(&cfg.InferenceLLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create inference llm: %w", err)
	}

	return NewWithServices(ctx, cfg, Services{
		Embedder:  embedding.NewClient(embedder, &cfg.EmbedLLM),
		Generator: llmservice.NewGenerator(llm, &cfg.InferenceLLM),
	})
}

func NewWithServices(ctx context.Context, cfg *config.Config, svc Services) (*App, error) {
	persister, err := openPersister(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store := vectorstore.Open(ctx, persister)

	log.Info().
		Str("backend", cfg.Store.Backend).
		Int("records", store.Len()).
		Str("embed_model", cfg.EmbedLLM.Model).
		Str("inference_model", cfg.InferenceLLM.Model).
		Msg("Vector store ready")

	return &App{
		cfg:      cfg,
		store:    store,
		embedder: svc.Embedder,
		splitter: svc.Splitter,
		rag:      rag.NewRAG(svc.Embedder, store, svc.Generator, cfg.RAG.TopK),
	}, nil
}

func (a *App) ingestPipeline() (*ingest.Pipeline, error) {
	a.pipelineOnce.Do(func() {
		splitter := a.splitter
		if splitter == nil {
			tokenizer, err := chunker.NewTiktokenTokenizer(a.cfg.RAG.Encoding)
			if err != nil {
				a.pipelineErr = fmt.Errorf("failed to load tokenizer: %w", err)
				return
			}
			splitter = chunker.NewTokenSplitter(tokenizer, a.cfg.RAG.ChunkSize, a.cfg.RAG.ChunkOverlap)
		}
		a.pipeline = ingest.NewPipeline(parser.NewExtractor(), splitter, a.embedder, a.store, a.cfg.Ingest.Concurrency)
	})
	return a.pipeline, a.pipelineErr
}

func openPersister(ctx context.Context, cfg *config.Config) (vectorstore.Persister, error) {
	switch cfg.Store.Backend {
	case config.BackendJSON:
		return vectorstore.NewJSONPersister(cfg.Store.Path), nil
	case config.BackendBolt:
		return vectorstore.NewBoltPersister(cfg.Store.Path)
	case config.BackendPostgres:
		return db.NewPersister(ctx, &cfg.Database)
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

// Ingest adds the document at path and returns the number of chunks stored.
// Calls must not overlap.
func (a *App) Ingest(ctx context.Context, path string, onProgress func(done, total int)) (int, error) {
	pipeline, err := a.ingestPipeline()
	if err != nil {
		return 0, err
	}
	pipeline.OnProgress = onProgress
	defer func() { pipeline.OnProgress = nil }()
	return pipeline.Ingest(ctx, path)
}

// Ask answers query given the caller's conversation history.
func (a *App) Ask(ctx context.Context, query string, history []models.Turn) (*models.Answer, error) {
	return a.rag.Ask(ctx, query, history)
}

func (a *App) Stats() Stats {
	return Stats{
		Records:   a.store.Len(),
		Dimension: a.store.Dimension(),
		Backend:   a.cfg.Store.Backend,
		NextID:    a.store.NextID(),
	}
}

// Export writes the store into a chromem-go collection file and returns the
// number of records exported.
func (a *App) Export(ctx context.Context, path string) (int, error) {
	return chromemdb.ExportRecords(ctx, a.store.Records(), path, a.cfg.RAG.EncryptionKey)
}

func (a *App) Close() error {
	return a.store.Close()
}
