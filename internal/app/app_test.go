package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"docchat/internal/config"
	"docchat/internal/models"
)

type wordEmbedder struct{}

// Embed maps text onto counts of a few keywords.
func (wordEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	lower := strings.ToLower(text)
	return []float32{
		float32(strings.Count(lower, "bolt")),
		float32(strings.Count(lower, "nut")),
		1,
	}, nil
}

type lineSplitter struct{}

func (lineSplitter) Split(text string) []string {
	return strings.Split(strings.TrimSpace(text), "\n")
}

type echoGenerator struct{}

func (echoGenerator) Generate(ctx context.Context, messages []llms.MessageContent) (string, error) {
	return messages[len(messages)-1].Parts[0].(llms.TextContent).Text, nil
}

func testApp(t *testing.T, backend string) (*App, *config.Config) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Store.Backend = backend
	cfg.Store.Path = filepath.Join(t.TempDir(), "store")

	a, err := NewWithServices(context.Background(), cfg, Services{
		Embedder:  wordEmbedder{},
		Generator: echoGenerator{},
		Splitter:  lineSplitter{},
	})
	require.NoError(t, err)
	return a, cfg
}

func TestApp_IngestAskAcrossRestart(t *testing.T) {
	for _, backend := range []string{config.BackendJSON, config.BackendBolt} {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			a, cfg := testApp(t, backend)

			doc := filepath.Join(t.TempDir(), "parts.txt")
			require.NoError(t, os.WriteFile(doc, []byte("bolt sizes are metric\nnut torque is 20Nm\npaint is blue\n"), 0644))

			var pages []int
			n, err := a.Ingest(ctx, doc, func(done, total int) { pages = append(pages, done) })
			require.NoError(t, err)
			assert.Equal(t, 3, n)
			assert.Equal(t, []int{1}, pages)
			require.NoError(t, a.Close())

			reopened, err := NewWithServices(ctx, cfg, Services{Embedder: wordEmbedder{}, Generator: echoGenerator{}, Splitter: lineSplitter{}})
			require.NoError(t, err)
			defer reopened.Close()

			stats := reopened.Stats()
			assert.Equal(t, Stats{Records: 3, Dimension: 3, Backend: backend, NextID: 3}, stats)

			answer, err := reopened.Ask(ctx, "which bolt?", []models.Turn{{Question: "hi", Answer: "hello"}})
			require.NoError(t, err)
			require.Len(t, answer.Sources, 2)
			assert.Equal(t, "bolt sizes are metric", answer.Sources[0].Text)
			assert.Equal(t, models.Metadata{Page: 1, Source: "parts.txt"}, answer.Sources[0].Metadata)
			assert.Contains(t, answer.Content, "[Page 1] bolt sizes are metric")
			assert.Contains(t, answer.Content, "User: hi\nModel: hello\n")
		})
	}
}

func TestApp_Export(t *testing.T) {
	ctx := context.Background()
	a, _ := testApp(t, config.BackendJSON)
	defer a.Close()

	doc := filepath.Join(t.TempDir(), "parts.md")
	require.NoError(t, os.WriteFile(doc, []byte("# Parts\n\nbolt and nut\n"), 0644))
	_, err := a.Ingest(ctx, doc, nil)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "export.gob")
	n, err := a.Export(ctx, out)
	require.NoError(t, err)
	assert.Equal(t, a.Stats().Records, n)
	assert.FileExists(t, out)
}

func TestNewWithServices_UnknownBackend(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Store.Backend = "redis"
	_, err := NewWithServices(context.Background(), cfg, Services{})
	assert.Error(t, err)
}
