package llmservice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"docchat/internal/config"
	"docchat/internal/models"
)

type fakeModel struct {
	calls     int
	responses []*llms.ContentResponse
	errs      []error
	received  []llms.MessageContent
	block     bool
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	i := f.calls
	f.calls++
	f.received = messages
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	var resp *llms.ContentResponse
	var err error
	if i < len(f.responses) {
		resp = f.responses[i]
	}
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return resp, err
}

func answer(text string) *llms.ContentResponse {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: text}}}
}

func TestGenerate_ReturnsFirstChoice(t *testing.T) {
	model := &fakeModel{responses: []*llms.ContentResponse{answer("Paris [Page 3]")}}
	g := NewGenerator(model, &config.LLMConfig{TimeoutSecs: 5})

	msgs := []llms.MessageContent{llms.TextParts(schema.ChatMessageTypeHuman, "capital?")}
	out, err := g.Generate(context.Background(), msgs)
	require.NoError(t, err)
	assert.Equal(t, "Paris [Page 3]", out)
	assert.Equal(t, msgs, model.received)
}

func TestGenerate_RetriesThenSucceeds(t *testing.T) {
	model := &fakeModel{
		errs:      []error{errors.New("connection refused")},
		responses: []*llms.ContentResponse{nil, answer("ok")},
	}
	g := NewGenerator(model, &config.LLMConfig{MaxRetries: 1})

	out, err := g.Generate(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 2, model.calls)
}

func TestGenerate_Unavailable(t *testing.T) {
	model := &fakeModel{errs: []error{errors.New("boom"), errors.New("boom")}}
	g := NewGenerator(model, &config.LLMConfig{MaxRetries: 1})

	_, err := g.Generate(context.Background(), nil)
	assert.ErrorIs(t, err, models.ErrGenerationUnavailable)
	assert.Equal(t, 2, model.calls)
}

func TestGenerate_EmptyChoices(t *testing.T) {
	model := &fakeModel{responses: []*llms.ContentResponse{{}}}
	g := NewGenerator(model, &config.LLMConfig{})

	_, err := g.Generate(context.Background(), nil)
	assert.ErrorIs(t, err, models.ErrGenerationUnavailable)
}

func TestGenerate_Timeout(t *testing.T) {
	model := &fakeModel{block: true}
	g := NewGenerator(model, &config.LLMConfig{})
	g.timeout = 20 * time.Millisecond

	_, err := g.Generate(context.Background(), nil)
	assert.ErrorIs(t, err, models.ErrGenerationUnavailable)
}

func TestNewLLM(t *testing.T) {
	_, err := NewLLM(&config.LLMConfig{Provider: config.ProviderOllama, BaseURL: "http://localhost:11434", Model: "phi3", NumCtx: 4096})
	assert.NoError(t, err)

	_, err = NewLLM(&config.LLMConfig{Provider: config.ProviderOpenAI, Model: "gpt-4o-mini", Key: "Bearer sk-test"})
	assert.NoError(t, err)

	_, err = NewLLM(&config.LLMConfig{Provider: "bedrock", Model: "x"})
	assert.Error(t, err)
}
