package rag

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"docchat/internal/models"
)

// RenderContext lists each passage prefixed with its page, in retrieval order.
func RenderContext(sources []models.Source) string {
	var sb strings.Builder
	for _, s := range sources {
		fmt.Fprintf(&sb, models.PassageTemplate, s.Metadata.Page, s.Text)
		sb.WriteString(models.ContextSeparator)
	}
	return sb.String()
}

// RenderHistory lists prior turns oldest first, question then answer.
func RenderHistory(history []models.Turn) string {
	var sb strings.Builder
	for _, turn := range history {
		fmt.Fprintf(&sb, models.HistoryTemplate, turn.Question, turn.Answer)
	}
	return sb.String()
}

// BuildPrompt returns the system instruction followed by one user message
// holding the context block, the history block and the question.
func BuildPrompt(sources []models.Source, history []models.Turn, query string) []llms.MessageContent {
	user := fmt.Sprintf(models.UserPromptTemplate, RenderContext(sources), RenderHistory(history), query)
	return []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, models.SystemPrompt),
		llms.TextParts(schema.ChatMessageTypeHuman, user),
	}
}
