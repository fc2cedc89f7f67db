package models

const (
	ContextSeparator = "\n\n"
	NotFoundAnswer   = "I cannot find the answer in the provided document."
)

var (
	SystemPrompt = `You are a helpful AI assistant for internal knowledge.
Use the provided context to answer the user's question.
If the answer is not in the context, say "` + NotFoundAnswer + `"
ALWAYS cite the page number explicitly (e.g., [Page 5]).`

	// PassageTemplate renders one retrieved passage of the context block.
	PassageTemplate = "[Page %d] %s"

	HistoryTemplate = "User: %s\nModel: %s\n"

	UserPromptTemplate = `Context:
%s

Conversation History:
%s

User Question: %s
`
)
