package models

// Metadata is the provenance attached to every stored chunk.
type Metadata struct {
	Page   int    `json:"page"`
	Source string `json:"source"`
}

// Page is the extracted text of one page (or slide, or sheet) of a document.
// Number is 1-based.
type Page struct {
	Number int
	Text   string
}

// Chunk represents a parsed chunk with metadata
type Chunk struct {
	ID       int
	Content  string
	Metadata Metadata
}

// Record is the persisted unit of the vector store.
type Record struct {
	ID        int       `json:"id"`
	Text      string    `json:"text"`
	Metadata  Metadata  `json:"metadata"`
	Embedding []float32 `json:"embedding"`
}

// Source is a retrieved passage as exposed to callers for provenance display.
type Source struct {
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

// Turn is one prior question/answer exchange. History is owned by the caller.
type Turn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type Answer struct {
	Query   string   `json:"query"`
	Content string   `json:"content"`
	Sources []Source `json:"sources"`
}
