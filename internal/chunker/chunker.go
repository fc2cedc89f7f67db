package chunker

const (
	DefaultChunkSize    = 1000 // tokens
	DefaultChunkOverlap = 100  // tokens
)

// TokenSplitter splits text into overlapping windows measured in tokens.
type TokenSplitter struct {
	tokenizer    Tokenizer
	chunkSize    int
	chunkOverlap int
}

func NewTokenSplitter(tokenizer Tokenizer, chunkSize, chunkOverlap int) *TokenSplitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	return &TokenSplitter{
		tokenizer:    tokenizer,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// Split splits text with the splitter's configured size and overlap.
func (s *TokenSplitter) Split(text string) []string {
	return s.SplitWith(text, s.chunkSize, s.chunkOverlap)
}

// SplitWith returns text unchanged as a single chunk when it fits in chunkSize tokens.
// Otherwise window i covers tokens [i*step, i*step+chunkSize) with
// step = chunkSize-chunkOverlap (at least 1); the last window may be shorter.
func (s *TokenSplitter) SplitWith(text string, chunkSize, chunkOverlap int) []string {
	tokens := s.tokenizer.Encode(text)
	if chunkSize <= 0 || len(tokens) <= chunkSize {
		return []string{text}
	}

	step := chunkSize - chunkOverlap
	if step <= 0 {
		step = 1
	}

	chunks := make([]string, 0, len(tokens)/step+1)
	for start := 0; start < len(tokens); start += step {
		end := min(start+chunkSize, len(tokens))
		chunks = append(chunks, s.tokenizer.Decode(tokens[start:end]))
	}
	return chunks
}
