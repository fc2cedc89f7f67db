package parser

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"docchat/internal/models"
)

type extractFunc func(path string) ([]string, error)

var extractors = map[string]extractFunc{
	".pdf":  extractPDF,
	".txt":  extractText,
	".md":   extractMarkdown,
	".docx": extractDOCX,
	".pptx": extractPPTX,
	".xlsx": extractXLSX,
	".xlsm": extractWorkbook,
	".xltx": extractWorkbook,
	".xltm": extractWorkbook,
}

// Extractor turns a document into numbered pages. Pages without text are kept
// (with empty Text) so numbering matches the source document.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Supported reports whether path has an extension the extractor can read.
func Supported(path string) bool {
	_, ok := extractors[strings.ToLower(filepath.Ext(path))]
	return ok
}

// SupportedExtensions returns the known extensions in sorted order.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(extractors))
	for ext := range extractors {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func (e *Extractor) ExtractPages(path string) ([]models.Page, error) {
	ext := strings.ToLower(filepath.Ext(path))
	extract, ok := extractors[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrUnsupportedFormat, ext)
	}

	texts, err := extract(path)
	if err != nil {
		return nil, fmt.Errorf("failed to extract %s: %w", path, err)
	}

	pages := make([]models.Page, len(texts))
	for i, t := range texts {
		pages[i] = models.Page{Number: i + 1, Text: t}
	}

	log.Debug().Str("source", filepath.Base(path)).Int("pages", len(pages)).Msg("Extracted pages")
	return pages, nil
}
