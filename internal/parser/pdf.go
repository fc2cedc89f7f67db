package parser

import (
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"
)

func extractPDF(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	numPages := reader.NumPage()
	pages := make([]string, numPages)
	for i := 1; i <= numPages; i++ {
		text, err := pageText(reader, i)
		if err != nil {
			log.Warn().Err(err).Str("source", path).Int("page", i).Msg("Skipping unreadable page")
			continue
		}
		pages[i-1] = text
	}
	return pages, nil
}

// pageText recovers from panics in the pdf content stream decoder, which
// happen on some malformed fonts.
func pageText(reader *pdf.Reader, num int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf decoder panic: %v", r)
		}
	}()

	page := reader.Page(num)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}
