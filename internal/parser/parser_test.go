package parser

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"docchat/internal/models"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestExtractPages_Text(t *testing.T) {
	path := writeFile(t, "notes.txt", "first line\nsecond line\n")

	pages, err := NewExtractor().ExtractPages(path)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, 1, pages[0].Number)
	assert.Equal(t, "first line\nsecond line\n", pages[0].Text)
}

func TestExtractPages_Unsupported(t *testing.T) {
	path := writeFile(t, "image.png", "not really")

	_, err := NewExtractor().ExtractPages(path)
	assert.ErrorIs(t, err, models.ErrUnsupportedFormat)
	assert.False(t, Supported(path))
}

func TestExtractPages_MissingFile(t *testing.T) {
	_, err := NewExtractor().ExtractPages(filepath.Join(t.TempDir(), "gone.pdf"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrUnsupportedFormat)
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("report.PDF"))
	assert.True(t, Supported("/tmp/deck.pptx"))
	assert.Contains(t, SupportedExtensions(), ".md")
}

func TestMarkdownToText(t *testing.T) {
	src := "# Title\n\nSome *emphasis* and `code` with a [link](http://example.com).\n\n- one\n- two\n\n```go\nfmt.Println(1)\n```\n"

	got := markdownToText([]byte(src))

	assert.Contains(t, got, "Title")
	assert.Contains(t, got, "Some emphasis and code with a link.")
	assert.Contains(t, got, "one\ntwo")
	assert.Contains(t, got, "fmt.Println(1)")
	assert.NotContains(t, got, "#")
	assert.NotContains(t, got, "*")
	assert.NotContains(t, got, "```")
	assert.NotContains(t, got, "http://example.com")
}

func TestXMLText(t *testing.T) {
	body := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Hello</w:t></w:r><w:r><w:t xml:space="preserve"> world &amp; co</w:t></w:r></w:p>
<w:p><w:r><w:t>Second</w:t><w:tab/><w:t>para</w:t></w:r></w:p>
</w:body>
</w:document>`

	got, err := xmlText(strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, "Hello world & co\nSecond\tpara", got)
}

func writePPTX(t *testing.T, slides map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deck.pptx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, text := range slides {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(`<p:sld xmlns:p="p" xmlns:a="a"><p:cSld><p:spTree><p:sp><p:txBody><a:p><a:r><a:t>` +
			text + `</a:t></a:r></a:p></p:txBody></p:sp></p:spTree></p:cSld></p:sld>`))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestExtractPages_PPTXOrderedBySlideNumber(t *testing.T) {
	path := writePPTX(t, map[string]string{
		"ppt/slides/slide10.xml":            "ten",
		"ppt/slides/slide2.xml":             "two",
		"ppt/slides/slide1.xml":             "one",
		"ppt/slides/_rels/slide1.xml.rels":  "ignored",
		"ppt/slideLayouts/slideLayout1.xml": "layout",
	})

	pages, err := NewExtractor().ExtractPages(path)
	require.NoError(t, err)
	require.Len(t, pages, 3)
	assert.Equal(t, []string{"one", "two", "ten"}, []string{pages[0].Text, pages[1].Text, pages[2].Text})
	assert.Equal(t, 3, pages[2].Number)
}

func writeWorkbook(t *testing.T, name string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetCellValue("Sheet1", "A1", "name"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "qty"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "bolts"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", 42))
	_, err := f.NewSheet("Empty")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestExtractPages_Spreadsheets(t *testing.T) {
	for _, name := range []string{"stock.xlsx", "stock.xlsm"} {
		t.Run(name, func(t *testing.T) {
			pages, err := NewExtractor().ExtractPages(writeWorkbook(t, name))
			require.NoError(t, err)
			require.Len(t, pages, 2)
			assert.Equal(t, "Sheet: Sheet1\nname\tqty\nbolts\t42\n", pages[0].Text)
			assert.Empty(t, pages[1].Text, "empty sheets keep their page number")
			assert.Equal(t, 2, pages[1].Number)
		})
	}
}
