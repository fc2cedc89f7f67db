package parser

import (
	"strings"

	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
)

// extractXLSX returns one page per sheet.
func extractXLSX(path string) ([]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, err
	}

	pages := make([]string, 0, len(f.Sheets))
	for _, sheet := range f.Sheets {
		rows := make([][]string, 0, len(sheet.Rows))
		for _, row := range sheet.Rows {
			cells := make([]string, 0, len(row.Cells))
			for _, cell := range row.Cells {
				cells = append(cells, cell.String())
			}
			rows = append(rows, cells)
		}
		pages = append(pages, sheetText(sheet.Name, rows))
	}
	return pages, nil
}

// extractWorkbook reads macro-enabled workbooks and templates through excelize.
func extractWorkbook(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	pages := make([]string, 0, len(sheets))
	for _, name := range sheets {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, err
		}
		pages = append(pages, sheetText(name, rows))
	}
	return pages, nil
}

// sheetText renders rows as tab separated lines under a sheet title. A sheet
// without any cell values yields "".
func sheetText(name string, rows [][]string) string {
	var sb strings.Builder
	for _, row := range rows {
		line := strings.TrimRight(strings.Join(row, "\t"), "\t ")
		if line == "" {
			continue
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	if sb.Len() == 0 {
		return ""
	}
	return "Sheet: " + name + "\n" + sb.String()
}
