package document

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// loadExcelPages extracts text from .xlsx bytes, one logical page per sheet.
// Spreadsheet exports lay fields out as label/value cell pairs, so rows are
// flattened with tab separators to keep labels adjacent to their values.
func loadExcelPages(raw []byte) ([]Page, error) {
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: open XLSX: %v", ErrUnreadableDocument, err)
	}
	defer f.Close()

	var pages []Page
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			// A broken sheet degrades to a missing page, not a failed load.
			continue
		}
		var buf strings.Builder
		for _, row := range rows {
			buf.WriteString(strings.Join(row, "\t"))
			buf.WriteByte('\n')
		}
		pages = append(pages, textPage(strings.TrimSpace(buf.String())))
	}
	if len(pages) == 0 {
		pages = []Page{textPage("")}
	}
	return pages, nil
}
