package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/fundsight/ragengine/internal/models"
)

// extractXlsx flattens every sheet to tab-separated rows, one page per
// sheet. Sheets have no native page numbers, so no page hints are emitted.
func extractXlsx(data []byte) ([]models.Page, error) {
	book, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer book.Close()

	var pages []models.Page
	for _, sheet := range book.GetSheetList() {
		rows, err := book.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}

		var sb strings.Builder
		sb.WriteString(sheet)
		sb.WriteString("\n")
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, "\t"))
			if line == "" {
				continue
			}
			sb.WriteString(line)
			sb.WriteString("\n")
		}

		text := strings.TrimSpace(sb.String())
		if text == sheet {
			continue // empty sheet
		}
		pages = append(pages, models.Page{Text: text})
	}
	return pages, nil
}
