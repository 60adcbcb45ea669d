package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/fundsight/ragengine/internal/models"
)

// extractPDF emits one page of text per PDF page with 0-based page hints.
func extractPDF(data []byte) ([]models.Page, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	var pages []models.Page
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to extract page %d: %w", i, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		num := i - 1
		pages = append(pages, models.Page{Text: text, Number: &num})
	}
	return pages, nil
}
