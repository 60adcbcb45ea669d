package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/fundsight/ragengine/internal/models"
)

// extractHTML strips markup and returns the visible text of the document.
func extractHTML(data []byte) ([]models.Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, noscript").Remove()

	var sb strings.Builder
	doc.Find("body").Each(func(_ int, sel *goquery.Selection) {
		sb.WriteString(sel.Text())
	})
	text := sb.String()
	if strings.TrimSpace(text) == "" {
		// Fragment without a body element
		text = doc.Text()
	}

	text = collapseWhitespace(text)
	if text == "" {
		return nil, nil
	}
	return []models.Page{{Text: text}}, nil
}

// collapseWhitespace squeezes runs of blank lines and intra-line spacing
// left behind by removed markup, preserving paragraph breaks.
func collapseWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	var out []string
	blank := true
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
