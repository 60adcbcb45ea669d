// Package extract turns uploaded payloads into plain text, dispatching on
// the declared source type. Formats with native pages (PDF, slide decks)
// report 0-based page hints; callers convert to 1-based for display.
package extract

import (
	"path/filepath"
	"strings"

	"github.com/fundsight/ragengine/internal/models"
)

type extractor func(data []byte) ([]models.Page, error)

var extractors = map[string]extractor{
	".txt":  extractText,
	".json": extractText,
	".html": extractHTML,
	".htm":  extractHTML,
	".docx": extractDocx,
	".doc":  extractDocx,
	".pptx": extractPptx,
	".ppt":  extractPptx,
	".xlsx": extractXlsx,
	".xls":  extractXlsx,
	".pdf":  extractPDF,
}

// Extract pulls text out of the payload based on the filename extension.
// Unknown extensions fail with UnsupportedFormatError and no side effect.
func Extract(filename string, data []byte) ([]models.Page, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	fn, ok := extractors[ext]
	if !ok {
		return nil, &models.UnsupportedFormatError{Extension: ext}
	}
	return fn(data)
}

// Supported reports whether the extension has an extraction strategy.
func Supported(filename string) bool {
	_, ok := extractors[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// SupportedExtensions lists the accepted extensions, for whitelist errors.
func SupportedExtensions() []string {
	return []string{".pdf", ".txt", ".docx", ".doc", ".pptx", ".ppt", ".xlsx", ".xls", ".json", ".html", ".htm"}
}

func extractText(data []byte) ([]models.Page, error) {
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, nil
	}
	return []models.Page{{Text: text}}, nil
}
