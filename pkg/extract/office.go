package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fundsight/ragengine/internal/models"
)

// extractDocx reads word/document.xml out of the OOXML archive and collects
// run text, one line per paragraph.
func extractDocx(data []byte) ([]models.Page, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open document archive: %w", err)
	}

	content, err := readArchiveFile(reader, "word/document.xml")
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, fmt.Errorf("document archive has no word/document.xml")
	}

	text := wordprocessingText(content)
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return []models.Page{{Text: text}}, nil
}

// extractPptx reads each ppt/slides/slideN.xml and emits one page per
// slide, in slide order, with 0-based page hints.
func extractPptx(data []byte) ([]models.Page, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open slide archive: %w", err)
	}

	var names []string
	for _, file := range reader.File {
		if strings.HasPrefix(file.Name, "ppt/slides/slide") && strings.HasSuffix(file.Name, ".xml") {
			names = append(names, file.Name)
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("slide archive has no slides")
	}
	sort.Slice(names, func(i, j int) bool {
		return slideNumber(names[i]) < slideNumber(names[j])
	})

	var pages []models.Page
	for i, name := range names {
		content, err := readArchiveFile(reader, name)
		if err != nil {
			return nil, err
		}
		text := drawingText(content)
		if strings.TrimSpace(text) == "" {
			continue
		}
		num := i
		pages = append(pages, models.Page{Text: text, Number: &num})
	}
	return pages, nil
}

func readArchiveFile(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		return content, nil
	}
	return nil, nil
}

// wordprocessingText walks the XML token stream collecting text inside
// w:t elements, breaking lines at paragraph ends.
func wordprocessingText(content []byte) string {
	return ooxmlText(content, "t", "p")
}

// drawingText collects text inside a:t elements, one line per a:p.
func drawingText(content []byte) string {
	return ooxmlText(content, "t", "p")
}

func ooxmlText(content []byte, textElem, paraElem string) string {
	decoder := xml.NewDecoder(bytes.NewReader(content))
	var sb strings.Builder
	inText := false
	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local == textElem {
				inText = true
			}
		case xml.EndElement:
			if t.Name.Local == textElem {
				inText = false
			}
			if t.Name.Local == paraElem {
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return strings.TrimSpace(sb.String())
}

func slideNumber(name string) int {
	digits := strings.TrimSuffix(strings.TrimPrefix(name, "ppt/slides/slide"), ".xml")
	n := 0
	for _, r := range digits {
		if r < '0' || r > '9' {
			return n
		}
		n = n*10 + int(r-'0')
	}
	return n
}
