package extract_test

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundsight/ragengine/internal/models"
	"github.com/fundsight/ragengine/pkg/extract"
)

func TestExtract_PlainText(t *testing.T) {
	pages, err := extract.Extract("notes.txt", []byte("  hello world\n"))

	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "hello world", pages[0].Text)
	assert.Nil(t, pages[0].Number)
}

func TestExtract_JSONTreatedAsText(t *testing.T) {
	pages, err := extract.Extract("data.JSON", []byte(`{"key": "value"}`))

	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, `{"key": "value"}`, pages[0].Text)
}

func TestExtract_EmptyTextYieldsNoPages(t *testing.T) {
	pages, err := extract.Extract("empty.txt", []byte("   \n\t"))

	require.NoError(t, err)
	assert.Empty(t, pages)
}

func TestExtract_HTML(t *testing.T) {
	html := `<html><head><style>body{color:red}</style><script>alert(1)</script></head>
<body><h1>Title</h1><p>First paragraph.</p><p>Second paragraph.</p></body></html>`

	pages, err := extract.Extract("page.html", []byte(html))

	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Contains(t, pages[0].Text, "Title")
	assert.Contains(t, pages[0].Text, "First paragraph.")
	assert.NotContains(t, pages[0].Text, "alert(1)")
	assert.NotContains(t, pages[0].Text, "color:red")
}

func TestExtract_Docx(t *testing.T) {
	doc := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second paragraph.</w:t></w:r></w:p>
  </w:body>
</w:document>`

	pages, err := extract.Extract("report.docx", buildArchive(t, map[string]string{
		"word/document.xml": doc,
	}))

	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Contains(t, pages[0].Text, "First paragraph.")
	assert.Contains(t, pages[0].Text, "Second paragraph.")
}

func TestExtract_PptxPagesPerSlide(t *testing.T) {
	slide := func(text string) string {
		return `<?xml version="1.0"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"
       xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
  <p:cSld><p:spTree><p:sp><p:txBody>
    <a:p><a:r><a:t>` + text + `</a:t></a:r></a:p>
  </p:txBody></p:sp></p:spTree></p:cSld>
</p:sld>`
	}

	// slide10 sorts after slide2 numerically, not lexically.
	pages, err := extract.Extract("deck.pptx", buildArchive(t, map[string]string{
		"ppt/slides/slide10.xml": slide("last slide"),
		"ppt/slides/slide1.xml":  slide("first slide"),
		"ppt/slides/slide2.xml":  slide("second slide"),
	}))

	require.NoError(t, err)
	require.Len(t, pages, 3)
	assert.Equal(t, "first slide", pages[0].Text)
	assert.Equal(t, "second slide", pages[1].Text)
	assert.Equal(t, "last slide", pages[2].Text)

	// Page hints are 0-based at extraction time.
	require.NotNil(t, pages[2].Number)
	assert.Equal(t, 2, *pages[2].Number)
}

func TestExtract_UnsupportedExtension(t *testing.T) {
	pages, err := extract.Extract("binary.exe", []byte{0x4d, 0x5a})

	assert.Nil(t, pages)
	var uf *models.UnsupportedFormatError
	require.ErrorAs(t, err, &uf)
	assert.Equal(t, ".exe", uf.Extension)
}

func TestSupported(t *testing.T) {
	assert.True(t, extract.Supported("a.pdf"))
	assert.True(t, extract.Supported("a.DOCX"))
	assert.False(t, extract.Supported("a.tar.gz"))
	assert.False(t, extract.Supported("noextension"))
}

func buildArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := writer.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return buf.Bytes()
}
