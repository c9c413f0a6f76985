package pptx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
)

func slideXML(paragraphs ...string) string {
	var b bytes.Buffer
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
<p:cSld><p:spTree><p:sp><p:txBody>`)
	for _, para := range paragraphs {
		b.WriteString("<a:p><a:r><a:t>" + para + "</a:t></a:r></a:p>")
	}
	b.WriteString(`</p:txBody></p:sp></p:spTree></p:cSld></p:sld>`)
	return b.String()
}

func createTestPPTX(t *testing.T, slides map[string]string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	for name, content := range slides {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestParse_SlideOrderAndCount(t *testing.T) {
	data := createTestPPTX(t, map[string]string{
		"ppt/slides/slide10.xml":            slideXML("Ten"),
		"ppt/slides/slide2.xml":             slideXML("Two", "Second line"),
		"ppt/slides/slide1.xml":             slideXML("Title slide"),
		"ppt/slides/_rels/slide1.xml.rels":  "<Relationships/>",
		"ppt/slideLayouts/slideLayout1.xml": slideXML("layout text"),
		"ppt/notesSlides/notesSlide1.xml":   slideXML("speaker notes"),
		"[Content_Types].xml":               "<Types/>",
	})

	doc, err := New().Parse(context.Background(), data, "deck.pptx")
	require.NoError(t, err)
	assert.Equal(t, "Title slide\n\nTwo\nSecond line\n\nTen", doc.Text)
	assert.Equal(t, 3, doc.Metadata.PageCount)
	assert.Equal(t, domain.SourceTypePPTX, doc.SourceType)
}

func TestParse_NoSlides(t *testing.T) {
	data := createTestPPTX(t, map[string]string{"[Content_Types].xml": "<Types/>"})
	_, err := New().Parse(context.Background(), data, "empty.pptx")
	assert.ErrorIs(t, err, domain.ErrCorruptFile)
}

func TestParse_NotZip(t *testing.T) {
	_, err := New().Parse(context.Background(), []byte("nope"), "deck.pptx")
	assert.ErrorIs(t, err, domain.ErrCorruptFile)
}
