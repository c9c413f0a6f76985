package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestDocument_Fields tests Document structure fields
func TestDocument_Fields(t *testing.T) {
	now := time.Now()

	doc := Document{
		ID:         "doc-123",
		Name:       "report.pdf",
		SourceType: SourceTypePDF,
		RawText:    "Quarterly results",
		Metadata: DocumentMetadata{
			Source:       "/tmp/report.pdf",
			OriginalName: "report.pdf",
			WordCount:    2,
			PageCount:    3,
		},
		CreatedAt: now,
	}

	assert.Equal(t, "doc-123", doc.ID)
	assert.Equal(t, "report.pdf", doc.Name)
	assert.Equal(t, "pdf", doc.SourceType.String())
	assert.Equal(t, 2, doc.Metadata.WordCount)
	assert.Equal(t, 3, doc.Metadata.PageCount)
	assert.Equal(t, now, doc.CreatedAt)
}

func TestChunk_Len(t *testing.T) {
	c := Chunk{StartIndex: 900, EndIndex: 1850}
	assert.Equal(t, 950, c.Len())
}

func TestCountWords(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"whitespace only", " \n\t ", 0},
		{"single", "hello", 1},
		{"mixed whitespace", "one  two\nthree\tfour", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountWords(tt.text))
		})
	}
}
