package domain

import (
	"strings"
	"time"
)

// SourceType identifies the format a document was parsed from.
type SourceType string

// Supported source types.
const (
	SourceTypePDF        SourceType = "pdf"
	SourceTypeDOCX       SourceType = "docx"
	SourceTypeText       SourceType = "text"
	SourceTypeMarkdown   SourceType = "markdown"
	SourceTypeSubtitle   SourceType = "subtitle"
	SourceTypePPTX       SourceType = "pptx"
	SourceTypeTranscript SourceType = "transcript"
	SourceTypeHTML       SourceType = "html"
	SourceTypeEmail      SourceType = "email"
)

// String returns the string representation.
func (s SourceType) String() string {
	return string(s)
}

// DocumentMetadata describes where a document came from.
type DocumentMetadata struct {
	// Source is the origin of the document (file path, URL, "upload").
	Source string

	// OriginalName is the filename as supplied by the caller.
	OriginalName string

	// WordCount is the number of whitespace-delimited tokens in the text.
	WordCount int

	// PageCount is the number of pages or slides. Zero when the format
	// has no natural page boundary.
	PageCount int
}

// ParsedDocument is the output of a parser, before the document is registered.
type ParsedDocument struct {
	// Text is the extracted plain text.
	Text string

	// SourceType is the format the text was extracted from.
	SourceType SourceType

	// Metadata holds word and page counts.
	Metadata DocumentMetadata
}

// Document represents a parsed file held in the knowledge base.
// Documents are immutable once created; deletion cascades to chunks.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Name is the human-readable name used for source attribution.
	Name string

	// SourceType is the format the document was parsed from.
	SourceType SourceType

	// RawText is the full extracted text before chunking.
	RawText string

	// Metadata describes the document's origin and size.
	Metadata DocumentMetadata

	// CreatedAt is when the document was added to the knowledge base.
	CreatedAt time.Time
}

// Chunk represents an embedded, retrievable unit within a document.
type Chunk struct {
	// ID is derived from DocumentID and Position.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Content is the text of this chunk.
	Content string

	// StartIndex is the inclusive start offset in the normalised text.
	StartIndex int

	// EndIndex is the exclusive end offset in the normalised text.
	EndIndex int

	// Position is the ordinal position within the document.
	Position int

	// Embedding is the vector representation, set once at insertion.
	Embedding []float32
}

// Len returns the span of the chunk in the normalised text.
func (c Chunk) Len() int {
	return c.EndIndex - c.StartIndex
}

// CountWords returns the number of whitespace-delimited tokens in text.
func CountWords(text string) int {
	return len(strings.Fields(text))
}
