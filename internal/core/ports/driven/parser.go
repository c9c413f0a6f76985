package driven

import (
	"context"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
)

// Parser extracts plain text and metadata from the bytes of one file format.
type Parser interface {
	// Extensions returns the lower-case file extensions handled, with dot.
	Extensions() []string

	// Parse extracts text from data. Extraction failures wrap domain.ErrCorruptFile.
	Parse(ctx context.Context, data []byte, filename string) (*domain.ParsedDocument, error)
}

// ParserRegistry dispatches a file to the parser for its extension.
type ParserRegistry interface {
	// Parse selects a parser by extension. Unknown extensions fail with
	// domain.ErrUnsupportedFormat.
	Parse(ctx context.Context, data []byte, filename string) (*domain.ParsedDocument, error)

	// Supports returns true if a parser is registered for the filename.
	Supports(filename string) bool

	// SupportedExtensions returns every registered extension, sorted.
	SupportedExtensions() []string
}
