// Package text parses plain text and markdown files.
package text

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.Parser = (*Parser)(nil)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parser handles plain text and markdown documents.
type Parser struct{}

// New creates a new text parser.
func New() *Parser {
	return &Parser{}
}

// Extensions returns the extensions this parser handles.
func (p *Parser) Extensions() []string {
	return []string{".txt", ".text", ".md", ".markdown"}
}

// Parse decodes the file as UTF-8. Markdown is kept verbatim.
func (p *Parser) Parse(_ context.Context, data []byte, filename string) (*domain.ParsedDocument, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: %s is not valid UTF-8", domain.ErrCorruptFile, filename)
	}

	sourceType := domain.SourceTypeText
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".md", ".markdown":
		sourceType = domain.SourceTypeMarkdown
	}

	return &domain.ParsedDocument{
		Text:       string(data),
		SourceType: sourceType,
	}, nil
}
