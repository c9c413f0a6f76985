package parsers

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driven"
	"github.com/custodia-labs/deepsearch/internal/parsers/docx"
	"github.com/custodia-labs/deepsearch/internal/parsers/email"
	"github.com/custodia-labs/deepsearch/internal/parsers/html"
	"github.com/custodia-labs/deepsearch/internal/parsers/pdf"
	"github.com/custodia-labs/deepsearch/internal/parsers/pptx"
	"github.com/custodia-labs/deepsearch/internal/parsers/subtitle"
	"github.com/custodia-labs/deepsearch/internal/parsers/text"
)

// Ensure Registry implements the interface.
var _ driven.ParserRegistry = (*Registry)(nil)

// supportedFormats is the user-facing list reported for unknown extensions.
const supportedFormats = "pdf, docx, txt/md, vtt/srt, pptx, html, eml"

// Registry maps file extensions to parsers.
type Registry struct {
	mu      sync.RWMutex
	parsers map[string]driven.Parser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		parsers: make(map[string]driven.Parser),
	}
}

// NewDefaultRegistry creates a registry with every built-in parser.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(text.New())
	r.Register(subtitle.New())
	r.Register(docx.New())
	r.Register(pptx.New())
	r.Register(pdf.New())
	r.Register(html.New())
	r.Register(email.New())
	return r
}

// Register adds a parser for each of its extensions, replacing any existing one.
func (r *Registry) Register(p driven.Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range p.Extensions() {
		r.parsers[strings.ToLower(ext)] = p
	}
}

// Parse dispatches to the parser registered for the filename's extension.
func (r *Registry) Parse(ctx context.Context, data []byte, filename string) (*domain.ParsedDocument, error) {
	p, ok := r.lookup(filename)
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %s)", domain.ErrUnsupportedFormat, filepath.Ext(filename), supportedFormats)
	}

	parsed, err := p.Parse(ctx, data, filename)
	if err != nil {
		return nil, err
	}
	parsed.Metadata.WordCount = domain.CountWords(parsed.Text)
	return parsed, nil
}

// Supports returns true if a parser is registered for the filename.
func (r *Registry) Supports(filename string) bool {
	_, ok := r.lookup(filename)
	return ok
}

// SupportedExtensions returns every registered extension, sorted.
func (r *Registry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.parsers))
	for ext := range r.parsers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func (r *Registry) lookup(filename string) (driven.Parser, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.parsers[ext]
	return p, ok
}
