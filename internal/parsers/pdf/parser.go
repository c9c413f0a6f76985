// Package pdf extracts text from PDF files using the poppler pdftotext tool.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.Parser = (*Parser)(nil)

const toolName = "pdftotext"

// ErrPDFToolNotFound indicates pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

var pdfMagic = []byte("%PDF-")

// CommandRunner runs an external command, feeding stdin and returning stdout.
type CommandRunner interface {
	Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, ErrPDFToolNotFound
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = bytes.NewReader(stdin)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}

// Parser handles PDF documents.
type Parser struct {
	runner CommandRunner
}

// New creates a PDF parser that shells out to pdftotext.
func New() *Parser {
	return &Parser{runner: execRunner{}}
}

// NewWithRunner creates a PDF parser with a custom command runner.
func NewWithRunner(runner CommandRunner) *Parser {
	return &Parser{runner: runner}
}

// Extensions returns the extensions this parser handles.
func (p *Parser) Extensions() []string {
	return []string{".pdf"}
}

// Parse runs pdftotext over the file. Pages are delimited by form feeds in
// the tool's output, which gives the page count.
func (p *Parser) Parse(ctx context.Context, data []byte, filename string) (*domain.ParsedDocument, error) {
	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), pdfMagic) {
		return nil, fmt.Errorf("%w: %s: missing PDF header", domain.ErrCorruptFile, filename)
	}

	out, err := p.runner.Run(ctx, data, toolName, "-layout", "-enc", "UTF-8", "-", "-")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: pdftotext failed: %w", domain.ErrCorruptFile, filename, err)
	}

	pages := splitPages(string(out))

	return &domain.ParsedDocument{
		Text:       strings.Join(pages, "\n\n"),
		SourceType: domain.SourceTypePDF,
		Metadata:   domain.DocumentMetadata{PageCount: len(pages)},
	}, nil
}

// splitPages splits pdftotext output on form feeds, dropping the empty
// page that follows the final feed.
func splitPages(out string) []string {
	raw := strings.Split(out, "\f")
	if len(raw) > 1 && strings.TrimSpace(raw[len(raw)-1]) == "" {
		raw = raw[:len(raw)-1]
	}
	pages := make([]string, len(raw))
	for i, page := range raw {
		pages[i] = strings.TrimSpace(page)
	}
	return pages
}

// InstallInstructions returns instructions for installing pdftotext.
func InstallInstructions() string {
	return `pdftotext is required for PDF support.

Install poppler:
  macOS:  brew install poppler
  Ubuntu: sudo apt install poppler-utils
  Fedora: sudo dnf install poppler-utils`
}
