// Package subtitle parses WebVTT and SubRip caption files into running text.
package subtitle

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.Parser = (*Parser)(nil)

var (
	// markupTags matches inline tags such as <i>, </b>, <c.yellow>, <v Bob> and <00:00:01.000>.
	markupTags = regexp.MustCompile(`<[^>]*>`)

	// assTags matches SSA/ASS override blocks that some srt files carry, e.g. {\an8}.
	assTags = regexp.MustCompile(`\{\\[^}]*\}`)

	whitespace = regexp.MustCompile(`\s+`)
)

// Parser handles .vtt and .srt caption files.
type Parser struct{}

// New creates a new subtitle parser.
func New() *Parser {
	return &Parser{}
}

// Extensions returns the extensions this parser handles.
func (p *Parser) Extensions() []string {
	return []string{".vtt", ".srt"}
}

// Parse strips cue identifiers, timing lines and markup, and joins the
// remaining caption text with single spaces.
func (p *Parser) Parse(_ context.Context, data []byte, filename string) (*domain.ParsedDocument, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: %s is not valid UTF-8", domain.ErrCorruptFile, filename)
	}

	return &domain.ParsedDocument{
		Text:       ExtractText(string(data)),
		SourceType: domain.SourceTypeSubtitle,
	}, nil
}

// ExtractText returns the spoken text of a vtt or srt document.
func ExtractText(raw string) string {
	raw = strings.TrimPrefix(raw, "\ufeff")
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")
	lines := strings.Split(raw, "\n")

	var parts []string
	skipBlock := false
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])

		if line == "" {
			skipBlock = false
			continue
		}
		if skipBlock {
			continue
		}
		if i == 0 && strings.HasPrefix(line, "WEBVTT") {
			skipBlock = true
			continue
		}
		if isMetadataBlock(line) {
			skipBlock = true
			continue
		}
		if isTiming(line) {
			continue
		}
		if isCueIdentifier(lines, i) {
			continue
		}

		cleaned := stripMarkup(line)
		if cleaned != "" {
			parts = append(parts, cleaned)
		}
	}

	return strings.Join(parts, " ")
}

func isTiming(line string) bool {
	return strings.Contains(line, "-->")
}

func isMetadataBlock(line string) bool {
	return line == "NOTE" || strings.HasPrefix(line, "NOTE ") ||
		line == "STYLE" || line == "REGION"
}

// isCueIdentifier reports whether the line at i labels the cue whose timing
// line follows it. Both srt counters and vtt cue ids take this position.
func isCueIdentifier(lines []string, i int) bool {
	if i+1 >= len(lines) {
		return false
	}
	return isTiming(strings.TrimSpace(lines[i+1]))
}

func stripMarkup(line string) string {
	line = markupTags.ReplaceAllString(line, "")
	line = assTags.ReplaceAllString(line, "")
	line = html.UnescapeString(line)
	return strings.TrimSpace(whitespace.ReplaceAllString(line, " "))
}
