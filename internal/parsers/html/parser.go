package html

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.Parser = (*Parser)(nil)

// skipped elements never contribute text.
var skipped = map[string]bool{
	"head": true, "script": true, "style": true, "noscript": true,
	"svg": true, "template": true, "iframe": true,
}

// block elements start a new line.
var block = map[string]bool{
	"p": true, "div": true, "br": true, "hr": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true, "table": true, "section": true,
	"article": true, "header": true, "footer": true, "ul": true, "ol": true,
}

// Parser handles HTML documents.
type Parser struct{}

// New creates a new HTML parser.
func New() *Parser {
	return &Parser{}
}

// Extensions returns the extensions this parser handles.
func (p *Parser) Extensions() []string {
	return []string{".html", ".htm", ".xhtml"}
}

// Parse strips markup and returns the visible text, one block per line.
// The page title, when present, becomes the first line.
func (p *Parser) Parse(_ context.Context, data []byte, filename string) (*domain.ParsedDocument, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrCorruptFile, filename, err)
	}

	text := Text(doc)
	if title := Title(doc); title != "" && !strings.HasPrefix(text, title) {
		text = strings.TrimSpace(title + "\n" + text)
	}

	return &domain.ParsedDocument{
		Text:       text,
		SourceType: domain.SourceTypeHTML,
	}, nil
}

// Title returns the trimmed content of the first <title> element.
func Title(doc *html.Node) string {
	var title string
	var find func(*html.Node) bool
	find = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil {
				title = strings.TrimSpace(n.FirstChild.Data)
			}
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if find(c) {
				return true
			}
		}
		return false
	}
	find(doc)
	return title
}

// Text returns the visible text below n with whitespace collapsed and
// empty lines removed.
func Text(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			if skipped[n.Data] {
				return
			}
			if block[n.Data] {
				sb.WriteByte('\n')
			}
		case html.TextNode:
			sb.WriteString(n.Data)
		case html.CommentNode:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && block[n.Data] {
			sb.WriteByte('\n')
		}
	}
	walk(n)

	var lines []string
	for _, line := range strings.Split(sb.String(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// StripTags returns the visible text of an HTML fragment. Input that
// cannot be parsed is returned unchanged.
func StripTags(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return Text(doc)
}
