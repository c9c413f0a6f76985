// Package pptx extracts slide text from Office Open XML presentations.
package pptx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.Parser = (*Parser)(nil)

var slidePart = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// Parser handles PPTX presentations.
type Parser struct{}

// New creates a new PPTX parser.
func New() *Parser {
	return &Parser{}
}

// Extensions returns the extensions this parser handles.
func (p *Parser) Extensions() []string {
	return []string{".pptx"}
}

type slide struct {
	number int
	file   *zip.File
}

// Parse extracts the text of each slide in slide order. Slides are
// separated by a blank line and PageCount is the number of slides.
func (p *Parser) Parse(_ context.Context, data []byte, filename string) (*domain.ParsedDocument, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrCorruptFile, filename, err)
	}

	var slides []slide
	for _, f := range reader.File {
		m := slidePart.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		slides = append(slides, slide{number: n, file: f})
	}
	if len(slides) == 0 {
		return nil, fmt.Errorf("%w: %s: no slides found", domain.ErrCorruptFile, filename)
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].number < slides[j].number })

	texts := make([]string, 0, len(slides))
	for _, s := range slides {
		text, err := slideText(s.file)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: slide %d: %w", domain.ErrCorruptFile, filename, s.number, err)
		}
		if text != "" {
			texts = append(texts, text)
		}
	}

	return &domain.ParsedDocument{
		Text:       strings.Join(texts, "\n\n"),
		SourceType: domain.SourceTypePPTX,
		Metadata:   domain.DocumentMetadata{PageCount: len(slides)},
	}, nil
}

// slideText collects <a:t> runs, one line per <a:p> paragraph.
func slideText(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	dec := xml.NewDecoder(rc)
	var (
		lines  []string
		line   strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if s := strings.TrimSpace(line.String()); s != "" {
					lines = append(lines, s)
				}
				line.Reset()
			}
		case xml.CharData:
			if inText {
				line.Write(t)
			}
		}
	}
	if s := strings.TrimSpace(line.String()); s != "" {
		lines = append(lines, s)
	}

	return strings.Join(lines, "\n"), nil
}
