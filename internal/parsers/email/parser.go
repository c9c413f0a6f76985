// Package email parses RFC 5322 messages saved as .eml files.
package email

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driven"
	"github.com/custodia-labs/deepsearch/internal/parsers/html"
)

// Ensure Parser implements the interface.
var _ driven.Parser = (*Parser)(nil)

// Parser handles saved email messages.
type Parser struct{}

// New creates a new email parser.
func New() *Parser {
	return &Parser{}
}

// Extensions returns the extensions this parser handles.
func (p *Parser) Extensions() []string {
	return []string{".eml"}
}

// Parse returns the From, To, Date and Subject headers followed by the
// message body. Plain text parts are preferred over HTML parts.
func (p *Parser) Parse(_ context.Context, data []byte, filename string) (*domain.ParsedDocument, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrCorruptFile, filename, err)
	}

	body, err := extractBody(msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrCorruptFile, filename, err)
	}

	var content strings.Builder
	for _, name := range []string{"From", "To", "Date", "Subject"} {
		if value := decodeHeader(msg.Header.Get(name)); value != "" {
			fmt.Fprintf(&content, "%s: %s\n", name, value)
		}
	}
	content.WriteString("\n")
	content.WriteString(body)

	return &domain.ParsedDocument{
		Text:       strings.TrimSpace(content.String()),
		SourceType: domain.SourceTypeEmail,
	}, nil
}

// decodeHeader decodes RFC 2047 encoded words, returning the raw header
// when decoding fails.
func decodeHeader(header string) string {
	if header == "" {
		return ""
	}
	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(header)
	if err != nil {
		return header
	}
	return decoded
}

func extractBody(msg *mail.Message) (string, error) {
	contentType := msg.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain"
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		body, readErr := io.ReadAll(msg.Body)
		if readErr != nil {
			return "", readErr
		}
		return string(body), nil
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		return extractMultipart(msg.Body, params["boundary"]), nil
	}

	body, err := io.ReadAll(msg.Body)
	if err != nil {
		return "", err
	}
	if mediaType == "text/html" {
		return html.StripTags(string(body)), nil
	}
	return string(body), nil
}

// extractMultipart collects the text parts of a multipart body, recursing
// into nested multiparts. Attachments are ignored.
func extractMultipart(r io.Reader, boundary string) string {
	if boundary == "" {
		return ""
	}

	mr := multipart.NewReader(r, boundary)
	var textParts, htmlParts []string
	for {
		part, err := mr.NextPart()
		if err != nil {
			break
		}

		mediaType, params, parseErr := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if parseErr != nil {
			mediaType = "text/plain"
		}
		content, readErr := io.ReadAll(part)
		part.Close()
		if readErr != nil || part.FileName() != "" {
			continue
		}

		switch {
		case mediaType == "text/plain":
			textParts = append(textParts, strings.TrimSpace(string(content)))
		case mediaType == "text/html":
			htmlParts = append(htmlParts, html.StripTags(string(content)))
		case strings.HasPrefix(mediaType, "multipart/"):
			if nested := extractMultipart(bytes.NewReader(content), params["boundary"]); nested != "" {
				textParts = append(textParts, nested)
			}
		}
	}

	if len(textParts) > 0 {
		return strings.Join(textParts, "\n")
	}
	return strings.Join(htmlParts, "\n")
}
