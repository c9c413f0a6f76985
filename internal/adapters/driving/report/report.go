// Package report renders finished research runs for terminals and files.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
)

// Format selects how a research report is rendered.
type Format string

// Supported formats.
const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatText, FormatMarkdown, FormatJSON, FormatYAML}
}

// ParseFormat resolves a format name. "md" and "yml" are accepted aliases.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "text", "txt":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (text, markdown, json, yaml)", domain.ErrInvalidInput, name)
	}
}

// Document is the serialisable form of a research run.
type Document struct {
	ID           string        `json:"id" yaml:"id"`
	Question     string        `json:"question" yaml:"question"`
	Status       string        `json:"status" yaml:"status"`
	SubQuestions []SubQuestion `json:"sub_questions" yaml:"sub_questions"`
	Report       string        `json:"report" yaml:"report"`
	Citations    []Citation    `json:"citations" yaml:"citations"`
	Error        string        `json:"error,omitempty" yaml:"error,omitempty"`
	StartedAt    string        `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	CompletedAt  string        `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	DurationMS   int64         `json:"duration_ms,omitempty" yaml:"duration_ms,omitempty"`
}

// SubQuestion is one searched sub-question.
type SubQuestion struct {
	Question string     `json:"question" yaml:"question"`
	Answer   string     `json:"answer,omitempty" yaml:"answer,omitempty"`
	Sources  []Citation `json:"sources" yaml:"sources"`
	Error    string     `json:"error,omitempty" yaml:"error,omitempty"`
}

// Citation is a numbered web source.
type Citation struct {
	ID      int    `json:"id" yaml:"id"`
	Title   string `json:"title" yaml:"title"`
	URL     string `json:"url" yaml:"url"`
	Snippet string `json:"snippet,omitempty" yaml:"snippet,omitempty"`
}

// NewDocument converts a research query into its serialisable form.
// Sub-questions that were never searched are listed without an answer.
func NewDocument(q *domain.ResearchQuery) Document {
	doc := Document{
		ID:           q.ID,
		Question:     q.Question,
		Status:       q.Status.String(),
		SubQuestions: make([]SubQuestion, 0, len(q.SubQuestions)),
		Report:       q.Synthesis,
		Citations:    toCitations(q.Citations),
	}
	if q.Error != nil {
		doc.Error = q.Error.Error()
	}
	if !q.StartedAt.IsZero() {
		doc.StartedAt = q.StartedAt.UTC().Format(time.RFC3339)
	}
	if !q.CompletedAt.IsZero() {
		doc.CompletedAt = q.CompletedAt.UTC().Format(time.RFC3339)
		if !q.StartedAt.IsZero() {
			doc.DurationMS = q.CompletedAt.Sub(q.StartedAt).Milliseconds()
		}
	}

	for i, question := range q.SubQuestions {
		sq := SubQuestion{Question: question, Sources: []Citation{}}
		if i < len(q.SearchResults) {
			res := q.SearchResults[i]
			sq.Answer = res.Answer
			sq.Sources = toCitations(res.Sources)
			if res.Err != nil {
				sq.Error = res.Err.Error()
			}
		}
		doc.SubQuestions = append(doc.SubQuestions, sq)
	}
	return doc
}

func toCitations(in []domain.Citation) []Citation {
	out := make([]Citation, len(in))
	for i, c := range in {
		out[i] = Citation{ID: c.ID, Title: c.Title, URL: c.URL, Snippet: c.Snippet}
	}
	return out
}

// Write renders q to w in the given format.
func Write(w io.Writer, q *domain.ResearchQuery, format Format) error {
	if q == nil {
		return fmt.Errorf("%w: no research to render", domain.ErrInvalidInput)
	}

	switch format {
	case FormatText, "":
		_, err := io.WriteString(w, Text(q))
		return err
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(q))
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(NewDocument(q))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(NewDocument(q)); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: unknown format %q", domain.ErrInvalidInput, format)
	}
}

// Text renders a plain-text report for terminals.
func Text(q *domain.ResearchQuery) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Question: %s\n\n", q.Question)
	if q.Synthesis != "" {
		b.WriteString(strings.TrimSpace(q.Synthesis))
		b.WriteString("\n\n")
	}
	if q.Error != nil {
		fmt.Fprintf(&b, "Research failed: %v\n\n", q.Error)
	}

	if len(q.SubQuestions) > 0 {
		b.WriteString("Sub-questions:\n")
		for i, sq := range q.SubQuestions {
			fmt.Fprintf(&b, "  %d. %s%s\n", i+1, sq, failureNote(q, i))
		}
		b.WriteString("\n")
	}

	if len(q.Citations) > 0 {
		b.WriteString("Sources:\n")
		for _, c := range q.Citations {
			fmt.Fprintf(&b, "  [%d] %s\n      %s\n", c.ID, c.Title, c.URL)
		}
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// Markdown renders a report suitable for saving as a .md file.
func Markdown(q *domain.ResearchQuery) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", q.Question)
	if q.Synthesis != "" {
		b.WriteString(strings.TrimSpace(q.Synthesis))
		b.WriteString("\n\n")
	}
	if q.Error != nil {
		fmt.Fprintf(&b, "> **Research failed:** %v\n\n", q.Error)
	}

	if len(q.SubQuestions) > 0 {
		b.WriteString("## Sub-questions\n\n")
		for i, sq := range q.SubQuestions {
			note := ""
			if i < len(q.SearchResults) && q.SearchResults[i].Failed() {
				note = " _(search failed)_"
			}
			fmt.Fprintf(&b, "%d. %s%s\n", i+1, sq, note)
		}
		b.WriteString("\n")
	}

	if len(q.Citations) > 0 {
		b.WriteString("## Sources\n\n")
		for _, c := range q.Citations {
			fmt.Fprintf(&b, "%d. [%s](%s)\n", c.ID, c.Title, c.URL)
		}
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func failureNote(q *domain.ResearchQuery, i int) string {
	if i < len(q.SearchResults) && q.SearchResults[i].Failed() {
		return fmt.Sprintf(" (search failed: %v)", q.SearchResults[i].Err)
	}
	return ""
}
