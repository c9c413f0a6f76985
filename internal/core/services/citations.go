package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
)

var (
	urlPattern = regexp.MustCompile(`https?://[^\s<>"'\)\]]+`)

	// listItem matches a "1. ", "2) " or "- " list line and captures its text.
	listItem = regexp.MustCompile(`^(?:\d+[.)]|-)\s+(\S.*)$`)

	defaultTitle = regexp.MustCompile(`^Source \d+$`)
)

// urlTrailing is stripped from the end of every extracted URL.
const urlTrailing = `.,;:!?)]}'"`

// ExtractCitations returns the distinct URLs in text, in order of first
// appearance, titled "Source N".
func ExtractCitations(text string) []domain.Citation {
	citations := make([]domain.Citation, 0)
	seen := make(map[string]bool)
	for _, match := range urlPattern.FindAllString(text, -1) {
		url := strings.TrimRight(match, urlTrailing)
		if seen[url] || strings.HasSuffix(url, "://") {
			continue
		}
		seen[url] = true
		n := len(citations) + 1
		citations = append(citations, domain.Citation{
			ID:    n,
			Title: fmt.Sprintf("Source %d", n),
			URL:   url,
		})
	}
	return citations
}

// MergeCitations combines the sources of every result, keeping the first
// occurrence of each URL, and renumbers them from 1.
func MergeCitations(results []domain.SubQuestionResult) []domain.Citation {
	merged := make([]domain.Citation, 0)
	seen := make(map[string]bool)
	for _, r := range results {
		for _, c := range r.Sources {
			if seen[c.URL] {
				continue
			}
			seen[c.URL] = true
			c.ID = len(merged) + 1
			if c.Title == "" || defaultTitle.MatchString(c.Title) {
				c.Title = fmt.Sprintf("Source %d", c.ID)
			}
			merged = append(merged, c)
		}
	}
	return merged
}

// ParseSubQuestions turns a numbered list into at most limit sub-questions.
// Only list lines count; preambles and other prose are ignored. When no
// list line remains the original question is returned on its own.
func ParseSubQuestions(text, question string, limit int) []string {
	var subs []string
	for _, line := range strings.Split(text, "\n") {
		m := listItem.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		if sub := strings.TrimSpace(m[1]); sub != "" {
			subs = append(subs, sub)
		}
	}

	if limit > 0 && len(subs) > limit {
		subs = subs[:limit]
	}
	if len(subs) == 0 {
		return []string{question}
	}
	return subs
}
