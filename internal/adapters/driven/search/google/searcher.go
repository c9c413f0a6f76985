// Package google provides an online searcher backed by Google Programmable Search.
package google

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/custodia-labs/deepsearch/internal/adapters/driven/httpclient"
	"github.com/custodia-labs/deepsearch/internal/core/domain"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driven"
	"github.com/custodia-labs/deepsearch/internal/logger"
)

// Ensure Searcher implements the interface.
var _ driven.OnlineSearcher = (*Searcher)(nil)

const providerName = "google"

// Default configuration values.
const (
	DefaultResults = 5
	maxResults     = 10 // API limit per request
)

// Config holds configuration for the Google searcher.
type Config struct {
	// APIKey is the Google API key (required).
	APIKey string

	// EngineID is the Programmable Search engine ID (required).
	EngineID string

	// Results is how many hits to fetch per question (default 5, max 10).
	Results int

	// Endpoint overrides the API endpoint.
	Endpoint string

	// RequestsPerSecond paces calls. Zero disables pacing.
	RequestsPerSecond float64
}

// Searcher answers a question with the top Programmable Search results.
// Each hit is rendered as "title\nsnippet\nurl" so that citation extraction
// works the same as for model answers.
type Searcher struct {
	svc      *customsearch.Service
	limiter  *httpclient.Limiter
	engineID string
	results  int64
}

// NewSearcher creates a Google searcher.
func NewSearcher(ctx context.Context, cfg Config) (*Searcher, error) {
	if cfg.APIKey == "" || cfg.EngineID == "" {
		return nil, fmt.Errorf("%w: google search needs an API key and engine ID", domain.ErrInvalidInput)
	}
	if cfg.Results <= 0 {
		cfg.Results = DefaultResults
	}
	if cfg.Results > maxResults {
		cfg.Results = maxResults
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, httpclient.Unavailable(providerName, "create client", err)
	}

	return &Searcher{
		svc:      svc,
		limiter:  httpclient.NewLimiter(cfg.RequestsPerSecond),
		engineID: cfg.EngineID,
		results:  int64(cfg.Results),
	}, nil
}

// Search runs one query and renders the hits as text.
// A query with no hits yields an empty answer, not an error.
func (s *Searcher) Search(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("%w: empty search question", domain.ErrInvalidInput)
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}

	resp, err := s.svc.Cse.List().
		Cx(s.engineID).
		Q(question).
		Num(s.results).
		Context(ctx).
		Do()
	if err != nil {
		return "", httpclient.FromGoogleAPI(providerName, "search", err)
	}

	logger.Debug("google: %d results for %q", len(resp.Items), question)
	return render(resp.Items), nil
}

func render(items []*customsearch.Result) string {
	blocks := make([]string, 0, len(items))
	for _, item := range items {
		if item == nil || item.Link == "" {
			continue
		}
		lines := make([]string, 0, 3)
		if title := strings.TrimSpace(item.Title); title != "" {
			lines = append(lines, title)
		}
		if snippet := strings.Join(strings.Fields(item.Snippet), " "); snippet != "" {
			lines = append(lines, snippet)
		}
		lines = append(lines, item.Link)
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	return strings.Join(blocks, "\n\n")
}

// Name identifies the backend for logging.
func (s *Searcher) Name() string {
	return providerName
}
