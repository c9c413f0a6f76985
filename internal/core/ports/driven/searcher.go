package driven

import "context"

// OnlineSearcher answers a research sub-question from live web sources.
// The answer is free text; source URLs appear inline and are extracted
// by the caller.
//
// Implementations may include:
//   - An online-search-capable chat model (Perplexity, OpenAI search models)
//   - Google Programmable Search
type OnlineSearcher interface {
	// Search researches the question and returns the raw answer text.
	Search(ctx context.Context, question string) (string, error)

	// Name identifies the backend for logging.
	Name() string
}
