package driving

import (
	"context"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
)

// ResearchService runs multi-step web research.
type ResearchService interface {
	// Research decomposes the question, searches each sub-question and
	// synthesises a cited report. Progress events are sent on events when
	// it is non-nil; the channel is never closed by the service.
	//
	// On failure the returned query is non-nil with status error, holding
	// whatever sub-questions and results were gathered.
	Research(ctx context.Context, question string, events chan<- domain.ProgressEvent) (*domain.ResearchQuery, error)
}
