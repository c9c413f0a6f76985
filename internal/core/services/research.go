package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driven"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driving"
	"github.com/custodia-labs/deepsearch/internal/logger"
)

// Ensure ResearchService implements the interfaces.
var (
	_ driving.ResearchService = (*ResearchService)(nil)
	_ driven.PromptStoreAware = (*ResearchService)(nil)
)

// DefaultMaxSubQuestions caps decomposition when no limit is configured.
const DefaultMaxSubQuestions = 5

// ResearchConfig configures a research run.
type ResearchConfig struct {
	// MaxSubQuestions caps the decomposition. Zero uses DefaultMaxSubQuestions.
	MaxSubQuestions int

	// FailFast aborts the run on the first failed sub-question search.
	// By default failures are recorded and the remaining sub-questions run.
	FailFast bool

	// Timeout bounds one run. Zero means no limit beyond the caller's context.
	Timeout time.Duration
}

// ResearchConfigFromSettings maps stored settings onto a ResearchConfig.
func ResearchConfigFromSettings(settings domain.ResearchSettings) ResearchConfig {
	return ResearchConfig{
		MaxSubQuestions: settings.MaxSubQuestions,
		FailFast:        settings.FailFast,
		Timeout:         time.Duration(settings.TimeoutSeconds) * time.Second,
	}
}

// ResearchOption configures the research service.
type ResearchOption func(*ResearchService)

// WithResearchClock overrides the time source for timestamps and events.
func WithResearchClock(fn func() time.Time) ResearchOption {
	return func(s *ResearchService) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithResearchIDGenerator overrides research query ID generation.
func WithResearchIDGenerator(fn func() string) ResearchOption {
	return func(s *ResearchService) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// ResearchService decomposes a question, searches the web for each part
// and synthesises a cited report.
type ResearchService struct {
	llm      driven.LLMService
	searcher driven.OnlineSearcher
	prompts  driven.PromptStore
	config   ResearchConfig
	now      func() time.Time
	newID    func() string
}

// NewResearchService creates a new research service.
func NewResearchService(
	llm driven.LLMService,
	searcher driven.OnlineSearcher,
	config ResearchConfig,
	opts ...ResearchOption,
) *ResearchService {
	if config.MaxSubQuestions <= 0 {
		config.MaxSubQuestions = DefaultMaxSubQuestions
	}
	s := &ResearchService{
		llm:      llm,
		searcher: searcher,
		config:   config,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetPromptStore sets the prompt store for decomposition and synthesis prompts.
func (s *ResearchService) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// run carries the state of one research invocation.
type run struct {
	svc    *ResearchService
	query  *domain.ResearchQuery
	events chan<- domain.ProgressEvent
}

// Research runs the decompose, search and synthesise phases.
//
// Validation failures return a nil query. Once the run has started, the
// returned query is always non-nil; on failure it is in the error state and
// keeps the sub-questions and search results gathered so far.
func (s *ResearchService) Research(
	ctx context.Context,
	question string,
	events chan<- domain.ProgressEvent,
) (*domain.ResearchQuery, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}
	if s.searcher == nil {
		return nil, domain.ErrSearchUnavailable
	}

	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	logger.Section("Research")
	logger.Debug("Question: %q (max %d sub-questions, fail fast %t)",
		question, s.config.MaxSubQuestions, s.config.FailFast)

	r := &run{
		svc:    s,
		query:  domain.NewResearchQuery(s.newID(), question),
		events: events,
	}
	r.query.StartedAt = s.now()

	if err := r.transition(ctx, domain.ResearchSearching, domain.PhaseDecompose, 0, "Decomposing question"); err != nil {
		return r.fail(ctx, domain.PhaseDecompose, err)
	}

	if err := r.decompose(ctx); err != nil {
		return r.fail(ctx, domain.PhaseDecompose, err)
	}

	if err := r.search(ctx); err != nil {
		return r.fail(ctx, domain.PhaseSearch, err)
	}

	if err := r.synthesise(ctx); err != nil {
		return r.fail(ctx, domain.PhaseSynthesize, err)
	}

	r.query.CompletedAt = s.now()
	if err := r.transition(ctx, domain.ResearchComplete, domain.PhaseDone, 0, "Research complete"); err != nil {
		return r.fail(ctx, domain.PhaseDone, err)
	}
	logger.Info("Research complete in %v: %d citations",
		r.query.CompletedAt.Sub(r.query.StartedAt).Round(time.Millisecond), len(r.query.Citations))
	return r.query, nil
}

// decompose asks the LLM for sub-questions.
func (r *run) decompose(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	limit := r.svc.config.MaxSubQuestions
	prompt := fmt.Sprintf(driven.ResolvePrompt(r.svc.prompts, driven.PromptDecompose), limit, r.query.Question)

	start := time.Now()
	text, err := r.svc.llm.Generate(ctx, prompt, driven.GenerateOptions{MaxTokens: 512, Temperature: 0.3})
	if err != nil {
		return fmt.Errorf("decompose: %w", err)
	}
	logger.Debug("Decomposition took %v", time.Since(start).Round(time.Millisecond))

	r.query.SubQuestions = ParseSubQuestions(text, r.query.Question, limit)
	for i, sq := range r.query.SubQuestions {
		logger.Debug("Sub-question %d: %s", i+1, sq)
	}

	r.emit(ctx, domain.PhaseDecompose, 0,
		fmt.Sprintf("Decomposed into %d sub-questions", len(r.query.SubQuestions)))
	return nil
}

// search runs the sub-questions in order through the online searcher.
func (r *run) search(ctx context.Context) error {
	logger.Section("Research: Search")
	total := len(r.query.SubQuestions)

	var failures int
	var lastErr error
	for i, sq := range r.query.SubQuestions {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		answer, err := r.svc.searcher.Search(ctx, sq)
		if err != nil {
			// Cancellation is never isolated to one sub-question.
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}

			failures++
			lastErr = fmt.Errorf("sub-question %d: %w", i+1, err)
			r.query.SearchResults = append(r.query.SearchResults, domain.SubQuestionResult{
				Question: sq,
				Sources:  []domain.Citation{},
				Err:      err,
			})
			logger.Warn("Search %d/%d via %s failed: %v", i+1, total, r.svc.searcher.Name(), err)
			r.emit(ctx, domain.PhaseSearch, i+1, fmt.Sprintf("Search failed: %s", sq))

			if r.svc.config.FailFast {
				return lastErr
			}
			continue
		}

		result := domain.SubQuestionResult{
			Question: sq,
			Answer:   answer,
			Sources:  ExtractCitations(answer),
		}
		r.query.SearchResults = append(r.query.SearchResults, result)
		logger.Debug("Search %d/%d took %v: %d sources",
			i+1, total, time.Since(start).Round(time.Millisecond), len(result.Sources))
		r.emit(ctx, domain.PhaseSearch, i+1, fmt.Sprintf("Searched: %s", sq))
	}

	if total > 0 && failures == total {
		return fmt.Errorf("%w: %w", domain.ErrAllSearchesFailed, lastErr)
	}
	return nil
}

// synthesise asks the LLM for the final report over the successful results.
func (r *run) synthesise(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.transition(ctx, domain.ResearchSynthesizing, domain.PhaseSynthesize, 0, "Synthesising report"); err != nil {
		return err
	}
	logger.Section("Research: Synthesis")

	citations := MergeCitations(r.query.SearchResults)
	prompt := fmt.Sprintf(driven.ResolvePrompt(r.svc.prompts, driven.PromptSynthesise),
		r.query.Question, formatFindings(r.query.SearchResults, citations))

	start := time.Now()
	text, err := r.svc.llm.Generate(ctx, prompt, driven.GenerateOptions{MaxTokens: 2048, Temperature: 0.3})
	if err != nil {
		return fmt.Errorf("synthesise: %w", err)
	}
	logger.Debug("Synthesis took %v", time.Since(start).Round(time.Millisecond))

	r.query.Synthesis = strings.TrimSpace(text)
	r.query.Citations = citations
	return nil
}

// transition moves the query to next and reports it.
func (r *run) transition(
	ctx context.Context,
	next domain.ResearchStatus,
	phase domain.ResearchPhase,
	index int,
	message string,
) error {
	if err := r.query.Transition(next); err != nil {
		return err
	}
	r.emit(ctx, phase, index, message)
	return nil
}

// fail records err, moves the query to the error state and reports it.
func (r *run) fail(ctx context.Context, phase domain.ResearchPhase, err error) (*domain.ResearchQuery, error) {
	r.query.Error = err
	r.query.CompletedAt = r.svc.now()
	if r.query.Status.CanTransitionTo(domain.ResearchError) {
		r.query.Status = domain.ResearchError
	}
	logger.Warn("Research failed during %s: %v", phase, err)
	r.emit(ctx, phase, 0, err.Error())
	return r.query, err
}

// emit sends a progress event unless the context is done first.
func (r *run) emit(ctx context.Context, phase domain.ResearchPhase, index int, message string) {
	if r.events == nil {
		return
	}
	event := domain.ProgressEvent{
		Status:           r.query.Status,
		Phase:            phase,
		SubQuestionIndex: index,
		SubQuestionTotal: len(r.query.SubQuestions),
		Message:          message,
		At:               r.svc.now(),
	}

	// Sends after cancellation never block.
	if ctx.Err() != nil {
		select {
		case r.events <- event:
		default:
		}
		return
	}
	select {
	case r.events <- event:
	case <-ctx.Done():
	}
}

// formatFindings renders successful sub-question answers followed by the
// numbered source list.
func formatFindings(results []domain.SubQuestionResult, citations []domain.Citation) string {
	var b strings.Builder
	n := 0
	for _, res := range results {
		if res.Failed() {
			continue
		}
		n++
		fmt.Fprintf(&b, "### %d. %s\n%s\n\n", n, res.Question, strings.TrimSpace(res.Answer))
	}

	if len(citations) > 0 {
		b.WriteString("Sources:\n")
		for _, c := range citations {
			fmt.Fprintf(&b, "[%d] %s\n", c.ID, c.URL)
		}
	}
	return strings.TrimSpace(b.String())
}

// IsCancellation reports whether err came from a cancelled or expired context.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
