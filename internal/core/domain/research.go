package domain

import (
	"fmt"
	"time"
)

// ResearchStatus is the state of a research run.
type ResearchStatus string

// Research states. Complete and error are terminal.
const (
	ResearchPending      ResearchStatus = "pending"
	ResearchSearching    ResearchStatus = "searching"
	ResearchSynthesizing ResearchStatus = "synthesizing"
	ResearchComplete     ResearchStatus = "complete"
	ResearchError        ResearchStatus = "error"
)

// String returns the string representation.
func (s ResearchStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no further transitions are allowed.
func (s ResearchStatus) IsTerminal() bool {
	return s == ResearchComplete || s == ResearchError
}

// CanTransitionTo reports whether the state machine allows s -> next.
func (s ResearchStatus) CanTransitionTo(next ResearchStatus) bool {
	switch s {
	case ResearchPending:
		return next == ResearchSearching
	case ResearchSearching:
		return next == ResearchSynthesizing || next == ResearchError
	case ResearchSynthesizing:
		return next == ResearchComplete || next == ResearchError
	default:
		return false
	}
}

// Citation is a web source referenced by a research answer.
type Citation struct {
	// ID is the 1-based ordinal of the citation in its list.
	ID int `json:"id" yaml:"id"`

	// Title is a display label, "Source N" when none is known.
	Title string `json:"title" yaml:"title"`

	// URL identifies the source and is the deduplication key.
	URL string `json:"url" yaml:"url"`

	// Snippet is optional supporting text.
	Snippet string `json:"snippet,omitempty" yaml:"snippet,omitempty"`
}

// SubQuestionResult is the outcome of searching one sub-question.
type SubQuestionResult struct {
	Question string     `json:"question" yaml:"question"`
	Answer   string     `json:"answer" yaml:"answer"`
	Sources  []Citation `json:"sources" yaml:"sources"`

	// Err is set when the search for this sub-question failed.
	Err error `json:"-" yaml:"-"`
}

// Failed returns true if the search for this sub-question failed.
func (r SubQuestionResult) Failed() bool {
	return r.Err != nil
}

// ResearchQuery is the mutable state of one research run.
type ResearchQuery struct {
	ID            string              `json:"id" yaml:"id"`
	Question      string              `json:"question" yaml:"question"`
	SubQuestions  []string            `json:"sub_questions" yaml:"sub_questions"`
	SearchResults []SubQuestionResult `json:"search_results" yaml:"search_results"`
	Synthesis     string              `json:"synthesis" yaml:"synthesis"`
	Citations     []Citation          `json:"citations" yaml:"citations"`
	Status        ResearchStatus      `json:"status" yaml:"status"`

	// Error is the failure that moved the query to the error state.
	Error error `json:"-" yaml:"-"`

	StartedAt   time.Time `json:"started_at" yaml:"started_at"`
	CompletedAt time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
}

// NewResearchQuery creates a pending query for the question.
func NewResearchQuery(id, question string) *ResearchQuery {
	return &ResearchQuery{
		ID:       id,
		Question: question,
		Status:   ResearchPending,
	}
}

// Transition moves the query to next, rejecting moves the state
// machine does not allow.
func (q *ResearchQuery) Transition(next ResearchStatus) error {
	if !q.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, q.Status, next)
	}
	q.Status = next
	return nil
}

// ResearchPhase names the step a progress event refers to.
type ResearchPhase string

// Research phases reported in progress events.
const (
	PhaseDecompose  ResearchPhase = "decompose"
	PhaseSearch     ResearchPhase = "search"
	PhaseSynthesize ResearchPhase = "synthesize"
	PhaseDone       ResearchPhase = "done"
)

// ProgressEvent reports a research phase transition or a finished sub-question.
type ProgressEvent struct {
	// Status is the query status after the event.
	Status ResearchStatus

	// Phase is the step the event refers to.
	Phase ResearchPhase

	// SubQuestionIndex is the 1-based sub-question the event refers to,
	// zero for phase-level events.
	SubQuestionIndex int

	// SubQuestionTotal is the number of sub-questions, zero before decomposition.
	SubQuestionTotal int

	// Message is a human-readable description.
	Message string

	// At is when the event was emitted.
	At time.Time
}
