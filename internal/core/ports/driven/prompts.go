package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used throughout the application.
const (
	// PromptDecompose splits a research question into sub-questions.
	// The template expects %d (max sub-questions) and %s (question) placeholders.
	PromptDecompose = "research_decompose"

	// PromptSearch asks an online model to research one sub-question.
	// The template expects a %s placeholder for the sub-question.
	PromptSearch = "research_search"

	// PromptSynthesise combines sub-question findings into a report.
	// The template expects %s (question) and %s (findings) placeholders.
	PromptSynthesise = "research_synthesise"

	// PromptAskSystem is the system prompt for grounded question answering.
	// This prompt has no format placeholders.
	PromptAskSystem = "ask_system"
)

// PromptStoreAware is an optional interface for services that can use custom prompts.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	// If not set, the service should use hardcoded default prompts.
	SetPromptStore(store PromptStore)
}

// DefaultPrompts holds the built-in template for every well-known prompt.
// Prompt stores seed their files from these and services fall back to them
// when no store is configured.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var DefaultPrompts = map[string]string{
	PromptDecompose: `Break the following research question into at most %d focused sub-questions that can each be answered by a web search.
Return ONLY a numbered list, one sub-question per line, like:
1. First sub-question
2. Second sub-question

Question: %s`,

	PromptSearch: `Research the following question using current web sources.
Answer factually and concisely. Include the full URL of every source you rely on directly in the text.

Question: %s`,

	PromptSynthesise: `You are writing a research report.

Original question: %s

Findings from sub-question research (sources are numbered in order of appearance):
%s

Write a well-structured answer to the original question. Use headings where helpful, cite sources inline as [N] using the numbers above, and say so explicitly where the findings are incomplete or disagree.`,

	PromptAskSystem: `You are a careful assistant answering questions from the user's own documents.
Use ONLY the context provided in the user message. Cite the source document name for each claim.
If the context does not contain the answer, say that you don't know.`,
}

// ResolvePrompt returns the named template from store, falling back to
// DefaultPrompts when store is nil or cannot provide it.
func ResolvePrompt(store PromptStore, name string) string {
	if store != nil {
		if prompt, err := store.Load(name); err == nil && prompt != "" {
			return prompt
		}
	}
	return DefaultPrompts[name]
}
