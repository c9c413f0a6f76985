// Package search groups the online searchers used by research runs.
//
// Adapters:
//   - llm: an online-search-capable chat model (Perplexity, OpenAI search models)
//   - google: Google Programmable Search
package search
