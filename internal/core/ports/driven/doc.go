// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Parser: Extracts text and metadata from a file
//   - Chunker: Splits document text into overlapping chunks
//   - VectorStore: Document and chunk-vector persistence
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: Generates vector embeddings. Without it, ingestion and search are disabled.
//   - LLMService: Language model operations. Without it, ask and research are disabled.
//   - OnlineSearcher: Web search for research sub-questions.
//   - Transcriber: Audio transcription for indexing recordings.
//   - PromptStore: User-customisable prompt templates.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or parser package
package driven
