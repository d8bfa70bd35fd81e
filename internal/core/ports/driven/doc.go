// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - DocumentParser: Turns file bytes of one format into raw documents
//   - PostProcessorPipeline: Splits documents into chunks
//   - EmbeddingService: Generates vector embeddings
//   - KnowledgeIndex: Append-only, persisted similarity index
//   - ConfigStore: Application configuration
//   - PromptStore: LLM prompt templates
//
// # Optional Interfaces
//
// These can be nil. The application degrades gracefully:
//
//   - LLMService: Answers questions. Without it, retrieval still works but Ask reports
//     an upstream failure.
//   - AIConfigValidator: Pings providers when settings change.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, loader, or post-processor package
package driven
