// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// KnowledgeBase is the ingestion and query facade: it loads a file, runs
// the chunking pipeline, embeds the chunks and appends them to the index,
// and answers questions through a Retriever and a Responder. ChatService
// routes conversational messages, and SettingsService reads and writes
// configuration.
package services
