package domain

// EmptyKnowledgeBaseMessage is returned by Ask before anything has been ingested.
const EmptyKnowledgeBaseMessage = "Knowledge base is empty. Please upload files first."

// DefaultTopK is the number of chunks retrieved per question when unspecified.
const DefaultTopK = 4

// IngestResult describes the outcome of adding a file.
type IngestResult struct {
	// Source is the path or upload name of the file.
	Source string `json:"source"`

	// Format is the detected file format.
	Format Format `json:"format"`

	// Documents is the number of raw text units the loader produced.
	Documents int `json:"documents"`

	// Chunks is the number of records appended to the knowledge base.
	Chunks int `json:"chunks"`

	// Empty is true when the file yielded no text and nothing was added.
	Empty bool `json:"empty,omitempty"`

	// Message is the human-readable confirmation.
	Message string `json:"message"`
}

// RetrievedChunk is a chunk returned by similarity search.
type RetrievedChunk struct {
	Chunk

	// Score is the cosine similarity between the query and the chunk, in [-1, 1].
	Score float64
}

// AskOptions configures a question.
type AskOptions struct {
	// TopK is the number of chunks to retrieve (default DefaultTopK).
	TopK int
}

// Answer is the response to a question over the knowledge base.
type Answer struct {
	// Query is the question as asked.
	Query string `json:"query"`

	// Response is the generated answer text.
	Response string `json:"response"`

	// Sources are the chunks used as context, most similar first.
	Sources []RetrievedChunk `json:"source_chunks,omitempty"`

	// EmptyKnowledgeBase is true when nothing had been ingested yet.
	EmptyKnowledgeBase bool `json:"empty_knowledge_base,omitempty"`

	// Model names the language model that produced Response.
	Model string `json:"model,omitempty"`
}

// ChatRoute identifies where a chat message was sent.
type ChatRoute string

// Chat routes.
const (
	// ChatRouteKnowledgeBase sends the message through retrieval and answering.
	ChatRouteKnowledgeBase ChatRoute = "knowledge_base"

	// ChatRouteDirect sends the message straight to the language model.
	ChatRouteDirect ChatRoute = "direct"
)

// ChatReply is the response to a conversational message.
type ChatReply struct {
	// Response is the reply text.
	Response string `json:"response"`

	// Route records which path produced the reply.
	Route ChatRoute `json:"route"`

	// Answer is set when the message was routed to the knowledge base.
	Answer *Answer `json:"answer,omitempty"`
}

// SourceStat counts the records ingested from one source.
type SourceStat struct {
	Source string `json:"source"`
	Chunks int    `json:"chunks"`
}

// KnowledgeBaseStats summarises the knowledge base.
type KnowledgeBaseStats struct {
	// Created is false until the first successful ingestion.
	Created bool `json:"created"`

	// Records is the number of embedding records.
	Records int `json:"records"`

	// Dimensions is the vector size the index is bound to (0 before creation).
	Dimensions int `json:"dimensions"`

	// Model is the embedding model that created the index.
	Model string `json:"model,omitempty"`

	// Path is where the index is persisted. Empty for in-memory indexes.
	Path string `json:"path,omitempty"`

	// Sources lists per-source record counts, in first-ingested order.
	Sources []SourceStat `json:"sources,omitempty"`
}
