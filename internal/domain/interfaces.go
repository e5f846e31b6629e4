package domain

import "context"

// Metadata is an opaque key-value payload attached to a document at
// creation. The store never interprets it.
type Metadata map[string]any

// Document is a stored text fragment together with its embedding vector.
// All fields are immutable after creation.
type Document struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Embedding []float64 `json:"embedding"`
	Metadata  Metadata  `json:"metadata,omitempty"`
}

// SearchResult pairs a document with its cosine similarity to the query.
type SearchResult struct {
	Document Document
	Score    float64
}

// DefaultTopK is how many documents callers retrieve per query unless
// they have a reason to ask for more.
const DefaultTopK = 4

// Embedder converts free text into fixed-length numeric vectors.
// Both calls may block on network I/O; cancellation is the caller's
// responsibility via ctx.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	// EmbedBatch returns one vector per input text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// DocumentStore holds documents, persists them, and answers similarity
// queries. Documents are append-only; the only deletion is Clear.
type DocumentStore interface {
	AddDocument(ctx context.Context, text string, metadata Metadata) error
	AddDocuments(ctx context.Context, texts []string, metadatas []Metadata) error
	// SimilaritySearch returns at most topK stored documents ranked by
	// descending cosine similarity to the query text. It degrades to an
	// empty result when the embedding provider fails.
	SimilaritySearch(ctx context.Context, query string, topK int) ([]SearchResult, error)
	Clear(ctx context.Context) error
	Count() int
}

// Chat message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatModel generates the assistant's reply from a conversation.
type ChatModel interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}
