// Package entities contains the core domain objects of the answering
// pipeline. They carry no knowledge of storage, transport or external
// services.
package entities

import (
	"strings"
	"time"
)

// Chunk is a bounded slice of a document's extracted text, the atomic
// unit of retrieval. Its ID is derived deterministically from
// (filename, page, ordinal) so re-ingesting identical input yields
// identical identifiers.
type Chunk struct {
	ID       string
	Text     string
	Filename string
	Page     int
}

// IndexedChunk pairs a chunk with its embedding vector for insertion
// into the vector index. The vector dimension is fixed by the embedding
// model for the lifetime of an index.
type IndexedChunk struct {
	Chunk     Chunk
	Embedding []float32
}

// RetrievalResult is a chunk matched against a query, with its cosine
// similarity. Produced transiently per query, never persisted.
type RetrievalResult struct {
	Chunk      Chunk
	Similarity float64
}

// Page is one page of extracted document text. Page numbering starts
// at 1; non-PDF documents are a single page.
type Page struct {
	Number int
	Text   string
}

// Classification is the outcome of the confidentiality check over a
// raw question. At most one applies; sensitive takes precedence over
// source-request.
type Classification int

const (
	ClassNone Classification = iota
	ClassSensitive
	ClassSourceRequest
)

// String returns the classification name used in logs.
func (c Classification) String() string {
	switch c {
	case ClassSensitive:
		return "sensitive"
	case ClassSourceRequest:
		return "source_request"
	default:
		return "none"
	}
}

// Action is the terminal outcome of one interaction.
type Action string

const (
	ActionAnswered  Action = "answered"
	ActionRefused   Action = "refused"
	ActionEscalated Action = "escalated"
)

// Reason codes recorded in the audit trail for refusals and
// escalations. Never shown to the user.
const (
	ReasonSensitiveTopic = "sensitive_topic"
	ReasonSourceRequest  = "source_request"
	ReasonNoChunks       = "no_chunks"
	ReasonRetrievalError = "retrieval_error"
	ReasonLLMError       = "llm_error"
)

// EvidenceRef identifies one retrieved chunk inside the audit record.
// This data never reaches an outbound message.
type EvidenceRef struct {
	Filename   string  `json:"filename"`
	Page       int     `json:"page"`
	ChunkID    string  `json:"chunk_id"`
	Similarity float64 `json:"similarity"`
}

// InteractionRecord is one append-only audit entry, created exactly
// once per inbound text message after the decision is finalized.
type InteractionRecord struct {
	ID              int64
	TelegramID      int64
	Question        string
	Action          Action
	InternalSources string
	RetrievalScores string
	CreatedAt       time.Time
}

// Language selects the template set for a user. Unknown values fall
// back to English at the read sites.
type Language string

const (
	LangEnglish Language = "en"
	LangRussian Language = "ru"
)

// ParseLanguage maps a raw selection ("EN"/"RU", case-insensitive) to
// a Language. ok is false for anything else.
func ParseLanguage(s string) (Language, bool) {
	switch {
	case strings.EqualFold(s, "en"):
		return LangEnglish, true
	case strings.EqualFold(s, "ru"):
		return LangRussian, true
	default:
		return "", false
	}
}

// User is a chat participant. Language is empty until onboarding
// completes and is cleared again by an explicit reset.
type User struct {
	TelegramID int64
	Language   Language
	CreatedAt  time.Time
}

// ChatMessage is one turn of a completion request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// IngestStats summarizes one document's ingestion.
type IngestStats struct {
	File        string
	Pages       int
	ChunksAdded int
}

// ReindexStats summarizes a full reindex batch. FailedFiles counts
// documents that could not be ingested; they do not abort the batch.
type ReindexStats struct {
	TotalFiles  int
	TotalChunks int
	FailedFiles int
}
