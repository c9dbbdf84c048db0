// Package ports defines the interfaces the usecases depend on.
// Adapters implement them; tests substitute fakes.
package ports

import (
	"context"

	"github.com/jggl/kb-assist/internal/domain/entities"
)

// Embedder produces a fixed-length vector for a text. One embedding
// model per index lifetime; mixing models requires a full reset.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Completer calls the external chat-completion service.
type Completer interface {
	Complete(ctx context.Context, messages []entities.ChatMessage, temperature float64, maxTokens int) (string, error)
}

// VectorIndex persists chunk embeddings and answers cosine
// nearest-neighbor queries.
type VectorIndex interface {
	// Insert adds or overwrites the vector for chunk.ID.
	Insert(ctx context.Context, chunk entities.Chunk, embedding []float32) error

	// Query returns up to topK results ordered by descending cosine
	// similarity.
	Query(ctx context.Context, embedding []float32, topK int) ([]entities.RetrievalResult, error)

	// ReplaceAll atomically swaps the entire index contents. Concurrent
	// readers observe either the old or the new contents, never an
	// empty window.
	ReplaceAll(ctx context.Context, batch []entities.IndexedChunk) error

	// Reset discards all vectors.
	Reset(ctx context.Context) error

	// Count reports the number of indexed chunks. Observability only.
	Count(ctx context.Context) (int, error)
}

// AuditLog is the append-only compliance trail. No update, no delete.
type AuditLog interface {
	Append(ctx context.Context, rec entities.InteractionRecord) (int64, error)
	Latest(ctx context.Context, telegramID int64) (*entities.InteractionRecord, error)
}

// UserStore holds per-user onboarding state.
type UserStore interface {
	Get(ctx context.Context, telegramID int64) (*entities.User, error)
	SetLanguage(ctx context.Context, telegramID int64, lang entities.Language) error
}

// DocumentExtractor turns a source file into pages of plain text.
// PDF extraction is page-by-page; txt/md yield a single page.
type DocumentExtractor interface {
	Extract(ctx context.Context, path string) ([]entities.Page, error)
	SupportedExtensions() []string
}

// FileWatcher monitors the docs directory for new or changed files.
type FileWatcher interface {
	Watch(ctx context.Context, dir string) (<-chan FileEvent, error)
	Stop() error
}

// FileEvent is a file system change under the watched directory.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)
