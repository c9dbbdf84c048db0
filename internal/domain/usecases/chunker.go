// Package usecases contains the application business rules: chunking,
// ingestion, retrieval and the answering pipeline. It depends only on
// entities and ports.
package usecases

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/jggl/kb-assist/internal/domain/entities"
	"github.com/jggl/kb-assist/internal/domain/ports"
)

// Chunker splits extracted text into overlapping fixed-size chunks
// with deterministic identifiers. The same (text, size, overlap)
// always yields the same chunk sequence, which keeps re-ingestion
// idempotent.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker validates the window configuration once. overlap must be
// strictly less than size or the walk never advances.
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", ports.ErrConfiguration, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: chunk overlap must be in [0, %d), got %d", ports.ErrConfiguration, size, overlap)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Split slides a window of c.size characters across text, advancing by
// c.size-c.overlap. Windows are trimmed; empty results are dropped.
// The final chunk may be shorter than the window, no padding. Sizes
// count runes, not bytes, so a boundary never lands inside a
// multi-byte character.
func (c *Chunker) Split(text string) []string {
	runes := []rune(text)

	var chunks []string
	for start := 0; start < len(runes); start += c.size - c.overlap {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}

// ChunkPage splits one page of a document and assigns identifiers
// keyed by ordinal position within the page.
func (c *Chunker) ChunkPage(filename string, page entities.Page) []entities.Chunk {
	parts := c.Split(page.Text)
	chunks := make([]entities.Chunk, 0, len(parts))
	for i, part := range parts {
		chunks = append(chunks, entities.Chunk{
			ID:       ChunkID(filename, page.Number, i),
			Text:     part,
			Filename: filename,
			Page:     page.Number,
		})
	}
	return chunks
}

// ChunkID derives a deterministic chunk identifier from the filename,
// page number and ordinal within the page: the first 12 hex characters
// of SHA-256 over "<filename>:p<page>:c<ordinal>".
func ChunkID(filename string, page, ordinal int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:p%d:c%d", filename, page, ordinal)))
	return hex.EncodeToString(sum[:])[:12]
}
