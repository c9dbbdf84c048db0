package vectordb

import (
	"context"
	"sort"
	"sync"

	"github.com/jggl/kb-assist/internal/domain/entities"
)

// MemoryIndex is an in-memory ports.VectorIndex, used in tests and as
// a throwaway index for local experiments.
type MemoryIndex struct {
	mu      sync.RWMutex
	vectors map[string]entities.IndexedChunk
}

// NewMemoryIndex creates an empty in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{vectors: make(map[string]entities.IndexedChunk)}
}

// Insert adds or overwrites the vector for chunk.ID.
func (m *MemoryIndex) Insert(ctx context.Context, chunk entities.Chunk, embedding []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.vectors[chunk.ID] = entities.IndexedChunk{Chunk: chunk, Embedding: embedding}
	return nil
}

// Query returns up to topK chunks by descending cosine similarity.
func (m *MemoryIndex) Query(ctx context.Context, embedding []float32, topK int) ([]entities.RetrievalResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]entities.RetrievalResult, 0, len(m.vectors))
	for _, item := range m.vectors {
		results = append(results, entities.RetrievalResult{
			Chunk:      item.Chunk,
			Similarity: CosineSimilarity(embedding, item.Embedding),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// ReplaceAll swaps the entire index contents.
func (m *MemoryIndex) ReplaceAll(ctx context.Context, batch []entities.IndexedChunk) error {
	next := make(map[string]entities.IndexedChunk, len(batch))
	for _, item := range batch {
		next[item.Chunk.ID] = item
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectors = next
	return nil
}

// Reset discards all vectors.
func (m *MemoryIndex) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.vectors = make(map[string]entities.IndexedChunk)
	return nil
}

// Count reports the number of indexed chunks.
func (m *MemoryIndex) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.vectors), nil
}
