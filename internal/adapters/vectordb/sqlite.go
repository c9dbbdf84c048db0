// Package vectordb provides the embedding index implementations.
// SQLiteIndex is the persistent store; similarity search is a
// brute-force cosine scan, which is adequate for an admin-curated
// knowledge base of a few thousand chunks.
package vectordb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/jggl/kb-assist/internal/domain/entities"
	"github.com/jggl/kb-assist/internal/domain/ports"
)

// SQLiteIndex implements ports.VectorIndex on a single SQLite file.
// The RWMutex serializes Reset/ReplaceAll against concurrent queries;
// readers never observe a half-written vector or a partially cleared
// index.
type SQLiteIndex struct {
	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteIndex opens (or creates) the index database at path.
func NewSQLiteIndex(path string) (*SQLiteIndex, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating index directory: %v", ports.ErrIndexUnavailable, err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", ports.ErrIndexUnavailable, err)
	}

	idx := &SQLiteIndex{db: db}
	if err := idx.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

func (s *SQLiteIndex) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS chunks (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		page INTEGER NOT NULL,
		text TEXT NOT NULL,
		embedding BLOB NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_chunks_filename ON chunks(filename);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("%w: initializing schema: %v", ports.ErrIndexUnavailable, err)
	}
	return nil
}

// Insert adds or overwrites the vector for chunk.ID.
func (s *SQLiteIndex) Insert(ctx context.Context, chunk entities.Chunk, embedding []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	encoded, err := json.Marshal(embedding)
	if err != nil {
		return fmt.Errorf("%w: encoding embedding: %v", ports.ErrIndexUnavailable, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO chunks (id, filename, page, text, embedding)
		VALUES (?, ?, ?, ?, ?)`,
		chunk.ID, chunk.Filename, chunk.Page, chunk.Text, encoded)
	if err != nil {
		return fmt.Errorf("%w: inserting chunk: %v", ports.ErrIndexUnavailable, err)
	}
	return nil
}

// Query returns up to topK chunks by descending cosine similarity.
func (s *SQLiteIndex) Query(ctx context.Context, embedding []float32, topK int) ([]entities.RetrievalResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, filename, page, text, embedding FROM chunks`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying chunks: %v", ports.ErrIndexUnavailable, err)
	}
	defer rows.Close()

	var results []entities.RetrievalResult
	for rows.Next() {
		var chunk entities.Chunk
		var encoded []byte
		if err := rows.Scan(&chunk.ID, &chunk.Filename, &chunk.Page, &chunk.Text, &encoded); err != nil {
			return nil, fmt.Errorf("%w: scanning row: %v", ports.ErrIndexUnavailable, err)
		}

		var vec []float32
		if err := json.Unmarshal(encoded, &vec); err != nil {
			return nil, fmt.Errorf("%w: corrupt embedding for chunk %s: %v", ports.ErrIndexUnavailable, chunk.ID, err)
		}

		results = append(results, entities.RetrievalResult{
			Chunk:      chunk,
			Similarity: CosineSimilarity(embedding, vec),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating rows: %v", ports.ErrIndexUnavailable, err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// ReplaceAll swaps the entire index contents in one transaction.
// Concurrent readers see the old contents until commit.
func (s *SQLiteIndex) ReplaceAll(ctx context.Context, batch []entities.IndexedChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: starting transaction: %v", ports.ErrIndexUnavailable, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return fmt.Errorf("%w: clearing chunks: %v", ports.ErrIndexUnavailable, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO chunks (id, filename, page, text, embedding)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: preparing statement: %v", ports.ErrIndexUnavailable, err)
	}
	defer stmt.Close()

	for _, item := range batch {
		encoded, err := json.Marshal(item.Embedding)
		if err != nil {
			return fmt.Errorf("%w: encoding embedding: %v", ports.ErrIndexUnavailable, err)
		}
		if _, err := stmt.ExecContext(ctx,
			item.Chunk.ID, item.Chunk.Filename, item.Chunk.Page, item.Chunk.Text, encoded); err != nil {
			return fmt.Errorf("%w: inserting chunk: %v", ports.ErrIndexUnavailable, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing: %v", ports.ErrIndexUnavailable, err)
	}
	return nil
}

// Reset discards all vectors.
func (s *SQLiteIndex) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return fmt.Errorf("%w: clearing chunks: %v", ports.ErrIndexUnavailable, err)
	}
	return nil
}

// Count reports the number of indexed chunks.
func (s *SQLiteIndex) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting chunks: %v", ports.ErrIndexUnavailable, err)
	}
	return count, nil
}

// Close closes the database.
func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}

// CosineSimilarity computes the cosine of the angle between two
// vectors, in [-1, 1]. Mismatched or zero vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
