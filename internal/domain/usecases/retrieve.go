package usecases

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jggl/kb-assist/internal/domain/entities"
	"github.com/jggl/kb-assist/internal/domain/ports"
)

// Retriever answers "what evidence do we have for this question":
// embed the query, take the top-k nearest chunks, drop everything
// below the similarity threshold.
type Retriever struct {
	embedder  ports.Embedder
	index     ports.VectorIndex
	topK      int
	threshold float64
	log       *slog.Logger
}

// NewRetriever creates a retriever with the configured candidate count
// and similarity cutoff.
func NewRetriever(embedder ports.Embedder, index ports.VectorIndex, topK int, threshold float64, log *slog.Logger) *Retriever {
	if topK <= 0 {
		topK = 5
	}
	return &Retriever{
		embedder:  embedder,
		index:     index,
		topK:      topK,
		threshold: threshold,
		log:       log,
	}
}

// Retrieve returns results ordered by descending similarity, each with
// similarity >= threshold. An empty result is not an error: it is the
// "no evidence" outcome the pipeline escalates on.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]entities.RetrievalResult, error) {
	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := r.index.Query(ctx, embedding, r.topK)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}

	// The index returns results sorted descending; the cutoff only
	// truncates the tail.
	kept := results[:0:0]
	for _, res := range results {
		if res.Similarity >= r.threshold {
			kept = append(kept, res)
		}
	}

	r.log.Debug("retrieved evidence",
		"candidates", len(results), "kept", len(kept), "threshold", r.threshold)
	return kept, nil
}
