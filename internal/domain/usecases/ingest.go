package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jggl/kb-assist/internal/domain/entities"
	"github.com/jggl/kb-assist/internal/domain/ports"
)

// Ingestor feeds documents into the vector index: extract pages,
// chunk, embed, insert.
type Ingestor struct {
	extractor ports.DocumentExtractor
	embedder  ports.Embedder
	index     ports.VectorIndex
	chunker   *Chunker
	log       *slog.Logger
}

// NewIngestor wires the ingestion pipeline.
func NewIngestor(
	extractor ports.DocumentExtractor,
	embedder ports.Embedder,
	index ports.VectorIndex,
	chunker *Chunker,
	log *slog.Logger,
) *Ingestor {
	return &Ingestor{
		extractor: extractor,
		embedder:  embedder,
		index:     index,
		chunker:   chunker,
		log:       log,
	}
}

// IngestFile ingests a single document into the live index. Existing
// chunks with the same ids are overwritten, so re-ingesting a file is
// idempotent.
func (in *Ingestor) IngestFile(ctx context.Context, path string) (entities.IngestStats, error) {
	stats := entities.IngestStats{File: filepath.Base(path)}

	batch, err := in.prepare(ctx, path, &stats)
	if err != nil {
		return stats, err
	}

	for _, item := range batch {
		if err := in.index.Insert(ctx, item.Chunk, item.Embedding); err != nil {
			return stats, err
		}
		stats.ChunksAdded++
	}

	in.log.Info("document ingested",
		"file", stats.File, "pages", stats.Pages, "chunks", stats.ChunksAdded)
	return stats, nil
}

// ReindexAll rebuilds the index from every supported file under dir.
// Embeddings are computed first; the index contents are then swapped
// in a single atomic step, so concurrent queries never observe a
// partially built index. A failing file is counted and skipped, it
// does not abort the batch.
func (in *Ingestor) ReindexAll(ctx context.Context, dir string) (entities.ReindexStats, error) {
	var stats entities.ReindexStats

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			in.log.Warn("docs directory not found", "dir", dir)
			return stats, in.index.ReplaceAll(ctx, nil)
		}
		return stats, fmt.Errorf("%w: reading docs dir: %v", ports.ErrIngestion, err)
	}

	var batch []entities.IndexedChunk
	for _, entry := range dirEntries {
		if entry.IsDir() || !in.supported(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		fileStats := entities.IngestStats{File: entry.Name()}
		fileBatch, err := in.prepare(ctx, path, &fileStats)
		if err != nil {
			in.log.Error("skipping document", "file", entry.Name(), "error", err)
			stats.FailedFiles++
			continue
		}
		batch = append(batch, fileBatch...)
		stats.TotalFiles++
		stats.TotalChunks += len(fileBatch)
	}

	if err := in.index.ReplaceAll(ctx, batch); err != nil {
		return stats, err
	}

	in.log.Info("reindex complete",
		"files", stats.TotalFiles, "chunks", stats.TotalChunks, "failed", stats.FailedFiles)
	return stats, nil
}

// prepare extracts, chunks and embeds one document without touching
// the index.
func (in *Ingestor) prepare(ctx context.Context, path string, stats *entities.IngestStats) ([]entities.IndexedChunk, error) {
	pages, err := in.extractor.Extract(ctx, path)
	if err != nil {
		return nil, err
	}
	stats.Pages = len(pages)

	filename := filepath.Base(path)
	var batch []entities.IndexedChunk
	for _, page := range pages {
		for _, chunk := range in.chunker.ChunkPage(filename, page) {
			embedding, err := in.embedder.Embed(ctx, chunk.Text)
			if err != nil {
				return nil, err
			}
			batch = append(batch, entities.IndexedChunk{Chunk: chunk, Embedding: embedding})
		}
	}
	return batch, nil
}

func (in *Ingestor) supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range in.extractor.SupportedExtensions() {
		if ext == e {
			return true
		}
	}
	return false
}
