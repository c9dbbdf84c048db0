package usecases

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jggl/kb-assist/internal/domain/entities"
	"github.com/jggl/kb-assist/internal/domain/ports"
)

func newIngestor(t *testing.T, extractor ports.DocumentExtractor, index ports.VectorIndex) *Ingestor {
	t.Helper()
	chunker, err := NewChunker(1000, 200)
	require.NoError(t, err)
	return NewIngestor(extractor, &mockEmbedder{}, index, chunker, discardLogger())
}

func TestIngestFile(t *testing.T) {
	extractor := &mockExtractor{pages: map[string][]entities.Page{
		"/docs/guide.pdf": {
			{Number: 1, Text: "Identity verification requires a government-issued photo ID."},
			{Number: 2, Text: "Proof of address must be dated within the last three months."},
		},
	}}
	index := &mockIndex{}
	in := newIngestor(t, extractor, index)

	stats, err := in.IngestFile(context.Background(), "/docs/guide.pdf")
	require.NoError(t, err)

	assert.Equal(t, "guide.pdf", stats.File)
	assert.Equal(t, 2, stats.Pages)
	assert.Equal(t, 2, stats.ChunksAdded)
	require.Len(t, index.stored, 2)
	for _, item := range index.stored {
		assert.Equal(t, "guide.pdf", item.Chunk.Filename)
		assert.NotEmpty(t, item.Chunk.ID)
		assert.NotEmpty(t, item.Embedding)
	}
}

func TestIngestFile_ExtractionFailure(t *testing.T) {
	extractor := &mockExtractor{err: ports.ErrIngestion}
	index := &mockIndex{}
	in := newIngestor(t, extractor, index)

	_, err := in.IngestFile(context.Background(), "/docs/broken.pdf")
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrIngestion)
	assert.Empty(t, index.stored, "nothing inserted on extraction failure")
}

func TestIngestFile_EmbeddingFailure(t *testing.T) {
	extractor := &mockExtractor{pages: map[string][]entities.Page{
		"/docs/guide.txt": {{Number: 1, Text: "some content"}},
	}}
	embedder := &mockEmbedder{embedFn: func(string) ([]float32, error) {
		return nil, ports.ErrEmbedding
	}}
	chunker, err := NewChunker(1000, 200)
	require.NoError(t, err)
	index := &mockIndex{}
	in := NewIngestor(extractor, embedder, index, chunker, discardLogger())

	_, err = in.IngestFile(context.Background(), "/docs/guide.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrEmbedding)
	assert.Empty(t, index.stored)
}

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestReindexAll(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "faq.txt", "How long does KYC take? Usually under 24 hours.")
	writeDoc(t, dir, "limits.md", "Unverified accounts cannot withdraw.")
	writeDoc(t, dir, "notes.xlsx", "spreadsheets are not supported")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive"), 0o755))

	extractor := &mockExtractor{pages: map[string][]entities.Page{
		filepath.Join(dir, "faq.txt"):   {{Number: 1, Text: "How long does KYC take? Usually under 24 hours."}},
		filepath.Join(dir, "limits.md"): {{Number: 1, Text: "Unverified accounts cannot withdraw."}},
	}}
	index := &mockIndex{}
	in := newIngestor(t, extractor, index)

	stats, err := in.ReindexAll(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalFiles)
	assert.Equal(t, 2, stats.TotalChunks)
	assert.Zero(t, stats.FailedFiles)
	assert.Len(t, index.stored, 2)
}

func TestReindexAll_FailingFileSkipped(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "good.txt", "valid content")
	writeDoc(t, dir, "bad.txt", "unreadable content")

	extractor := &mockExtractor{pages: map[string][]entities.Page{
		filepath.Join(dir, "good.txt"): {{Number: 1, Text: "valid content"}},
	}}
	// bad.txt extracts to zero pages via the map default, so make it
	// fail explicitly instead.
	badPath := filepath.Join(dir, "bad.txt")
	failing := &pathFailingExtractor{inner: extractor, failPath: badPath}

	index := &mockIndex{}
	in := newIngestor(t, failing, index)

	stats, err := in.ReindexAll(context.Background(), dir)
	require.NoError(t, err, "one bad file must not abort the batch")

	assert.Equal(t, 1, stats.TotalFiles)
	assert.Equal(t, 1, stats.FailedFiles)
	assert.Len(t, index.stored, 1)
}

type pathFailingExtractor struct {
	inner    ports.DocumentExtractor
	failPath string
}

func (e *pathFailingExtractor) Extract(ctx context.Context, path string) ([]entities.Page, error) {
	if path == e.failPath {
		return nil, ports.ErrIngestion
	}
	return e.inner.Extract(ctx, path)
}

func (e *pathFailingExtractor) SupportedExtensions() []string {
	return e.inner.SupportedExtensions()
}

func TestReindexAll_MissingDirClearsIndex(t *testing.T) {
	index := &mockIndex{stored: []entities.IndexedChunk{
		{Chunk: entities.Chunk{ID: "old"}},
	}}
	in := newIngestor(t, &mockExtractor{}, index)

	stats, err := in.ReindexAll(context.Background(), "/nonexistent/docs")
	require.NoError(t, err)
	assert.Zero(t, stats.TotalFiles)
	assert.Empty(t, index.stored, "missing dir resets the index")
}

// Ingested chunks must come back out of retrieval: the same text embeds
// to the same vector, so querying with a chunk's text finds that chunk
// with maximum similarity.
func TestIngestThenRetrieve(t *testing.T) {
	text := strings.Repeat("Withdrawal limits depend on verification tier. ", 30)
	extractor := &mockExtractor{pages: map[string][]entities.Page{
		"/docs/limits.txt": {{Number: 1, Text: text}},
	}}

	embedder := &mockEmbedder{}
	chunker, err := NewChunker(1000, 200)
	require.NoError(t, err)

	index := &mockIndex{}
	in := NewIngestor(extractor, embedder, index, chunker, discardLogger())

	_, err = in.IngestFile(context.Background(), "/docs/limits.txt")
	require.NoError(t, err)
	require.NotEmpty(t, index.stored)

	// Wire the stored batch back as query results ranked by identity.
	index.queryFn = func(embedding []float32, topK int) ([]entities.RetrievalResult, error) {
		var out []entities.RetrievalResult
		for _, item := range index.stored {
			sim := 0.5
			if equalVec(item.Embedding, embedding) {
				sim = 1.0
			}
			out = append(out, entities.RetrievalResult{Chunk: item.Chunk, Similarity: sim})
		}
		return out, nil
	}

	r := NewRetriever(embedder, index, len(index.stored), 0.9, discardLogger())
	results, err := r.Retrieve(context.Background(), index.stored[0].Chunk.Text)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, index.stored[0].Chunk.ID, results[0].Chunk.ID)
}

func equalVec(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
