package usecases

import (
	"context"
	"crypto/sha256"

	"github.com/jggl/kb-assist/internal/domain/entities"
)

// mockEmbedder implements ports.Embedder. Without an override it
// derives a deterministic vector from the text, so identical texts are
// maximally similar.
type mockEmbedder struct {
	embedFn func(text string) ([]float32, error)
	calls   int
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.calls++
	if m.embedFn != nil {
		return m.embedFn(text)
	}
	sum := sha256.Sum256([]byte(text))
	vec := make([]float32, 8)
	for i := range vec {
		vec[i] = float32(sum[i]) + 1
	}
	return vec, nil
}

// mockIndex implements ports.VectorIndex with canned query results.
type mockIndex struct {
	results []entities.RetrievalResult
	queryFn func(embedding []float32, topK int) ([]entities.RetrievalResult, error)
	stored  []entities.IndexedChunk
}

func (m *mockIndex) Insert(ctx context.Context, chunk entities.Chunk, embedding []float32) error {
	m.stored = append(m.stored, entities.IndexedChunk{Chunk: chunk, Embedding: embedding})
	return nil
}

func (m *mockIndex) Query(ctx context.Context, embedding []float32, topK int) ([]entities.RetrievalResult, error) {
	if m.queryFn != nil {
		return m.queryFn(embedding, topK)
	}
	if len(m.results) > topK {
		return m.results[:topK], nil
	}
	return m.results, nil
}

func (m *mockIndex) ReplaceAll(ctx context.Context, batch []entities.IndexedChunk) error {
	m.stored = batch
	return nil
}

func (m *mockIndex) Reset(ctx context.Context) error {
	m.stored = nil
	return nil
}

func (m *mockIndex) Count(ctx context.Context) (int, error) {
	return len(m.stored), nil
}

// mockCompleter implements ports.Completer.
type mockCompleter struct {
	answer   string
	err      error
	messages []entities.ChatMessage
	calls    int
}

func (m *mockCompleter) Complete(ctx context.Context, messages []entities.ChatMessage, temperature float64, maxTokens int) (string, error) {
	m.calls++
	m.messages = messages
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}

// mockAudit implements ports.AuditLog.
type mockAudit struct {
	records []entities.InteractionRecord
	err     error
}

func (m *mockAudit) Append(ctx context.Context, rec entities.InteractionRecord) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.records = append(m.records, rec)
	return int64(len(m.records)), nil
}

func (m *mockAudit) Latest(ctx context.Context, telegramID int64) (*entities.InteractionRecord, error) {
	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].TelegramID == telegramID {
			rec := m.records[i]
			return &rec, nil
		}
	}
	return nil, nil
}

// mockClassifier implements Classifier with a fixed outcome.
type mockClassifier struct {
	result entities.Classification
}

func (m *mockClassifier) Classify(text string) entities.Classification {
	return m.result
}

// mockExtractor implements ports.DocumentExtractor with canned pages.
type mockExtractor struct {
	pages map[string][]entities.Page
	err   error
}

func (m *mockExtractor) Extract(ctx context.Context, path string) ([]entities.Page, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.pages[path], nil
}

func (m *mockExtractor) SupportedExtensions() []string {
	return []string{".pdf", ".txt", ".md"}
}
