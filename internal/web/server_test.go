package web

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jggl/kb-assist/internal/adapters/vectordb"
	"github.com/jggl/kb-assist/internal/domain/entities"
)

func TestHealthz(t *testing.T) {
	s := New(vectordb.NewMemoryIndex(), ":0", slog.New(slog.NewTextHandler(io.Discard, nil)))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestStats(t *testing.T) {
	index := vectordb.NewMemoryIndex()
	require.NoError(t, index.Insert(context.Background(),
		entities.Chunk{ID: "a", Text: "t", Filename: "f.txt", Page: 1}, []float32{1, 0}))
	require.NoError(t, index.Insert(context.Background(),
		entities.Chunk{ID: "b", Text: "t", Filename: "f.txt", Page: 1}, []float32{0, 1}))

	s := New(index, ":0", slog.New(slog.NewTextHandler(io.Discard, nil)))

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body["total_chunks"])
}
