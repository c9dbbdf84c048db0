package usecases

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jggl/kb-assist/internal/domain/entities"
	"github.com/jggl/kb-assist/internal/domain/ports"
)

func TestNewChunker_RejectsBadConfig(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
	}{
		{"zero size", 0, 0},
		{"negative size", -1, 0},
		{"negative overlap", 100, -1},
		{"overlap equals size", 100, 100},
		{"overlap exceeds size", 100, 150},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewChunker(tt.size, tt.overlap)
			require.Error(t, err)
			assert.ErrorIs(t, err, ports.ErrConfiguration)
		})
	}
}

func TestChunker_Split_WindowGeometry(t *testing.T) {
	c, err := NewChunker(1000, 200)
	require.NoError(t, err)

	// Window starts advance by size-overlap = 800. For 2700 chars the
	// windows are [1000, 1000, 1000, 300]; the final one is simply the
	// remainder, no padding.
	chunks := c.Split(strings.Repeat("a", 2700))
	require.Len(t, chunks, 4)
	assert.Equal(t, 1000, len(chunks[0]))
	assert.Equal(t, 1000, len(chunks[1]))
	assert.Equal(t, 1000, len(chunks[2]))
	assert.Equal(t, 300, len(chunks[3]))

	// For 2500 chars the third window is clamped at the text end and a
	// fourth short window still starts at 2400.
	chunks = c.Split(strings.Repeat("a", 2500))
	require.Len(t, chunks, 4)
	assert.Equal(t, 1000, len(chunks[0]))
	assert.Equal(t, 1000, len(chunks[1]))
	assert.Equal(t, 900, len(chunks[2]))
	assert.Equal(t, 100, len(chunks[3]))
}

func TestChunker_Split_CountsRunesNotBytes(t *testing.T) {
	c, err := NewChunker(1000, 200)
	require.NoError(t, err)

	// Cyrillic runes are two bytes each; the leading ASCII byte shifts
	// every byte offset off a rune boundary. 1501 runes with starts
	// advancing by 800 yield windows of [1000, 701] runes.
	chunks := c.Split("a" + strings.Repeat("д", 1500))
	require.Len(t, chunks, 2)
	assert.Equal(t, 1000, utf8.RuneCountInString(chunks[0]))
	assert.Equal(t, 701, utf8.RuneCountInString(chunks[1]))

	for i, chunk := range chunks {
		assert.True(t, utf8.ValidString(chunk), "chunk %d must be valid UTF-8", i)
	}
}

func TestChunker_Split_CoversTextWithoutGaps(t *testing.T) {
	c, err := NewChunker(50, 10)
	require.NoError(t, err)

	text := strings.Repeat("x", 437)
	chunks := c.Split(text)

	// Each chunk after the first starts size-overlap characters after
	// the previous chunk's start, so consecutive windows overlap and
	// their union covers the text.
	step := 50 - 10
	covered := 0
	for i, chunk := range chunks {
		start := i * step
		assert.Equal(t, text[start:start+len(chunk)], chunk)
		if start <= covered {
			end := start + len(chunk)
			if end > covered {
				covered = end
			}
		}
	}
	assert.Equal(t, len(text), covered, "chunks must cover the full text")
}

func TestChunker_Split_TrimsAndDropsEmpty(t *testing.T) {
	c, err := NewChunker(10, 2)
	require.NoError(t, err)

	// A run of whitespace wide enough to produce all-blank windows.
	chunks := c.Split("abcdefgh                                    zz")
	for _, chunk := range chunks {
		assert.NotEmpty(t, chunk)
		assert.Equal(t, strings.TrimSpace(chunk), chunk)
	}
}

func TestChunker_Split_EmptyText(t *testing.T) {
	c, err := NewChunker(100, 20)
	require.NoError(t, err)
	assert.Empty(t, c.Split(""))
	assert.Empty(t, c.Split("   \n\t  "))
}

func TestChunker_Split_Deterministic(t *testing.T) {
	c, err := NewChunker(30, 7)
	require.NoError(t, err)

	text := "The onboarding flow requires identity verification before any deposit is allowed."
	first := c.Split(text)
	second := c.Split(text)
	assert.Equal(t, first, second)
}

func TestChunkPage_IdempotentIDs(t *testing.T) {
	c, err := NewChunker(20, 5)
	require.NoError(t, err)

	page := entities.Page{Number: 3, Text: strings.Repeat("kyc requirements ", 10)}

	first := c.ChunkPage("guide.pdf", page)
	second := c.ChunkPage("guide.pdf", page)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, "guide.pdf", first[i].Filename)
		assert.Equal(t, 3, first[i].Page)
	}
}

func TestChunkID_Shape(t *testing.T) {
	id := ChunkID("faq.md", 1, 0)
	assert.Len(t, id, 12)
	assert.NotEqual(t, id, ChunkID("faq.md", 1, 1))
	assert.NotEqual(t, id, ChunkID("faq.md", 2, 0))
	assert.NotEqual(t, id, ChunkID("other.md", 1, 0))
}
