package chunker

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumechat/internal/domain"
)

func doc(content string) domain.Document {
	return domain.Document{ID: "resume", Content: content}
}

func TestWindowChunkerCoversTextWithIncreasingStarts(t *testing.T) {
	text := strings.Repeat("Senior engineer at Acme, Go and distributed systems. ", 7) + "Zürich — café."
	for size := 1; size <= 40; size += 3 {
		for overlap := 0; overlap < size; overlap += 2 {
			c, err := NewWindowChunker(size, overlap, 0)
			require.NoError(t, err)
			chunks, err := c.Chunk(doc(text))
			require.NoError(t, err)
			require.NotEmpty(t, chunks)

			covered := make([]bool, len(text))
			prev := -1
			for i, ch := range chunks {
				assert.Equal(t, i, ch.Index)
				assert.Greater(t, ch.Start, prev, "size=%d overlap=%d", size, overlap)
				prev = ch.Start
				require.Equal(t, ch.Text, text[ch.Start:ch.Start+len(ch.Text)])
				for j := ch.Start; j < ch.Start+len(ch.Text); j++ {
					covered[j] = true
				}
			}
			for j, ok := range covered {
				require.True(t, ok, "byte %d uncovered: size=%d overlap=%d", j, size, overlap)
			}
		}
	}
}

func TestWindowChunkerShortDocumentIsSingleChunk(t *testing.T) {
	c, err := NewWindowChunker(400, 50, 10)
	require.NoError(t, err)
	chunks, err := c.Chunk(doc("Anmol works at Acme Corp."))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Anmol works at Acme Corp.", chunks[0].Text)
	assert.Equal(t, "resume:0", chunks[0].ChunkID)
}

func TestWindowChunkerDropsTinyTrailingFragment(t *testing.T) {
	c, err := NewWindowChunker(20, 0, 10)
	require.NoError(t, err)
	chunks, err := c.Chunk(doc("Built search systems ok"))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Built search systems", chunks[0].Text)
}

func TestWindowChunkerRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name          string
		size, overlap int
	}{
		{"overlap equals size", 10, 10},
		{"overlap larger than size", 10, 20},
		{"zero size", 0, 0},
		{"negative overlap", 10, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewWindowChunker(tt.size, tt.overlap, 0)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrConfiguration))
		})
	}
}

func TestSentenceChunker(t *testing.T) {
	c, err := NewSentenceChunker(1, 0, 0)
	require.NoError(t, err)
	chunks, err := c.Chunk(doc("Anmol works at Acme Corp. Anmol studied CS."))
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "Anmol works at Acme Corp.", chunks[0].Text)
	assert.Equal(t, "Anmol studied CS.", chunks[1].Text)
	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, 26, chunks[1].Start)
}

func TestSentenceChunkerOverlapAndTrailingText(t *testing.T) {
	c, err := NewSentenceChunker(2, 1, 0)
	require.NoError(t, err)
	chunks, err := c.Chunk(doc("One. Two! Three? Four without stop"))
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "One. Two!", chunks[0].Text)
	assert.Equal(t, "Two! Three?", chunks[1].Text)
	assert.Equal(t, "Three? Four without stop", chunks[2].Text)
}

func TestSentenceChunkerRejectsOverlapNotSmallerThanGroup(t *testing.T) {
	_, err := NewSentenceChunker(2, 2, 0)
	require.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestDelimiterChunker(t *testing.T) {
	text := "[Chunk] Experience: Acme Corp, 2019-2024.\n[Chunk]\n  \n[Chunk] Education: BSc Computer Science."
	chunks, err := NewDelimiterChunker("", 5).Chunk(doc(text))
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "Experience: Acme Corp, 2019-2024.", chunks[0].Text)
	assert.Equal(t, "Education: BSc Computer Science.", chunks[1].Text)
	assert.Equal(t, 1, chunks[1].Index)
	assert.Equal(t, chunks[1].Text, text[chunks[1].Start:chunks[1].Start+len(chunks[1].Text)])
}

func TestNewSelectsPolicy(t *testing.T) {
	c, err := New(Options{Size: 400, Overlap: 50})
	require.NoError(t, err)
	assert.IsType(t, &WindowChunker{}, c)

	c, err = New(Options{Type: TypeDelimiter})
	require.NoError(t, err)
	assert.IsType(t, &DelimiterChunker{}, c)

	_, err = New(Options{Type: "paragraph"})
	require.ErrorIs(t, err, domain.ErrConfiguration)
}
