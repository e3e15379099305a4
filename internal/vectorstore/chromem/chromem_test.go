package chromem

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumechat/internal/domain"
)

func chunks(texts ...string) []domain.Chunk {
	out := make([]domain.Chunk, len(texts))
	for i, t := range texts {
		out[i] = domain.Chunk{ChunkID: "resume:" + t, Text: t, Index: i}
	}
	return out
}

func TestStorageSearch(t *testing.T) {
	s := NewStorage("")
	require.NoError(t, s.Init(2))
	require.NoError(t, s.Upsert(chunks("A", "B", "C"), [][]float64{{0, 1}, {1, 0}, {1, 1}}))

	res, err := s.Search([]float64{3, 0}, 2)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "B", res[0].Chunk.Text)
	assert.InDelta(t, 1.0, res[0].Score, 1e-6)
	assert.Equal(t, "C", res[1].Chunk.Text)
	assert.InDelta(t, 0.7071, res[1].Score, 1e-3)
}

func TestStorageRejectedChunksAndDegenerateQuery(t *testing.T) {
	s := NewStorage("test")
	require.NoError(t, s.Init(2))
	require.NoError(t, s.Upsert(chunks("A", "B"), [][]float64{nil, {1, 0}}))

	res, err := s.Search([]float64{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "B", res[0].Chunk.Text)
	assert.Equal(t, 0.0, res[1].Score)

	// zero and mismatched queries score everything 0, original order
	for _, q := range [][]float64{{0, 0}, {1, 2, 3}} {
		res, err = s.Search(q, 3)
		require.NoError(t, err)
		require.Len(t, res, 2)
		assert.Equal(t, "A", res[0].Chunk.Text)
		assert.Equal(t, 0.0, res[0].Score)
	}
}

func TestStorageZeroChunkVectorScoresZero(t *testing.T) {
	s := NewStorage("")
	require.NoError(t, s.Init(2))
	require.NoError(t, s.Upsert(chunks("A", "B", "C"), [][]float64{{0, 0}, {1, 0}, {math.NaN(), 1}}))

	res, err := s.Search([]float64{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, "B", res[0].Chunk.Text)
	assert.InDelta(t, 1.0, res[0].Score, 1e-6)
	for _, r := range res[1:] {
		assert.Equal(t, 0.0, r.Score, r.Chunk.Text)
	}
	assert.Equal(t, "A", res[1].Chunk.Text)
	assert.Equal(t, "C", res[2].Chunk.Text)
}

func TestStorageClear(t *testing.T) {
	s := NewStorage("")
	require.Error(t, s.Upsert(chunks("A"), [][]float64{{1}}))
	require.NoError(t, s.Init(1))
	require.NoError(t, s.Upsert(chunks("A"), [][]float64{{1}}))
	require.NoError(t, s.Clear())
	res, err := s.Search([]float64{1}, 3)
	require.NoError(t, err)
	assert.Empty(t, res)
}
