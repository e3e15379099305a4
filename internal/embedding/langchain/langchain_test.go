package langchain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	rows [][]float32
	err  error
}

func (f fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rows[:len(texts)], nil
}

func (f fakeEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rows[0], nil
}

func TestServiceEmbed(t *testing.T) {
	s := New("fake", fakeEmbedder{rows: [][]float32{{1, 2}, {3, 4}}})
	assert.Equal(t, "fake", s.Name())
	require.NoError(t, s.Prepare(nil))

	v, err := s.Embed(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, v)

	batch, err := s.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []any{[]float32{1, 2}, []float32{3, 4}}, batch)
}

func TestServiceShortBatchLeavesNils(t *testing.T) {
	s := New("fake", shortEmbedder{})
	batch, err := s.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []float32{1}, batch[0])
	assert.Nil(t, batch[1])
}

func TestServiceErrors(t *testing.T) {
	boom := errors.New("unreachable")
	s := New("fake", fakeEmbedder{err: boom})
	_, err := s.Embed(context.Background(), "q")
	assert.ErrorIs(t, err, boom)
	_, err = s.EmbedBatch(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, boom)
}

type shortEmbedder struct{}

func (shortEmbedder) EmbedDocuments(context.Context, []string) ([][]float32, error) {
	return [][]float32{{1}}, nil
}

func (shortEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return []float32{1}, nil
}
