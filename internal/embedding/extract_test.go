package embedding

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumechat/internal/domain"
)

type fakeTensor struct{ rows any }

func (t fakeTensor) ToList() any { return t.rows }

type fakeBuffer struct {
	data []float32
	dims []int
}

func (b fakeBuffer) Data() []float32 { return b.data }
func (b fakeBuffer) Dims() []int     { return b.dims }

func TestFlattenShapes(t *testing.T) {
	var decoded any
	require.NoError(t, json.Unmarshal([]byte(`[[0.25, 0.5, 1]]`), &decoded))

	tests := []struct {
		name string
		raw  any
		want []float64
	}{
		{"flat float64", []float64{1, 2, 3}, []float64{1, 2, 3}},
		{"flat float32", []float32{0.5, 0.25}, []float64{0.5, 0.25}},
		{"one row", [][]float64{{0.1, 0.2, 0.3}}, []float64{0.1, 0.2, 0.3}},
		{"first of many rows", [][]float32{{1, 2}, {3, 4}}, []float64{1, 2}},
		{"deeply nested", [][][]float64{{{7, 8}}}, []float64{7, 8}},
		{"decoded json", decoded, []float64{0.25, 0.5, 1}},
		{"ints", []int{1, 0, 2}, []float64{1, 0, 2}},
		{"json numbers", []any{json.Number("1.5"), json.Number("2")}, []float64{1.5, 2}},
		{"tensor", fakeTensor{rows: [][]float64{{4, 5, 6}}}, []float64{4, 5, 6}},
		{"buffer one row", fakeBuffer{data: []float32{1, 2, 3}, dims: []int{1, 3}}, []float64{1, 2, 3}},
		{"buffer first row", fakeBuffer{data: []float32{1, 2, 3, 4}, dims: []int{2, 2}}, []float64{1, 2}},
		{"buffer without dims", fakeBuffer{data: []float32{9}}, []float64{9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Flatten(tt.raw)
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.want, got, 1e-6)
		})
	}
}

func TestFlattenRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  any
	}{
		{"nil", nil},
		{"empty", []float64{}},
		{"empty rows", [][]float64{}},
		{"empty first row", [][]float64{{}}},
		{"string", "0.1,0.2"},
		{"strings", []string{"a", "b"}},
		{"mixed", []any{1.0, "x"}},
		{"nan", []float64{1, math.NaN()}},
		{"inf", []float32{float32(math.Inf(1))}},
		{"ragged buffer", fakeBuffer{data: []float32{1, 2, 3}, dims: []int{2, 2}}},
		{"empty buffer", fakeBuffer{dims: []int{1, 0}}},
		{"nil tensor rows", fakeTensor{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Flatten(tt.raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrEmbeddingFormat)
		})
	}
}

func TestFlattenCopiesInput(t *testing.T) {
	in := []float64{1, 2}
	out, err := Flatten(in)
	require.NoError(t, err)
	out[0] = 42
	assert.Equal(t, 1.0, in[0])
}
