// Package embedding turns text into fixed-dimension vectors.
//
// A Service is the raw embedding engine (local TF-IDF, langchaingo, an
// OpenAI-compatible endpoint). Its results come in whatever shape the engine
// produces; the Extractor is the single place where those shapes are reduced
// to one flat []float64 of the session dimension.
package embedding

import "context"

// Service converts free text into a raw embedding result.
// Implementations may require a preparation phase over the corpus.
//
// Embed may return []float64, []float32, any nesting of numeric slices
// (one row per input), []any decoded from JSON, a Tensor or a Buffer.
type Service interface {
	Name() string
	Prepare(corpus []string) error
	Embed(ctx context.Context, text string) (any, error)
}

// BatchService is implemented by services that embed many texts in one call.
// The result has one entry per input, in input order.
type BatchService interface {
	EmbedBatch(ctx context.Context, texts []string) ([]any, error)
}

// Tensor is a result object exposing its values as nested lists.
type Tensor interface {
	ToList() any
}

// Buffer is a result object backed by a flat typed buffer with a shape,
// e.g. dims [1, 384] or [n, 384].
type Buffer interface {
	Data() []float32
	Dims() []int
}
